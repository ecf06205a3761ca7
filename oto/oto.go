package oto

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/vsariola/overtone"
)

type (
	// OtoContext is an overtone.AudioContext playing mono float32 audio
	// through the default audio device.
	OtoContext struct {
		ctx        *oto.Context
		sampleRate int
	}

	// OtoPlayback is a running playback started with OtoContext.Play.
	OtoPlayback struct {
		player *oto.Player
		once   sync.Once
		done   chan struct{}
	}

	// Reader pulls audio from a RenderFunc whenever the device asks for more,
	// encoding the samples as little-endian float32.
	Reader struct {
		render overtone.RenderFunc
		buffer []float32
	}
)

// oto allows only one context per process
var (
	contextOnce sync.Once
	context     *OtoContext
	contextErr  error
)

var ErrNoRender = errors.New("no render function given")

// NewContext creates the audio context. bufferSize is the latency requested
// from the device; zero lets oto pick. The context is created only once; later
// calls return the same context and ignore their arguments.
func NewContext(sampleRate int, bufferSize time.Duration) (*OtoContext, error) {
	contextOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 1,
			Format:       oto.FormatFloat32LE,
			BufferSize:   bufferSize,
		})
		if err != nil {
			contextErr = fmt.Errorf("cannot create oto context: %w", err)
			return
		}
		<-ready
		context = &OtoContext{ctx: ctx, sampleRate: sampleRate}
	})
	return context, contextErr
}

// Play starts pulling audio from render. render is called from the audio
// goroutine of oto.
func (c *OtoContext) Play(render overtone.RenderFunc) overtone.CloserWaiter {
	p := &OtoPlayback{
		player: c.ctx.NewPlayer(NewReader(render, 4096)),
		done:   make(chan struct{}),
	}
	p.player.Play()
	return p
}

func (c *OtoContext) SampleRate() int { return c.sampleRate }

// Close suspends the audio device. oto contexts cannot be destroyed, so the
// device is released only when the process exits.
func (c *OtoContext) Close() error {
	if err := c.ctx.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}
	return nil
}

// Close stops the playback.
func (p *OtoPlayback) Close() (err error) {
	p.once.Do(func() {
		if e := p.player.Close(); e != nil {
			err = fmt.Errorf("cannot close oto player: %w", e)
		}
		close(p.done)
	})
	return
}

// Wait blocks until Close has been called.
func (p *OtoPlayback) Wait() {
	<-p.done
}

// NewReader creates a Reader with room for size samples; the buffer grows if
// the device ever asks for more.
func NewReader(render overtone.RenderFunc, size int) *Reader {
	return &Reader{render: render, buffer: make([]float32, size)}
}

func (r *Reader) Read(p []byte) (n int, err error) {
	if r.render == nil {
		return 0, ErrNoRender
	}
	numSamples := len(p) / 4
	if len(r.buffer) < numSamples {
		r.buffer = make([]float32, numSamples)
	}
	samples := r.buffer[:numSamples]
	r.render(samples)
	return FloatBufferToLE(samples, p), nil
}
