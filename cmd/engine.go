package cmd

import (
	"fmt"

	"github.com/viterin/vek/vek32"
	"github.com/vsariola/overtone"
	"github.com/vsariola/overtone/meter"
	"github.com/vsariola/overtone/synth"
)

type (
	// EventSource supplies the note events of consecutive blocks. Frame of
	// the returned events is relative to the start of the block.
	EventSource interface {
		Block(frames int, dst []overtone.NoteEvent) []overtone.NoteEvent
	}

	// Engine drives a renderer from an EventSource, cutting the buffers asked
	// by the host into blocks of Config.BlockSize and applying the master
	// gain. Render can be used directly as an overtone.RenderFunc.
	Engine struct {
		renderer  *synth.Renderer
		source    EventSource
		events    []overtone.NoteEvent
		blockSize int
		gain      float32
		detector  *meter.Detector
		stats     chan synth.Stats
	}
)

// DefaultMaxEvents is the event capacity used when NewEngine is given none.
const DefaultMaxEvents = 1024

// NewEngine creates the renderer described by cfg. maxEvents is the most
// events source can return for one block; the event buffer is allocated
// with that capacity so Render never grows it.
func NewEngine(cfg overtone.Config, source EventSource, maxEvents int) (*Engine, error) {
	r, err := synth.NewRenderer(cfg)
	if err != nil {
		return nil, fmt.Errorf("cannot create engine: %w", err)
	}
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}
	return &Engine{
		renderer:  r,
		source:    source,
		events:    make([]overtone.NoteEvent, 0, maxEvents),
		blockSize: cfg.BlockSize,
		gain:      float32(cfg.MasterGain),
		stats:     make(chan synth.Stats, 1),
	}, nil
}

// SetDetector makes the engine send everything it renders to d. Must be
// called before rendering starts.
func (e *Engine) SetDetector(d *meter.Detector) { e.detector = d }

// Render fills buf with the next len(buf) samples.
func (e *Engine) Render(buf []float32) {
	for len(buf) > 0 {
		n := len(buf)
		if e.blockSize > 0 {
			n = min(n, e.blockSize)
		}
		block := buf[:n]
		if e.source != nil {
			e.events = e.source.Block(n, e.events[:0])
		}
		e.renderer.Render(block, e.events)
		e.events = e.events[:0]
		if e.gain != 1 {
			vek32.MulNumber_Inplace(block, e.gain)
		}
		if e.detector != nil {
			e.detector.Send(block)
		}
		buf = buf[n:]
	}
	// publish the latest counters without blocking the audio goroutine
	select {
	case <-e.stats:
	default:
	}
	e.stats <- e.renderer.Stats()
}

// Stats receives the counters published after each Render. Only the latest
// value is kept.
func (e *Engine) Stats() <-chan synth.Stats { return e.stats }

// Renderer returns the underlying renderer. It must not be used concurrently
// with Render.
func (e *Engine) Renderer() *synth.Renderer { return e.renderer }
