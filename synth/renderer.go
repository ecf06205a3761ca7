package synth

import (
	"errors"
	"fmt"

	"github.com/vsariola/overtone"
)

type (
	// Renderer turns note events into audio, one block at a time. All the
	// memory it needs is allocated in NewRenderer; Render does not allocate,
	// lock, log or make system calls, so it can be called from a real-time
	// audio callback.
	Renderer struct {
		harmonic    Harmonic
		pool        *Pool
		frequencies [overtone.MaxNote + 1]float64
		cfg         overtone.Config
		stats       Stats
	}

	// Stats are counters updated while rendering. They are meant to be read
	// and logged outside the audio callback.
	Stats struct {
		Blocks    uint64 // number of Render calls
		Frames    uint64 // number of samples rendered
		NotesOn   uint64 // note on events that started a voice
		NotesOff  uint64 // note off events dispatched
		Released  uint64 // voices turned off by note offs
		Dropped   uint64 // note ons ignored because the pool was full
		Stolen    uint64 // voices replaced by a new note because the pool was full
		Rejected  uint64 // malformed events skipped
		Reclaimed uint64 // slots freed after the voice decayed
		MaxVoices int    // largest number of simultaneous voices seen
	}
)

var ErrInvalidNote = errors.New("note number out of range")

// NewRenderer validates the configuration and creates a renderer with an
// empty voice pool.
func NewRenderer(cfg overtone.Config) (*Renderer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("cannot create renderer: %w", err)
	}
	cfg.Harmonics = append([]int(nil), cfg.Harmonics...)
	h := NewHarmonic(NewOscillator(cfg), cfg.Harmonics)
	r := &Renderer{
		harmonic: h,
		pool:     NewPool(h, cfg.Capacity, cfg.Policy),
		cfg:      cfg,
	}
	for n := range r.frequencies {
		r.frequencies[n] = overtone.NoteToFrequency(byte(n))
	}
	return r, nil
}

// Render fills buffer with the next len(buffer) samples. events are the note
// events of this block, with Frame in [0, len(buffer)) and in non-decreasing
// order. An event is applied right before the sample at its Frame is
// rendered. Events that are out of order, out of the block or carry an
// invalid note are skipped and counted in Stats.Rejected.
//
// Every sample of buffer is overwritten; the previous contents are ignored.
func (r *Renderer) Render(buffer []float32, events []overtone.NoteEvent) {
	e := 0
	for i := range buffer {
		for e < len(events) && events[e].Frame <= i {
			if events[e].Frame < i {
				r.stats.Rejected++
			} else {
				r.dispatch(events[e])
			}
			e++
		}
		var sample float64
		slots := r.pool.slots
		for j := 0; j < r.pool.end; j++ {
			s := &slots[j]
			if !s.used {
				continue
			}
			sample += r.harmonic.Generate(&s.voice)
			if r.harmonic.IsDead(&s.voice) {
				r.pool.Kill(j)
				r.stats.Reclaimed++
			}
		}
		buffer[i] = float32(sample)
	}
	r.stats.Rejected += uint64(len(events) - e)
	r.stats.Blocks++
	r.stats.Frames += uint64(len(buffer))
}

// Trigger starts a note immediately, i.e. before the next rendered sample.
func (r *Renderer) Trigger(note, velocity byte) error {
	if note > overtone.MaxNote {
		return ErrInvalidNote
	}
	_, stolen, err := r.pool.NoteOn(r.frequencies[note], r.cfg.NoteGain(velocity))
	if err != nil {
		if errors.Is(err, ErrPoolExhausted) {
			r.stats.Dropped++
		}
		return err
	}
	r.stats.NotesOn++
	if stolen {
		r.stats.Stolen++
	}
	r.stats.MaxVoices = max(r.stats.MaxVoices, r.pool.Len())
	return nil
}

// Release turns off every held voice playing the note.
func (r *Renderer) Release(note byte) error {
	if note > overtone.MaxNote {
		return ErrInvalidNote
	}
	r.stats.NotesOff++
	r.stats.Released += uint64(r.pool.NoteOff(r.frequencies[note]))
	return nil
}

// ReleaseAll turns off all the voices, letting them decay.
func (r *Renderer) ReleaseAll() { r.pool.ReleaseAll() }

// Panic silences the renderer immediately by freeing all the voices.
func (r *Renderer) Panic() { r.pool.Reset() }

// Stats returns the counters accumulated so far.
func (r *Renderer) Stats() Stats { return r.stats }

// Pool returns the voice pool of the renderer.
func (r *Renderer) Pool() *Pool { return r.pool }

// Config returns the configuration the renderer was created with.
func (r *Renderer) Config() overtone.Config { return r.cfg }

// Frequency returns the frequency the renderer uses for the note.
func (r *Renderer) Frequency(note byte) float64 {
	if note > overtone.MaxNote {
		return 0
	}
	return r.frequencies[note]
}

func (r *Renderer) dispatch(ev overtone.NoteEvent) {
	var err error
	if ev.On {
		err = r.Trigger(ev.Note, ev.Velocity)
	} else {
		err = r.Release(ev.Note)
	}
	if err != nil && !errors.Is(err, ErrPoolExhausted) {
		r.stats.Rejected++
	}
}
