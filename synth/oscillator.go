package synth

import (
	"math"

	"github.com/vsariola/overtone"
)

type (
	// Partial is the state of one sine oscillator: its phase, frequency, gain
	// and whether the note it belongs to is still held.
	Partial struct {
		phase     uint64  // samples since the last phase reset, PhaseReset only
		position  float64 // position within the period in [0,1), PhaseContinuous only
		frequency float64
		gain      float64
		on        bool
	}

	// Oscillator generates samples for Partials. It holds only the constants
	// of the instrument, all the state is in the Partials.
	Oscillator struct {
		sampleRate float64
		decay      float64
		threshold  float64
		mode       overtone.PhaseMode
	}
)

// NewPartial returns a held partial at the given frequency and gain.
func NewPartial(frequency, gain float64) Partial {
	return Partial{frequency: frequency, gain: gain, on: true}
}

func (p *Partial) Frequency() float64 { return p.frequency }
func (p *Partial) Gain() float64      { return p.gain }
func (p *Partial) IsOn() bool         { return p.on }
func (p *Partial) Phase() uint64      { return p.phase }
func (p *Partial) TurnOn()            { p.on = true }
func (p *Partial) TurnOff()           { p.on = false }

// NewOscillator returns an Oscillator using the sample rate, decay, death
// threshold and phase mode of the config.
func NewOscillator(cfg overtone.Config) Oscillator {
	return Oscillator{
		sampleRate: cfg.SampleRate,
		decay:      cfg.Decay,
		threshold:  cfg.Threshold,
		mode:       cfg.PhaseMode,
	}
}

// Generate advances the partial by one sample and returns the sample. A
// released partial has its gain divided by the decay constant before the
// sample is computed, so the release starts on the first sample after the
// note off.
func (o Oscillator) Generate(p *Partial) float64 {
	var x float64
	switch o.mode {
	case overtone.PhaseContinuous:
		p.position += p.frequency / o.sampleRate
		p.position -= math.Floor(p.position)
		x = 2 * math.Pi * p.position
	default:
		// the counter restarts at 1, not 0
		if float64(p.phase) > o.sampleRate/p.frequency {
			p.phase = 1
		} else {
			p.phase++
		}
		x = 2 * math.Pi * (p.frequency / o.sampleRate * float64(p.phase))
	}
	if !p.on {
		p.gain /= o.decay
	}
	return p.gain * math.Sin(x)
}

// IsDead reports whether a released partial has decayed below the threshold.
// A held partial is never dead.
func (o Oscillator) IsDead(p *Partial) bool {
	return !p.on && p.gain < o.threshold
}
