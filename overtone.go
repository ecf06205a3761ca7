// Package overtone holds the types shared by the additive synthesizer core
// (package synth) and the host glue around it: note events, the instrument
// configuration and the audio sink/context interfaces.
package overtone

import "math"

// NoteEvent is a note triggering or releasing event. Frame is the sample
// offset of the event relative to the start of the block being rendered. In a
// Schedule, Frame is relative to the start of the whole performance.
type NoteEvent struct {
	Frame    int
	On       bool
	Note     byte
	Velocity byte
}

const (
	// ReferenceNote is the MIDI note number of A4
	ReferenceNote = 69
	// ReferenceFrequency is the frequency of ReferenceNote in Hz
	ReferenceFrequency = 440.0
	// MaxNote is the largest valid MIDI note number
	MaxNote = 127
	// MaxVelocity is the largest valid MIDI velocity
	MaxVelocity = 127
)

// NoteToFrequency maps a MIDI note number to its equal-tempered frequency,
// with note 69 being 440 Hz.
func NoteToFrequency(note byte) float64 {
	return ReferenceFrequency * math.Pow(2, (float64(note)-ReferenceNote)/12)
}

// VelocityToGain maps a MIDI velocity linearly to a gain in [0,1].
func VelocityToGain(velocity byte) float64 {
	if velocity > MaxVelocity {
		return 1
	}
	return float64(velocity) / MaxVelocity
}
