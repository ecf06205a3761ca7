package synth

import (
	"errors"
	"math"

	"github.com/vsariola/overtone"
)

type (
	// Pool is a fixed capacity arena of HarmonicVoices. Slot indices carry no
	// meaning beyond storage, but slots are always scanned and iterated in
	// ascending index order, so the order in which the voices are summed is
	// deterministic.
	//
	// A Pool is not safe for concurrent use; it is meant to be owned by the
	// audio goroutine.
	Pool struct {
		harmonic Harmonic
		policy   overtone.ExhaustionPolicy
		slots    []slot
		count    int    // number of occupied slots
		end      int    // one past the last occupied slot
		serial   uint64 // incremented for every note on, orders voices by age
	}

	slot struct {
		used   bool
		serial uint64
		voice  HarmonicVoice
	}
)

var (
	ErrPoolExhausted    = errors.New("voice pool exhausted, note dropped")
	ErrInvalidFrequency = errors.New("note frequency should be positive and finite")
)

// NewPool creates a pool of the given capacity. The partial storage of every
// slot is allocated up front, so NoteOn never allocates.
func NewPool(harmonic Harmonic, capacity int, policy overtone.ExhaustionPolicy) *Pool {
	n := harmonic.NumPartials()
	storage := make([]Partial, capacity*n)
	slots := make([]slot, capacity)
	for i := range slots {
		slots[i].voice.partials = storage[i*n : (i+1)*n : (i+1)*n]
	}
	return &Pool{harmonic: harmonic, policy: policy, slots: slots}
}

// NoteOn starts a new voice in the first empty slot and returns its index.
// When all slots are taken, the exhaustion policy of the pool decides: with
// PolicyDrop the note is not started and ErrPoolExhausted is returned, the
// stealing policies replace an existing voice and report stolen = true.
func (p *Pool) NoteOn(frequency, gain float64) (index int, stolen bool, err error) {
	if !(frequency > 0) || math.IsInf(frequency, 0) {
		return -1, false, ErrInvalidFrequency
	}
	index = p.firstFree()
	if index < 0 {
		index = p.victim()
		if index < 0 {
			return -1, false, ErrPoolExhausted
		}
		stolen = true
		p.Kill(index)
	}
	s := &p.slots[index]
	p.harmonic.Init(&s.voice, frequency, gain)
	p.serial++
	s.serial = p.serial
	s.used = true
	p.count++
	if index >= p.end {
		p.end = index + 1
	}
	return index, stolen, nil
}

// NoteOff releases every held voice whose fundamental is exactly frequency
// and returns how many were released. Voices retriggered at the same
// frequency are all released together.
func (p *Pool) NoteOff(frequency float64) (released int) {
	for i := 0; i < p.end; i++ {
		s := &p.slots[i]
		if s.used && s.voice.IsOn() && s.voice.Frequency() == frequency {
			s.voice.TurnOff()
			released++
		}
	}
	return
}

// Kill frees the slot. Killing an empty slot or an index outside the pool
// does nothing.
func (p *Pool) Kill(index int) {
	if index < 0 || index >= len(p.slots) {
		return
	}
	s := &p.slots[index]
	if !s.used {
		return
	}
	s.used = false
	p.count--
	for p.end > 0 && !p.slots[p.end-1].used {
		p.end--
	}
}

// Voice returns the voice in the slot, or nil if the slot is empty.
func (p *Pool) Voice(index int) *HarmonicVoice {
	if index < 0 || index >= len(p.slots) || !p.slots[index].used {
		return nil
	}
	return &p.slots[index].voice
}

// All iterates the occupied slots in ascending index order.
func (p *Pool) All(yield func(index int, voice *HarmonicVoice) bool) {
	for i := 0; i < p.end; i++ {
		if p.slots[i].used && !yield(i, &p.slots[i].voice) {
			return
		}
	}
}

// Len returns the number of occupied slots.
func (p *Pool) Len() int { return p.count }

// Cap returns the capacity of the pool.
func (p *Pool) Cap() int { return len(p.slots) }

// Policy returns the exhaustion policy of the pool.
func (p *Pool) Policy() overtone.ExhaustionPolicy { return p.policy }

// ReleaseAll turns off every voice, letting them decay normally.
func (p *Pool) ReleaseAll() {
	for i := 0; i < p.end; i++ {
		if p.slots[i].used {
			p.slots[i].voice.TurnOff()
		}
	}
}

// Reset frees every slot immediately.
func (p *Pool) Reset() {
	for i := range p.slots[:p.end] {
		p.slots[i].used = false
	}
	p.count = 0
	p.end = 0
}

func (p *Pool) firstFree() int {
	if p.count == len(p.slots) {
		return -1
	}
	for i := range p.slots {
		if !p.slots[i].used {
			return i
		}
	}
	return -1
}

// victim picks the voice to steal according to the policy, or -1 if the
// policy does not steal.
func (p *Pool) victim() int {
	best := -1
	switch p.policy {
	case overtone.PolicyStealOldest:
		for i := range p.slots {
			if p.slots[i].used && (best < 0 || p.slots[i].serial < p.slots[best].serial) {
				best = i
			}
		}
	case overtone.PolicyStealQuietest:
		bestGain := math.Inf(1)
		for i := range p.slots {
			if !p.slots[i].used {
				continue
			}
			g := p.slots[i].voice.Gain()
			if best < 0 || g < bestGain || (g == bestGain && p.slots[i].serial < p.slots[best].serial) {
				best, bestGain = i, g
			}
		}
	}
	return best
}

// Harmonic returns the generator used for the voices of the pool.
func (p *Pool) Harmonic() Harmonic { return p.harmonic }
