package synth

type (
	// HarmonicVoice is one sounding note: a group of partials at fixed integer
	// multiples of the fundamental, switched on and off together.
	HarmonicVoice struct {
		fundamental float64
		partials    []Partial
	}

	// Harmonic generates HarmonicVoices by averaging the outputs of their
	// partials with equal weights.
	Harmonic struct {
		osc    Oscillator
		ratios []int
		weight float64
	}
)

// NewHarmonic returns a Harmonic generating partials at the given frequency
// ratios. The ratios are copied.
func NewHarmonic(osc Oscillator, ratios []int) Harmonic {
	r := make([]int, len(ratios))
	copy(r, ratios)
	return Harmonic{osc: osc, ratios: r, weight: 1 / float64(len(r))}
}

// NumPartials returns how many partials each voice has.
func (h Harmonic) NumPartials() int { return len(h.ratios) }

// Oscillator returns the oscillator used for the partials.
func (h Harmonic) Oscillator() Oscillator { return h.osc }

// NewVoice allocates a new held voice with the given fundamental and gain.
func (h Harmonic) NewVoice(fundamental, gain float64) HarmonicVoice {
	v := HarmonicVoice{partials: make([]Partial, len(h.ratios))}
	h.Init(&v, fundamental, gain)
	return v
}

// Init restarts v as a held voice with the given fundamental and gain,
// reusing the partial storage of v when it is large enough.
func (h Harmonic) Init(v *HarmonicVoice, fundamental, gain float64) {
	if cap(v.partials) < len(h.ratios) {
		v.partials = make([]Partial, len(h.ratios))
	}
	v.partials = v.partials[:len(h.ratios)]
	v.fundamental = fundamental
	for i, r := range h.ratios {
		v.partials[i] = NewPartial(fundamental*float64(r), gain)
	}
}

// Generate advances every partial of v by one sample and returns their
// average.
func (h Harmonic) Generate(v *HarmonicVoice) float64 {
	var sum float64
	for i := range v.partials {
		sum += h.weight * h.osc.Generate(&v.partials[i])
	}
	return sum
}

// IsDead reports whether every partial of v is dead. One partial still above
// the threshold keeps the whole voice alive.
func (h Harmonic) IsDead(v *HarmonicVoice) bool {
	for i := range v.partials {
		if !h.osc.IsDead(&v.partials[i]) {
			return false
		}
	}
	return true
}

func (v *HarmonicVoice) TurnOn() {
	for i := range v.partials {
		v.partials[i].TurnOn()
	}
}

func (v *HarmonicVoice) TurnOff() {
	for i := range v.partials {
		v.partials[i].TurnOff()
	}
}

func (v *HarmonicVoice) IsOn() bool {
	return len(v.partials) > 0 && v.partials[0].on
}

// Frequency returns the fundamental the voice was triggered with.
func (v *HarmonicVoice) Frequency() float64 { return v.fundamental }

// Gain returns the largest gain among the partials.
func (v *HarmonicVoice) Gain() (ret float64) {
	for i := range v.partials {
		ret = max(ret, v.partials[i].gain)
	}
	return
}

// Partials returns the partials of the voice. The slice aliases the voice.
func (v *HarmonicVoice) Partials() []Partial { return v.partials }
