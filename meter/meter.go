// Package meter measures the output of the synthesizer: loudness according to
// EBU R128 / ITU-R BS.1770 and true peaks using 4x oversampling.
package meter

import (
	"math"

	"github.com/cwbudde/algo-dsp/measure/loudness"
	"github.com/viterin/vek/vek32"
)

type (
	Decibel float32

	// Result of measuring one chunk of audio. Loudness values are LUFS,
	// peaks are dBTP.
	Result struct {
		Momentary  Decibel
		ShortTerm  Decibel
		Integrated Decibel
		Peak       Decibel // true peak of the last chunk
		MaxPeak    Decibel // true peak since the last Reset
		Clipped    uint64  // samples outside [-1,1] since the last Reset
	}

	// Meter measures a mono signal chunk by chunk. It is not safe for
	// concurrent use; see Detector for measuring from another goroutine.
	Meter struct {
		sampleRate   float64
		loudness     *loudness.Meter
		oversampling bool
		oversampler  oversamplerState
		maxPeak      float32
		clipped      uint64
		tmp, tmp2    []float32
		tmp64        []float64
	}
)

// New creates a Meter. With oversampling, the peaks are measured from a 4x
// oversampled signal, catching the inter-sample peaks.
func New(sampleRate float64, oversampling bool) *Meter {
	m := &Meter{
		sampleRate:   sampleRate,
		loudness:     loudness.NewMeter(loudness.WithSampleRate(sampleRate), loudness.WithChannels(1)),
		oversampling: oversampling,
	}
	m.loudness.StartIntegration()
	return m
}

// Update measures the next chunk of audio.
func (m *Meter) Update(chunk []float32) Result {
	setSliceLength(&m.tmp64, len(chunk))
	for i, v := range chunk {
		m.tmp64[i] = float64(v)
		if v > 1 || v < -1 {
			m.clipped++
		}
	}
	m.loudness.ProcessBlock(m.tmp64)
	peak := m.peak(chunk)
	if m.maxPeak < peak {
		m.maxPeak = peak
	}
	return Result{
		Momentary:  Decibel(m.loudness.Momentary()),
		ShortTerm:  Decibel(m.loudness.ShortTerm()),
		Integrated: Decibel(m.loudness.Integrated()),
		Peak:       amplitude2decibel(peak),
		MaxPeak:    amplitude2decibel(m.maxPeak),
		Clipped:    m.clipped,
	}
}

// Reset forgets everything measured so far.
func (m *Meter) Reset() {
	m.loudness.Reset()
	m.loudness.StartIntegration()
	m.oversampler.history = [11]float32{}
	m.maxPeak = 0
	m.clipped = 0
}

func (m *Meter) peak(chunk []float32) float32 {
	if len(chunk) == 0 {
		return 0
	}
	setSliceLength(&m.tmp, len(chunk))
	copy(m.tmp, chunk)
	o := m.tmp
	if m.oversampling {
		setSliceLength(&m.tmp2, 4*len(chunk))
		o = m.oversampler.Oversample(m.tmp, m.tmp2)
	}
	vek32.Abs_Inplace(o)
	return vek32.Max(o)
}

func amplitude2decibel(a float32) Decibel {
	return Decibel(20 * math.Log10(float64(a)))
}

func setSliceLength[T any](slice *[]T, length int) {
	if len(*slice) < length {
		*slice = append(*slice, make([]T, length-len(*slice))...)
	}
	*slice = (*slice)[:length]
}
