package synth_test

import (
	"math"
	"testing"

	"github.com/vsariola/overtone"
	"github.com/vsariola/overtone/synth"
)

const tolerance = 1e-9

func TestOscillatorFirstSamples(t *testing.T) {
	cfg := overtone.DefaultConfig()
	osc := synth.NewOscillator(cfg)
	p := synth.NewPartial(440, 1)
	for i := 1; i <= 16; i++ {
		got := osc.Generate(&p)
		want := math.Sin(2 * math.Pi * 440 / 44100 * float64(i))
		if math.Abs(got-want) > tolerance {
			t.Fatalf("sample %d: got %v, want %v", i, got, want)
		}
		if p.Phase() != uint64(i) {
			t.Fatalf("sample %d: phase is %d", i, p.Phase())
		}
	}
}

func TestOscillatorPhaseResetsToOne(t *testing.T) {
	cfg := overtone.DefaultConfig()
	cfg.SampleRate = 8
	osc := synth.NewOscillator(cfg)
	p := synth.NewPartial(2, 1) // period of exactly 4 samples
	want := []uint64{1, 2, 3, 4, 5, 1, 2, 3, 4, 5, 1}
	for i, w := range want {
		osc.Generate(&p)
		if p.Phase() != w {
			t.Fatalf("sample %d: phase %d, want %d", i, p.Phase(), w)
		}
	}
}

func TestOscillatorContinuousPhase(t *testing.T) {
	cfg := overtone.DefaultConfig()
	reset := synth.NewOscillator(cfg)
	cfg.PhaseMode = overtone.PhaseContinuous
	continuous := synth.NewOscillator(cfg)
	a := synth.NewPartial(440, 1)
	b := synth.NewPartial(440, 1)
	// the modes agree until the first phase reset at sample 102
	for i := 1; i <= 100; i++ {
		x, y := reset.Generate(&a), continuous.Generate(&b)
		if math.Abs(x-y) > 1e-6 {
			t.Fatalf("sample %d: reset %v, continuous %v", i, x, y)
		}
	}
	// after that, the continuous mode keeps following the ideal sine
	for i := 101; i <= 10000; i++ {
		got := continuous.Generate(&b)
		want := math.Sin(2 * math.Pi * 440 / 44100 * float64(i))
		if math.Abs(got-want) > 1e-6 {
			t.Fatalf("sample %d: got %v, want %v", i, got, want)
		}
	}
}

func TestOscillatorReleaseDecaysMonotonically(t *testing.T) {
	cfg := overtone.DefaultConfig()
	osc := synth.NewOscillator(cfg)
	p := synth.NewPartial(440, 1)
	for i := 0; i < 10; i++ {
		osc.Generate(&p)
	}
	if p.Gain() != 1 {
		t.Fatalf("held partial should keep its gain, got %v", p.Gain())
	}
	p.TurnOff()
	prev := p.Gain()
	for n := 1; !osc.IsDead(&p); n++ {
		osc.Generate(&p)
		if !(p.Gain() < prev) {
			t.Fatalf("sample %d after release: gain %v did not decrease from %v", n, p.Gain(), prev)
		}
		if want := math.Pow(cfg.Decay, -float64(n)); math.Abs(p.Gain()-want) > tolerance {
			t.Fatalf("sample %d after release: gain %v, want %v", n, p.Gain(), want)
		}
		prev = p.Gain()
		if n > 1000 {
			t.Fatal("partial never died")
		}
	}
	if p.Gain() >= cfg.Threshold {
		t.Fatalf("dead partial has gain %v above threshold", p.Gain())
	}
}

func TestOscillatorHeldPartialNeverDies(t *testing.T) {
	osc := synth.NewOscillator(overtone.DefaultConfig())
	p := synth.NewPartial(440, 0)
	for i := 0; i < 100; i++ {
		osc.Generate(&p)
	}
	if osc.IsDead(&p) {
		t.Fatal("a held partial should not be dead, even with zero gain")
	}
	p.TurnOff()
	if !osc.IsDead(&p) {
		t.Fatal("a released partial with zero gain should be dead")
	}
}
