package synth_test

import (
	"errors"
	"math"
	"testing"

	"github.com/vsariola/overtone"
	"github.com/vsariola/overtone/synth"
)

func newPool(capacity int, policy overtone.ExhaustionPolicy) *synth.Pool {
	cfg := overtone.DefaultConfig()
	return synth.NewPool(synth.NewHarmonic(synth.NewOscillator(cfg), cfg.Harmonics), capacity, policy)
}

func TestPoolFillsFirstFreeSlot(t *testing.T) {
	p := newPool(4, overtone.PolicyDrop)
	for i := 0; i < 3; i++ {
		index, stolen, err := p.NoteOn(float64(100*(i+1)), 1)
		if err != nil || stolen || index != i {
			t.Fatalf("note %d: got slot %d, stolen %v, err %v", i, index, stolen, err)
		}
	}
	p.Kill(1)
	if p.Voice(1) != nil {
		t.Fatal("killed slot should be empty")
	}
	index, _, err := p.NoteOn(400, 1)
	if err != nil || index != 1 {
		t.Fatalf("expected the freed slot 1 to be reused, got %d (%v)", index, err)
	}
	var order []float64
	for _, v := range p.All {
		order = append(order, v.Frequency())
	}
	want := []float64{100, 400, 300}
	if len(order) != len(want) {
		t.Fatalf("iteration returned %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("iteration returned %v, want %v", order, want)
		}
	}
}

func TestPoolRejectsInvalidFrequency(t *testing.T) {
	p := newPool(4, overtone.PolicyDrop)
	for _, f := range []float64{0, -440, math.NaN(), math.Inf(1)} {
		if _, _, err := p.NoteOn(f, 1); !errors.Is(err, synth.ErrInvalidFrequency) {
			t.Errorf("NoteOn(%v): got %v, want ErrInvalidFrequency", f, err)
		}
	}
	if p.Len() != 0 {
		t.Fatalf("rejected notes should not take slots, %d taken", p.Len())
	}
}

func TestPoolNoteOffExactFrequency(t *testing.T) {
	p := newPool(8, overtone.PolicyDrop)
	p.NoteOn(440, 1)
	p.NoteOn(math.Nextafter(440, 1000), 1)
	p.NoteOn(440, 1) // retriggered before release
	p.NoteOn(220, 1)
	if n := p.NoteOff(440); n != 2 {
		t.Fatalf("NoteOff released %d voices, want 2", n)
	}
	want := []bool{false, true, false, true}
	for i, on := range want {
		if v := p.Voice(i); v == nil || v.IsOn() != on {
			t.Errorf("slot %d: on should be %v", i, on)
		}
	}
	if n := p.NoteOff(440); n != 0 {
		t.Fatalf("second NoteOff released %d voices, want 0", n)
	}
}

func TestPoolExhaustion(t *testing.T) {
	for _, tc := range []struct {
		policy    overtone.ExhaustionPolicy
		wantErr   error
		wantSlot  int
		wantFreqs []float64
	}{
		{overtone.PolicyDrop, synth.ErrPoolExhausted, -1, []float64{100, 200, 300, 400}},
		{overtone.PolicyStealOldest, nil, 0, []float64{500, 200, 300, 400}},
		{overtone.PolicyStealQuietest, nil, 2, []float64{100, 200, 500, 400}},
	} {
		t.Run(tc.policy.String(), func(t *testing.T) {
			p := newPool(4, tc.policy)
			gains := []float64{1, 0.9, 0.3, 0.3}
			for i, g := range gains {
				p.NoteOn(float64(100*(i+1)), g)
			}
			index, stolen, err := p.NoteOn(500, 1)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got error %v, want %v", err, tc.wantErr)
			}
			if index != tc.wantSlot || stolen != (tc.wantErr == nil) {
				t.Fatalf("got slot %d stolen %v, want slot %d", index, stolen, tc.wantSlot)
			}
			if p.Len() != p.Cap() {
				t.Fatalf("pool should stay full, has %d of %d", p.Len(), p.Cap())
			}
			for i, f := range tc.wantFreqs {
				if got := p.Voice(i).Frequency(); got != f {
					t.Errorf("slot %d holds %v Hz, want %v", i, got, f)
				}
			}
		})
	}
}

func TestPoolDefaultCapacityOverflow(t *testing.T) {
	cfg := overtone.DefaultConfig()
	p := newPool(cfg.Capacity, cfg.Policy)
	for i := 0; i < cfg.Capacity; i++ {
		if _, _, err := p.NoteOn(440, 1); err != nil {
			t.Fatalf("note %d: %v", i, err)
		}
	}
	for i := 0; i < 3; i++ {
		if _, _, err := p.NoteOn(440, 1); !errors.Is(err, synth.ErrPoolExhausted) {
			t.Fatalf("note beyond capacity: got %v, want ErrPoolExhausted", err)
		}
	}
	if p.Len() != cfg.Capacity {
		t.Fatalf("pool has %d voices, want %d", p.Len(), cfg.Capacity)
	}
}

func TestPoolResetAndReleaseAll(t *testing.T) {
	p := newPool(4, overtone.PolicyDrop)
	p.NoteOn(100, 1)
	p.NoteOn(200, 1)
	p.ReleaseAll()
	for i, v := range p.All {
		if v.IsOn() {
			t.Errorf("slot %d still on after ReleaseAll", i)
		}
	}
	p.Reset()
	if p.Len() != 0 || p.Voice(0) != nil {
		t.Fatal("pool should be empty after Reset")
	}
	if index, _, _ := p.NoteOn(300, 1); index != 0 {
		t.Fatalf("first note after Reset went to slot %d", index)
	}
}

func TestPoolKillOutOfRange(t *testing.T) {
	p := newPool(2, overtone.PolicyDrop)
	p.NoteOn(100, 1)
	for _, index := range []int{-1, 2, 5} {
		p.Kill(index)
	}
	if p.Len() != 1 || p.Voice(0) == nil {
		t.Fatalf("killing outside the pool changed it: %d voices", p.Len())
	}
	p.Kill(1)
	if p.Len() != 1 {
		t.Fatalf("killing an empty slot changed the count to %d", p.Len())
	}
}
