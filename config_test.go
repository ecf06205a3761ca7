package overtone_test

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/vsariola/overtone"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := overtone.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.SampleRate != 44100 || cfg.Capacity != 2048 || cfg.Decay != 1.05 || cfg.Threshold != 0.01 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Harmonics, []int{1, 2, 3, 4}) {
		t.Fatalf("default harmonics %v", cfg.Harmonics)
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := overtone.DefaultConfig()
	cfg.SampleRate = 0
	cfg.Harmonics = []int{1, 0, -2}
	cfg.Decay = 1
	cfg.Policy = 7
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, overtone.ErrInvalidPolicy) {
		t.Errorf("error should wrap ErrInvalidPolicy: %v", err)
	}
	for _, want := range []string{"sample rate", "harmonic 1", "harmonic 2", "decay"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestValidateMasterGain(t *testing.T) {
	for _, gain := range []float64{-0.5, math.NaN(), math.Inf(1), math.Inf(-1)} {
		cfg := overtone.DefaultConfig()
		cfg.MasterGain = gain
		if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "master gain") {
			t.Errorf("master gain %v: got %v, want an error", gain, err)
		}
	}
	cfg := overtone.DefaultConfig()
	cfg.MasterGain = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("a muted master gain should be valid: %v", err)
	}
}

func TestReadConfigYAML(t *testing.T) {
	cfg, err := overtone.ReadConfig(strings.NewReader(`
samplerate: 48000
harmonics: [1, 3, 5]
policy: steal-quietest
phasemode: continuous
velocityoverride: false
`))
	if err != nil {
		t.Fatalf("ReadConfig failed: %v", err)
	}
	if cfg.SampleRate != 48000 || !reflect.DeepEqual(cfg.Harmonics, []int{1, 3, 5}) {
		t.Errorf("got sample rate %v and harmonics %v", cfg.SampleRate, cfg.Harmonics)
	}
	if cfg.Policy != overtone.PolicyStealQuietest || cfg.PhaseMode != overtone.PhaseContinuous || cfg.VelocityOverride {
		t.Errorf("got policy %v, phase mode %v, override %v", cfg.Policy, cfg.PhaseMode, cfg.VelocityOverride)
	}
	if cfg.Decay != 1.05 || cfg.Capacity != 2048 {
		t.Errorf("omitted fields should keep their defaults, got decay %v capacity %v", cfg.Decay, cfg.Capacity)
	}
}

func TestReadConfigJSON(t *testing.T) {
	cfg, err := overtone.ReadConfig(strings.NewReader(`{"capacity": 16, "policy": "steal-oldest", "decay": 1.01}`))
	if err != nil {
		t.Fatalf("ReadConfig failed: %v", err)
	}
	if cfg.Capacity != 16 || cfg.Policy != overtone.PolicyStealOldest || cfg.Decay != 1.01 {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestReadConfigEmptyGivesDefaults(t *testing.T) {
	cfg, err := overtone.ReadConfig(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ReadConfig failed: %v", err)
	}
	if !reflect.DeepEqual(cfg, overtone.DefaultConfig()) {
		t.Errorf("got %+v, want the defaults", cfg)
	}
}

func TestReadConfigErrors(t *testing.T) {
	for name, text := range map[string]string{
		"unknown-field":  "bogus: 1\n",
		"unknown-policy": "policy: loudest\n",
		"unknown-mode":   "phasemode: sideways\n",
		"invalid-decay":  "decay: 0.5\n",
		"empty-harmonic": "harmonics: []\n",
		"not-yaml":       "{{{",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := overtone.ReadConfig(strings.NewReader(text)); err == nil {
				t.Fatalf("expected an error for %q", text)
			}
		})
	}
}

func TestConfigSurvivesYAMLDump(t *testing.T) {
	cfg := overtone.DefaultConfig()
	cfg.Policy = overtone.PolicyStealOldest
	cfg.PhaseMode = overtone.PhaseContinuous
	out, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("yaml.Marshal failed: %v", err)
	}
	if !strings.Contains(string(out), "policy: steal-oldest") {
		t.Errorf("policy should be written by name:\n%s", out)
	}
	back, err := overtone.ReadConfig(strings.NewReader(string(out)))
	if err != nil {
		t.Fatalf("ReadConfig failed: %v", err)
	}
	if !reflect.DeepEqual(back, cfg) {
		t.Errorf("got %+v, want %+v", back, cfg)
	}
}

func TestPolicyNames(t *testing.T) {
	for _, p := range []overtone.ExhaustionPolicy{overtone.PolicyDrop, overtone.PolicyStealOldest, overtone.PolicyStealQuietest} {
		got, err := overtone.ParseExhaustionPolicy(p.String())
		if err != nil || got != p {
			t.Errorf("%v: parsed back as %v (%v)", p, got, err)
		}
	}
	if _, err := overtone.ParseExhaustionPolicy("loudest"); !errors.Is(err, overtone.ErrInvalidPolicy) {
		t.Errorf("got %v, want ErrInvalidPolicy", err)
	}
	if _, err := overtone.ParsePhaseMode("sideways"); !errors.Is(err, overtone.ErrInvalidPhaseMode) {
		t.Errorf("got %v, want ErrInvalidPhaseMode", err)
	}
}

func TestNoteGain(t *testing.T) {
	cfg := overtone.DefaultConfig()
	cfg.FixedGain = 0.5
	if g := cfg.NoteGain(127); g != 0.5 {
		t.Errorf("override should give the fixed gain, got %v", g)
	}
	cfg.VelocityOverride = false
	if g := cfg.NoteGain(127); g != 1 {
		t.Errorf("full velocity should give gain 1, got %v", g)
	}
	if g := cfg.NoteGain(0); g != 0 {
		t.Errorf("zero velocity should give gain 0, got %v", g)
	}
}
