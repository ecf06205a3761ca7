package overtone

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

type (
	// Config describes the instrument. All values are fixed once a renderer
	// has been constructed from the Config; changing the Config afterwards has
	// no effect on the renderer.
	Config struct {
		SampleRate float64 `yaml:"samplerate" json:"samplerate"`
		// Harmonics are the frequency ratios of the partials of every note,
		// relative to the fundamental. The first ratio is conventionally 1.
		Harmonics []int `yaml:"harmonics,flow" json:"harmonics"`
		// Decay is the divisor applied to the gain of each released partial
		// every sample.
		Decay float64 `yaml:"decay" json:"decay"`
		// Threshold is the gain below which a released partial is dead.
		Threshold float64 `yaml:"threshold" json:"threshold"`
		// Capacity is the number of simultaneously sounding notes.
		Capacity int              `yaml:"capacity" json:"capacity"`
		Policy   ExhaustionPolicy `yaml:"policy" json:"policy"`
		// VelocityOverride ignores the velocity of incoming notes and uses
		// FixedGain instead.
		VelocityOverride bool      `yaml:"velocityoverride" json:"velocityoverride"`
		FixedGain        float64   `yaml:"fixedgain" json:"fixedgain"`
		PhaseMode        PhaseMode `yaml:"phasemode" json:"phasemode"`

		// BlockSize and MasterGain are used by the hosts driving the
		// renderer, never by the renderer itself.
		BlockSize  int     `yaml:"blocksize" json:"blocksize"`
		MasterGain float64 `yaml:"mastergain" json:"mastergain"`
	}

	// ExhaustionPolicy tells what the voice pool does when a note is
	// triggered and every slot is taken.
	ExhaustionPolicy int

	// PhaseMode selects how the oscillators keep track of their phase.
	PhaseMode int
)

const (
	// PolicyDrop ignores the new note.
	PolicyDrop ExhaustionPolicy = iota
	// PolicyStealOldest replaces the voice that was triggered first.
	PolicyStealOldest
	// PolicyStealQuietest replaces the voice with the lowest gain; ties go to
	// the oldest one.
	PolicyStealQuietest
)

const (
	// PhaseReset counts samples and resets the counter to 1 when it exceeds
	// one period. The sine is therefore restarted once per period, slightly
	// flattening the pitch; this is how the instrument has always sounded.
	PhaseReset PhaseMode = iota
	// PhaseContinuous wraps a fractional phase modulo one period, keeping the
	// sine continuous.
	PhaseContinuous
)

var policyNames = []string{"drop", "steal-oldest", "steal-quietest"}
var phaseModeNames = []string{"reset", "continuous"}

var (
	ErrInvalidPolicy    = errors.New("unknown exhaustion policy")
	ErrInvalidPhaseMode = errors.New("unknown phase mode")
)

// DefaultConfig returns the configuration of the reference instrument: four
// partials at ratios 1..4, 44100 Hz, 2048 voices and a constant note gain of
// 1.
func DefaultConfig() Config {
	return Config{
		SampleRate:       44100,
		Harmonics:        []int{1, 2, 3, 4},
		Decay:            1.05,
		Threshold:        0.01,
		Capacity:         2048,
		Policy:           PolicyDrop,
		VelocityOverride: true,
		FixedGain:        1.0,
		PhaseMode:        PhaseReset,
		BlockSize:        512,
		MasterGain:       1.0,
	}
}

// Validate checks that the configuration describes a playable instrument.
// All the problems found are returned, joined together.
func (c *Config) Validate() error {
	var errs []error
	if !(c.SampleRate > 0) || math.IsInf(c.SampleRate, 0) {
		errs = append(errs, fmt.Errorf("sample rate should be > 0, got %v", c.SampleRate))
	}
	if len(c.Harmonics) == 0 {
		errs = append(errs, errors.New("instrument needs at least one harmonic"))
	}
	for i, h := range c.Harmonics {
		if h <= 0 {
			errs = append(errs, fmt.Errorf("harmonic %d should be a positive integer, got %d", i, h))
		}
	}
	if !(c.Decay > 1) || math.IsInf(c.Decay, 0) {
		errs = append(errs, fmt.Errorf("decay should be > 1, got %v", c.Decay))
	}
	if !(c.Threshold > 0) || c.Threshold >= 1 {
		errs = append(errs, fmt.Errorf("threshold should be in (0,1), got %v", c.Threshold))
	}
	if c.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("capacity should be > 0, got %d", c.Capacity))
	}
	if c.Policy < PolicyDrop || c.Policy > PolicyStealQuietest {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidPolicy, int(c.Policy)))
	}
	if c.PhaseMode < PhaseReset || c.PhaseMode > PhaseContinuous {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidPhaseMode, int(c.PhaseMode)))
	}
	if c.FixedGain < 0 || math.IsNaN(c.FixedGain) || math.IsInf(c.FixedGain, 0) {
		errs = append(errs, fmt.Errorf("fixed gain should be >= 0, got %v", c.FixedGain))
	}
	if c.MasterGain < 0 || math.IsNaN(c.MasterGain) || math.IsInf(c.MasterGain, 0) {
		errs = append(errs, fmt.Errorf("master gain should be >= 0, got %v", c.MasterGain))
	}
	if c.BlockSize < 0 {
		errs = append(errs, fmt.Errorf("block size should be >= 0, got %d", c.BlockSize))
	}
	return errors.Join(errs...)
}

// NoteGain returns the initial gain of a note triggered with the given
// velocity.
func (c *Config) NoteGain(velocity byte) float64 {
	if c.VelocityOverride {
		return c.FixedGain
	}
	return VelocityToGain(velocity)
}

// ReadConfig parses a configuration from r, on top of DefaultConfig. The data
// is tried first as JSON and then as YAML.
func ReadConfig(r io.Reader) (Config, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("could not read config: %w", err)
	}
	cfg := DefaultConfig()
	if errJSON := json.Unmarshal(b, &cfg); errJSON != nil {
		cfg = DefaultConfig()
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if errYaml := dec.Decode(&cfg); errYaml != nil && !errors.Is(errYaml, io.EOF) {
			return Config{}, fmt.Errorf("config could not be parsed as .json (%v) or .yml (%v)", errJSON, errYaml)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads the configuration file at path.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("could not open config %v: %w", path, err)
	}
	defer f.Close()
	return ReadConfig(f)
}

func (p ExhaustionPolicy) String() string {
	if p < 0 || int(p) >= len(policyNames) {
		return fmt.Sprintf("ExhaustionPolicy(%d)", int(p))
	}
	return policyNames[p]
}

// ParseExhaustionPolicy returns the policy with the given name.
func ParseExhaustionPolicy(s string) (ExhaustionPolicy, error) {
	for i, n := range policyNames {
		if n == s {
			return ExhaustionPolicy(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
}

func (p ExhaustionPolicy) MarshalText() ([]byte, error) {
	if p < 0 || int(p) >= len(policyNames) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPolicy, int(p))
	}
	return []byte(policyNames[p]), nil
}

func (p *ExhaustionPolicy) UnmarshalText(text []byte) error {
	v, err := ParseExhaustionPolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func (m PhaseMode) String() string {
	if m < 0 || int(m) >= len(phaseModeNames) {
		return fmt.Sprintf("PhaseMode(%d)", int(m))
	}
	return phaseModeNames[m]
}

// ParsePhaseMode returns the phase mode with the given name.
func ParsePhaseMode(s string) (PhaseMode, error) {
	for i, n := range phaseModeNames {
		if n == s {
			return PhaseMode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPhaseMode, s)
}

func (m PhaseMode) MarshalText() ([]byte, error) {
	if m < 0 || int(m) >= len(phaseModeNames) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPhaseMode, int(m))
	}
	return []byte(phaseModeNames[m]), nil
}

func (m *PhaseMode) UnmarshalText(text []byte) error {
	v, err := ParsePhaseMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
