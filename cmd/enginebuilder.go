package cmd

import (
	"sync"

	"github.com/vsariola/overtone"
)

// EngineBuilder creates Engines away from the audio goroutine and hands them
// over through a one-slot channel. The audio side only receives a ready
// Engine and swaps its pointer; only the most recent build is kept.
type EngineBuilder struct {
	mu         sync.Mutex
	cfg        overtone.Config
	sampleRate float64
	source     EventSource
	maxEvents  int
	ready      chan *Engine
}

func NewEngineBuilder(cfg overtone.Config, source EventSource, maxEvents int) *EngineBuilder {
	return &EngineBuilder{
		cfg:       cfg,
		source:    source,
		maxEvents: maxEvents,
		ready:     make(chan *Engine, 1),
	}
}

// Config returns the configuration of the latest successful build request.
func (b *EngineBuilder) Config() overtone.Config {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cfg
}

// SetConfig builds an engine for cfg. If the build fails, the previous
// configuration is kept and nothing is handed over.
func (b *EngineBuilder) SetConfig(cfg overtone.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.build(cfg, b.sampleRate); err != nil {
		return err
	}
	b.cfg = cfg
	return nil
}

// SetSampleRate rebuilds the engine for the sample rate of the host. The
// sample rate overrides the one in the configuration; 0 restores it.
func (b *EngineBuilder) SetSampleRate(sampleRate float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.build(b.cfg, sampleRate); err != nil {
		return err
	}
	b.sampleRate = sampleRate
	return nil
}

// Ready delivers the built engines.
func (b *EngineBuilder) Ready() <-chan *Engine { return b.ready }

func (b *EngineBuilder) build(cfg overtone.Config, sampleRate float64) error {
	if sampleRate > 0 {
		cfg.SampleRate = sampleRate
	}
	e, err := NewEngine(cfg, b.source, b.maxEvents)
	if err != nil {
		return err
	}
	// replace a build the audio side has not picked up yet
	select {
	case <-b.ready:
	default:
	}
	b.ready <- e
	return nil
}
