//go:build plugin

package main

import (
	"bytes"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vsariola/overtone"
	"github.com/vsariola/overtone/cmd"
	"github.com/vsariola/overtone/gomidi"
	"github.com/vsariola/overtone/meter"
	"gitlab.com/gomidi/midi/v2"
	"gopkg.in/yaml.v3"
	"pipelined.dev/audio/vst2"
)

const (
	maxEvents   = 1024
	PLUGIN_ID   = 'O'<<24 | 'v'<<16 | 'r'<<8 | 't'
	PLUGIN_NAME = "Overtone"
)

// VSTIProcessContext collects the MIDI events the host sends for the next
// buffer and hands them to the engine block by block.
type VSTIProcessContext struct {
	events []overtone.NoteEvent
	pos    int
}

func (c *VSTIProcessContext) Block(frames int, dst []overtone.NoteEvent) []overtone.NoteEvent {
	for _, ev := range c.events {
		if f := ev.Frame - c.pos; f >= 0 && f < frames {
			ev.Frame = f
			dst = append(dst, ev)
		}
	}
	c.pos += frames
	return dst
}

func (c *VSTIProcessContext) reset() {
	c.events = c.events[:0] // reset buffer, but keep the allocated memory
	c.pos = 0
}

// configPath is where the plugin looks for its default instrument.
func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "Overtone", "overtone-vsti.yml")
}

func init() {
	var (
		version = int32(100)
	)
	vst2.PluginAllocator = func(h vst2.Host) (vst2.Plugin, vst2.Dispatcher) {
		logger := slog.Default().With("plugin", PLUGIN_NAME)
		var err error
		cfg := overtone.DefaultConfig()
		if path := configPath(); path != "" {
			if c, err := overtone.LoadConfig(path); err == nil {
				cfg = c
			} else if !errors.Is(err, fs.ErrNotExist) {
				logger.Warn("could not load config, using defaults", "err", err)
			}
		}
		context := &VSTIProcessContext{events: make([]overtone.NoteEvent, 0, maxEvents)}
		builder := cmd.NewEngineBuilder(cfg, context, maxEvents)
		if timeInfo := h.GetTimeInfo(vst2.TempoValid); timeInfo != nil && timeInfo.SampleRate > 0 {
			err = builder.SetSampleRate(timeInfo.SampleRate)
		} else {
			err = builder.SetConfig(cfg)
		}
		if err != nil {
			logger.Error("could not create engine", "err", err)
		}
		// engines are rebuilt here when the host changes the sample rate, the
		// audio thread only asks for it
		sampleRates := make(chan float64, 1)
		go func() {
			for sr := range sampleRates {
				if err := builder.SetSampleRate(sr); err != nil {
					logger.Error("could not change sample rate", "sampleRate", sr, "err", err)
				}
			}
		}()
		var (
			engine    *cmd.Engine
			requested float64
		)
		buf := make([]float32, 1024)
		return vst2.Plugin{
				UniqueID:       PLUGIN_ID,
				Version:        version,
				InputChannels:  0,
				OutputChannels: 2,
				Name:           PLUGIN_NAME,
				Vendor:         "vsariola/overtone",
				Category:       vst2.PluginCategorySynth,
				Flags:          vst2.PluginIsSynth,
				ProcessFloatFunc: func(in, out vst2.FloatBuffer) {
					select {
					case e := <-builder.Ready():
						engine = e
					default:
					}
					if timeInfo := h.GetTimeInfo(vst2.TempoValid); timeInfo != nil && timeInfo.SampleRate > 0 &&
						engine != nil && timeInfo.SampleRate != engine.Renderer().Config().SampleRate &&
						timeInfo.SampleRate != requested {
						if meter.TrySend(sampleRates, timeInfo.SampleRate) {
							requested = timeInfo.SampleRate
						}
					}
					if len(buf) < out.Frames {
						buf = append(buf, make([]float32, out.Frames-len(buf))...)
					}
					buf = buf[:out.Frames]
					if engine != nil {
						engine.Render(buf)
					} else {
						clear(buf)
					}
					copy(out.Channel(0), buf)
					copy(out.Channel(1), buf)
					context.reset()
				},
			}, vst2.Dispatcher{
				CanDoFunc: func(pcds vst2.PluginCanDoString) vst2.CanDoResponse {
					switch pcds {
					case vst2.PluginCanReceiveEvents, vst2.PluginCanReceiveMIDIEvent, vst2.PluginCanReceiveTimeInfo:
						return vst2.YesCanDo
					}
					return vst2.NoCanDo
				},
				ProcessEventsFunc: func(ev *vst2.EventsPtr) {
					for i := 0; i < ev.NumEvents(); i++ {
						a := ev.Event(i)
						switch v := a.(type) {
						case *vst2.MIDIEvent:
							if len(context.events) == cap(context.events) {
								break
							}
							if note, ok := gomidi.DecodeNote(midi.Message(v.Data[:])); ok {
								note.Frame = int(v.DeltaFrames)
								context.events = append(context.events, note)
							}
						}
					}
				},
				GetChunkFunc: func(isPreset bool) []byte {
					data, err := yaml.Marshal(builder.Config())
					if err != nil {
						logger.Error("could not save config", "err", err)
						return nil
					}
					return data
				},
				SetChunkFunc: func(data []byte, isPreset bool) {
					c, err := overtone.ReadConfig(bytes.NewReader(data))
					if err != nil {
						logger.Error("could not restore config", "err", err)
						return
					}
					if err := builder.SetConfig(c); err != nil {
						logger.Error("could not restore config", "err", err)
					}
				},
				CloseFunc: func() {
					close(sampleRates)
				},
			}
	}
}

func main() {}
