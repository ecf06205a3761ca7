package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/pflag"

	"github.com/vsariola/overtone"
	"github.com/vsariola/overtone/cmd"
	"github.com/vsariola/overtone/gomidi"
	"github.com/vsariola/overtone/meter"
	"github.com/vsariola/overtone/oto"
	"github.com/vsariola/overtone/version"
)

func main() {
	configFile := pflag.StringP("config", "c", "", "Instrument configuration file (.yml or .json). The defaults are used for everything not given.")
	midiInput := pflag.StringP("midi-input", "i", "", "Connect the MIDI input device whose name starts with this prefix. By default, the first device is used.")
	list := pflag.BoolP("list", "l", false, "List the MIDI input devices and exit.")
	latency := pflag.Duration("latency", 20*time.Millisecond, "Audio buffer size requested from the device.")
	queueSize := pflag.Int("queue", 1024, "Number of MIDI messages that can wait for the audio thread; the rest are dropped.")
	measure := pflag.BoolP("meter", "m", false, "Log the loudness of the output every second.")
	statsInterval := pflag.Duration("stats", 10*time.Second, "How often the voice statistics are logged; 0 disables.")
	dumpConfig := pflag.Bool("dump-config", false, "Print the configuration and exit.")
	verbose := pflag.Bool("verbose", false, "Log debug messages.")
	versionFlag := pflag.BoolP("version", "v", false, "Print version.")
	pflag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	logger := cmd.NewLogger(*verbose)
	logger.Debug("overtone-live", version.Attr())
	cfg := overtone.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = overtone.LoadConfig(*configFile); err != nil {
			logger.Error("could not load config", "err", err)
			os.Exit(1)
		}
	}
	if *dumpConfig {
		spew.Dump(cfg)
		os.Exit(0)
	}
	queue := gomidi.NewLiveQueue(int(cfg.SampleRate), *queueSize)
	midiContext := cmd.NewMidiContext(queue)
	defer midiContext.Close()
	if *list {
		for name := range midiContext.InputDevices {
			fmt.Println(name)
		}
		return
	}
	name, err := midiContext.TryToOpenBy(*midiInput, *midiInput == "")
	if err != nil {
		logger.Error("could not open MIDI input", "prefix", *midiInput, "err", err)
		os.Exit(1)
	}
	logger.Info("MIDI input connected", "device", name)
	engine, err := cmd.NewEngine(cfg, queue, *queueSize)
	if err != nil {
		logger.Error("could not create engine", "err", err)
		os.Exit(1)
	}
	var detector *meter.Detector
	if *measure {
		detector = meter.NewDetector(meter.New(cfg.SampleRate, true), int(cfg.SampleRate))
		engine.SetDetector(detector)
		go detector.Run(func(r meter.Result) { cmd.LogLoudness(logger, "loudness", r) })
	}
	audioContext, err := oto.NewContext(int(cfg.SampleRate), *latency)
	if err != nil {
		logger.Error("could not acquire oto AudioContext", "err", err)
		os.Exit(1)
	}
	defer audioContext.Close()
	playWaiter := audioContext.Play(engine.Render)
	logger.Info("playing, press Ctrl+C to quit", "sampleRate", cfg.SampleRate, "voices", cfg.Capacity, "policy", cfg.Policy)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	var ticker <-chan time.Time
	if *statsInterval > 0 {
		t := time.NewTicker(*statsInterval)
		defer t.Stop()
		ticker = t.C
	}
	stats := engine.Stats()
loop:
	for {
		select {
		case <-interrupt:
			break loop
		case <-ticker:
			select {
			case s := <-stats:
				cmd.LogStats(logger, "stats", s)
			default:
			}
			if d := queue.Dropped(); d > 0 {
				logger.Warn("MIDI messages dropped", "count", d)
			}
		}
	}
	if err := playWaiter.Close(); err != nil {
		logger.Warn("could not stop playback", "err", err)
	}
	playWaiter.Wait()
	if detector != nil && !detector.Close(time.Second) {
		logger.Warn("loudness detector did not stop")
	}
}
