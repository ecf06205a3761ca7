package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/pflag"

	"github.com/vsariola/overtone"
	"github.com/vsariola/overtone/cmd"
	"github.com/vsariola/overtone/gomidi"
	"github.com/vsariola/overtone/meter"
	"github.com/vsariola/overtone/oto"
	"github.com/vsariola/overtone/synth"
	"github.com/vsariola/overtone/version"
)

const defaultBlockSize = 512

func main() {
	configFile := pflag.StringP("config", "c", "", "Instrument configuration file (.yml or .json). The defaults are used for everything not given.")
	directory := pflag.StringP("output", "o", "", "Directory where to output all files. The directory and its parents are created if needed. By default, files are written to the working directory.")
	play := pflag.BoolP("play", "p", false, "Play the input files (default behaviour when no other output is defined).")
	rawOut := pflag.BoolP("raw", "r", false, "Output the rendered audio as .raw file. By default, saves a mono float32 buffer to disk.")
	wavOut := pflag.BoolP("wav", "w", false, "Output the rendered audio as .wav file.")
	pcm := pflag.Bool("pcm", false, "Convert .raw output to 16-bit signed PCM.")
	bitDepth := pflag.Int("bits", 16, "Bit depth of the .wav output: 16, 24 or 32.")
	channel := pflag.Int("channel", gomidi.AllChannels, "Play only the notes of this MIDI channel (0-15); -1 plays all channels.")
	tail := pflag.Float64("tail", 30, "Maximum number of seconds rendered after the last event, while notes are still sounding.")
	dumpConfig := pflag.Bool("dump-config", false, "Print the configuration and exit.")
	verbose := pflag.Bool("verbose", false, "Log debug messages.")
	versionFlag := pflag.BoolP("version", "v", false, "Print version.")
	help := pflag.BoolP("help", "h", false, "Show help.")
	pflag.Usage = printUsage
	pflag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	logger := cmd.NewLogger(*verbose)
	logger.Debug("overtone-play", version.Attr())
	cfg := overtone.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = overtone.LoadConfig(*configFile); err != nil {
			logger.Error("could not load config", "err", err)
			os.Exit(1)
		}
	}
	if cfg.BlockSize == 0 {
		cfg.BlockSize = defaultBlockSize
	}
	if *dumpConfig {
		spew.Dump(cfg)
		os.Exit(0)
	}
	if pflag.NArg() == 0 || *help {
		pflag.Usage()
		os.Exit(0)
	}
	if !*rawOut && !*wavOut {
		*play = true // if the user gives nothing to output, then the default behaviour is just to play the file
	}
	var audioContext overtone.AudioContext
	if *play {
		var err error
		audioContext, err = oto.NewContext(int(cfg.SampleRate), 100*time.Millisecond)
		if err != nil {
			logger.Error("could not acquire oto AudioContext", "err", err)
			os.Exit(1)
		}
	}
	process := func(filename string) error {
		outputPath := func(extension string) (string, error) {
			dir := *directory
			if dir == "" {
				var err error
				dir, err = os.Getwd()
				if err != nil {
					return "", fmt.Errorf("could not get working directory, specify the output directory explicitly: %w", err)
				}
			}
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				return "", fmt.Errorf("could not create output directory %v: %w", dir, err)
			}
			_, name := filepath.Split(filename)
			return filepath.Join(dir, strings.TrimSuffix(name, filepath.Ext(name))+extension), nil
		}
		schedule, err := gomidi.LoadSMF(filename, cfg.SampleRate, *channel)
		if err != nil {
			return err
		}
		logger.Debug("read MIDI file", "file", filename, "events", schedule.Len(), "frames", schedule.Length())
		buffer, stats, err := render(cfg, schedule, int(*tail*cfg.SampleRate))
		if err != nil {
			return err
		}
		cmd.LogStats(logger.With("file", filename), "rendered", stats)
		if len(buffer) > 0 {
			cmd.LogLoudness(logger.With("file", filename), "loudness", meter.New(cfg.SampleRate, true).Update(buffer))
		}
		if *rawOut {
			raw, err := overtone.Raw(buffer, *pcm)
			if err != nil {
				return fmt.Errorf("could not generate .raw file: %w", err)
			}
			path, err := outputPath(".raw")
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, raw, 0644); err != nil {
				return fmt.Errorf("could not write file %v: %w", path, err)
			}
			logger.Info("wrote", "file", path)
		}
		if *wavOut {
			path, err := outputPath(".wav")
			if err != nil {
				return err
			}
			if err := writeWav(path, buffer, int(cfg.SampleRate), *bitDepth); err != nil {
				return err
			}
			logger.Info("wrote", "file", path)
		}
		if *play {
			playBuffer(audioContext, buffer, logger)
		}
		return nil
	}
	retval := 0
	for _, param := range pflag.Args() {
		files := []string{param}
		if info, err := os.Stat(param); err == nil && info.IsDir() {
			midfiles, err := filepath.Glob(filepath.Join(param, "*.mid"))
			if err != nil {
				logger.Error("could not glob the path for .mid files", "path", param, "err", err)
				retval = 1
				continue
			}
			files = midfiles
		}
		for _, file := range files {
			if err := process(file); err != nil {
				logger.Error("could not process file", "file", file, "err", err)
				retval = 1
			}
		}
	}
	os.Exit(retval)
}

// render plays the schedule to the end and then keeps rendering until every
// voice has decayed, but at most tailFrames more.
func render(cfg overtone.Config, schedule *gomidi.Schedule, tailFrames int) ([]float32, synth.Stats, error) {
	engine, err := cmd.NewEngine(cfg, schedule, schedule.Len())
	if err != nil {
		return nil, synth.Stats{}, err
	}
	var out []float32
	block := make([]float32, cfg.BlockSize)
	tailed := 0
	for !schedule.Done() || engine.Renderer().Pool().Len() > 0 {
		if schedule.Done() {
			if tailed >= tailFrames {
				break
			}
			tailed += len(block)
		}
		engine.Render(block)
		out = append(out, block...)
	}
	return out, engine.Renderer().Stats(), nil
}

func writeWav(path string, buffer []float32, sampleRate, bitDepth int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create file %v: %w", path, err)
	}
	defer f.Close()
	sink, err := overtone.NewWavSink(f, sampleRate, bitDepth)
	if err != nil {
		return err
	}
	return writeTo(sink, buffer)
}

func writeTo(sink overtone.AudioSink, buffer []float32) error {
	if err := sink.WriteAudio(buffer); err != nil {
		sink.Close()
		return err
	}
	return sink.Close()
}

func playBuffer(c overtone.AudioContext, buffer []float32, logger *slog.Logger) {
	finished := make(chan struct{})
	var once sync.Once
	pos := 0
	playWaiter := c.Play(func(buf []float32) {
		n := copy(buf, buffer[pos:])
		clear(buf[n:])
		pos += n
		if n < len(buf) {
			once.Do(func() { close(finished) })
		}
	})
	<-finished
	time.Sleep(200 * time.Millisecond) // let the device play out its buffer
	if err := playWaiter.Close(); err != nil {
		logger.Warn("could not stop playback", "err", err)
	}
	playWaiter.Wait()
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Overtone command line utility for rendering and playing .mid files.\nUsage: %s [flags] [path ...]\n", os.Args[0])
	pflag.PrintDefaults()
}
