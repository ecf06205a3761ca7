package cmd

import (
	"log/slog"
	"math"
	"os"

	"github.com/vsariola/overtone/meter"
	"github.com/vsariola/overtone/synth"
)

// NewLogger configures a text logger on stderr and makes it the default, so
// the log package also goes through it.
func NewLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// LogStats logs the renderer counters.
func LogStats(logger *slog.Logger, msg string, s synth.Stats) {
	logger.Info(msg,
		"frames", s.Frames,
		"notesOn", s.NotesOn,
		"notesOff", s.NotesOff,
		"maxVoices", s.MaxVoices,
		"reclaimed", s.Reclaimed)
	if s.Dropped > 0 || s.Stolen > 0 || s.Rejected > 0 {
		logger.Warn("notes lost",
			"dropped", s.Dropped,
			"stolen", s.Stolen,
			"rejected", s.Rejected)
	}
}

// LogLoudness logs a meter result.
func LogLoudness(logger *slog.Logger, msg string, r meter.Result) {
	logger.Info(msg,
		"momentaryLUFS", round(r.Momentary),
		"shortTermLUFS", round(r.ShortTerm),
		"integratedLUFS", round(r.Integrated),
		"maxPeakDBTP", round(r.MaxPeak))
	if r.Clipped > 0 {
		logger.Warn("output clipped", "samples", r.Clipped)
	}
}

func round(d meter.Decibel) float64 {
	return math.Round(float64(d)*10) / 10
}
