package gomidi

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/vsariola/overtone"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Schedule is a fixed list of note events with Frame counted from the start
// of the performance. It is played back block by block, like a LiveQueue.
type Schedule struct {
	events []overtone.NoteEvent
	pos    int
	frame  int
}

// AllChannels makes ReadSMF keep the notes of every channel.
const AllChannels = -1

// NewSchedule sorts a copy of events by Frame. Events on the same frame keep
// their relative order.
func NewSchedule(events []overtone.NoteEvent) *Schedule {
	e := slices.Clone(events)
	slices.SortStableFunc(e, func(a, b overtone.NoteEvent) int { return cmp.Compare(a.Frame, b.Frame) })
	return &Schedule{events: e}
}

// ReadSMF reads the notes of all tracks of a standard MIDI file. The times
// are converted to frames at sampleRate, following the tempo changes of the
// file. With channel >= 0, only the notes of that channel are kept.
func ReadSMF(r io.Reader, sampleRate float64, channel int) (*Schedule, error) {
	var events []overtone.NoteEvent
	err := smf.ReadTracksFrom(r).Do(func(te smf.TrackEvent) {
		ev, ch, ok := decodeNote(midi.Message(te.Message))
		if !ok || (channel >= 0 && int(ch) != channel) {
			return
		}
		ev.Frame = int(float64(te.AbsMicroSeconds) * sampleRate / 1e6)
		events = append(events, ev)
	}).Error()
	if err != nil {
		return nil, fmt.Errorf("could not read MIDI file: %w", err)
	}
	return NewSchedule(events), nil
}

// LoadSMF reads the MIDI file at path.
func LoadSMF(path string, sampleRate float64, channel int) (*Schedule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open MIDI file: %w", err)
	}
	defer f.Close()
	return ReadSMF(f, sampleRate, channel)
}

// Block appends the events falling in the next frames samples to dst, with
// Frame relative to the start of the block, and advances the schedule.
func (s *Schedule) Block(frames int, dst []overtone.NoteEvent) []overtone.NoteEvent {
	end := s.frame + frames
	for s.pos < len(s.events) && s.events[s.pos].Frame < end {
		ev := s.events[s.pos]
		ev.Frame = max(ev.Frame-s.frame, 0)
		dst = append(dst, ev)
		s.pos++
	}
	s.frame = end
	return dst
}

// Done reports whether all the events have been played.
func (s *Schedule) Done() bool { return s.pos >= len(s.events) }

// Len returns the number of events.
func (s *Schedule) Len() int { return len(s.events) }

// Length returns the frame of the last event.
func (s *Schedule) Length() int {
	if len(s.events) == 0 {
		return 0
	}
	return s.events[len(s.events)-1].Frame
}

// Rewind starts the playback over.
func (s *Schedule) Rewind() {
	s.pos = 0
	s.frame = 0
}
