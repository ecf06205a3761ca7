package gomidi

import (
	"sync/atomic"

	"github.com/vsariola/overtone"
	"gitlab.com/gomidi/midi/v2"
)

type (
	// LiveQueue hands MIDI messages over from the driver goroutine to the
	// audio goroutine. The driver side never blocks: if the queue is full,
	// the message is dropped. The audio side collects the notes of each block
	// with Block, without allocating.
	//
	// The timestamps of the driver and the sample clock of the audio device
	// drift apart, so the queue keeps a start frame that is nudged towards
	// the incoming events: events that would land in the past pull it back,
	// events waiting in the future push it forward.
	LiveQueue struct {
		sampleRate    int
		events        chan timedEvent
		eventsBuf     []timedEvent
		startFrame    int
		startFrameSet bool
		dropped       atomic.Uint64
	}

	timedEvent struct {
		frame int
		event overtone.NoteEvent
	}
)

// NewLiveQueue creates a queue holding at most size pending messages.
func NewLiveQueue(sampleRate, size int) *LiveQueue {
	return &LiveQueue{
		sampleRate: sampleRate,
		events:     make(chan timedEvent, size),
		eventsBuf:  make([]timedEvent, 0, size),
	}
}

// HandleMessage is the listener passed to midi.ListenTo. Messages other
// than notes are ignored.
func (q *LiveQueue) HandleMessage(msg midi.Message, timestampms int32) {
	ev, ok := DecodeNote(msg)
	if !ok {
		return
	}
	select {
	case q.events <- timedEvent{frame: int(int64(timestampms) * int64(q.sampleRate) / 1000), event: ev}:
	default:
		q.dropped.Add(1)
	}
}

// Dropped returns the number of notes lost because the queue was full.
func (q *LiveQueue) Dropped() uint64 { return q.dropped.Load() }

// Block appends the notes falling in the next frames samples to dst, with
// Frame relative to the start of the block, and advances the clock by frames.
func (q *LiveQueue) Block(frames int, dst []overtone.NoteEvent) []overtone.NoteEvent {
F:
	for len(q.eventsBuf) < cap(q.eventsBuf) {
		select {
		case e := <-q.events:
			q.eventsBuf = append(q.eventsBuf, e)
			if !q.startFrameSet {
				q.startFrame = e.frame
				q.startFrameSet = true
			}
		default:
			break F
		}
	}
	consumed := 0
	for _, e := range q.eventsBuf {
		f := e.frame - q.startFrame
		if f >= frames {
			break
		}
		if f < 0 {
			// the event is late, move the clock so the next ones are not
			q.startFrame += f / 5
			f = 0
		}
		e.event.Frame = f
		dst = append(dst, e.event)
		consumed++
	}
	q.eventsBuf = q.eventsBuf[:copy(q.eventsBuf, q.eventsBuf[consumed:])]
	q.startFrame += frames
	if len(q.eventsBuf) > 0 {
		// delta is negative: the next event is still in the future
		delta := q.startFrame - q.eventsBuf[0].frame
		q.startFrame -= delta / 5
	}
	return dst
}

// DecodeNote converts a note on or note off message into a NoteEvent. A note
// on with zero velocity is a note off. The channel is ignored.
func DecodeNote(msg midi.Message) (ev overtone.NoteEvent, ok bool) {
	ev, _, ok = decodeNote(msg)
	return
}

func decodeNote(msg midi.Message) (ev overtone.NoteEvent, channel uint8, ok bool) {
	var key, velocity uint8
	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
		return overtone.NoteEvent{On: velocity > 0, Note: key, Velocity: velocity}, channel, true
	case msg.GetNoteOff(&channel, &key, &velocity):
		return overtone.NoteEvent{Note: key, Velocity: velocity}, channel, true
	}
	return overtone.NoteEvent{}, 0, false
}
