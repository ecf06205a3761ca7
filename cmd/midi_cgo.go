//go:build cgo

package cmd

import (
	"github.com/vsariola/overtone/gomidi"
)

func NewMidiContext(queue *gomidi.LiveQueue) MIDIContext {
	return gomidi.NewContext(queue)
}
