//go:build !cgo

package cmd

import (
	"errors"

	"github.com/vsariola/overtone/gomidi"
)

type NullMIDIContext struct{}

var errNoCgo = errors.New("MIDI input is not available in builds without cgo")

func NewMidiContext(queue *gomidi.LiveQueue) MIDIContext {
	// with no cgo, we cannot use MIDI, so return a null context
	return NullMIDIContext{}
}

func (NullMIDIContext) InputDevices(yield func(name string) bool) {}

func (NullMIDIContext) TryToOpenBy(namePrefix string, takeFirst bool) (string, error) {
	return "", errNoCgo
}

func (NullMIDIContext) Close() {}
