//go:build cgo

package gomidi

import (
	"errors"
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// RTMIDIContext connects one MIDI input device at a time to a LiveQueue.
type RTMIDIContext struct {
	driver    *rtmididrv.Driver
	currentIn drivers.In
	stop      func()
	queue     *LiveQueue
}

var (
	ErrNoDriver = errors.New("no MIDI driver available")
	ErrNoDevice = errors.New("no matching MIDI input device")
)

// NewContext opens the rtmidi driver. If that fails, the context is still
// usable but has no devices.
func NewContext(queue *LiveQueue) *RTMIDIContext {
	m := RTMIDIContext{queue: queue}
	// there's not much we can do if this fails, so just use m.driver = nil to
	// indicate no driver available
	m.driver, _ = rtmididrv.New()
	return &m
}

// InputDevices iterates the names of the MIDI input devices.
func (c *RTMIDIContext) InputDevices(yield func(name string) bool) {
	for _, in := range c.ins() {
		if !yield(in.String()) {
			return
		}
	}
}

func (c *RTMIDIContext) ins() []drivers.In {
	if c.driver == nil {
		return nil
	}
	ins, err := c.driver.Ins()
	if err != nil {
		return nil
	}
	return ins
}

// TryToOpenBy opens the first input device whose name starts with
// namePrefix, or the first device at all if takeFirst is set. The currently
// open device is closed first.
func (c *RTMIDIContext) TryToOpenBy(namePrefix string, takeFirst bool) (name string, err error) {
	if c.driver == nil {
		return "", ErrNoDriver
	}
	for _, in := range c.ins() {
		if takeFirst || strings.HasPrefix(in.String(), namePrefix) {
			return in.String(), c.open(in)
		}
	}
	if takeFirst {
		return "", ErrNoDevice
	}
	return "", fmt.Errorf("%w: prefix %q", ErrNoDevice, namePrefix)
}

func (c *RTMIDIContext) open(in drivers.In) error {
	if c.currentIn == in {
		return nil
	}
	c.closeInput()
	if err := in.Open(); err != nil {
		return fmt.Errorf("opening MIDI input failed: %w", err)
	}
	stop, err := midi.ListenTo(in, c.queue.HandleMessage)
	if err != nil {
		in.Close()
		return fmt.Errorf("listening to MIDI input failed: %w", err)
	}
	c.currentIn, c.stop = in, stop
	return nil
}

// HasDeviceOpen reports whether an input device is connected.
func (c *RTMIDIContext) HasDeviceOpen() bool {
	return c.currentIn != nil && c.currentIn.IsOpen()
}

func (c *RTMIDIContext) closeInput() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	if c.HasDeviceOpen() {
		c.currentIn.Close()
	}
	c.currentIn = nil
}

// Close disconnects the device and closes the driver.
func (c *RTMIDIContext) Close() {
	if c.driver == nil {
		return
	}
	c.closeInput()
	c.driver.Close()
}
