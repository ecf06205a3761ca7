package cmd

// MIDIContext lists the MIDI input devices and connects one of them to the
// engine.
type MIDIContext interface {
	InputDevices(yield func(name string) bool)
	TryToOpenBy(namePrefix string, takeFirst bool) (name string, err error)
	Close()
}
