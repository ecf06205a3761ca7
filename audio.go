package overtone

type (
	// RenderFunc fills the whole buffer with audio. It is called from the
	// audio goroutine of an AudioContext and should not block.
	RenderFunc func(buffer []float32)

	// AudioSink receives rendered audio, e.g. a file or a blocking device
	// writer.
	AudioSink interface {
		WriteAudio(buffer []float32) error
		Close() error
	}

	// AudioContext is a connection to an audio device that pulls audio from
	// a RenderFunc at its own pace.
	AudioContext interface {
		Play(render RenderFunc) CloserWaiter
		SampleRate() int
		Close() error
	}

	// CloserWaiter stops a playback started with AudioContext.Play. Wait
	// blocks until the playback has stopped.
	CloserWaiter interface {
		Close() error
		Wait()
	}
)
