package meter

import (
	"sync"
	"time"
)

// Detector runs a Meter in its own goroutine. The audio goroutine hands
// buffers over with Send, which never blocks; the detector cuts them into
// chunks of a fixed size and reports the Result of every chunk.
//
// The close channel has a capacity of 1, so a close request can always be
// sent without blocking; finished is closed when Run has returned.
type Detector struct {
	meter      *Meter
	chunkSize  int
	toDetector chan *[]float32
	toClose    chan struct{}
	finished   chan struct{}
	bufferPool sync.Pool
}

// NewDetector creates a Detector reporting every chunkSize samples, e.g.
// every 100 ms with chunkSize = sampleRate / 10.
func NewDetector(meter *Meter, chunkSize int) *Detector {
	return &Detector{
		meter:      meter,
		chunkSize:  max(chunkSize, 1),
		toDetector: make(chan *[]float32, 1024),
		toClose:    make(chan struct{}, 1),
		finished:   make(chan struct{}),
		bufferPool: sync.Pool{New: func() any { return &[]float32{} }},
	}
}

// Send queues a copy of buf for measuring. It returns false if the detector
// is lagging behind and the buffer was dropped.
func (d *Detector) Send(buf []float32) bool {
	b := d.bufferPool.Get().(*[]float32)
	*b = append((*b)[:0], buf...)
	if !TrySend(d.toDetector, b) {
		d.bufferPool.Put(b)
		return false
	}
	return true
}

// Run measures the queued audio until Close is called. report is called from
// the goroutine running Run.
func (d *Detector) Run(report func(Result)) {
	defer close(d.finished)
	chunk := make([]float32, 0, d.chunkSize)
	for {
		select {
		case <-d.toClose:
			return
		case b := <-d.toDetector:
			buf := *b
			for len(buf) > 0 {
				l := min(len(buf), d.chunkSize-len(chunk))
				chunk = append(chunk, buf[:l]...)
				buf = buf[l:]
				if len(chunk) == d.chunkSize {
					report(d.meter.Update(chunk))
					chunk = chunk[:0]
				}
			}
			d.bufferPool.Put(b)
		}
	}
}

// Close stops Run and waits, at most timeout, for it to return. It reports
// whether Run finished in time.
func (d *Detector) Close(timeout time.Duration) bool {
	TrySend(d.toClose, struct{}{})
	select {
	case <-d.finished:
		return true
	case <-time.After(timeout):
		return false
	}
}

// TrySend sends v to c if c is not full. It never blocks and reports whether
// the value was sent.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}
