package overtone

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

var ErrBitDepth = errors.New("unsupported bit depth, use 16, 24 or 32")

var _ AudioSink = (*WavSink)(nil)

// WavSink is an AudioSink encoding mono audio into a PCM .wav file. The
// header is finalized on Close, so the writer must be seekable.
type WavSink struct {
	enc    *wav.Encoder
	intBuf *audio.IntBuffer
	scale  float64
}

// NewWavSink creates a WavSink writing to w with the given sample rate and
// bit depth.
func NewWavSink(w io.WriteSeeker, sampleRate, bitDepth int) (*WavSink, error) {
	if bitDepth != 16 && bitDepth != 24 && bitDepth != 32 {
		return nil, fmt.Errorf("%w: %d", ErrBitDepth, bitDepth)
	}
	return &WavSink{
		enc: wav.NewEncoder(w, sampleRate, bitDepth, 1, wavFormatPCM),
		intBuf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
			SourceBitDepth: bitDepth,
		},
		scale: float64(int64(1)<<(bitDepth-1) - 1),
	}, nil
}

// WriteAudio encodes the buffer, clipping the samples to [-1,1].
func (s *WavSink) WriteAudio(buffer []float32) error {
	if cap(s.intBuf.Data) < len(buffer) {
		s.intBuf.Data = make([]int, len(buffer))
	}
	s.intBuf.Data = s.intBuf.Data[:len(buffer)]
	for i, v := range buffer {
		s.intBuf.Data[i] = int(math.Round(clamp(float64(v), -1, 1) * s.scale))
	}
	if err := s.enc.Write(s.intBuf); err != nil {
		return fmt.Errorf("cannot encode wav data: %w", err)
	}
	return nil
}

// Close writes the final header. It does not close the underlying writer.
func (s *WavSink) Close() error {
	if err := s.enc.Close(); err != nil {
		return fmt.Errorf("cannot finalize wav file: %w", err)
	}
	return nil
}

// Raw returns the buffer as little-endian raw samples, either float32 or
// 16-bit signed integers.
func Raw(buffer []float32, pcm16 bool) ([]byte, error) {
	buf := new(bytes.Buffer)
	var err error
	if pcm16 {
		int16data := make([]int16, len(buffer))
		for i, v := range buffer {
			int16data[i] = int16(math.Round(clamp(float64(v), -1, 1) * math.MaxInt16))
		}
		err = binary.Write(buf, binary.LittleEndian, int16data)
	} else {
		err = binary.Write(buf, binary.LittleEndian, buffer)
	}
	if err != nil {
		return nil, fmt.Errorf("could not binary write data to binary buffer: %w", err)
	}
	return buf.Bytes(), nil
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
