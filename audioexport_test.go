package overtone_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/vsariola/overtone"
)

func TestWavSink(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.wav"))
	if err != nil {
		t.Fatalf("cannot create file: %v", err)
	}
	defer f.Close()
	sink, err := overtone.NewWavSink(f, 44100, 16)
	if err != nil {
		t.Fatalf("NewWavSink failed: %v", err)
	}
	if err := sink.WriteAudio([]float32{0, 0.5, -1}); err != nil {
		t.Fatalf("WriteAudio failed: %v", err)
	}
	if err := sink.WriteAudio([]float32{2}); err != nil {
		t.Fatalf("WriteAudio failed: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("cannot decode written file: %v", err)
	}
	if buf.Format.NumChannels != 1 || buf.Format.SampleRate != 44100 || dec.BitDepth != 16 {
		t.Fatalf("got %d channels, %d Hz, %d bits", buf.Format.NumChannels, buf.Format.SampleRate, dec.BitDepth)
	}
	want := []int{0, 16384, -32767, 32767}
	if len(buf.Data) != len(want) {
		t.Fatalf("got %d samples, want %d", len(buf.Data), len(want))
	}
	for i := range want {
		if buf.Data[i] != want[i] {
			t.Errorf("sample %d: got %d, want %d", i, buf.Data[i], want[i])
		}
	}
}

func TestWavSinkBitDepth(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.wav"))
	if err != nil {
		t.Fatalf("cannot create file: %v", err)
	}
	defer f.Close()
	if _, err := overtone.NewWavSink(f, 44100, 8); !errors.Is(err, overtone.ErrBitDepth) {
		t.Fatalf("got %v, want ErrBitDepth", err)
	}
}

func TestRaw(t *testing.T) {
	b, err := overtone.Raw([]float32{1, -1, 0, 3}, true)
	if err != nil {
		t.Fatalf("Raw failed: %v", err)
	}
	want := []byte{0xff, 0x7f, 0x01, 0x80, 0, 0, 0xff, 0x7f}
	if !bytes.Equal(b, want) {
		t.Errorf("got % x, want % x", b, want)
	}
	b, err = overtone.Raw([]float32{0.25, -3}, false)
	if err != nil {
		t.Fatalf("Raw failed: %v", err)
	}
	got := make([]float32, 2)
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, got); err != nil {
		t.Fatalf("cannot read back: %v", err)
	}
	if got[0] != 0.25 || got[1] != -3 {
		t.Errorf("float output should be unprocessed, got %v", got)
	}
}
