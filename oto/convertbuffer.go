package oto

import (
	"encoding/binary"
	"math"
)

// FloatBufferToLE writes the float32 samples of buff as little-endian bytes
// into dst, which must hold at least 4*len(buff) bytes, and returns the number
// of bytes written.
func FloatBufferToLE(buff []float32, dst []byte) int {
	for i, v := range buff {
		binary.LittleEndian.PutUint32(dst[4*i:], math.Float32bits(v))
	}
	return 4 * len(buff)
}
