package petf

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// Write stores a dense float32 table at path, truncating any existing file.
// Unlike the reader there is no streaming surface: embedding tables are
// bounded by configuration, so the payload is always addressable up front.
func Write(path string, dims []int, data []float32) error {
	if len(dims) == 0 || len(dims) > maxRank {
		return fmt.Errorf("petf: rank %d out of range [1,%d]", len(dims), maxRank)
	}
	elems := 1
	for _, d := range dims {
		if d <= 0 {
			return fmt.Errorf("petf: non-positive dim %d", d)
		}
		elems *= d
	}
	if elems != len(data) {
		return fmt.Errorf("petf: %d elements for dims %v (want %d)", len(data), dims, elems)
	}

	off := payloadOffset(len(dims))
	h := Header{
		Major:      CurrentMajor,
		Minor:      CurrentMinor,
		Rank:       uint32(len(dims)),
		DataOffset: off,
		FileSize:   off + 4*uint64(len(data)),
	}
	copy(h.Magic[:], Magic)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)

	head := make([]byte, off)
	h.encode(head)
	for i, d := range dims {
		binary.LittleEndian.PutUint64(head[headerSize+8*i:], uint64(d))
	}
	if _, err := w.Write(head); err != nil {
		_ = f.Close()
		return err
	}
	var buf [4]byte
	for _, v := range data {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
		if _, err := w.Write(buf[:]); err != nil {
			_ = f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
