package petf

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"golang.org/x/sys/unix"
)

// File is an opened PET table. Data holds the raw payload bytes; for
// mmapped files it aliases the mapping, so it must not be used after Close.
type File struct {
	Header  Header
	Dims    []int
	Data    []byte
	mmapped bool
	raw     []byte
}

// Open maps a PET file read-only and validates its structure. If mmap is
// unavailable, it falls back to ReadAt-based loading. The returned file must
// be closed to release any mapping.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size64 := stat.Size()
	if size64 < headerSize {
		return nil, ErrCorruptFile
	}
	if size64 > int64(int(^uint(0)>>1)) {
		// cannot index this file safely as []byte on this architecture.
		return nil, ErrCorruptFile
	}
	size := int(size64)

	// Prefer mmap where available for a zero-copy payload slice.
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		pf, parseErr := parseFileData(data, true)
		if parseErr != nil {
			_ = unix.Munmap(data)
			return nil, parseErr
		}
		return pf, nil
	}

	data, err = readAllAt(f, size)
	if err != nil {
		return nil, err
	}
	return parseFileData(data, false)
}

// OpenReaderAt loads and validates a PET table from a random-access reader
// without mmap.
func OpenReaderAt(r io.ReaderAt, size int64) (*File, error) {
	if size < headerSize || size > int64(int(^uint(0)>>1)) {
		return nil, ErrCorruptFile
	}
	data, err := readAllAt(r, int(size))
	if err != nil {
		return nil, err
	}
	return parseFileData(data, false)
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	out := make([]byte, size)
	n, err := r.ReadAt(out, 0)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if n != size {
		return nil, ErrCorruptFile
	}
	return out, nil
}

func parseFileData(data []byte, mmapped bool) (*File, error) {
	h, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}
	if !h.valid() || h.FileSize != uint64(len(data)) {
		return nil, ErrCorruptFile
	}
	if !h.compatible() {
		return nil, fmt.Errorf("%w: major %d", ErrUnsupportedVersion, h.Major)
	}
	dims := make([]int, h.Rank)
	elems := uint64(1)
	for i := range dims {
		d := binary.LittleEndian.Uint64(data[headerSize+8*i:])
		if d == 0 || d > uint64(len(data)) {
			return nil, ErrCorruptFile
		}
		dims[i] = int(d)
		elems *= d
	}
	if h.DataOffset+4*elems != h.FileSize {
		return nil, ErrCorruptFile
	}
	return &File{
		Header:  h,
		Dims:    dims,
		Data:    data[h.DataOffset:],
		mmapped: mmapped,
		raw:     data,
	}, nil
}

// Elems returns the payload element count.
func (f *File) Elems() int {
	n := 1
	for _, d := range f.Dims {
		n *= d
	}
	return n
}

// Float32s decodes the payload into a freshly allocated slice. The returned
// slice stays valid after Close.
func (f *File) Float32s() []float32 {
	out := make([]float32, f.Elems())
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(f.Data[4*i:]))
	}
	return out
}

// Close releases the mapping, if any. The file's Data must not be touched
// afterwards.
func (f *File) Close() error {
	if f.mmapped && f.raw != nil {
		err := unix.Munmap(f.raw)
		f.raw = nil
		f.Data = nil
		return err
	}
	f.raw = nil
	f.Data = nil
	return nil
}
