// Package petf reads and writes PET files, a minimal binary container for a
// single dense float32 embedding table: fixed header, axis extents, 64-byte
// aligned payload. It is the persistence surface for precomputed and
// learnable positional-embedding tables.
package petf

import (
	"encoding/binary"
	"errors"
)

const (
	Magic = "PET\x00"

	// CurrentMajor changes only on breaking layout changes.
	CurrentMajor uint16 = 1
	CurrentMinor uint16 = 0

	headerSize = 28
	// payloadAlign keeps the float32 payload 64-byte aligned so mmapped
	// files can be consumed with vector loads.
	payloadAlign = 64

	// maxRank bounds the dim list; nothing in the embedding engine
	// produces tensors beyond rank 8.
	maxRank = 8
)

var (
	ErrCorruptFile        = errors.New("petf: corrupt file")
	ErrUnsupportedVersion = errors.New("petf: unsupported version")
)

// Header is the fixed-size file preamble. Rank axis extents (u64 little
// endian) follow it immediately; the payload starts at DataOffset.
type Header struct {
	Magic      [4]byte
	Major      uint16
	Minor      uint16
	Rank       uint32
	DataOffset uint64
	FileSize   uint64
}

func (h *Header) valid() bool {
	if string(h.Magic[:]) != Magic {
		return false
	}
	if h.Rank == 0 || h.Rank > maxRank {
		return false
	}
	if h.DataOffset < headerSize+8*uint64(h.Rank) {
		return false
	}
	return h.DataOffset <= h.FileSize
}

func (h *Header) compatible() bool { return h.Major == CurrentMajor }

func (h *Header) encode(dst []byte) {
	copy(dst[0:4], h.Magic[:])
	binary.LittleEndian.PutUint16(dst[4:6], h.Major)
	binary.LittleEndian.PutUint16(dst[6:8], h.Minor)
	binary.LittleEndian.PutUint32(dst[8:12], h.Rank)
	binary.LittleEndian.PutUint64(dst[12:20], h.DataOffset)
	binary.LittleEndian.PutUint64(dst[20:28], h.FileSize)
}

func decodeHeader(src []byte) (Header, error) {
	if len(src) < headerSize {
		return Header{}, ErrCorruptFile
	}
	var h Header
	copy(h.Magic[:], src[0:4])
	h.Major = binary.LittleEndian.Uint16(src[4:6])
	h.Minor = binary.LittleEndian.Uint16(src[6:8])
	h.Rank = binary.LittleEndian.Uint32(src[8:12])
	h.DataOffset = binary.LittleEndian.Uint64(src[12:20])
	h.FileSize = binary.LittleEndian.Uint64(src[20:28])
	return h, nil
}

func payloadOffset(rank int) uint64 {
	off := uint64(headerSize + 8*rank)
	if rem := off % payloadAlign; rem != 0 {
		off += payloadAlign - rem
	}
	return off
}
