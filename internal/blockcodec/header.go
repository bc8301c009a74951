// Package blockcodec implements a bijective (up to pointer-value
// canonicalization) mapping between the host's binary file format and
// a sequence of typed blocks plus per-block pointer fixups.
//
// Parse decomposes a file into blocks and zeroes pointer-valued
// fields, recording their original values as fixups. Write performs
// the inverse, reassembling byte-identical output given the fixups
// recorded at parse time.
package blockcodec

import (
	"encoding/binary"

	"github.com/timelinedb/timeline/pkg/vcserrors"
)

const (
	fileHeaderLen = 12
	blockHeaderFixedLen = 4 + 4 + 4 + 4 // code + payload length + SDNA index + count (old-address is variable width)

	// TerminatorCode is the block code that ends the block stream.
	TerminatorCode = "ENDB"
	// DNACode is the block that carries the SDNA schema catalog.
	DNACode = "DNA1"
)

// FileHeader is the host file's 12-byte preamble.
type FileHeader struct {
	Magic        [8]byte
	PointerWidth uint8 // 4 or 8
	LittleEndian bool  // true for 'v', false for 'V'
	Version      uint16
}

func (h FileHeader) byteOrder() binary.ByteOrder {
	if h.LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// ParseFileHeader parses a file's 12-byte preamble. Exported so
// callers that need to carry a header across a store (rather than a
// full Parse) — the checkpoint engine, when persisting a checkpoint —
// can reuse the same validation.
func ParseFileHeader(b []byte) (FileHeader, error) {
	return parseFileHeader(b)
}

// Bytes re-encodes a FileHeader to its 12-byte on-disk form.
func (h FileHeader) Bytes() [12]byte {
	var buf [12]byte
	h.write(buf[:])
	return buf
}

func parseFileHeader(b []byte) (FileHeader, error) {
	if len(b) < fileHeaderLen {
		return FileHeader{}, vcserrors.New(vcserrors.MalformedFile, "file shorter than the 12-byte file header")
	}

	var h FileHeader
	copy(h.Magic[:], b[0:8])

	switch b[8] {
	case 4, 8:
		h.PointerWidth = b[8]
	default:
		return FileHeader{}, vcserrors.Newf(vcserrors.MalformedFile, "unknown pointer width %d", b[8])
	}

	switch b[9] {
	case 'v':
		h.LittleEndian = true
	case 'V':
		h.LittleEndian = false
	default:
		return FileHeader{}, vcserrors.Newf(vcserrors.MalformedFile, "unknown endianness marker %q", b[9])
	}

	// Version is always little-endian on disk regardless of the
	// endianness marker, matching how the host writes its preamble.
	h.Version = binary.LittleEndian.Uint16(b[10:12])

	return h, nil
}

func (h FileHeader) write(buf []byte) {
	copy(buf[0:8], h.Magic[:])
	buf[8] = h.PointerWidth
	if h.LittleEndian {
		buf[9] = 'v'
	} else {
		buf[9] = 'V'
	}
	binary.LittleEndian.PutUint16(buf[10:12], h.Version)
}
