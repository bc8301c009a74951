package blockcodec

import (
	"encoding/binary"

	"github.com/timelinedb/timeline/pkg/vcserrors"
)

// rawBlock is one file-block as it appears on disk, before pointer
// canonicalization: header fields plus an owned copy of the payload
// bytes (owned so later steps can zero pointer fields in place
// without mutating the caller's input buffer).
type rawBlock struct {
	code       string
	oldAddress uint64
	sdnaIndex  int32
	count      int32
	payload    []byte
}

// readRawBlocks streams file-block headers starting at offset pos in
// b until the terminator code is read (inclusive), validating that
// every declared payload length fits in the remaining input.
func readRawBlocks(b []byte, pos int, ptrWidth int, order binary.ByteOrder) ([]rawBlock, error) {
	var blocks []rawBlock

	for {
		if pos+blockHeaderFixedLen > len(b) {
			return nil, vcserrors.Newf(vcserrors.MalformedFile, "truncated block header at offset %d", pos)
		}

		code := string(b[pos : pos+4])
		pos += 4

		payloadLen := int32(binary.LittleEndian.Uint32(b[pos : pos+4]))
		pos += 4
		if payloadLen < 0 {
			return nil, vcserrors.Newf(vcserrors.MalformedFile, "block %q: negative payload length", code)
		}

		if pos+ptrWidth > len(b) {
			return nil, vcserrors.Newf(vcserrors.MalformedFile, "block %q: truncated old-address field", code)
		}
		oldAddress, err := readPointer(b[pos:pos+ptrWidth], order)
		if err != nil {
			return nil, err
		}
		pos += ptrWidth

		if pos+8 > len(b) {
			return nil, vcserrors.Newf(vcserrors.MalformedFile, "block %q: truncated SDNA index/count", code)
		}
		sdnaIndex := int32(order.Uint32(b[pos : pos+4]))
		pos += 4
		count := int32(order.Uint32(b[pos : pos+4]))
		pos += 4

		if pos+int(payloadLen) > len(b) {
			return nil, vcserrors.Newf(vcserrors.MalformedFile, "block %q: payload of %d bytes exceeds remaining input", code, payloadLen)
		}

		payload := make([]byte, payloadLen)
		copy(payload, b[pos:pos+int(payloadLen)])
		pos += int(payloadLen)

		blocks = append(blocks, rawBlock{
			code:       code,
			oldAddress: oldAddress,
			sdnaIndex:  sdnaIndex,
			count:      count,
			payload:    payload,
		})

		if code == TerminatorCode {
			break
		}
	}

	return blocks, nil
}

func readPointer(b []byte, order binary.ByteOrder) (uint64, error) {
	switch len(b) {
	case 4:
		return uint64(order.Uint32(b)), nil
	case 8:
		return order.Uint64(b), nil
	default:
		return 0, vcserrors.Newf(vcserrors.MalformedFile, "unsupported pointer width %d", len(b))
	}
}

func writePointer(b []byte, v uint64, order binary.ByteOrder) error {
	switch len(b) {
	case 4:
		order.PutUint32(b, uint32(v))
	case 8:
		order.PutUint64(b, v)
	default:
		return vcserrors.Newf(vcserrors.MalformedFile, "unsupported pointer width %d", len(b))
	}
	return nil
}

func writeZero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
