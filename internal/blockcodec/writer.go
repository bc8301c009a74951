package blockcodec

import (
	"encoding/binary"

	"github.com/timelinedb/timeline/pkg/vcserrors"
)

// Write reassembles the original byte stream from a ParsedFile,
// re-applying every recorded pointer fixup. The result is
// byte-identical to the file Parse consumed, provided the fixups
// were produced by that same Parse call (inverse operation).
func (pf *ParsedFile) Write() ([]byte, error) {
	order := pf.Header.byteOrder()
	ptrWidth := int(pf.Header.PointerWidth)

	out := make([]byte, fileHeaderLen)
	pf.Header.write(out)

	for _, e := range pf.Entries {
		payload := make([]byte, len(e.Block.Payload))
		copy(payload, e.Block.Payload)

		for _, fx := range e.Ref.Fixups {
			if fx.Offset < 0 || fx.Offset+int64(fx.Width) > int64(len(payload)) {
				return nil, vcserrors.Newf(vcserrors.MalformedFile,
					"block %q: fixup offset %d out of bounds for payload of %d bytes",
					e.Block.Header.Code, fx.Offset, len(payload))
			}
			slot := payload[fx.Offset : fx.Offset+int64(fx.Width)]
			if err := writePointer(slot, fx.Original, order); err != nil {
				return nil, err
			}
		}

		header := make([]byte, blockHeaderFixedLen+ptrWidth)
		pos := 0
		copy(header[pos:pos+4], []byte(padCode(e.Block.Header.Code)))
		pos += 4
		binary.LittleEndian.PutUint32(header[pos:pos+4], uint32(len(payload)))
		pos += 4
		if err := writePointer(header[pos:pos+ptrWidth], e.Ref.HeaderOldAddress, order); err != nil {
			return nil, err
		}
		pos += ptrWidth
		order.PutUint32(header[pos:pos+4], uint32(e.Block.Header.SDNAIndex))
		pos += 4
		order.PutUint32(header[pos:pos+4], uint32(e.Block.Header.Count))

		out = append(out, header...)
		out = append(out, payload...)
	}

	return out, nil
}

// padCode ensures a block code is exactly 4 bytes, space-padded; it
// is always exactly 4 on data this package produced itself, this
// guards hand-built test fixtures.
func padCode(code string) string {
	if len(code) >= 4 {
		return code[:4]
	}
	return code + "    "[:4-len(code)]
}
