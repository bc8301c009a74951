package blockcodec

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildSDNAPayload builds a minimal SDNA catalog with one struct,
// "Obj", made of a non-pointer int32 field "id" and a pointer field
// "*next".
func buildSDNAPayload(order binary.ByteOrder) []byte {
	var b []byte
	putTag := func(s string) { b = append(b, []byte(s)...) }
	putI32 := func(v int32) {
		tmp := make([]byte, 4)
		order.PutUint32(tmp, uint32(v))
		b = append(b, tmp...)
	}
	putU16 := func(v uint16) {
		tmp := make([]byte, 2)
		order.PutUint16(tmp, v)
		b = append(b, tmp...)
	}
	putCStr := func(s string) { b = append(b, append([]byte(s), 0)...) }
	align4 := func() {
		for len(b)%4 != 0 {
			b = append(b, 0)
		}
	}

	putTag("SDNA")

	names := []string{"id", "*next"}
	putTag("NAME")
	putI32(int32(len(names)))
	for _, n := range names {
		putCStr(n)
	}
	align4()

	types := []string{"int", "Obj"}
	putTag("TYPE")
	putI32(int32(len(types)))
	for _, t := range types {
		putCStr(t)
	}
	align4()

	putTag("TLEN")
	putU16(4) // sizeof(int)
	putU16(8) // sizeof(Obj) unused for pointer-bearing type lookups
	align4()

	putTag("STRC")
	putI32(1) // one struct
	putU16(1) // type index for "Obj"
	putU16(2) // field count
	// field 0: type "int" (index 0), name "id" (index 0)
	putU16(0)
	putU16(0)
	// field 1: type "int" (index 0, irrelevant for pointers), name "*next" (index 1)
	putU16(0)
	putU16(1)

	return b
}

// buildTestFile assembles a complete synthetic host file: header,
// DNA1 block, one "OBJE" data block holding two Obj instances, and
// the ENDB terminator.
func buildTestFile(ptrWidth int, littleEndian bool) []byte {
	var order binary.ByteOrder = binary.LittleEndian
	if !littleEndian {
		order = binary.BigEndian
	}

	var out []byte
	header := make([]byte, 12)
	copy(header[0:8], []byte("TESTFILE"))
	header[8] = byte(ptrWidth)
	if littleEndian {
		header[9] = 'v'
	} else {
		header[9] = 'V'
	}
	binary.LittleEndian.PutUint16(header[10:12], 42)
	out = append(out, header...)

	appendBlock := func(code string, sdnaIndex, count int32, oldAddr uint64, payload []byte) {
		var blk []byte
		blk = append(blk, []byte(code)...)
		plen := make([]byte, 4)
		binary.LittleEndian.PutUint32(plen, uint32(len(payload)))
		blk = append(blk, plen...)

		addr := make([]byte, ptrWidth)
		if ptrWidth == 4 {
			order.PutUint32(addr, uint32(oldAddr))
		} else {
			order.PutUint64(addr, oldAddr)
		}
		blk = append(blk, addr...)

		idx := make([]byte, 4)
		order.PutUint32(idx, uint32(sdnaIndex))
		blk = append(blk, idx...)

		cnt := make([]byte, 4)
		order.PutUint32(cnt, uint32(count))
		blk = append(blk, cnt...)

		blk = append(blk, payload...)
		out = append(out, blk...)
	}

	dnaPayload := buildSDNAPayload(order)
	appendBlock(DNACode, -1, 1, 0, dnaPayload)

	// Two "Obj" instances: {id int32, next *Obj}. The pointer field is
	// aligned to its own width (matching parseSDNA's alignUp), so the
	// struct size depends on the file's pointer width.
	ptrFieldOffset := alignUp(4, int64(min(ptrWidth, 8)))
	instSize := int(ptrFieldOffset) + ptrWidth
	objPayload := make([]byte, instSize*2)
	order.PutUint32(objPayload[0:4], 1001)
	writePtrInto(objPayload[ptrFieldOffset:int(ptrFieldOffset)+ptrWidth], 0xdeadbeef, ptrWidth, order)
	order.PutUint32(objPayload[instSize:instSize+4], 1002)
	writePtrInto(objPayload[instSize+int(ptrFieldOffset):instSize+int(ptrFieldOffset)+ptrWidth], 0xcafef00d, ptrWidth, order)

	appendBlock("OBJE", 0, 2, 0x1000, objPayload)
	appendBlock(TerminatorCode, -1, 0, 0, nil)

	return out
}

func writePtrInto(b []byte, v uint64, width int, order binary.ByteOrder) {
	if width == 4 {
		order.PutUint32(b, uint32(v))
	} else {
		order.PutUint64(b, v)
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name         string
		ptrWidth     int
		littleEndian bool
	}{
		{"ptr4-le", 4, true},
		{"ptr8-le", 8, true},
		{"ptr8-be", 8, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			raw := buildTestFile(tc.ptrWidth, tc.littleEndian)

			pf, err := Parse(raw)
			require.NoError(t, err)
			require.Len(t, pf.Entries, 3)

			out, err := pf.Write()
			require.NoError(t, err)
			assert.Equal(t, raw, out)
		})
	}
}

func TestParsePointerFieldsZeroed(t *testing.T) {
	raw := buildTestFile(8, true)
	pf, err := Parse(raw)
	require.NoError(t, err)

	objEntry := pf.Entries[1]
	assert.Equal(t, "OBJE", objEntry.Block.Header.Code)
	require.Len(t, objEntry.Ref.Fixups, 2)

	for _, fx := range objEntry.Ref.Fixups {
		slot := objEntry.Block.Payload[fx.Offset : fx.Offset+int64(fx.Width)]
		for _, b := range slot {
			assert.Equal(t, byte(0), b, "pointer field should be zeroed in canonicalized payload")
		}
	}
	assert.Equal(t, uint64(0xdeadbeef), objEntry.Ref.Fixups[0].Original)
	assert.Equal(t, uint64(0xcafef00d), objEntry.Ref.Fixups[1].Original)
	assert.Equal(t, uint64(0x1000), objEntry.Ref.HeaderOldAddress)
}

func TestHashDeterministic(t *testing.T) {
	raw1 := buildTestFile(8, true)
	raw2 := buildTestFile(8, true)

	pf1, err := Parse(raw1)
	require.NoError(t, err)
	pf2, err := Parse(raw2)
	require.NoError(t, err)

	for i := range pf1.Entries {
		assert.Equal(t, pf1.Entries[i].Block.Hash, pf2.Entries[i].Block.Hash)
	}
}

func TestHashIndependentOfOldAddress(t *testing.T) {
	raw := buildTestFile(8, true)
	pf, err := Parse(raw)
	require.NoError(t, err)

	objHash := pf.Entries[1].Block.Hash

	raw2 := buildTestFile(8, true)
	// Mutate the OBJE block's old-address field in place (offset:
	// fileHeader + DNA1 block length + 4(code)+4(len)).
	dnaBlockLen := 4 + 4 + 8 + 4 + 4 + len(buildSDNAPayload(binary.LittleEndian))
	addrOff := 12 + dnaBlockLen + 4 + 4
	binary.LittleEndian.PutUint64(raw2[addrOff:addrOff+8], 0x999999)
	pf2, err := Parse(raw2)
	require.NoError(t, err)
	require.Equal(t, uint64(0x999999), pf2.Entries[1].Ref.HeaderOldAddress)
	assert.Equal(t, objHash, pf2.Entries[1].Block.Hash, "hash must not depend on the header's old-address field")
}

func TestParseRejectsTruncatedHeader(t *testing.T) {
	_, err := Parse([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestParseRejectsMissingDNA(t *testing.T) {
	raw := buildTestFile(8, true)
	// Keep the 12-byte preamble and the 24-byte ENDB terminator block,
	// dropping the DNA1 and OBJE blocks in between: the block stream is
	// well-formed but has no schema catalog to parse.
	noDNA := append(append([]byte{}, raw[:12]...), raw[len(raw)-24:]...)
	_, err := Parse(noDNA)
	require.Error(t, err)
}

func TestParseRejectsUnknownPointerWidth(t *testing.T) {
	raw := buildTestFile(8, true)
	raw[8] = 5
	_, err := Parse(raw)
	require.Error(t, err)
}

func TestParseRejectsTruncatedPayload(t *testing.T) {
	raw := buildTestFile(8, true)
	// Drop the 24-byte ENDB terminator and the last 5 bytes of the
	// OBJE payload before it, so OBJE declares more bytes than remain.
	_, err := Parse(raw[:len(raw)-24-5])
	require.Error(t, err)
}
