package blockcodec

import (
	"strings"

	"github.com/timelinedb/timeline/pkg/vcserrors"
)

// fieldLayout describes one field of a struct as laid out in the
// file, in the file's own pointer width (not the host machine's).
type fieldLayout struct {
	offset    int64
	width     int
	isPointer bool
}

// structLayout is the field-by-field layout of one struct type found
// in the SDNA catalog.
type structLayout struct {
	name   string
	size   int64
	fields []fieldLayout
}

// schemaTable is the parsed SDNA catalog: for every struct type, the
// list of (offset, width, is-pointer) per field, as described in
// step 3.
type schemaTable struct {
	structs []structLayout
}

func (s schemaTable) layoutFor(sdnaIndex int32) (structLayout, bool) {
	if sdnaIndex < 0 || int(sdnaIndex) >= len(s.structs) {
		return structLayout{}, false
	}
	return s.structs[int(sdnaIndex)], true
}

// parseSDNA parses the payload of a DNA1 block into a schemaTable.
// The on-disk format mirrors the host's well-known self-describing
// schema tables: a NAME section, a TYPE section, a TLEN section (one
// size per type) and a STRC section (struct type index, field count,
// then that many (type index, name index) pairs).
func parseSDNA(payload []byte, ptrWidth int, order byteOrderFunc) (schemaTable, error) {
	r := &cursor{b: payload}

	if err := r.expectTag("SDNA"); err != nil {
		return schemaTable{}, err
	}

	if err := r.expectTag("NAME"); err != nil {
		return schemaTable{}, err
	}
	nameCount, err := r.int32(order)
	if err != nil {
		return schemaTable{}, err
	}
	names := make([]string, nameCount)
	for i := range names {
		names[i], err = r.cString()
		if err != nil {
			return schemaTable{}, err
		}
	}
	r.align4()

	if err := r.expectTag("TYPE"); err != nil {
		return schemaTable{}, err
	}
	typeCount, err := r.int32(order)
	if err != nil {
		return schemaTable{}, err
	}
	types := make([]string, typeCount)
	for i := range types {
		types[i], err = r.cString()
		if err != nil {
			return schemaTable{}, err
		}
	}
	r.align4()

	if err := r.expectTag("TLEN"); err != nil {
		return schemaTable{}, err
	}
	typeLens := make([]int, typeCount)
	for i := range typeLens {
		v, err := r.uint16(order)
		if err != nil {
			return schemaTable{}, err
		}
		typeLens[i] = int(v)
	}
	r.align4()

	if err := r.expectTag("STRC"); err != nil {
		return schemaTable{}, err
	}
	structCount, err := r.int32(order)
	if err != nil {
		return schemaTable{}, err
	}

	table := schemaTable{structs: make([]structLayout, structCount)}
	for i := range table.structs {
		typeIdx, err := r.uint16(order)
		if err != nil {
			return schemaTable{}, err
		}
		fieldCount, err := r.uint16(order)
		if err != nil {
			return schemaTable{}, err
		}
		if int(typeIdx) >= len(types) {
			return schemaTable{}, vcserrors.Newf(vcserrors.MalformedFile, "SDNA struct %d: type index %d out of range", i, typeIdx)
		}

		layout := structLayout{name: types[typeIdx]}
		var offset int64
		for f := 0; f < int(fieldCount); f++ {
			fTypeIdx, err := r.uint16(order)
			if err != nil {
				return schemaTable{}, err
			}
			fNameIdx, err := r.uint16(order)
			if err != nil {
				return schemaTable{}, err
			}
			if int(fNameIdx) >= len(names) || int(fTypeIdx) >= len(types) {
				return schemaTable{}, vcserrors.Newf(vcserrors.MalformedFile, "SDNA struct %d field %d: index out of range", i, f)
			}

			fieldName := names[fNameIdx]
			isPointer, arrayLen := parseFieldName(fieldName)

			var width int
			if isPointer {
				width = ptrWidth
			} else {
				width = typeLens[fTypeIdx] * arrayLen
			}

			if width <= 0 {
				width = ptrWidth // defensive: unknown-size type treated as opaque pointer-width slot
			}

			offset = alignUp(offset, int64(min(width, 8)))
			layout.fields = append(layout.fields, fieldLayout{
				offset:    offset,
				width:     width,
				isPointer: isPointer,
			})
			offset += int64(width)
		}
		layout.size = offset
		table.structs[i] = layout
	}

	return table, nil
}

// parseFieldName strips a DNA field name down to whether it denotes
// a pointer (leading '*', one or more) and, for arrays, how many
// elements it holds (default 1). Function-pointer fields of the form
// "(*name)(args)" are treated as a single pointer-width slot.
func parseFieldName(name string) (isPointer bool, arrayLen int) {
	arrayLen = 1
	name = strings.TrimSpace(name)

	if strings.HasPrefix(name, "(*") {
		return true, 1
	}

	for strings.HasPrefix(name, "*") {
		isPointer = true
		name = name[1:]
	}

	for {
		open := strings.IndexByte(name, '[')
		if open < 0 {
			break
		}
		closeIdx := strings.IndexByte(name[open:], ']')
		if closeIdx < 0 {
			break
		}
		n := 0
		for _, c := range name[open+1 : open+closeIdx] {
			if c < '0' || c > '9' {
				n = 0
				break
			}
			n = n*10 + int(c-'0')
		}
		if n > 0 {
			arrayLen *= n
		}
		name = name[open+closeIdx+1:]
	}

	return isPointer, arrayLen
}

func alignUp(v, align int64) int64 {
	if align <= 1 {
		return v
	}
	rem := v % align
	if rem == 0 {
		return v
	}
	return v + (align - rem)
}
