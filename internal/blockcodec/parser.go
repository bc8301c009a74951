package blockcodec

import (
	"github.com/timelinedb/timeline/internal/hasher"
	"github.com/timelinedb/timeline/pkg/model"
	"github.com/timelinedb/timeline/pkg/vcserrors"
)

// Entry pairs a content-addressed Block with the instance-specific
// data needed to restore it to its original position in a file: the
// pointer fixups zeroed out of its payload, and the block header's
// own old-address value (excluded from the block's hash, since it is
// itself a non-deterministic in-memory address, but still required
// for byte-exact reconstruction).
type Entry struct {
	Block model.Block
	Ref   model.BlockRef
}

// ParsedFile is the decomposition of one host file into its header
// and ordered block entries.
type ParsedFile struct {
	Header  FileHeader
	Entries []Entry
}

// Parse decomposes raw host file bytes into a ParsedFile, canonicalizing
// every pointer-valued field it finds via the file's own SDNA schema
// catalog (steps 1-5).
func Parse(raw []byte) (*ParsedFile, error) {
	header, err := parseFileHeader(raw)
	if err != nil {
		return nil, err
	}
	order := header.byteOrder()
	ptrWidth := int(header.PointerWidth)

	rawBlocks, err := readRawBlocks(raw, fileHeaderLen, ptrWidth, order)
	if err != nil {
		return nil, err
	}

	var dna *rawBlock
	for i := range rawBlocks {
		if rawBlocks[i].code == DNACode {
			dna = &rawBlocks[i]
			break
		}
	}
	if dna == nil {
		return nil, vcserrors.New(vcserrors.MalformedFile, "no DNA1 block found: cannot determine pointer field layout")
	}

	schema, err := parseSDNA(dna.payload, ptrWidth, order)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, len(rawBlocks))
	for i, rb := range rawBlocks {
		entry, err := canonicalizeBlock(rb, schema, ptrWidth, order)
		if err != nil {
			return nil, err
		}
		entries[i] = entry
	}

	return &ParsedFile{Header: header, Entries: entries}, nil
}

// canonicalizeBlock zeroes the pointer fields of one raw block's
// payload (if its SDNA index resolves to a known struct layout),
// recording the values it zeroed as fixups, then hashes the result.
func canonicalizeBlock(rb rawBlock, schema schemaTable, ptrWidth int, order byteOrderFunc) (Entry, error) {
	payload := rb.payload
	var fixups []model.PointerFixup

	if rb.code != DNACode {
		if layout, ok := schema.layoutFor(rb.sdnaIndex); ok && layout.size > 0 {
			for inst := int32(0); inst < rb.count; inst++ {
				base := int64(inst) * layout.size
				if base+layout.size > int64(len(payload)) {
					return Entry{}, vcserrors.Newf(vcserrors.MalformedFile,
						"block %q: struct instance %d exceeds payload bounds", rb.code, inst)
				}

				for _, f := range layout.fields {
					if !f.isPointer {
						continue
					}
					off := base + f.offset
					if off+int64(f.width) > int64(len(payload)) {
						return Entry{}, vcserrors.Newf(vcserrors.MalformedFile,
							"block %q: pointer field at offset %d misaligned or out of bounds", rb.code, off)
					}

					slot := payload[off : off+int64(f.width)]
					original, err := readPointer(slot, order)
					if err != nil {
						return Entry{}, err
					}
					fixups = append(fixups, model.PointerFixup{
						Offset:   off,
						Original: original,
						Width:    uint8(f.width),
					})
					writeZero(slot)
				}
			}
		}
	}

	hash := hasher.HashBlock(rb.code, rb.sdnaIndex, rb.count, payload)

	return Entry{
		Block: model.Block{
			Hash: hash,
			Header: model.BlockHeader{
				Code:       rb.code,
				SDNAIndex:  rb.sdnaIndex,
				Count:      rb.count,
				PayloadLen: int32(len(payload)),
			},
			Payload: payload,
		},
		Ref: model.BlockRef{
			BlockHash:        hash,
			Fixups:           fixups,
			HeaderOldAddress: rb.oldAddress,
		},
	}, nil
}
