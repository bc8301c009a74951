// Package model holds the domain types shared across the timeline
// store: blocks, pointer fixups, checkpoints, branches and the
// current-state pointer.
package model

import "time"

// BlockHeader is the small structural header every Block carries,
// excluding the original in-file address (which is not part of a
// block's identity — see Block.Hash).
type BlockHeader struct {
	Code       string // 4-byte ASCII block code, e.g. "DNA1"
	SDNAIndex  int32  // index into the file's schema catalog as read from the file; may be negative or out of range
	Count      int32  // number of struct instances packed into Payload
	PayloadLen int32  // length of Payload in bytes
}

// Block is an opaque, canonicalized byte run from the host file, plus
// its structural header. Its identity (Hash) is a pure function of
// {Header minus original address, canonicalized Payload} — see
// internal/hasher. Blocks are immutable once inserted into a store.
type Block struct {
	Hash    string // hex-encoded content hash, the primary key in the `blocks` table
	Header  BlockHeader
	Payload []byte // canonicalized payload: pointer fields zeroed
}

// PointerFixup records one address-valued field that blockcodec
// zeroed during canonicalization. Fixups are scoped to a single
// (checkpoint, block-hash) pair: the same block content can carry
// different original pointer values in different checkpoints.
type PointerFixup struct {
	Offset   int64  // byte offset within the block's payload
	Original uint64 // the original pointer value, widened to 64 bits
	Width    uint8  // 4 or 8, the file's pointer width
}

// BlockRef is one entry of a checkpoint's ordered blocks-and-pointers
// list: a block's content hash plus the fixups needed to restore the
// original bytes at that position in the file. HeaderOldAddress is
// the block header's own old-address slot, excluded from the block's
// content hash (it is itself a non-deterministic in-memory address)
// but still required, like any other fixup, for byte-exact
// reconstruction.
type BlockRef struct {
	BlockHash        string
	Fixups           []PointerFixup
	HeaderOldAddress uint64
}

// Checkpoint is an immutable named snapshot, identified by the
// content hash of the original (pre-parse) host file bytes.
type Checkpoint struct {
	ID         string // = hasher.HashFile(original file bytes)
	Name       string
	Parent     *string // nil only if no checkpoint was current when it was created
	BranchID   string
	CreatedAt  time.Time
	Header     [12]byte   // the host file's 12-byte preamble, carried verbatim for reassembly
	Blocks     []BlockRef // ordered, reproduces original block order
}

// Branch is a named lineage. Tip is nil when the branch has no
// checkpoints yet.
type Branch struct {
	ID   string
	Name string
	Tip  *string
}

// CurrentState is the store's singleton "where are we" pointer.
// BranchID always names an existing branch (`main` in a freshly
// created store); CheckpointHash is nil until a checkpoint has been
// created or restored.
type CurrentState struct {
	BranchID       string
	CheckpointHash *string
}

// MainBranchName is the distinguished branch every store is created
// with; it cannot be deleted.
const MainBranchName = "main"
