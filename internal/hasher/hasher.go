// Package hasher provides the deterministic, fixed-width content hash
// used both for block identity and for checkpoint ids. It
// hashes canonicalized bytes only: callers are responsible for zeroing
// pointer fields before calling HashBlock, and for passing raw
// pre-parse file bytes to HashFile.
package hasher

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/minio/sha256-simd"
)

// Size is the width in bytes of every hash this package produces (256
// bits), comfortably satisfying "≥128 bit, negligible
// collision probability over millions of blocks" requirement.
const Size = sha256.Size

// HashFile hashes raw, pre-parse host file bytes. Its result becomes
// a Checkpoint's id.
func HashFile(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// HashBlock hashes a block's identity-bearing content: its header
// with the original in-file address excluded, followed by its
// canonicalized payload. Two blocks with identical code, SDNA index,
// count and canonicalized payload hash identically regardless of
// where either originally lived in its file — this is what makes
// deduplication work (rationale).
func HashBlock(code string, sdnaIndex, count int32, payload []byte) string {
	h := sha256.New()

	var codeBuf [4]byte
	copy(codeBuf[:], code)
	h.Write(codeBuf[:])

	var intBuf [8]byte
	binary.LittleEndian.PutUint32(intBuf[0:4], uint32(sdnaIndex))
	binary.LittleEndian.PutUint32(intBuf[4:8], uint32(count))
	h.Write(intBuf[:])

	h.Write(payload)

	sum := h.Sum(nil)
	return hex.EncodeToString(sum)
}
