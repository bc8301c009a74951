// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package engine

import (
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timelinedb/timeline/internal/repository"
	"github.com/timelinedb/timeline/pkg/model"
	"github.com/timelinedb/timeline/pkg/vcserrors"
)

// buildMinimalFile assembles the smallest valid host file: a 12-byte
// preamble, a DNA1 block with an empty schema catalog (zero structs),
// and the ENDB terminator. Good enough to exercise checkpoint
// create/restore/export without needing pointer-bearing blocks.
func buildMinimalFile(version uint16) []byte {
	order := binary.LittleEndian

	var dna []byte
	dna = append(dna, []byte("SDNA")...)
	dna = append(dna, []byte("NAME")...)
	dna = append(dna, le32(0)...)
	dna = append(dna, []byte("TYPE")...)
	dna = append(dna, le32(0)...)
	dna = append(dna, []byte("TLEN")...)
	dna = append(dna, []byte("STRC")...)
	dna = append(dna, le32(0)...)

	var out []byte
	header := make([]byte, 12)
	copy(header[0:8], []byte("TESTFILE"))
	header[8] = 8
	header[9] = 'v'
	order.PutUint16(header[10:12], version)
	out = append(out, header...)

	appendBlock := func(code string, sdnaIndex, count int32, payload []byte) {
		out = append(out, []byte(code)...)
		out = append(out, le32(int32(len(payload)))...)
		addr := make([]byte, 8)
		out = append(out, addr...)
		out = append(out, le32(sdnaIndex)...)
		out = append(out, le32(count)...)
		out = append(out, payload...)
	}

	appendBlock("DNA1", -1, 1, dna)
	appendBlock("ENDB", -1, 0, nil)
	return out
}

func le32(v int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return b
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.timeline")
	store, err := repository.CreateStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(store)
}

func TestCreateCheckpointThenExportRoundTrips(t *testing.T) {
	e := newTestEngine(t)
	raw := buildMinimalFile(1)

	cp, err := e.CreateCheckpoint("first", raw)
	require.NoError(t, err)
	assert.Equal(t, "first", cp.Name)
	assert.Nil(t, cp.Parent)

	out, err := e.ExportCheckpoint(cp.ID)
	require.NoError(t, err)
	assert.Equal(t, raw, out)
}

func TestCreateCheckpointIsIdempotentOnContent(t *testing.T) {
	e := newTestEngine(t)
	raw := buildMinimalFile(1)

	first, err := e.CreateCheckpoint("first", raw)
	require.NoError(t, err)

	second, err := e.CreateCheckpoint("first-again", raw)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Name, second.Name, "idempotent re-checkpoint returns the existing record unchanged")

	checkpoints, err := e.ListCheckpoints(model.MainBranchName)
	require.NoError(t, err)
	assert.Len(t, checkpoints, 1)
}

func TestCreateCheckpointChainsParents(t *testing.T) {
	e := newTestEngine(t)

	first, err := e.CreateCheckpoint("v1", buildMinimalFile(1))
	require.NoError(t, err)

	second, err := e.CreateCheckpoint("v2", buildMinimalFile(2))
	require.NoError(t, err)

	require.NotNil(t, second.Parent)
	assert.Equal(t, first.ID, *second.Parent)

	checkpoints, err := e.ListCheckpoints(model.MainBranchName)
	require.NoError(t, err)
	require.Len(t, checkpoints, 2)
	assert.Equal(t, second.ID, checkpoints[0].ID, "list_checkpoints returns newest first")
}

func TestRestoreCheckpointMovesCurrentWithoutNewCheckpoint(t *testing.T) {
	e := newTestEngine(t)

	first, err := e.CreateCheckpoint("v1", buildMinimalFile(1))
	require.NoError(t, err)
	_, err = e.CreateCheckpoint("v2", buildMinimalFile(2))
	require.NoError(t, err)

	raw, err := e.RestoreCheckpoint(first.ID)
	require.NoError(t, err)
	assert.Equal(t, buildMinimalFile(1), raw)

	current, _, err := e.CurrentState()
	require.NoError(t, err)
	require.NotNil(t, current.CheckpointHash)
	assert.Equal(t, first.ID, *current.CheckpointHash)

	checkpoints, err := e.ListCheckpoints(model.MainBranchName)
	require.NoError(t, err)
	assert.Len(t, checkpoints, 2, "restore must not create a new checkpoint")
}

func TestRestoreCheckpointSwitchesToOwningBranch(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.CreateCheckpoint("v1", buildMinimalFile(1))
	require.NoError(t, err)

	_, err = e.CreateBranch("feature")
	require.NoError(t, err)
	_, err = e.SwitchBranch("feature")
	require.NoError(t, err)

	v2, err := e.CreateCheckpoint("v2", buildMinimalFile(2))
	require.NoError(t, err)

	_, err = e.SwitchBranch(model.MainBranchName)
	require.NoError(t, err)

	_, err = e.RestoreCheckpoint(v2.ID)
	require.NoError(t, err)

	current, name, err := e.CurrentState()
	require.NoError(t, err)
	assert.Equal(t, "feature", name, "restoring a checkpoint checks out its owning branch")
	require.NotNil(t, current.CheckpointHash)
	assert.Equal(t, v2.ID, *current.CheckpointHash)
}

func TestBranchCreateSwitchDelete(t *testing.T) {
	e := newTestEngine(t)

	cp, err := e.CreateCheckpoint("v1", buildMinimalFile(1))
	require.NoError(t, err)

	branch, err := e.CreateBranch("feature")
	require.NoError(t, err)
	require.NotNil(t, branch.Tip)
	assert.Equal(t, cp.ID, *branch.Tip)

	current, err := e.SwitchBranch("feature")
	require.NoError(t, err)
	assert.Equal(t, branch.ID, current.BranchID)

	_, name, err := e.CurrentState()
	require.NoError(t, err)
	assert.Equal(t, "feature", name)

	err = e.DeleteBranch("feature")
	assert.True(t, vcserrors.Is(err, vcserrors.Forbidden), "cannot delete the checked-out branch")

	_, err = e.SwitchBranch(model.MainBranchName)
	require.NoError(t, err)
	require.NoError(t, e.DeleteBranch("feature"))
}

func TestDeleteBranchForbidsMain(t *testing.T) {
	e := newTestEngine(t)
	err := e.DeleteBranch(model.MainBranchName)
	assert.True(t, vcserrors.Is(err, vcserrors.Forbidden))
}

func TestAncestorsDetectsBoundedChain(t *testing.T) {
	e := newTestEngine(t)

	first, err := e.CreateCheckpoint("v1", buildMinimalFile(1))
	require.NoError(t, err)
	second, err := e.CreateCheckpoint("v2", buildMinimalFile(2))
	require.NoError(t, err)
	third, err := e.CreateCheckpoint("v3", buildMinimalFile(3))
	require.NoError(t, err)

	chain, err := e.Ancestors(third.ID)
	require.NoError(t, err)
	require.Len(t, chain, 3)
	assert.Equal(t, third.ID, chain[0].ID)
	assert.Equal(t, second.ID, chain[1].ID)
	assert.Equal(t, first.ID, chain[2].ID)
}
