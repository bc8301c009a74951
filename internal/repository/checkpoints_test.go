// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timelinedb/timeline/pkg/model"
	"github.com/timelinedb/timeline/pkg/vcserrors"
)

func testCheckpoint(t *testing.T, store *Store, id string) model.Checkpoint {
	t.Helper()
	current, err := store.GetCurrent()
	require.NoError(t, err)

	return model.Checkpoint{
		ID:        id,
		Name:      "snapshot",
		Parent:    current.CheckpointHash,
		BranchID:  current.BranchID,
		CreatedAt: time.Now(),
		Header:    [12]byte{'B', 'L', 'E', 'N', 'D', 1, 2, 3, 8, 'v', 1, 0},
		Blocks: []model.BlockRef{
			{BlockHash: "deadbeef", HeaderOldAddress: 0x1000},
		},
	}
}

func TestInsertAndGetCheckpoint(t *testing.T) {
	store := newTestStore(t)
	cp := testCheckpoint(t, store, "cp1")

	tx, err := store.Transaction()
	require.NoError(t, err)
	inserted, err := store.InsertCheckpoint(tx, cp)
	require.NoError(t, err)
	assert.True(t, inserted)
	require.NoError(t, tx.Commit())

	got, err := store.GetCheckpoint(cp.ID)
	require.NoError(t, err)
	assert.Equal(t, cp.Name, got.Name)
	assert.Equal(t, cp.Header, got.Header)
	assert.Equal(t, cp.Blocks, got.Blocks)
}

func TestInsertCheckpointIsIdempotentOnHash(t *testing.T) {
	store := newTestStore(t)
	cp := testCheckpoint(t, store, "cp1")

	for i := 0; i < 2; i++ {
		tx, err := store.Transaction()
		require.NoError(t, err)
		inserted, err := store.InsertCheckpoint(tx, cp)
		require.NoError(t, err)
		if i == 0 {
			assert.True(t, inserted)
		} else {
			assert.False(t, inserted)
		}
		require.NoError(t, tx.Commit())
	}
}

func TestGetCheckpointNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetCheckpoint("nope")
	assert.True(t, vcserrors.Is(err, vcserrors.NotFound))
}

func TestListCheckpointsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	branch, err := store.GetBranchByName(model.MainBranchName)
	require.NoError(t, err)

	older := testCheckpoint(t, store, "older")
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := testCheckpoint(t, store, "newer")
	newer.CreatedAt = time.Now()

	tx, err := store.Transaction()
	require.NoError(t, err)
	_, err = store.InsertCheckpoint(tx, older)
	require.NoError(t, err)
	_, err = store.InsertCheckpoint(tx, newer)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	checkpoints, err := store.ListCheckpoints(branch.ID)
	require.NoError(t, err)
	require.Len(t, checkpoints, 2)
	assert.Equal(t, "newer", checkpoints[0].ID)
	assert.Equal(t, "older", checkpoints[1].ID)
}

func TestDeleteCheckpointForbidsWithDescendant(t *testing.T) {
	store := newTestStore(t)
	parent := testCheckpoint(t, store, "parent")
	tx, err := store.Transaction()
	require.NoError(t, err)
	_, err = store.InsertCheckpoint(tx, parent)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	child := testCheckpoint(t, store, "child")
	child.Parent = &parent.ID
	tx, err = store.Transaction()
	require.NoError(t, err)
	_, err = store.InsertCheckpoint(tx, child)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	err = store.DeleteCheckpoint(parent.ID)
	assert.True(t, vcserrors.Is(err, vcserrors.Forbidden))
}
