// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timelinedb/timeline/pkg/model"
	"github.com/timelinedb/timeline/pkg/vcserrors"
)

func testBlock() model.Block {
	return model.Block{
		Hash: "deadbeef",
		Header: model.BlockHeader{
			Code:       "OBJE",
			SDNAIndex:  0,
			Count:      1,
			PayloadLen: 4,
		},
		Payload: []byte{1, 2, 3, 4},
	}
}

func TestInsertAndGetBlock(t *testing.T) {
	store := newTestStore(t)
	b := testBlock()

	tx, err := store.Transaction()
	require.NoError(t, err)
	require.NoError(t, store.InsertBlock(tx, b))
	require.NoError(t, tx.Commit())

	ok, err := store.HasBlock(b.Hash)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := store.GetBlock(b.Hash)
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestInsertBlockIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	b := testBlock()

	for i := 0; i < 2; i++ {
		tx, err := store.Transaction()
		require.NoError(t, err)
		require.NoError(t, store.InsertBlock(tx, b))
		require.NoError(t, tx.Commit())
	}

	got, err := store.GetBlock(b.Hash)
	require.NoError(t, err)
	assert.Equal(t, b.Payload, got.Payload)
}

func TestGetBlockMissingIsCorruptStore(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetBlock("not-there")
	require.Error(t, err)
	assert.True(t, vcserrors.Is(err, vcserrors.CorruptStore))
}

func TestHasBlockFalseForUnknownHash(t *testing.T) {
	store := newTestStore(t)
	ok, err := store.HasBlock("unknown")
	require.NoError(t, err)
	assert.False(t, ok)
}
