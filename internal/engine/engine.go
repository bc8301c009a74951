// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package engine implements the checkpoint and branch operations on
// top of internal/repository and internal/blockcodec: the parts of
// the system that need more than one table touched atomically, or a
// graph walk over the checkpoint ancestry forest.
package engine

import (
	"time"

	"github.com/timelinedb/timeline/internal/blockcodec"
	"github.com/timelinedb/timeline/internal/hasher"
	"github.com/timelinedb/timeline/internal/repository"
	"github.com/timelinedb/timeline/pkg/log"
	"github.com/timelinedb/timeline/pkg/model"
	"github.com/timelinedb/timeline/pkg/vcserrors"
)

// Engine wraps a store handle with the higher-level operations a
// caller actually invokes: create/restore/export checkpoint,
// branch management, and the current-state query.
type Engine struct {
	store *repository.Store
}

func New(store *repository.Store) *Engine {
	return &Engine{store: store}
}

// CreateCheckpoint parses raw host file bytes, deduplicates their
// blocks against the store, and records a new checkpoint on the
// currently checked-out branch, advancing its tip and the current
// state to the new checkpoint. If raw hashes to a
// checkpoint that already exists anywhere in the store, the call is a
// no-op that returns the existing checkpoint (idempotency invariant).
func (e *Engine) CreateCheckpoint(name string, raw []byte) (model.Checkpoint, error) {
	id := checkpointID(raw)
	if existing, err := e.store.GetCheckpoint(id); err == nil {
		log.Debugf("checkpoint %s already exists, skipping re-parse", id)
		return existing, nil
	} else if vcserrors.KindOf(err) != vcserrors.NotFound {
		return model.Checkpoint{}, err
	}

	parsed, err := blockcodec.Parse(raw)
	if err != nil {
		return model.Checkpoint{}, err
	}

	current, err := e.store.GetCurrent()
	if err != nil {
		return model.Checkpoint{}, err
	}

	cp := model.Checkpoint{
		ID:        id,
		Name:      name,
		Parent:    current.CheckpointHash,
		BranchID:  current.BranchID,
		CreatedAt: time.Now(),
		Header:    parsed.Header.Bytes(),
		Blocks:    make([]model.BlockRef, len(parsed.Entries)),
	}
	for i, entry := range parsed.Entries {
		cp.Blocks[i] = entry.Ref
	}

	tx, err := e.store.Transaction()
	if err != nil {
		return model.Checkpoint{}, err
	}

	blocks := make([]model.Block, len(parsed.Entries))
	for i, entry := range parsed.Entries {
		blocks[i] = entry.Block
	}
	if err := e.store.InsertBlocks(tx, blocks); err != nil {
		tx.Rollback()
		return model.Checkpoint{}, err
	}

	if _, err := e.store.InsertCheckpoint(tx, cp); err != nil {
		tx.Rollback()
		return model.Checkpoint{}, err
	}

	if err := e.store.SetBranchTip(tx, current.BranchID, &cp.ID); err != nil {
		tx.Rollback()
		return model.Checkpoint{}, err
	}

	if err := e.store.SetCurrent(tx, model.CurrentState{BranchID: current.BranchID, CheckpointHash: &cp.ID}); err != nil {
		tx.Rollback()
		return model.Checkpoint{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.Checkpoint{}, err
	}

	return cp, nil
}

// checkpointID is the content hash a checkpoint is identified by. It
// is computed over the original pre-parse bytes, so re-submitting
// byte-identical input always resolves to the same checkpoint without
// re-parsing it (CreateCheckpoint short-circuits on it above).
func checkpointID(raw []byte) string {
	return hasher.HashFile(raw)
}
