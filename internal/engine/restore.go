// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package engine

import (
	"github.com/timelinedb/timeline/internal/blockcodec"
	"github.com/timelinedb/timeline/pkg/model"
	"github.com/timelinedb/timeline/pkg/vcserrors"
)

// ExportCheckpoint reassembles a checkpoint's original host file
// bytes, byte-identical to what CreateCheckpoint originally consumed.
func (e *Engine) ExportCheckpoint(id string) ([]byte, error) {
	cp, err := e.store.GetCheckpoint(id)
	if err != nil {
		return nil, err
	}
	return e.assemble(cp)
}

// RestoreCheckpoint moves the current working state to checkpoint id,
// checking out id's owning branch — which may differ from whatever
// branch was previously checked out — and returns the reassembled
// file bytes. Restoring does not create a new checkpoint, it only
// repoints `current`.
func (e *Engine) RestoreCheckpoint(id string) ([]byte, error) {
	cp, err := e.store.GetCheckpoint(id)
	if err != nil {
		return nil, err
	}

	raw, err := e.assemble(cp)
	if err != nil {
		return nil, err
	}

	tx, err := e.store.Transaction()
	if err != nil {
		return nil, err
	}
	if err := e.store.SetCurrent(tx, model.CurrentState{BranchID: cp.BranchID, CheckpointHash: &cp.ID}); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return raw, nil
}

// assemble fetches every block a checkpoint references and replays
// blockcodec's Write to reproduce the original file bytes.
func (e *Engine) assemble(cp model.Checkpoint) ([]byte, error) {
	header, err := blockcodec.ParseFileHeader(cp.Header[:])
	if err != nil {
		return nil, vcserrors.Wrap(vcserrors.CorruptStore, err, "decode checkpoint file header")
	}

	entries := make([]blockcodec.Entry, len(cp.Blocks))
	for i, ref := range cp.Blocks {
		block, err := e.store.GetBlock(ref.BlockHash)
		if err != nil {
			return nil, err
		}
		entries[i] = blockcodec.Entry{Block: block, Ref: ref}
	}

	pf := &blockcodec.ParsedFile{Header: header, Entries: entries}
	raw, err := pf.Write()
	if err != nil {
		return nil, vcserrors.Wrap(vcserrors.CorruptStore, err, "reassemble checkpoint")
	}
	return raw, nil
}
