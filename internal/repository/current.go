// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"database/sql"

	"github.com/timelinedb/timeline/pkg/model"
	"github.com/timelinedb/timeline/pkg/vcserrors"
)

// GetCurrent returns the store's single current-state row: which
// branch is checked out and which checkpoint, if any, is the working
// snapshot. Every store has exactly one such row from the moment it
// is created.
func (s *Store) GetCurrent() (model.CurrentState, error) {
	row := struct {
		BranchID       string         `db:"branch_id"`
		CheckpointHash sql.NullString `db:"checkpoint_hash"`
	}{}

	if err := s.conn.DB.Get(&row, `SELECT branch_id, checkpoint_hash FROM current WHERE id = 0`); err != nil {
		return model.CurrentState{}, vcserrors.Wrap(vcserrors.CorruptStore, err, "read current state")
	}

	cs := model.CurrentState{BranchID: row.BranchID}
	if row.CheckpointHash.Valid {
		cs.CheckpointHash = &row.CheckpointHash.String
	}
	return cs, nil
}

// SetCurrent overwrites the current-state row, either as part of a
// larger transaction (creating or restoring a checkpoint) or standalone
// (switching branches).
func (s *Store) SetCurrent(tx *Transaction, cs model.CurrentState) error {
	if _, err := tx.tx.Exec(`UPDATE current SET branch_id = ?, checkpoint_hash = ? WHERE id = 0`, cs.BranchID, cs.CheckpointHash); err != nil {
		return vcserrors.Wrap(vcserrors.StorageError, err, "update current state")
	}
	return nil
}

// SetCurrentDirect is SetCurrent outside of an existing transaction,
// for operations (switch_branch) that only ever touch this one row.
func (s *Store) SetCurrentDirect(cs model.CurrentState) error {
	if _, err := s.conn.DB.Exec(`UPDATE current SET branch_id = ?, checkpoint_hash = ? WHERE id = 0`, cs.BranchID, cs.CheckpointHash); err != nil {
		return vcserrors.Wrap(vcserrors.StorageError, err, "update current state")
	}
	return nil
}
