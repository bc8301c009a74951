// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/timelinedb/timeline/pkg/model"
	"github.com/timelinedb/timeline/pkg/vcserrors"
)

type branchRow struct {
	ID      string         `db:"id"`
	Name    string         `db:"name"`
	TipHash sql.NullString `db:"tip_hash"`
}

func (r branchRow) toModel() model.Branch {
	b := model.Branch{ID: r.ID, Name: r.Name}
	if r.TipHash.Valid {
		b.Tip = &r.TipHash.String
	}
	return b
}

// CreateBranch creates a new branch pointing at tip (nil for an empty
// branch). Fails Conflict if the name is already taken: branch names
// are unique.
func (s *Store) CreateBranch(name string, tip *string) (model.Branch, error) {
	var exists int
	if err := s.conn.DB.Get(&exists, `SELECT COUNT(*) FROM branches WHERE name = ?`, name); err != nil {
		return model.Branch{}, vcserrors.Wrap(vcserrors.StorageError, err, "check branch name")
	}
	if exists > 0 {
		return model.Branch{}, vcserrors.Newf(vcserrors.Conflict, "branch %q already exists", name)
	}

	b := model.Branch{ID: uuid.NewString(), Name: name, Tip: tip}
	if _, err := s.conn.DB.Exec(`INSERT INTO branches (id, name, tip_hash) VALUES (?, ?, ?)`, b.ID, b.Name, b.Tip); err != nil {
		return model.Branch{}, vcserrors.Wrap(vcserrors.StorageError, err, "insert branch")
	}
	return b, nil
}

// GetBranchByName fetches a branch by its unique name. NotFound if no
// such branch exists.
func (s *Store) GetBranchByName(name string) (model.Branch, error) {
	var row branchRow
	err := s.conn.DB.Get(&row, `SELECT id, name, tip_hash FROM branches WHERE name = ?`, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Branch{}, vcserrors.Newf(vcserrors.NotFound, "branch %q not found", name)
		}
		return model.Branch{}, vcserrors.Wrap(vcserrors.StorageError, err, "get branch")
	}
	return row.toModel(), nil
}

// GetBranchByID fetches a branch by its internal id. NotFound if no
// such branch exists; used internally when resolving current state.
func (s *Store) GetBranchByID(id string) (model.Branch, error) {
	var row branchRow
	err := s.conn.DB.Get(&row, `SELECT id, name, tip_hash FROM branches WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Branch{}, vcserrors.Newf(vcserrors.NotFound, "branch %s not found", id)
		}
		return model.Branch{}, vcserrors.Wrap(vcserrors.StorageError, err, "get branch")
	}
	return row.toModel(), nil
}

// ListBranches returns every branch, ordered by name.
func (s *Store) ListBranches() ([]model.Branch, error) {
	var rows []branchRow
	if err := s.conn.DB.Select(&rows, `SELECT id, name, tip_hash FROM branches ORDER BY name ASC`); err != nil {
		return nil, vcserrors.Wrap(vcserrors.StorageError, err, "list branches")
	}
	out := make([]model.Branch, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out, nil
}

// SetBranchTip updates a branch's tip checkpoint, as part of the
// transaction that records a new checkpoint on it.
func (s *Store) SetBranchTip(tx *Transaction, branchID string, tip *string) error {
	if _, err := tx.tx.Exec(`UPDATE branches SET tip_hash = ? WHERE id = ?`, tip, branchID); err != nil {
		return vcserrors.Wrap(vcserrors.StorageError, err, "update branch tip")
	}
	return nil
}

// DeleteBranch removes a branch and every checkpoint it owns. Fails
// Forbidden if it is the "main" branch, if it is the branch the store
// currently has checked out, or if it is the last remaining branch (a
// store always has at least one branch). Checkpoints are deleted with
// a raw statement rather than DeleteCheckpoint, since that helper
// enforces "no children, not a tip" invariants that don't apply when
// the whole branch — tip and all — is going away; the foreign key from
// checkpoints.branch_id would otherwise reject the branch row's
// removal. The branch's own tip is cleared first so that its
// tip_hash foreign key does not reject the checkpoint delete.
func (s *Store) DeleteBranch(name string) error {
	if name == model.MainBranchName {
		return vcserrors.Newf(vcserrors.Forbidden, "cannot delete branch %q", model.MainBranchName)
	}

	branch, err := s.GetBranchByName(name)
	if err != nil {
		return err
	}

	current, err := s.GetCurrent()
	if err != nil {
		return err
	}
	if current.BranchID == branch.ID {
		return vcserrors.Newf(vcserrors.Forbidden, "cannot delete checked-out branch %q", name)
	}

	var count int
	if err := s.conn.DB.Get(&count, `SELECT COUNT(*) FROM branches`); err != nil {
		return vcserrors.Wrap(vcserrors.StorageError, err, "count branches")
	}
	if count <= 1 {
		return vcserrors.New(vcserrors.Forbidden, "cannot delete the only remaining branch")
	}

	tx, err := s.Transaction()
	if err != nil {
		return err
	}

	if _, err := tx.tx.Exec(`UPDATE branches SET tip_hash = NULL WHERE id = ?`, branch.ID); err != nil {
		tx.Rollback()
		return vcserrors.Wrap(vcserrors.StorageError, err, "clear branch tip")
	}

	if _, err := tx.tx.Exec(`DELETE FROM checkpoints WHERE branch_id = ?`, branch.ID); err != nil {
		tx.Rollback()
		return vcserrors.Wrap(vcserrors.StorageError, err, "delete branch checkpoints")
	}

	if _, err := tx.tx.Exec(`DELETE FROM branches WHERE id = ?`, branch.ID); err != nil {
		tx.Rollback()
		return vcserrors.Wrap(vcserrors.StorageError, err, "delete branch")
	}

	return tx.Commit()
}
