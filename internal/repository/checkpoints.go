// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/Masterminds/squirrel"

	"github.com/timelinedb/timeline/pkg/model"
	"github.com/timelinedb/timeline/pkg/vcserrors"
)

type checkpointRow struct {
	Hash              string         `db:"hash"`
	Name              string         `db:"name"`
	ParentHash        sql.NullString `db:"parent_hash"`
	BranchID          string         `db:"branch_id"`
	CreatedAt         int64          `db:"created_at"`
	FileHeader        []byte         `db:"file_header"`
	BlocksAndPointers []byte         `db:"blocks_and_pointers"`
}

func (r checkpointRow) toModel() (model.Checkpoint, error) {
	var refs []model.BlockRef
	if err := json.Unmarshal(r.BlocksAndPointers, &refs); err != nil {
		return model.Checkpoint{}, vcserrors.Wrap(vcserrors.CorruptStore, err, "decode checkpoint block list")
	}

	cp := model.Checkpoint{
		ID:        r.Hash,
		Name:      r.Name,
		BranchID:  r.BranchID,
		CreatedAt: timeFromUnix(r.CreatedAt),
		Blocks:    refs,
	}
	if len(r.FileHeader) == len(cp.Header) {
		copy(cp.Header[:], r.FileHeader)
	}
	if r.ParentHash.Valid {
		cp.Parent = &r.ParentHash.String
	}
	return cp, nil
}

// InsertCheckpoint records a new checkpoint. Checkpoints are
// identified by the content hash of their originating file, so
// inserting one whose hash already exists is a no-op: re-checkpointing
// byte-identical content is idempotent rather than a duplicate.
func (s *Store) InsertCheckpoint(tx *Transaction, cp model.Checkpoint) (bool, error) {
	exists, err := s.checkpointExists(cp.ID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	refs := cp.Blocks
	if refs == nil {
		refs = []model.BlockRef{}
	}
	blob, err := json.Marshal(refs)
	if err != nil {
		return false, vcserrors.Wrap(vcserrors.StorageError, err, "encode checkpoint block list")
	}

	query, args, err := sq.Insert("checkpoints").
		Columns("hash", "name", "parent_hash", "branch_id", "created_at", "file_header", "blocks_and_pointers").
		Values(cp.ID, cp.Name, cp.Parent, cp.BranchID, cp.CreatedAt.Unix(), cp.Header[:], blob).
		ToSql()
	if err != nil {
		return false, vcserrors.Wrap(vcserrors.StorageError, err, "build checkpoint insert")
	}

	if _, err := tx.tx.Exec(query, args...); err != nil {
		return false, vcserrors.Wrap(vcserrors.StorageError, err, "insert checkpoint")
	}
	return true, nil
}

func (s *Store) checkpointExists(hash string) (bool, error) {
	var count int
	if err := s.conn.DB.Get(&count, `SELECT COUNT(*) FROM checkpoints WHERE hash = ?`, hash); err != nil {
		return false, vcserrors.Wrap(vcserrors.StorageError, err, "check checkpoint existence")
	}
	return count > 0, nil
}

// GetCheckpoint fetches one checkpoint by its id (content hash).
// NotFound if no such checkpoint exists.
func (s *Store) GetCheckpoint(id string) (model.Checkpoint, error) {
	var row checkpointRow
	err := s.conn.DB.Get(&row, `SELECT hash, name, parent_hash, branch_id, created_at, file_header, blocks_and_pointers FROM checkpoints WHERE hash = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Checkpoint{}, vcserrors.Newf(vcserrors.NotFound, "checkpoint %s not found", id)
		}
		return model.Checkpoint{}, vcserrors.Wrap(vcserrors.StorageError, err, "get checkpoint")
	}
	return row.toModel()
}

// ListCheckpoints returns every checkpoint reachable on branchID,
// newest first (supplemented ordering — see DESIGN.md).
func (s *Store) ListCheckpoints(branchID string) ([]model.Checkpoint, error) {
	query, args, err := sq.Select("hash", "name", "parent_hash", "branch_id", "created_at", "file_header", "blocks_and_pointers").
		From("checkpoints").Where(squirrel.Eq{"branch_id": branchID}).
		OrderBy("created_at DESC", "rowid DESC").ToSql()
	if err != nil {
		return nil, vcserrors.Wrap(vcserrors.StorageError, err, "build checkpoint list query")
	}

	var rows []checkpointRow
	if err := s.conn.DB.Select(&rows, query, args...); err != nil {
		return nil, vcserrors.Wrap(vcserrors.StorageError, err, "list checkpoints")
	}

	out := make([]model.Checkpoint, len(rows))
	for i, r := range rows {
		cp, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out[i] = cp
	}
	return out, nil
}

// DeleteCheckpoint removes a checkpoint. Fails Forbidden if another
// checkpoint still names it as parent, or if it is a branch tip,
// since both would leave the ancestry forest with a dangling edge.
func (s *Store) DeleteCheckpoint(id string) error {
	var childCount int
	if err := s.conn.DB.Get(&childCount, `SELECT COUNT(*) FROM checkpoints WHERE parent_hash = ?`, id); err != nil {
		return vcserrors.Wrap(vcserrors.StorageError, err, "count child checkpoints")
	}
	if childCount > 0 {
		return vcserrors.Newf(vcserrors.Forbidden, "checkpoint %s has descendant checkpoints", id)
	}

	var tipCount int
	if err := s.conn.DB.Get(&tipCount, `SELECT COUNT(*) FROM branches WHERE tip_hash = ?`, id); err != nil {
		return vcserrors.Wrap(vcserrors.StorageError, err, "count branches at tip")
	}
	if tipCount > 0 {
		return vcserrors.Newf(vcserrors.Forbidden, "checkpoint %s is a branch tip", id)
	}

	if _, err := s.conn.DB.Exec(`DELETE FROM checkpoints WHERE hash = ?`, id); err != nil {
		return vcserrors.Wrap(vcserrors.StorageError, err, "delete checkpoint")
	}
	return nil
}

// CountCheckpoints is used by the engine's ancestry walk to bound the
// number of parent hops before declaring the chain cyclic. See
// DESIGN.md for the CorruptStore detection rationale.
func (s *Store) CountCheckpoints() (int, error) {
	var count int
	if err := s.conn.DB.Get(&count, `SELECT COUNT(*) FROM checkpoints`); err != nil {
		return 0, vcserrors.Wrap(vcserrors.StorageError, err, "count checkpoints")
	}
	return count, nil
}
