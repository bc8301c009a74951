// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"

	"github.com/timelinedb/timeline/pkg/model"
	"github.com/timelinedb/timeline/pkg/vcserrors"
)

var sq = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

// HasBlock reports whether a block with the given content hash is
// already stored, without fetching its payload. The engine does not
// call it when creating a checkpoint: InsertBlocks skips hashes that
// are already present on its own.
func (s *Store) HasBlock(hash string) (bool, error) {
	var count int
	err := sq.Select("COUNT(*)").From("blocks").Where(squirrel.Eq{"hash": hash}).
		RunWith(s.conn.DB).QueryRow().Scan(&count)
	if err != nil {
		return false, vcserrors.Wrap(vcserrors.StorageError, err, "check block existence")
	}
	return count > 0, nil
}

// InsertBlock stores a block's content if it isn't already present.
// Blocks are content-addressed, so inserting the same hash twice is a
// no-op rather than an error.
func (s *Store) InsertBlock(tx *Transaction, b model.Block) error {
	query, args, err := sq.Insert("blocks").
		Columns("hash", "code", "sdna_index", "count", "payload").
		Values(b.Hash, b.Header.Code, b.Header.SDNAIndex, b.Header.Count, b.Payload).
		Suffix("ON CONFLICT(hash) DO NOTHING").
		ToSql()
	if err != nil {
		return vcserrors.Wrap(vcserrors.StorageError, err, "build block insert")
	}

	if _, err := tx.tx.Exec(query, args...); err != nil {
		return vcserrors.Wrap(vcserrors.StorageError, err, "insert block")
	}
	return nil
}

// InsertBlocks stores a batch of blocks in a single prepared
// statement via TransactionAdd, rather than one Prepare per block, for
// the per-checkpoint block set CreateCheckpoint writes.
func (s *Store) InsertBlocks(tx *Transaction, blocks []model.Block) error {
	if len(blocks) == 0 {
		return nil
	}

	query, _, err := sq.Insert("blocks").
		Columns("hash", "code", "sdna_index", "count", "payload").
		Values(blocks[0].Hash, blocks[0].Header.Code, blocks[0].Header.SDNAIndex, blocks[0].Header.Count, blocks[0].Payload).
		Suffix("ON CONFLICT(hash) DO NOTHING").
		ToSql()
	if err != nil {
		return vcserrors.Wrap(vcserrors.StorageError, err, "build block insert")
	}

	args := make([][]interface{}, len(blocks))
	for i, b := range blocks {
		args[i] = []interface{}{b.Hash, b.Header.Code, b.Header.SDNAIndex, b.Header.Count, b.Payload}
	}
	return tx.TransactionAdd(query, args)
}

// GetBlock fetches a block's full content by hash. Returns
// CorruptStore, not NotFound, if the hash is absent: every hash a
// checkpoint names must have had a matching InsertBlock call, so a
// missing block means the store itself is inconsistent rather than
// the caller passing a bad hash.
func (s *Store) GetBlock(hash string) (model.Block, error) {
	row := struct {
		Hash      string `db:"hash"`
		Code      string `db:"code"`
		SDNAIndex int32  `db:"sdna_index"`
		Count     int32  `db:"count"`
		Payload   []byte `db:"payload"`
	}{}

	query, args, err := sq.Select("hash", "code", "sdna_index", "count", "payload").
		From("blocks").Where(squirrel.Eq{"hash": hash}).ToSql()
	if err != nil {
		return model.Block{}, vcserrors.Wrap(vcserrors.StorageError, err, "build block query")
	}

	if err := s.conn.DB.Get(&row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Block{}, vcserrors.Newf(vcserrors.CorruptStore, "referenced block %s missing from store", hash)
		}
		return model.Block{}, vcserrors.Wrap(vcserrors.StorageError, err, "get block")
	}

	return model.Block{
		Hash: row.Hash,
		Header: model.BlockHeader{
			Code:       row.Code,
			SDNAIndex:  row.SDNAIndex,
			Count:      row.Count,
			PayloadLen: int32(len(row.Payload)),
		},
		Payload: row.Payload,
	}, nil
}
