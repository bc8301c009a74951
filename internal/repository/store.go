// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package repository is the persistence layer of a timeline store: a
// single SQLite file holding deduplicated content-addressed blocks,
// checkpoints, branches and the current working state.
package repository

import (
	"os"

	"github.com/google/uuid"

	"github.com/timelinedb/timeline/pkg/model"
	"github.com/timelinedb/timeline/pkg/vcserrors"
)

// Store is a handle on one timeline database file. All operations on
// it are synchronous and serialized through its single connection.
type Store struct {
	conn *DBConnection
	path string
}

// CreateStore creates a brand-new timeline database at path. It fails
// Conflict if a file already exists there. A freshly created store
// has its schema migrated to the current version and seeds a single
// "main" branch with an empty current state, so create_checkpoint can
// be called immediately afterwards.
func CreateStore(path string) (*Store, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, vcserrors.Newf(vcserrors.Conflict, "store already exists at %s", path)
	} else if !os.IsNotExist(err) {
		return nil, vcserrors.Wrap(vcserrors.StorageError, err, "stat store path")
	}

	conn, err := connect(path)
	if err != nil {
		return nil, err
	}

	if err := migrateUp(conn.DB.DB); err != nil {
		conn.Close()
		os.Remove(path)
		return nil, err
	}

	store := &Store{conn: conn, path: path}
	if err := store.seedMainBranch(); err != nil {
		conn.Close()
		os.Remove(path)
		return nil, err
	}

	return store, nil
}

// OpenStore opens an existing timeline database at path. It fails
// NotFound if no file exists there, and SchemaMismatch if the file's
// schema version is not one this binary can read.
func OpenStore(path string) (*Store, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, vcserrors.Newf(vcserrors.NotFound, "no store at %s", path)
	} else if err != nil {
		return nil, vcserrors.Wrap(vcserrors.StorageError, err, "stat store path")
	}

	conn, err := connect(path)
	if err != nil {
		return nil, err
	}

	if err := checkSchemaVersion(conn.DB.DB); err != nil {
		conn.Close()
		return nil, err
	}

	return &Store{conn: conn, path: path}, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// seedMainBranch creates the store's one distinguished branch. Its
// name is always model.MainBranchName: every store must have exactly
// one branch called "main", so this is never configurable.
func (s *Store) seedMainBranch() error {
	branch := model.Branch{
		ID:   uuid.NewString(),
		Name: model.MainBranchName,
	}

	tx, err := s.Transaction()
	if err != nil {
		return err
	}

	if _, err := tx.tx.Exec(`INSERT INTO branches (id, name, tip_hash) VALUES (?, ?, NULL)`, branch.ID, branch.Name); err != nil {
		tx.Rollback()
		return vcserrors.Wrap(vcserrors.StorageError, err, "seed main branch")
	}

	if _, err := tx.tx.Exec(`INSERT INTO current (id, branch_id, checkpoint_hash) VALUES (0, ?, NULL)`, branch.ID); err != nil {
		tx.Rollback()
		return vcserrors.Wrap(vcserrors.StorageError, err, "seed current state")
	}

	return tx.Commit()
}
