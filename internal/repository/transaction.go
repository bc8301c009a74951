// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/timelinedb/timeline/pkg/vcserrors"
)

// Transaction wraps a single *sqlx.Tx so that engine-level operations
// that touch several tables (creating a checkpoint writes blocks, the
// checkpoint row and the branch tip in one go) commit or roll back
// atomically.
type Transaction struct {
	tx *sqlx.Tx
}

// Transaction opens a new transaction on the store's connection. The
// caller must Commit or Rollback it; Rollback after a successful
// Commit is a harmless no-op.
func (s *Store) Transaction() (*Transaction, error) {
	tx, err := s.conn.DB.Beginx()
	if err != nil {
		return nil, vcserrors.Wrap(vcserrors.StorageError, err, "begin transaction")
	}
	return &Transaction{tx: tx}, nil
}

func (t *Transaction) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return vcserrors.Wrap(vcserrors.StorageError, err, "commit transaction")
	}
	return nil
}

func (t *Transaction) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return vcserrors.Wrap(vcserrors.StorageError, err, "rollback transaction")
	}
	return nil
}

// TransactionAdd prepares query once and runs it for every element of
// args, each element itself being the positional-argument slice for
// one invocation.
func (t *Transaction) TransactionAdd(query string, args [][]interface{}) error {
	stmt, err := t.tx.Preparex(query)
	if err != nil {
		return vcserrors.Wrap(vcserrors.StorageError, err, "prepare statement")
	}
	defer stmt.Close()

	for _, a := range args {
		if _, err := stmt.Exec(a...); err != nil {
			return vcserrors.Wrap(vcserrors.StorageError, err, "exec statement")
		}
	}
	return nil
}

