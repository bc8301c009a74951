// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/qustavo/sqlhooks/v2"

	"github.com/timelinedb/timeline/pkg/vcserrors"
)

// DBConnection wraps the single connection a Store keeps open on its
// backing SQLite file. Unlike a long-running server handling many
// concurrent callers, a timeline store is opened once per process per
// project file: there is no package-level singleton here,
// every Store owns its own connection.
type DBConnection struct {
	DB *sqlx.DB
}

var hookDriverRegistered bool

// connect opens path as a SQLite-backed store connection. Opening
// sqlite3 through sqlhooks wraps every query with debug-level timing
// instrumentation (see hooks.go). SQLite does not benefit from more
// than one open connection — extra connections just contend for the
// same file lock — so MaxOpenConns is pinned to 1, matching SQLite's
// single-writer model.
func connect(path string) (*DBConnection, error) {
	if !hookDriverRegistered {
		sql.Register("sqlite3WithHooks", sqlhooks.Wrap(&sqlite3.SQLiteDriver{}, &Hooks{}))
		hookDriverRegistered = true
	}

	db, err := sqlx.Open("sqlite3WithHooks", fmt.Sprintf("%s?_foreign_keys=on", path))
	if err != nil {
		return nil, vcserrors.Wrap(vcserrors.StorageError, err, "open store")
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, vcserrors.Wrap(vcserrors.StorageError, err, "set journal mode")
	}

	return &DBConnection{DB: db}, nil
}

func (c *DBConnection) Close() error {
	return c.DB.Close()
}
