// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"database/sql"
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	sqlite3m "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/timelinedb/timeline/pkg/log"
	"github.com/timelinedb/timeline/pkg/vcserrors"
)

// supportedVersion is the schema version this binary knows how to
// read and write. A store opened at any other version is rejected
// with SchemaMismatch rather than silently misread.
const supportedVersion uint = 1

//go:embed migrations/sqlite3
var migrationFiles embed.FS

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	driver, err := sqlite3m.WithInstance(db, &sqlite3m.Config{})
	if err != nil {
		return nil, vcserrors.Wrap(vcserrors.StorageError, err, "create migration driver")
	}
	d, err := iofs.New(migrationFiles, "migrations/sqlite3")
	if err != nil {
		return nil, vcserrors.Wrap(vcserrors.StorageError, err, "load embedded migrations")
	}
	m, err := migrate.NewWithInstance("iofs", d, "sqlite3", driver)
	if err != nil {
		return nil, vcserrors.Wrap(vcserrors.StorageError, err, "init migrate instance")
	}
	return m, nil
}

// migrateUp brings a freshly-created store's schema to
// supportedVersion. Called only by CreateStore.
func migrateUp(db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}
	if err := m.Migrate(supportedVersion); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return vcserrors.Wrap(vcserrors.StorageError, err, "apply schema migrations")
	}
	return nil
}

// checkSchemaVersion verifies an existing store's schema version
// matches supportedVersion, failing SchemaMismatch otherwise. Called
// by OpenStore.
func checkSchemaVersion(db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}

	v, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return vcserrors.New(vcserrors.SchemaMismatch, "store has no schema version; it was never created with create_store")
		}
		return vcserrors.Wrap(vcserrors.StorageError, err, "read schema version")
	}

	if dirty {
		return vcserrors.Newf(vcserrors.SchemaMismatch, "store schema version %d is marked dirty", v)
	}
	if v != supportedVersion {
		return vcserrors.Newf(vcserrors.SchemaMismatch, "store schema version %d, this binary supports %d", v, supportedVersion)
	}

	log.Debugf("store schema version %d OK", v)
	return nil
}
