// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package command exposes the timeline store as a flat set of named
// operations: open_store, create_store, create_checkpoint,
// list_checkpoints, restore_checkpoint, export_checkpoint,
// list_branches, create_branch, switch_branch, delete_branch,
// current_state. Each is a plain Go method; dispatching them over a
// wire protocol is a caller concern outside this package.
package command

import (
	"github.com/timelinedb/timeline/internal/engine"
	"github.com/timelinedb/timeline/internal/repository"
	"github.com/timelinedb/timeline/pkg/model"
)

// Service is the entry point a frontend (CLI, RPC handler, embedding
// application) drives. It owns exactly one open store at a time.
type Service struct {
	store *repository.Store
	eng   *engine.Engine
}

// OpenStore opens an existing timeline database at path and binds
// this Service to it.
func (s *Service) OpenStore(path string) error {
	store, err := repository.OpenStore(path)
	if err != nil {
		return err
	}
	s.bind(store)
	return nil
}

// CreateStore creates a new timeline database at path and binds this
// Service to it.
func (s *Service) CreateStore(path string) error {
	store, err := repository.CreateStore(path)
	if err != nil {
		return err
	}
	s.bind(store)
	return nil
}

func (s *Service) bind(store *repository.Store) {
	s.store = store
	s.eng = engine.New(store)
}

// Close releases the bound store's connection. Safe to call on a
// Service that was never bound.
func (s *Service) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// CreateCheckpoint parses raw and records it as a new named checkpoint
// on the currently checked-out branch.
func (s *Service) CreateCheckpoint(name string, raw []byte) (model.Checkpoint, error) {
	return s.eng.CreateCheckpoint(name, raw)
}

// ListCheckpoints returns every checkpoint on branch, newest first.
func (s *Service) ListCheckpoints(branch string) ([]model.Checkpoint, error) {
	return s.eng.ListCheckpoints(branch)
}

// RestoreCheckpoint moves the current working state to checkpoint id
// and returns the reassembled host file bytes.
func (s *Service) RestoreCheckpoint(id string) ([]byte, error) {
	return s.eng.RestoreCheckpoint(id)
}

// ExportCheckpoint reassembles checkpoint id's host file bytes without
// changing the current working state.
func (s *Service) ExportCheckpoint(id string) ([]byte, error) {
	return s.eng.ExportCheckpoint(id)
}

// ListBranches returns every branch in the store.
func (s *Service) ListBranches() ([]model.Branch, error) {
	return s.eng.ListBranches()
}

// CreateBranch creates a new branch forked from the current checkpoint.
func (s *Service) CreateBranch(name string) (model.Branch, error) {
	return s.eng.CreateBranch(name)
}

// SwitchBranch checks out branch name.
func (s *Service) SwitchBranch(name string) (model.CurrentState, error) {
	return s.eng.SwitchBranch(name)
}

// DeleteBranch removes branch name.
func (s *Service) DeleteBranch(name string) error {
	return s.eng.DeleteBranch(name)
}

// CurrentState reports the checked-out branch name and, if any, the
// current checkpoint id.
func (s *Service) CurrentState() (model.CurrentState, string, error) {
	return s.eng.CurrentState()
}

// Ancestors returns checkpoint id's ancestry chain, newest to oldest.
func (s *Service) Ancestors(id string) ([]model.Checkpoint, error) {
	return s.eng.Ancestors(id)
}
