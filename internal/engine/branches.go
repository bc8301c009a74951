// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package engine

import (
	"github.com/timelinedb/timeline/pkg/model"
	"github.com/timelinedb/timeline/pkg/vcserrors"
)

// ListCheckpoints returns every checkpoint on branch, newest first.
func (e *Engine) ListCheckpoints(branchName string) ([]model.Checkpoint, error) {
	branch, err := e.store.GetBranchByName(branchName)
	if err != nil {
		return nil, err
	}
	return e.store.ListCheckpoints(branch.ID)
}

// ListBranches returns every branch in the store.
func (e *Engine) ListBranches() ([]model.Branch, error) {
	return e.store.ListBranches()
}

// CreateBranch creates a new branch with the given name, forked from
// the current checkpoint (the checked-out branch's tip unless an older
// checkpoint has been restored since). The current state stays on the
// previously checked-out branch.
func (e *Engine) CreateBranch(name string) (model.Branch, error) {
	current, err := e.store.GetCurrent()
	if err != nil {
		return model.Branch{}, err
	}
	return e.store.CreateBranch(name, current.CheckpointHash)
}

// SwitchBranch moves the current working state to branch name's tip.
// Fails NotFound if no such branch exists.
func (e *Engine) SwitchBranch(name string) (model.CurrentState, error) {
	branch, err := e.store.GetBranchByName(name)
	if err != nil {
		return model.CurrentState{}, err
	}

	cs := model.CurrentState{BranchID: branch.ID, CheckpointHash: branch.Tip}
	if err := e.store.SetCurrentDirect(cs); err != nil {
		return model.CurrentState{}, err
	}
	return cs, nil
}

// DeleteBranch removes branch name. Fails Forbidden if it is the
// checked-out branch, the "main" branch, or the store's last branch.
func (e *Engine) DeleteBranch(name string) error {
	if name == model.MainBranchName {
		return vcserrors.Newf(vcserrors.Forbidden, "cannot delete branch %q", model.MainBranchName)
	}
	return e.store.DeleteBranch(name)
}

// CurrentState reports which branch is checked out and which
// checkpoint, if any, the working snapshot reflects, resolved to
// human-readable names rather than internal ids.
func (e *Engine) CurrentState() (model.CurrentState, string, error) {
	current, err := e.store.GetCurrent()
	if err != nil {
		return model.CurrentState{}, "", err
	}
	branch, err := e.store.GetBranchByID(current.BranchID)
	if err != nil {
		return model.CurrentState{}, "", err
	}
	return current, branch.Name, nil
}
