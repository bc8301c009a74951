// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package engine

import (
	"github.com/timelinedb/timeline/pkg/model"
	"github.com/timelinedb/timeline/pkg/vcserrors"
)

// Ancestors walks a checkpoint's parent chain from id back to its
// root, in newest-to-oldest order (id included). The ancestry forest
// is single-parent by construction, but a corrupted store could still
// contain a cycle, so the walk is bounded by the store's total
// checkpoint count rather than trusting termination on a nil parent
// (CorruptStore detection).
func (e *Engine) Ancestors(id string) ([]model.Checkpoint, error) {
	bound, err := e.store.CountCheckpoints()
	if err != nil {
		return nil, err
	}

	var chain []model.Checkpoint
	seen := id
	for range make([]struct{}, bound+1) {
		cp, err := e.store.GetCheckpoint(seen)
		if err != nil {
			return nil, err
		}
		chain = append(chain, cp)
		if cp.Parent == nil {
			return chain, nil
		}
		seen = *cp.Parent
	}

	return nil, vcserrors.Newf(vcserrors.CorruptStore, "checkpoint ancestry of %s exceeds %d hops: cyclic parent chain", id, bound)
}
