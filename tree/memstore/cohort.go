// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package memstore

import (
	"context"
	"sync"

	gerrors "github.com/tochemey/treestore/errors"
	"github.com/tochemey/treestore/tree"
)

type cohortPhase int

const (
	cohortPending cohortPhase = iota
	cohortCommitted
	cohortAborted
)

// commitCohort drives one sealed modification to resolution. The staging
// phases are bookkeeping only in this engine; all the work happens in Commit.
type commitCohort struct {
	mu           sync.Mutex
	store        *Store
	modification *tree.Modification
	phase        cohortPhase
}

// enforce compilation error
var _ tree.CommitCohort = (*commitCohort)(nil)

func newCommitCohort(store *Store, modification *tree.Modification) *commitCohort {
	return &commitCohort{
		store:        store,
		modification: modification,
	}
}

// CanCommit implements tree.CommitCohort.
func (c *commitCohort) CanCommit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != cohortPending {
		return gerrors.ErrTransactionClosed
	}
	return nil
}

// PreCommit implements tree.CommitCohort.
func (c *commitCohort) PreCommit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != cohortPending {
		return gerrors.ErrTransactionClosed
	}
	return nil
}

// Commit implements tree.CommitCohort.
func (c *commitCohort) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != cohortPending {
		return gerrors.ErrTransactionClosed
	}
	c.store.commit(c.modification)
	c.phase = cohortCommitted
	return nil
}

// Abort implements tree.CommitCohort. Aborting twice is harmless; aborting
// a committed cohort fails.
func (c *commitCohort) Abort(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.phase {
	case cohortCommitted:
		return gerrors.ErrTransactionClosed
	case cohortAborted:
		return nil
	default:
		c.phase = cohortAborted
		return nil
	}
}

// Modification implements tree.CommitCohort.
func (c *commitCohort) Modification() *tree.Modification {
	return c.modification
}
