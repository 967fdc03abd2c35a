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

package shard

import (
	"context"

	"go.uber.org/atomic"

	gerrors "github.com/tochemey/treestore/errors"
	"github.com/tochemey/treestore/tree"
)

// TransactionHandle wraps one engine transaction handed out by a shard.
// Reads and writes go straight to the engine; Commit funnels the sealed
// modification through the shard commit pipeline. A handle retires on
// Commit or Abort, whichever comes first, and every call after that fails
// with errors.ErrHandleRetired.
//
// A handle is not safe for concurrent use, same as the transaction it wraps.
type TransactionHandle struct {
	id      string
	shard   *Shard
	tx      tree.ReadWriteTransaction
	retired *atomic.Bool
}

func newTransactionHandle(shard *Shard, id string, tx tree.ReadWriteTransaction) *TransactionHandle {
	return &TransactionHandle{
		id:      id,
		shard:   shard,
		tx:      tx,
		retired: atomic.NewBool(false),
	}
}

// ID returns the transaction identifier.
func (h *TransactionHandle) ID() string {
	return h.id
}

// Read returns the node at the given path, nil when absent. Reads observe
// the handle's own uncommitted writes.
func (h *TransactionHandle) Read(ctx context.Context, path tree.Path) (*tree.Node, error) {
	if h.retired.Load() {
		return nil, gerrors.ErrHandleRetired
	}
	return h.tx.Read(ctx, path)
}

// Exists reports whether a node exists at the given path.
func (h *TransactionHandle) Exists(ctx context.Context, path tree.Path) (bool, error) {
	if h.retired.Load() {
		return false, gerrors.ErrHandleRetired
	}
	return h.tx.Exists(ctx, path)
}

// Write sets the node value at the given path, creating missing ancestors.
func (h *TransactionHandle) Write(path tree.Path, value []byte) error {
	if h.retired.Load() {
		return gerrors.ErrHandleRetired
	}
	return h.tx.Write(path, value)
}

// Merge merges the value into the node at the given path.
func (h *TransactionHandle) Merge(path tree.Path, value []byte) error {
	if h.retired.Load() {
		return gerrors.ErrHandleRetired
	}
	return h.tx.Merge(path, value)
}

// Delete removes the subtree rooted at the given path.
func (h *TransactionHandle) Delete(path tree.Path) error {
	if h.retired.Load() {
		return gerrors.ErrHandleRetired
	}
	return h.tx.Delete(path)
}

// Commit seals the transaction and drives its modification through the
// shard commit pipeline, waiting for the outcome until ctx expires. The
// handle retires whether or not the commit succeeds.
func (h *TransactionHandle) Commit(ctx context.Context) error {
	if !h.retired.CompareAndSwap(false, true) {
		return gerrors.ErrHandleRetired
	}
	defer h.shard.retireHandle(transactionKey(h.id))

	cohort, err := h.tx.Ready()
	if err != nil {
		return err
	}
	_, err = h.shard.Ask(ctx, &ForwardCommit{
		Modification: cohort.Modification(),
		Cohort:       cohort,
	})
	return err
}

// Abort abandons the transaction and retires the handle.
func (h *TransactionHandle) Abort(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !h.retired.CompareAndSwap(false, true) {
		return gerrors.ErrHandleRetired
	}
	h.shard.retireHandle(transactionKey(h.id))
	h.tx.Close()
	return nil
}
