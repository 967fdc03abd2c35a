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

	"go.uber.org/atomic"

	gerrors "github.com/tochemey/treestore/errors"
	"github.com/tochemey/treestore/tree"
)

// readOnlyTransaction reads one immutable snapshot root.
type readOnlyTransaction struct {
	root   *tree.Node
	closed *atomic.Bool
}

// enforce compilation error
var _ tree.ReadOnlyTransaction = (*readOnlyTransaction)(nil)

// Read implements tree.ReadOnlyTransaction.
func (t *readOnlyTransaction) Read(ctx context.Context, path tree.Path) (*tree.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.closed.Load() {
		return nil, gerrors.ErrTransactionClosed
	}
	return lookup(t.root, path), nil
}

// Exists implements tree.ReadOnlyTransaction.
func (t *readOnlyTransaction) Exists(ctx context.Context, path tree.Path) (bool, error) {
	node, err := t.Read(ctx, path)
	if err != nil {
		return false, err
	}
	return node != nil, nil
}

// Close implements tree.ReadOnlyTransaction.
func (t *readOnlyTransaction) Close() {
	t.closed.Store(true)
}

// readWriteTransaction records operations on top of its base snapshot and
// mirrors them onto an effective root so its own reads observe them.
type readWriteTransaction struct {
	mu           sync.Mutex
	store        *Store
	effective    *tree.Node
	modification *tree.Modification
	sealed       bool
	closed       bool

	// chain hooks, nil outside a transaction chain
	onReady func(effective *tree.Node)
	onClose func()
}

// enforce compilation error
var _ tree.ReadWriteTransaction = (*readWriteTransaction)(nil)

func (s *Store) newReadWriteTransaction(base *tree.Node, onReady func(*tree.Node), onClose func()) *readWriteTransaction {
	return &readWriteTransaction{
		store:        s,
		effective:    base,
		modification: tree.NewModification(),
		onReady:      onReady,
		onClose:      onClose,
	}
}

// Read implements tree.ReadWriteTransaction.
func (t *readWriteTransaction) Read(ctx context.Context, path tree.Path) (*tree.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, gerrors.ErrTransactionClosed
	}
	return lookup(t.effective, path), nil
}

// Exists implements tree.ReadWriteTransaction.
func (t *readWriteTransaction) Exists(ctx context.Context, path tree.Path) (bool, error) {
	node, err := t.Read(ctx, path)
	if err != nil {
		return false, err
	}
	return node != nil, nil
}

// Write implements tree.ReadWriteTransaction.
func (t *readWriteTransaction) Write(path tree.Path, value []byte) error {
	return t.record(func() {
		t.modification.Write(path, value)
	})
}

// Merge implements tree.ReadWriteTransaction.
func (t *readWriteTransaction) Merge(path tree.Path, value []byte) error {
	return t.record(func() {
		t.modification.Merge(path, value)
	})
}

// Delete implements tree.ReadWriteTransaction.
func (t *readWriteTransaction) Delete(path tree.Path) error {
	return t.record(func() {
		t.modification.Delete(path)
	})
}

// record appends one operation and replays it onto the effective root.
func (t *readWriteTransaction) record(appendOp func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case t.closed:
		return gerrors.ErrTransactionClosed
	case t.sealed:
		return gerrors.ErrTransactionSealed
	}
	appendOp()
	operations := t.modification.Operations()
	t.effective = applyOperation(t.effective, operations[len(operations)-1])
	return nil
}

// Ready implements tree.ReadWriteTransaction.
func (t *readWriteTransaction) Ready() (tree.CommitCohort, error) {
	t.mu.Lock()
	switch {
	case t.closed:
		t.mu.Unlock()
		return nil, gerrors.ErrTransactionClosed
	case t.sealed:
		t.mu.Unlock()
		return nil, gerrors.ErrTransactionSealed
	}
	t.sealed = true
	effective := t.effective
	onReady := t.onReady
	t.mu.Unlock()

	if onReady != nil {
		onReady(effective)
	}
	return newCommitCohort(t.store, t.modification), nil
}

// Close implements tree.ReadWriteTransaction. Closing an unreadied
// transaction discards its recorded operations.
func (t *readWriteTransaction) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	abandoned := !t.sealed
	onClose := t.onClose
	t.mu.Unlock()

	if abandoned && onClose != nil {
		onClose()
	}
}
