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

// Package memstore is the reference in-memory data-tree engine. Snapshots are
// immutable copy-on-write trees; commits replace the current snapshot under a
// mutex while readers keep working on the snapshot they started with.
package memstore

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/atomic"

	gerrors "github.com/tochemey/treestore/errors"
	"github.com/tochemey/treestore/log"
	"github.com/tochemey/treestore/tree"
)

// snapshot pairs an immutable tree root with its version.
type snapshot struct {
	root    *tree.Node
	version uint64
}

// Store is the in-memory tree.Store implementation.
type Store struct {
	mu        sync.Mutex
	current   *atomic.Pointer[snapshot]
	schema    tree.Schema
	listeners map[uint64]*listenerRegistration
	nextID    uint64
	logger    log.Logger
}

// enforce compilation error
var _ tree.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New(opts ...Option) *Store {
	store := &Store{
		current:   atomic.NewPointer(&snapshot{}),
		listeners: make(map[uint64]*listenerRegistration),
		logger:    log.DefaultLogger,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// NewReadOnlyTransaction implements tree.Store.
func (s *Store) NewReadOnlyTransaction() tree.ReadOnlyTransaction {
	return &readOnlyTransaction{
		root:   s.current.Load().root,
		closed: atomic.NewBool(false),
	}
}

// NewReadWriteTransaction implements tree.Store.
func (s *Store) NewReadWriteTransaction() tree.ReadWriteTransaction {
	return s.newReadWriteTransaction(s.current.Load().root, nil, nil)
}

// NewTransactionChain implements tree.Store.
func (s *Store) NewTransactionChain() tree.TransactionChain {
	return &transactionChain{store: s}
}

// RegisterChangeListener implements tree.Store. The listener starts observing
// commits that become visible after registration; there is no initial replay.
func (s *Store) RegisterChangeListener(path tree.Path, scope tree.ListenerScope, listener tree.ChangeListener) (tree.ListenerRegistration, error) {
	if listener == nil {
		return nil, gerrors.ErrMissingListener
	}
	if scope < tree.ScopeBase || scope > tree.ScopeSubtree {
		return nil, fmt.Errorf("invalid listener scope (%d)", scope)
	}

	s.mu.Lock()
	s.nextID++
	registration := newListenerRegistration(s, s.nextID, path, scope, listener)
	s.listeners[registration.id] = registration
	s.mu.Unlock()

	go registration.dispatch()
	return registration, nil
}

// OnSchemaUpdated implements tree.Store.
func (s *Store) OnSchemaUpdated(schema tree.Schema) {
	if schema == nil {
		s.logger.Warn("ignoring nil schema update")
		return
	}
	s.mu.Lock()
	s.schema = schema
	s.mu.Unlock()
	s.logger.Infof("schema updated (%s)", schema.SchemaID())
}

// Schema returns the installed schema handle, nil when none was installed.
func (s *Store) Schema() tree.Schema {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schema
}

// ApplyModification applies a decoded modification directly, bypassing the
// transaction surface. Shard recovery replays journal payloads through it.
// Registered listeners observe the change like any committed transaction.
func (s *Store) ApplyModification(modification *tree.Modification) error {
	if modification == nil {
		return errors.New("modification is required")
	}
	s.commit(modification)
	return nil
}

// Snapshot returns the current tree root, nil while the tree is empty.
func (s *Store) Snapshot() *tree.Node {
	return s.current.Load().root
}

// Version returns the number of commits applied so far.
func (s *Store) Version() uint64 {
	return s.current.Load().version
}

// commit applies the modification onto the current snapshot, publishes the
// result and hands the old and new roots to every registration in commit
// order.
func (s *Store) commit(modification *tree.Modification) {
	s.mu.Lock()
	current := s.current.Load()
	root := current.root
	for _, op := range modification.Operations() {
		root = applyOperation(root, op)
	}
	next := &snapshot{
		root:    root,
		version: current.version + 1,
	}
	s.current.Store(next)
	for _, registration := range s.listeners {
		registration.notify(current.root, root)
	}
	s.mu.Unlock()
}

// removeListener drops a registration from the dispatch set.
func (s *Store) removeListener(id uint64) {
	s.mu.Lock()
	delete(s.listeners, id)
	s.mu.Unlock()
}
