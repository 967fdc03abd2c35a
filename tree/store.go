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

// Package tree defines the data-tree contracts the shard machinery runs
// against: paths, snapshots, transactions, commit cohorts and change
// notification. Engines implement these contracts; the reference in-memory
// engine lives in tree/memstore.
package tree

import "context"

// Store is a transactional data tree. Implementations serialize commits;
// reads run against immutable snapshots and never block a commit.
type Store interface {
	// NewReadWriteTransaction starts a transaction that records mutations
	// against the snapshot current at its creation.
	NewReadWriteTransaction() ReadWriteTransaction
	// NewReadOnlyTransaction starts a read-only view of the snapshot current
	// at its creation.
	NewReadOnlyTransaction() ReadOnlyTransaction
	// NewTransactionChain starts a chain of causally ordered transactions.
	NewTransactionChain() TransactionChain
	// RegisterChangeListener subscribes the listener to committed changes at
	// the given path and scope.
	RegisterChangeListener(path Path, scope ListenerScope, listener ChangeListener) (ListenerRegistration, error)
	// OnSchemaUpdated installs a new schema handle. In-flight transactions
	// keep the handle they started with.
	OnSchemaUpdated(schema Schema)
}

// ReadOnlyTransaction reads from one immutable snapshot.
type ReadOnlyTransaction interface {
	// Read returns the node at the given path, nil when absent.
	Read(ctx context.Context, path Path) (*Node, error)
	// Exists reports whether a node exists at the given path.
	Exists(ctx context.Context, path Path) (bool, error)
	// Close releases the transaction. Reads after Close fail.
	Close()
}

// ReadWriteTransaction records mutations on top of its base snapshot.
// Reads observe the transaction's own uncommitted operations.
type ReadWriteTransaction interface {
	ReadOnlyTransaction

	// Write sets the node value at the given path, creating missing ancestors.
	Write(path Path, value []byte) error
	// Merge merges the value into the node at the given path, creating it
	// when absent.
	Merge(path Path, value []byte) error
	// Delete removes the subtree rooted at the given path.
	Delete(path Path) error
	// Ready seals the transaction and hands its recorded modification to the
	// returned cohort. After Ready every mutation and a second Ready fail
	// with errors.ErrTransactionSealed.
	Ready() (CommitCohort, error)
}

// CommitCohort drives a sealed modification through the commit protocol.
// Engines that stage work use the full CanCommit, PreCommit, Commit sequence;
// Commit alone must also carry an unstaged cohort to completion.
type CommitCohort interface {
	// CanCommit validates the modification against the current tree state.
	CanCommit(ctx context.Context) error
	// PreCommit stages the validated modification.
	PreCommit(ctx context.Context) error
	// Commit makes the modification visible. It subsumes validation when the
	// staging phases were skipped.
	Commit(ctx context.Context) error
	// Abort abandons the cohort and releases whatever it staged.
	Abort(ctx context.Context) error
	// Modification returns the sealed modification the cohort carries.
	Modification() *Modification
}

// TransactionChain hands out read-write transactions one at a time, each
// reading the effects its predecessor recorded. Requesting the next
// transaction before the previous one is readied or closed fails with
// errors.ErrChainBusy; a closed chain fails with errors.ErrChainClosed.
type TransactionChain interface {
	// NewReadWriteTransaction starts the next transaction in the chain.
	NewReadWriteTransaction() (ReadWriteTransaction, error)
	// Close closes the chain. Transactions already handed out are unaffected.
	Close() error
}
