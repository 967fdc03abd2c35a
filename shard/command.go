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
	"time"

	"github.com/tochemey/treestore/future"
	"github.com/tochemey/treestore/tree"
)

// Command is the closed set of messages a Shard processes. The marker method
// keeps the set closed: every variant lives in this package, so the command
// loop switches over all of them exhaustively and an unknown command cannot
// be constructed by callers.
type Command interface {
	isCommand()
}

// Reply is the closed set of successful command replies returned by Ask.
type Reply interface {
	isReply()
}

// CreateTransaction opens a read-write transaction on the shard store and
// registers a TransactionHandle for it. When TransactionID is empty the shard
// generates one.
type CreateTransaction struct {
	TransactionID string
}

// TransactionCreated is the reply to CreateTransaction.
type TransactionCreated struct {
	Handle *TransactionHandle
}

// CreateTransactionChain opens a transaction chain on the shard store and
// registers a TransactionChainHandle for it.
type CreateTransactionChain struct{}

// TransactionChainCreated is the reply to CreateTransactionChain.
type TransactionChainCreated struct {
	Handle *TransactionChainHandle
}

// ForwardCommit submits a readied transaction's accumulated modification and
// its commit cohort to the shard commit pipeline. The modification's canonical
// encoding is the commit key: an identical modification already in flight is
// rejected with errors.ErrCommitInFlight.
type ForwardCommit struct {
	Modification *tree.Modification
	Cohort       tree.CommitCohort
}

// CommitResult is the reply to a ForwardCommit once the commit has been
// journaled (persistent shards) and applied.
type CommitResult struct{}

// RegisterChangeListener registers a change listener with the shard store at
// the given path and scope. It fails with errors.ErrMissingSchema until a
// schema has been loaded.
type RegisterChangeListener struct {
	Path     tree.Path
	Scope    tree.ListenerScope
	Listener tree.ChangeListener
}

// ListenerRegistered is the reply to RegisterChangeListener.
type ListenerRegistered struct {
	Registration *ListenerRegistrationHandle
}

// UpdateSchema replaces the shard schema and propagates it to the store and
// to every live change-listener proxy. Fire-and-forget: submit it with Tell.
// When asked instead the future resolves with a nil reply once applied.
// Schema updates are accepted even while the shard is still recovering.
type UpdateSchema struct {
	Schema tree.Schema
}

func (*CreateTransaction) isCommand()      {}
func (*CreateTransactionChain) isCommand() {}
func (*ForwardCommit) isCommand()          {}
func (*RegisterChangeListener) isCommand() {}
func (*UpdateSchema) isCommand()           {}

func (*TransactionCreated) isReply()      {}
func (*TransactionChainCreated) isReply() {}
func (*CommitResult) isReply()            {}
func (*ListenerRegistered) isReply()      {}

// appendAck re-enters the loop when the journal appender has written (or
// failed to write) a commit envelope. It carries the original requester so
// the eventual reply reaches the caller that forwarded the commit.
type appendAck struct {
	key     string
	err     error
	replyTo future.Completable[Reply]
}

// commitDone re-enters the loop when a cohort commit dispatched to a worker
// goroutine has finished. panicked marks a commit that blew up instead of
// returning, which escalates the shard on top of failing the caller.
type commitDone struct {
	key      string
	since    time.Time
	err      error
	panicked bool
	replyTo  future.Completable[Reply]
}

// applyRecovered re-enters the loop for every journal entry decoded during
// recovery.
type applyRecovered struct {
	key          string
	modification *tree.Modification
	sequence     uint64
}

// recoveryComplete re-enters the loop once the journal replay has finished.
type recoveryComplete struct {
	err     error
	started time.Time
}

func (*appendAck) isCommand()        {}
func (*commitDone) isCommand()       {}
func (*applyRecovered) isCommand()   {}
func (*recoveryComplete) isCommand() {}
