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

// Package errors defines the sentinel and typed errors shared across treestore.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidShardName is returned when a shard name contains invalid characters.
	// A valid name must consist of only alphanumeric characters ([a-zA-Z0-9]), with optional
	// hyphens or underscores that are not leading.
	ErrInvalidShardName = errors.New("invalid shard name, must contain only word characters (i.e. [a-zA-Z0-9] plus non-leading '-' or '_')")

	// ErrShardNotReady is returned when a shard is still recovering its journal
	// and cannot accept externally-originated commands yet. Callers may retry.
	ErrShardNotReady = errors.New("shard is recovering and not ready")

	// ErrShardFailed indicates that the shard escalated a fatal fault and refuses further work.
	ErrShardFailed = errors.New("shard has failed")

	// ErrShardStopped indicates that the shard has been stopped.
	ErrShardStopped = errors.New("shard is stopped")

	// ErrShardNotFound is returned when the requested shard is not registered with the manager.
	ErrShardNotFound = errors.New("shard not found")

	// ErrShardExists is returned when adding a shard under a name that is already taken.
	ErrShardExists = errors.New("shard already exists")

	// ErrCommitInFlight is returned when a commit is forwarded while an identical
	// modification is already pending on the same shard.
	ErrCommitInFlight = errors.New("an identical commit is already in flight")

	// ErrCommitNotPending is returned when a commit acknowledgment references a key
	// that is no longer in the pending-commit table.
	ErrCommitNotPending = errors.New("commit is not pending")

	// ErrTransactionSealed is returned when a transaction is mutated after it has been readied.
	ErrTransactionSealed = errors.New("transaction is sealed")

	// ErrTransactionClosed is returned when a closed transaction is used.
	ErrTransactionClosed = errors.New("transaction is closed")

	// ErrChainBusy is returned when a new chained transaction is requested before the
	// previous one has been readied or closed.
	ErrChainBusy = errors.New("previous chained transaction is still open")

	// ErrChainClosed is returned when a closed transaction chain is used.
	ErrChainClosed = errors.New("transaction chain is closed")

	// ErrHandleExists is returned when a handle identifier is already registered with the shard.
	ErrHandleExists = errors.New("handle already exists")

	// ErrHandleRetired is returned when a handle is used after it has forwarded its
	// commit or has been closed.
	ErrHandleRetired = errors.New("handle is retired")

	// ErrMissingSchema is returned when a schema handle is required but not provided.
	ErrMissingSchema = errors.New("schema is required")

	// ErrMissingListener is returned when a listener is required but not provided.
	ErrMissingListener = errors.New("listener is required")

	// ErrInvalidPath is returned when a data-tree path is malformed.
	ErrInvalidPath = errors.New("invalid path")

	// ErrUnsupportedCodecVersion is returned when a modification encoding carries
	// an unknown format version.
	ErrUnsupportedCodecVersion = errors.New("unsupported modification encoding version")

	// ErrUnknownOperation is returned when a modification encoding carries an
	// unknown operation kind.
	ErrUnknownOperation = errors.New("unknown modification operation")

	// ErrCorruptedModification is returned when a modification encoding is
	// truncated or otherwise malformed.
	ErrCorruptedModification = errors.New("corrupted modification encoding")

	// ErrCorruptedEnvelope is returned when a journaled persistence envelope is
	// truncated or otherwise malformed.
	ErrCorruptedEnvelope = errors.New("corrupted persistence envelope")

	// ErrMissingCommand is returned when a nil command is submitted to a shard.
	ErrMissingCommand = errors.New("command is required")

	// ErrJournalNotConnected is returned when the journal store is used before Connect
	// or after Disconnect.
	ErrJournalNotConnected = errors.New("journal store is not connected")

	// ErrInvalidEntity is returned when an ownership entity misses its type or identifier.
	ErrInvalidEntity = errors.New("entity type and identifier are required")

	// ErrCandidateAlreadyRegistered is returned when this process has already registered
	// a candidate for the entity.
	ErrCandidateAlreadyRegistered = errors.New("candidate is already registered")

	// ErrOwnershipClosed is returned when the entity ownership service has been closed.
	ErrOwnershipClosed = errors.New("entity ownership service is closed")

	// ErrAlreadyJoined is returned when a membership join is attempted twice.
	ErrAlreadyJoined = errors.New("membership has already joined the cluster")

	// ErrNotJoined is returned when membership features are used before joining the cluster.
	ErrNotJoined = errors.New("membership has not joined the cluster")
)

// PanicError defines the panic error
// wrapping the underlying error
type PanicError struct {
	err error
}

// enforce compilation error
var _ error = (*PanicError)(nil)

// NewPanicError creates an instance of PanicError
func NewPanicError(err error) *PanicError {
	return &PanicError{err}
}

// Error implements the standard error interface
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.err)
}

func (e *PanicError) Unwrap() error {
	return e.err
}

// CommitError is returned when a forwarded commit fails to apply.
// The commit key fingerprint identifies the failed modification in logs.
type CommitError struct {
	fingerprint uint64
	err         error
}

// enforce compilation error
var _ error = (*CommitError)(nil)

// NewCommitError creates an instance of CommitError
func NewCommitError(fingerprint uint64, err error) *CommitError {
	return &CommitError{
		fingerprint: fingerprint,
		err:         err,
	}
}

// Error implements the standard error interface
func (e *CommitError) Error() string {
	return fmt.Sprintf("commit failed (key=%016x): %v", e.fingerprint, e.err)
}

func (e *CommitError) Unwrap() error {
	return e.err
}

// Fingerprint returns the commit key fingerprint of the failed modification.
func (e *CommitError) Fingerprint() uint64 {
	return e.fingerprint
}

// CandidateAlreadyRegisteredError is returned when a process registers a second
// candidate for the same entity. It matches ErrCandidateAlreadyRegistered.
type CandidateAlreadyRegisteredError struct {
	entity string
	err    error
}

// enforce compilation error
var _ error = (*CandidateAlreadyRegisteredError)(nil)

// NewCandidateAlreadyRegisteredError creates an instance of CandidateAlreadyRegisteredError
func NewCandidateAlreadyRegisteredError(entity string) *CandidateAlreadyRegisteredError {
	return &CandidateAlreadyRegisteredError{
		entity: entity,
		err:    fmt.Errorf("entity (%s): %w", entity, ErrCandidateAlreadyRegistered),
	}
}

// Error implements the standard error interface
func (e *CandidateAlreadyRegisteredError) Error() string {
	return e.err.Error()
}

func (e *CandidateAlreadyRegisteredError) Unwrap() error {
	return e.err
}

// Entity returns the canonical string of the entity whose candidacy already exists.
func (e *CandidateAlreadyRegisteredError) Entity() string {
	return e.entity
}

// JournalCorruptionError is returned when a journal entry fails its checksum or
// cannot be decoded during replay.
type JournalCorruptionError struct {
	journalID string
	sequence  uint64
	err       error
}

// enforce compilation error
var _ error = (*JournalCorruptionError)(nil)

// NewJournalCorruptionError creates an instance of JournalCorruptionError
func NewJournalCorruptionError(journalID string, sequence uint64, err error) *JournalCorruptionError {
	return &JournalCorruptionError{
		journalID: journalID,
		sequence:  sequence,
		err:       err,
	}
}

// Error implements the standard error interface
func (e *JournalCorruptionError) Error() string {
	return fmt.Sprintf("journal (%s) entry %d is corrupted: %v", e.journalID, e.sequence, e.err)
}

func (e *JournalCorruptionError) Unwrap() error {
	return e.err
}

// JournalID returns the identifier of the corrupted journal.
func (e *JournalCorruptionError) JournalID() string {
	return e.journalID
}

// Sequence returns the sequence number of the corrupted entry.
func (e *JournalCorruptionError) Sequence() uint64 {
	return e.sequence
}

// InvalidPathError is returned when a data-tree path cannot be parsed.
// It matches ErrInvalidPath.
type InvalidPathError struct {
	path string
	err  error
}

// enforce compilation error
var _ error = (*InvalidPathError)(nil)

// NewInvalidPathError creates an instance of InvalidPathError
func NewInvalidPathError(path, reason string) *InvalidPathError {
	return &InvalidPathError{
		path: path,
		err:  fmt.Errorf("path (%s): %s: %w", path, reason, ErrInvalidPath),
	}
}

// Error implements the standard error interface
func (e *InvalidPathError) Error() string {
	return e.err.Error()
}

func (e *InvalidPathError) Unwrap() error {
	return e.err
}

// Path returns the rejected path input.
func (e *InvalidPathError) Path() string {
	return e.path
}

// AnyError defines the any error type
// this is used to represent any error when handling a supervision directive.
type AnyError struct{}

// interface guard
var _ error = (*AnyError)(nil)

// Error implements error.
func (*AnyError) Error() string {
	return "*"
}
