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

// Package journal is the append-only commit log backing persistent shards.
// Every committed modification of a persistent shard is appended before it is
// applied, and replayed in order on recovery.
package journal

import (
	"context"

	"github.com/tochemey/treestore/internal/validation"
)

// Entry is one appended journal record.
type Entry struct {
	// JournalID is the persistence identity of the owning shard.
	JournalID string
	// SequenceNumber is assigned by the store, strictly increasing per
	// JournalID. Sequence numbers are never reused, not even after Truncate.
	SequenceNumber uint64
	// Payload carries the opaque envelope bytes handed to Append.
	Payload []byte
	// Checksum is the xxh3 hash of Payload, computed on append and verified
	// on replay.
	Checksum uint64
	// CreatedAt is the append time in unix nanoseconds.
	CreatedAt int64
}

// Store persists journal entries. Implementations are safe for concurrent
// use. Every operation fails with errors.ErrJournalNotConnected before
// Connect or after Disconnect.
type Store interface {
	// Connect readies the store.
	Connect(ctx context.Context) error
	// Disconnect releases the store. Disconnecting twice is harmless.
	Disconnect(ctx context.Context) error
	// Append persists the payload under the next sequence number of the
	// journal and returns the stored entry.
	Append(ctx context.Context, journalID string, payload []byte) (*Entry, error)
	// Replay streams the journal's entries to fn in ascending sequence
	// order. A fn error aborts the replay and is returned. Corrupted
	// entries abort with an errors.JournalCorruptionError.
	Replay(ctx context.Context, journalID string, fn func(entry *Entry) error) error
	// HighestSequence returns the highest sequence number ever assigned in
	// the journal, zero when nothing was appended.
	HighestSequence(ctx context.Context, journalID string) (uint64, error)
	// Truncate removes the entries with sequence numbers up to and including
	// upTo. Hosts that snapshot externally use it to trim replay work; the
	// shard itself never truncates.
	Truncate(ctx context.Context, journalID string, upTo uint64) error
}

// validateJournalID rejects the empty journal identifier.
func validateJournalID(journalID string) error {
	return validation.NewEmptyStringValidator("journalID", journalID).Validate()
}
