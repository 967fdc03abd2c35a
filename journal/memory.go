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

package journal

import (
	"context"
	"sync"
	"time"

	"github.com/zeebo/xxh3"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/treestore/errors"
)

// MemoryStore keeps journals in process memory. Ephemeral shards and tests
// use it; nothing survives a restart.
type MemoryStore struct {
	mu        sync.Mutex
	connected *atomic.Bool
	journals  map[string][]*Entry
	lastSeq   map[string]uint64
}

// enforce compilation error
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory journal store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		connected: atomic.NewBool(false),
		journals:  make(map[string][]*Entry),
		lastSeq:   make(map[string]uint64),
	}
}

// Connect implements Store.
func (s *MemoryStore) Connect(ctx context.Context) error {
	if err := contextErr(ctx); err != nil {
		return err
	}
	s.connected.Store(true)
	return nil
}

// Disconnect implements Store.
func (s *MemoryStore) Disconnect(ctx context.Context) error {
	if err := contextErr(ctx); err != nil {
		return err
	}
	s.connected.Store(false)
	return nil
}

// Append implements Store.
func (s *MemoryStore) Append(ctx context.Context, journalID string, payload []byte) (*Entry, error) {
	if err := contextErr(ctx); err != nil {
		return nil, err
	}
	if !s.connected.Load() {
		return nil, gerrors.ErrJournalNotConnected
	}
	if err := validateJournalID(journalID); err != nil {
		return nil, err
	}

	stored := make([]byte, len(payload))
	copy(stored, payload)

	s.mu.Lock()
	sequence := s.lastSeq[journalID] + 1
	s.lastSeq[journalID] = sequence
	entry := &Entry{
		JournalID:      journalID,
		SequenceNumber: sequence,
		Payload:        stored,
		Checksum:       xxh3.Hash(stored),
		CreatedAt:      time.Now().UnixNano(),
	}
	s.journals[journalID] = append(s.journals[journalID], entry)
	s.mu.Unlock()
	return entry, nil
}

// Replay implements Store.
func (s *MemoryStore) Replay(ctx context.Context, journalID string, fn func(entry *Entry) error) error {
	if !s.connected.Load() {
		return gerrors.ErrJournalNotConnected
	}
	if err := validateJournalID(journalID); err != nil {
		return err
	}

	s.mu.Lock()
	entries := make([]*Entry, len(s.journals[journalID]))
	copy(entries, s.journals[journalID])
	s.mu.Unlock()

	for _, entry := range entries {
		if err := contextErr(ctx); err != nil {
			return err
		}
		if xxh3.Hash(entry.Payload) != entry.Checksum {
			return gerrors.NewJournalCorruptionError(journalID, entry.SequenceNumber, gerrors.ErrCorruptedModification)
		}
		payload := make([]byte, len(entry.Payload))
		copy(payload, entry.Payload)
		replayed := *entry
		replayed.Payload = payload
		if err := fn(&replayed); err != nil {
			return err
		}
	}
	return nil
}

// HighestSequence implements Store.
func (s *MemoryStore) HighestSequence(ctx context.Context, journalID string) (uint64, error) {
	if err := contextErr(ctx); err != nil {
		return 0, err
	}
	if !s.connected.Load() {
		return 0, gerrors.ErrJournalNotConnected
	}
	if err := validateJournalID(journalID); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeq[journalID], nil
}

// Truncate implements Store.
func (s *MemoryStore) Truncate(ctx context.Context, journalID string, upTo uint64) error {
	if err := contextErr(ctx); err != nil {
		return err
	}
	if !s.connected.Load() {
		return gerrors.ErrJournalNotConnected
	}
	if err := validateJournalID(journalID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.journals[journalID]
	kept := entries[:0]
	for _, entry := range entries {
		if entry.SequenceNumber > upTo {
			kept = append(kept, entry)
		}
	}
	if len(kept) == 0 {
		delete(s.journals, journalID)
		return nil
	}
	s.journals[journalID] = kept
	return nil
}
