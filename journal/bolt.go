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
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/zeebo/xxh3"
	bbolt "go.etcd.io/bbolt"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/treestore/errors"
	"github.com/tochemey/treestore/internal/compression"
)

const (
	boltFileMode os.FileMode = 0o600
	boltTimeout              = 5 * time.Second

	// record layout: version byte, flags byte, checksum, createdAt, payload
	boltRecordVersion byte = 1
	boltRecordHeader       = 18
	flagCompressed    byte = 0x01
)

var defaultBoltOptions = &bbolt.Options{Timeout: boltTimeout, NoGrowSync: true}

// BoltStore persists journals in a single bbolt file, one bucket per
// journal identifier. Keys are big-endian sequence numbers drawn from the
// bucket sequence, so a cursor walks entries in append order and sequence
// numbers survive truncation.
type BoltStore struct {
	path     string
	fileMode os.FileMode
	compress bool
	db       *bbolt.DB
	opened   *atomic.Bool
}

// enforce compilation error
var _ Store = (*BoltStore)(nil)

// BoltOption configures the BoltStore at construction time.
type BoltOption func(*BoltStore)

// WithFileMode sets the permissions of the database file.
func WithFileMode(mode os.FileMode) BoltOption {
	return func(s *BoltStore) {
		s.fileMode = mode
	}
}

// WithCompression stores payloads zstd-compressed. Replay transparently
// decompresses, so readers never see the difference. Journals written with
// compression on and off can coexist in the same file; each record carries
// its own flag.
func WithCompression() BoltOption {
	return func(s *BoltStore) {
		s.compress = true
	}
}

// NewBoltStore creates a store writing to the database file at path.
// The file is created on Connect.
func NewBoltStore(path string, opts ...BoltOption) *BoltStore {
	store := &BoltStore{
		path:     path,
		fileMode: boltFileMode,
		opened:   atomic.NewBool(false),
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Connect implements Store. The database file is opened with a lock timeout
// so a second process holding the file fails fast instead of hanging.
func (s *BoltStore) Connect(ctx context.Context) error {
	if err := contextErr(ctx); err != nil {
		return err
	}
	if s.opened.Load() {
		return nil
	}
	optionsCopy := *defaultBoltOptions
	db, err := bbolt.Open(s.path, s.fileMode, &optionsCopy)
	if err != nil {
		return fmt.Errorf("opening journal database (%s): %w", s.path, err)
	}
	s.db = db
	s.opened.Store(true)
	return nil
}

// Disconnect implements Store.
func (s *BoltStore) Disconnect(ctx context.Context) error {
	if err := contextErr(ctx); err != nil {
		return err
	}
	if !s.opened.CompareAndSwap(true, false) {
		return nil
	}
	return s.db.Close()
}

// Append implements Store.
func (s *BoltStore) Append(ctx context.Context, journalID string, payload []byte) (*Entry, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	if err := contextErr(ctx); err != nil {
		return nil, err
	}
	if err := validateJournalID(journalID); err != nil {
		return nil, err
	}

	checksum := xxh3.Hash(payload)
	createdAt := time.Now().UnixNano()
	record := encodeRecord(payload, checksum, createdAt, s.compress)

	var sequence uint64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(journalID))
		if err != nil {
			return err
		}
		sequence, err = bucket.NextSequence()
		if err != nil {
			return err
		}
		var key [8]byte
		binary.BigEndian.PutUint64(key[:], sequence)
		return bucket.Put(key[:], record)
	})
	if err != nil {
		return nil, err
	}

	stored := make([]byte, len(payload))
	copy(stored, payload)
	return &Entry{
		JournalID:      journalID,
		SequenceNumber: sequence,
		Payload:        stored,
		Checksum:       checksum,
		CreatedAt:      createdAt,
	}, nil
}

// Replay implements Store.
func (s *BoltStore) Replay(ctx context.Context, journalID string, fn func(entry *Entry) error) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if err := validateJournalID(journalID); err != nil {
		return err
	}

	return s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(journalID))
		if bucket == nil {
			return nil
		}
		cursor := bucket.Cursor()
		for key, record := cursor.First(); key != nil; key, record = cursor.Next() {
			if err := contextErr(ctx); err != nil {
				return err
			}
			sequence := binary.BigEndian.Uint64(key)
			entry, err := decodeRecord(journalID, sequence, record)
			if err != nil {
				return err
			}
			if err := fn(entry); err != nil {
				return err
			}
		}
		return nil
	})
}

// HighestSequence implements Store.
func (s *BoltStore) HighestSequence(ctx context.Context, journalID string) (uint64, error) {
	if err := s.ensureOpen(); err != nil {
		return 0, err
	}
	if err := contextErr(ctx); err != nil {
		return 0, err
	}
	if err := validateJournalID(journalID); err != nil {
		return 0, err
	}

	var highest uint64
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(journalID))
		if bucket == nil {
			return nil
		}
		highest = bucket.Sequence()
		return nil
	})
	return highest, err
}

// Truncate implements Store.
func (s *BoltStore) Truncate(ctx context.Context, journalID string, upTo uint64) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if err := contextErr(ctx); err != nil {
		return err
	}
	if err := validateJournalID(journalID); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(journalID))
		if bucket == nil {
			return nil
		}
		cursor := bucket.Cursor()
		for key, _ := cursor.First(); key != nil; key, _ = cursor.Next() {
			if binary.BigEndian.Uint64(key) > upTo {
				break
			}
			if err := cursor.Delete(); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) ensureOpen() error {
	if !s.opened.Load() {
		return gerrors.ErrJournalNotConnected
	}
	return nil
}

// encodeRecord renders one stored record.
func encodeRecord(payload []byte, checksum uint64, createdAt int64, compress bool) []byte {
	stored := payload
	var flags byte
	if compress {
		stored = compression.Zstd(payload)
		flags |= flagCompressed
	}
	record := make([]byte, boltRecordHeader+len(stored))
	record[0] = boltRecordVersion
	record[1] = flags
	binary.BigEndian.PutUint64(record[2:10], checksum)
	binary.BigEndian.PutUint64(record[10:18], uint64(createdAt))
	copy(record[boltRecordHeader:], stored)
	return record
}

// decodeRecord parses and verifies one stored record.
func decodeRecord(journalID string, sequence uint64, record []byte) (*Entry, error) {
	if len(record) < boltRecordHeader {
		return nil, gerrors.NewJournalCorruptionError(journalID, sequence, errors.New("record too short"))
	}
	if record[0] != boltRecordVersion {
		return nil, gerrors.NewJournalCorruptionError(journalID, sequence, fmt.Errorf("unknown record version %d", record[0]))
	}

	flags := record[1]
	checksum := binary.BigEndian.Uint64(record[2:10])
	createdAt := int64(binary.BigEndian.Uint64(record[10:18]))

	payload := make([]byte, len(record)-boltRecordHeader)
	copy(payload, record[boltRecordHeader:])
	if flags&flagCompressed != 0 {
		decompressed, err := compression.Unzstd(payload)
		if err != nil {
			return nil, gerrors.NewJournalCorruptionError(journalID, sequence, err)
		}
		payload = decompressed
	}

	if xxh3.Hash(payload) != checksum {
		return nil, gerrors.NewJournalCorruptionError(journalID, sequence, errors.New("checksum mismatch"))
	}

	return &Entry{
		JournalID:      journalID,
		SequenceNumber: sequence,
		Payload:        payload,
		Checksum:       checksum,
		CreatedAt:      createdAt,
	}, nil
}

func contextErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
