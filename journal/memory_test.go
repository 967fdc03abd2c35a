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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/treestore/errors"
)

func TestMemoryStore(t *testing.T) {
	t.Run("With append and replay", func(t *testing.T) {
		ctx := context.TODO()
		store := NewMemoryStore()
		require.NoError(t, store.Connect(ctx))

		payloads := [][]byte{[]byte("first"), []byte("second"), []byte("third")}
		for i, payload := range payloads {
			entry, err := store.Append(ctx, "shard-1", payload)
			require.NoError(t, err)
			require.NotNil(t, entry)
			assert.Equal(t, "shard-1", entry.JournalID)
			assert.EqualValues(t, i+1, entry.SequenceNumber)
			assert.Equal(t, payload, entry.Payload)
			assert.NotZero(t, entry.Checksum)
			assert.NotZero(t, entry.CreatedAt)
		}

		var replayed []*Entry
		err := store.Replay(ctx, "shard-1", func(entry *Entry) error {
			replayed = append(replayed, entry)
			return nil
		})
		require.NoError(t, err)
		require.Len(t, replayed, len(payloads))
		for i, entry := range replayed {
			assert.EqualValues(t, i+1, entry.SequenceNumber)
			assert.Equal(t, payloads[i], entry.Payload)
		}

		highest, err := store.HighestSequence(ctx, "shard-1")
		require.NoError(t, err)
		assert.EqualValues(t, 3, highest)

		require.NoError(t, store.Disconnect(ctx))
	})
	t.Run("With unknown journal", func(t *testing.T) {
		ctx := context.TODO()
		store := NewMemoryStore()
		require.NoError(t, store.Connect(ctx))

		calls := 0
		err := store.Replay(ctx, "never-written", func(*Entry) error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Zero(t, calls)

		highest, err := store.HighestSequence(ctx, "never-written")
		require.NoError(t, err)
		assert.Zero(t, highest)

		require.NoError(t, store.Truncate(ctx, "never-written", 10))
		require.NoError(t, store.Disconnect(ctx))
	})
	t.Run("With sequence numbers surviving truncation", func(t *testing.T) {
		ctx := context.TODO()
		store := NewMemoryStore()
		require.NoError(t, store.Connect(ctx))

		for i := 0; i < 3; i++ {
			_, err := store.Append(ctx, "shard-1", []byte("payload"))
			require.NoError(t, err)
		}
		require.NoError(t, store.Truncate(ctx, "shard-1", 2))

		var sequences []uint64
		err := store.Replay(ctx, "shard-1", func(entry *Entry) error {
			sequences = append(sequences, entry.SequenceNumber)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []uint64{3}, sequences)

		// truncating everything must not recycle sequence numbers
		require.NoError(t, store.Truncate(ctx, "shard-1", 3))
		entry, err := store.Append(ctx, "shard-1", []byte("payload"))
		require.NoError(t, err)
		assert.EqualValues(t, 4, entry.SequenceNumber)

		highest, err := store.HighestSequence(ctx, "shard-1")
		require.NoError(t, err)
		assert.EqualValues(t, 4, highest)

		require.NoError(t, store.Disconnect(ctx))
	})
	t.Run("With independent journals", func(t *testing.T) {
		ctx := context.TODO()
		store := NewMemoryStore()
		require.NoError(t, store.Connect(ctx))

		first, err := store.Append(ctx, "shard-1", []byte("one"))
		require.NoError(t, err)
		second, err := store.Append(ctx, "shard-2", []byte("two"))
		require.NoError(t, err)
		assert.EqualValues(t, 1, first.SequenceNumber)
		assert.EqualValues(t, 1, second.SequenceNumber)

		require.NoError(t, store.Disconnect(ctx))
	})
	t.Run("With payload isolation", func(t *testing.T) {
		ctx := context.TODO()
		store := NewMemoryStore()
		require.NoError(t, store.Connect(ctx))

		payload := []byte("mutable")
		_, err := store.Append(ctx, "shard-1", payload)
		require.NoError(t, err)
		payload[0] = 'X'

		err = store.Replay(ctx, "shard-1", func(entry *Entry) error {
			assert.Equal(t, []byte("mutable"), entry.Payload)
			return nil
		})
		require.NoError(t, err)
		require.NoError(t, store.Disconnect(ctx))
	})
	t.Run("With store not connected", func(t *testing.T) {
		ctx := context.TODO()
		store := NewMemoryStore()

		_, err := store.Append(ctx, "shard-1", []byte("payload"))
		assert.ErrorIs(t, err, gerrors.ErrJournalNotConnected)

		err = store.Replay(ctx, "shard-1", func(*Entry) error { return nil })
		assert.ErrorIs(t, err, gerrors.ErrJournalNotConnected)

		_, err = store.HighestSequence(ctx, "shard-1")
		assert.ErrorIs(t, err, gerrors.ErrJournalNotConnected)

		err = store.Truncate(ctx, "shard-1", 1)
		assert.ErrorIs(t, err, gerrors.ErrJournalNotConnected)
	})
	t.Run("With invalid journal identifier", func(t *testing.T) {
		ctx := context.TODO()
		store := NewMemoryStore()
		require.NoError(t, store.Connect(ctx))

		_, err := store.Append(ctx, "", []byte("payload"))
		require.Error(t, err)
		assert.EqualError(t, err, "the [journalID] is required")

		require.NoError(t, store.Disconnect(ctx))
	})
	t.Run("With repeated connect and disconnect", func(t *testing.T) {
		ctx := context.TODO()
		store := NewMemoryStore()
		require.NoError(t, store.Connect(ctx))
		require.NoError(t, store.Connect(ctx))
		require.NoError(t, store.Disconnect(ctx))
		require.NoError(t, store.Disconnect(ctx))
	})
}
