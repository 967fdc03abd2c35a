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

package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/treestore/errors"
)

func TestModification(t *testing.T) {
	t.Run("With recorded operations", func(t *testing.T) {
		modification := NewModification()
		assert.True(t, modification.IsEmpty())

		modification.Write(RootPath().Child("nodes"), []byte("all"))
		modification.Merge(RootPath().Child("nodes").Child("n1"), []byte("one"))
		modification.Delete(RootPath().Child("stale"))

		require.False(t, modification.IsEmpty())
		operations := modification.Operations()
		require.Len(t, operations, 3)

		assert.Equal(t, OpWrite, operations[0].Kind())
		assert.Equal(t, "/nodes", operations[0].Path().String())
		assert.Equal(t, []byte("all"), operations[0].Value())

		assert.Equal(t, OpMerge, operations[1].Kind())
		assert.Equal(t, "/nodes/n1", operations[1].Path().String())
		assert.Equal(t, []byte("one"), operations[1].Value())

		assert.Equal(t, OpDelete, operations[2].Kind())
		assert.Equal(t, "/stale", operations[2].Path().String())
		assert.Nil(t, operations[2].Value())
	})
	t.Run("With value copy on record", func(t *testing.T) {
		value := []byte("original")
		modification := NewModification()
		modification.Write(RootPath().Child("nodes"), value)
		value[0] = 'X'
		assert.Equal(t, []byte("original"), modification.Operations()[0].Value())
	})
}

func TestModificationCodec(t *testing.T) {
	t.Run("With a deterministic encoding", func(t *testing.T) {
		build := func() *Modification {
			modification := NewModification()
			modification.Write(RootPath().Child("nodes").Child("n1"), []byte("payload"))
			modification.Delete(RootPath().Child("stale"))
			return modification
		}

		first, err := build().MarshalBinary()
		require.NoError(t, err)
		second, err := build().MarshalBinary()
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
	t.Run("With a round trip", func(t *testing.T) {
		modification := NewModification()
		modification.Write(RootPath().Child("nodes"), []byte("all"))
		modification.Merge(RootPath().Child("nodes").Child("a/b"), []byte("escaped"))
		modification.Delete(RootPath().Child("stale"))

		encoded, err := modification.MarshalBinary()
		require.NoError(t, err)

		decoded := NewModification()
		require.NoError(t, decoded.UnmarshalBinary(encoded))
		require.Len(t, decoded.Operations(), 3)

		for i, op := range decoded.Operations() {
			expected := modification.Operations()[i]
			assert.Equal(t, expected.Kind(), op.Kind())
			assert.True(t, expected.Path().Equals(op.Path()))
			assert.Equal(t, expected.Value(), op.Value())
		}

		reencoded, err := decoded.MarshalBinary()
		require.NoError(t, err)
		assert.Equal(t, encoded, reencoded)
	})
	t.Run("With an empty modification", func(t *testing.T) {
		encoded, err := NewModification().MarshalBinary()
		require.NoError(t, err)
		assert.Len(t, encoded, 5)

		decoded := NewModification()
		require.NoError(t, decoded.UnmarshalBinary(encoded))
		assert.True(t, decoded.IsEmpty())
	})
	t.Run("With an unsupported version", func(t *testing.T) {
		modification := NewModification()
		modification.Write(RootPath().Child("nodes"), []byte("all"))
		encoded, err := modification.MarshalBinary()
		require.NoError(t, err)

		encoded[0] = 42
		err = NewModification().UnmarshalBinary(encoded)
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrUnsupportedCodecVersion)
	})
	t.Run("With an unknown operation kind", func(t *testing.T) {
		modification := NewModification()
		modification.Write(RootPath().Child("nodes"), []byte("all"))
		encoded, err := modification.MarshalBinary()
		require.NoError(t, err)

		encoded[5] = 0xFF
		err = NewModification().UnmarshalBinary(encoded)
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrUnknownOperation)
	})
	t.Run("With truncated input", func(t *testing.T) {
		modification := NewModification()
		modification.Write(RootPath().Child("nodes"), []byte("all"))
		encoded, err := modification.MarshalBinary()
		require.NoError(t, err)

		for _, cut := range []int{0, 3, 6, len(encoded) - 1} {
			err = NewModification().UnmarshalBinary(encoded[:cut])
			require.Error(t, err)
			assert.ErrorIs(t, err, gerrors.ErrCorruptedModification)
		}
	})
	t.Run("With trailing bytes", func(t *testing.T) {
		modification := NewModification()
		modification.Write(RootPath().Child("nodes"), []byte("all"))
		encoded, err := modification.MarshalBinary()
		require.NoError(t, err)

		err = NewModification().UnmarshalBinary(append(encoded, 0x00))
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrCorruptedModification)
	})
	t.Run("With an invalid encoded path", func(t *testing.T) {
		encoded := []byte{
			1,          // version
			1, 0, 0, 0, // one operation
			byte(OpDelete),
			5, 0, 0, 0, 'n', 'o', 'd', 'e', 's', // path missing its leading slash
			0, 0, 0, 0, // empty value
		}
		err := NewModification().UnmarshalBinary(encoded)
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrInvalidPath)
	})
}
