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

package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue(t *testing.T) {
	t.Run("With Push/Pop ordering", func(t *testing.T) {
		q := New[int]()
		require.True(t, q.IsEmpty())

		for i := 0; i < 100; i++ {
			require.True(t, q.Push(i))
		}
		require.Equal(t, 100, q.Len())
		assert.GreaterOrEqual(t, q.Cap(), 100)

		for i := 0; i < 100; i++ {
			value, ok := q.Pop()
			require.True(t, ok)
			require.Equal(t, i, value)
		}
		assert.True(t, q.IsEmpty())
	})
	t.Run("With Wait", func(t *testing.T) {
		q := New[string]()
		got := make(chan string, 1)
		go func() {
			value, ok := q.Wait()
			if ok {
				got <- value
			}
		}()

		q.Push("ready")
		assert.Equal(t, "ready", <-got)
	})
	t.Run("With Close", func(t *testing.T) {
		q := New[int]()
		q.Push(1)
		q.Close()
		require.True(t, q.IsClosed())
		assert.False(t, q.Push(2))
		_, ok := q.Wait()
		assert.False(t, ok)
	})
	t.Run("With CloseRemaining", func(t *testing.T) {
		q := New[int]()
		q.Push(1)
		q.Push(2)
		remaining := q.CloseRemaining()
		assert.Equal(t, []int{1, 2}, remaining)
		assert.True(t, q.IsClosed())
	})
}
