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

package xsync

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap(t *testing.T) {
	t.Run("With Set/Get/Delete", func(t *testing.T) {
		m := NewMap[string, int]()
		m.Set("one", 1)
		m.Set("two", 2)

		value, ok := m.Get("one")
		require.True(t, ok)
		require.Equal(t, 1, value)

		_, ok = m.Get("three")
		require.False(t, ok)

		m.Delete("one")
		_, ok = m.Get("one")
		require.False(t, ok)
		assert.Equal(t, 1, m.Len())
	})
	t.Run("With Keys/Values/Range", func(t *testing.T) {
		m := NewMap[string, int]()
		m.Set("a", 1)
		m.Set("b", 2)
		m.Set("c", 3)

		keys := m.Keys()
		sort.Strings(keys)
		require.Equal(t, []string{"a", "b", "c"}, keys)

		values := m.Values()
		sort.Ints(values)
		require.Equal(t, []int{1, 2, 3}, values)

		total := 0
		m.Range(func(_ string, v int) {
			total += v
		})
		assert.Equal(t, 6, total)

		m.Reset()
		assert.Zero(t, m.Len())
	})
	t.Run("With concurrent access", func(t *testing.T) {
		m := NewMap[int, int]()
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				m.Set(i, i*i)
				_, _ = m.Get(i)
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 50, m.Len())
	})
}
