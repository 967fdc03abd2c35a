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

package cluster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/treestore/errors"
)

func TestStaticMembership(t *testing.T) {
	ctx := context.Background()

	local := Member{Name: "node1", Host: "127.0.0.1", Port: 3322}
	peer2 := Member{Name: "node2", Host: "127.0.0.1", Port: 3323}
	peer3 := Member{Name: "node3", Host: "127.0.0.1", Port: 3324}

	t.Run("With Join and Leave", func(t *testing.T) {
		membership := NewStaticMembership(local, peer2)

		// not joined yet
		assert.Nil(t, membership.Members())
		assert.ErrorIs(t, membership.Leave(ctx), errors.ErrNotJoined)

		require.NoError(t, membership.Join(ctx))
		assert.ErrorIs(t, membership.Join(ctx), errors.ErrAlreadyJoined)

		require.NoError(t, membership.Leave(ctx))
		// single-use: cannot rejoin after leaving
		assert.ErrorIs(t, membership.Join(ctx), errors.ErrAlreadyJoined)

		// the events channel is closed
		_, ok := <-membership.Events()
		assert.False(t, ok)
	})
	t.Run("With Members", func(t *testing.T) {
		membership := NewStaticMembership(local, peer2, peer3)
		require.NoError(t, membership.Join(ctx))

		members := membership.Members()
		require.Len(t, members, 3)
		assert.Equal(t, local, membership.LocalMember())
		assert.Equal(t, "node1", members[0].Name)
		assert.Equal(t, "127.0.0.1:3322", members[0].Address())

		require.NoError(t, membership.Leave(ctx))
	})
	t.Run("With MarkDown and MarkUp", func(t *testing.T) {
		membership := NewStaticMembership(local, peer2, peer3)
		require.NoError(t, membership.Join(ctx))

		membership.MarkDown("node2")
		members := membership.Members()
		require.Len(t, members, 2)

		event := <-membership.Events()
		assert.Equal(t, MemberLeft, event.Type)
		assert.Equal(t, "node2", event.Member.Name)

		// marking down twice publishes a single event
		membership.MarkDown("node2")

		membership.MarkUp("node2")
		members = membership.Members()
		require.Len(t, members, 3)

		event = <-membership.Events()
		assert.Equal(t, MemberJoined, event.Type)
		assert.Equal(t, "node2", event.Member.Name)

		require.NoError(t, membership.Leave(ctx))
	})
	t.Run("With MarkDown on the local member", func(t *testing.T) {
		membership := NewStaticMembership(local, peer2)
		require.NoError(t, membership.Join(ctx))

		membership.MarkDown("node1")
		assert.Len(t, membership.Members(), 2)

		require.NoError(t, membership.Leave(ctx))
	})
	t.Run("With MarkDown on an unknown member", func(t *testing.T) {
		membership := NewStaticMembership(local)
		require.NoError(t, membership.Join(ctx))

		membership.MarkDown("node42")
		assert.Len(t, membership.Members(), 1)

		require.NoError(t, membership.Leave(ctx))
	})
}

func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "MemberJoined", MemberJoined.String())
	assert.Equal(t, "MemberLeft", MemberLeft.String())
	assert.Equal(t, "MemberUpdated", MemberUpdated.String())
	assert.Equal(t, "", EventType(42).String())
}
