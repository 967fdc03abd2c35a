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

package ownership

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/goleak"

	"github.com/tochemey/treestore/cluster"
	gerrors "github.com/tochemey/treestore/errors"
	"github.com/tochemey/treestore/eventstream"
	"github.com/tochemey/treestore/log"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestService(t *testing.T) {
	ctx := context.Background()

	t.Run("With a single process gaining and losing ownership", func(t *testing.T) {
		membership := joinedMembership(t, ctx)
		directory, err := NewDirectory(membership, WithDirectoryLogger(log.DiscardLogger))
		require.NoError(t, err)
		require.NoError(t, directory.Start(ctx))

		service, err := NewService(directory, WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		assert.Equal(t, "node-1", service.Process())

		listener := &recordingListener{}
		registration, err := service.RegisterListener("service", listener)
		require.NoError(t, err)
		assert.Equal(t, "service", registration.EntityType())

		entity, err := NewEntity("service", "dhcp")
		require.NoError(t, err)
		candidacy, err := service.RegisterCandidate(entity)
		require.NoError(t, err)
		assert.Equal(t, entity, candidacy.Entity())

		require.Eventually(t, func() bool {
			return registration.Delivered() == 1
		}, time.Second, 10*time.Millisecond)
		changes := listener.snapshot()
		require.Len(t, changes, 1)
		assert.True(t, changes[0].Gained())
		assert.Equal(t, entity, changes[0].Entity)

		state, err := service.OwnershipState(entity)
		require.NoError(t, err)
		assert.True(t, state.IsOwner)
		assert.True(t, state.HasOwner)
		assert.Equal(t, []string{"dhcp"}, service.Owned("service"))

		require.NoError(t, candidacy.Close())
		require.Eventually(t, func() bool {
			return registration.Delivered() == 2
		}, time.Second, 10*time.Millisecond)
		changes = listener.snapshot()
		require.Len(t, changes, 2)
		assert.True(t, changes[1].Lost())

		state, err = service.OwnershipState(entity)
		require.NoError(t, err)
		assert.False(t, state.IsOwner)
		assert.False(t, state.HasOwner)
		assert.Empty(t, service.Owned("service"))

		// closing the candidacy again changes nothing
		require.NoError(t, candidacy.Close())
		assert.Equal(t, uint64(2), registration.Delivered())

		registration.Close()
		require.NoError(t, service.Close())
		require.NoError(t, directory.Stop(ctx))
		require.NoError(t, membership.Leave(ctx))
	})

	t.Run("With duplicate candidate registrations rejected", func(t *testing.T) {
		membership := joinedMembership(t, ctx)
		directory, err := NewDirectory(membership, WithDirectoryLogger(log.DiscardLogger))
		require.NoError(t, err)
		service, err := NewService(directory, WithLogger(log.DiscardLogger))
		require.NoError(t, err)

		entity, err := NewEntity("service", "dhcp")
		require.NoError(t, err)
		_, err = service.RegisterCandidate(entity)
		require.NoError(t, err)

		_, err = service.RegisterCandidate(entity)
		require.ErrorIs(t, err, gerrors.ErrCandidateAlreadyRegistered)
		var typed *gerrors.CandidateAlreadyRegisteredError
		require.ErrorAs(t, err, &typed)
		assert.Equal(t, "service:dhcp", typed.Entity())

		// a second gateway of the same process hits the directory-side guard
		twin, err := NewService(directory, WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		_, err = twin.RegisterCandidate(entity)
		require.ErrorIs(t, err, gerrors.ErrCandidateAlreadyRegistered)

		require.NoError(t, twin.Close())
		require.NoError(t, service.Close())
		require.NoError(t, directory.Stop(ctx))
		require.NoError(t, membership.Leave(ctx))
	})

	t.Run("With two processes handing ownership over", func(t *testing.T) {
		membership := joinedMembership(t, ctx, "node-2")
		directory, err := NewDirectory(membership, WithDirectoryLogger(log.DiscardLogger))
		require.NoError(t, err)
		require.NoError(t, directory.Start(ctx))

		serviceA, err := NewService(directory, WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		serviceB, err := NewService(directory, WithLogger(log.DiscardLogger), WithProcessName("node-2"))
		require.NoError(t, err)

		listenerB := &recordingListener{}
		registrationB, err := serviceB.RegisterListener("service", listenerB)
		require.NoError(t, err)

		entity, err := NewEntity("service", "topology")
		require.NoError(t, err)
		first, err := serviceA.RegisterCandidate(entity)
		require.NoError(t, err)
		_, err = serviceB.RegisterCandidate(entity)
		require.NoError(t, err)

		stateA, err := serviceA.OwnershipState(entity)
		require.NoError(t, err)
		assert.True(t, stateA.IsOwner)
		stateB, err := serviceB.OwnershipState(entity)
		require.NoError(t, err)
		assert.False(t, stateB.IsOwner)
		assert.True(t, stateB.HasOwner)

		// the owner withdrawing hands the entity to the next candidate
		require.NoError(t, first.Close())
		stateB, err = serviceB.OwnershipState(entity)
		require.NoError(t, err)
		assert.True(t, stateB.IsOwner)
		require.Eventually(t, func() bool {
			return registrationB.Delivered() == 1
		}, time.Second, 10*time.Millisecond)
		changes := listenerB.snapshot()
		require.Len(t, changes, 1)
		assert.True(t, changes[0].Gained())
		assert.Equal(t, entity, changes[0].Entity)

		require.NoError(t, serviceA.Close())
		require.NoError(t, serviceB.Close())
		require.NoError(t, directory.Stop(ctx))
		require.NoError(t, membership.Leave(ctx))
	})

	t.Run("With a member failure failing ownership over", func(t *testing.T) {
		membership := joinedMembership(t, ctx, "node-2")
		directory, err := NewDirectory(membership, WithDirectoryLogger(log.DiscardLogger))
		require.NoError(t, err)
		require.NoError(t, directory.Start(ctx))

		serviceA, err := NewService(directory, WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		serviceB, err := NewService(directory, WithLogger(log.DiscardLogger), WithProcessName("node-2"))
		require.NoError(t, err)

		entity, err := NewEntity("service", "nat")
		require.NoError(t, err)
		_, err = serviceB.RegisterCandidate(entity)
		require.NoError(t, err)
		_, err = serviceA.RegisterCandidate(entity)
		require.NoError(t, err)

		owner, ok := directory.Owner(entity)
		require.True(t, ok)
		require.Equal(t, "node-2", owner)

		listenerA := &recordingListener{}
		registrationA, err := serviceA.RegisterListener("service", listenerA)
		require.NoError(t, err)

		membership.MarkDown("node-2")
		require.Eventually(t, func() bool {
			state, err := serviceA.OwnershipState(entity)
			return err == nil && state.IsOwner
		}, time.Second, 10*time.Millisecond)
		require.Eventually(t, func() bool {
			return registrationA.Delivered() == 1
		}, time.Second, 10*time.Millisecond)
		assert.True(t, listenerA.snapshot()[0].Gained())

		require.NoError(t, serviceA.Close())
		require.NoError(t, serviceB.Close())
		require.NoError(t, directory.Stop(ctx))
		require.NoError(t, membership.Leave(ctx))
	})

	t.Run("With owned entities replayed to a new listener", func(t *testing.T) {
		membership := joinedMembership(t, ctx)
		directory, err := NewDirectory(membership, WithDirectoryLogger(log.DiscardLogger))
		require.NoError(t, err)
		require.NoError(t, directory.Start(ctx))
		service, err := NewService(directory, WithLogger(log.DiscardLogger))
		require.NoError(t, err)

		for _, id := range []string{"alpha", "beta"} {
			entity, err := NewEntity("shard-leader", id)
			require.NoError(t, err)
			_, err = service.RegisterCandidate(entity)
			require.NoError(t, err)
		}
		other, err := NewEntity("other", "gamma")
		require.NoError(t, err)
		_, err = service.RegisterCandidate(other)
		require.NoError(t, err)

		listener := &recordingListener{}
		registration, err := service.RegisterListener("shard-leader", listener)
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			return registration.Delivered() == 2
		}, time.Second, 10*time.Millisecond)
		changes := listener.snapshot()
		require.Len(t, changes, 2)
		ids := []string{changes[0].Entity.ID, changes[1].Entity.ID}
		assert.ElementsMatch(t, []string{"alpha", "beta"}, ids)
		for _, change := range changes {
			assert.True(t, change.Gained())
			assert.Equal(t, "shard-leader", change.Entity.Type)
		}

		require.NoError(t, service.Close())
		require.NoError(t, directory.Stop(ctx))
		require.NoError(t, membership.Leave(ctx))
	})

	t.Run("With the audit converging silent liveness drift", func(t *testing.T) {
		local := cluster.Member{Name: "node-1", Host: "127.0.0.1", Port: 9000}
		peer := cluster.Member{Name: "node-2", Host: "127.0.0.1", Port: 9001}
		membership := newSilentMembership(local, peer)
		directory, err := NewDirectory(membership,
			WithDirectoryLogger(log.DiscardLogger),
			WithAuditInterval(20*time.Millisecond))
		require.NoError(t, err)
		require.NoError(t, directory.Start(ctx))

		entity, err := NewEntity("service", "pce")
		require.NoError(t, err)
		require.NoError(t, directory.RegisterCandidate(entity, "node-2"))
		require.NoError(t, directory.RegisterCandidate(entity, "node-1"))
		owner, ok := directory.Owner(entity)
		require.True(t, ok)
		require.Equal(t, "node-2", owner)

		// node-2 dies without a membership event; only the audit notices
		membership.drop("node-2")
		require.Eventually(t, func() bool {
			owner, ok := directory.Owner(entity)
			return ok && owner == "node-1"
		}, time.Second, 10*time.Millisecond)
		assert.GreaterOrEqual(t, directory.Audits(), uint64(1))

		require.NoError(t, directory.Stop(ctx))
	})

	t.Run("With decisions published on the events stream", func(t *testing.T) {
		events := eventstream.New()
		subscriber := events.AddSubscriber()
		events.Subscribe(subscriber, TopicOwnership)

		membership := joinedMembership(t, ctx)
		directory, err := NewDirectory(membership,
			WithDirectoryLogger(log.DiscardLogger),
			WithEventsStream(events))
		require.NoError(t, err)

		entity, err := NewEntity("service", "dhcp")
		require.NoError(t, err)
		require.NoError(t, directory.RegisterCandidate(entity, "node-1"))

		var decision Decision
		require.Eventually(t, func() bool {
			for message := range subscriber.Iterator() {
				payload, ok := message.Payload().(Decision)
				if ok && payload.Entity == entity {
					decision = payload
					return true
				}
			}
			return false
		}, time.Second, 10*time.Millisecond)
		assert.Equal(t, "node-1", decision.Owner)
		assert.Empty(t, decision.PreviousOwner)
		assert.True(t, decision.HasOwner())
		assert.False(t, decision.Time.IsZero())

		events.Close()
		require.NoError(t, directory.Stop(ctx))
		require.NoError(t, membership.Leave(ctx))
	})

	t.Run("With a panicking listener kept alive", func(t *testing.T) {
		membership := joinedMembership(t, ctx)
		directory, err := NewDirectory(membership, WithDirectoryLogger(log.DiscardLogger))
		require.NoError(t, err)
		service, err := NewService(directory, WithLogger(log.DiscardLogger))
		require.NoError(t, err)

		listener := newFaultyListener()
		registration, err := service.RegisterListener("service", listener)
		require.NoError(t, err)

		first, err := NewEntity("service", "one")
		require.NoError(t, err)
		second, err := NewEntity("service", "two")
		require.NoError(t, err)
		_, err = service.RegisterCandidate(first)
		require.NoError(t, err)
		_, err = service.RegisterCandidate(second)
		require.NoError(t, err)

		// the first delivery panics and is swallowed, the second lands
		require.Eventually(t, func() bool {
			return registration.Delivered() == 1
		}, time.Second, 10*time.Millisecond)
		changes := listener.snapshot()
		require.Len(t, changes, 1)
		assert.Equal(t, second, changes[0].Entity)
		assert.Equal(t, uint64(2), listener.calls.Load())

		require.NoError(t, service.Close())
		require.NoError(t, directory.Stop(ctx))
		require.NoError(t, membership.Leave(ctx))
	})

	t.Run("With operations after close", func(t *testing.T) {
		membership := joinedMembership(t, ctx)
		directory, err := NewDirectory(membership, WithDirectoryLogger(log.DiscardLogger))
		require.NoError(t, err)
		service, err := NewService(directory, WithLogger(log.DiscardLogger))
		require.NoError(t, err)

		require.NoError(t, service.Close())
		require.NoError(t, service.Close())

		entity, err := NewEntity("service", "dhcp")
		require.NoError(t, err)
		_, err = service.RegisterCandidate(entity)
		require.ErrorIs(t, err, gerrors.ErrOwnershipClosed)
		_, err = service.RegisterListener("service", &recordingListener{})
		require.ErrorIs(t, err, gerrors.ErrOwnershipClosed)
		_, err = service.OwnershipState(entity)
		require.ErrorIs(t, err, gerrors.ErrOwnershipClosed)

		require.NoError(t, directory.Stop(ctx))
		_, err = NewService(directory)
		require.ErrorIs(t, err, gerrors.ErrOwnershipClosed)

		require.NoError(t, membership.Leave(ctx))
	})

	t.Run("With listener validation", func(t *testing.T) {
		membership := joinedMembership(t, ctx)
		directory, err := NewDirectory(membership, WithDirectoryLogger(log.DiscardLogger))
		require.NoError(t, err)
		service, err := NewService(directory, WithLogger(log.DiscardLogger))
		require.NoError(t, err)

		_, err = service.RegisterListener("", &recordingListener{})
		require.Error(t, err)
		_, err = service.RegisterListener("service", nil)
		require.ErrorIs(t, err, gerrors.ErrMissingListener)
		_, err = service.RegisterCandidate(Entity{})
		require.ErrorIs(t, err, gerrors.ErrInvalidEntity)

		require.NoError(t, service.Close())
		require.NoError(t, directory.Stop(ctx))
		require.NoError(t, membership.Leave(ctx))
	})
}

// joinedMembership builds a joined static membership with node-1 as the
// local member plus the named peers.
func joinedMembership(t *testing.T, ctx context.Context, peers ...string) *cluster.StaticMembership {
	t.Helper()
	local := cluster.Member{Name: "node-1", Host: "127.0.0.1", Port: 9000}
	others := make([]cluster.Member, 0, len(peers))
	for i, name := range peers {
		others = append(others, cluster.Member{
			Name: name,
			Host: "127.0.0.1",
			Port: uint16(9001 + i),
		})
	}
	membership := cluster.NewStaticMembership(local, others...)
	require.NoError(t, membership.Join(ctx))
	return membership
}

// recordingListener captures changes in delivery order.
type recordingListener struct {
	mu      sync.Mutex
	changes []Change
}

var _ Listener = (*recordingListener)(nil)

func (l *recordingListener) OwnershipChanged(change Change) {
	l.mu.Lock()
	l.changes = append(l.changes, change)
	l.mu.Unlock()
}

func (l *recordingListener) snapshot() []Change {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Change(nil), l.changes...)
}

// faultyListener panics on its first call and records afterwards.
type faultyListener struct {
	recordingListener
	calls *atomic.Uint64
}

func newFaultyListener() *faultyListener {
	return &faultyListener{calls: atomic.NewUint64(0)}
}

func (l *faultyListener) OwnershipChanged(change Change) {
	if l.calls.Inc() == 1 {
		panic("listener exploded")
	}
	l.recordingListener.OwnershipChanged(change)
}

// silentMembership reports liveness without publishing events, so only the
// audit can observe its changes.
type silentMembership struct {
	mu      sync.Mutex
	local   cluster.Member
	members []cluster.Member
}

var _ cluster.Membership = (*silentMembership)(nil)

func newSilentMembership(local cluster.Member, peers ...cluster.Member) *silentMembership {
	return &silentMembership{
		local:   local,
		members: append([]cluster.Member{local}, peers...),
	}
}

func (m *silentMembership) Join(context.Context) error {
	return nil
}

func (m *silentMembership) Leave(context.Context) error {
	return nil
}

func (m *silentMembership) Members() []cluster.Member {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]cluster.Member(nil), m.members...)
}

func (m *silentMembership) Events() <-chan cluster.Event {
	return nil
}

func (m *silentMembership) LocalMember() cluster.Member {
	return m.local
}

func (m *silentMembership) drop(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := make([]cluster.Member, 0, len(m.members))
	for _, member := range m.members {
		if member.Name == name {
			continue
		}
		kept = append(kept, member)
	}
	m.members = kept
}
