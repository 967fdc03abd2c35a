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

package shard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/treestore/errors"
	"github.com/tochemey/treestore/journal"
	"github.com/tochemey/treestore/log"
	"github.com/tochemey/treestore/supervisor"
	"github.com/tochemey/treestore/tree"
	"github.com/tochemey/treestore/tree/memstore"
)

func TestShardManager(t *testing.T) {
	ctx := context.Background()

	t.Run("With lifecycle", func(t *testing.T) {
		manager := NewShardManager(WithManagerLogger(log.DiscardLogger))

		alpha, err := manager.AddShard(ctx, "alpha", memstore.New())
		require.NoError(t, err)
		bravo, err := manager.AddShard(ctx, "bravo", memstore.New(),
			WithJournal(journal.NewMemoryStore()))
		require.NoError(t, err)

		_, err = manager.AddShard(ctx, "alpha", memstore.New())
		require.ErrorIs(t, err, gerrors.ErrShardExists)

		require.NoError(t, manager.Start(ctx))
		awaitState(t, alpha, StateOperational)
		awaitState(t, bravo, StateOperational)

		found, err := manager.Shard("alpha")
		require.NoError(t, err)
		assert.Same(t, alpha, found)
		_, err = manager.Shard("zulu")
		require.ErrorIs(t, err, gerrors.ErrShardNotFound)
		assert.Len(t, manager.Shards(), 2)

		require.NoError(t, manager.Stop(ctx))
		assert.Equal(t, StateStopped, alpha.State())
		assert.Equal(t, StateStopped, bravo.State())
	})

	t.Run("With a shard added while running", func(t *testing.T) {
		manager := NewShardManager(WithManagerLogger(log.DiscardLogger))
		_, err := manager.AddShard(ctx, "alpha", memstore.New())
		require.NoError(t, err)
		require.NoError(t, manager.Start(ctx))

		late, err := manager.AddShard(ctx, "late", memstore.New())
		require.NoError(t, err)
		awaitState(t, late, StateOperational)
		require.NoError(t, manager.Stop(ctx))
	})

	t.Run("With remove shard", func(t *testing.T) {
		manager := NewShardManager(WithManagerLogger(log.DiscardLogger))
		alpha, err := manager.AddShard(ctx, "alpha", memstore.New())
		require.NoError(t, err)
		require.NoError(t, manager.Start(ctx))

		require.NoError(t, manager.RemoveShard(ctx, "alpha"))
		assert.Equal(t, StateStopped, alpha.State())
		_, err = manager.Shard("alpha")
		require.ErrorIs(t, err, gerrors.ErrShardNotFound)
		require.ErrorIs(t, manager.RemoveShard(ctx, "alpha"), gerrors.ErrShardNotFound)
		require.NoError(t, manager.Stop(ctx))
	})

	t.Run("With schema propagation", func(t *testing.T) {
		manager := NewShardManager(WithManagerLogger(log.DiscardLogger))
		manager.UpdateSchema(tree.StaticSchema("v1"))

		// the shard inherits the recorded schema at construction
		alpha, err := manager.AddShard(ctx, "alpha", memstore.New())
		require.NoError(t, err)
		require.NoError(t, manager.Start(ctx))

		reply, err := alpha.Ask(ctx, &RegisterChangeListener{
			Path:     tree.RootPath(),
			Scope:    tree.ScopeSubtree,
			Listener: newCaptureListener(),
		})
		require.NoError(t, err)
		registered, ok := reply.(*ListenerRegistered)
		require.True(t, ok)
		registration := registered.Registration
		assert.Equal(t, "v1", registration.Schema().SchemaID())

		// a later update reaches running shards
		manager.UpdateSchema(tree.StaticSchema("v2"))
		require.Eventually(t, func() bool {
			return registration.Schema().SchemaID() == "v2"
		}, time.Second, 10*time.Millisecond)

		require.NoError(t, manager.Stop(ctx))
	})

	t.Run("With a failed shard restarted", func(t *testing.T) {
		manager := NewShardManager(WithManagerLogger(log.DiscardLogger))
		ledger, err := manager.AddShard(ctx, "ledger", memstore.New())
		require.NoError(t, err)
		require.NoError(t, manager.Start(ctx))

		failShard(t, ctx, ledger)
		require.Eventually(t, func() bool {
			return ledger.State() == StateOperational && manager.Restarts() == 1
		}, 3*time.Second, 20*time.Millisecond)

		// the restarted shard serves commands again
		handle := createTransaction(t, ctx, ledger, "")
		require.NoError(t, handle.Abort(ctx))
		require.NoError(t, manager.Stop(ctx))
	})

	t.Run("With a failed shard stopped by directive", func(t *testing.T) {
		manager := NewShardManager(
			WithManagerLogger(log.DiscardLogger),
			WithSupervisor(supervisor.New(
				supervisor.WithAnyErrorDirective(supervisor.StopDirective))))
		ledger, err := manager.AddShard(ctx, "ledger", memstore.New())
		require.NoError(t, err)
		require.NoError(t, manager.Start(ctx))

		failShard(t, ctx, ledger)
		require.Eventually(t, func() bool {
			return ledger.State() == StateStopped
		}, 3*time.Second, 20*time.Millisecond)
		assert.Zero(t, manager.Restarts())
		require.NoError(t, manager.Stop(ctx))
	})
}

// failShard drives one panicking cohort through the shard so it escalates.
func failShard(t *testing.T, ctx context.Context, shard *Shard) {
	t.Helper()
	modification := tree.NewModification()
	modification.Write(tree.RootPath().Child("nodes"), []byte("up"))
	_, err := shard.Ask(ctx, &ForwardCommit{
		Modification: modification,
		Cohort:       &panicCohort{modification: modification},
	})
	require.Error(t, err)
	awaitState(t, shard, StateFailed)
}
