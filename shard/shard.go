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

// Package shard hosts data tree partitions behind single-writer command
// loops. Each Shard owns one tree.Store, serializes every mutation through
// its mailbox, and optionally journals committed modifications so the tree
// can be rebuilt by replay after a restart. The ShardManager supervises a
// set of named shards and restarts or stops them on failure.
package shard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/treestore/errors"
	"github.com/tochemey/treestore/eventstream"
	"github.com/tochemey/treestore/future"
	"github.com/tochemey/treestore/internal/metric"
	"github.com/tochemey/treestore/internal/queue"
	"github.com/tochemey/treestore/internal/validation"
	"github.com/tochemey/treestore/internal/xsync"
	"github.com/tochemey/treestore/journal"
	"github.com/tochemey/treestore/log"
	"github.com/tochemey/treestore/supervisor"
	"github.com/tochemey/treestore/tree"
)

// shardNamePattern is the pattern a shard name must obey. The name doubles
// as the journal identifier, so it stays within word characters plus the
// separators common in hierarchical names.
const shardNamePattern = "^[a-zA-Z0-9][a-zA-Z0-9-_\\.]*$"

const (
	// mailboxIdle means the shard mailbox is not being processed
	mailboxIdle int32 = iota
	// mailboxBusy means the shard mailbox is being processed
	mailboxBusy
)

// State captures the lifecycle of a shard.
type State int32

const (
	// StateRecovering is the initial state. A persistent shard replays its
	// journal before serving; an ephemeral shard leaves it immediately.
	StateRecovering State = iota
	// StateOperational means the shard serves commands.
	StateOperational
	// StateStopped means the shard was shut down cleanly.
	StateStopped
	// StateFailed means the shard escalated a failure and refuses commands
	// until its supervisor restarts it.
	StateFailed
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateRecovering:
		return "Recovering"
	case StateOperational:
		return "Operational"
	case StateStopped:
		return "Stopped"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// modificationApplier is the engine hook recovery needs: apply a decoded
// modification directly, without running the commit protocol again. Stores
// backing a persistent shard must implement it.
type modificationApplier interface {
	ApplyModification(modification *tree.Modification) error
}

// pendingCommit tracks a forwarded commit between its registration and the
// final continuation that resolves it.
type pendingCommit struct {
	cmd     *ForwardCommit
	cohort  tree.CommitCohort
	replyTo future.Completable[Reply]
	since   time.Time
}

// appendRequest is one unit of work for the journal appender goroutine.
type appendRequest struct {
	key     string
	data    []byte
	replyTo future.Completable[Reply]
}

// Shard owns one data tree partition. All tree mutations funnel through its
// command loop, one at a time, so shard state needs no locks: the pending
// table, the replay dedup set and the schema are touched only by the loop.
//
// A Shard is created with NewShard, started with Start and stopped with
// Stop. Start after Stop re-initializes the shard and, when persistent,
// rebuilds the tree by replaying the journal.
type Shard struct {
	name  string
	store tree.Store

	journal         journal.Store
	persistent      bool
	persistenceMode *bool
	applier         modificationApplier

	mailbox         mailbox
	bounded         bool
	mailboxCapacity int
	processing      *atomic.Int32
	state           *atomic.Int32
	started         *atomic.Bool

	// owned by the command loop
	pending      map[string]*pendingCommit
	replayedKeys map[string]struct{}
	schema       tree.Schema

	handles     *xsync.Map[string, any]
	appendQueue *queue.Queue[*appendRequest]
	appenderWG  sync.WaitGroup

	events     eventstream.Stream
	ownsEvents bool
	logger     log.Logger
	stats      *ShardStats

	instruments   *metric.ShardMetric
	metricReg     otelmetric.Registration
	recordOptions []otelmetric.RecordOption
}

// NewShard creates a shard over the given store. The name must match
// ^[a-zA-Z0-9][a-zA-Z0-9-_\.]*$ and doubles as the journal identifier.
// With a journal configured the shard defaults to persistent commits; use
// WithPersistence to override. A persistent shard requires a store that can
// re-apply decoded modifications during recovery.
func NewShard(name string, store tree.Store, opts ...Option) (*Shard, error) {
	s := &Shard{
		name:   strings.TrimSpace(name),
		store:  store,
		logger: log.DefaultLogger,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.persistent = s.journal != nil
	if s.persistenceMode != nil {
		s.persistent = *s.persistenceMode
	}

	var applier modificationApplier
	applierOK := true
	if s.persistent && store != nil {
		applier, applierOK = store.(modificationApplier)
	}

	if err := validation.New(validation.FailFast()).
		AddValidator(validation.NewPatternValidator(shardNamePattern, s.name, gerrors.ErrInvalidShardName)).
		AddAssertion(store != nil, "the store is required").
		AddAssertion(!s.persistent || s.journal != nil, "persistence requires a journal store").
		AddAssertion(applierOK, "the store cannot re-apply modifications which persistence requires").
		AddAssertion(!s.bounded || s.mailboxCapacity > 0, "the mailbox capacity must be positive").
		Validate(); err != nil {
		return nil, err
	}

	s.applier = applier
	if s.events == nil {
		s.events = eventstream.New()
		s.ownsEvents = true
	}

	s.processing = atomic.NewInt32(mailboxIdle)
	s.state = atomic.NewInt32(int32(StateRecovering))
	s.started = atomic.NewBool(false)
	s.stats = newShardStats()
	s.handles = xsync.NewMap[string, any]()
	s.reinit()
	return s, nil
}

// reinit builds the structures a fresh run needs. It runs at construction
// and again on every Start so a restarted shard does not see the disposed
// mailbox or the closed append queue of its previous run.
func (s *Shard) reinit() {
	if s.bounded {
		s.mailbox = newBoundedMailbox(s.mailboxCapacity)
	} else {
		s.mailbox = newUnboundedMailbox()
	}
	s.processing.Store(mailboxIdle)
	s.pending = make(map[string]*pendingCommit)
	s.replayedKeys = make(map[string]struct{})
	s.appendQueue = queue.New[*appendRequest]()
}

// Name returns the shard name.
func (s *Shard) Name() string {
	return s.name
}

// State returns the current lifecycle state.
func (s *Shard) State() State {
	return State(s.state.Load())
}

// Persistent reports whether commits are journaled.
func (s *Shard) Persistent() bool {
	return s.persistent
}

// Stats returns the live shard counters. Counters are cumulative across
// restarts of the same Shard instance.
func (s *Shard) Stats() *ShardStats {
	return s.stats
}

// EventsStream returns the stream carrying this shard's lifecycle, failure
// and deadletter events.
func (s *Shard) EventsStream() eventstream.Stream {
	return s.events
}

// Handle returns the live handle registered under the given key (tx/<id>,
// chain/<id> or listener/<id>) when it exists.
func (s *Shard) Handle(key string) (any, bool) {
	return s.handles.Get(key)
}

// Start brings the shard up. An ephemeral shard becomes operational
// immediately. A persistent shard connects its journal and replays it in
// the background; until the replay finishes the shard rejects external
// commands with errors.ErrShardNotReady. Canceling ctx while the replay is
// still running aborts it and fails the shard.
//
// Start on a running shard is a no-op.
func (s *Shard) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return nil
	}

	s.logger.Infof("starting shard=(%s)...", s.name)
	s.state.Store(int32(StateRecovering))
	s.reinit()

	if err := s.registerMetrics(); err != nil {
		s.started.Store(false)
		return fmt.Errorf("registering shard=(%s) metrics: %w", s.name, err)
	}

	if !s.persistent {
		s.transition(StateOperational)
		s.logger.Infof("shard=(%s) started", s.name)
		return nil
	}

	if err := s.journal.Connect(ctx); err != nil {
		s.unregisterMetrics()
		s.started.Store(false)
		return fmt.Errorf("connecting shard=(%s) journal: %w", s.name, err)
	}

	s.appenderWG.Add(1)
	go s.appendLoop()
	go s.runRecovery(ctx)
	s.logger.Infof("shard=(%s) started, recovering from journal...", s.name)
	return nil
}

// Stop shuts the shard down. It waits for in-flight work, the mailbox, the
// pending commits and the append queue, to drain within the ctx budget,
// then closes every live handle, stops the appender and disconnects the
// journal. Stop on a stopped shard is a no-op.
func (s *Shard) Stop(ctx context.Context) error {
	if !s.started.CompareAndSwap(true, false) {
		return nil
	}

	s.logger.Infof("stopping shard=(%s)...", s.name)

	// reject new work right away, then let what was already accepted resolve
	s.transition(StateStopped)

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
wait:
	for !s.drained() {
		select {
		case <-ctx.Done():
			s.logger.Warnf("shard=(%s) stopping with work still in flight: %v", s.name, ctx.Err())
			break wait
		case <-ticker.C:
		}
	}

	s.closeHandles(ctx)

	var err error
	if s.persistent {
		s.appendQueue.Close()
		s.appenderWG.Wait()
		if derr := s.journal.Disconnect(ctx); derr != nil {
			err = fmt.Errorf("disconnecting shard=(%s) journal: %w", s.name, derr)
		}
	}

	s.unregisterMetrics()
	s.mailbox.Dispose()
	if s.ownsEvents {
		s.events.Close()
	}
	s.logger.Infof("shard=(%s) stopped", s.name)
	return err
}

// Restart stops the shard and starts it again. A persistent shard rebuilds
// its tree by replaying the journal.
func (s *Shard) Restart(ctx context.Context) error {
	if err := s.Stop(ctx); err != nil {
		return err
	}
	return s.Start(ctx)
}

// drained reports whether no work is left in the shard pipeline. The
// processing flag check matters: a command already dequeued but still in
// its handler is invisible to the queue lengths.
func (s *Shard) drained() bool {
	return s.processing.Load() == mailboxIdle &&
		s.mailbox.Len() == 0 &&
		s.stats.Pending() == 0 &&
		s.appendQueue.Len() == 0
}

// closeHandles retires every live transaction, chain and listener handle.
func (s *Shard) closeHandles(ctx context.Context) {
	for _, value := range s.handles.Values() {
		switch handle := value.(type) {
		case *TransactionHandle:
			_ = handle.Abort(ctx)
		case *TransactionChainHandle:
			_ = handle.Close()
		case *ListenerRegistrationHandle:
			handle.Close()
		}
	}
	s.handles.Reset()
}

// Tell submits a command without waiting for a reply. Commands the shard
// cannot accept are recorded as deadletters.
func (s *Shard) Tell(cmd Command) {
	if cmd == nil {
		s.deadletter(nil, gerrors.ErrMissingCommand)
		return
	}
	if err := s.acceptExternal(cmd); err != nil {
		s.deadletter(cmd, err)
		return
	}
	if err := s.mailbox.Enqueue(&processContext{cmd: cmd}); err != nil {
		s.deadletter(cmd, err)
		return
	}
	s.schedule()
}

// Ask submits a command and waits for its reply until ctx expires. The
// command is still processed when ctx expires first; only the wait is
// abandoned.
func (s *Shard) Ask(ctx context.Context, cmd Command) (Reply, error) {
	if cmd == nil {
		return nil, gerrors.ErrMissingCommand
	}
	if err := s.acceptExternal(cmd); err != nil {
		return nil, err
	}
	receiver := future.NewCompletable[Reply]()
	if err := s.mailbox.Enqueue(&processContext{cmd: cmd, replyTo: receiver}); err != nil {
		return nil, err
	}
	s.schedule()
	return receiver.Future().Await(ctx)
}

// acceptExternal gates externally submitted commands on the shard state.
// Schema updates pass the recovery gate because they mutate no tree state
// and a shard replaying its journal must not lose them.
func (s *Shard) acceptExternal(cmd Command) error {
	switch State(s.state.Load()) {
	case StateOperational:
		return nil
	case StateRecovering:
		if _, ok := cmd.(*UpdateSchema); ok {
			return nil
		}
		return gerrors.ErrShardNotReady
	case StateFailed:
		return gerrors.ErrShardFailed
	default:
		return gerrors.ErrShardStopped
	}
}

// enqueueInternal feeds a continuation back into the loop. Continuations
// bypass the state gate so in-flight work can resolve even while the shard
// is stopping or failed.
func (s *Shard) enqueueInternal(cmd Command) {
	if err := s.mailbox.Enqueue(&processContext{cmd: cmd}); err != nil {
		s.logger.Warnf("shard=(%s) dropping continuation: %v", s.name, err)
		return
	}
	s.schedule()
}

// schedule runs the mailbox processing loop
func (s *Shard) schedule() {
	if s.processing.CompareAndSwap(mailboxIdle, mailboxBusy) {
		go s.drainMailbox()
	}
}

// drainMailbox processes the mailbox until it is empty, then flips back to
// idle and re-checks once to close the race with a concurrent enqueue.
func (s *Shard) drainMailbox() {
	for {
		if received := s.mailbox.Dequeue(); received != nil {
			s.invoke(received)
		}
		s.processing.Store(mailboxIdle)
		if !s.mailbox.IsEmpty() && s.processing.CompareAndSwap(mailboxIdle, mailboxBusy) {
			continue
		}
		return
	}
}

// invoke handles one command and turns a handler panic into a failed reply
// plus an escalation instead of a wedged loop.
func (s *Shard) invoke(received *processContext) {
	defer func() {
		if r := recover(); r != nil {
			err := gerrors.NewPanicError(fmt.Errorf("%v", r))
			s.replyError(received, err)
			s.escalate(err)
		}
	}()
	s.handle(received)
}

// handle dispatches one command. Externally submitted commands were gated
// at submission time, but the shard can fail between submission and
// processing, so public commands re-check for the failed state here.
func (s *Shard) handle(received *processContext) {
	switch cmd := received.cmd.(type) {
	case *appendAck:
		s.handleAppendAck(cmd)
	case *commitDone:
		s.handleCommitDone(cmd)
	case *applyRecovered:
		s.handleApplyRecovered(cmd)
	case *recoveryComplete:
		s.handleRecoveryComplete(cmd)
	default:
		if State(s.state.Load()) == StateFailed {
			s.replyError(received, gerrors.ErrShardFailed)
			return
		}
		switch cmd := received.cmd.(type) {
		case *CreateTransaction:
			s.handleCreateTransaction(received, cmd)
		case *CreateTransactionChain:
			s.handleCreateTransactionChain(received)
		case *ForwardCommit:
			s.handleForwardCommit(received, cmd)
		case *RegisterChangeListener:
			s.handleRegisterChangeListener(received, cmd)
		case *UpdateSchema:
			s.handleUpdateSchema(received, cmd)
		default:
			s.replyError(received, fmt.Errorf("unhandled command %T", received.cmd))
		}
	}
}

func (s *Shard) handleCreateTransaction(received *processContext, cmd *CreateTransaction) {
	id := strings.TrimSpace(cmd.TransactionID)
	if id == "" {
		id = uuid.NewString()
	}
	key := transactionKey(id)
	if _, exists := s.handles.Get(key); exists {
		s.replyError(received, fmt.Errorf("transaction (%s): %w", id, gerrors.ErrHandleExists))
		return
	}
	handle := newTransactionHandle(s, id, s.store.NewReadWriteTransaction())
	s.handles.Set(key, handle)
	s.logger.Debugf("shard=(%s) created transaction=(%s)", s.name, id)
	s.reply(received, &TransactionCreated{Handle: handle})
}

func (s *Shard) handleCreateTransactionChain(received *processContext) {
	handle := newTransactionChainHandle(s, s.store.NewTransactionChain())
	s.handles.Set(chainKey(handle.id), handle)
	s.logger.Debugf("shard=(%s) created transaction chain=(%s)", s.name, handle.id)
	s.reply(received, &TransactionChainCreated{Handle: handle})
}

// handleForwardCommit is stage one of the commit pipeline: register the
// cohort under its commit key, then hand the envelope to the appender. The
// append acknowledgment re-enters the loop as an appendAck continuation.
// An ephemeral shard skips the appender and acknowledges immediately.
func (s *Shard) handleForwardCommit(received *processContext, cmd *ForwardCommit) {
	if cmd.Modification == nil || cmd.Cohort == nil {
		s.replyError(received, fmt.Errorf("%w: forward commit needs a modification and a cohort", gerrors.ErrMissingCommand))
		return
	}

	key, err := commitKey(cmd.Modification)
	if err != nil {
		s.replyError(received, fmt.Errorf("encoding modification: %w", err))
		return
	}

	if _, inFlight := s.pending[key]; inFlight {
		s.replyError(received, gerrors.ErrCommitInFlight)
		return
	}

	s.pending[key] = &pendingCommit{
		cmd:     cmd,
		cohort:  cmd.Cohort,
		replyTo: received.replyTo,
		since:   time.Now(),
	}
	s.stats.pending.Inc()

	if !s.persistent {
		s.enqueueInternal(&appendAck{key: key, replyTo: received.replyTo})
		return
	}

	// the commit key is the canonical encoding, so the envelope payload
	// reuses its bytes instead of marshaling the modification twice
	envelope := encodeEnvelope(key, []byte(key), true)
	s.appendQueue.Push(&appendRequest{key: key, data: envelope, replyTo: received.replyTo})
}

// handleAppendAck is stage two: drop the pending entry and run the cohort
// commit on a worker goroutine. A missing entry is always an error, the
// table is the single source of truth for in-flight commits.
func (s *Shard) handleAppendAck(ack *appendAck) {
	entry, found := s.pending[ack.key]
	fingerprint := keyFingerprint(ack.key)

	if ack.err != nil {
		if found {
			delete(s.pending, ack.key)
			s.stats.pending.Dec()
			cohort := entry.cohort
			go func() {
				_ = cohort.Abort(context.Background())
			}()
		}
		s.stats.failed.Inc()
		commitErr := gerrors.NewCommitError(fingerprint, fmt.Errorf("journal append: %w", ack.err))
		s.logger.Errorf("shard=(%s) %v", s.name, commitErr)
		if ack.replyTo != nil {
			ack.replyTo.Failure(commitErr)
			return
		}
		var cmd Command
		if found {
			cmd = entry.cmd
		}
		s.deadletter(cmd, commitErr)
		return
	}

	if !found {
		s.stats.failed.Inc()
		s.logger.Errorf("shard=(%s) commit (key=%016x): %v", s.name, fingerprint, gerrors.ErrCommitNotPending)
		if ack.replyTo != nil {
			ack.replyTo.Failure(gerrors.ErrCommitNotPending)
			return
		}
		s.deadletter(nil, gerrors.ErrCommitNotPending)
		return
	}

	delete(s.pending, ack.key)
	go s.runCommit(ack.key, entry)
}

// handleCommitDone is the final stage: resolve the caller and the counters.
func (s *Shard) handleCommitDone(done *commitDone) {
	s.stats.pending.Dec()
	fingerprint := keyFingerprint(done.key)

	if done.err != nil {
		s.stats.failed.Inc()
		commitErr := gerrors.NewCommitError(fingerprint, done.err)
		s.logger.Errorf("shard=(%s) %v", s.name, commitErr)
		if done.replyTo != nil {
			done.replyTo.Failure(commitErr)
		} else {
			s.deadletter(nil, commitErr)
		}
		if done.panicked {
			s.escalate(commitErr)
		}
		return
	}

	s.stats.committed.Inc()
	s.stats.lastCommitUnixNano.Store(time.Now().UnixNano())
	if s.instruments != nil {
		s.instruments.CommitDuration().Record(context.Background(), time.Since(done.since).Milliseconds(), s.recordOptions...)
	}
	if done.replyTo != nil {
		done.replyTo.Success(&CommitResult{})
	}
	s.logger.Debugf("shard=(%s) committed modification (key=%016x)", s.name, fingerprint)
}

func (s *Shard) handleRegisterChangeListener(received *processContext, cmd *RegisterChangeListener) {
	if cmd.Listener == nil {
		s.replyError(received, gerrors.ErrMissingListener)
		return
	}
	if s.schema == nil {
		s.replyError(received, gerrors.ErrMissingSchema)
		return
	}

	proxy := newChangeListenerProxy(s.name, cmd.Listener, s.schema, s.logger)
	registration, err := s.store.RegisterChangeListener(cmd.Path, cmd.Scope, proxy)
	if err != nil {
		proxy.close()
		s.replyError(received, err)
		return
	}

	handle := newListenerRegistrationHandle(s, registration, proxy)
	s.handles.Set(listenerKey(handle.id), handle)
	s.logger.Debugf("shard=(%s) registered change listener=(%s) path=(%s)", s.name, handle.id, cmd.Path.String())
	s.reply(received, &ListenerRegistered{Registration: handle})
}

func (s *Shard) handleUpdateSchema(received *processContext, cmd *UpdateSchema) {
	if cmd.Schema == nil {
		s.logger.Warnf("shard=(%s) ignoring nil schema update", s.name)
		s.reply(received, nil)
		return
	}

	s.schema = cmd.Schema
	s.store.OnSchemaUpdated(cmd.Schema)
	for _, value := range s.handles.Values() {
		if handle, ok := value.(*ListenerRegistrationHandle); ok {
			handle.proxy.updateSchema(cmd.Schema)
		}
	}
	s.logger.Infof("shard=(%s) schema updated to (%s)", s.name, cmd.Schema.SchemaID())
	s.reply(received, nil)
}

// handleApplyRecovered applies one replayed journal entry. Entries whose
// commit key was already applied in this replay pass are skipped, the
// journal may hold the same modification more than once after retries.
func (s *Shard) handleApplyRecovered(cmd *applyRecovered) {
	if State(s.state.Load()) != StateRecovering {
		return
	}
	if _, seen := s.replayedKeys[cmd.key]; seen {
		s.stats.replayedDuplicates.Inc()
		s.logger.Warnf("shard=(%s) skipping duplicate journal entry (sequence=%d key=%016x)", s.name, cmd.sequence, keyFingerprint(cmd.key))
		return
	}
	s.replayedKeys[cmd.key] = struct{}{}
	if err := s.applier.ApplyModification(cmd.modification); err != nil {
		s.escalate(fmt.Errorf("replaying journal entry (sequence=%d): %w", cmd.sequence, err))
		return
	}
	s.stats.replayed.Inc()
}

func (s *Shard) handleRecoveryComplete(cmd *recoveryComplete) {
	if State(s.state.Load()) != StateRecovering {
		return
	}
	if cmd.err != nil {
		s.escalate(fmt.Errorf("journal replay: %w", cmd.err))
		return
	}
	// the dedup set only serves one replay pass
	s.replayedKeys = make(map[string]struct{})
	s.transition(StateOperational)
	s.logger.Infof("shard=(%s) recovered %d journal entries (%d duplicates skipped) in %v",
		s.name, s.stats.Replayed(), s.stats.ReplayedDuplicates(), time.Since(cmd.started))
}

// runCommit drives a cohort commit on a worker goroutine and re-enters the
// loop with the outcome. The loop itself never blocks on engine work.
func (s *Shard) runCommit(key string, entry *pendingCommit) {
	var err error
	panicked := false
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicked = true
				err = gerrors.NewPanicError(fmt.Errorf("%v", r))
			}
		}()
		err = entry.cohort.Commit(context.Background())
	}()
	s.enqueueInternal(&commitDone{
		key:      key,
		since:    entry.since,
		err:      err,
		panicked: panicked,
		replyTo:  entry.replyTo,
	})
}

// appendLoop is the journal appender. It serializes journal writes off the
// command loop and feeds every outcome back as an appendAck continuation.
func (s *Shard) appendLoop() {
	defer s.appenderWG.Done()
	for {
		request, ok := s.appendQueue.Wait()
		if !ok {
			return
		}
		_, err := s.journal.Append(context.Background(), s.name, request.data)
		s.enqueueInternal(&appendAck{key: request.key, err: err, replyTo: request.replyTo})
	}
}

// runRecovery replays the journal and streams every decoded entry into the
// loop, followed by a recoveryComplete marker. Decoding failures abort the
// replay, a journal this shard cannot read means its tree cannot be trusted.
func (s *Shard) runRecovery(ctx context.Context) {
	started := time.Now()
	err := s.journal.Replay(ctx, s.name, func(entry *journal.Entry) error {
		key, payload, _, derr := decodeEnvelope(entry.Payload)
		if derr != nil {
			return fmt.Errorf("journal entry (sequence=%d): %w", entry.SequenceNumber, derr)
		}
		modification := tree.NewModification()
		if derr := modification.UnmarshalBinary(payload); derr != nil {
			return fmt.Errorf("journal entry (sequence=%d): %w", entry.SequenceNumber, derr)
		}
		s.enqueueInternal(&applyRecovered{key: key, modification: modification, sequence: entry.SequenceNumber})
		return nil
	})
	s.enqueueInternal(&recoveryComplete{err: err, started: started})
}

// transition swaps the shard state and publishes the change.
func (s *Shard) transition(to State) {
	old := State(s.state.Swap(int32(to)))
	if old == to {
		return
	}
	s.logger.Infof("shard=(%s) state %s -> %s", s.name, old, to)
	s.events.Publish(TopicShardLifecycle, &LifecycleEvent{ShardName: s.name, State: to})
}

// escalate marks the shard failed and hands the decision to the supervisor
// through the failures topic. Commits still waiting on their journal append
// are failed out so callers unblock and a later Stop can drain.
func (s *Shard) escalate(cause error) {
	for key, entry := range s.pending {
		delete(s.pending, key)
		s.stats.pending.Dec()
		s.stats.failed.Inc()
		if entry.replyTo != nil {
			entry.replyTo.Failure(gerrors.NewCommitError(keyFingerprint(key), cause))
		}
		cohort := entry.cohort
		go func() {
			_ = cohort.Abort(context.Background())
		}()
	}

	s.transition(StateFailed)
	s.logger.Errorf("shard=(%s) failed: %v", s.name, cause)
	s.events.Publish(TopicShardFailures, &FailureEvent{
		ShardName: s.name,
		Cause:     cause,
		Directive: supervisor.EscalateDirective,
	})
}

// deadletter records a command the shard could not serve.
func (s *Shard) deadletter(cmd Command, reason error) {
	s.stats.deadletters.Inc()
	s.logger.Warnf("shard=(%s) deadletter: %v", s.name, reason)
	s.events.Publish(TopicDeadletters, &Deadletter{ShardName: s.name, Command: cmd, Reason: reason})
}

// reply resolves the caller future when the command was asked.
func (s *Shard) reply(received *processContext, reply Reply) {
	if received.replyTo != nil {
		received.replyTo.Success(reply)
	}
}

// replyError fails the caller future when the command was asked, otherwise
// the outcome would be silent so it becomes a deadletter.
func (s *Shard) replyError(received *processContext, err error) {
	if received.replyTo != nil {
		received.replyTo.Failure(err)
		return
	}
	s.deadletter(received.cmd, err)
}

// retireHandle drops a handle from the registry.
func (s *Shard) retireHandle(key string) {
	s.handles.Delete(key)
}

func transactionKey(id string) string {
	return "tx/" + id
}

func chainKey(id string) string {
	return "chain/" + id
}

func listenerKey(id string) string {
	return "listener/" + id
}

// registerMetrics wires the shard counters into the ambient meter provider.
// Without a host-installed provider the instruments are no-ops.
func (s *Shard) registerMetrics() error {
	meter := metric.NewProvider().Meter()
	instruments, err := metric.NewShardMetric(meter)
	if err != nil {
		return err
	}

	attributes := otelmetric.WithAttributes(attribute.String("shard.name", s.name))
	observeOptions := []otelmetric.ObserveOption{attributes}
	registration, err := meter.RegisterCallback(func(_ context.Context, observer otelmetric.Observer) error {
		snapshot := s.stats.Snapshot()
		observer.ObserveInt64(instruments.CommittedCount(), int64(snapshot.Committed), observeOptions...)
		observer.ObserveInt64(instruments.FailedCount(), int64(snapshot.Failed), observeOptions...)
		observer.ObserveInt64(instruments.ReplayedCount(), int64(snapshot.Replayed), observeOptions...)
		observer.ObserveInt64(instruments.DeadletterCount(), int64(snapshot.Deadletters), observeOptions...)
		observer.ObserveInt64(instruments.PendingCount(), snapshot.Pending, observeOptions...)
		return nil
	},
		instruments.CommittedCount(),
		instruments.FailedCount(),
		instruments.ReplayedCount(),
		instruments.DeadletterCount(),
		instruments.PendingCount(),
	)
	if err != nil {
		return err
	}

	s.instruments = instruments
	s.metricReg = registration
	s.recordOptions = []otelmetric.RecordOption{attributes}
	return nil
}

func (s *Shard) unregisterMetrics() {
	if s.metricReg != nil {
		_ = s.metricReg.Unregister()
		s.metricReg = nil
	}
}
