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
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/flowchartsman/retry"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	gerrors "github.com/tochemey/treestore/errors"
	"github.com/tochemey/treestore/eventstream"
	"github.com/tochemey/treestore/internal/metric"
	"github.com/tochemey/treestore/internal/xsync"
	"github.com/tochemey/treestore/log"
	"github.com/tochemey/treestore/supervisor"
	"github.com/tochemey/treestore/tree"
)

// DefaultShardName is the name hosts use when they only need one shard.
const DefaultShardName = "default"

const (
	// failurePollInterval is how often the manager drains the failures topic.
	failurePollInterval = 50 * time.Millisecond
	// defaultMaxRestarts bounds restart attempts when the supervisor does
	// not set a retry budget.
	defaultMaxRestarts = 3
	// defaultRestartDelay is the backoff floor between restart attempts.
	defaultRestartDelay = 100 * time.Millisecond
	// defaultRestartTimeout bounds one whole restart cycle when the
	// supervisor does not set a retry window.
	defaultRestartTimeout = 30 * time.Second
)

// ManagerOption configures a ShardManager at construction time.
type ManagerOption func(*ShardManager)

// WithManagerLogger sets the manager logger. Shards added without their own
// logger inherit it.
func WithManagerLogger(logger log.Logger) ManagerOption {
	return func(m *ShardManager) {
		m.logger = logger
	}
}

// WithSupervisor sets the supervisor consulted when a shard fails. The
// default restarts the failing shard with a bounded retry budget.
func WithSupervisor(sup *supervisor.Supervisor) ManagerOption {
	return func(m *ShardManager) {
		m.supervisor = sup
	}
}

// ShardManager owns a set of named shards sharing one event stream. It
// watches the failures topic and applies the configured supervisor
// directive, restarting failed shards with bounded retries or stopping
// them. It also fans schema updates out to every shard, including ones
// added later.
type ShardManager struct {
	shards     *xsync.Map[string, *Shard]
	supervisor *supervisor.Supervisor
	events     eventstream.Stream
	logger     log.Logger

	mu     sync.Mutex
	schema tree.Schema

	subscriber eventstream.Subscriber
	stopSignal chan struct{}
	watcherWG  sync.WaitGroup

	started   *atomic.Bool
	restarts  *atomic.Uint64
	startedAt *atomic.Int64

	instruments *metric.ManagerMetric
	metricReg   otelmetric.Registration
}

// NewShardManager creates a shard manager. Add shards with AddShard, then
// bring them all up with Start.
func NewShardManager(opts ...ManagerOption) *ShardManager {
	m := &ShardManager{
		shards:    xsync.NewMap[string, *Shard](),
		events:    eventstream.New(),
		logger:    log.DefaultLogger,
		started:   atomic.NewBool(false),
		restarts:  atomic.NewUint64(0),
		startedAt: atomic.NewInt64(0),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.supervisor == nil {
		m.supervisor = supervisor.New(
			supervisor.WithAnyErrorDirective(supervisor.RestartDirective),
			supervisor.WithRetry(defaultMaxRestarts, defaultRestartTimeout),
		)
	}
	return m
}

// AddShard creates a shard under the given name and registers it with the
// manager. The shard shares the manager event stream, inherits the manager
// schema when one was recorded, and starts immediately when the manager is
// already running.
func (m *ShardManager) AddShard(ctx context.Context, name string, store tree.Store, opts ...Option) (*Shard, error) {
	name = strings.TrimSpace(name)

	m.mu.Lock()
	if _, exists := m.shards.Get(name); exists {
		m.mu.Unlock()
		return nil, fmt.Errorf("shard (%s): %w", name, gerrors.ErrShardExists)
	}

	shardOpts := make([]Option, 0, len(opts)+3)
	shardOpts = append(shardOpts, WithLogger(m.logger))
	if m.schema != nil {
		shardOpts = append(shardOpts, WithSchema(m.schema))
	}
	shardOpts = append(shardOpts, opts...)
	// the manager stream always wins, failure watching depends on it
	shardOpts = append(shardOpts, WithEventsStream(m.events))

	sh, err := NewShard(name, store, shardOpts...)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.shards.Set(name, sh)
	m.mu.Unlock()

	if m.started.Load() {
		if err := sh.Start(ctx); err != nil {
			m.shards.Delete(name)
			return nil, err
		}
	}
	return sh, nil
}

// RemoveShard stops the named shard and drops it from the manager.
func (m *ShardManager) RemoveShard(ctx context.Context, name string) error {
	sh, ok := m.shards.Get(name)
	if !ok {
		return fmt.Errorf("shard (%s): %w", name, gerrors.ErrShardNotFound)
	}
	m.shards.Delete(name)
	return sh.Stop(ctx)
}

// Shard returns the named shard.
func (m *ShardManager) Shard(name string) (*Shard, error) {
	sh, ok := m.shards.Get(name)
	if !ok {
		return nil, fmt.Errorf("shard (%s): %w", name, gerrors.ErrShardNotFound)
	}
	return sh, nil
}

// Shards returns all registered shards.
func (m *ShardManager) Shards() []*Shard {
	return m.shards.Values()
}

// EventsStream returns the stream every managed shard publishes on.
func (m *ShardManager) EventsStream() eventstream.Stream {
	return m.events
}

// Restarts returns how many shard restarts the manager has performed.
func (m *ShardManager) Restarts() uint64 {
	return m.restarts.Load()
}

// UpdateSchema fans the schema out to every registered shard and records it
// for shards added later.
func (m *ShardManager) UpdateSchema(schema tree.Schema) {
	m.mu.Lock()
	m.schema = schema
	m.mu.Unlock()

	for _, sh := range m.shards.Values() {
		sh.Tell(&UpdateSchema{Schema: schema})
	}
}

// Start brings every registered shard up concurrently and starts watching
// the failures topic. When any shard fails to start the ones already up are
// stopped again. Start on a running manager is a no-op.
func (m *ShardManager) Start(ctx context.Context) error {
	if !m.started.CompareAndSwap(false, true) {
		return nil
	}

	m.logger.Info("starting shard manager...")
	m.startedAt.Store(time.Now().UnixNano())

	if err := m.registerMetrics(); err != nil {
		m.started.Store(false)
		return fmt.Errorf("registering shard manager metrics: %w", err)
	}

	m.subscriber = m.events.AddSubscriber()
	m.events.Subscribe(m.subscriber, TopicShardFailures)
	m.stopSignal = make(chan struct{})
	m.watcherWG.Add(1)
	go m.watchFailures()

	eg, egCtx := errgroup.WithContext(ctx)
	for _, sh := range m.shards.Values() {
		sh := sh
		eg.Go(func() error {
			return sh.Start(egCtx)
		})
	}
	if err := eg.Wait(); err != nil {
		m.logger.Errorf("shard manager failed to start: %v", err)
		_ = m.Stop(ctx)
		return err
	}

	m.logger.Infof("shard manager started with %d shard(s)", m.shards.Len())
	return nil
}

// Stop stops watching failures and shuts every shard down concurrently
// within the ctx budget. Stop on a stopped manager is a no-op.
func (m *ShardManager) Stop(ctx context.Context) error {
	if !m.started.CompareAndSwap(true, false) {
		return nil
	}

	m.logger.Info("stopping shard manager...")
	m.startedAt.Store(0)

	close(m.stopSignal)
	m.watcherWG.Wait()
	m.events.Unsubscribe(m.subscriber, TopicShardFailures)
	m.events.RemoveSubscriber(m.subscriber)

	eg := new(errgroup.Group)
	for _, sh := range m.shards.Values() {
		sh := sh
		eg.Go(func() error {
			return sh.Stop(ctx)
		})
	}
	err := eg.Wait()

	m.unregisterMetrics()
	m.events.Close()
	m.logger.Info("shard manager stopped")
	return err
}

// watchFailures drains the failures topic on a short interval and feeds
// every event through the supervisor.
func (m *ShardManager) watchFailures() {
	defer m.watcherWG.Done()
	ticker := time.NewTicker(failurePollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopSignal:
			return
		case <-ticker.C:
			for message := range m.subscriber.Iterator() {
				failure, ok := message.Payload().(*FailureEvent)
				if !ok {
					continue
				}
				m.superviseFailure(failure)
			}
		}
	}
}

// superviseFailure resolves the directive for one shard failure and applies
// it, honoring the one-for-all strategy by widening the action to every
// shard.
func (m *ShardManager) superviseFailure(failure *FailureEvent) {
	sh, ok := m.shards.Get(failure.ShardName)
	if !ok {
		return
	}
	// a stale event for a shard that was already restarted needs no action
	if sh.State() != StateFailed {
		return
	}

	directive, ok := m.supervisor.Directive(failure.Cause)
	if !ok {
		directive, ok = m.supervisor.AnyErrorDirective()
		if !ok {
			directive = supervisor.RestartDirective
		}
	}

	m.logger.Infof("shard=(%s) failed (%v), applying %s directive", failure.ShardName, failure.Cause, directive)

	targets := []*Shard{sh}
	if m.supervisor.Strategy() == supervisor.OneForAllStrategy {
		targets = m.shards.Values()
	}

	switch directive {
	case supervisor.RestartDirective:
		for _, target := range targets {
			m.restartShard(target)
		}
	case supervisor.ResumeDirective:
		m.logger.Warnf("shard=(%s) left as-is by the resume directive", failure.ShardName)
	default:
		// stop and escalate both take the shard out of service; with
		// nothing above the manager, escalate cannot travel further
		for _, target := range targets {
			m.stopShard(target)
		}
	}
}

// restartShard restarts one shard with bounded retries. When the budget is
// spent the shard is stopped for good.
func (m *ShardManager) restartShard(sh *Shard) {
	maxRetries := int(m.supervisor.MaxRetries())
	if maxRetries <= 0 {
		maxRetries = defaultMaxRestarts
	}
	timeout := m.supervisor.Timeout()
	if timeout <= 0 {
		timeout = defaultRestartTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	retrier := retry.NewRetrier(maxRetries, defaultRestartDelay, timeout)
	err := retrier.RunContext(ctx, func(ctx context.Context) error {
		return sh.Restart(ctx)
	})
	if err != nil {
		m.logger.Errorf("giving up on shard=(%s) after %d restart attempts: %v", sh.Name(), maxRetries, err)
		m.stopShard(sh)
		return
	}

	m.restarts.Inc()
	m.logger.Infof("shard=(%s) restarted", sh.Name())
}

func (m *ShardManager) stopShard(sh *Shard) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultRestartTimeout)
	defer cancel()
	if err := sh.Stop(ctx); err != nil {
		m.logger.Errorf("stopping shard=(%s): %v", sh.Name(), err)
	}
}

// registerMetrics wires the manager gauges into the ambient meter provider.
func (m *ShardManager) registerMetrics() error {
	meter := metric.NewProvider().Meter()
	instruments, err := metric.NewManagerMetric(meter)
	if err != nil {
		return err
	}

	observeOptions := []otelmetric.ObserveOption{
		otelmetric.WithAttributes(attribute.String("manager.default_shard", DefaultShardName)),
	}
	registration, err := meter.RegisterCallback(func(_ context.Context, observer otelmetric.Observer) error {
		observer.ObserveInt64(instruments.ShardsCount(), int64(m.shards.Len()), observeOptions...)
		observer.ObserveInt64(instruments.RestartsCount(), int64(m.restarts.Load()), observeOptions...)
		if startedAt := m.startedAt.Load(); startedAt > 0 {
			observer.ObserveInt64(instruments.Uptime(), int64(time.Since(time.Unix(0, startedAt)).Seconds()), observeOptions...)
		}
		return nil
	},
		instruments.ShardsCount(),
		instruments.RestartsCount(),
		instruments.Uptime(),
	)
	if err != nil {
		return err
	}

	m.instruments = instruments
	m.metricReg = registration
	return nil
}

func (m *ShardManager) unregisterMetrics() {
	if m.metricReg != nil {
		_ = m.metricReg.Unregister()
		m.metricReg = nil
	}
}
