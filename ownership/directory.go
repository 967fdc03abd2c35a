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
	"fmt"
	"sync"
	"time"

	goset "github.com/deckarep/golang-set/v2"
	"github.com/reugn/go-quartz/job"
	quartzlogger "github.com/reugn/go-quartz/logger"
	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/atomic"

	"github.com/tochemey/treestore/cluster"
	gerrors "github.com/tochemey/treestore/errors"
	"github.com/tochemey/treestore/eventstream"
	"github.com/tochemey/treestore/internal/validation"
	"github.com/tochemey/treestore/log"
)

// DefaultAuditInterval is how often the audit job re-runs arbitration over
// every entity with at least one candidate.
const DefaultAuditInterval = 30 * time.Second

const auditJobKey = "ownership-audit"

// DirectoryOption configures the Directory.
type DirectoryOption func(directory *Directory)

// WithDirectoryLogger sets the directory logger.
func WithDirectoryLogger(logger log.Logger) DirectoryOption {
	return func(directory *Directory) {
		directory.logger = logger
	}
}

// WithAuditInterval overrides the audit period.
func WithAuditInterval(interval time.Duration) DirectoryOption {
	return func(directory *Directory) {
		directory.auditInterval = interval
	}
}

// WithEventsStream sets the stream arbitration decisions are published on.
func WithEventsStream(events eventstream.Stream) DirectoryOption {
	return func(directory *Directory) {
		directory.events = events
	}
}

// Directory is the authoritative arbitration state behind the ownership
// Service: per entity, the candidate roster in registration order and the
// current owner. The owner of an entity is its earliest registered candidate
// whose process is a live cluster member.
//
// Rosters change through candidate registration and withdrawal; liveness
// comes from the cluster membership, whose events channel the directory is
// the sole consumer of. A departed member loses all its candidacies. Every
// decision is handed synchronously to the attached services, in decision
// order, and published on the events stream when one is configured. The
// periodic audit job re-arbitrates everything and is the convergence
// backstop when liveness drifts without a membership event.
type Directory struct {
	mu sync.Mutex

	membership cluster.Membership
	logger     log.Logger
	events     eventstream.Stream

	// entity canonical string -> candidate processes in registration order
	rosters  map[string][]string
	entities map[string]Entity
	owners   map[string]string
	services map[string]*Service

	scheduler     quartz.Scheduler
	auditInterval time.Duration
	audits        *atomic.Uint64

	started    *atomic.Bool
	stopped    *atomic.Bool
	stopSignal chan struct{}
	watcherWG  sync.WaitGroup
}

// NewDirectory creates a Directory arbitrating over the given membership.
// The membership must be joined before Start is called.
func NewDirectory(membership cluster.Membership, opts ...DirectoryOption) (*Directory, error) {
	directory := &Directory{
		membership:    membership,
		logger:        log.DefaultLogger,
		rosters:       make(map[string][]string),
		entities:      make(map[string]Entity),
		owners:        make(map[string]string),
		services:      make(map[string]*Service),
		auditInterval: DefaultAuditInterval,
		audits:        atomic.NewUint64(0),
		started:       atomic.NewBool(false),
		stopped:       atomic.NewBool(false),
		stopSignal:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(directory)
	}

	if err := validation.New(validation.FailFast()).
		AddAssertion(membership != nil, "the membership is required").
		AddAssertion(directory.auditInterval > 0, "the audit interval must be positive").
		Validate(); err != nil {
		return nil, err
	}

	scheduler, err := quartz.NewStdScheduler(
		quartz.WithLogger(quartzlogger.NewSimpleLogger(nil, quartzlogger.LevelOff)))
	if err != nil {
		return nil, fmt.Errorf("ownership directory: %w", err)
	}
	directory.scheduler = scheduler
	return directory, nil
}

// Start launches the membership watcher and the periodic audit job.
func (d *Directory) Start(ctx context.Context) error {
	if d.stopped.Load() {
		return gerrors.ErrOwnershipClosed
	}
	if !d.started.CompareAndSwap(false, true) {
		return nil
	}

	d.logger.Infof("starting ownership directory (audit every %v)...", d.auditInterval)

	d.scheduler.Start(ctx)
	auditJob := job.NewFunctionJob[bool](func(context.Context) (bool, error) {
		d.Audit()
		return true, nil
	})
	detail := quartz.NewJobDetail(auditJob, quartz.NewJobKey(auditJobKey))
	if err := d.scheduler.ScheduleJob(detail, quartz.NewSimpleTrigger(d.auditInterval)); err != nil {
		d.scheduler.Stop()
		d.scheduler.Wait(ctx)
		d.started.Store(false)
		return fmt.Errorf("ownership directory: schedule audit: %w", err)
	}

	d.watcherWG.Add(1)
	go d.watchMembership()

	d.logger.Info("ownership directory started")
	return nil
}

// Stop closes the directory for good. Registrations and withdrawals are
// rejected afterwards; attached services close their own listeners.
func (d *Directory) Stop(ctx context.Context) error {
	if !d.stopped.CompareAndSwap(false, true) {
		return nil
	}
	if d.started.CompareAndSwap(true, false) {
		d.logger.Info("stopping ownership directory...")
		close(d.stopSignal)
		d.watcherWG.Wait()
		d.scheduler.Stop()
		d.scheduler.Wait(ctx)
		d.logger.Info("ownership directory stopped")
	}
	return nil
}

// RegisterCandidate appends the process to the entity candidate roster and
// re-arbitrates. Candidates rank by registration order. A process may hold
// at most one candidacy per entity.
func (d *Directory) RegisterCandidate(entity Entity, process string) error {
	if err := entity.Validate(); err != nil {
		return err
	}
	if process == "" {
		return fmt.Errorf("ownership directory: the candidate process is required")
	}
	if d.stopped.Load() {
		return gerrors.ErrOwnershipClosed
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	canonical := entity.String()
	for _, registered := range d.rosters[canonical] {
		if registered == process {
			return gerrors.NewCandidateAlreadyRegisteredError(canonical)
		}
	}
	d.entities[canonical] = entity
	d.rosters[canonical] = append(d.rosters[canonical], process)
	d.rearbitrateLocked(canonical)
	return nil
}

// WithdrawCandidate removes the process candidacy for the entity and
// re-arbitrates. Withdrawing an unknown candidacy is a no-op.
func (d *Directory) WithdrawCandidate(entity Entity, process string) {
	if d.stopped.Load() {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	canonical := entity.String()
	roster, ok := d.rosters[canonical]
	if !ok {
		return
	}
	trimmed := make([]string, 0, len(roster))
	found := false
	for _, registered := range roster {
		if registered == process {
			found = true
			continue
		}
		trimmed = append(trimmed, registered)
	}
	if !found {
		return
	}
	d.rosters[canonical] = trimmed
	d.rearbitrateLocked(canonical)
}

// Owner returns the process currently owning the entity.
func (d *Directory) Owner(entity Entity) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	owner, ok := d.owners[entity.String()]
	return owner, ok
}

// Audit re-runs arbitration over every entity with candidates. The periodic
// audit job calls it on each tick; a member joining triggers it as well.
func (d *Directory) Audit() {
	d.mu.Lock()
	for canonical := range d.rosters {
		d.rearbitrateLocked(canonical)
	}
	d.mu.Unlock()
	d.audits.Inc()
}

// Audits returns the number of completed audit passes.
func (d *Directory) Audits() uint64 {
	return d.audits.Load()
}

// attach subscribes a service to arbitration decisions.
func (d *Directory) attach(service *Service) {
	d.mu.Lock()
	d.services[service.id] = service
	d.mu.Unlock()
}

// detach removes a service from decision fan-out.
func (d *Directory) detach(service *Service) {
	d.mu.Lock()
	delete(d.services, service.id)
	d.mu.Unlock()
}

// watchMembership turns membership events into roster withdrawals and
// audits. It exits when the directory stops or the membership leaves the
// cluster and closes its events channel.
func (d *Directory) watchMembership() {
	defer d.watcherWG.Done()
	events := d.membership.Events()
	for {
		select {
		case <-d.stopSignal:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			switch event.Type {
			case cluster.MemberLeft:
				d.logger.Infof("member (%s) left, withdrawing its candidacies", event.Member.Name)
				d.withdrawProcess(event.Member.Name)
			case cluster.MemberJoined:
				d.Audit()
			case cluster.MemberUpdated:
			}
		}
	}
}

// withdrawProcess removes every candidacy of the process and re-arbitrates
// the affected entities.
func (d *Directory) withdrawProcess(process string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for canonical, roster := range d.rosters {
		trimmed := make([]string, 0, len(roster))
		for _, registered := range roster {
			if registered == process {
				continue
			}
			trimmed = append(trimmed, registered)
		}
		if len(trimmed) == len(roster) {
			continue
		}
		d.rosters[canonical] = trimmed
		d.rearbitrateLocked(canonical)
	}
}

// rearbitrateLocked recomputes the owner of one entity and emits the
// decision when it changed. An emptied roster is pruned once the loss has
// been emitted.
func (d *Directory) rearbitrateLocked(canonical string) {
	roster := d.rosters[canonical]
	live := d.liveProcesses()

	owner := ""
	for _, process := range roster {
		if live.Contains(process) {
			owner = process
			break
		}
	}

	previous := d.owners[canonical]
	if owner != previous {
		if owner == "" {
			delete(d.owners, canonical)
		} else {
			d.owners[canonical] = owner
		}
		d.emitLocked(d.entities[canonical], previous, owner)
	}

	if len(roster) == 0 {
		delete(d.rosters, canonical)
		delete(d.entities, canonical)
	}
}

// liveProcesses returns the names of the members currently seen alive.
func (d *Directory) liveProcesses() goset.Set[string] {
	live := goset.NewSet[string]()
	for _, member := range d.membership.Members() {
		live.Add(member.Name)
	}
	return live
}

// emitLocked hands one decision to every attached service and publishes it.
// Running under the directory lock keeps decisions totally ordered.
func (d *Directory) emitLocked(entity Entity, previous, owner string) {
	if owner == "" {
		d.logger.Infof("entity (%s) is now unowned", entity.String())
	} else {
		d.logger.Infof("entity (%s) is now owned by (%s)", entity.String(), owner)
	}

	for _, service := range d.services {
		service.ownerChanged(entity, previous, owner)
	}

	if d.events != nil {
		d.events.Publish(TopicOwnership, Decision{
			Entity:        entity,
			PreviousOwner: previous,
			Owner:         owner,
			Time:          time.Now().UTC(),
		})
	}
}
