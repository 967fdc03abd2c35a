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
	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/tochemey/treestore/internal/queue"
	"github.com/tochemey/treestore/log"
)

// CandidateRegistration is the token of one registered candidacy. Closing
// it withdraws the candidacy; if this process owned the entity, ownership
// moves to the next live candidate or the entity becomes unowned.
type CandidateRegistration struct {
	entity  Entity
	service *Service
	closed  *atomic.Bool
}

func newCandidateRegistration(service *Service, entity Entity) *CandidateRegistration {
	return &CandidateRegistration{
		entity:  entity,
		service: service,
		closed:  atomic.NewBool(false),
	}
}

// Entity returns the entity the candidacy is for.
func (r *CandidateRegistration) Entity() Entity {
	return r.entity
}

// Close withdraws the candidacy. Close is idempotent.
func (r *CandidateRegistration) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	r.service.withdraw(r.entity)
	return nil
}

// ListenerRegistration is one live listener subscription. Changes are
// delivered one at a time, in order, from a dedicated dispatch goroutine.
type ListenerRegistration struct {
	id         string
	entityType string
	service    *Service
	listener   Listener
	logger     log.Logger

	changes   *queue.Queue[Change]
	closed    *atomic.Bool
	delivered *atomic.Uint64
}

func newListenerRegistration(service *Service, entityType string, listener Listener) *ListenerRegistration {
	registration := &ListenerRegistration{
		id:         uuid.NewString(),
		entityType: entityType,
		service:    service,
		listener:   listener,
		logger:     service.logger,
		changes:    queue.New[Change](),
		closed:     atomic.NewBool(false),
		delivered:  atomic.NewUint64(0),
	}
	go registration.dispatch()
	return registration
}

// ID returns the registration identifier.
func (r *ListenerRegistration) ID() string {
	return r.id
}

// EntityType returns the entity type the listener observes.
func (r *ListenerRegistration) EntityType() string {
	return r.entityType
}

// Delivered returns the number of changes delivered to the listener.
func (r *ListenerRegistration) Delivered() uint64 {
	return r.delivered.Load()
}

// Close cancels the subscription. Close is idempotent; changes still queued
// are dropped.
func (r *ListenerRegistration) Close() {
	if !r.closed.CompareAndSwap(false, true) {
		return
	}
	r.changes.Close()
	r.service.removeListener(r.id)
}

// close tears the registration down without touching the service registry.
// The service uses it while closing, with the registry already cleared.
func (r *ListenerRegistration) close() {
	if r.closed.CompareAndSwap(false, true) {
		r.changes.Close()
	}
}

func (r *ListenerRegistration) enqueue(change Change) {
	if r.closed.Load() {
		return
	}
	r.changes.Push(change)
}

func (r *ListenerRegistration) dispatch() {
	for {
		change, ok := r.changes.Wait()
		if !ok {
			return
		}
		if r.closed.Load() {
			continue
		}
		r.deliver(change)
	}
}

// deliver runs the listener for one change. A panicking listener loses that
// change only, the subscription stays live.
func (r *ListenerRegistration) deliver(change Change) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Errorf("ownership listener panicked (entity=%s): %v", change.Entity.String(), rec)
		}
	}()
	r.listener.OwnershipChanged(change)
	r.delivered.Inc()
}
