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

// Package ownership arbitrates cluster-wide exclusive ownership of named
// logical resources. Processes register candidates for entities against a
// Directory; for every entity the earliest registered candidate whose
// process is live owns it, and listeners observe the local process gaining
// and losing ownership. Shard leadership is built on this primitive.
package ownership

import (
	"fmt"
	"sync"

	goset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/treestore/errors"
	"github.com/tochemey/treestore/internal/xsync"
	"github.com/tochemey/treestore/log"
)

// ServiceOption configures the Service.
type ServiceOption func(service *Service)

// WithLogger sets the service logger.
func WithLogger(logger log.Logger) ServiceOption {
	return func(service *Service) {
		service.logger = logger
	}
}

// WithProcessName overrides the process identity candidates are registered
// under. It defaults to the local cluster member name; candidates of a
// process that is not a cluster member are never eligible to own.
func WithProcessName(name string) ServiceOption {
	return func(service *Service) {
		service.process = name
	}
}

// Service is one process's gateway to entity ownership. It registers the
// process's candidacies with the Directory, tracks the entities the process
// currently owns and fans ownership transitions out to registered
// listeners. A process runs one Service; transitions of other processes are
// never delivered here.
type Service struct {
	id      string
	process string

	directory *Directory
	logger    log.Logger
	closed    *atomic.Bool

	// candidate registrations of this process by entity canonical string
	registrations *xsync.Map[string, *CandidateRegistration]

	mu sync.Mutex
	// entity type -> ids of the entities this process owns
	owned     map[string]goset.Set[string]
	listeners map[string]*ListenerRegistration
}

// NewService creates the ownership gateway of one process and attaches it
// to the directory.
func NewService(directory *Directory, opts ...ServiceOption) (*Service, error) {
	if directory == nil {
		return nil, fmt.Errorf("ownership service: the directory is required")
	}
	if directory.stopped.Load() {
		return nil, gerrors.ErrOwnershipClosed
	}

	service := &Service{
		id:            uuid.NewString(),
		process:       directory.membership.LocalMember().Name,
		directory:     directory,
		logger:        log.DefaultLogger,
		closed:        atomic.NewBool(false),
		registrations: xsync.NewMap[string, *CandidateRegistration](),
		owned:         make(map[string]goset.Set[string]),
		listeners:     make(map[string]*ListenerRegistration),
	}

	for _, opt := range opts {
		opt(service)
	}

	if service.process == "" {
		return nil, fmt.Errorf("ownership service: the process name is required")
	}

	directory.attach(service)
	return service, nil
}

// Process returns the process identity this service registers candidates under.
func (s *Service) Process() string {
	return s.process
}

// RegisterCandidate declares this process a candidate for the entity. The
// returned registration withdraws the candidacy on Close. A second
// registration for the same entity fails with a
// CandidateAlreadyRegisteredError and leaves the first one untouched.
func (s *Service) RegisterCandidate(entity Entity) (*CandidateRegistration, error) {
	if s.closed.Load() {
		return nil, gerrors.ErrOwnershipClosed
	}
	if err := entity.Validate(); err != nil {
		return nil, err
	}

	canonical := entity.String()
	if _, exists := s.registrations.Get(canonical); exists {
		return nil, gerrors.NewCandidateAlreadyRegisteredError(canonical)
	}
	if err := s.directory.RegisterCandidate(entity, s.process); err != nil {
		return nil, err
	}

	registration := newCandidateRegistration(s, entity)
	s.registrations.Set(canonical, registration)
	s.logger.Infof("process (%s) registered a candidate for entity (%s)", s.process, canonical)
	return registration, nil
}

// RegisterListener subscribes the listener to ownership transitions of this
// process for entities of the given type. Entities of that type the process
// already owns are replayed first, as synthetic gained transitions; live
// transitions follow in order, each delivered exactly once.
func (s *Service) RegisterListener(entityType string, listener Listener) (*ListenerRegistration, error) {
	if s.closed.Load() {
		return nil, gerrors.ErrOwnershipClosed
	}
	if entityType == "" {
		return nil, fmt.Errorf("ownership service: the entity type is required")
	}
	if listener == nil {
		return nil, gerrors.ErrMissingListener
	}

	registration := newListenerRegistration(s, entityType, listener)

	// replay and attachment happen under the same lock the decision fan-out
	// takes, so no transition can slip between the snapshot and going live
	s.mu.Lock()
	if ownedIDs, ok := s.owned[entityType]; ok {
		for _, id := range ownedIDs.ToSlice() {
			registration.enqueue(Change{
				Entity:  Entity{Type: entityType, ID: id},
				IsOwner: true,
			})
		}
	}
	s.listeners[registration.id] = registration
	s.mu.Unlock()

	return registration, nil
}

// OwnershipState reports the entity ownership as seen by this process.
func (s *Service) OwnershipState(entity Entity) (State, error) {
	if s.closed.Load() {
		return State{}, gerrors.ErrOwnershipClosed
	}
	if err := entity.Validate(); err != nil {
		return State{}, err
	}

	owner, ok := s.directory.Owner(entity)
	return State{
		IsOwner:  ok && owner == s.process,
		HasOwner: ok,
	}, nil
}

// Owned returns the ids of the entities of the given type this process
// currently owns.
func (s *Service) Owned(entityType string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ownedIDs, ok := s.owned[entityType]
	if !ok {
		return nil
	}
	return ownedIDs.ToSlice()
}

// Close withdraws every candidacy of this process, closes every listener
// registration and detaches from the directory. Close is idempotent.
func (s *Service) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.logger.Infof("closing ownership service of process (%s)...", s.process)

	// detach first so the withdrawals below cannot fan back into this service
	s.directory.detach(s)
	for _, registration := range s.registrations.Values() {
		s.directory.WithdrawCandidate(registration.Entity(), s.process)
	}
	s.registrations.Reset()

	s.mu.Lock()
	listeners := make([]*ListenerRegistration, 0, len(s.listeners))
	for _, registration := range s.listeners {
		listeners = append(listeners, registration)
	}
	s.listeners = make(map[string]*ListenerRegistration)
	s.mu.Unlock()
	for _, registration := range listeners {
		registration.close()
	}

	s.logger.Infof("ownership service of process (%s) closed", s.process)
	return nil
}

// ownerChanged is invoked by the directory, in decision order, for every
// arbitration outcome. Transitions not involving this process carry no
// local state change and are dropped before dispatch.
func (s *Service) ownerChanged(entity Entity, previous, owner string) {
	wasOwner := previous == s.process
	isOwner := owner == s.process
	if wasOwner == isOwner {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return
	}

	ownedIDs, ok := s.owned[entity.Type]
	if !ok {
		ownedIDs = goset.NewSet[string]()
		s.owned[entity.Type] = ownedIDs
	}
	if isOwner {
		ownedIDs.Add(entity.ID)
	} else {
		ownedIDs.Remove(entity.ID)
	}

	change := Change{Entity: entity, WasOwner: wasOwner, IsOwner: isOwner}
	for _, registration := range s.listeners {
		if registration.entityType == entity.Type {
			registration.enqueue(change)
		}
	}
}

// withdraw drops the candidate registration bookkeeping and the directory
// candidacy. Called by CandidateRegistration.Close.
func (s *Service) withdraw(entity Entity) {
	s.registrations.Delete(entity.String())
	s.directory.WithdrawCandidate(entity, s.process)
}

// removeListener drops a listener registration from fan-out.
func (s *Service) removeListener(id string) {
	s.mu.Lock()
	delete(s.listeners, id)
	s.mu.Unlock()
}
