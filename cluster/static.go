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
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/tochemey/treestore/errors"
)

// StaticMembership implements Membership over a fixed member set.
//
// Liveness transitions are driven programmatically through MarkDown and
// MarkUp, which makes this engine the backbone of single-process
// deployments and of tests that simulate member failures.
type StaticMembership struct {
	mu    sync.RWMutex
	local Member
	// registration order of the fixed member set
	names   []string
	members map[string]Member
	down    map[string]bool

	joined  *atomic.Bool
	stopped *atomic.Bool

	eventsChan chan Event
}

// enforce compilation error
var _ Membership = (*StaticMembership)(nil)

// NewStaticMembership creates a static membership whose member set is the
// local member plus the given peers
func NewStaticMembership(local Member, peers ...Member) *StaticMembership {
	names := make([]string, 0, len(peers)+1)
	members := make(map[string]Member, len(peers)+1)

	names = append(names, local.Name)
	members[local.Name] = local
	for _, peer := range peers {
		if _, ok := members[peer.Name]; ok {
			continue
		}
		names = append(names, peer.Name)
		members[peer.Name] = peer
	}

	return &StaticMembership{
		local:      local,
		names:      names,
		members:    members,
		down:       make(map[string]bool),
		joined:     atomic.NewBool(false),
		stopped:    atomic.NewBool(false),
		eventsChan: make(chan Event, 256),
	}
}

// Join marks the local node as part of the cluster
func (s *StaticMembership) Join(context.Context) error {
	if s.joined.Load() || s.stopped.Load() {
		return errors.ErrAlreadyJoined
	}
	s.joined.Store(true)
	return nil
}

// Leave marks the local node as off and closes the events channel
func (s *StaticMembership) Leave(context.Context) error {
	if !s.joined.Load() {
		return errors.ErrNotJoined
	}
	s.joined.Store(false)
	s.stopped.Store(true)
	close(s.eventsChan)
	return nil
}

// Members returns the members currently up, local member included
func (s *StaticMembership) Members() []Member {
	if !s.joined.Load() {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	members := make([]Member, 0, len(s.names))
	for _, name := range s.names {
		if s.down[name] {
			continue
		}
		members = append(members, s.members[name])
	}
	return members
}

// Events returns the channel where membership changes are published
func (s *StaticMembership) Events() <-chan Event {
	return s.eventsChan
}

// LocalMember returns the local member identity
func (s *StaticMembership) LocalMember() Member {
	return s.local
}

// MarkDown transitions the named member to down and publishes a MemberLeft
// event. Marking an unknown, local or already down member is a no-op.
func (s *StaticMembership) MarkDown(name string) {
	if !s.joined.Load() || name == s.local.Name {
		return
	}

	s.mu.Lock()
	member, known := s.members[name]
	if !known || s.down[name] {
		s.mu.Unlock()
		return
	}
	s.down[name] = true
	s.mu.Unlock()

	s.eventsChan <- Event{
		Type:   MemberLeft,
		Member: member,
		Time:   time.Now().UTC(),
	}
}

// MarkUp transitions the named member back to up and publishes a
// MemberJoined event. Marking an unknown or already up member is a no-op.
func (s *StaticMembership) MarkUp(name string) {
	if !s.joined.Load() {
		return
	}

	s.mu.Lock()
	member, known := s.members[name]
	if !known || !s.down[name] {
		s.mu.Unlock()
		return
	}
	delete(s.down, name)
	s.mu.Unlock()

	s.eventsChan <- Event{
		Type:   MemberJoined,
		Member: member,
		Time:   time.Now().UTC(),
	}
}
