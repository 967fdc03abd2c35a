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
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/hashicorp/memberlist"
	"go.uber.org/atomic"

	"github.com/tochemey/treestore/discovery"
	"github.com/tochemey/treestore/errors"
	"github.com/tochemey/treestore/internal/errorschain"
	"github.com/tochemey/treestore/internal/tcp"
	"github.com/tochemey/treestore/log"
)

// memberDelegate gossips the local member identity as node metadata
type memberDelegate struct {
	meta []byte
}

// enforce compilation error
var _ memberlist.Delegate = (*memberDelegate)(nil)

// newMemberDelegate creates an instance of memberDelegate
func newMemberDelegate(member Member) (*memberDelegate, error) {
	meta, err := json.Marshal(member)
	if err != nil {
		return nil, fmt.Errorf("failed to encode the member meta: %w", err)
	}
	return &memberDelegate{meta: meta}, nil
}

// NodeMeta returns the meta-data gossiped about the local node.
// nolint
func (d *memberDelegate) NodeMeta(limit int) []byte {
	return d.meta
}

// NotifyMsg is called when a user-data message is received.
// nolint
func (d *memberDelegate) NotifyMsg(bytes []byte) {
}

// GetBroadcasts is called when user data messages can be broadcast.
// nolint
func (d *memberDelegate) GetBroadcasts(overhead, limit int) [][]byte {
	return nil
}

// LocalState is used for a TCP Push/Pull.
// nolint
func (d *memberDelegate) LocalState(join bool) []byte {
	return nil
}

// MergeRemoteState is invoked after a TCP Push/Pull.
// nolint
func (d *memberDelegate) MergeRemoteState(buf []byte, join bool) {
}

// MemberlistMembership implements Membership on top of hashicorp/memberlist.
//
// An instance is single-use: once the local node has left the cluster the
// instance cannot rejoin, create a new one instead.
type MemberlistMembership struct {
	mu     sync.Mutex
	config Config
	local  Member

	memberConfig *memberlist.Config
	memberlist   *memberlist.Memberlist
	provider     discovery.Provider
	logger       log.Logger

	joined  *atomic.Bool
	stopped *atomic.Bool

	nodeEvents chan memberlist.NodeEvent
	eventsChan chan Event
	stopSignal chan struct{}
}

// enforce compilation error
var _ Membership = (*MemberlistMembership)(nil)

// NewMemberlistMembership creates a memberlist-backed membership from the
// given configuration. The local node does not gossip until Join is called.
func NewMemberlistMembership(config Config) (*MemberlistMembership, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config = config.withDefaults()

	bindIP, err := tcp.GetBindIP(net.JoinHostPort(config.Host, strconv.Itoa(config.Port)))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve the gossip bind address: %w", err)
	}

	local := Member{
		Name: config.Name,
		Host: bindIP,
		Port: uint16(config.Port),
	}

	delegate, err := newMemberDelegate(local)
	if err != nil {
		return nil, err
	}

	// create enough buffer to house the engine events
	nodeEvents := make(chan memberlist.NodeEvent, 256)

	mconfig := memberlist.DefaultLANConfig()
	mconfig.BindAddr = local.Host
	mconfig.BindPort = config.Port
	mconfig.AdvertisePort = config.Port
	mconfig.Name = config.Name
	mconfig.Delegate = delegate
	mconfig.LogOutput = newLogWriter(config.Logger)
	mconfig.Events = &memberlist.ChannelEventDelegate{Ch: nodeEvents}

	return &MemberlistMembership{
		config:       config,
		local:        local,
		memberConfig: mconfig,
		provider:     config.Provider,
		logger:       config.Logger,
		joined:       atomic.NewBool(false),
		stopped:      atomic.NewBool(false),
		nodeEvents:   nodeEvents,
		eventsChan:   make(chan Event, 256),
		stopSignal:   make(chan struct{}),
	}, nil
}

// Join makes the local node join the cluster: the discovery provider is
// started, peers are discovered with retries and the gossip engine contacts
// them. The membership event stream starts flowing once Join returns.
func (m *MemberlistMembership) Join(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.joined.Load() || m.stopped.Load() {
		return errors.ErrAlreadyJoined
	}

	if err := errorschain.
		New(errorschain.ReturnFirst()).
		AddError(m.provider.Initialize()).
		AddError(m.provider.Register()).
		Error(); err != nil {
		return err
	}

	mlist, err := memberlist.Create(m.memberConfig)
	if err != nil {
		return fmt.Errorf("failed to create the memberlist engine: %w", err)
	}
	m.memberlist = mlist

	joinCtx, cancel := context.WithTimeout(ctx, m.config.JoinTimeout)
	defer cancel()

	var peers []string
	retrier := retry.NewRetrier(m.config.MaxJoinAttempts, m.config.JoinRetryInterval, m.config.JoinRetryInterval)
	if err := retrier.RunContext(joinCtx, func(ctx context.Context) error {
		var err error
		peers, err = m.provider.DiscoverPeers()
		return err
	}); err != nil {
		_ = mlist.Shutdown()
		return fmt.Errorf("failed to discover peers: %w", err)
	}

	// do not seed the join with the local gossip address
	seeds := make([]string, 0, len(peers))
	for _, peer := range peers {
		if peer != m.local.Address() {
			seeds = append(seeds, peer)
		}
	}

	if len(seeds) > 0 {
		if _, err := mlist.Join(seeds); err != nil {
			_ = mlist.Shutdown()
			return fmt.Errorf("failed to join the cluster: %w", err)
		}
		m.logger.Infof("%s successfully joined cluster: [%s]", m.local.Address(), strings.Join(seeds, ","))
	}

	m.joined.Store(true)

	go m.eventsListener()

	return nil
}

// Leave makes the local node leave the cluster gracefully: the departure is
// broadcast to the peers, the discovery provider is deregistered and the
// gossip engine shuts down. The events channel is closed.
func (m *MemberlistMembership) Leave(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.joined.Load() {
		return errors.ErrNotJoined
	}

	// no matter the outcome the local node is officially off
	m.joined.Store(false)
	m.stopped.Store(true)

	close(m.stopSignal)

	if err := errorschain.
		New(errorschain.ReturnFirst()).
		AddError(m.memberlist.Leave(m.config.ShutdownTimeout)).
		AddError(m.provider.Deregister()).
		AddError(m.provider.Close()).
		AddError(m.memberlist.Shutdown()).
		Error(); err != nil {
		m.logger.Error(fmt.Errorf("%s failed to leave the cluster: %w", m.local.Address(), err))
		return err
	}

	m.logger.Infof("%s successfully left the cluster", m.local.Address())
	return nil
}

// Members returns a snapshot of the members currently seen as alive by the
// gossip engine, local member included
func (m *MemberlistMembership) Members() []Member {
	if !m.joined.Load() {
		return nil
	}

	nodes := m.memberlist.Members()
	members := make([]Member, 0, len(nodes))
	for _, node := range nodes {
		member, err := memberFromMeta(node.Meta)
		if err != nil {
			m.logger.Errorf("failed to decode member meta: %v", err)
			continue
		}
		members = append(members, member)
	}
	return members
}

// Events returns the channel where membership changes are published
func (m *MemberlistMembership) Events() <-chan Event {
	return m.eventsChan
}

// LocalMember returns the local member identity
func (m *MemberlistMembership) LocalMember() Member {
	return m.local
}

// eventsListener translates the gossip engine node events into membership
// events. Local node events are filtered out.
func (m *MemberlistMembership) eventsListener() {
	for {
		select {
		case event := <-m.nodeEvents:
			if event.Node == nil {
				continue
			}

			member, err := memberFromMeta(event.Node.Meta)
			if err != nil {
				m.logger.Errorf("failed to decode member meta from cluster event: %v", err)
				continue
			}

			// skip this node
			if member.Name == m.local.Name {
				continue
			}

			var eventType EventType
			switch event.Event {
			case memberlist.NodeJoin:
				eventType = MemberJoined
			case memberlist.NodeLeave:
				eventType = MemberLeft
			case memberlist.NodeUpdate:
				eventType = MemberUpdated
			}

			m.logger.Debugf("%s received (%s) cluster event about member=(%s)", m.local.Address(), eventType, member.Name)
			m.eventsChan <- Event{
				Type:   eventType,
				Member: member,
				Time:   time.Now().UTC(),
			}
		case <-m.stopSignal:
			close(m.eventsChan)
			return
		}
	}
}
