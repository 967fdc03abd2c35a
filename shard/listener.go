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
	"sync"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/tochemey/treestore/internal/queue"
	"github.com/tochemey/treestore/log"
	"github.com/tochemey/treestore/tree"
)

// changeListenerProxy sits between the engine and a registered listener.
// It decouples listener execution from the commit path through a buffered
// dispatch queue, swallows listener panics, and carries the schema that was
// current when the events were delivered.
type changeListenerProxy struct {
	shardName string
	listener  tree.ChangeListener
	logger    log.Logger

	events    *queue.Queue[*tree.ChangeEvent]
	closed    *atomic.Bool
	forwarded *atomic.Uint64

	mu     sync.RWMutex
	schema tree.Schema
}

// enforce compilation error
var _ tree.ChangeListener = (*changeListenerProxy)(nil)

func newChangeListenerProxy(shardName string, listener tree.ChangeListener, schema tree.Schema, logger log.Logger) *changeListenerProxy {
	proxy := &changeListenerProxy{
		shardName: shardName,
		listener:  listener,
		logger:    logger,
		events:    queue.New[*tree.ChangeEvent](),
		closed:    atomic.NewBool(false),
		forwarded: atomic.NewUint64(0),
	}
	proxy.schema = schema
	go proxy.dispatch()
	return proxy
}

// OnDataChanged implements tree.ChangeListener.
func (p *changeListenerProxy) OnDataChanged(event *tree.ChangeEvent) {
	if p.closed.Load() {
		return
	}
	p.events.Push(event)
}

func (p *changeListenerProxy) dispatch() {
	for {
		event, ok := p.events.Wait()
		if !ok {
			return
		}
		if p.closed.Load() {
			continue
		}
		p.deliver(event)
	}
}

// deliver runs the listener for one event. A panicking listener loses that
// event only, the registration stays live.
func (p *changeListenerProxy) deliver(event *tree.ChangeEvent) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Errorf("shard=(%s) change listener panicked (path=%s): %v", p.shardName, event.Path().String(), r)
		}
	}()
	p.listener.OnDataChanged(event)
	p.forwarded.Inc()
}

func (p *changeListenerProxy) updateSchema(schema tree.Schema) {
	p.mu.Lock()
	p.schema = schema
	p.mu.Unlock()
}

func (p *changeListenerProxy) currentSchema() tree.Schema {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.schema
}

func (p *changeListenerProxy) close() {
	if p.closed.CompareAndSwap(false, true) {
		p.events.Close()
	}
}

// ListenerRegistrationHandle wraps a live change listener registration.
// Closing it cancels the engine registration and stops the proxy.
type ListenerRegistrationHandle struct {
	id           string
	shard        *Shard
	registration tree.ListenerRegistration
	proxy        *changeListenerProxy
	closed       *atomic.Bool
}

func newListenerRegistrationHandle(shard *Shard, registration tree.ListenerRegistration, proxy *changeListenerProxy) *ListenerRegistrationHandle {
	return &ListenerRegistrationHandle{
		id:           uuid.NewString(),
		shard:        shard,
		registration: registration,
		proxy:        proxy,
		closed:       atomic.NewBool(false),
	}
}

// ID returns the registration identifier.
func (h *ListenerRegistrationHandle) ID() string {
	return h.id
}

// Schema returns the schema the proxy currently delivers events under. It
// starts as the schema current at registration and follows schema updates.
func (h *ListenerRegistrationHandle) Schema() tree.Schema {
	return h.proxy.currentSchema()
}

// Forwarded returns the number of events delivered to the listener.
func (h *ListenerRegistrationHandle) Forwarded() uint64 {
	return h.proxy.forwarded.Load()
}

// Close cancels the registration. Close is idempotent; events already in
// the proxy queue are dropped.
func (h *ListenerRegistrationHandle) Close() {
	if !h.closed.CompareAndSwap(false, true) {
		return
	}
	h.registration.Close()
	h.proxy.close()
	h.shard.retireHandle(listenerKey(h.id))
}
