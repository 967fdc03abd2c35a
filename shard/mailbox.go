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
	gods "github.com/Workiva/go-datastructures/queue"

	"github.com/tochemey/treestore/future"
	"github.com/tochemey/treestore/internal/queue"
)

// processContext is one unit of work in the shard mailbox: the command plus
// the requester's completable when the command was submitted with Ask.
type processContext struct {
	cmd     Command
	replyTo future.Completable[Reply]
}

// mailbox is the MPSC queue feeding the shard loop. Producers are any
// goroutine calling Tell/Ask plus the appender and worker goroutines;
// the single consumer is the drain loop.
type mailbox interface {
	Enqueue(received *processContext) error
	Dequeue() *processContext
	IsEmpty() bool
	Len() int64
	Dispose()
}

// unboundedMailbox is the default mailbox, a lock-free MPSC linked queue.
type unboundedMailbox struct {
	underlying *queue.MpscQueue[*processContext]
}

// enforce compilation error
var _ mailbox = (*unboundedMailbox)(nil)

func newUnboundedMailbox() *unboundedMailbox {
	return &unboundedMailbox{
		underlying: queue.NewMpscQueue[*processContext](),
	}
}

func (m *unboundedMailbox) Enqueue(received *processContext) error {
	m.underlying.Push(received)
	return nil
}

func (m *unboundedMailbox) Dequeue() *processContext {
	received, ok := m.underlying.Pop()
	if !ok {
		return nil
	}
	return received
}

func (m *unboundedMailbox) IsEmpty() bool {
	return m.underlying.IsEmpty()
}

func (m *unboundedMailbox) Len() int64 {
	return m.underlying.Len()
}

func (m *unboundedMailbox) Dispose() {}

// boundedMailbox is a fixed-capacity blocking mailbox backed by a ring
// buffer. Enqueue blocks when the mailbox is full until space becomes
// available or the mailbox is disposed, giving hosts strict backpressure.
type boundedMailbox struct {
	underlying *gods.RingBuffer
}

// enforce compilation error
var _ mailbox = (*boundedMailbox)(nil)

func newBoundedMailbox(capacity int) *boundedMailbox {
	return &boundedMailbox{
		underlying: gods.NewRingBuffer(uint64(capacity)),
	}
}

func (m *boundedMailbox) Enqueue(received *processContext) error {
	return m.underlying.Put(received)
}

func (m *boundedMailbox) Dequeue() *processContext {
	if m.underlying.Len() > 0 {
		item, _ := m.underlying.Get()
		if received, ok := item.(*processContext); ok {
			return received
		}
	}
	return nil
}

func (m *boundedMailbox) IsEmpty() bool {
	return m.underlying.Len() == 0
}

func (m *boundedMailbox) Len() int64 {
	return int64(m.underlying.Len())
}

func (m *boundedMailbox) Dispose() {
	m.underlying.Dispose()
}
