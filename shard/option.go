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
	"github.com/tochemey/treestore/eventstream"
	"github.com/tochemey/treestore/journal"
	"github.com/tochemey/treestore/log"
	"github.com/tochemey/treestore/tree"
)

// Option configures a Shard at construction time.
type Option func(*Shard)

// WithLogger sets the shard logger.
func WithLogger(logger log.Logger) Option {
	return func(s *Shard) {
		s.logger = logger
	}
}

// WithJournal sets the journal store backing the shard commit log. Setting a
// journal makes the shard persistent unless persistence is explicitly
// disabled with WithPersistence(false).
func WithJournal(store journal.Store) Option {
	return func(s *Shard) {
		s.journal = store
	}
}

// WithPersistence toggles durable commits. Persistence requires a journal
// store; enabling it without one fails construction.
func WithPersistence(enabled bool) Option {
	return func(s *Shard) {
		s.persistenceMode = &enabled
	}
}

// WithBoundedMailbox replaces the default unbounded mailbox with a
// fixed-capacity blocking one. Producers block while the mailbox is full,
// which gives hosts strict backpressure. Capacity must be positive.
func WithBoundedMailbox(capacity int) Option {
	return func(s *Shard) {
		s.bounded = true
		s.mailboxCapacity = capacity
	}
}

// WithEventsStream sets the event stream the shard publishes lifecycle,
// failure and deadletter events on. The shard manager shares one stream
// across all its shards this way. When unset the shard creates its own.
func WithEventsStream(stream eventstream.Stream) Option {
	return func(s *Shard) {
		s.events = stream
	}
}

// WithSchema sets the schema available when the shard starts. Schemas can
// also be loaded or replaced later with the UpdateSchema command.
func WithSchema(schema tree.Schema) Option {
	return func(s *Shard) {
		s.schema = schema
	}
}
