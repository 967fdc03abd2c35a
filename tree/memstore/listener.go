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

package memstore

import (
	"go.uber.org/atomic"

	"github.com/tochemey/treestore/internal/queue"
	"github.com/tochemey/treestore/tree"
)

// rootsPair carries the registered node on either side of one commit.
type rootsPair struct {
	before *tree.Node
	after  *tree.Node
}

// listenerRegistration owns one change listener and the goroutine delivering
// its events. Commits enqueue; the dispatch goroutine diffs and delivers, so
// a slow listener only ever delays itself.
type listenerRegistration struct {
	store    *Store
	id       uint64
	path     tree.Path
	scope    tree.ListenerScope
	listener tree.ChangeListener
	events   *queue.Queue[rootsPair]
	closed   *atomic.Bool
}

// enforce compilation error
var _ tree.ListenerRegistration = (*listenerRegistration)(nil)

func newListenerRegistration(store *Store, id uint64, path tree.Path, scope tree.ListenerScope, listener tree.ChangeListener) *listenerRegistration {
	return &listenerRegistration{
		store:    store,
		id:       id,
		path:     path,
		scope:    scope,
		listener: listener,
		events:   queue.New[rootsPair](),
		closed:   atomic.NewBool(false),
	}
}

// Listener implements tree.ListenerRegistration.
func (r *listenerRegistration) Listener() tree.ChangeListener {
	return r.listener
}

// Close implements tree.ListenerRegistration.
func (r *listenerRegistration) Close() {
	if !r.closed.CompareAndSwap(false, true) {
		return
	}
	r.store.removeListener(r.id)
	r.events.Close()
}

// notify enqueues the commit when it touched the observed subtree. Snapshot
// sharing makes the check a pointer comparison.
func (r *listenerRegistration) notify(prevRoot, nextRoot *tree.Node) {
	if r.closed.Load() {
		return
	}
	before := lookup(prevRoot, r.path)
	after := lookup(nextRoot, r.path)
	if before == after {
		return
	}
	_ = r.events.Push(rootsPair{before: before, after: after})
}

// dispatch runs on the registration's own goroutine until Close.
func (r *listenerRegistration) dispatch() {
	for {
		pair, ok := r.events.Wait()
		if !ok {
			return
		}
		if r.closed.Load() {
			continue
		}
		event := buildChangeEvent(r.path, r.scope, pair.before, pair.after)
		if event == nil {
			continue
		}
		r.deliver(event)
	}
}

// deliver invokes the listener, containing any panic it raises.
func (r *listenerRegistration) deliver(event *tree.ChangeEvent) {
	defer func() {
		if v := recover(); v != nil {
			r.store.logger.Errorf("change listener panicked (path=%s): %v", r.path.String(), v)
		}
	}()
	r.listener.OnDataChanged(event)
}
