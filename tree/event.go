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

package tree

// ListenerScope bounds which part of the tree a change listener observes
// relative to its registration path.
type ListenerScope int

const (
	// ScopeBase observes the registered node itself.
	ScopeBase ListenerScope = iota
	// ScopeOne observes the registered node and its direct children.
	ScopeOne
	// ScopeSubtree observes the whole subtree under the registered node.
	ScopeSubtree
)

// String returns the lowercase name of the scope.
func (s ListenerScope) String() string {
	switch s {
	case ScopeBase:
		return "base"
	case ScopeOne:
		return "one"
	case ScopeSubtree:
		return "subtree"
	default:
		return ""
	}
}

// ChangeListener receives data change events for a registration.
// OnDataChanged runs on the registration's dispatch goroutine; a slow
// listener delays its own registration only, never commits.
type ChangeListener interface {
	OnDataChanged(event *ChangeEvent)
}

// ChangeEvent describes how one committed modification changed the part of
// the tree a registration observes. Before and After are the registered node
// in the snapshots on either side of the commit; the flattened views list the
// individual nodes the commit touched within scope, keyed by canonical path.
type ChangeEvent struct {
	path    Path
	before  *Node
	after   *Node
	created map[string]*Node
	updated map[string]*Node
	removed map[string]*Node
}

// NewChangeEvent assembles a change event. Ownership of the maps passes to
// the event; callers must not mutate them afterwards.
func NewChangeEvent(path Path, before, after *Node, created, updated, removed map[string]*Node) *ChangeEvent {
	return &ChangeEvent{
		path:    path,
		before:  before,
		after:   after,
		created: created,
		updated: updated,
		removed: removed,
	}
}

// Path returns the registration path the event was computed for.
func (e *ChangeEvent) Path() Path {
	return e.path
}

// Before returns the registered node before the commit, nil when it did not exist.
func (e *ChangeEvent) Before() *Node {
	return e.before
}

// After returns the registered node after the commit, nil when it no longer exists.
func (e *ChangeEvent) After() *Node {
	return e.after
}

// Created returns the nodes the commit created within scope, keyed by
// canonical path. The returned map is a read-only view.
func (e *ChangeEvent) Created() map[string]*Node {
	return e.created
}

// Updated returns the nodes whose value the commit changed within scope,
// keyed by canonical path. The returned map is a read-only view.
func (e *ChangeEvent) Updated() map[string]*Node {
	return e.updated
}

// Removed returns the nodes the commit removed within scope, keyed by
// canonical path. Map values are the nodes as they were before the commit.
// The returned map is a read-only view.
func (e *ChangeEvent) Removed() map[string]*Node {
	return e.removed
}

// ListenerRegistration is the live handle of a registered change listener.
type ListenerRegistration interface {
	// Listener returns the registered listener.
	Listener() ChangeListener
	// Close cancels the registration. Close is idempotent; no event is
	// delivered after it returns.
	Close()
}
