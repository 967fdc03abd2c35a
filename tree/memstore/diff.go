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
	"bytes"
	"sort"

	"github.com/tochemey/treestore/tree"
)

// buildChangeEvent diffs the registered node between two snapshots within the
// registration scope. It returns nil when nothing inside the scope changed,
// which happens when a commit only touched descendants the scope excludes or
// rewrote values with identical bytes.
func buildChangeEvent(path tree.Path, scope tree.ListenerScope, before, after *tree.Node) *tree.ChangeEvent {
	created := make(map[string]*tree.Node)
	updated := make(map[string]*tree.Node)
	removed := make(map[string]*tree.Node)

	switch scope {
	case tree.ScopeBase:
		diffNode(path, before, after, created, updated, removed)
	case tree.ScopeOne:
		diffNode(path, before, after, created, updated, removed)
		for _, name := range childNameUnion(before, after) {
			diffNode(path.Child(name), before.Child(name), after.Child(name), created, updated, removed)
		}
	case tree.ScopeSubtree:
		diffSubtree(path, before, after, created, updated, removed)
	}

	if len(created) == 0 && len(updated) == 0 && len(removed) == 0 {
		return nil
	}
	return tree.NewChangeEvent(path, before, after, created, updated, removed)
}

// diffNode classifies the change of a single node between two snapshots.
// A node whose pointer changed but whose value bytes did not is untouched in
// scope terms; only its descendants moved.
func diffNode(path tree.Path, before, after *tree.Node, created, updated, removed map[string]*tree.Node) {
	if before == after {
		return
	}
	key := path.String()
	switch {
	case before == nil:
		created[key] = after
	case after == nil:
		removed[key] = before
	case !bytes.Equal(before.Value(), after.Value()):
		updated[key] = after
	}
}

// diffSubtree recursively classifies every node that changed below the path.
// Subtrees shared between the snapshots are skipped by pointer equality.
func diffSubtree(path tree.Path, before, after *tree.Node, created, updated, removed map[string]*tree.Node) {
	if before == after {
		return
	}
	diffNode(path, before, after, created, updated, removed)
	for _, name := range childNameUnion(before, after) {
		diffSubtree(path.Child(name), before.Child(name), after.Child(name), created, updated, removed)
	}
}

// childNameUnion returns the sorted union of both nodes' child names.
func childNameUnion(before, after *tree.Node) []string {
	beforeNames := before.ChildNames()
	afterNames := after.ChildNames()
	if len(beforeNames) == 0 {
		return afterNames
	}
	if len(afterNames) == 0 {
		return beforeNames
	}
	seen := make(map[string]bool, len(beforeNames)+len(afterNames))
	union := make([]string, 0, len(beforeNames)+len(afterNames))
	for _, name := range beforeNames {
		seen[name] = true
		union = append(union, name)
	}
	for _, name := range afterNames {
		if !seen[name] {
			union = append(union, name)
		}
	}
	sort.Strings(union)
	return union
}
