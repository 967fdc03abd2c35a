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

import "sort"

// Node is one node of an immutable tree snapshot. A Node never changes after
// construction; engines build new nodes along the modified path and share the
// untouched rest of the tree between snapshots. All methods are safe on a nil
// receiver, which reads as an absent node.
type Node struct {
	value    []byte
	children map[string]*Node
}

// NewNode builds a snapshot node from a value and its children. Ownership of
// both arguments passes to the node; callers must not mutate them afterwards.
func NewNode(value []byte, children map[string]*Node) *Node {
	return &Node{
		value:    value,
		children: children,
	}
}

// Value returns the node value. The returned slice must not be mutated.
func (x *Node) Value() []byte {
	if x == nil {
		return nil
	}
	return x.value
}

// ChildNames returns the names of the direct children in lexical order.
func (x *Node) ChildNames() []string {
	if x == nil || len(x.children) == 0 {
		return nil
	}
	names := make([]string, 0, len(x.children))
	for name := range x.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Child returns the direct child with the given name, or nil when absent.
func (x *Node) Child(name string) *Node {
	if x == nil {
		return nil
	}
	return x.children[name]
}
