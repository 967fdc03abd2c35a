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

import "github.com/tochemey/treestore/tree"

// applyOperation returns the root of a new snapshot with the operation
// applied. Only nodes along the operation path are rebuilt; everything else
// is shared with the input snapshot.
//
// Write replaces the whole subtree at the path. Merge replaces the node value
// but keeps its children. Delete removes the subtree and is a no-op when the
// path does not exist, in which case the input root is returned unchanged.
func applyOperation(root *tree.Node, op tree.Operation) *tree.Node {
	segments := op.Path().Segments()
	switch op.Kind() {
	case tree.OpWrite:
		return writeNode(root, segments, op.Value())
	case tree.OpMerge:
		return mergeNode(root, segments, op.Value())
	case tree.OpDelete:
		return deleteNode(root, segments)
	default:
		return root
	}
}

func writeNode(node *tree.Node, segments []string, value []byte) *tree.Node {
	if len(segments) == 0 {
		return tree.NewNode(value, nil)
	}
	children := copyChildren(node)
	children[segments[0]] = writeNode(node.Child(segments[0]), segments[1:], value)
	return tree.NewNode(node.Value(), children)
}

func mergeNode(node *tree.Node, segments []string, value []byte) *tree.Node {
	if len(segments) == 0 {
		return tree.NewNode(value, copyChildren(node))
	}
	children := copyChildren(node)
	children[segments[0]] = mergeNode(node.Child(segments[0]), segments[1:], value)
	return tree.NewNode(node.Value(), children)
}

func deleteNode(node *tree.Node, segments []string) *tree.Node {
	if node == nil {
		return nil
	}
	if len(segments) == 0 {
		return nil
	}
	child := node.Child(segments[0])
	if child == nil {
		return node
	}
	rebuilt := deleteNode(child, segments[1:])
	if rebuilt == child {
		return node
	}
	children := copyChildren(node)
	if rebuilt == nil {
		delete(children, segments[0])
	} else {
		children[segments[0]] = rebuilt
	}
	return tree.NewNode(node.Value(), children)
}

// lookup walks the snapshot down to the node at the path, nil when absent.
func lookup(root *tree.Node, path tree.Path) *tree.Node {
	node := root
	for _, segment := range path.Segments() {
		if node == nil {
			return nil
		}
		node = node.Child(segment)
	}
	return node
}

func copyChildren(node *tree.Node) map[string]*tree.Node {
	names := node.ChildNames()
	children := make(map[string]*tree.Node, len(names)+1)
	for _, name := range names {
		children[name] = node.Child(name)
	}
	return children
}
