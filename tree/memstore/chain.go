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
	"sync"

	gerrors "github.com/tochemey/treestore/errors"
	"github.com/tochemey/treestore/tree"
)

// transactionChain hands out one read-write transaction at a time. Each
// transaction bases on the effective root its readied predecessor produced,
// so successors read their predecessor's operations before those commit.
type transactionChain struct {
	mu       sync.Mutex
	store    *Store
	busy     bool
	closed   bool
	head     *tree.Node
	haveHead bool
}

// enforce compilation error
var _ tree.TransactionChain = (*transactionChain)(nil)

// NewReadWriteTransaction implements tree.TransactionChain.
func (c *transactionChain) NewReadWriteTransaction() (tree.ReadWriteTransaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.closed:
		return nil, gerrors.ErrChainClosed
	case c.busy:
		return nil, gerrors.ErrChainBusy
	}

	base := c.head
	if !c.haveHead {
		base = c.store.current.Load().root
	}
	c.busy = true
	return c.store.newReadWriteTransaction(base, c.onReady, c.onClose), nil
}

// Close implements tree.TransactionChain.
func (c *transactionChain) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

// onReady records the readied transaction's effective root as the base of
// the next transaction and releases the chain.
func (c *transactionChain) onReady(effective *tree.Node) {
	c.mu.Lock()
	c.head = effective
	c.haveHead = true
	c.busy = false
	c.mu.Unlock()
}

// onClose releases the chain when a transaction is closed without Ready.
func (c *transactionChain) onClose() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}
