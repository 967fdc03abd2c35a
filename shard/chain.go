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
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/treestore/errors"
	"github.com/tochemey/treestore/tree"
)

// TransactionChainHandle wraps an engine transaction chain. Transactions
// minted from the chain read the effects of their predecessor and commit
// through the shard like any other handle. The engine enforces the chain
// ordering: requesting the next transaction before the previous one is
// readied or aborted fails with errors.ErrChainBusy.
type TransactionChainHandle struct {
	id      string
	shard   *Shard
	chain   tree.TransactionChain
	retired *atomic.Bool

	mu       sync.Mutex
	children []*TransactionHandle
}

func newTransactionChainHandle(shard *Shard, chain tree.TransactionChain) *TransactionChainHandle {
	return &TransactionChainHandle{
		id:      uuid.NewString(),
		shard:   shard,
		chain:   chain,
		retired: atomic.NewBool(false),
	}
}

// ID returns the chain identifier.
func (h *TransactionChainHandle) ID() string {
	return h.id
}

// NewTransaction starts the next transaction in the chain and registers it
// with the shard under its own handle key.
func (h *TransactionChainHandle) NewTransaction() (*TransactionHandle, error) {
	if h.retired.Load() {
		return nil, gerrors.ErrHandleRetired
	}

	tx, err := h.chain.NewReadWriteTransaction()
	if err != nil {
		return nil, err
	}

	handle := newTransactionHandle(h.shard, uuid.NewString(), tx)
	h.shard.handles.Set(transactionKey(handle.id), handle)
	h.mu.Lock()
	h.children = append(h.children, handle)
	h.mu.Unlock()
	return handle, nil
}

// Close closes the chain and aborts every child transaction that was not
// committed or aborted yet. Close is idempotent.
func (h *TransactionChainHandle) Close() error {
	if !h.retired.CompareAndSwap(false, true) {
		return nil
	}
	h.shard.retireHandle(chainKey(h.id))

	h.mu.Lock()
	children := make([]*TransactionHandle, len(h.children))
	copy(children, h.children)
	h.children = nil
	h.mu.Unlock()

	for _, child := range children {
		if !child.retired.Load() {
			_ = child.Abort(context.Background())
		}
	}
	return h.chain.Close()
}
