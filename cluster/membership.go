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

// Package cluster provides the membership layer the ownership service relies
// upon for process liveness. The production engine gossips over
// hashicorp/memberlist; a static engine backs single-process deployments
// and tests.
package cluster

import "context"

// Membership tracks the set of live store nodes.
type Membership interface {
	// Join makes the local node join the cluster. It must be called once
	// before any other method.
	Join(ctx context.Context) error
	// Leave makes the local node leave the cluster gracefully.
	Leave(ctx context.Context) error
	// Members returns a snapshot of the members currently seen as alive,
	// local member included.
	Members() []Member
	// Events returns the channel where membership changes are published.
	// The channel is closed when the local node leaves the cluster.
	Events() <-chan Event
	// LocalMember returns the local member identity.
	LocalMember() Member
}
