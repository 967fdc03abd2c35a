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

// Package discovery defines the service discovery contract used by the
// cluster membership layer to locate peer nodes.
package discovery

// Provider helps locate the other store nodes of a cluster.
//
// A provider goes through the following lifecycle: Initialize, Register,
// any number of DiscoverPeers calls, Deregister and finally Close.
type Provider interface {
	// ID returns the discovery provider id
	ID() string
	// Initialize initializes the provider: validates its configuration and
	// sets up internal data structures, clients etc.
	Initialize() error
	// Register registers this node to the service discovery directory.
	Register() error
	// Deregister removes this node from the service discovery directory.
	Deregister() error
	// DiscoverPeers returns the list of peer addresses in host:port form.
	DiscoverPeers() ([]string, error)
	// Close closes the provider
	Close() error
}
