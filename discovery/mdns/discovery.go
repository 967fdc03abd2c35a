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

// Package mdns provides a zero-configuration discovery provider backed by
// multicast DNS. Nodes announce themselves as a DNS-SD service instance and
// browse the local network for their peers.
package mdns

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	goset "github.com/deckarep/golang-set/v2"
	"github.com/grandcat/zeroconf"
	"go.uber.org/atomic"

	"github.com/tochemey/treestore/discovery"
)

const defaultDiscoveryTimeout = time.Second

// Discovery defines the mDNS discovery provider
type Discovery struct {
	config *Config
	mu     sync.Mutex

	initialized *atomic.Bool
	registered  *atomic.Bool

	// resolver browses the network for peer services
	resolver *zeroconf.Resolver

	server *zeroconf.Server
}

// enforce compilation error
var _ discovery.Provider = (*Discovery)(nil)

// NewDiscovery returns an instance of the mDNS discovery provider
func NewDiscovery(config *Config) *Discovery {
	return &Discovery{
		mu:          sync.Mutex{},
		initialized: atomic.NewBool(false),
		registered:  atomic.NewBool(false),
		config:      config,
	}
}

// ID returns the discovery provider id
func (d *Discovery) ID() string {
	return "mdns"
}

// Initialize the discovery provider
func (d *Discovery) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initialized.Load() {
		return discovery.ErrAlreadyInitialized
	}

	if err := d.config.Validate(); err != nil {
		return err
	}

	if d.config.DiscoveryTimeout <= 0 {
		d.config.DiscoveryTimeout = defaultDiscoveryTimeout
	}

	d.initialized.Store(true)
	return nil
}

// Register registers this node to the service discovery directory
func (d *Discovery) Register() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized.Load() {
		return discovery.ErrNotInitialized
	}

	if d.registered.Load() {
		return discovery.ErrAlreadyRegistered
	}

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to instantiate the mDNS resolver: %w", err)
	}
	d.resolver = resolver

	server, err := zeroconf.Register(
		d.config.ServiceName,
		d.config.Service,
		d.config.Domain,
		d.config.Port,
		[]string{"txtv=0", "lo=1", "la=2"},
		nil)
	if err != nil {
		return fmt.Errorf("failed to register the mDNS service: %w", err)
	}
	d.server = server

	d.registered.Store(true)
	return nil
}

// Deregister removes this node from the service discovery directory
func (d *Discovery) Deregister() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.registered.Load() {
		return discovery.ErrNotRegistered
	}

	if d.server != nil {
		d.server.Shutdown()
		d.server = nil
	}

	d.registered.Store(false)
	return nil
}

// DiscoverPeers returns the list of peer addresses browsed on the local network.
// The browse lasts for the configured discovery timeout.
func (d *Discovery) DiscoverPeers() ([]string, error) {
	if !d.initialized.Load() {
		return nil, discovery.ErrNotInitialized
	}

	if !d.registered.Load() {
		return nil, discovery.ErrNotRegistered
	}

	entries := make(chan *zeroconf.ServiceEntry, 100)

	ctx, cancel := context.WithTimeout(context.Background(), d.config.DiscoveryTimeout)
	defer cancel()

	if err := d.resolver.Browse(ctx, d.config.Service, d.config.Domain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse the mDNS services: %w", err)
	}
	<-ctx.Done()

	v6 := false
	if d.config.IPv6 != nil {
		v6 = *d.config.IPv6
	}

	addresses := goset.NewSet[string]()
	for entry := range entries {
		if !d.validateEntry(entry) {
			continue
		}

		if v6 {
			for _, addr := range entry.AddrIPv6 {
				addresses.Add(net.JoinHostPort(addr.String(), strconv.Itoa(entry.Port)))
			}
		}

		for _, addr := range entry.AddrIPv4 {
			addresses.Add(net.JoinHostPort(addr.String(), strconv.Itoa(entry.Port)))
		}
	}
	return addresses.ToSlice(), nil
}

// Close closes the provider
func (d *Discovery) Close() error {
	return nil
}

// validateEntry validates the discovered service entry
func (d *Discovery) validateEntry(entry *zeroconf.ServiceEntry) bool {
	return entry.Port == d.config.Port &&
		entry.Service == d.config.Service &&
		entry.Domain == d.config.Domain &&
		entry.Instance == d.config.ServiceName
}
