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

package mdns

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travisjeffery/go-dynaport"

	"github.com/tochemey/treestore/discovery"
)

func TestDiscovery(t *testing.T) {
	t.Run("With a new instance", func(t *testing.T) {
		provider := NewDiscovery(&Config{})
		require.NotNil(t, provider)
		// assert that provider implements the Provider interface
		var p any = provider
		_, ok := p.(discovery.Provider)
		assert.True(t, ok)
	})
	t.Run("With ID assertion", func(t *testing.T) {
		provider := NewDiscovery(&Config{})
		assert.Equal(t, "mdns", provider.ID())
	})
	t.Run("With Initialize", func(t *testing.T) {
		ports := dynaport.Get(1)
		config := &Config{
			ServiceName: "treestore",
			Service:     "_treestore._tcp",
			Domain:      "local.",
			Port:        ports[0],
		}
		provider := NewDiscovery(config)
		assert.NoError(t, provider.Initialize())
		assert.Equal(t, defaultDiscoveryTimeout, provider.config.DiscoveryTimeout)
	})
	t.Run("With Initialize: already initialized", func(t *testing.T) {
		provider := NewDiscovery(&Config{})
		provider.initialized.Store(true)
		err := provider.Initialize()
		assert.Error(t, err)
		assert.EqualError(t, err, discovery.ErrAlreadyInitialized.Error())
	})
	t.Run("With Initialize: invalid config", func(t *testing.T) {
		provider := NewDiscovery(&Config{})
		assert.Error(t, provider.Initialize())
	})
	t.Run("With Register: not initialized", func(t *testing.T) {
		provider := NewDiscovery(&Config{})
		assert.ErrorIs(t, provider.Register(), discovery.ErrNotInitialized)
	})
	t.Run("With Deregister: not registered", func(t *testing.T) {
		provider := NewDiscovery(&Config{})
		assert.ErrorIs(t, provider.Deregister(), discovery.ErrNotRegistered)
	})
	t.Run("With DiscoverPeers", func(t *testing.T) {
		ports := dynaport.Get(1)
		config := &Config{
			ServiceName:      "treestore",
			Service:          "_treestore._tcp",
			Domain:           "local.",
			Port:             ports[0],
			DiscoveryTimeout: 2 * time.Second,
		}
		provider := NewDiscovery(config)

		// not registered yet
		_, err := provider.DiscoverPeers()
		assert.ErrorIs(t, err, discovery.ErrNotInitialized)

		require.NoError(t, provider.Initialize())
		require.NoError(t, provider.Register())

		// wait for the service announcement to propagate
		time.Sleep(time.Second)

		peers, err := provider.DiscoverPeers()
		require.NoError(t, err)
		require.NotEmpty(t, peers)

		assert.NoError(t, provider.Deregister())
		assert.NoError(t, provider.Close())
	})
}

func TestConfig(t *testing.T) {
	t.Run("With valid configuration", func(t *testing.T) {
		config := &Config{
			ServiceName: "treestore",
			Service:     "_treestore._tcp",
			Domain:      "local.",
			Port:        3322,
		}
		assert.NoError(t, config.Validate())
	})
	t.Run("With missing service name", func(t *testing.T) {
		config := &Config{
			Service: "_treestore._tcp",
			Domain:  "local.",
			Port:    3322,
		}
		assert.Error(t, config.Validate())
	})
	t.Run("With invalid port", func(t *testing.T) {
		config := &Config{
			ServiceName: "treestore",
			Service:     "_treestore._tcp",
			Domain:      "local.",
		}
		assert.Error(t, config.Validate())
	})
}
