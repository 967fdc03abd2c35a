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

package cluster

import (
	"time"

	"github.com/tochemey/treestore/discovery"
	"github.com/tochemey/treestore/internal/validation"
	"github.com/tochemey/treestore/log"
)

const (
	defaultMaxJoinAttempts   = 5
	defaultJoinRetryInterval = time.Second
	defaultJoinTimeout       = time.Minute
	defaultShutdownTimeout   = 3 * time.Second
)

// Config represents the memberlist membership configuration
type Config struct {
	// Name is the unique member name gossiped to the cluster. It doubles
	// as the process identity used by the ownership service.
	Name string
	// Host is the gossip bind host. 0.0.0.0 resolves to a private
	// interface address.
	Host string
	// Port is the gossip bind port
	Port int
	// Provider locates the peers to join
	Provider discovery.Provider
	// MaxJoinAttempts bounds how many times peer discovery is retried
	// while joining. Defaults to 5.
	MaxJoinAttempts int
	// JoinRetryInterval is the pause between join attempts. Defaults to
	// one second.
	JoinRetryInterval time.Duration
	// JoinTimeout bounds the whole join phase. Defaults to one minute.
	JoinTimeout time.Duration
	// ShutdownTimeout bounds the graceful leave broadcast. Defaults to
	// three seconds.
	ShutdownTimeout time.Duration
	// Logger is the logger to use. Defaults to log.DefaultLogger.
	Logger log.Logger
}

// Validate checks whether the membership configuration is valid
func (x Config) Validate() error {
	return validation.
		New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("Name", x.Name)).
		AddValidator(validation.NewEmptyStringValidator("Host", x.Host)).
		AddAssertion(x.Port > 0 && x.Port <= 65535, "invalid gossip port").
		AddAssertion(x.Provider != nil, "discovery provider is required").
		Validate()
}

// withDefaults returns a copy of the configuration with the zero fields
// replaced by their defaults
func (x Config) withDefaults() Config {
	if x.MaxJoinAttempts <= 0 {
		x.MaxJoinAttempts = defaultMaxJoinAttempts
	}
	if x.JoinRetryInterval <= 0 {
		x.JoinRetryInterval = defaultJoinRetryInterval
	}
	if x.JoinTimeout <= 0 {
		x.JoinTimeout = defaultJoinTimeout
	}
	if x.ShutdownTimeout <= 0 {
		x.ShutdownTimeout = defaultShutdownTimeout
	}
	if x.Logger == nil {
		x.Logger = log.DefaultLogger
	}
	return x
}
