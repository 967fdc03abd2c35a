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

// Package supervisor defines how a shard manager reacts when one of its
// shards fails. A Supervisor maps error types to directives (stop, resume,
// restart, escalate) and carries the retry budget applied to restarts.
package supervisor

import (
	"reflect"
	"runtime"
	"sync"
	"time"

	"github.com/tochemey/treestore/errors"
	"github.com/tochemey/treestore/internal/xsync"
)

// Strategy represents the type of supervision strategy applied by a shard
// manager when one of its shards fails.
type Strategy int

const (
	// OneForOneStrategy applies the resolved directive to the failing shard
	// only. Sibling shards keep running unaffected.
	OneForOneStrategy Strategy = iota

	// OneForAllStrategy applies the resolved directive to every shard under
	// the manager when any one of them fails. Use it when shards share state
	// that a single failure can corrupt. For granular recovery prefer
	// OneForOneStrategy.
	OneForAllStrategy
)

// String returns the string representation of the strategy
func (s Strategy) String() string {
	switch s {
	case OneForOneStrategy:
		return "OneForOne"
	case OneForAllStrategy:
		return "OneForAll"
	default:
		return ""
	}
}

// Directive defines the action a manager takes on a failed shard:
//
//   - StopDirective: stop the failing shard for good.
//   - ResumeDirective: keep the shard running and drop the failure.
//   - RestartDirective: stop the shard, replay its journal and bring it back.
//   - EscalateDirective: give up on local recovery and surface the failure
//     to the manager's owner.
type Directive int

const (
	// StopDirective stops the failing shard. Used when the failure is deemed
	// irrecoverable or the shard state cannot be trusted anymore.
	StopDirective Directive = iota
	// ResumeDirective resumes the failing shard without a restart. Used for
	// transient failures that leave the shard state intact.
	ResumeDirective
	// RestartDirective stops the failing shard and starts a fresh instance,
	// which rebuilds its state from the journal.
	RestartDirective
	// EscalateDirective surfaces the failure to whoever owns the manager.
	// Used when the failure is severe enough that restarting locally would
	// only mask it.
	EscalateDirective
)

// String returns the string representation of the directive
func (d Directive) String() string {
	switch d {
	case StopDirective:
		return "Stop"
	case ResumeDirective:
		return "Resume"
	case RestartDirective:
		return "Restart"
	case EscalateDirective:
		return "Escalate"
	default:
		return ""
	}
}

// Option defines the various options to apply to a given Supervisor
type Option func(*Supervisor)

// WithStrategy sets the supervision strategy
func WithStrategy(strategy Strategy) Option {
	return func(s *Supervisor) {
		s.Lock()
		s.strategy = strategy
		s.Unlock()
	}
}

// WithDirective sets the mapping between an error and a given directive
func WithDirective(err error, directive Directive) Option {
	return func(s *Supervisor) {
		s.Lock()
		s.directives.Set(errorType(err), directive)
		s.Unlock()
	}
}

// WithRetry configures the retry behavior applied with RestartDirective.
//
// maxRetries bounds how many times a shard is restarted before the manager
// escalates, and timeout is the window within which those retries happen.
func WithRetry(maxRetries uint32, timeout time.Duration) Option {
	return func(s *Supervisor) {
		s.Lock()
		s.maxRetries = maxRetries
		s.timeout = timeout
		s.Unlock()
	}
}

// WithAnyErrorDirective sets the directive to apply to any error.
//
// When set it becomes the sole rule of the supervisor and overrides any
// error-specific directives.
func WithAnyErrorDirective(directive Directive) Option {
	return func(s *Supervisor) {
		s.Lock()
		s.directives.Set(errorType(new(errors.AnyError)), directive)
		s.Unlock()
	}
}

// DirectiveRule describes a directive rule keyed by error type.
type DirectiveRule struct {
	// ErrorType is the fully-qualified Go error type name (reflect.Type.String()).
	ErrorType string
	// Directive is the directive to apply for ErrorType.
	Directive Directive
}

// Supervisor defines how a shard manager reacts when a shard fails.
//
// It combines a strategy (one-for-one vs one-for-all) with directive rules
// that map error types to actions.
//
// Defaults:
//   - Strategy: OneForOneStrategy.
//   - Directives: PanicError -> Stop, runtime.PanicNilError -> Restart.
//   - Retries: none unless configured with WithRetry.
//
// Rules are keyed by the error's concrete type name (reflect.Type.String()).
// When an "any error" rule is set via WithAnyErrorDirective it becomes the
// sole rule and overrides error-specific directives.
//
// Supervisor methods are safe for concurrent use.
type Supervisor struct {
	sync.Mutex
	strategy Strategy
	// maximum number of restarts before escalation
	maxRetries uint32
	// window within which restarts are counted
	timeout time.Duration

	directives *xsync.Map[string, Directive]
}

// New creates a Supervisor with the default strategy and directives, then
// applies the given options. Add error/directive mappings with WithDirective
// or set a catch-all with WithAnyErrorDirective.
func New(opts ...Option) *Supervisor {
	s := &Supervisor{
		Mutex:      sync.Mutex{},
		strategy:   OneForOneStrategy,
		directives: xsync.NewMap[string, Directive](),
		maxRetries: 0,
		timeout:    -1,
	}

	// set the default directives
	s.directives.Set(errorType(&errors.PanicError{}), StopDirective)
	s.directives.Set(errorType(&runtime.PanicNilError{}), RestartDirective)

	for _, opt := range opts {
		opt(s)
	}

	// any error overrides all error types
	if directive, ok := s.directives.Get(errorType(new(errors.AnyError))); ok {
		s.directives.Reset()
		s.directives.Set(errorType(new(errors.AnyError)), directive)
	}

	return s
}

// Strategy returns the configured supervision strategy.
func (s *Supervisor) Strategy() Strategy {
	s.Lock()
	strategy := s.strategy
	s.Unlock()
	return strategy
}

// Directive returns the directive configured for the concrete type of err.
// It does not fall back to the "any error" directive; use AnyErrorDirective
// when you need the catch-all behavior.
func (s *Supervisor) Directive(err error) (Directive, bool) {
	s.Lock()
	if s.directives == nil {
		s.Unlock()
		return 0, false
	}
	directive, ok := s.directives.Get(errorType(err))
	s.Unlock()
	return directive, ok
}

// MaxRetries returns the restart retry budget used with RestartDirective.
func (s *Supervisor) MaxRetries() uint32 {
	return s.maxRetries
}

// Timeout returns the retry window used with RestartDirective.
func (s *Supervisor) Timeout() time.Duration {
	return s.timeout
}

// Rules returns a snapshot of the directive rules currently configured.
// The returned slice is a copy; ordering is not guaranteed.
func (s *Supervisor) Rules() []DirectiveRule {
	s.Lock()
	defer s.Unlock()
	if s.directives == nil || s.directives.Len() == 0 {
		return nil
	}
	rules := make([]DirectiveRule, 0, s.directives.Len())
	s.directives.Range(func(errorType string, directive Directive) {
		rules = append(rules, DirectiveRule{
			ErrorType: errorType,
			Directive: directive,
		})
	})
	return rules
}

// AnyErrorDirective returns the directive for the catch-all error type, if configured.
func (s *Supervisor) AnyErrorDirective() (Directive, bool) {
	s.Lock()
	if s.directives == nil {
		s.Unlock()
		return 0, false
	}
	directive, ok := s.directives.Get(errorType(new(errors.AnyError)))
	s.Unlock()
	return directive, ok
}

// errorType returns the string representation of an error's type using reflection
func errorType(err error) string {
	if err == nil {
		return "nil"
	}

	rtype := reflect.TypeOf(err)
	if rtype.Kind() == reflect.Pointer {
		rtype = rtype.Elem()
	}

	return rtype.String()
}
