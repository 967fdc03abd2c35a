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

package supervisor

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/treestore/errors"
)

func TestOption(t *testing.T) {
	testCases := []struct {
		name     string
		option   Option
		expected *Supervisor
	}{
		{
			name:     "WithStrategy",
			option:   WithStrategy(OneForAllStrategy),
			expected: &Supervisor{strategy: OneForAllStrategy},
		},
		{
			name:     "WithRetry",
			option:   WithRetry(2, time.Second),
			expected: &Supervisor{timeout: time.Second, maxRetries: 2},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			supervisor := &Supervisor{}
			tc.option(supervisor)
			assert.Equal(t, tc.expected, supervisor)
		})
	}
}

func TestWithAnyError(t *testing.T) {
	supervisor := New(WithAnyErrorDirective(RestartDirective))
	directive, ok := supervisor.Directive(new(gerrors.AnyError))
	require.True(t, ok)
	require.Exactly(t, RestartDirective, directive)
}

func TestWithDirective(t *testing.T) {
	supervisor := New(WithDirective(&gerrors.CommitError{}, RestartDirective))
	directive, ok := supervisor.Directive(&gerrors.CommitError{})
	require.True(t, ok)
	require.Exactly(t, RestartDirective, directive)
}

func TestStrategyString(t *testing.T) {
	require.Equal(t, "OneForOne", OneForOneStrategy.String())
	require.Equal(t, "OneForAll", OneForAllStrategy.String())
	require.Equal(t, "", Strategy(42).String())
}

func TestDirectiveString(t *testing.T) {
	require.Equal(t, "Stop", StopDirective.String())
	require.Equal(t, "Resume", ResumeDirective.String())
	require.Equal(t, "Restart", RestartDirective.String())
	require.Equal(t, "Escalate", EscalateDirective.String())
	require.Equal(t, "", Directive(42).String())
}

func TestDefaults(t *testing.T) {
	supervisor := New()

	require.Equal(t, OneForOneStrategy, supervisor.Strategy())
	require.EqualValues(t, 0, supervisor.MaxRetries())
	require.Equal(t, time.Duration(-1), supervisor.Timeout())

	directive, ok := supervisor.Directive(&gerrors.PanicError{})
	require.True(t, ok)
	require.Equal(t, StopDirective, directive)

	directive, ok = supervisor.Directive(&runtime.PanicNilError{})
	require.True(t, ok)
	require.Equal(t, RestartDirective, directive)

	_, ok = supervisor.AnyErrorDirective()
	require.False(t, ok)
}

func TestAnyErrorOverrides(t *testing.T) {
	supervisor := New(
		WithDirective(&gerrors.CommitError{}, RestartDirective),
		WithAnyErrorDirective(ResumeDirective),
	)

	// the catch-all becomes the sole rule
	rules := supervisor.Rules()
	require.Len(t, rules, 1)
	require.Equal(t, ResumeDirective, rules[0].Directive)

	_, ok := supervisor.Directive(&gerrors.CommitError{})
	require.False(t, ok)

	directive, ok := supervisor.AnyErrorDirective()
	require.True(t, ok)
	require.Equal(t, ResumeDirective, directive)
}

func TestDirectiveNilError(t *testing.T) {
	supervisor := New()
	_, ok := supervisor.Directive(nil)
	require.False(t, ok)
}

func TestRules(t *testing.T) {
	supervisor := New()
	rules := supervisor.Rules()
	require.Len(t, rules, 2)

	types := make([]string, 0, len(rules))
	for _, rule := range rules {
		types = append(types, rule.ErrorType)
	}
	require.Contains(t, types, "errors.PanicError")
	require.Contains(t, types, "runtime.PanicNilError")
}
