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

package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanicError(t *testing.T) {
	cause := errors.New("cohort blew up")
	err := NewPanicError(cause)
	assert.EqualError(t, err, "panic: cohort blew up")
	assert.ErrorIs(t, err, cause)
}

func TestCommitError(t *testing.T) {
	cause := errors.New("store rejected the modification")
	err := NewCommitError(0xdeadbeef, cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "00000000deadbeef")
	assert.EqualValues(t, 0xdeadbeef, err.Fingerprint())
}

func TestCandidateAlreadyRegisteredError(t *testing.T) {
	err := NewCandidateAlreadyRegisteredError("switch:sw-1")
	assert.ErrorIs(t, err, ErrCandidateAlreadyRegistered)
	assert.Equal(t, "switch:sw-1", err.Entity())

	var typed *CandidateAlreadyRegisteredError
	require.True(t, errors.As(err, &typed))
	assert.Contains(t, typed.Error(), "switch:sw-1")
}

func TestJournalCorruptionError(t *testing.T) {
	cause := errors.New("checksum mismatch")
	err := NewJournalCorruptionError("default", 7, cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "default", err.JournalID())
	assert.EqualValues(t, 7, err.Sequence())
	assert.EqualError(t, err, "journal (default) entry 7 is corrupted: checksum mismatch")
}
