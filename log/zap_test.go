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

package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZap(t *testing.T) {
	t.Run("With Info logging", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := New(InfoLevel, buffer)
		logger.Info("shard started")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buffer.Bytes(), &entry))
		assert.Equal(t, "info", entry["level"])
		assert.Equal(t, "shard started", entry["msg"])
	})
	t.Run("With level filtering", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := New(InfoLevel, buffer)
		logger.Debug("never written")
		assert.Empty(t, buffer.Bytes())
		assert.False(t, logger.Enabled(DebugLevel))
		assert.True(t, logger.Enabled(ErrorLevel))
	})
	t.Run("With structured fields", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := New(InfoLevel, buffer).With("shard", "default", "sequence", uint64(42))
		logger.Info("commit applied")

		line := buffer.String()
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		assert.Equal(t, "default", entry["shard"])
		assert.EqualValues(t, 42, entry["sequence"])
	})
	t.Run("With formatted logging", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := New(WarningLevel, buffer)
		logger.Warnf("dropping %d entries", 3)
		assert.True(t, strings.Contains(buffer.String(), "dropping 3 entries"))
		assert.Equal(t, WarningLevel, logger.LogLevel())
	})
	t.Run("With Flush", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := New(InfoLevel, buffer)
		logger.Info("before flush")
		assert.NoError(t, logger.Flush())
	})
	t.Run("With outputs", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := New(InfoLevel, buffer)
		require.Len(t, logger.LogOutput(), 1)
		require.NotNil(t, logger.StdLogger())
	})
}

func TestDiscardLogger(t *testing.T) {
	t.Run("With discarded output", func(t *testing.T) {
		DiscardLogger.Info("never seen")
		DiscardLogger.Errorf("never %s", "seen")
		assert.Equal(t, InfoLevel, DiscardLogger.LogLevel())
		assert.False(t, DiscardLogger.Enabled(ErrorLevel))
		assert.NoError(t, DiscardLogger.Flush())
		assert.Equal(t, DiscardLogger, DiscardLogger.With("key", "value"))
	})
	t.Run("With panic level", func(t *testing.T) {
		assert.Panics(t, func() {
			DiscardLogger.Panic("boom")
		})
	})
}
