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

package metric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestNewShardMetric(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	shardMetric, err := NewShardMetric(meter)
	require.NoError(t, err)
	assert.NotNil(t, shardMetric)
	assert.NotNil(t, shardMetric.CommittedCount())
	assert.NotNil(t, shardMetric.FailedCount())
	assert.NotNil(t, shardMetric.ReplayedCount())
	assert.NotNil(t, shardMetric.DeadletterCount())
	assert.NotNil(t, shardMetric.PendingCount())
	assert.NotNil(t, shardMetric.CommitDuration())
}

func TestNewManagerMetric(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	managerMetric, err := NewManagerMetric(meter)
	require.NoError(t, err)
	assert.NotNil(t, managerMetric)
	assert.NotNil(t, managerMetric.ShardsCount())
	assert.NotNil(t, managerMetric.RestartsCount())
	assert.NotNil(t, managerMetric.Uptime())
}

func TestProvider(t *testing.T) {
	provider := NewProvider()
	require.NotNil(t, provider)
	require.NotNil(t, provider.Meter())

	shardMetric, err := NewShardMetric(provider.Meter())
	require.NoError(t, err)
	assert.NotNil(t, shardMetric)
}
