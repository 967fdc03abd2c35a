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
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// ShardMetric defines the per-shard instrumentation
type ShardMetric struct {
	// Specifies the total number of committed modifications
	committedCount metric.Int64ObservableCounter
	// Specifies the total number of failed commits
	failedCount metric.Int64ObservableCounter
	// Specifies the total number of journal entries replayed during recovery
	replayedCount metric.Int64ObservableCounter
	// Specifies the total number of deadlettered commands
	deadletterCount metric.Int64ObservableCounter
	// Specifies the number of commits waiting in the pipeline
	pendingCount metric.Int64ObservableGauge
	// Specifies the commit latency in milliseconds
	commitDuration metric.Int64Histogram
}

// NewShardMetric creates an instance of ShardMetric
func NewShardMetric(meter metric.Meter) (*ShardMetric, error) {
	shardMetric := new(ShardMetric)
	var err error
	if shardMetric.committedCount, err = meter.Int64ObservableCounter(
		"shard_committed_count",
		metric.WithDescription("Total number of committed modifications"),
	); err != nil {
		return nil, fmt.Errorf("failed to create committedCount instrument, %w", err)
	}

	if shardMetric.failedCount, err = meter.Int64ObservableCounter(
		"shard_failed_count",
		metric.WithDescription("Total number of failed commits"),
	); err != nil {
		return nil, fmt.Errorf("failed to create failedCount instrument, %w", err)
	}

	if shardMetric.replayedCount, err = meter.Int64ObservableCounter(
		"shard_replayed_count",
		metric.WithDescription("Total number of journal entries replayed during recovery"),
	); err != nil {
		return nil, fmt.Errorf("failed to create replayedCount instrument, %w", err)
	}

	if shardMetric.deadletterCount, err = meter.Int64ObservableCounter(
		"shard_deadletter_count",
		metric.WithDescription("Total number of deadlettered commands"),
	); err != nil {
		return nil, fmt.Errorf("failed to create deadletterCount instrument, %w", err)
	}

	if shardMetric.pendingCount, err = meter.Int64ObservableGauge(
		"shard_pending_count",
		metric.WithDescription("Number of commits waiting in the pipeline"),
	); err != nil {
		return nil, fmt.Errorf("failed to create pendingCount instrument, %w", err)
	}

	if shardMetric.commitDuration, err = meter.Int64Histogram(
		"shard_commit_duration",
		metric.WithDescription("The latency of a commit in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, fmt.Errorf("failed to create commitDuration instrument, %w", err)
	}

	return shardMetric, nil
}

// CommittedCount returns the total number of committed modifications
func (x *ShardMetric) CommittedCount() metric.Int64ObservableCounter {
	return x.committedCount
}

// FailedCount returns the total number of failed commits
func (x *ShardMetric) FailedCount() metric.Int64ObservableCounter {
	return x.failedCount
}

// ReplayedCount returns the total number of journal entries replayed during recovery
func (x *ShardMetric) ReplayedCount() metric.Int64ObservableCounter {
	return x.replayedCount
}

// DeadletterCount returns the total number of deadlettered commands
func (x *ShardMetric) DeadletterCount() metric.Int64ObservableCounter {
	return x.deadletterCount
}

// PendingCount returns the number of commits waiting in the pipeline
func (x *ShardMetric) PendingCount() metric.Int64ObservableGauge {
	return x.pendingCount
}

// CommitDuration returns the commit latency histogram
func (x *ShardMetric) CommitDuration() metric.Int64Histogram {
	return x.commitDuration
}
