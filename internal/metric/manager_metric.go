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

import "go.opentelemetry.io/otel/metric"

// ManagerMetric groups OpenTelemetry instruments that describe the shard
// manager at a coarse level.
//
// Instruments:
//   - shardmanager.shards.count   (Int64ObservableGauge)
//   - shardmanager.restarts.count (Int64ObservableCounter)
//   - shardmanager.uptime         (Int64ObservableCounter, unit: seconds)
type ManagerMetric struct {
	shardsCount   metric.Int64ObservableGauge
	restartsCount metric.Int64ObservableCounter
	uptime        metric.Int64ObservableCounter
}

// NewManagerMetric creates the manager-level instruments using the provided
// Meter. It returns an error if any instrument cannot be created so telemetry
// initialization failures are surfaced early.
func NewManagerMetric(meter metric.Meter) (*ManagerMetric, error) {
	var instruments ManagerMetric
	var err error

	if instruments.shardsCount, err = meter.Int64ObservableGauge(
		"shardmanager.shards.count",
		metric.WithDescription("Number of shards owned by the manager"),
	); err != nil {
		return nil, err
	}

	if instruments.restartsCount, err = meter.Int64ObservableCounter(
		"shardmanager.restarts.count",
		metric.WithDescription("Total number of shard restarts performed by the manager"),
	); err != nil {
		return nil, err
	}

	if instruments.uptime, err = meter.Int64ObservableCounter(
		"shardmanager.uptime",
		metric.WithDescription("Uptime of the shard manager in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return &instruments, nil
}

// ShardsCount returns the gauge that reports how many shards the manager
// currently owns.
//
// Use with Meter.RegisterCallback to observe the current value periodically.
func (x *ManagerMetric) ShardsCount() metric.Int64ObservableGauge {
	return x.shardsCount
}

// RestartsCount returns the observable counter that tracks how many shard
// restarts the manager has performed.
//
// Use with Meter.RegisterCallback to observe the current value periodically.
func (x *ManagerMetric) RestartsCount() metric.Int64ObservableCounter {
	return x.restartsCount
}

// Uptime returns the observable counter used to report the manager uptime in
// seconds.
func (x *ManagerMetric) Uptime() metric.Int64ObservableCounter {
	return x.uptime
}
