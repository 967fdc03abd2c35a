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

package shard

import "go.uber.org/atomic"

// ShardStats carries the live counters of one shard. All fields are atomic,
// so hosts can read them while the shard is working. Use Snapshot for a
// consistent-enough point-in-time copy.
type ShardStats struct {
	committed          *atomic.Uint64
	failed             *atomic.Uint64
	replayed           *atomic.Uint64
	replayedDuplicates *atomic.Uint64
	deadletters        *atomic.Uint64
	pending            *atomic.Int64
	lastCommitUnixNano *atomic.Int64
}

// StatsSnapshot is a plain copy of the counters at one point in time.
type StatsSnapshot struct {
	Committed          uint64
	Failed             uint64
	Replayed           uint64
	ReplayedDuplicates uint64
	Deadletters        uint64
	Pending            int64
	LastCommitUnixNano int64
}

func newShardStats() *ShardStats {
	return &ShardStats{
		committed:          atomic.NewUint64(0),
		failed:             atomic.NewUint64(0),
		replayed:           atomic.NewUint64(0),
		replayedDuplicates: atomic.NewUint64(0),
		deadletters:        atomic.NewUint64(0),
		pending:            atomic.NewInt64(0),
		lastCommitUnixNano: atomic.NewInt64(0),
	}
}

// Committed returns the number of modifications committed since start.
func (s *ShardStats) Committed() uint64 {
	return s.committed.Load()
}

// Failed returns the number of commits that failed since start.
func (s *ShardStats) Failed() uint64 {
	return s.failed.Load()
}

// Replayed returns the number of journal entries applied during recovery.
func (s *ShardStats) Replayed() uint64 {
	return s.replayed.Load()
}

// ReplayedDuplicates returns the number of journal entries skipped during
// recovery because their commit key had already been applied in the same
// replay pass.
func (s *ShardStats) ReplayedDuplicates() uint64 {
	return s.replayedDuplicates.Load()
}

// Deadletters returns the number of commands the shard could not serve.
func (s *ShardStats) Deadletters() uint64 {
	return s.deadletters.Load()
}

// Pending returns the number of commits currently in the pipeline.
func (s *ShardStats) Pending() int64 {
	return s.pending.Load()
}

// LastCommitUnixNano returns the wall-clock time of the latest successful
// commit, or zero when nothing has committed yet.
func (s *ShardStats) LastCommitUnixNano() int64 {
	return s.lastCommitUnixNano.Load()
}

// Snapshot returns a point-in-time copy of all counters.
func (s *ShardStats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Committed:          s.committed.Load(),
		Failed:             s.failed.Load(),
		Replayed:           s.replayed.Load(),
		ReplayedDuplicates: s.replayedDuplicates.Load(),
		Deadletters:        s.deadletters.Load(),
		Pending:            s.pending.Load(),
		LastCommitUnixNano: s.lastCommitUnixNano.Load(),
	}
}
