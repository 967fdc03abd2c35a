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

import "github.com/tochemey/treestore/supervisor"

// Event stream topics shards publish on.
const (
	// TopicShardLifecycle carries LifecycleEvent messages on every state
	// transition.
	TopicShardLifecycle = "topic.shard.lifecycle"
	// TopicShardFailures carries FailureEvent messages when a shard escalates.
	TopicShardFailures = "topic.shard.failures"
	// TopicDeadletters carries Deadletter messages for commands a shard could
	// not serve.
	TopicDeadletters = "topic.shard.deadletters"
)

// LifecycleEvent is published on TopicShardLifecycle whenever a shard changes
// state.
type LifecycleEvent struct {
	ShardName string
	State     State
}

// FailureEvent is published on TopicShardFailures when a shard escalates.
// The directive is the shard's own suggestion; the manager resolves the final
// action against its supervisor configuration.
type FailureEvent struct {
	ShardName string
	Cause     error
	Directive supervisor.Directive
}

// Deadletter is published on TopicDeadletters for every command the shard
// rejected or could not deliver a reply for.
type Deadletter struct {
	ShardName string
	Command   Command
	Reason    error
}
