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

package ownership

import "time"

// TopicOwnership carries Decision messages for every arbitration outcome
// that changed an entity owner.
const TopicOwnership = "topic.ownership"

// Decision is published on TopicOwnership when arbitration moves an entity
// to a different owner or leaves it unowned.
type Decision struct {
	// Entity is the arbitrated entity.
	Entity Entity
	// PreviousOwner is the process that owned the entity before the
	// decision, empty when it was unowned.
	PreviousOwner string
	// Owner is the process owning the entity after the decision, empty when
	// it is now unowned.
	Owner string
	// Time is when the decision was made.
	Time time.Time
}

// HasOwner reports whether the decision left the entity owned.
func (d Decision) HasOwner() bool {
	return d.Owner != ""
}
