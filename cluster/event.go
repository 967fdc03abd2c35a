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

package cluster

import "time"

// EventType defines the membership event type
type EventType int

const (
	// MemberJoined is emitted when a member joins the cluster
	MemberJoined EventType = iota
	// MemberLeft is emitted when a member leaves the cluster or is
	// declared dead by the failure detector
	MemberLeft
	// MemberUpdated is emitted when a member metadata changes
	MemberUpdated
)

// String returns the string representation of the event type
func (t EventType) String() string {
	switch t {
	case MemberJoined:
		return "MemberJoined"
	case MemberLeft:
		return "MemberLeft"
	case MemberUpdated:
		return "MemberUpdated"
	default:
		return ""
	}
}

// Event represents a membership change observed by the local node
type Event struct {
	// Type specifies the membership event type
	Type EventType
	// Member is the member the event is about
	Member Member
	// Time is when the event was observed
	Time time.Time
}
