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

// Listener observes ownership transitions of the local process.
type Listener interface {
	// OwnershipChanged is invoked for every transition, one at a time and in
	// transition order, on a dedicated dispatch goroutine per registration.
	OwnershipChanged(change Change)
}

// Change describes one ownership transition of the local process for one
// entity. A listener never sees a change where WasOwner equals IsOwner.
type Change struct {
	// Entity is the entity whose ownership changed.
	Entity Entity
	// WasOwner reports whether the local process owned the entity before.
	WasOwner bool
	// IsOwner reports whether the local process owns the entity now.
	IsOwner bool
}

// Gained returns true when the local process acquired ownership.
func (c Change) Gained() bool {
	return !c.WasOwner && c.IsOwner
}

// Lost returns true when the local process gave up ownership.
func (c Change) Lost() bool {
	return c.WasOwner && !c.IsOwner
}

// State is the point-in-time ownership of an entity as seen by one process.
type State struct {
	// IsOwner reports whether the asking process owns the entity.
	IsOwner bool
	// HasOwner reports whether any process owns the entity.
	HasOwner bool
}
