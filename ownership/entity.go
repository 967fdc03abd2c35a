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

import (
	gerrors "github.com/tochemey/treestore/errors"
)

// Entity identifies a named logical resource whose cluster-wide ownership
// is arbitrated by the Service. Its canonical form is "type:id".
type Entity struct {
	// Type groups entities of the same kind, e.g. "shard-leader".
	Type string
	// ID identifies the entity within its type.
	ID string
}

// NewEntity creates an Entity. Both fields are required.
func NewEntity(entityType, id string) (Entity, error) {
	entity := Entity{Type: entityType, ID: id}
	if err := entity.Validate(); err != nil {
		return Entity{}, err
	}
	return entity, nil
}

// Validate checks that both entity fields are set.
func (e Entity) Validate() error {
	if e.Type == "" || e.ID == "" {
		return gerrors.ErrInvalidEntity
	}
	return nil
}

// String returns the canonical "type:id" form.
func (e Entity) String() string {
	return e.Type + ":" + e.ID
}
