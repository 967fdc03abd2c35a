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

package tree

import (
	"encoding"
	"encoding/binary"
	"fmt"

	gerrors "github.com/tochemey/treestore/errors"
	"github.com/tochemey/treestore/internal/bufferpool"
)

// OpKind identifies the kind of a recorded tree operation.
type OpKind byte

const (
	// OpWrite sets the node value at a path, creating missing ancestors.
	OpWrite OpKind = iota + 1
	// OpMerge merges the value into the node at a path, creating it when absent.
	OpMerge
	// OpDelete removes the subtree rooted at a path.
	OpDelete
)

// String returns the lowercase name of the operation kind.
func (k OpKind) String() string {
	switch k {
	case OpWrite:
		return "write"
	case OpMerge:
		return "merge"
	case OpDelete:
		return "delete"
	default:
		return ""
	}
}

// Operation is a single recorded mutation of the data tree.
type Operation struct {
	kind  OpKind
	path  Path
	value []byte
}

// Kind returns the operation kind.
func (op Operation) Kind() OpKind {
	return op.kind
}

// Path returns the path the operation targets.
func (op Operation) Path() Path {
	return op.path
}

// Value returns the operation payload. It is nil for deletes.
// The returned slice must not be mutated.
func (op Operation) Value() []byte {
	return op.value
}

// codecVersion is the wire format version of the canonical encoding.
const codecVersion byte = 1

// Modification is the ordered set of operations recorded by a read-write
// transaction. Operations are append-only and replay in recording order.
//
// The canonical binary encoding produced by MarshalBinary is deterministic.
// Two modifications recording the same operations in the same order encode
// to identical bytes, which is what commit identity and journal payloads
// are built on. A Modification is not safe for concurrent use.
type Modification struct {
	operations []Operation
}

var (
	_ encoding.BinaryMarshaler   = (*Modification)(nil)
	_ encoding.BinaryUnmarshaler = (*Modification)(nil)
)

// NewModification creates an empty modification.
func NewModification() *Modification {
	return new(Modification)
}

// Write records setting the node value at the given path.
// Missing ancestors are created when the modification is applied.
// The value bytes are copied.
func (m *Modification) Write(path Path, value []byte) {
	m.append(OpWrite, path, value)
}

// Merge records merging the value into the node at the given path,
// creating the node when absent. The value bytes are copied.
func (m *Modification) Merge(path Path, value []byte) {
	m.append(OpMerge, path, value)
}

// Delete records the removal of the subtree rooted at the given path.
func (m *Modification) Delete(path Path) {
	m.append(OpDelete, path, nil)
}

// Operations returns the recorded operations in recording order.
// The returned slice must not be mutated.
func (m *Modification) Operations() []Operation {
	return m.operations
}

// IsEmpty reports whether no operation has been recorded.
func (m *Modification) IsEmpty() bool {
	return len(m.operations) == 0
}

func (m *Modification) append(kind OpKind, path Path, value []byte) {
	var copied []byte
	if value != nil {
		copied = make([]byte, len(value))
		copy(copied, value)
	}
	m.operations = append(m.operations, Operation{
		kind:  kind,
		path:  path,
		value: copied,
	})
}

// MarshalBinary encodes the modification in its canonical form:
// a version byte, a little-endian uint32 operation count, then per operation
// the kind byte and the length-prefixed canonical path and value bytes.
func (m *Modification) MarshalBinary() ([]byte, error) {
	buffer := bufferpool.Pool.Get()
	defer bufferpool.Pool.Put(buffer)

	var scratch [4]byte
	buffer.WriteByte(codecVersion)
	binary.LittleEndian.PutUint32(scratch[:], uint32(len(m.operations)))
	buffer.Write(scratch[:])

	for _, op := range m.operations {
		buffer.WriteByte(byte(op.kind))
		path := op.path.String()
		binary.LittleEndian.PutUint32(scratch[:], uint32(len(path)))
		buffer.Write(scratch[:])
		buffer.WriteString(path)
		binary.LittleEndian.PutUint32(scratch[:], uint32(len(op.value)))
		buffer.Write(scratch[:])
		buffer.Write(op.value)
	}

	encoded := make([]byte, buffer.Len())
	copy(encoded, buffer.Bytes())
	return encoded, nil
}

// UnmarshalBinary decodes a canonical encoding produced by MarshalBinary,
// replacing any previously recorded operations. Unknown format versions,
// unknown operation kinds and truncated or trailing input are rejected.
func (m *Modification) UnmarshalBinary(data []byte) error {
	if len(data) < 5 {
		return fmt.Errorf("%w: missing header", gerrors.ErrCorruptedModification)
	}
	if data[0] != codecVersion {
		return fmt.Errorf("%w: version %d", gerrors.ErrUnsupportedCodecVersion, data[0])
	}

	count := binary.LittleEndian.Uint32(data[1:5])
	offset := 5
	operations := make([]Operation, 0, count)

	for i := uint32(0); i < count; i++ {
		if offset >= len(data) {
			return fmt.Errorf("%w: truncated at operation %d", gerrors.ErrCorruptedModification, i)
		}
		kind := OpKind(data[offset])
		offset++
		if kind < OpWrite || kind > OpDelete {
			return fmt.Errorf("%w: kind %d", gerrors.ErrUnknownOperation, kind)
		}

		rawPath, next, err := readChunk(data, offset)
		if err != nil {
			return fmt.Errorf("%w: truncated path at operation %d", gerrors.ErrCorruptedModification, i)
		}
		offset = next
		path, err := ParsePath(string(rawPath))
		if err != nil {
			return err
		}

		value, next, err := readChunk(data, offset)
		if err != nil {
			return fmt.Errorf("%w: truncated value at operation %d", gerrors.ErrCorruptedModification, i)
		}
		offset = next

		var copied []byte
		if kind != OpDelete {
			copied = make([]byte, len(value))
			copy(copied, value)
		}
		operations = append(operations, Operation{
			kind:  kind,
			path:  path,
			value: copied,
		})
	}

	if offset != len(data) {
		return fmt.Errorf("%w: %d trailing bytes", gerrors.ErrCorruptedModification, len(data)-offset)
	}

	m.operations = operations
	return nil
}

// readChunk reads a little-endian uint32 length prefix and the chunk it
// announces, returning the chunk and the offset past it.
func readChunk(data []byte, offset int) ([]byte, int, error) {
	if offset+4 > len(data) {
		return nil, 0, gerrors.ErrCorruptedModification
	}
	length := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
	offset += 4
	if offset+length > len(data) {
		return nil, 0, gerrors.ErrCorruptedModification
	}
	return data[offset : offset+length], offset + length, nil
}
