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

// Schema is the opaque typing handle a store validates writes against.
// The store machinery never inspects a schema beyond its identifier; hosts
// supply richer implementations and pass them explicitly through the APIs
// that accept one.
type Schema interface {
	// SchemaID returns the stable identifier of this schema revision.
	SchemaID() string
}

type staticSchema string

var _ Schema = staticSchema("")

// StaticSchema returns a Schema that is nothing but its identifier.
// Hosts without a typing layer and tests use it.
func StaticSchema(id string) Schema {
	return staticSchema(id)
}

// SchemaID implements Schema.
func (s staticSchema) SchemaID() string {
	return string(s)
}
