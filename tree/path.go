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
	"net/url"
	"strings"

	"github.com/zeebo/xxh3"

	gerrors "github.com/tochemey/treestore/errors"
)

// Path identifies a node in the data tree. A path is an immutable sequence of
// segments rendered canonically as a slash-separated string with a leading
// slash and no trailing slash:
//
//	/
//	/nodes
//	/nodes/n1/flows
//
// Segments containing reserved characters are percent-escaped in the canonical
// form, so String and ParsePath round-trip any segment. The zero value is the
// root path. Path values are safe to copy and to share across goroutines.
type Path struct {
	segments  []string
	canonical string
}

// RootPath returns the path of the tree root.
func RootPath() Path {
	return Path{canonical: "/"}
}

// ParsePath parses the canonical textual form of a path.
//
// The input must start with a slash, carry no trailing slash (except the bare
// root "/") and contain no empty segments. Percent-escapes inside segments are
// decoded. Malformed input is rejected with an error matching
// errors.ErrInvalidPath.
func ParsePath(input string) (Path, error) {
	switch {
	case input == "":
		return Path{}, gerrors.NewInvalidPathError(input, "path is required")
	case input == "/":
		return RootPath(), nil
	case !strings.HasPrefix(input, "/"):
		return Path{}, gerrors.NewInvalidPathError(input, "path must start with '/'")
	case strings.HasSuffix(input, "/"):
		return Path{}, gerrors.NewInvalidPathError(input, "path must not end with '/'")
	}

	raw := strings.Split(input[1:], "/")
	segments := make([]string, 0, len(raw))
	for _, escaped := range raw {
		if escaped == "" {
			return Path{}, gerrors.NewInvalidPathError(input, "path contains an empty segment")
		}
		segment, err := url.PathUnescape(escaped)
		if err != nil {
			return Path{}, gerrors.NewInvalidPathError(input, err.Error())
		}
		segments = append(segments, segment)
	}

	return Path{
		segments:  segments,
		canonical: canonicalize(segments),
	}, nil
}

// Child returns the path of the given child segment under x.
// The segment is recorded verbatim and escaped in the canonical form.
func (x Path) Child(segment string) Path {
	segments := make([]string, 0, len(x.segments)+1)
	segments = append(segments, x.segments...)
	segments = append(segments, segment)
	return Path{
		segments:  segments,
		canonical: canonicalize(segments),
	}
}

// Parent returns the parent path. The parent of the root is the root itself.
func (x Path) Parent() Path {
	if x.IsRoot() {
		return RootPath()
	}
	if len(x.segments) == 1 {
		return RootPath()
	}
	segments := x.segments[:len(x.segments)-1]
	return Path{
		segments:  segments,
		canonical: canonicalize(segments),
	}
}

// Segments returns the raw (unescaped) path segments from the root down.
// The root path has no segments. The returned slice must not be mutated.
func (x Path) Segments() []string {
	return x.segments
}

// IsRoot reports whether x is the root path.
func (x Path) IsRoot() bool {
	return len(x.segments) == 0
}

// Depth returns the number of segments between the root and x.
// The root has depth zero.
func (x Path) Depth() int {
	return len(x.segments)
}

// Contains reports whether other is x itself or a descendant of x.
// The root contains every path. This is the test listener scopes build on.
func (x Path) Contains(other Path) bool {
	if x.IsRoot() {
		return true
	}
	if len(other.segments) < len(x.segments) {
		return false
	}
	for i, segment := range x.segments {
		if other.segments[i] != segment {
			return false
		}
	}
	return true
}

// Equals reports whether x and other denote the same node.
func (x Path) Equals(other Path) bool {
	return x.String() == other.String()
}

// String returns the canonical textual form of the path.
func (x Path) String() string {
	if x.canonical == "" {
		return "/"
	}
	return x.canonical
}

// Fingerprint returns the xxh3 hash of the canonical form. Fingerprints are
// compact labels for logs and metrics, never a substitute for the path itself.
func (x Path) Fingerprint() uint64 {
	return xxh3.Hash([]byte(x.String()))
}

// canonicalize renders segments as the canonical escaped string form.
func canonicalize(segments []string) string {
	if len(segments) == 0 {
		return "/"
	}
	size := 0
	for _, segment := range segments {
		size += 1 + len(segment)
	}
	var builder strings.Builder
	builder.Grow(size)
	for _, segment := range segments {
		_ = builder.WriteByte('/')
		_, _ = builder.WriteString(url.PathEscape(segment))
	}
	return builder.String()
}
