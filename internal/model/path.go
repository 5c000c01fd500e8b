package model

import (
	"errors"
	"fmt"
	"strings"
)

// ResourcePath is a slash-delimited hierarchical path such as
// "projects/p/databases/d/documents/users/alice".
type ResourcePath struct {
	segments []string
}

// NewResourcePath creates a path from already-split segments.
func NewResourcePath(segments ...string) ResourcePath {
	return ResourcePath{segments: append([]string(nil), segments...)}
}

// ParseResourcePath splits a resource name into segments.
// Empty segments (leading, trailing or doubled slashes) are rejected.
func ParseResourcePath(name string) (ResourcePath, error) {
	if name == "" {
		return ResourcePath{}, nil
	}
	if strings.Contains(name, "//") {
		return ResourcePath{}, fmt.Errorf("invalid resource path %q: paths must not contain //", name)
	}
	parts := strings.Split(strings.Trim(name, "/"), "/")
	for _, p := range parts {
		if p == "" {
			return ResourcePath{}, fmt.Errorf("invalid resource path %q: empty segment", name)
		}
	}
	return ResourcePath{segments: parts}, nil
}

// Len returns the number of segments.
func (p ResourcePath) Len() int {
	return len(p.segments)
}

// Segment returns the i-th segment. It panics if i is out of range.
func (p ResourcePath) Segment(i int) string {
	return p.segments[i]
}

// Segments returns a copy of the segments.
func (p ResourcePath) Segments() []string {
	return append([]string(nil), p.segments...)
}

// LastSegment returns the final segment, or "" for the empty path.
func (p ResourcePath) LastSegment() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[len(p.segments)-1]
}

// PopFirst returns the path without its first n segments.
func (p ResourcePath) PopFirst(n int) ResourcePath {
	if n >= len(p.segments) {
		return ResourcePath{}
	}
	return NewResourcePath(p.segments[n:]...)
}

// PopLast returns the path without its final segment.
func (p ResourcePath) PopLast() ResourcePath {
	if len(p.segments) == 0 {
		return ResourcePath{}
	}
	return NewResourcePath(p.segments[:len(p.segments)-1]...)
}

// Child returns a new path with segment appended.
func (p ResourcePath) Child(segment string) ResourcePath {
	segs := make([]string, 0, len(p.segments)+1)
	segs = append(segs, p.segments...)
	return ResourcePath{segments: append(segs, segment)}
}

// Append returns p followed by every segment of other.
func (p ResourcePath) Append(other ResourcePath) ResourcePath {
	segs := make([]string, 0, len(p.segments)+len(other.segments))
	segs = append(segs, p.segments...)
	return ResourcePath{segments: append(segs, other.segments...)}
}

// IsEmpty reports whether the path has no segments.
func (p ResourcePath) IsEmpty() bool {
	return len(p.segments) == 0
}

// Equal compares paths segment by segment.
func (p ResourcePath) Equal(other ResourcePath) bool {
	if len(p.segments) != len(other.segments) {
		return false
	}
	for i := range p.segments {
		if p.segments[i] != other.segments[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is a leading sub-path of p.
func (p ResourcePath) HasPrefix(prefix ResourcePath) bool {
	if len(prefix.segments) > len(p.segments) {
		return false
	}
	for i := range prefix.segments {
		if p.segments[i] != prefix.segments[i] {
			return false
		}
	}
	return true
}

// String joins the segments with "/".
func (p ResourcePath) String() string {
	return strings.Join(p.segments, "/")
}

// IsValidResourceName reports whether path has the shape
// "projects/{project}/databases/{database}/...".
func IsValidResourceName(path ResourcePath) bool {
	return path.Len() >= 4 && path.Segment(0) == "projects" && path.Segment(2) == "databases"
}

// ErrInvalidDocumentKey is returned when a path does not address a document.
var ErrInvalidDocumentKey = errors.New("invalid document key")

// DocumentKey identifies a document within a database: an even, non-zero
// number of segments alternating collection id and document id.
type DocumentKey struct {
	path ResourcePath
}

// NewDocumentKey validates path and wraps it as a key.
func NewDocumentKey(path ResourcePath) (DocumentKey, error) {
	if path.Len() == 0 || path.Len()%2 != 0 {
		return DocumentKey{}, fmt.Errorf("%w: %q has %d segments, documents need an even number", ErrInvalidDocumentKey, path.String(), path.Len())
	}
	return DocumentKey{path: path}, nil
}

// ParseDocumentKey parses a relative document path such as "users/alice".
func ParseDocumentKey(s string) (DocumentKey, error) {
	path, err := ParseResourcePath(s)
	if err != nil {
		return DocumentKey{}, err
	}
	return NewDocumentKey(path)
}

// MustDocumentKey is like ParseDocumentKey but panics on error.
// Use only in tests or with literal paths.
func MustDocumentKey(s string) DocumentKey {
	key, err := ParseDocumentKey(s)
	if err != nil {
		panic(err)
	}
	return key
}

// Path returns the key's relative path.
func (k DocumentKey) Path() ResourcePath {
	return k.path
}

// ID returns the document id (last segment).
func (k DocumentKey) ID() string {
	return k.path.LastSegment()
}

// CollectionID returns the id of the collection holding the document.
func (k DocumentKey) CollectionID() string {
	return k.path.PopLast().LastSegment()
}

// CollectionPath returns the path of the parent collection.
func (k DocumentKey) CollectionPath() ResourcePath {
	return k.path.PopLast()
}

// Equal compares keys by path.
func (k DocumentKey) Equal(other DocumentKey) bool {
	return k.path.Equal(other.path)
}

// String returns the relative path, e.g. "users/alice".
func (k DocumentKey) String() string {
	return k.path.String()
}
