package model

import (
	"fmt"
	"strings"
)

// FieldPath addresses a (possibly nested) field within a document.
type FieldPath struct {
	segments []string
}

// NewFieldPath creates a field path from raw segments.
func NewFieldPath(segments ...string) FieldPath {
	return FieldPath{segments: append([]string(nil), segments...)}
}

// ParseFieldPath splits a dotted path ("address.city").
func ParseFieldPath(dotted string) (FieldPath, error) {
	if dotted == "" {
		return FieldPath{}, fmt.Errorf("invalid field path: empty")
	}
	parts := strings.Split(dotted, ".")
	for _, p := range parts {
		if p == "" {
			return FieldPath{}, fmt.Errorf("invalid field path %q: empty segment", dotted)
		}
	}
	return FieldPath{segments: parts}, nil
}

// Child returns a new path with name appended.
func (f FieldPath) Child(name string) FieldPath {
	segs := make([]string, 0, len(f.segments)+1)
	segs = append(segs, f.segments...)
	return FieldPath{segments: append(segs, name)}
}

// Segments returns a copy of the segments.
func (f FieldPath) Segments() []string {
	return append([]string(nil), f.segments...)
}

// Len returns the number of segments.
func (f FieldPath) Len() int {
	return len(f.segments)
}

// Empty reports whether the path addresses the document root.
func (f FieldPath) Empty() bool {
	return len(f.segments) == 0
}

// Equal compares paths segment by segment.
func (f FieldPath) Equal(other FieldPath) bool {
	if len(f.segments) != len(other.segments) {
		return false
	}
	for i := range f.segments {
		if f.segments[i] != other.segments[i] {
			return false
		}
	}
	return true
}

// IsPrefixOf reports whether f is a leading sub-path of other.
func (f FieldPath) IsPrefixOf(other FieldPath) bool {
	if len(f.segments) > len(other.segments) {
		return false
	}
	for i := range f.segments {
		if f.segments[i] != other.segments[i] {
			return false
		}
	}
	return true
}

// String joins the segments with ".". Segments containing dots are not
// escaped; use CanonicalString when the path must be read back.
func (f FieldPath) String() string {
	return strings.Join(f.segments, ".")
}

// CanonicalString renders the path in the REST field path grammar: simple
// segments stay bare, any other segment is wrapped in backticks with "\"
// and "`" escaped. A field named "a.b" becomes `a.b` (quoted) while the
// nested field a -> b stays a.b.
func (f FieldPath) CanonicalString() string {
	segs := make([]string, len(f.segments))
	for i, seg := range f.segments {
		segs[i] = canonicalSegment(seg)
	}
	return strings.Join(segs, ".")
}

func canonicalSegment(seg string) string {
	if isSimpleSegment(seg) {
		return seg
	}
	escaped := strings.ReplaceAll(seg, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, "`", "\\`")
	return "`" + escaped + "`"
}

// isSimpleSegment matches [a-zA-Z_][a-zA-Z_0-9]*.
func isSimpleSegment(seg string) bool {
	if seg == "" {
		return false
	}
	for i, r := range seg {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
