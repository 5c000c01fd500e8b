package testutil

import (
	"fmt"
	"sync"
)

// FixedRevisionGenerator returns the same revision every time.
//
// This enables golden snapshot comparison: the same scenario with the same
// generator produces byte-identical output.
//
// Thread-safety: FixedRevisionGenerator is stateless and safe for concurrent use.
type FixedRevisionGenerator struct {
	revision string
}

// NewFixedRevisionGenerator creates a new fixed revision generator.
// If revision is empty, Generate() returns "test-revision".
func NewFixedRevisionGenerator(revision string) *FixedRevisionGenerator {
	if revision == "" {
		revision = "test-revision"
	}
	return &FixedRevisionGenerator{revision: revision}
}

// Generate returns the fixed revision.
//
// Implements store.RevisionGenerator.
func (g *FixedRevisionGenerator) Generate() string {
	return g.revision
}

// SequentialRevisionGenerator returns "<prefix>-1", "<prefix>-2", ...
//
// Unlike FixedRevisionGenerator, successive writes get distinct revisions,
// so traces show which write produced which state.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialRevisionGenerator struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// NewSequentialRevisionGenerator creates a generator starting at 1.
// If prefix is empty, "rev" is used.
func NewSequentialRevisionGenerator(prefix string) *SequentialRevisionGenerator {
	if prefix == "" {
		prefix = "rev"
	}
	return &SequentialRevisionGenerator{prefix: prefix, next: 1}
}

// Generate returns the next revision.
//
// Implements store.RevisionGenerator.
func (g *SequentialRevisionGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	rev := fmt.Sprintf("%s-%d", g.prefix, g.next)
	g.next++
	return rev
}
