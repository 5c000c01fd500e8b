package store

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// RevisionGenerator produces document revision identifiers.
type RevisionGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 revisions.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined revisions, for deterministic tests.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu        sync.Mutex
	revisions []string
	idx       int
}

// NewFixedGenerator creates a generator that returns revisions in order.
func NewFixedGenerator(revisions ...string) *FixedGenerator {
	return &FixedGenerator{revisions: revisions}
}

// Generate returns the next predetermined revision.
//
// Panics if all revisions have been consumed.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.revisions) {
		panic(fmt.Sprintf("FixedGenerator: all %d revisions exhausted", len(g.revisions)))
	}
	rev := g.revisions[g.idx]
	g.idx++
	return rev
}
