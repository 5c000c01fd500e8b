// Package store provides a SQLite-backed local cache of document snapshots.
//
// The store keeps one row per document, keyed by its full resource name:
//   - Documents: the latest known fields, as REST JSON in field order
//   - Pending writes: local writes applied to the cached view but not yet
//     acknowledged by a server snapshot
//
// # Critical Patterns
//
// Content addressing
//   - content_hash is wire.ContentHash of the fields (RFC 8785 canonical JSON,
//     SHA-256 with domain separation)
//   - Putting a snapshot whose hash is unchanged is a no-op
//
// Logical time
//   - Every change takes the next seq value; listings order by name, and
//     seq is exposed so callers can detect changes without wall clocks
//
// Revisions
//   - Every change gets a fresh revision from a RevisionGenerator
//     (UUIDv7 by default, so revisions sort by creation time)
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
