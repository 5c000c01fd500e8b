// Package harness runs scenario tests against a fresh local cache.
//
// # Scenario Format
//
// Scenarios are YAML files. Field values use the markers of package payload
// ($serverTimestamp, $increment, $arrayUnion, $arrayRemove, $delete, $ref,
// $timestamp, $bytes, $geo):
//
//	name: increment_counter
//	description: "Increment adds to a cached integer"
//	setup:
//	  - document: rooms/lobby
//	    fields: { visits: 1 }
//	flow:
//	  - op: update
//	    document: rooms/lobby
//	    data: { visits: { $increment: 2 } }
//	    expect:
//	      transforms: 1
//	assertions:
//	  - type: document
//	    document: rooms/lobby
//	    expect: { visits: 3 }
//	  - type: pending
//	    document: rooms/lobby
//	    pending: true
//
// Setup documents are cached as server snapshots; flow steps are local writes
// (set, merge, update, delete). A step may expect a failure by status code:
//
//	expect:
//	  error: INVALID_ARGUMENT
//
// # Assertion Types
//
//   - document: decodes a document and compares the listed fields (subset
//     match); absent lists fields that must not exist
//   - pending: checks the pending-writes flag of a document
//   - missing: checks that a document is not cached
//   - op_count: checks how many steps ran a given op
//   - trace_order: checks that ops appear in the given order
//
// # Deterministic Testing
//
// Every scenario runs in an in-memory SQLite database with a
// testutil.DeterministicClock for local write times and a
// testutil.SequentialRevisionGenerator for revisions, so the same scenario
// always produces the same trace. RunWithGolden compares that trace against
// testdata/golden/<name>.golden.
package harness
