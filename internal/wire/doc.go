// Package wire defines the tagged-union representation of document field
// values as they travel between the client and the remote store.
//
// Value is a sealed interface: only the variants declared in this package
// implement it, so a type switch over Value is exhaustive. Anything else
// reaching a consumer (nil, or a value smuggled in through reflection) is an
// invariant violation, never a default case.
//
// Values are immutable once built. Array and Map are slices; helpers that
// look like mutation (Map.Set, Map.Delete) return copies.
//
// The JSON codec speaks the proto3 REST form ({"stringValue": "x"}). Pending
// server timestamps are stored by the remote protocol as a map carrying a
// "__type__": "server_timestamp" marker; the codec lifts that map into the
// ServerTimestamp variant on read and lowers it again on write.
package wire
