// Package decode converts wire values read from the remote store into host
// Go values.
//
// A Decoder is configured once (local database identity, reference and blob
// factories, diagnostic logger) and is read-only afterwards, so Convert may
// be called from any number of goroutines without coordination.
//
// Host representation:
//
//	Null            -> nil
//	Bool            -> bool
//	Integer         -> int64
//	Double          -> float64
//	String          -> string
//	Timestamp       -> Timestamp
//	Bytes           -> result of the BlobFactory ([]byte by default)
//	GeoPoint        -> GeoPoint
//	Reference       -> result of the ReferenceFactory
//	Array           -> []any
//	Map             -> map[string]any
//	ServerTimestamp -> resolved by ServerTimestampBehavior
//
// Wire data that breaks the protocol's own contract (a nil value, a reference
// that is not a document resource name) is an invariant violation and comes
// back as a status.CodeInternal error. A reference into another database is
// not: it is logged once and resolved against the local database.
package decode
