// Package userdata turns host payloads into wire data for writes.
//
// A Reader is bound to one database. ParseSet, ParseUpdate and ParseValue walk
// the payload, convert every host value to its wire.Value, and resolve
// fieldvalue sentinels against a parse context that records the field mask
// and the field transforms of the write. The result is a ParsedWrite, which
// can be applied to a locally cached document.
//
// Every failure is a usage error (status.CodeInvalidArgument) carrying the
// offending field path.
package userdata
