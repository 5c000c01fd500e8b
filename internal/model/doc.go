// Package model provides the identity and path types shared by every other
// firedoc package.
//
// This package contains value types only. It imports nothing internal, so
// wire, decode, fieldvalue and userdata can all depend on it without cycles.
//
// Paths are immutable: every operation that looks like mutation (Child,
// PopFirst) returns a new value backed by a fresh slice.
package model
