package client

import "github.com/roach88/firedoc/internal/fieldvalue"

// Sentinel is a write-time marker requesting a field transform.
type Sentinel = fieldvalue.Sentinel

// Delete marks a field for deletion in Update or in a merging Set.
func Delete() Sentinel { return fieldvalue.Delete() }

// ServerTimestamp sets a field to the commit time.
func ServerTimestamp() Sentinel { return fieldvalue.ServerTimestamp() }

// ArrayUnion appends the elements not already present in an array field.
func ArrayUnion(elems ...any) (Sentinel, error) { return fieldvalue.ArrayUnion(elems...) }

// ArrayRemove removes every occurrence of the elements from an array field.
func ArrayRemove(elems ...any) (Sentinel, error) { return fieldvalue.ArrayRemove(elems...) }

// Increment adds n to a numeric field.
func Increment[N fieldvalue.Number](n N) Sentinel { return fieldvalue.Increment(n) }
