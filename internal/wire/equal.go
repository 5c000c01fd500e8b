package wire

import (
	"bytes"
	"math"
)

// Equal reports whether a and b are the same wire value.
//
// Integers and doubles never compare equal to each other. Doubles compare
// NaN equal to NaN and distinguish -0 from +0. Pending server timestamps are
// equal when their local write times match. Map equality ignores field order.
func Equal(a, b Value) bool {
	ta, okA := TypeOf(a)
	tb, okB := TypeOf(b)
	if !okA || !okB || ta != tb {
		return false
	}

	switch av := a.(type) {
	case Null:
		return true
	case Bool:
		return av == b.(Bool)
	case Integer, Double:
		return numberEqual(a, b)
	case Timestamp:
		return av.Normalize() == b.(Timestamp).Normalize()
	case ServerTimestamp:
		return av.LocalWriteTime.Normalize() == b.(ServerTimestamp).LocalWriteTime.Normalize()
	case String:
		return av == b.(String)
	case Bytes:
		return bytes.Equal(av, b.(Bytes))
	case Reference:
		return av == b.(Reference)
	case GeoPoint:
		bv := b.(GeoPoint)
		return floatEqual(av.Latitude, bv.Latitude) && floatEqual(av.Longitude, bv.Longitude)
	case Array:
		bv := b.(Array)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Map:
		bv := b.(Map)
		if len(av) != len(bv) {
			return false
		}
		for _, f := range av {
			other, ok := bv.Get(f.Name)
			if !ok || !Equal(f.Value, other) {
				return false
			}
		}
		return true
	}
	return false
}

func numberEqual(a, b Value) bool {
	switch av := a.(type) {
	case Integer:
		bv, ok := b.(Integer)
		return ok && av == bv
	case Double:
		bv, ok := b.(Double)
		return ok && floatEqual(float64(av), float64(bv))
	}
	return false
}

func floatEqual(a, b float64) bool {
	if a == b {
		return math.Signbit(a) == math.Signbit(b)
	}
	return math.IsNaN(a) && math.IsNaN(b)
}

// Contains reports whether arr holds an element Equal to v.
func Contains(arr Array, v Value) bool {
	for _, elem := range arr {
		if Equal(elem, v) {
			return true
		}
	}
	return false
}
