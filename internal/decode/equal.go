package decode

import (
	"bytes"
	"math"
	"reflect"
)

// Equal compares decoded host values.
//
// int64 and float64 holding the same mathematical value are equal, so an
// Integer and a Double wire value for 3 decode to equal host numbers. Other
// values compare structurally.
func Equal(a, b any) bool {
	if an, ok := a.(int64); ok {
		switch bn := b.(type) {
		case int64:
			return an == bn
		case float64:
			return intEqualsFloat(an, bn)
		}
		return false
	}
	if af, ok := a.(float64); ok {
		switch bn := b.(type) {
		case int64:
			return intEqualsFloat(bn, af)
		case float64:
			return af == bn || (math.IsNaN(af) && math.IsNaN(bn))
		}
		return false
	}

	switch av := a.(type) {
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, ok := bv[k]
			if !ok || !Equal(v, other) {
				return false
			}
		}
		return true
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)
	}
	return reflect.DeepEqual(a, b)
}

// intEqualsFloat reports whether f is exactly the integer i.
func intEqualsFloat(i int64, f float64) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return false
	}
	return int64(f) == i
}
