package wire

import (
	"fmt"
	"math"
)

// Value is a sealed interface over the wire variants.
// Only Null, Bool, Integer, Double, Timestamp, ServerTimestamp, String,
// Bytes, Reference, GeoPoint, Array and Map implement it.
type Value interface {
	wireValue() // Sealed
}

// Null is the null value.
type Null struct{}

func (Null) wireValue() {}

// Bool is a boolean value.
type Bool bool

func (Bool) wireValue() {}

// Integer is a signed 64-bit integer value.
type Integer int64

func (Integer) wireValue() {}

// Double is an IEEE-754 double value.
type Double float64

func (Double) wireValue() {}

// String is a UTF-8 string value.
type String string

func (String) wireValue() {}

// Bytes is an opaque byte sequence.
type Bytes []byte

func (Bytes) wireValue() {}

// Reference is a fully-qualified document resource name,
// "projects/{p}/databases/{d}/documents/{path}".
type Reference string

func (Reference) wireValue() {}

// GeoPoint is a latitude/longitude pair.
type GeoPoint struct {
	Latitude  float64
	Longitude float64
}

func (GeoPoint) wireValue() {}

// Array is an ordered sequence of values.
type Array []Value

func (Array) wireValue() {}

// TypeOrder tags the variant of a Value. The numeric values follow the
// remote store's cross-type ordering, which is why 10 is unused.
type TypeOrder int

const (
	TypeNull            TypeOrder = 0
	TypeBoolean         TypeOrder = 1
	TypeNumber          TypeOrder = 2
	TypeTimestamp       TypeOrder = 3
	TypeServerTimestamp TypeOrder = 4
	TypeString          TypeOrder = 5
	TypeBlob            TypeOrder = 6
	TypeReference       TypeOrder = 7
	TypeGeoPoint        TypeOrder = 8
	TypeArray           TypeOrder = 9
	TypeMap             TypeOrder = 11
)

var typeOrderNames = map[TypeOrder]string{
	TypeNull:            "null",
	TypeBoolean:         "boolean",
	TypeNumber:          "number",
	TypeTimestamp:       "timestamp",
	TypeServerTimestamp: "serverTimestamp",
	TypeString:          "string",
	TypeBlob:            "blob",
	TypeReference:       "reference",
	TypeGeoPoint:        "geoPoint",
	TypeArray:           "array",
	TypeMap:             "map",
}

func (t TypeOrder) String() string {
	if name, ok := typeOrderNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TypeOrder(%d)", int(t))
}

// TypeOf returns the type-order tag of v.
// The second result is false for nil, which is the only Value outside the
// sealed set a caller can construct.
func TypeOf(v Value) (TypeOrder, bool) {
	switch v.(type) {
	case Null:
		return TypeNull, true
	case Bool:
		return TypeBoolean, true
	case Integer, Double:
		return TypeNumber, true
	case Timestamp:
		return TypeTimestamp, true
	case ServerTimestamp:
		return TypeServerTimestamp, true
	case String:
		return TypeString, true
	case Bytes:
		return TypeBlob, true
	case Reference:
		return TypeReference, true
	case GeoPoint:
		return TypeGeoPoint, true
	case Array:
		return TypeArray, true
	case Map:
		return TypeMap, true
	default:
		return 0, false
	}
}

// IsNumber reports whether v is an Integer or a Double.
func IsNumber(v Value) bool {
	switch v.(type) {
	case Integer, Double:
		return true
	}
	return false
}

// IsNaN reports whether v is a Double holding NaN.
func IsNaN(v Value) bool {
	d, ok := v.(Double)
	return ok && math.IsNaN(float64(d))
}
