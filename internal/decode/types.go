package decode

import (
	"time"

	"github.com/roach88/firedoc/internal/model"
	"github.com/roach88/firedoc/internal/wire"
)

// Timestamp is the host form of a wire timestamp.
// Nanoseconds is always within [0, 1e9).
type Timestamp struct {
	Seconds     int64 `json:"seconds"`
	Nanoseconds int32 `json:"nanoseconds"`
}

// NewTimestamp builds a normalized Timestamp.
func NewTimestamp(seconds, nanos int64) Timestamp {
	ts := wire.NewTimestamp(seconds, nanos)
	return Timestamp{Seconds: ts.Seconds, Nanoseconds: ts.Nanos}
}

// Time converts to a UTC time.Time.
func (t Timestamp) Time() time.Time {
	return time.Unix(t.Seconds, int64(t.Nanoseconds)).UTC()
}

// String formats t as RFC 3339 with nanosecond precision.
func (t Timestamp) String() string {
	return t.Time().Format(time.RFC3339Nano)
}

// GeoPoint is the host form of a wire geo point.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ReferenceFactory builds the user-facing reference handle for a key in the
// decoder's local database.
type ReferenceFactory func(key model.DocumentKey) any

// BlobFactory wraps raw bytes in the user-facing binary type.
type BlobFactory func(b []byte) any

// defaultBlob copies b so callers cannot alias the wire value.
func defaultBlob(b []byte) any {
	return append([]byte{}, b...)
}

// defaultReference returns the key itself.
func defaultReference(key model.DocumentKey) any {
	return key
}
