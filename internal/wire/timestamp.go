package wire

import (
	"fmt"
	"time"
)

const nanosPerSecond = 1_000_000_000

// Timestamp is a point in time as (seconds, nanos) since the Unix epoch.
// Nanos is always within [0, 1e9) for values built with NewTimestamp.
type Timestamp struct {
	Seconds int64
	Nanos   int32
}

func (Timestamp) wireValue() {}

// NewTimestamp builds a Timestamp, carrying out-of-range nanos into seconds
// so that the nanosecond component lands in [0, 1e9).
func NewTimestamp(seconds, nanos int64) Timestamp {
	seconds += nanos / nanosPerSecond
	nanos %= nanosPerSecond
	if nanos < 0 {
		nanos += nanosPerSecond
		seconds--
	}
	return Timestamp{Seconds: seconds, Nanos: int32(nanos)}
}

// TimestampFromTime converts a time.Time.
func TimestampFromTime(t time.Time) Timestamp {
	return NewTimestamp(t.Unix(), int64(t.Nanosecond()))
}

// ParseTimestamp parses an RFC 3339 string with up to nine fractional digits.
func ParseTimestamp(s string) (Timestamp, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Timestamp{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return TimestampFromTime(t), nil
}

// Normalize returns t with nanos carried into [0, 1e9).
func (t Timestamp) Normalize() Timestamp {
	return NewTimestamp(t.Seconds, int64(t.Nanos))
}

// Time converts to a UTC time.Time.
func (t Timestamp) Time() time.Time {
	return time.Unix(t.Seconds, int64(t.Nanos)).UTC()
}

// IsZero reports whether t is the Unix epoch.
func (t Timestamp) IsZero() bool {
	return t.Seconds == 0 && t.Nanos == 0
}

// String formats t as RFC 3339 with nanosecond precision.
func (t Timestamp) String() string {
	return t.Time().Format(time.RFC3339Nano)
}

// Compare orders timestamps chronologically.
func (t Timestamp) Compare(other Timestamp) int {
	a, b := t.Normalize(), other.Normalize()
	switch {
	case a.Seconds < b.Seconds:
		return -1
	case a.Seconds > b.Seconds:
		return 1
	case a.Nanos < b.Nanos:
		return -1
	case a.Nanos > b.Nanos:
		return 1
	}
	return 0
}
