package wire

import "fmt"

// Reserved field names of the map form of a pending server timestamp.
const (
	serverTimestampTypeField     = "__type__"
	serverTimestampTypeValue     = "server_timestamp"
	serverTimestampLocalTimeKey  = "__local_write_time__"
	serverTimestampPreviousField = "__previous_value__"
)

// ServerTimestamp is a field whose server-assigned timestamp is still pending.
//
// LocalWriteTime is the client's estimate of the commit time and is always
// set. Previous is the field's value before the pending write, or nil when
// the field did not exist.
type ServerTimestamp struct {
	LocalWriteTime Timestamp
	Previous       Value
}

func (ServerTimestamp) wireValue() {}

// NewServerTimestamp builds a pending value. When previous is itself a
// pending server timestamp, its own previous value is kept instead, so chains
// never grow past one level.
func NewServerTimestamp(localWriteTime Timestamp, previous Value) ServerTimestamp {
	if pending, ok := previous.(ServerTimestamp); ok {
		previous = pending.Previous
	}
	return ServerTimestamp{LocalWriteTime: localWriteTime.Normalize(), Previous: previous}
}

// HasPrevious reports whether a previous value was recorded.
func (s ServerTimestamp) HasPrevious() bool {
	return s.Previous != nil
}

// toMap lowers s into the protocol's reserved map form.
func (s ServerTimestamp) toMap() Map {
	m := Map{
		{Name: serverTimestampTypeField, Value: String(serverTimestampTypeValue)},
		{Name: serverTimestampLocalTimeKey, Value: s.LocalWriteTime},
	}
	if s.Previous != nil {
		m = append(m, Field{Name: serverTimestampPreviousField, Value: s.Previous})
	}
	return m
}

// isServerTimestampMap reports whether m carries the pending marker.
func isServerTimestampMap(m Map) bool {
	v, ok := m.Get(serverTimestampTypeField)
	if !ok {
		return false
	}
	s, ok := v.(String)
	return ok && s == serverTimestampTypeValue
}

// serverTimestampFromMap lifts the reserved map form into a ServerTimestamp.
func serverTimestampFromMap(m Map) (ServerTimestamp, error) {
	v, ok := m.Get(serverTimestampLocalTimeKey)
	if !ok {
		return ServerTimestamp{}, fmt.Errorf("server timestamp is missing %s", serverTimestampLocalTimeKey)
	}
	local, ok := v.(Timestamp)
	if !ok {
		return ServerTimestamp{}, fmt.Errorf("server timestamp %s must be a timestamp, got %T", serverTimestampLocalTimeKey, v)
	}
	previous, _ := m.Get(serverTimestampPreviousField)
	return NewServerTimestamp(local, previous), nil
}
