package wire

import "slices"

// Field is a single named entry of a Map.
type Field struct {
	Name  string
	Value Value
}

// Map is a field-name keyed collection of values.
// Field order is preserved for iteration; equality ignores it.
// Names are unique: constructors and Set replace an existing entry in place.
type Map []Field

func (Map) wireValue() {}

// F is a shorthand for Field for ergonomic construction.
// Example: NewMap(F("name", String("alice")), F("age", Integer(7)))
func F(name string, value Value) Field {
	return Field{Name: name, Value: value}
}

// NewMap builds a Map from fields in order. A repeated name replaces the
// earlier value but keeps its position.
func NewMap(fields ...Field) Map {
	m := make(Map, 0, len(fields))
	for _, f := range fields {
		m = m.Set(f.Name, f.Value)
	}
	return m
}

// Get returns the value stored under name.
func (m Map) Get(name string) (Value, bool) {
	for _, f := range m {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Names returns field names in iteration order.
func (m Map) Names() []string {
	names := make([]string, len(m))
	for i, f := range m {
		names[i] = f.Name
	}
	return names
}

// Set returns a copy of m with name bound to value.
func (m Map) Set(name string, value Value) Map {
	out := slices.Clone(m)
	for i := range out {
		if out[i].Name == name {
			out[i].Value = value
			return out
		}
	}
	return append(out, Field{Name: name, Value: value})
}

// Delete returns a copy of m without name.
func (m Map) Delete(name string) Map {
	out := make(Map, 0, len(m))
	for _, f := range m {
		if f.Name != name {
			out = append(out, f)
		}
	}
	return out
}

// GetPath walks nested maps along segments.
func (m Map) GetPath(segments []string) (Value, bool) {
	if len(segments) == 0 {
		return m, true
	}
	v, ok := m.Get(segments[0])
	if !ok {
		return nil, false
	}
	if len(segments) == 1 {
		return v, true
	}
	child, ok := v.(Map)
	if !ok {
		return nil, false
	}
	return child.GetPath(segments[1:])
}

// SetPath returns a copy of m with the value at segments replaced,
// creating (or overwriting non-map) intermediate maps as needed.
func (m Map) SetPath(segments []string, value Value) Map {
	if len(segments) == 0 {
		return m
	}
	if len(segments) == 1 {
		return m.Set(segments[0], value)
	}
	child, _ := m.Get(segments[0])
	childMap, ok := child.(Map)
	if !ok {
		childMap = Map{}
	}
	return m.Set(segments[0], childMap.SetPath(segments[1:], value))
}

// DeletePath returns a copy of m without the value at segments.
func (m Map) DeletePath(segments []string) Map {
	if len(segments) == 0 {
		return m
	}
	if len(segments) == 1 {
		return m.Delete(segments[0])
	}
	child, ok := m.Get(segments[0])
	if !ok {
		return m
	}
	childMap, ok := child.(Map)
	if !ok {
		return m
	}
	return m.Set(segments[0], childMap.DeletePath(segments[1:]))
}
