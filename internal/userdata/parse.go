package userdata

import (
	"math"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/roach88/firedoc/internal/decode"
	"github.com/roach88/firedoc/internal/fieldvalue"
	"github.com/roach88/firedoc/internal/model"
	"github.com/roach88/firedoc/internal/wire"
)

// DocumentReference is implemented by host reference handles that can be
// written as reference values.
type DocumentReference interface {
	DatabaseID() model.DatabaseID
	Key() model.DocumentKey
}

// parse converts v to a wire value. A nil value with a nil error means v
// was a sentinel that produced no data.
func (c parseContext) parse(v any) (wire.Value, error) {
	switch val := v.(type) {
	case nil:
		c.addLeafToMask()
		return wire.Null{}, nil
	case fieldvalue.Sentinel:
		return nil, c.parseSentinel(val)
	case wire.Value:
		if _, ok := val.(wire.Array); ok && c.arrayElement {
			return nil, c.Errorf("nested arrays are not supported")
		}
		c.addLeafToMask()
		return val, nil
	case DocumentReference:
		return c.parseReference(val.DatabaseID(), val.Key())
	case model.DocumentKey:
		return c.parseReference(c.reader.databaseID, val)
	case time.Time:
		c.addLeafToMask()
		return wire.TimestampFromTime(val), nil
	case decode.Timestamp:
		c.addLeafToMask()
		return wire.NewTimestamp(val.Seconds, int64(val.Nanoseconds)), nil
	case decode.GeoPoint:
		return c.parseGeoPoint(val)
	case map[string]any:
		return c.parseMap(val)
	}
	return c.parseReflect(reflect.ValueOf(v))
}

func (c parseContext) parseReflect(rv reflect.Value) (wire.Value, error) {
	switch rv.Kind() {
	case reflect.Bool:
		c.addLeafToMask()
		return wire.Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		c.addLeafToMask()
		return wire.Integer(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, c.Errorf("unsigned integer %d overflows a 64-bit signed integer", u)
		}
		c.addLeafToMask()
		return wire.Integer(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		c.addLeafToMask()
		return wire.Double(rv.Float()), nil
	case reflect.String:
		c.addLeafToMask()
		return wire.String(rv.String()), nil
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			c.addLeafToMask()
			b := make([]byte, rv.Len())
			for i := range b {
				b[i] = byte(rv.Index(i).Uint())
			}
			return wire.Bytes(b), nil
		}
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			c.addLeafToMask()
			return wire.Null{}, nil
		}
		return c.parseArray(rv)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, c.Errorf("unsupported map key type %s", rv.Type().Key())
		}
		if rv.IsNil() {
			c.addLeafToMask()
			return wire.Null{}, nil
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return c.parseMap(m)
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			c.addLeafToMask()
			return wire.Null{}, nil
		}
		return c.parse(rv.Elem().Interface())
	case reflect.Invalid:
		c.addLeafToMask()
		return wire.Null{}, nil
	}
	return nil, c.Errorf("unsupported field value: %s", rv.Type())
}

// parseMap emits fields sorted by name so parsing is deterministic.
func (c parseContext) parseMap(m map[string]any) (wire.Value, error) {
	if len(m) == 0 {
		c.addLeafToMask()
		return wire.Map{}, nil
	}

	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(wire.Map, 0, len(m))
	for _, name := range names {
		child := c.childForField(name)
		if err := child.validateFieldName(name); err != nil {
			return nil, err
		}
		v, err := child.parse(m[name])
		if err != nil {
			return nil, err
		}
		if v != nil {
			out = append(out, wire.F(name, v))
		}
	}
	return out, nil
}

func (c parseContext) parseArray(rv reflect.Value) (wire.Value, error) {
	if c.arrayElement {
		return nil, c.Errorf("nested arrays are not supported")
	}

	child := c.childForArray()
	out := make(wire.Array, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		v, err := child.parse(rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		if v == nil {
			// Only sentinels parse to nil, and they are rejected in arrays.
			v = wire.Null{}
		}
		out = append(out, v)
	}
	c.addLeafToMask()
	return out, nil
}

func (c parseContext) parseSentinel(s fieldvalue.Sentinel) error {
	if c.arrayElement {
		return c.Errorf("%s() is not currently supported inside arrays", s.MethodName())
	}
	if !c.source.IsWrite() {
		return c.Errorf("%s() can only be used with Update() and Set()", s.MethodName())
	}
	if c.path.Empty() {
		return c.Errorf("%s() cannot be used as the document itself", s.MethodName())
	}

	ft, err := s.ToFieldTransform(c)
	if err != nil {
		return err
	}
	if ft != nil {
		c.recordTransform(*ft)
	}
	return nil
}

func (c parseContext) parseReference(db model.DatabaseID, key model.DocumentKey) (wire.Value, error) {
	if !db.Equal(c.reader.databaseID) {
		return nil, c.Errorf("document reference is for database %s but should be for database %s", db, c.reader.databaseID)
	}
	c.addLeafToMask()
	return wire.Reference(db.ResourceName(key)), nil
}

func (c parseContext) parseGeoPoint(p decode.GeoPoint) (wire.Value, error) {
	if math.IsNaN(p.Latitude) || p.Latitude < -90 || p.Latitude > 90 {
		return nil, c.Errorf("latitude must be a number between -90 and 90, but was: %v", p.Latitude)
	}
	if math.IsNaN(p.Longitude) || p.Longitude < -180 || p.Longitude > 180 {
		return nil, c.Errorf("longitude must be a number between -180 and 180, but was: %v", p.Longitude)
	}
	c.addLeafToMask()
	return wire.GeoPoint{Latitude: p.Latitude, Longitude: p.Longitude}, nil
}

func (c parseContext) validateFieldName(name string) error {
	if name == "" {
		return c.Errorf("document fields must not be empty")
	}
	if len(name) >= 4 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") {
		return c.Errorf("document fields cannot begin and end with \"__\"")
	}
	return nil
}

// addLeafToMask records the current path for merge writes. Values nested in
// arrays are covered by the array's own path.
func (c parseContext) addLeafToMask() {
	if c.arrayElement || c.path.Empty() {
		return
	}
	c.AddToFieldMask(c.path)
}
