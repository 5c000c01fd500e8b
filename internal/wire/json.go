package wire

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// MarshalValue encodes v in proto3 REST JSON form, e.g. {"integerValue":"5"}.
// Map fields are written in iteration order.
func MarshalValue(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalFields encodes m as a JSON object of field name to wire value.
func MarshalFields(m Map) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeFields(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case Null:
		buf.WriteString(`{"nullValue":null}`)
	case Bool:
		buf.WriteString(`{"booleanValue":`)
		buf.WriteString(strconv.FormatBool(bool(val)))
		buf.WriteByte('}')
	case Integer:
		buf.WriteString(`{"integerValue":"`)
		buf.WriteString(strconv.FormatInt(int64(val), 10))
		buf.WriteString(`"}`)
	case Double:
		buf.WriteString(`{"doubleValue":`)
		buf.WriteString(formatDouble(float64(val)))
		buf.WriteByte('}')
	case Timestamp:
		buf.WriteString(`{"timestampValue":"`)
		buf.WriteString(val.String())
		buf.WriteString(`"}`)
	case ServerTimestamp:
		return writeValue(buf, val.toMap())
	case String:
		buf.WriteString(`{"stringValue":`)
		writeString(buf, string(val))
		buf.WriteByte('}')
	case Bytes:
		buf.WriteString(`{"bytesValue":"`)
		buf.WriteString(base64.StdEncoding.EncodeToString(val))
		buf.WriteString(`"}`)
	case Reference:
		buf.WriteString(`{"referenceValue":`)
		writeString(buf, string(val))
		buf.WriteByte('}')
	case GeoPoint:
		buf.WriteString(`{"geoPointValue":{"latitude":`)
		buf.WriteString(formatDouble(val.Latitude))
		buf.WriteString(`,"longitude":`)
		buf.WriteString(formatDouble(val.Longitude))
		buf.WriteString(`}}`)
	case Array:
		buf.WriteString(`{"arrayValue":{"values":[`)
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteString(`]}}`)
	case Map:
		buf.WriteString(`{"mapValue":{"fields":`)
		if err := writeFields(buf, val); err != nil {
			return err
		}
		buf.WriteString(`}}`)
	default:
		return fmt.Errorf("unknown wire value type: %T", v)
	}
	return nil
}

func writeFields(buf *bytes.Buffer, m Map) error {
	buf.WriteByte('{')
	for i, f := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(buf, f.Name)
		buf.WriteByte(':')
		if err := writeValue(buf, f.Value); err != nil {
			return fmt.Errorf("field %q: %w", f.Name, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

// writeString writes s as a JSON string without HTML escaping.
func writeString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s) // strings always encode
	// Encoder adds a trailing newline, remove it
	buf.Truncate(buf.Len() - 1)
}

// formatDouble renders non-finite values as the proto3 JSON strings.
func formatDouble(f float64) string {
	switch {
	case math.IsNaN(f):
		return `"NaN"`
	case math.IsInf(f, 1):
		return `"Infinity"`
	case math.IsInf(f, -1):
		return `"-Infinity"`
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// UnmarshalValue decodes one proto3 REST JSON wire value.
// Exactly one variant key must be present; any other shape is an error.
func UnmarshalValue(data []byte) (Value, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("wire value: %w", err)
	}
	if len(obj) != 1 {
		return nil, fmt.Errorf("wire value must have exactly one variant, got %d", len(obj))
	}

	for key, raw := range obj {
		return unmarshalVariant(key, raw)
	}
	panic("unreachable")
}

func unmarshalVariant(key string, raw json.RawMessage) (Value, error) {
	switch key {
	case "nullValue":
		var s *string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("nullValue: %w", err)
		}
		if s != nil && *s != "NULL_VALUE" {
			return nil, fmt.Errorf("nullValue: unexpected %q", *s)
		}
		return Null{}, nil

	case "booleanValue":
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("booleanValue: %w", err)
		}
		return Bool(b), nil

	case "integerValue":
		n, err := parseInteger(raw)
		if err != nil {
			return nil, fmt.Errorf("integerValue: %w", err)
		}
		return Integer(n), nil

	case "doubleValue":
		f, err := parseDouble(raw)
		if err != nil {
			return nil, fmt.Errorf("doubleValue: %w", err)
		}
		return Double(f), nil

	case "timestampValue":
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("timestampValue: %w", err)
		}
		return ParseTimestamp(s)

	case "stringValue":
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("stringValue: %w", err)
		}
		return String(s), nil

	case "bytesValue":
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("bytesValue: %w", err)
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("bytesValue: %w", err)
		}
		return Bytes(b), nil

	case "referenceValue":
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("referenceValue: %w", err)
		}
		return Reference(s), nil

	case "geoPointValue":
		var g struct {
			Latitude  json.RawMessage `json:"latitude"`
			Longitude json.RawMessage `json:"longitude"`
		}
		if err := json.Unmarshal(raw, &g); err != nil {
			return nil, fmt.Errorf("geoPointValue: %w", err)
		}
		lat, err := parseOptionalDouble(g.Latitude)
		if err != nil {
			return nil, fmt.Errorf("geoPointValue.latitude: %w", err)
		}
		lng, err := parseOptionalDouble(g.Longitude)
		if err != nil {
			return nil, fmt.Errorf("geoPointValue.longitude: %w", err)
		}
		return GeoPoint{Latitude: lat, Longitude: lng}, nil

	case "arrayValue":
		var a struct {
			Values []json.RawMessage `json:"values"`
		}
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("arrayValue: %w", err)
		}
		arr := make(Array, len(a.Values))
		for i, elem := range a.Values {
			v, err := UnmarshalValue(elem)
			if err != nil {
				return nil, fmt.Errorf("arrayValue[%d]: %w", i, err)
			}
			arr[i] = v
		}
		return arr, nil

	case "mapValue":
		var m struct {
			Fields json.RawMessage `json:"fields"`
		}
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("mapValue: %w", err)
		}
		fields, err := UnmarshalFields(m.Fields)
		if err != nil {
			return nil, fmt.Errorf("mapValue: %w", err)
		}
		if isServerTimestampMap(fields) {
			return serverTimestampFromMap(fields)
		}
		return fields, nil

	default:
		return nil, fmt.Errorf("unknown wire value variant %q", key)
	}
}

// UnmarshalFields decodes a JSON object of field name to wire value,
// preserving the order in which fields appear. Empty input yields an empty Map.
func UnmarshalFields(data []byte) (Map, error) {
	if len(bytes.TrimSpace(data)) == 0 || string(bytes.TrimSpace(data)) == "null" {
		return Map{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("fields must be a JSON object")
	}

	m := Map{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("field name must be a string, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		v, err := UnmarshalValue(raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		m = m.Set(name, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return m, nil
}

// parseInteger accepts both the string form ("42") and a bare JSON number.
func parseInteger(raw json.RawMessage) (int64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, err
		}
		s = n.String()
	}
	return strconv.ParseInt(s, 10, 64)
}

// parseDouble accepts a JSON number or one of "NaN", "Infinity", "-Infinity".
func parseDouble(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch s {
		case "NaN":
			return math.NaN(), nil
		case "Infinity":
			return math.Inf(1), nil
		case "-Infinity":
			return math.Inf(-1), nil
		}
		return strconv.ParseFloat(s, 64)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	return f, nil
}

func parseOptionalDouble(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, nil
	}
	return parseDouble(raw)
}

// Document is a REST document envelope: resource name, fields and times.
type Document struct {
	Name       string
	Fields     Map
	CreateTime Timestamp
	UpdateTime Timestamp
}

type documentJSON struct {
	Name       string          `json:"name"`
	Fields     json.RawMessage `json:"fields,omitempty"`
	CreateTime string          `json:"createTime,omitempty"`
	UpdateTime string          `json:"updateTime,omitempty"`
}

// MarshalJSON implements json.Marshaler for Document.
func (d Document) MarshalJSON() ([]byte, error) {
	fields, err := MarshalFields(d.Fields)
	if err != nil {
		return nil, err
	}
	out := documentJSON{Name: d.Name, Fields: fields}
	if !d.CreateTime.IsZero() {
		out.CreateTime = d.CreateTime.String()
	}
	if !d.UpdateTime.IsZero() {
		out.UpdateTime = d.UpdateTime.String()
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler for Document.
func (d *Document) UnmarshalJSON(data []byte) error {
	var in documentJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("document: %w", err)
	}
	fields, err := UnmarshalFields(in.Fields)
	if err != nil {
		return fmt.Errorf("document %s: %w", in.Name, err)
	}
	doc := Document{Name: in.Name, Fields: fields}
	if in.CreateTime != "" {
		if doc.CreateTime, err = ParseTimestamp(in.CreateTime); err != nil {
			return fmt.Errorf("document %s: createTime: %w", in.Name, err)
		}
	}
	if in.UpdateTime != "" {
		if doc.UpdateTime, err = ParseTimestamp(in.UpdateTime); err != nil {
			return fmt.Errorf("document %s: updateTime: %w", in.Name, err)
		}
	}
	*d = doc
	return nil
}
