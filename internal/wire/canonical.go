package wire

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 canonical JSON of v for hashing.
// CRITICAL: This is the ONLY serialization that should be used for
// content-addressed identity computation.
//
// Key differences from MarshalValue:
// 1. Map fields sorted by UTF-16 code units (not insertion order)
// 2. No HTML escaping (< > & are NOT escaped)
// 3. Strings and field names are NFC normalized
// 4. Pending server timestamps keep their reserved map form, also sorted
func MarshalCanonical(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case Null:
		buf.WriteString(`{"nullValue":null}`)
	case Bool:
		buf.WriteString(`{"booleanValue":` + strconv.FormatBool(bool(val)) + `}`)
	case Integer:
		buf.WriteString(`{"integerValue":"` + strconv.FormatInt(int64(val), 10) + `"}`)
	case Double:
		buf.WriteString(`{"doubleValue":` + formatDouble(float64(val)) + `}`)
	case Timestamp:
		buf.WriteString(`{"timestampValue":"` + val.String() + `"}`)
	case ServerTimestamp:
		return writeCanonical(buf, val.toMap())
	case String:
		buf.WriteString(`{"stringValue":`)
		if err := writeCanonicalString(buf, string(val)); err != nil {
			return err
		}
		buf.WriteByte('}')
	case Bytes:
		buf.WriteString(`{"bytesValue":"` + base64.StdEncoding.EncodeToString(val) + `"}`)
	case Reference:
		buf.WriteString(`{"referenceValue":`)
		if err := writeCanonicalString(buf, string(val)); err != nil {
			return err
		}
		buf.WriteByte('}')
	case GeoPoint:
		buf.WriteString(`{"geoPointValue":{"latitude":` + formatDouble(val.Latitude) +
			`,"longitude":` + formatDouble(val.Longitude) + `}}`)
	case Array:
		buf.WriteString(`{"arrayValue":{"values":[`)
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteString(`]}}`)
	case Map:
		buf.WriteString(`{"mapValue":{"fields":`)
		if err := writeCanonicalFields(buf, val); err != nil {
			return err
		}
		buf.WriteString(`}}`)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

// writeCanonicalFields writes m with RFC 8785 key ordering.
func writeCanonicalFields(buf *bytes.Buffer, m Map) error {
	names := m.Names()
	slices.SortFunc(names, compareKeysRFC8785)

	buf.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeCanonicalString(buf, name); err != nil {
			return fmt.Errorf("key %q: %w", name, err)
		}
		buf.WriteByte(':')
		v, _ := m.Get(name)
		if err := writeCanonical(buf, v); err != nil {
			return fmt.Errorf("value for key %q: %w", name, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

// writeCanonicalString writes a canonical JSON string with NFC normalization.
// Only control characters, backslash and quote are escaped; U+2028 and
// U+2029 stay literal as RFC 8785 requires.
func writeCanonicalString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false) // CRITICAL: <, >, & must NOT be escaped
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	out := bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'})
	buf.Write(unescapeLineSeparators(out))
	return nil
}

// unescapeLineSeparators turns the \u2028 and \u2029 escapes emitted by
// encoding/json back into literal characters. An escape is only real when an
// even number of backslashes precedes it.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && i+5 < len(data) && data[i+1] == 'u' &&
			data[i+2] == '2' && data[i+3] == '0' && data[i+4] == '2' &&
			(data[i+5] == '8' || data[i+5] == '9') && precedingBackslashes(out)%2 == 0 {
			if data[i+5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			continue
		}
		out = append(out, data[i])
	}
	return out
}

func precedingBackslashes(b []byte) int {
	n := 0
	for j := len(b) - 1; j >= 0 && b[j] == '\\'; j-- {
		n++
	}
	return n
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
// CRITICAL: Go's default string comparison uses UTF-8 which produces DIFFERENT order.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	for i := 0; i < min(len(a16), len(b16)); i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}
