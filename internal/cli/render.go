package cli

import (
	"encoding/base64"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/firedoc/internal/client"
	"github.com/roach88/firedoc/internal/decode"
)

// formatValue renders a decoded host value on one line.
//
// Strings are quoted, so "null" and null stay distinct. Map keys are sorted.
func formatValue(v any) string {
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

func writeValue(b *strings.Builder, v any) {
	switch val := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		b.WriteString(strconv.FormatBool(val))
	case int64:
		b.WriteString(strconv.FormatInt(val, 10))
	case float64:
		b.WriteString(formatDouble(val))
	case string:
		b.WriteString(strconv.Quote(val))
	case decode.Timestamp:
		b.WriteString(val.String())
	case decode.GeoPoint:
		fmt.Fprintf(b, "geo(%s, %s)", formatDouble(val.Latitude), formatDouble(val.Longitude))
	case client.Blob:
		b.WriteString("bytes(")
		b.WriteString(base64.StdEncoding.EncodeToString(val))
		b.WriteString(")")
	case *client.DocumentRef:
		b.WriteString("ref(")
		b.WriteString(val.Path())
		b.WriteString(")")
	case []any:
		b.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				b.WriteString(", ")
			}
			writeValue(b, elem)
		}
		b.WriteByte(']')
	case map[string]any:
		b.WriteByte('{')
		for i, key := range sortedKeys(val) {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(key)
			b.WriteString(": ")
			writeValue(b, val[key])
		}
		b.WriteByte('}')
	default:
		fmt.Fprintf(b, "%v", val)
	}
}

// formatDouble spells out the non-finite values and keeps a decimal point
// on integral doubles so they read differently from integers.
func formatDouble(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// jsonValue converts a decoded host value into something encoding/json can
// represent: non-finite doubles become strings, timestamps RFC 3339 strings,
// and references {"reference": path}.
func jsonValue(v any) any {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return formatDouble(val)
		}
		return val
	case decode.Timestamp:
		return val.String()
	case decode.GeoPoint:
		return map[string]any{"latitude": jsonValue(val.Latitude), "longitude": jsonValue(val.Longitude)}
	case client.Blob:
		return base64.StdEncoding.EncodeToString(val)
	case *client.DocumentRef:
		return map[string]string{"reference": val.Path()}
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = jsonValue(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for key, elem := range val {
			out[key] = jsonValue(elem)
		}
		return out
	default:
		return val
	}
}

// formatFields renders data as indented "key: value" lines in key order.
func formatFields(b *strings.Builder, data map[string]any) {
	for _, key := range sortedKeys(data) {
		fmt.Fprintf(b, "  %s: %s\n", key, formatValue(data[key]))
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
