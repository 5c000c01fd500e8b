// Package payload turns YAML documents into write data for the client.
//
// Plain YAML scalars, sequences and maps map onto host values. A single-key
// map whose key is a marker stands for a sentinel or a typed value:
//
//	updatedAt: {$serverTimestamp: true}
//	visits:    {$increment: 1}
//	tags:      {$arrayUnion: [a, b]}
//	banned:    {$arrayRemove: [c]}
//	stale:     {$delete: true}
//	owner:     {$ref: users/alice}
//	at:        {$timestamp: "2024-01-01T00:00:00Z"}
//	avatar:    {$bytes: aGVsbG8=}
//	where:     {$geo: {latitude: 1.5, longitude: 2}}
package payload

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/firedoc/internal/client"
	"github.com/roach88/firedoc/internal/decode"
	"github.com/roach88/firedoc/internal/status"
)

// Markers.
const (
	MarkerDelete          = "$delete"
	MarkerServerTimestamp = "$serverTimestamp"
	MarkerArrayUnion      = "$arrayUnion"
	MarkerArrayRemove     = "$arrayRemove"
	MarkerIncrement       = "$increment"
	MarkerRef             = "$ref"
	MarkerTimestamp       = "$timestamp"
	MarkerBytes           = "$bytes"
	MarkerGeo             = "$geo"
)

// Parse decodes a YAML write payload and resolves its markers.
func Parse(db *client.Database, raw []byte) (map[string]any, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, status.InvalidArgument("payload is not a YAML map: %v", err)
	}
	return ConvertMap(db, doc)
}

// ConvertMap resolves the markers in every value of m. A nil map yields an
// empty one.
func ConvertMap(db *client.Database, m map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for key, value := range m {
		converted, err := Convert(db, value)
		if err != nil {
			return nil, fieldError(err, key)
		}
		out[key] = converted
	}
	return out, nil
}

// Convert resolves the markers in a value decoded from YAML. Plain ints
// become int64.
func Convert(db *client.Database, v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		if len(val) == 1 {
			for key, arg := range val {
				if strings.HasPrefix(key, "$") {
					return convertMarker(db, key, arg)
				}
			}
		}
		out := make(map[string]any, len(val))
		for key, elem := range val {
			converted, err := Convert(db, elem)
			if err != nil {
				return nil, fieldError(err, key)
			}
			out[key] = converted
		}
		return out, nil
	case map[any]any:
		return nil, status.InvalidArgument("map keys must be strings")
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			converted, err := Convert(db, elem)
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil
	case int:
		return int64(val), nil
	default:
		return val, nil
	}
}

func convertMarker(db *client.Database, marker string, arg any) (any, error) {
	switch marker {
	case MarkerDelete:
		return client.Delete(), nil
	case MarkerServerTimestamp:
		return client.ServerTimestamp(), nil
	case MarkerArrayUnion, MarkerArrayRemove:
		elems, ok := arg.([]any)
		if !ok {
			elems = []any{arg}
		}
		converted := make([]any, len(elems))
		for i, elem := range elems {
			c, err := Convert(db, elem)
			if err != nil {
				return nil, err
			}
			converted[i] = c
		}
		if marker == MarkerArrayUnion {
			return client.ArrayUnion(converted...)
		}
		return client.ArrayRemove(converted...)
	case MarkerIncrement:
		switch n := arg.(type) {
		case int:
			return client.Increment(int64(n)), nil
		case float64:
			return client.Increment(n), nil
		}
		return nil, status.InvalidArgument("%s needs a number, got %T", marker, arg)
	case MarkerRef:
		path, ok := arg.(string)
		if !ok {
			return nil, status.InvalidArgument("%s needs a document path, got %T", marker, arg)
		}
		return db.Doc(path)
	case MarkerTimestamp:
		switch t := arg.(type) {
		case time.Time:
			return t, nil
		case string:
			parsed, err := time.Parse(time.RFC3339Nano, t)
			if err != nil {
				return nil, status.InvalidArgument("%s: %v", marker, err)
			}
			return parsed, nil
		}
		return nil, status.InvalidArgument("%s needs an RFC 3339 time, got %T", marker, arg)
	case MarkerBytes:
		s, ok := arg.(string)
		if !ok {
			return nil, status.InvalidArgument("%s needs base64 text, got %T", marker, arg)
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, status.InvalidArgument("%s: %v", marker, err)
		}
		return b, nil
	case MarkerGeo:
		m, ok := arg.(map[string]any)
		if !ok {
			return nil, status.InvalidArgument("%s needs latitude and longitude", marker)
		}
		lat, latOK := asFloat(m["latitude"])
		lng, lngOK := asFloat(m["longitude"])
		if !latOK || !lngOK || len(m) != 2 {
			return nil, status.InvalidArgument("%s needs latitude and longitude", marker)
		}
		return decode.GeoPoint{Latitude: lat, Longitude: lng}, nil
	default:
		return nil, status.InvalidArgument("unknown marker %s", marker)
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// fieldError prefixes a status error's field with key.
func fieldError(err error, key string) error {
	var se *status.Error
	if !errors.As(err, &se) {
		return err
	}
	if se.Field == "" {
		return se.WithField(key)
	}
	return se.WithField(key + "." + se.Field)
}
