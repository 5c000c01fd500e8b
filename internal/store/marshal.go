package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/firedoc/internal/transform"
	"github.com/roach88/firedoc/internal/userdata"
	"github.com/roach88/firedoc/internal/wire"
)

// marshalFields converts fields to REST JSON TEXT for storage.
// Field order is preserved; content identity uses wire.ContentHash instead.
func marshalFields(fields wire.Map) (string, error) {
	data, err := wire.MarshalFields(fields)
	if err != nil {
		return "", fmt.Errorf("marshal fields: %w", err)
	}
	return string(data), nil
}

// unmarshalFields parses REST JSON TEXT back to fields. Pending server
// timestamps are recovered from their reserved map form.
func unmarshalFields(data string) (wire.Map, error) {
	fields, err := wire.UnmarshalFields([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	return fields, nil
}

// marshalTimestamp stores the zero timestamp as "".
func marshalTimestamp(ts wire.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.String()
}

func unmarshalTimestamp(data string) (wire.Timestamp, error) {
	if data == "" {
		return wire.Timestamp{}, nil
	}
	ts, err := wire.ParseTimestamp(data)
	if err != nil {
		return wire.Timestamp{}, fmt.Errorf("unmarshal timestamp: %w", err)
	}
	return ts, nil
}

type pendingPayload struct {
	Source     string                     `json:"source"`
	Fields     json.RawMessage            `json:"fields"`
	Mask       []string                   `json:"mask,omitempty"`
	Transforms []transform.FieldTransform `json:"transforms,omitempty"`
}

// marshalPendingWrite records a parsed write as JSON TEXT.
// Uses json.Encoder with HTML escaping disabled, matching the field encoding.
func marshalPendingWrite(w *userdata.ParsedWrite) (string, error) {
	fields, err := wire.MarshalFields(w.Data)
	if err != nil {
		return "", fmt.Errorf("marshal pending write: %w", err)
	}

	p := pendingPayload{
		Source:     w.Source.String(),
		Fields:     fields,
		Transforms: w.Transforms,
	}
	for _, path := range w.Mask {
		p.Mask = append(p.Mask, path.CanonicalString())
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return "", fmt.Errorf("marshal pending write: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}
