package decode

import (
	"fmt"
	"log/slog"

	"github.com/roach88/firedoc/internal/model"
	"github.com/roach88/firedoc/internal/status"
	"github.com/roach88/firedoc/internal/wire"
)

// Decoder converts wire values to host values.
//
// INVARIANTS:
//   - All fields are set by NewDecoder and never written again
//   - Convert has no side effect other than the cross-database diagnostic
type Decoder struct {
	databaseID   model.DatabaseID
	newReference ReferenceFactory
	newBlob      BlobFactory
	logger       *slog.Logger
}

// DecoderOption allows configuration of decoder collaborators.
type DecoderOption func(*Decoder)

// WithBlobFactory sets the constructor used for Bytes values.
// Default: a copy of the bytes as []byte.
func WithBlobFactory(f BlobFactory) DecoderOption {
	return func(d *Decoder) {
		if f != nil {
			d.newBlob = f
		}
	}
}

// WithLogger sets the diagnostic sink.
// Default: slog.Default() at the time of each diagnostic.
func WithLogger(l *slog.Logger) DecoderOption {
	return func(d *Decoder) {
		d.logger = l
	}
}

// NewDecoder creates a Decoder for the given local database.
// When refs is nil, references decode to their model.DocumentKey.
func NewDecoder(databaseID model.DatabaseID, refs ReferenceFactory, opts ...DecoderOption) *Decoder {
	d := &Decoder{
		databaseID:   databaseID,
		newReference: refs,
		newBlob:      defaultBlob,
	}
	if d.newReference == nil {
		d.newReference = defaultReference
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// DatabaseID returns the local database identity.
func (d *Decoder) DatabaseID() model.DatabaseID {
	return d.databaseID
}

// Convert decodes v with the given server timestamp behavior.
//
// Errors:
//   - status.CodeInvalidArgument for an unknown behavior name
//   - status.CodeInternal for wire data outside the protocol contract
func (d *Decoder) Convert(v wire.Value, behavior ServerTimestampBehavior) (any, error) {
	b, err := behavior.normalize()
	if err != nil {
		return nil, err
	}
	return d.convert(v, b)
}

// MustConvert is like Convert but panics on error.
// Use only in tests or when the input is known to be well-formed.
func (d *Decoder) MustConvert(v wire.Value, behavior ServerTimestampBehavior) any {
	out, err := d.Convert(v, behavior)
	if err != nil {
		panic(err)
	}
	return out
}

// ConvertFields decodes every field of a document. Go maps are unordered;
// callers that need the wire field order iterate fields.Names() and index
// the result.
func (d *Decoder) ConvertFields(fields wire.Map, behavior ServerTimestampBehavior) (map[string]any, error) {
	b, err := behavior.normalize()
	if err != nil {
		return nil, err
	}
	return d.convertMap(fields, b)
}

func (d *Decoder) convert(v wire.Value, behavior ServerTimestampBehavior) (any, error) {
	switch val := v.(type) {
	case wire.Null:
		return nil, nil
	case wire.Bool:
		return bool(val), nil
	case wire.Integer:
		return int64(val), nil
	case wire.Double:
		return float64(val), nil
	case wire.Timestamp:
		return convertTimestamp(val), nil
	case wire.ServerTimestamp:
		return d.convertServerTimestamp(val, behavior)
	case wire.String:
		return string(val), nil
	case wire.Bytes:
		return d.newBlob([]byte(val)), nil
	case wire.Reference:
		return d.convertReference(string(val))
	case wire.GeoPoint:
		return GeoPoint{Latitude: val.Latitude, Longitude: val.Longitude}, nil
	case wire.Array:
		return d.convertArray(val, behavior)
	case wire.Map:
		return d.convertMap(val, behavior)
	default:
		// Value is sealed; only nil can get here.
		return nil, status.Internal("invalid value type: %T", v)
	}
}

func convertTimestamp(ts wire.Timestamp) Timestamp {
	n := ts.Normalize()
	return Timestamp{Seconds: n.Seconds, Nanoseconds: n.Nanos}
}

func (d *Decoder) convertServerTimestamp(st wire.ServerTimestamp, behavior ServerTimestampBehavior) (any, error) {
	switch behavior {
	case BehaviorEstimate:
		return convertTimestamp(st.LocalWriteTime), nil
	case BehaviorPrevious:
		if st.Previous == nil {
			return nil, nil
		}
		return d.convert(st.Previous, behavior)
	default:
		return nil, nil
	}
}

func (d *Decoder) convertReference(name string) (any, error) {
	path, err := model.ParseResourcePath(name)
	if err != nil {
		return nil, status.Internal("reference %q: %v", name, err)
	}
	if !model.IsValidResourceName(path) {
		return nil, status.Internal("reference value is not a valid resource name: %q", name)
	}

	databaseID := model.DatabaseID{ProjectID: path.Segment(1), Database: path.Segment(3)}
	key, err := model.NewDocumentKey(path.PopFirst(5))
	if err != nil {
		return nil, status.Internal("reference %q: %v", name, err)
	}

	if !databaseID.Equal(d.databaseID) {
		d.log().Warn(fmt.Sprintf(
			"document %s contains a document reference within a different database (%s) which is not supported; "+
				"it will be treated as a reference in the current database (%s) instead",
			key, databaseID, d.databaseID),
			"reference_database", databaseID.String(),
			"local_database", d.databaseID.String(),
		)
	}

	return d.newReference(key), nil
}

func (d *Decoder) convertArray(arr wire.Array, behavior ServerTimestampBehavior) ([]any, error) {
	out := make([]any, len(arr))
	for i, elem := range arr {
		v, err := d.convert(elem, behavior)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (d *Decoder) convertMap(m wire.Map, behavior ServerTimestampBehavior) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for _, f := range m {
		v, err := d.convert(f.Value, behavior)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		out[f.Name] = v
	}
	return out, nil
}

func (d *Decoder) log() *slog.Logger {
	if d.logger != nil {
		return d.logger
	}
	return slog.Default()
}
