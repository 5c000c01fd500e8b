package decode

import (
	"bytes"
	"log/slog"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/firedoc/internal/model"
	"github.com/roach88/firedoc/internal/status"
	"github.com/roach88/firedoc/internal/wire"
)

var localDB = model.NewDatabaseID("P", "D")

// testRef is a reference handle distinguishable from a bare key.
type testRef struct {
	Key string
}

func newTestDecoder(t *testing.T) (*Decoder, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	d := NewDecoder(localDB,
		func(key model.DocumentKey) any { return testRef{Key: key.String()} },
		WithLogger(logger),
	)
	return d, &logs
}

func TestConvert_Scalars(t *testing.T) {
	d, _ := newTestDecoder(t)

	tests := []struct {
		name  string
		value wire.Value
		want  any
	}{
		{"null", wire.Null{}, nil},
		{"bool", wire.Bool(true), true},
		{"string", wire.String("hi"), "hi"},
		{"integer", wire.Integer(math.MaxInt64), int64(math.MaxInt64)},
		{"double", wire.Double(2.5), 2.5},
		{"timestamp", wire.NewTimestamp(10, 20), Timestamp{Seconds: 10, Nanoseconds: 20}},
		{"unnormalized timestamp", wire.Timestamp{Seconds: 10, Nanos: -1}, Timestamp{Seconds: 9, Nanoseconds: 999_999_999}},
		{"geopoint", wire.GeoPoint{Latitude: 1, Longitude: -1}, GeoPoint{Latitude: 1, Longitude: -1}},
		{"bytes", wire.Bytes{0xde, 0xad}, []byte{0xde, 0xad}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Convert(tt.value, BehaviorNone)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			// Deterministic across calls
			again, err := d.Convert(tt.value, BehaviorNone)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestConvert_BytesAreCopied(t *testing.T) {
	d, _ := newTestDecoder(t)
	raw := wire.Bytes{1, 2, 3}

	got := d.MustConvert(raw, BehaviorNone).([]byte)
	got[0] = 9

	assert.Equal(t, byte(1), raw[0])
}

func TestConvert_BlobFactory(t *testing.T) {
	type blob struct{ data string }
	d := NewDecoder(localDB, nil, WithBlobFactory(func(b []byte) any { return blob{data: string(b)} }))

	got, err := d.Convert(wire.Bytes("abc"), BehaviorNone)
	require.NoError(t, err)
	assert.Equal(t, blob{data: "abc"}, got)
}

func TestConvert_NumericNormalization(t *testing.T) {
	d, _ := newTestDecoder(t)

	fromInt := d.MustConvert(wire.Integer(3), BehaviorNone)
	fromDouble := d.MustConvert(wire.Double(3.0), BehaviorNone)

	assert.IsType(t, int64(0), fromInt)
	assert.IsType(t, float64(0), fromDouble)
	assert.True(t, Equal(fromInt, fromDouble))
	assert.False(t, Equal(fromInt, d.MustConvert(wire.Double(3.5), BehaviorNone)))
}

func TestConvert_Reference(t *testing.T) {
	d, logs := newTestDecoder(t)

	got, err := d.Convert(wire.Reference("projects/P/databases/D/documents/coll/doc"), BehaviorNone)
	require.NoError(t, err)

	assert.Equal(t, testRef{Key: "coll/doc"}, got)
	assert.Empty(t, logs.String(), "same-database references must not log")
}

func TestConvert_ReferenceDefaultFactory(t *testing.T) {
	d := NewDecoder(localDB, nil)

	got, err := d.Convert(wire.Reference("projects/P/databases/D/documents/coll/doc"), BehaviorNone)
	require.NoError(t, err)
	assert.Equal(t, model.MustDocumentKey("coll/doc"), got)
}

func TestConvert_CrossDatabaseReference(t *testing.T) {
	var logs bytes.Buffer
	d := NewDecoder(model.NewDatabaseID("P", "D2"),
		func(key model.DocumentKey) any { return testRef{Key: key.String()} },
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
	)

	got, err := d.Convert(wire.Reference("projects/P/databases/D/documents/coll/doc"), BehaviorNone)
	require.NoError(t, err, "cross-database references degrade, they never fail")

	assert.Equal(t, testRef{Key: "coll/doc"}, got)
	assert.Equal(t, 1, strings.Count(logs.String(), "\n"), "exactly one diagnostic")
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "different database (P/D)")
	assert.Contains(t, logs.String(), "current database (P/D2)")
}

func TestConvert_InvalidReference(t *testing.T) {
	d, _ := newTestDecoder(t)

	for _, name := range []string{
		"coll/doc",
		"projects/P/dbs/D/documents/coll/doc",
		"projects/P/databases/D/documents/coll",
		"projects/P/databases/D",
		"projects//databases/D/documents/c/d",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := d.Convert(wire.Reference(name), BehaviorNone)
			require.Error(t, err)
			assert.True(t, status.IsInternal(err), "got %v", err)
		})
	}
}

func TestConvert_NilIsInvariantViolation(t *testing.T) {
	d, _ := newTestDecoder(t)

	_, err := d.Convert(nil, BehaviorNone)
	assert.True(t, status.IsInternal(err))

	_, err = d.Convert(wire.Array{wire.Integer(1), nil}, BehaviorNone)
	assert.True(t, status.IsInternal(err), "nested violations propagate")
	assert.Contains(t, err.Error(), "array[1]")

	assert.Panics(t, func() { d.MustConvert(nil, BehaviorNone) })
}

func TestConvert_UnknownBehavior(t *testing.T) {
	d, _ := newTestDecoder(t)

	_, err := d.Convert(wire.Null{}, ServerTimestampBehavior("latest"))
	assert.True(t, status.IsInvalidArgument(err))
}

func TestConvert_ServerTimestamp(t *testing.T) {
	d, _ := newTestDecoder(t)
	local := wire.NewTimestamp(1000, 5)

	withPrevious := wire.NewServerTimestamp(local, wire.String("before"))
	withoutPrevious := wire.NewServerTimestamp(local, nil)

	tests := []struct {
		name     string
		value    wire.Value
		behavior ServerTimestampBehavior
		want     any
	}{
		{"none", withPrevious, BehaviorNone, nil},
		{"zero value is none", withPrevious, "", nil},
		{"estimate", withPrevious, BehaviorEstimate, Timestamp{Seconds: 1000, Nanoseconds: 5}},
		{"previous", withPrevious, BehaviorPrevious, "before"},
		{"previous absent", withoutPrevious, BehaviorPrevious, nil},
		{"estimate without previous", withoutPrevious, BehaviorEstimate, Timestamp{Seconds: 1000, Nanoseconds: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Convert(tt.value, tt.behavior)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvert_PreviousIsDecodedRecursively(t *testing.T) {
	d, _ := newTestDecoder(t)

	previous := wire.NewMap(
		wire.F("ref", wire.Reference("projects/P/databases/D/documents/a/b")),
		wire.F("n", wire.Integer(1)),
	)
	st := wire.ServerTimestamp{LocalWriteTime: wire.NewTimestamp(1, 0), Previous: previous}

	got, err := d.Convert(st, BehaviorPrevious)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ref": testRef{Key: "a/b"}, "n": int64(1)}, got)
}

func TestConvert_PreviousChainUsesSameBehavior(t *testing.T) {
	d, _ := newTestDecoder(t)

	// Built by hand to bypass NewServerTimestamp's chain collapsing.
	inner := wire.ServerTimestamp{LocalWriteTime: wire.NewTimestamp(1, 0), Previous: wire.Integer(42)}
	outer := wire.ServerTimestamp{LocalWriteTime: wire.NewTimestamp(2, 0), Previous: inner}

	got, err := d.Convert(outer, BehaviorPrevious)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)
}

func TestConvert_NestedContainers(t *testing.T) {
	d, _ := newTestDecoder(t)
	pending := wire.NewServerTimestamp(wire.NewTimestamp(50, 0), wire.Integer(7))

	value := wire.Array{
		wire.NewMap(wire.F("at", pending), wire.F("label", wire.String("first"))),
		wire.NewMap(wire.F("at", pending), wire.F("nested", wire.Array{pending})),
	}

	tests := []struct {
		behavior ServerTimestampBehavior
		want     any
	}{
		{BehaviorNone, nil},
		{BehaviorEstimate, Timestamp{Seconds: 50}},
		{BehaviorPrevious, int64(7)},
	}

	for _, tt := range tests {
		t.Run(string(tt.behavior), func(t *testing.T) {
			got, err := d.Convert(value, tt.behavior)
			require.NoError(t, err)

			want := []any{
				map[string]any{"at": tt.want, "label": "first"},
				map[string]any{"at": tt.want, "nested": []any{tt.want}},
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestConvertFields(t *testing.T) {
	d, _ := newTestDecoder(t)

	got, err := d.ConvertFields(wire.NewMap(wire.F("a", wire.Integer(1)), wire.F("b", wire.Array{})), BehaviorNone)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": int64(1), "b": []any{}}, got)

	_, err = d.ConvertFields(wire.Map{}, "bogus")
	assert.True(t, status.IsInvalidArgument(err))
}

func TestConvertFields_WireOrderViaNames(t *testing.T) {
	d, _ := newTestDecoder(t)

	fields := wire.NewMap(
		wire.F("zeta", wire.Integer(1)),
		wire.F("alpha", wire.String("a")),
		wire.F("mid", wire.Bool(true)),
	)
	got, err := d.ConvertFields(fields, BehaviorNone)
	require.NoError(t, err)

	var ordered []any
	for _, name := range fields.Names() {
		ordered = append(ordered, got[name])
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, fields.Names())
	assert.Equal(t, []any{int64(1), "a", true}, ordered)
}

func TestConvert_Concurrent(t *testing.T) {
	d, _ := newTestDecoder(t)
	value := wire.NewMap(
		wire.F("list", wire.Array{wire.Integer(1), wire.Double(2), wire.String("3")}),
		wire.F("at", wire.NewServerTimestamp(wire.NewTimestamp(9, 9), wire.Bool(true))),
	)
	want := d.MustConvert(value, BehaviorPrevious)

	const numGoroutines = 50
	var wg sync.WaitGroup
	results := make([]any, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = d.MustConvert(value, BehaviorPrevious)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestParseServerTimestampBehavior(t *testing.T) {
	for _, name := range []string{"none", "estimate", "previous"} {
		b, err := ParseServerTimestampBehavior(name)
		require.NoError(t, err)
		assert.Equal(t, ServerTimestampBehavior(name), b)
	}

	b, err := ParseServerTimestampBehavior("")
	require.NoError(t, err)
	assert.Equal(t, BehaviorNone, b)

	_, err = ParseServerTimestampBehavior("ESTIMATE")
	assert.True(t, status.IsInvalidArgument(err))
}

func TestTimestamp_Time(t *testing.T) {
	ts := NewTimestamp(0, 1_500_000_000)
	assert.Equal(t, Timestamp{Seconds: 1, Nanoseconds: 500_000_000}, ts)
	assert.Equal(t, "1970-01-01T00:00:01.5Z", ts.String())
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"int int", int64(1), int64(1), true},
		{"int float", int64(1), 1.0, true},
		{"float int", 2.0, int64(2), true},
		{"fraction", 2.5, int64(2), false},
		{"huge float", math.Pow(2, 63), int64(math.MaxInt64), false},
		{"nan", math.NaN(), math.NaN(), true},
		{"int string", int64(1), "1", false},
		{"nested", []any{map[string]any{"a": int64(1)}}, []any{map[string]any{"a": 1.0}}, true},
		{"map size", map[string]any{"a": nil}, map[string]any{}, false},
		{"bytes", []byte("x"), []byte("x"), true},
		{"timestamps", Timestamp{Seconds: 1}, Timestamp{Seconds: 1}, true},
		{"nil", nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}
