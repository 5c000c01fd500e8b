package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/firedoc/internal/fieldvalue"
	"github.com/roach88/firedoc/internal/status"
	"github.com/roach88/firedoc/internal/userdata"
	"github.com/roach88/firedoc/internal/wire"
)

func TestPutDocument_SkipsUnchangedContent(t *testing.T) {
	s := createTestStore(t, WithRevisionGenerator(NewFixedGenerator("rev-1", "rev-2")))
	ctx := context.Background()

	doc := createTestDocument("rooms/a", wire.F("n", wire.Integer(1)), wire.F("s", wire.String("x")))
	rev, changed, err := s.PutDocument(ctx, doc)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "rev-1", rev)

	// Same content, different field order.
	reordered := createTestDocument("rooms/a", wire.F("s", wire.String("x")), wire.F("n", wire.Integer(1)))
	rev, changed, err = s.PutDocument(ctx, reordered)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "rev-1", rev)

	doc.Fields = doc.Fields.Set("n", wire.Integer(2))
	rev, changed, err = s.PutDocument(ctx, doc)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "rev-2", rev)
}

func TestPutDocument_RequiresName(t *testing.T) {
	s := createTestStore(t)
	_, _, err := s.PutDocument(context.Background(), wire.Document{})
	assert.True(t, status.IsInvalidArgument(err))
}

func TestPutDocument_AssignsIncreasingSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"rooms/a", "rooms/b"} {
		_, _, err := s.PutDocument(ctx, createTestDocument(key, wire.F("k", wire.String(key))))
		require.NoError(t, err)
	}

	a, err := s.GetDocument(ctx, docName("rooms/a"))
	require.NoError(t, err)
	b, err := s.GetDocument(ctx, docName("rooms/b"))
	require.NoError(t, err)
	assert.Less(t, a.Seq, b.Seq)
}

func TestDeleteDocument(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, _, err := s.PutDocument(ctx, createTestDocument("rooms/a"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteDocument(ctx, docName("rooms/a")))
	_, err = s.GetDocument(ctx, docName("rooms/a"))
	assert.True(t, status.IsNotFound(err))

	err = s.DeleteDocument(ctx, docName("rooms/a"))
	assert.True(t, status.IsNotFound(err))
}

func TestApplyLocalWrite_Set(t *testing.T) {
	s := createTestStore(t, WithRevisionGenerator(NewFixedGenerator("local-1")))
	ctx := context.Background()
	r := userdata.NewReader(testDB)
	at := wire.NewTimestamp(1000, 5)

	w, err := r.ParseSet(map[string]any{"title": "hi", "at": fieldvalue.ServerTimestamp()}, false)
	require.NoError(t, err)

	rec, err := s.ApplyLocalWrite(ctx, docName("rooms/a"), w, at)
	require.NoError(t, err)
	assert.Equal(t, "local-1", rec.Revision)
	assert.True(t, rec.HasPendingWrites)

	got, err := s.GetDocument(ctx, docName("rooms/a"))
	require.NoError(t, err)
	assert.True(t, got.HasPendingWrites)
	assert.Equal(t, rec.ContentHash, got.ContentHash)

	title, _ := got.Document.Fields.Get("title")
	assert.Equal(t, wire.String("hi"), title)
	stamp, _ := got.Document.Fields.Get("at")
	assert.Equal(t, wire.NewServerTimestamp(at, nil), stamp, "pending server timestamp survives storage")

	pending, err := s.PendingWrites(ctx, docName("rooms/a"))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, at, pending[0].LocalWriteTime)
	assert.Contains(t, pending[0].Payload, `"source":"set"`)
	assert.Contains(t, pending[0].Payload, `{"fieldPath":"at","setToServerValue":"REQUEST_TIME"}`)
}

func TestApplyLocalWrite_UpdateRequiresDocument(t *testing.T) {
	s := createTestStore(t)
	w, err := userdata.NewReader(testDB).ParseUpdate(map[string]any{"a": 1})
	require.NoError(t, err)

	_, err = s.ApplyLocalWrite(context.Background(), docName("rooms/missing"), w, wire.NewTimestamp(1, 0))
	assert.True(t, status.IsNotFound(err))
}

func TestApplyLocalWrite_UpdateTransforms(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, _, err := s.PutDocument(ctx, createTestDocument("rooms/a",
		wire.F("count", wire.Integer(41)),
		wire.F("tags", wire.Array{wire.String("a"), wire.String("b")}),
		wire.F("old", wire.Bool(true)),
	))
	require.NoError(t, err)

	union, err := fieldvalue.ArrayUnion("b", "c")
	require.NoError(t, err)
	w, err := userdata.NewReader(testDB).ParseUpdate(map[string]any{
		"count": fieldvalue.Increment(1),
		"tags":  union,
		"old":   fieldvalue.Delete(),
	})
	require.NoError(t, err)

	rec, err := s.ApplyLocalWrite(ctx, docName("rooms/a"), w, wire.NewTimestamp(5, 0))
	require.NoError(t, err)
	assert.Equal(t, wire.NewMap(
		wire.F("count", wire.Integer(42)),
		wire.F("tags", wire.Array{wire.String("a"), wire.String("b"), wire.String("c")}),
	), rec.Document.Fields)
}

func TestPutDocument_ClearsPendingWrites(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	name := docName("rooms/a")

	w, err := userdata.NewReader(testDB).ParseSet(map[string]any{"n": 1}, false)
	require.NoError(t, err)
	_, err = s.ApplyLocalWrite(ctx, name, w, wire.NewTimestamp(1, 0))
	require.NoError(t, err)

	// The server snapshot has identical content but must still win.
	_, changed, err := s.PutDocument(ctx, createTestDocument("rooms/a", wire.F("n", wire.Integer(1))))
	require.NoError(t, err)
	assert.True(t, changed)

	rec, err := s.GetDocument(ctx, name)
	require.NoError(t, err)
	assert.False(t, rec.HasPendingWrites)

	pending, err := s.PendingWrites(ctx, name)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestMarshalPendingWrite_NoHTMLEscaping(t *testing.T) {
	w, err := userdata.NewReader(testDB).ParseSet(map[string]any{"html": "<b>&"}, true)
	require.NoError(t, err)

	payload, err := marshalPendingWrite(w)
	require.NoError(t, err)
	assert.True(t, strings.Contains(payload, "<b>&"), payload)
	assert.Contains(t, payload, `"mask":["html"]`)
	assert.False(t, strings.HasSuffix(payload, "\n"))
}

func TestMarshalPendingWrite_CanonicalMask(t *testing.T) {
	w, err := userdata.NewReader(testDB).ParseSet(map[string]any{
		"a.b": 1,
		"a":   map[string]any{"b": 2},
	}, true)
	require.NoError(t, err)

	payload, err := marshalPendingWrite(w)
	require.NoError(t, err)
	assert.Contains(t, payload, `"mask":["a.b","`+"`a.b`"+`"]`)
}
