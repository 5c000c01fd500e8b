package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/firedoc/internal/status"
	"github.com/roach88/firedoc/internal/wire"
)

func TestGetDocument_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	doc := createTestDocument("rooms/a",
		wire.F("z", wire.Integer(1)),
		wire.F("a", wire.Array{wire.Double(1.5), wire.Null{}}),
		wire.F("ref", wire.Reference(docName("rooms/b"))),
	)
	doc.CreateTime = wire.NewTimestamp(10, 0)
	doc.UpdateTime = wire.NewTimestamp(20, 300)

	_, _, err := s.PutDocument(ctx, doc)
	require.NoError(t, err)

	rec, err := s.GetDocument(ctx, doc.Name)
	require.NoError(t, err)
	assert.Equal(t, doc, rec.Document, "fields keep their order")
	assert.Equal(t, wire.MustContentHash(doc.Fields), rec.ContentHash)
	assert.False(t, rec.HasPendingWrites)
}

func TestGetDocument_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.GetDocument(context.Background(), docName("rooms/none"))
	require.Error(t, err)
	assert.True(t, status.IsNotFound(err))
}

func TestListDocuments_DirectChildrenOnly(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"rooms/b", "rooms/a", "rooms/a/messages/m1", "roomsx/c", "users/u"} {
		_, _, err := s.PutDocument(ctx, createTestDocument(key))
		require.NoError(t, err)
	}

	records, err := s.ListDocuments(ctx, testDB.DocumentsPath().Child("rooms").String())
	require.NoError(t, err)

	var names []string
	for _, rec := range records {
		names = append(names, rec.Document.Name)
	}
	assert.Equal(t, []string{docName("rooms/a"), docName("rooms/b")}, names)
}

func TestListDocuments_Empty(t *testing.T) {
	s := createTestStore(t)
	records, err := s.ListDocuments(context.Background(), "projects/P/databases/D/documents/none")
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestChanges(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, _, err := s.PutDocument(ctx, createTestDocument("rooms/a"))
	require.NoError(t, err)
	first, err := s.GetDocument(ctx, docName("rooms/a"))
	require.NoError(t, err)

	_, _, err = s.PutDocument(ctx, createTestDocument("rooms/b"))
	require.NoError(t, err)
	_, _, err = s.PutDocument(ctx, createTestDocument("rooms/a", wire.F("v", wire.Integer(2))))
	require.NoError(t, err)

	changes, err := s.Changes(ctx, first.Seq)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, docName("rooms/b"), changes[0].Document.Name)
	assert.Equal(t, docName("rooms/a"), changes[1].Document.Name)
}
