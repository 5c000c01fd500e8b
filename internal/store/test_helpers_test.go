package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/firedoc/internal/model"
	"github.com/roach88/firedoc/internal/wire"
)

var testDB = model.NewDatabaseID("P", "D")

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// docName returns the resource name of key in the test database.
func docName(key string) string {
	return testDB.ResourceName(model.MustDocumentKey(key))
}

// createTestDocument creates a document with the given fields.
func createTestDocument(key string, fields ...wire.Field) wire.Document {
	return wire.Document{
		Name:   docName(key),
		Fields: wire.NewMap(fields...),
	}
}
