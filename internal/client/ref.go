package client

import (
	"context"

	"github.com/roach88/firedoc/internal/model"
)

// DocumentRef refers to a document location in a Database. The document may
// or may not exist.
type DocumentRef struct {
	db  *Database
	key model.DocumentKey
}

// Doc returns a reference to the document at the slash-separated path
// relative to the database root (e.g. "rooms/lobby").
func (db *Database) Doc(path string) (*DocumentRef, error) {
	key, err := model.ParseDocumentKey(path)
	if err != nil {
		return nil, usageError("invalid document path %q: %v", path, err)
	}
	return &DocumentRef{db: db, key: key}, nil
}

func (db *Database) ref(key model.DocumentKey) *DocumentRef {
	return &DocumentRef{db: db, key: key}
}

// Key returns the document key.
func (r *DocumentRef) Key() model.DocumentKey { return r.key }

// DatabaseID returns the identity of the database the reference belongs to.
func (r *DocumentRef) DatabaseID() model.DatabaseID { return r.db.id }

// Path returns the path relative to the database root.
func (r *DocumentRef) Path() string { return r.key.String() }

// ID returns the last path segment.
func (r *DocumentRef) ID() string { return r.key.ID() }

// Name returns the fully-qualified resource name.
func (r *DocumentRef) Name() string { return r.db.id.ResourceName(r.key) }

// Equal reports whether both references name the same document in the same
// database.
func (r *DocumentRef) Equal(other *DocumentRef) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.db.id.Equal(other.db.id) && r.key.Equal(other.key)
}

// String implements fmt.Stringer.
func (r *DocumentRef) String() string { return r.Name() }

// Get reads the document from the local cache.
func (r *DocumentRef) Get(ctx context.Context) (*Snapshot, error) {
	return r.db.Get(ctx, r)
}

// Set writes data to the document, replacing it unless Merge is given.
func (r *DocumentRef) Set(ctx context.Context, data map[string]any, opts ...SetOption) (*WriteResult, error) {
	return r.db.Set(ctx, r, data, opts...)
}

// Update changes the given fields of an existing document.
func (r *DocumentRef) Update(ctx context.Context, data map[string]any) (*WriteResult, error) {
	return r.db.Update(ctx, r, data)
}

// Delete removes the document from the local cache.
func (r *DocumentRef) Delete(ctx context.Context) error {
	return r.db.Delete(ctx, r)
}
