package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/firedoc/internal/fieldvalue"
	"github.com/roach88/firedoc/internal/status"
	"github.com/roach88/firedoc/internal/userdata"
	"github.com/roach88/firedoc/internal/wire"
)

// PutDocument stores a server snapshot of doc, replacing the cached view and
// discarding pending writes for it.
//
// Returns the document's revision and whether anything changed. When the
// content hash matches the cached row and no writes are pending, the row is
// left untouched and its existing revision is returned.
func (s *Store) PutDocument(ctx context.Context, doc wire.Document) (revision string, changed bool, err error) {
	if doc.Name == "" {
		return "", false, status.InvalidArgument("document name is required")
	}

	fieldsJSON, err := marshalFields(doc.Fields)
	if err != nil {
		return "", false, fmt.Errorf("put document: %w", err)
	}
	hash, err := wire.ContentHash(doc.Fields)
	if err != nil {
		return "", false, fmt.Errorf("put document: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, fmt.Errorf("put document: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var existingHash, existingRevision string
	var pending bool
	err = tx.QueryRowContext(ctx,
		`SELECT content_hash, revision, pending FROM documents WHERE name = ?`, doc.Name,
	).Scan(&existingHash, &existingRevision, &pending)
	switch {
	case err == nil && existingHash == hash && !pending:
		return existingRevision, false, nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return "", false, fmt.Errorf("put document: query existing: %w", err)
	}

	seq, err := nextSeq(ctx, tx)
	if err != nil {
		return "", false, fmt.Errorf("put document: %w", err)
	}
	revision = s.revisions.Generate()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents
		(name, fields, content_hash, revision, seq, create_time, update_time, pending)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(name) DO UPDATE SET
			fields = excluded.fields,
			content_hash = excluded.content_hash,
			revision = excluded.revision,
			seq = excluded.seq,
			create_time = excluded.create_time,
			update_time = excluded.update_time,
			pending = 0
	`,
		doc.Name,
		fieldsJSON,
		hash,
		revision,
		seq,
		marshalTimestamp(doc.CreateTime),
		marshalTimestamp(doc.UpdateTime),
	)
	if err != nil {
		return "", false, fmt.Errorf("put document: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM pending_writes WHERE name = ?`, doc.Name); err != nil {
		return "", false, fmt.Errorf("put document: clear pending writes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("put document: commit: %w", err)
	}
	return revision, true, nil
}

// DeleteDocument removes a cached document and its pending writes.
// Returns status.CodeNotFound if the document is not cached.
func (s *Store) DeleteDocument(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n == 0 {
		return status.NotFound("document %s not found", name)
	}
	return nil
}

// ApplyLocalWrite applies w to the cached view of name and records it as a
// pending write. Pending server timestamps take localWriteTime as their
// estimate.
//
// An update requires the document to exist (status.CodeNotFound otherwise);
// a set creates it.
func (s *Store) ApplyLocalWrite(ctx context.Context, name string, w *userdata.ParsedWrite, localWriteTime wire.Timestamp) (*Record, error) {
	payload, err := marshalPendingWrite(w)
	if err != nil {
		return nil, fmt.Errorf("apply local write: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("apply local write: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	rec, err := scanRecord(tx.QueryRowContext(ctx, selectRecord+` WHERE name = ?`, name))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if w.Source == fieldvalue.SourceUpdate {
			return nil, status.NotFound("no document to update: %s", name)
		}
		rec = Record{Document: wire.Document{Name: name, Fields: wire.Map{}}}
	case err != nil:
		return nil, fmt.Errorf("apply local write: %w", err)
	}

	rec.Document.Fields = w.ApplyTo(rec.Document.Fields, localWriteTime)
	rec.HasPendingWrites = true

	fieldsJSON, err := marshalFields(rec.Document.Fields)
	if err != nil {
		return nil, fmt.Errorf("apply local write: %w", err)
	}
	if rec.ContentHash, err = wire.ContentHash(rec.Document.Fields); err != nil {
		return nil, fmt.Errorf("apply local write: %w", err)
	}
	if rec.Seq, err = nextSeq(ctx, tx); err != nil {
		return nil, fmt.Errorf("apply local write: %w", err)
	}
	rec.Revision = s.revisions.Generate()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents
		(name, fields, content_hash, revision, seq, create_time, update_time, pending)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(name) DO UPDATE SET
			fields = excluded.fields,
			content_hash = excluded.content_hash,
			revision = excluded.revision,
			seq = excluded.seq,
			pending = 1
	`,
		name,
		fieldsJSON,
		rec.ContentHash,
		rec.Revision,
		rec.Seq,
		marshalTimestamp(rec.Document.CreateTime),
		marshalTimestamp(rec.Document.UpdateTime),
	)
	if err != nil {
		return nil, fmt.Errorf("apply local write: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO pending_writes (name, revision, local_write_time, payload, seq)
		VALUES (?, ?, ?, ?, ?)
	`, name, rec.Revision, localWriteTime.String(), payload, rec.Seq)
	if err != nil {
		return nil, fmt.Errorf("apply local write: record pending write: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("apply local write: commit: %w", err)
	}
	return &rec, nil
}
