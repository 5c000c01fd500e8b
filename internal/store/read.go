package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/firedoc/internal/status"
	"github.com/roach88/firedoc/internal/wire"
)

// Record is a cached document plus its bookkeeping columns.
type Record struct {
	Document         wire.Document
	ContentHash      string
	Revision         string
	Seq              int64
	HasPendingWrites bool
}

// PendingWrite is a local write not yet replaced by a server snapshot.
type PendingWrite struct {
	Name           string
	Revision       string
	LocalWriteTime wire.Timestamp
	Payload        string // JSON: source, fields, mask, transforms
	Seq            int64
}

const selectRecord = `
	SELECT name, fields, content_hash, revision, seq, create_time, update_time, pending
	FROM documents`

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec                    Record
		fieldsJSON             string
		createTime, updateTime string
	)
	err := row.Scan(
		&rec.Document.Name,
		&fieldsJSON,
		&rec.ContentHash,
		&rec.Revision,
		&rec.Seq,
		&createTime,
		&updateTime,
		&rec.HasPendingWrites,
	)
	if err != nil {
		return Record{}, err
	}

	if rec.Document.Fields, err = unmarshalFields(fieldsJSON); err != nil {
		return Record{}, fmt.Errorf("document %s: %w", rec.Document.Name, err)
	}
	if rec.Document.CreateTime, err = unmarshalTimestamp(createTime); err != nil {
		return Record{}, fmt.Errorf("document %s: create_time: %w", rec.Document.Name, err)
	}
	if rec.Document.UpdateTime, err = unmarshalTimestamp(updateTime); err != nil {
		return Record{}, fmt.Errorf("document %s: update_time: %w", rec.Document.Name, err)
	}
	return rec, nil
}

// GetDocument returns the cached document with the given resource name.
// Returns status.CodeNotFound if it is not cached.
func (s *Store) GetDocument(ctx context.Context, name string) (Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, selectRecord+` WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, status.NotFound("document %s not found", name)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get document: %w", err)
	}
	return rec, nil
}

// ListDocuments returns the direct children of the collection with the
// given resource name, ordered by name.
//
// Returns an empty slice (not nil) if the collection has no cached documents.
func (s *Store) ListDocuments(ctx context.Context, collection string) ([]Record, error) {
	prefix := strings.TrimSuffix(collection, "/") + "/"
	rows, err := s.db.QueryContext(ctx, selectRecord+`
		WHERE substr(name, 1, length(?)) = ?
		ORDER BY name COLLATE BINARY ASC
	`, prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list documents: %w", err)
		}
		// Deeper documents live in subcollections.
		if strings.Contains(strings.TrimPrefix(rec.Document.Name, prefix), "/") {
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return records, nil
}

// Changes returns every document changed after seq, in seq order.
func (s *Store) Changes(ctx context.Context, afterSeq int64) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, selectRecord+`
		WHERE seq > ?
		ORDER BY seq ASC
	`, afterSeq)
	if err != nil {
		return nil, fmt.Errorf("changes: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("changes: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate changes: %w", err)
	}
	return records, nil
}

// PendingWrites returns the pending writes recorded for name, oldest first.
func (s *Store) PendingWrites(ctx context.Context, name string) ([]PendingWrite, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, revision, local_write_time, payload, seq
		FROM pending_writes
		WHERE name = ?
		ORDER BY seq ASC, id ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("query pending writes: %w", err)
	}
	defer rows.Close()

	writes := []PendingWrite{}
	for rows.Next() {
		var (
			pw        PendingWrite
			writeTime string
		)
		if err := rows.Scan(&pw.Name, &pw.Revision, &writeTime, &pw.Payload, &pw.Seq); err != nil {
			return nil, fmt.Errorf("scan pending write: %w", err)
		}
		if pw.LocalWriteTime, err = unmarshalTimestamp(writeTime); err != nil {
			return nil, err
		}
		writes = append(writes, pw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending writes: %w", err)
	}
	return writes, nil
}
