package client

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/roach88/firedoc/internal/decode"
	"github.com/roach88/firedoc/internal/model"
	"github.com/roach88/firedoc/internal/status"
	"github.com/roach88/firedoc/internal/store"
	"github.com/roach88/firedoc/internal/transform"
	"github.com/roach88/firedoc/internal/userdata"
	"github.com/roach88/firedoc/internal/wire"
)

// ErrNoStore is returned by operations that need a local cache when the
// Database was created without WithStore.
var ErrNoStore = errors.New("client: no local store configured")

// Clock supplies local write times for pending server timestamps.
type Clock interface {
	Now() wire.Timestamp
}

type systemClock struct{}

func (systemClock) Now() wire.Timestamp { return wire.TimestampFromTime(time.Now()) }

// Database is a handle on one database.
//
// INVARIANTS:
//   - id, decoder and reader never change after New
//   - decoder and reader share id, so decoded references can be written back
type Database struct {
	id      model.DatabaseID
	decoder *decode.Decoder
	reader  *userdata.Reader
	store   *store.Store
	clock   Clock
	logger  *slog.Logger
}

// Option configures a Database.
type Option func(*Database)

// WithStore attaches the local document cache used by Get, Set and Update.
func WithStore(s *store.Store) Option {
	return func(db *Database) {
		db.store = s
	}
}

// WithClock sets the source of local write times.
// Default: the system clock.
func WithClock(c Clock) Option {
	return func(db *Database) {
		if c != nil {
			db.clock = c
		}
	}
}

// WithLogger sets the logger for write, cache and decoder diagnostics.
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(db *Database) {
		db.logger = l
	}
}

// New creates a Database handle. References decode to *DocumentRef and
// bytes decode to Blob.
func New(id model.DatabaseID, opts ...Option) *Database {
	db := &Database{
		id:     id,
		reader: userdata.NewReader(id),
		clock:  systemClock{},
	}
	for _, opt := range opts {
		opt(db)
	}

	decoderOpts := []decode.DecoderOption{decode.WithBlobFactory(newBlob)}
	if db.logger != nil {
		decoderOpts = append(decoderOpts, decode.WithLogger(db.logger))
	}
	db.decoder = decode.NewDecoder(id, func(key model.DocumentKey) any {
		return db.ref(key)
	}, decoderOpts...)

	return db
}

// ID returns the database identity.
func (db *Database) ID() model.DatabaseID { return db.id }

// Decoder returns the decoder bound to this database.
func (db *Database) Decoder() *decode.Decoder { return db.decoder }

// Reader returns the write parser bound to this database.
func (db *Database) Reader() *userdata.Reader { return db.reader }

// SetOption configures a Set.
type SetOption func(*setOptions)

type setOptions struct {
	merge bool
}

// Merge makes Set write only the fields present in the data, leaving the
// rest of the document untouched.
func Merge() SetOption {
	return func(o *setOptions) {
		o.merge = true
	}
}

// WriteResult describes an applied local write.
type WriteResult struct {
	// Revision identifies the document state after the write.
	Revision string

	// Transforms are the field transforms that a server would apply.
	Transforms []transform.FieldTransform

	// LocalWriteTime is the estimate used for pending server timestamps.
	LocalWriteTime wire.Timestamp
}

// Set writes data to ref.
func (db *Database) Set(ctx context.Context, ref *DocumentRef, data map[string]any, opts ...SetOption) (*WriteResult, error) {
	var o setOptions
	for _, opt := range opts {
		opt(&o)
	}

	w, err := db.reader.ParseSet(data, o.merge)
	if err != nil {
		return nil, err
	}
	return db.apply(ctx, ref, w)
}

// Update changes fields of the existing document at ref. Keys of data are
// dotted field paths.
func (db *Database) Update(ctx context.Context, ref *DocumentRef, data map[string]any) (*WriteResult, error) {
	w, err := db.reader.ParseUpdate(data)
	if err != nil {
		return nil, err
	}
	return db.apply(ctx, ref, w)
}

func (db *Database) apply(ctx context.Context, ref *DocumentRef, w *userdata.ParsedWrite) (*WriteResult, error) {
	if err := db.checkRef(ref); err != nil {
		return nil, err
	}
	if db.store == nil {
		return nil, ErrNoStore
	}

	at := db.clock.Now()
	rec, err := db.store.ApplyLocalWrite(ctx, ref.Name(), w, at)
	if err != nil {
		return nil, err
	}

	db.log().Debug("local write applied",
		"document", ref.Path(),
		"source", w.Source.String(),
		"transforms", len(w.Transforms),
		"revision", rec.Revision,
	)

	return &WriteResult{Revision: rec.Revision, Transforms: w.Transforms, LocalWriteTime: at}, nil
}

// Get reads ref from the local cache. A document that is not cached yields a
// snapshot with Exists false.
func (db *Database) Get(ctx context.Context, ref *DocumentRef) (*Snapshot, error) {
	if err := db.checkRef(ref); err != nil {
		return nil, err
	}
	if db.store == nil {
		return nil, ErrNoStore
	}

	rec, err := db.store.GetDocument(ctx, ref.Name())
	if status.IsNotFound(err) {
		return &Snapshot{Ref: ref, decoder: db.decoder}, nil
	}
	if err != nil {
		return nil, err
	}
	return db.snapshot(ref, rec), nil
}

// Delete removes ref from the local cache.
func (db *Database) Delete(ctx context.Context, ref *DocumentRef) error {
	if err := db.checkRef(ref); err != nil {
		return err
	}
	if db.store == nil {
		return ErrNoStore
	}
	return db.store.DeleteDocument(ctx, ref.Name())
}

// Put caches a server snapshot. The document name must belong to this
// database.
func (db *Database) Put(ctx context.Context, doc wire.Document) (*Snapshot, error) {
	ref, err := db.refFromName(doc.Name)
	if err != nil {
		return nil, err
	}
	if db.store == nil {
		return nil, ErrNoStore
	}

	revision, changed, err := db.store.PutDocument(ctx, doc)
	if err != nil {
		return nil, err
	}
	db.log().Debug("snapshot cached", "document", ref.Path(), "revision", revision, "changed", changed)

	rec, err := db.store.GetDocument(ctx, doc.Name)
	if err != nil {
		return nil, err
	}
	return db.snapshot(ref, rec), nil
}

// List returns the cached documents directly inside the collection at the
// slash-separated path (e.g. "rooms" or "rooms/lobby/messages").
func (db *Database) List(ctx context.Context, collection string) ([]*Snapshot, error) {
	path, err := model.ParseResourcePath(collection)
	if err != nil || path.IsEmpty() || path.Len()%2 != 1 {
		return nil, usageError("invalid collection path %q", collection)
	}
	if db.store == nil {
		return nil, ErrNoStore
	}

	records, err := db.store.ListDocuments(ctx, db.id.DocumentsPath().Append(path).String())
	if err != nil {
		return nil, err
	}

	snaps := make([]*Snapshot, 0, len(records))
	for _, rec := range records {
		ref, err := db.refFromName(rec.Document.Name)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, db.snapshot(ref, rec))
	}
	return snaps, nil
}

// Snapshot wraps an already-decoded wire document without touching the
// cache. The document name must belong to this database.
func (db *Database) Snapshot(doc wire.Document) (*Snapshot, error) {
	ref, err := db.refFromName(doc.Name)
	if err != nil {
		return nil, err
	}
	return db.snapshot(ref, store.Record{Document: doc}), nil
}

func (db *Database) snapshot(ref *DocumentRef, rec store.Record) *Snapshot {
	return &Snapshot{
		Ref:              ref,
		Fields:           rec.Document.Fields,
		Exists:           true,
		HasPendingWrites: rec.HasPendingWrites,
		Revision:         rec.Revision,
		CreateTime:       rec.Document.CreateTime,
		UpdateTime:       rec.Document.UpdateTime,
		decoder:          db.decoder,
	}
}

func (db *Database) checkRef(ref *DocumentRef) error {
	if ref == nil {
		return usageError("document reference is nil")
	}
	if !ref.db.id.Equal(db.id) {
		return usageError("document reference is for database %s but should be for database %s", ref.db.id, db.id)
	}
	return nil
}

// refFromName resolves a resource name of this database to a reference.
func (db *Database) refFromName(name string) (*DocumentRef, error) {
	path, err := model.ParseResourcePath(name)
	if err != nil || !model.IsValidResourceName(path) {
		return nil, usageError("invalid document name %q", name)
	}
	id := model.DatabaseID{ProjectID: path.Segment(1), Database: path.Segment(3)}
	if !id.Equal(db.id) {
		return nil, usageError("document %s belongs to database %s, not %s", name, id, db.id)
	}
	key, err := model.NewDocumentKey(path.PopFirst(5))
	if err != nil {
		return nil, usageError("invalid document name %q: %v", name, err)
	}
	return db.ref(key), nil
}

func (db *Database) log() *slog.Logger {
	if db.logger != nil {
		return db.logger
	}
	return slog.Default()
}

func usageError(format string, args ...any) error {
	return status.InvalidArgument(format, args...)
}

