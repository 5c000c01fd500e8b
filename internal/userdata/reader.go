package userdata

import (
	"sort"

	"github.com/roach88/firedoc/internal/fieldvalue"
	"github.com/roach88/firedoc/internal/model"
	"github.com/roach88/firedoc/internal/transform"
	"github.com/roach88/firedoc/internal/wire"
)

// Method names used in error messages.
const (
	MethodSet    = "DocumentRef.Set"
	MethodUpdate = "DocumentRef.Update"
	MethodValue  = "ParseValue"
)

// ParsedWrite is a write payload ready to be applied or transmitted.
type ParsedWrite struct {
	// Source is SourceSet, SourceMergeSet or SourceUpdate.
	Source fieldvalue.DataSource

	// Data holds the literal field values.
	Data wire.Map

	// Mask lists the fields the write touches. It is nil for a plain set,
	// which replaces the whole document. A masked path absent from Data is
	// deleted.
	Mask []model.FieldPath

	// Transforms are applied after Data, in order.
	Transforms []transform.FieldTransform
}

// ApplyTo computes the local view of base after this write. Transform
// results are computed from base, before Data is written.
func (w *ParsedWrite) ApplyTo(base wire.Map, localWriteTime wire.Timestamp) wire.Map {
	results := make([]wire.Value, len(w.Transforms))
	for i, ft := range w.Transforms {
		previous, _ := base.GetPath(ft.Field.Segments())
		results[i] = ft.Operation.ApplyToLocalView(previous, localWriteTime)
	}

	var out wire.Map
	if w.Source == fieldvalue.SourceSet {
		out = append(wire.Map{}, w.Data...)
	} else {
		out = base
		for _, path := range w.Mask {
			segments := path.Segments()
			if v, ok := w.Data.GetPath(segments); ok {
				out = out.SetPath(segments, v)
			} else {
				out = out.DeletePath(segments)
			}
		}
	}

	for i, ft := range w.Transforms {
		out = out.SetPath(ft.Field.Segments(), results[i])
	}
	return out
}

// Reader parses host payloads for one database.
// A Reader is stateless and safe for concurrent use.
type Reader struct {
	databaseID model.DatabaseID
}

// NewReader creates a Reader for writes targeting databaseID.
func NewReader(databaseID model.DatabaseID) *Reader {
	return &Reader{databaseID: databaseID}
}

// DatabaseID returns the database writes are parsed for.
func (r *Reader) DatabaseID() model.DatabaseID {
	return r.databaseID
}

// ParseSet parses the data of a set. With merge, only the fields present in
// data (plus deleted fields) are written.
func (r *Reader) ParseSet(data map[string]any, merge bool) (*ParsedWrite, error) {
	source := fieldvalue.SourceSet
	if merge {
		source = fieldvalue.SourceMergeSet
	}

	ctx := r.newContext(source, MethodSet)
	v, err := ctx.parseMap(data)
	if err != nil {
		return nil, err
	}

	w := &ParsedWrite{
		Source:     source,
		Data:       v.(wire.Map),
		Transforms: ctx.acc.transforms,
	}
	if merge {
		w.Mask = append([]model.FieldPath{}, ctx.acc.mask...)
	}
	return w, nil
}

// ParseUpdate parses the data of an update. Keys are dotted field paths;
// a Delete sentinel is only accepted as the value of a key.
func (r *Reader) ParseUpdate(data map[string]any) (*ParsedWrite, error) {
	ctx := r.newContext(fieldvalue.SourceUpdate, MethodUpdate)

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	paths := make([]model.FieldPath, len(keys))
	for i, k := range keys {
		p, err := model.ParseFieldPath(k)
		if err != nil {
			return nil, ctx.Errorf("%v", err)
		}
		for _, seg := range p.Segments() {
			if err := ctx.childForPath(p).validateFieldName(seg); err != nil {
				return nil, err
			}
		}
		paths[i] = p
	}
	if err := checkPathConflicts(ctx, paths); err != nil {
		return nil, err
	}

	w := &ParsedWrite{Source: fieldvalue.SourceUpdate, Data: wire.Map{}, Mask: []model.FieldPath{}}
	for i, k := range keys {
		child := ctx.childForPath(paths[i])
		value := data[k]

		if s, ok := value.(fieldvalue.Sentinel); ok && s.Equal(fieldvalue.Delete()) {
			w.Mask = append(w.Mask, paths[i])
			continue
		}

		v, err := child.parse(value)
		if err != nil {
			return nil, err
		}
		if v != nil {
			w.Mask = append(w.Mask, paths[i])
			w.Data = w.Data.SetPath(paths[i].Segments(), v)
		}
	}
	w.Transforms = ctx.acc.transforms
	return w, nil
}

// ParseValue parses a standalone argument. Sentinels are rejected.
func (r *Reader) ParseValue(v any) (wire.Value, error) {
	ctx := r.newContext(fieldvalue.SourceArgument, MethodValue)
	return ctx.parse(v)
}

// checkPathConflicts rejects paths where one is a prefix of another.
// paths must be sorted.
func checkPathConflicts(ctx parseContext, paths []model.FieldPath) error {
	for i := 1; i < len(paths); i++ {
		for j := 0; j < i; j++ {
			if paths[j].IsPrefixOf(paths[i]) {
				return ctx.childForPath(paths[i]).Errorf("field %s conflicts with field %s", paths[i], paths[j])
			}
		}
	}
	return nil
}
