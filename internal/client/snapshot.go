package client

import (
	"github.com/roach88/firedoc/internal/decode"
	"github.com/roach88/firedoc/internal/model"
	"github.com/roach88/firedoc/internal/status"
	"github.com/roach88/firedoc/internal/wire"
)

// ServerTimestampBehavior selects how pending server timestamps are read.
type ServerTimestampBehavior = decode.ServerTimestampBehavior

// Server timestamp behaviors.
const (
	BehaviorNone     = decode.BehaviorNone
	BehaviorEstimate = decode.BehaviorEstimate
	BehaviorPrevious = decode.BehaviorPrevious
)

// Snapshot is the state of a document at one point in time.
type Snapshot struct {
	Ref              *DocumentRef
	Fields           wire.Map
	Exists           bool
	HasPendingWrites bool
	Revision         string
	CreateTime       wire.Timestamp
	UpdateTime       wire.Timestamp

	decoder *decode.Decoder
}

// Data decodes every field. It returns nil for a missing document.
func (s *Snapshot) Data(behavior ServerTimestampBehavior) (map[string]any, error) {
	if !s.Exists {
		return nil, nil
	}
	return s.decoder.ConvertFields(s.Fields, behavior)
}

// Get decodes the field at the dotted path.
// Returns status.CodeNotFound if the document or the field does not exist.
func (s *Snapshot) Get(field string, behavior ServerTimestampBehavior) (any, error) {
	path, err := model.ParseFieldPath(field)
	if err != nil {
		return nil, usageError("%v", err)
	}
	if !s.Exists {
		return nil, status.NotFound("document %s does not exist", s.Ref.Path())
	}
	v, ok := s.Fields.GetPath(path.Segments())
	if !ok {
		return nil, status.NotFound("field %s does not exist in document %s", field, s.Ref.Path())
	}
	return s.decoder.Convert(v, behavior)
}
