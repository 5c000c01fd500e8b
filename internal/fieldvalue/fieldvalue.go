// Package fieldvalue provides the sentinel values a caller embeds in a write
// payload to request a transform instead of a literal value: delete,
// server timestamp, array union, array remove and numeric increment.
//
// Sentinels are two-phase. The factories in this package capture intent
// eagerly and need no database handle. ToFieldTransform resolves that intent
// later, against an explicit ParseContext supplied by the write-preparation
// stage; array elements are parsed only then, because parsing may depend on
// the target database (embedded references, for instance).
//
// Sentinels are immutable and safe to share between goroutines.
package fieldvalue

import (
	"github.com/roach88/firedoc/internal/model"
	"github.com/roach88/firedoc/internal/transform"
	"github.com/roach88/firedoc/internal/wire"
)

// DataSource describes what kind of user input is being parsed.
type DataSource int

const (
	// SourceSet is the data of a set() without merge.
	SourceSet DataSource = iota
	// SourceMergeSet is the data of a set() with merge.
	SourceMergeSet
	// SourceUpdate is the data of an update().
	SourceUpdate
	// SourceArgument is a standalone argument (e.g. a query value).
	SourceArgument
	// SourceArrayArgument is an element passed to arrayUnion/arrayRemove.
	SourceArrayArgument
)

var dataSourceNames = [...]string{"set", "merge set", "update", "argument", "array argument"}

func (s DataSource) String() string {
	if int(s) < len(dataSourceNames) {
		return dataSourceNames[s]
	}
	return "unknown"
}

// IsWrite reports whether s is one of the write sources.
func (s DataSource) IsWrite() bool {
	return s == SourceSet || s == SourceMergeSet || s == SourceUpdate
}

// ParseContext is the write-time context a sentinel resolves against.
// It is implemented by the write-preparation stage (package userdata).
type ParseContext interface {
	// Path is the field the sentinel was found at.
	Path() model.FieldPath

	// DataSource is the kind of write being prepared.
	DataSource() DataSource

	// DatabaseID is the database the write targets.
	DatabaseID() model.DatabaseID

	// AddToFieldMask records path as written without a value.
	AddToFieldMask(path model.FieldPath)

	// ParseArrayElement parses one raw argument of methodName.
	ParseArrayElement(methodName string, elem any, index int) (wire.Value, error)

	// Errorf builds a usage error annotated with the current field.
	Errorf(format string, args ...any) error
}

// Sentinel is a sealed interface over the transform sentinels.
type Sentinel interface {
	// MethodName identifies the sentinel in diagnostics, e.g.
	// "FieldValue.increment". It plays no part in dispatch.
	MethodName() string

	// ToFieldTransform resolves the sentinel against ctx. A nil transform
	// with a nil error means the sentinel is a no-op in this context.
	ToFieldTransform(ctx ParseContext) (*transform.FieldTransform, error)

	// Equal reports whether other is the same kind of sentinel with a
	// structurally equal payload.
	Equal(other any) bool

	sentinel() // Sealed
}

// Method names.
const (
	MethodDelete          = "FieldValue.delete"
	MethodServerTimestamp = "FieldValue.serverTimestamp"
	MethodArrayUnion      = "FieldValue.arrayUnion"
	MethodArrayRemove     = "FieldValue.arrayRemove"
	MethodIncrement       = "FieldValue.increment"
)
