package userdata

import (
	"fmt"

	"github.com/roach88/firedoc/internal/fieldvalue"
	"github.com/roach88/firedoc/internal/model"
	"github.com/roach88/firedoc/internal/status"
	"github.com/roach88/firedoc/internal/transform"
	"github.com/roach88/firedoc/internal/wire"
)

// accumulator collects the side outputs of one parse.
// It is shared by every context derived from the same root.
type accumulator struct {
	mask       []model.FieldPath
	transforms []transform.FieldTransform
}

// parseContext is the concrete fieldvalue.ParseContext.
//
// INVARIANTS:
//   - Contexts are values; deriving a child never mutates the parent
//   - arrayElement is true for everything nested below an array
type parseContext struct {
	reader       *Reader
	acc          *accumulator
	source       fieldvalue.DataSource
	methodName   string
	path         model.FieldPath
	arrayElement bool
}

var _ fieldvalue.ParseContext = parseContext{}

func (r *Reader) newContext(source fieldvalue.DataSource, methodName string) parseContext {
	return parseContext{
		reader:     r,
		acc:        &accumulator{},
		source:     source,
		methodName: methodName,
	}
}

// Path implements fieldvalue.ParseContext.
func (c parseContext) Path() model.FieldPath { return c.path }

// DataSource implements fieldvalue.ParseContext.
func (c parseContext) DataSource() fieldvalue.DataSource { return c.source }

// DatabaseID implements fieldvalue.ParseContext.
func (c parseContext) DatabaseID() model.DatabaseID { return c.reader.databaseID }

// AddToFieldMask implements fieldvalue.ParseContext.
func (c parseContext) AddToFieldMask(path model.FieldPath) {
	c.acc.mask = append(c.acc.mask, path)
}

// ParseArrayElement implements fieldvalue.ParseContext. Elements are parsed
// as array arguments of methodName, so sentinels and nested arrays are
// rejected.
func (c parseContext) ParseArrayElement(methodName string, elem any, index int) (wire.Value, error) {
	child := parseContext{
		reader:       c.reader,
		acc:          &accumulator{},
		source:       fieldvalue.SourceArrayArgument,
		methodName:   methodName,
		arrayElement: true,
	}
	v, err := child.parse(elem)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, child.Errorf("argument %d is not a valid value", index)
	}
	return v, nil
}

// Errorf implements fieldvalue.ParseContext.
func (c parseContext) Errorf(format string, args ...any) error {
	err := status.InvalidArgument("%s() called with invalid data: %s", c.methodName, fmt.Sprintf(format, args...))
	if !c.path.Empty() {
		return err.WithField(c.path.String())
	}
	return err
}

func (c parseContext) childForField(name string) parseContext {
	child := c
	child.path = c.path.Child(name)
	return child
}

func (c parseContext) childForPath(path model.FieldPath) parseContext {
	child := c
	child.path = path
	return child
}

func (c parseContext) childForArray() parseContext {
	child := c
	child.arrayElement = true
	return child
}

func (c parseContext) recordTransform(ft transform.FieldTransform) {
	c.acc.transforms = append(c.acc.transforms, ft)
}
