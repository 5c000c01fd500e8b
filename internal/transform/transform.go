// Package transform defines the resolved, context-bound field transforms
// produced from sentinels just before a write is transmitted, and applies
// them to a locally cached document so that pending writes are visible to
// readers before the server acknowledges them.
package transform

import (
	"math"

	"github.com/roach88/firedoc/internal/model"
	"github.com/roach88/firedoc/internal/wire"
)

// Operation is a sealed interface over the transform kinds.
type Operation interface {
	// ApplyToLocalView computes the field's pending local value from its
	// previous value (nil when the field does not exist).
	ApplyToLocalView(previous wire.Value, localWriteTime wire.Timestamp) wire.Value

	// Name identifies the operation in descriptors and logs.
	Name() string

	operation() // Sealed
}

// FieldTransform binds an Operation to the field it applies to.
type FieldTransform struct {
	Field     model.FieldPath
	Operation Operation
}

// ServerTimestampOp sets the field to the commit time.
type ServerTimestampOp struct{}

func (ServerTimestampOp) operation() {}

// Name implements Operation.
func (ServerTimestampOp) Name() string { return "setToServerValue" }

// ApplyToLocalView returns a pending server timestamp remembering previous.
func (ServerTimestampOp) ApplyToLocalView(previous wire.Value, localWriteTime wire.Timestamp) wire.Value {
	return wire.NewServerTimestamp(localWriteTime, previous)
}

// ArrayUnionOp appends elements not already present.
type ArrayUnionOp struct {
	Elements []wire.Value
}

func (ArrayUnionOp) operation() {}

// Name implements Operation.
func (ArrayUnionOp) Name() string { return "appendMissingElements" }

// ApplyToLocalView coerces previous to an array (non-arrays become empty)
// and appends each element that is not already in it.
func (op ArrayUnionOp) ApplyToLocalView(previous wire.Value, _ wire.Timestamp) wire.Value {
	out := coerceToArray(previous)
	for _, elem := range op.Elements {
		if !wire.Contains(out, elem) {
			out = append(out, elem)
		}
	}
	return out
}

// ArrayRemoveOp removes every occurrence of the given elements.
type ArrayRemoveOp struct {
	Elements []wire.Value
}

func (ArrayRemoveOp) operation() {}

// Name implements Operation.
func (ArrayRemoveOp) Name() string { return "removeAllFromArray" }

// ApplyToLocalView coerces previous to an array and drops matching elements.
func (op ArrayRemoveOp) ApplyToLocalView(previous wire.Value, _ wire.Timestamp) wire.Value {
	out := wire.Array{}
	for _, elem := range coerceToArray(previous) {
		if !wire.Contains(op.Elements, elem) {
			out = append(out, elem)
		}
	}
	return out
}

// NumericIncrementOp adds Operand (an Integer or a Double) to the field.
type NumericIncrementOp struct {
	Operand wire.Value
}

func (NumericIncrementOp) operation() {}

// Name implements Operation.
func (NumericIncrementOp) Name() string { return "increment" }

// ApplyToLocalView adds the operand to a numeric previous value (any other
// previous value counts as 0). Integer plus integer saturates at the int64
// bounds; any double operand switches to IEEE-754 addition.
func (op NumericIncrementOp) ApplyToLocalView(previous wire.Value, _ wire.Timestamp) wire.Value {
	base := previous
	if !wire.IsNumber(base) {
		base = wire.Integer(0)
	}

	baseInt, baseIsInt := base.(wire.Integer)
	operandInt, operandIsInt := op.Operand.(wire.Integer)
	if baseIsInt && operandIsInt {
		return wire.Integer(saturatingAdd(int64(baseInt), int64(operandInt)))
	}
	return wire.Double(asFloat(base) + asFloat(op.Operand))
}

func saturatingAdd(a, b int64) int64 {
	sum := a + b
	// Overflow iff both operands share a sign that the sum does not.
	if a > 0 && b > 0 && sum < 0 {
		return math.MaxInt64
	}
	if a < 0 && b < 0 && sum >= 0 {
		return math.MinInt64
	}
	return sum
}

func asFloat(v wire.Value) float64 {
	switch n := v.(type) {
	case wire.Integer:
		return float64(n)
	case wire.Double:
		return float64(n)
	}
	return 0
}

func coerceToArray(v wire.Value) wire.Array {
	arr, ok := v.(wire.Array)
	if !ok {
		return wire.Array{}
	}
	return append(wire.Array{}, arr...)
}

// Apply runs every transform against fields, using localWriteTime for
// pending server timestamps, and returns the updated copy.
func Apply(fields wire.Map, transforms []FieldTransform, localWriteTime wire.Timestamp) wire.Map {
	out := fields
	for _, ft := range transforms {
		segments := ft.Field.Segments()
		previous, _ := out.GetPath(segments)
		out = out.SetPath(segments, ft.Operation.ApplyToLocalView(previous, localWriteTime))
	}
	return out
}
