package fieldvalue

import (
	"reflect"

	"github.com/roach88/firedoc/internal/status"
	"github.com/roach88/firedoc/internal/transform"
	"github.com/roach88/firedoc/internal/wire"
)

type deleteSentinel struct{}

// Delete returns a sentinel that removes the field it is written to.
// It is only valid in update data or in a set with merge.
func Delete() Sentinel {
	return deleteSentinel{}
}

func (deleteSentinel) sentinel() {}

// MethodName implements Sentinel.
func (deleteSentinel) MethodName() string { return MethodDelete }

// ToFieldTransform implements Sentinel. In a merge set the field is added
// to the mask with no value, which deletes it on commit.
func (s deleteSentinel) ToFieldTransform(ctx ParseContext) (*transform.FieldTransform, error) {
	switch ctx.DataSource() {
	case SourceMergeSet:
		ctx.AddToFieldMask(ctx.Path())
		return nil, nil
	case SourceUpdate:
		return nil, ctx.Errorf("%s() can only appear at the top level of your update data", s.MethodName())
	default:
		return nil, ctx.Errorf("%s() cannot be used with set() unless you pass merge", s.MethodName())
	}
}

// Equal implements Sentinel.
func (deleteSentinel) Equal(other any) bool {
	_, ok := other.(deleteSentinel)
	return ok
}

type serverTimestampSentinel struct{}

// ServerTimestamp returns a sentinel that sets the field to the commit time.
func ServerTimestamp() Sentinel {
	return serverTimestampSentinel{}
}

func (serverTimestampSentinel) sentinel() {}

// MethodName implements Sentinel.
func (serverTimestampSentinel) MethodName() string { return MethodServerTimestamp }

// ToFieldTransform implements Sentinel.
func (serverTimestampSentinel) ToFieldTransform(ctx ParseContext) (*transform.FieldTransform, error) {
	return &transform.FieldTransform{Field: ctx.Path(), Operation: transform.ServerTimestampOp{}}, nil
}

// Equal implements Sentinel.
func (serverTimestampSentinel) Equal(other any) bool {
	_, ok := other.(serverTimestampSentinel)
	return ok
}

// arraySentinel holds raw, not-yet-parsed elements for union and remove.
type arraySentinel struct {
	methodName string
	elements   []any
}

func newArraySentinel(methodName string, elems []any) (arraySentinel, error) {
	if len(elems) == 0 {
		return arraySentinel{}, status.InvalidArgument("function %s() requires at least 1 argument, but was called with 0 arguments", methodName)
	}
	return arraySentinel{methodName: methodName, elements: cloneElements(elems)}, nil
}

// cloneElements deep-copies the slices and maps in elems so later changes by
// the caller cannot reach the sentinel.
func cloneElements(elems []any) []any {
	out := make([]any, len(elems))
	for i, elem := range elems {
		if elem != nil {
			out[i] = cloneValue(reflect.ValueOf(elem)).Interface()
		}
	}
	return out
}

func cloneValue(rv reflect.Value) reflect.Value {
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return rv
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(cloneValue(rv.Index(i)))
		}
		return out
	case reflect.Map:
		if rv.IsNil() {
			return rv
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
		return out
	case reflect.Interface:
		if rv.IsNil() {
			return rv
		}
		out := reflect.New(rv.Type()).Elem()
		out.Set(cloneValue(rv.Elem()))
		return out
	}
	return rv
}

func (s arraySentinel) parseElements(ctx ParseContext) ([]wire.Value, error) {
	parsed := make([]wire.Value, len(s.elements))
	for i, elem := range s.elements {
		v, err := ctx.ParseArrayElement(s.methodName, elem, i)
		if err != nil {
			return nil, err
		}
		parsed[i] = v
	}
	return parsed, nil
}

// Elements returns a deep copy of the raw elements.
func (s arraySentinel) Elements() []any {
	return cloneElements(s.elements)
}

type arrayUnionSentinel struct {
	arraySentinel
}

// ArrayUnion returns a sentinel that appends each element not already in
// the array field. At least one element is required.
func ArrayUnion(elems ...any) (Sentinel, error) {
	s, err := newArraySentinel(MethodArrayUnion, elems)
	if err != nil {
		return nil, err
	}
	return arrayUnionSentinel{s}, nil
}

func (arrayUnionSentinel) sentinel() {}

// MethodName implements Sentinel.
func (s arrayUnionSentinel) MethodName() string { return s.methodName }

// ToFieldTransform implements Sentinel.
func (s arrayUnionSentinel) ToFieldTransform(ctx ParseContext) (*transform.FieldTransform, error) {
	elems, err := s.parseElements(ctx)
	if err != nil {
		return nil, err
	}
	return &transform.FieldTransform{Field: ctx.Path(), Operation: transform.ArrayUnionOp{Elements: elems}}, nil
}

// Equal implements Sentinel.
func (s arrayUnionSentinel) Equal(other any) bool {
	o, ok := other.(arrayUnionSentinel)
	return ok && reflect.DeepEqual(s.elements, o.elements)
}

type arrayRemoveSentinel struct {
	arraySentinel
}

// ArrayRemove returns a sentinel that removes every occurrence of each
// element from the array field. At least one element is required.
func ArrayRemove(elems ...any) (Sentinel, error) {
	s, err := newArraySentinel(MethodArrayRemove, elems)
	if err != nil {
		return nil, err
	}
	return arrayRemoveSentinel{s}, nil
}

func (arrayRemoveSentinel) sentinel() {}

// MethodName implements Sentinel.
func (s arrayRemoveSentinel) MethodName() string { return s.methodName }

// ToFieldTransform implements Sentinel.
func (s arrayRemoveSentinel) ToFieldTransform(ctx ParseContext) (*transform.FieldTransform, error) {
	elems, err := s.parseElements(ctx)
	if err != nil {
		return nil, err
	}
	return &transform.FieldTransform{Field: ctx.Path(), Operation: transform.ArrayRemoveOp{Elements: elems}}, nil
}

// Equal implements Sentinel.
func (s arrayRemoveSentinel) Equal(other any) bool {
	o, ok := other.(arrayRemoveSentinel)
	return ok && reflect.DeepEqual(s.elements, o.elements)
}

// Number is the set of operand types accepted by Increment.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 |
		~float32 | ~float64
}

type incrementSentinel struct {
	operand wire.Value // Integer or Double
}

// Increment returns a sentinel that adds n to the field. Integer kinds use
// integer semantics (the server clamps to the int64 range); float kinds use
// IEEE-754 addition.
func Increment[N Number](n N) Sentinel {
	rv := reflect.ValueOf(n)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return incrementSentinel{operand: wire.Double(rv.Float())}
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return incrementSentinel{operand: wire.Integer(int64(rv.Uint()))}
	default:
		return incrementSentinel{operand: wire.Integer(rv.Int())}
	}
}

func (incrementSentinel) sentinel() {}

// MethodName implements Sentinel.
func (incrementSentinel) MethodName() string { return MethodIncrement }

// Operand returns the wire operand (Integer or Double).
func (s incrementSentinel) Operand() wire.Value { return s.operand }

// ToFieldTransform implements Sentinel.
func (s incrementSentinel) ToFieldTransform(ctx ParseContext) (*transform.FieldTransform, error) {
	return &transform.FieldTransform{Field: ctx.Path(), Operation: transform.NumericIncrementOp{Operand: s.operand}}, nil
}

// Equal implements Sentinel. Increment(5) equals Increment(int64(5)) but
// not Increment(5.0): the operand kind decides the arithmetic.
func (s incrementSentinel) Equal(other any) bool {
	o, ok := other.(incrementSentinel)
	return ok && wire.Equal(s.operand, o.operand)
}
