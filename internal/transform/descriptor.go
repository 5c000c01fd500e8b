package transform

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/firedoc/internal/wire"
)

// MarshalJSON renders ft in the REST FieldTransform shape, e.g.
// {"fieldPath":"count","increment":{"integerValue":"1"}}.
func (ft FieldTransform) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	path, err := json.Marshal(ft.Field.CanonicalString())
	if err != nil {
		return nil, err
	}
	buf.WriteString(`{"fieldPath":`)
	buf.Write(path)
	buf.WriteString(`,"`)
	buf.WriteString(ft.Operation.Name())
	buf.WriteString(`":`)

	switch op := ft.Operation.(type) {
	case ServerTimestampOp:
		buf.WriteString(`"REQUEST_TIME"`)
	case ArrayUnionOp:
		if err := writeElements(&buf, op.Elements); err != nil {
			return nil, err
		}
	case ArrayRemoveOp:
		if err := writeElements(&buf, op.Elements); err != nil {
			return nil, err
		}
	case NumericIncrementOp:
		data, err := wire.MarshalValue(op.Operand)
		if err != nil {
			return nil, fmt.Errorf("increment operand: %w", err)
		}
		buf.Write(data)
	default:
		return nil, fmt.Errorf("unknown transform operation: %T", ft.Operation)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeElements(buf *bytes.Buffer, elems []wire.Value) error {
	buf.WriteString(`{"values":[`)
	for i, elem := range elems {
		if i > 0 {
			buf.WriteByte(',')
		}
		data, err := wire.MarshalValue(elem)
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		buf.Write(data)
	}
	buf.WriteString(`]}`)
	return nil
}
