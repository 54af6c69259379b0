// Package rowcodec is a compact row-wise serializer for struct batches, used
// to move rows through byte-oriented exchanges (shuffle files, spill blocks).
// Each row is a null bitmap over the fields followed by the non-null values in
// field order: int64/float64 as 8 little-endian bytes, bool as one byte,
// strings and nested rows length-prefixed with a little-endian uint32.
package rowcodec

import (
	"encoding/binary"
	"fmt"
	"math"

	"colscan/vector"
)

// Encoder serializes single rows of a fixed row type
type Encoder struct {
	typ *vector.Type
}

// NewEncoder creates an encoder for the given row type
func NewEncoder(typ *vector.Type) (*Encoder, error) {
	if !typ.IsRow() {
		return nil, fmt.Errorf("row encoder requires a ROW type, got %s", typ)
	}
	return &Encoder{typ: typ}, nil
}

// Encode appends the serialized form of row rowIdx to buf. Lazy children must
// be resolved before encoding.
func (e *Encoder) Encode(buf []byte, row *vector.RowVector, rowIdx int) ([]byte, error) {
	return encodeRow(buf, e.typ, row, rowIdx)
}

func encodeRow(buf []byte, typ *vector.Type, row *vector.RowVector, rowIdx int) ([]byte, error) {
	numFields := typ.NumChildren()
	bitmapLen := (numFields + 7) / 8
	bitmapAt := len(buf)
	for i := 0; i < bitmapLen; i++ {
		buf = append(buf, 0)
	}

	for f := 0; f < numFields; f++ {
		child := row.ChildAt(f)
		fieldType := typ.ChildAt(f)
		null, err := isNullAt(child, rowIdx)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", f, err)
		}
		if null {
			buf[bitmapAt+f/8] |= 1 << (f % 8)
			continue
		}
		buf, err = appendValue(buf, fieldType, child, rowIdx)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", f, err)
		}
	}
	return buf, nil
}

// isNullAt resolves nullness through wrapper encodings
func isNullAt(v vector.Vector, i int) (bool, error) {
	switch vec := v.(type) {
	case *vector.LazyVector:
		if !vec.IsLoaded() {
			return false, fmt.Errorf("cannot encode an unresolved lazy vector")
		}
		return isNullAt(vec.LoadedVector(), i)
	case *vector.DictionaryVector:
		if vec.Nulls().IsNull(i) {
			return true, nil
		}
		return isNullAt(vec.Inner, int(vec.Indices[i]))
	case nil:
		return false, fmt.Errorf("field vector not materialized")
	default:
		return v.IsNullAt(i), nil
	}
}

func appendValue(buf []byte, typ *vector.Type, v vector.Vector, i int) ([]byte, error) {
	switch vec := v.(type) {
	case *vector.LazyVector:
		return appendValue(buf, typ, vec.LoadedVector(), i)
	case *vector.DictionaryVector:
		return appendValue(buf, typ, vec.Inner, int(vec.Indices[i]))
	case *vector.ConstantVector:
		return appendScalar(buf, typ, vec.Value)
	case *vector.FlatVector:
		return appendScalar(buf, typ, vec.ValueAt(i))
	case *vector.RowVector:
		sub, err := encodeRow(nil, typ, vec, i)
		if err != nil {
			return nil, err
		}
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(sub)))
		return append(buf, sub...), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %s", v.Encoding())
	}
}

func appendScalar(buf []byte, typ *vector.Type, value interface{}) ([]byte, error) {
	switch typ.Kind {
	case vector.Int64:
		return binary.LittleEndian.AppendUint64(buf, uint64(value.(int64))), nil
	case vector.Float64:
		return binary.LittleEndian.AppendUint64(buf, math.Float64bits(value.(float64))), nil
	case vector.String:
		s := value.(string)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)))
		return append(buf, s...), nil
	case vector.Bool:
		if value.(bool) {
			return append(buf, 1), nil
		}
		return append(buf, 0), nil
	default:
		return nil, fmt.Errorf("unsupported scalar kind %s", typ.Kind)
	}
}

// Decoder rebuilds a row vector from serialized rows of a fixed row type
type Decoder struct {
	typ *vector.Type
}

// NewDecoder creates a decoder for the given row type
func NewDecoder(typ *vector.Type) (*Decoder, error) {
	if !typ.IsRow() {
		return nil, fmt.Errorf("row decoder requires a ROW type, got %s", typ)
	}
	return &Decoder{typ: typ}, nil
}

// Decode rebuilds a batch from one serialized row per element
func (d *Decoder) Decode(rows [][]byte) (*vector.RowVector, error) {
	b := newBuilder(d.typ)
	for i, data := range rows {
		rest, err := b.decodeRow(data)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if len(rest) != 0 {
			return nil, fmt.Errorf("row %d: %d trailing bytes", i, len(rest))
		}
	}
	return b.build().(*vector.RowVector), nil
}

// builder accumulates decoded values column-wise, one builder per field with
// recursion for nested rows.
type builder struct {
	typ      *vector.Type
	length   int
	ints     []int64
	floats   []float64
	strs     []string
	bools    []bool
	nulls    []int
	children []*builder
}

func newBuilder(typ *vector.Type) *builder {
	b := &builder{typ: typ}
	if typ.IsRow() {
		for _, child := range typ.Children {
			b.children = append(b.children, newBuilder(child))
		}
	}
	return b
}

// decodeRow consumes one serialized row from data, appending a row to this
// builder and every descendant. Returns the unconsumed tail.
func (b *builder) decodeRow(data []byte) ([]byte, error) {
	numFields := b.typ.NumChildren()
	bitmapLen := (numFields + 7) / 8
	if len(data) < bitmapLen {
		return nil, fmt.Errorf("truncated null bitmap")
	}
	bitmap := data[:bitmapLen]
	data = data[bitmapLen:]

	for f := 0; f < numFields; f++ {
		child := b.children[f]
		if bitmap[f/8]&(1<<(f%8)) != 0 {
			child.appendNull()
			continue
		}
		var err error
		data, err = child.decodeValue(data)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", f, err)
		}
	}
	b.length++
	return data, nil
}

func (b *builder) decodeValue(data []byte) ([]byte, error) {
	switch b.typ.Kind {
	case vector.Int64:
		if len(data) < 8 {
			return nil, fmt.Errorf("truncated int64")
		}
		b.ints = append(b.ints, int64(binary.LittleEndian.Uint64(data)))
		b.length++
		return data[8:], nil
	case vector.Float64:
		if len(data) < 8 {
			return nil, fmt.Errorf("truncated float64")
		}
		b.floats = append(b.floats, math.Float64frombits(binary.LittleEndian.Uint64(data)))
		b.length++
		return data[8:], nil
	case vector.String:
		if len(data) < 4 {
			return nil, fmt.Errorf("truncated string length")
		}
		n := binary.LittleEndian.Uint32(data)
		data = data[4:]
		if uint32(len(data)) < n {
			return nil, fmt.Errorf("truncated string body")
		}
		b.strs = append(b.strs, string(data[:n]))
		b.length++
		return data[n:], nil
	case vector.Bool:
		if len(data) < 1 {
			return nil, fmt.Errorf("truncated bool")
		}
		b.bools = append(b.bools, data[0] != 0)
		b.length++
		return data[1:], nil
	case vector.Row:
		if len(data) < 4 {
			return nil, fmt.Errorf("truncated nested row length")
		}
		n := binary.LittleEndian.Uint32(data)
		data = data[4:]
		if uint32(len(data)) < n {
			return nil, fmt.Errorf("truncated nested row body")
		}
		rest, err := b.decodeRow(data[:n])
		if err != nil {
			return nil, err
		}
		if len(rest) != 0 {
			return nil, fmt.Errorf("nested row: %d trailing bytes", len(rest))
		}
		return data[n:], nil
	default:
		return nil, fmt.Errorf("unsupported kind %s", b.typ.Kind)
	}
}

// appendNull appends a null row position, recursively for nested rows so
// child columns stay aligned.
func (b *builder) appendNull() {
	b.nulls = append(b.nulls, b.length)
	switch b.typ.Kind {
	case vector.Int64:
		b.ints = append(b.ints, 0)
	case vector.Float64:
		b.floats = append(b.floats, 0)
	case vector.String:
		b.strs = append(b.strs, "")
	case vector.Bool:
		b.bools = append(b.bools, false)
	case vector.Row:
		for _, child := range b.children {
			child.appendNull()
		}
	}
	b.length++
}

func (b *builder) build() vector.Vector {
	if b.typ.IsRow() {
		rv := vector.NewRowVector(b.typ, b.length)
		for i, child := range b.children {
			rv.SetChild(i, child.build())
		}
		if len(b.nulls) > 0 {
			nulls := rv.MutableNulls()
			for _, pos := range b.nulls {
				nulls.SetNull(pos)
			}
		}
		return rv
	}
	flat := vector.NewFlatVector(b.typ, b.length)
	switch b.typ.Kind {
	case vector.Int64:
		copy(flat.Int64s(), b.ints)
	case vector.Float64:
		copy(flat.Float64s(), b.floats)
	case vector.String:
		copy(flat.Strings(), b.strs)
	case vector.Bool:
		copy(flat.Bools(), b.bools)
	}
	for _, pos := range b.nulls {
		flat.SetNull(pos)
	}
	return flat
}
