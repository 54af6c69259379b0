package vector

import "fmt"

// Encoding identifies the physical representation of a vector
type Encoding int

const (
	EncodingFlat Encoding = iota
	EncodingConstant
	EncodingRow
	EncodingMap
	EncodingDictionary
	EncodingLazy
)

// String returns the string representation of an encoding
func (e Encoding) String() string {
	switch e {
	case EncodingFlat:
		return "FLAT"
	case EncodingConstant:
		return "CONSTANT"
	case EncodingRow:
		return "ROW"
	case EncodingMap:
		return "MAP"
	case EncodingDictionary:
		return "DICTIONARY"
	case EncodingLazy:
		return "LAZY"
	default:
		return "UNKNOWN"
	}
}

// Vector is a column of values. Implementations are flat typed arrays,
// constants, row (struct) vectors, map vectors, dictionary wrappers and lazy
// placeholders.
//
// Vectors are reference counted so readers can prove exclusive ownership
// before mutating a buffer in place. A freshly constructed vector has one
// reference, held by its creator. Sharing a vector with another component
// must go through Retain; in-place reuse is allowed only while Unique
// reports true. Counting is not thread safe: a vector belongs to one reader
// tree and one goroutine at a time.
type Vector interface {
	Type() *Type
	Encoding() Encoding
	Len() int
	Nulls() *NullMask
	IsNullAt(i int) bool

	Retain()
	Release()
	Unique() bool
}

type base struct {
	typ    *Type
	length int
	nulls  *NullMask
	refs   int
}

func (b *base) Type() *Type      { return b.typ }
func (b *base) Len() int         { return b.length }
func (b *base) Nulls() *NullMask { return b.nulls }
func (b *base) Retain()          { b.refs++ }
func (b *base) Release()         { b.refs-- }
func (b *base) Unique() bool     { return b.refs <= 1 }

func (b *base) IsNullAt(i int) bool {
	return b.nulls.IsNull(i)
}

// MutableNulls returns the null mask, allocating it at the vector's current
// length if absent.
func (b *base) MutableNulls() *NullMask {
	if b.nulls == nil {
		b.nulls = NewNullMask(b.length)
	} else {
		b.nulls.Resize(b.length)
	}
	return b.nulls
}

// ClearNulls drops all null information
func (b *base) ClearNulls() {
	if b.nulls != nil {
		b.nulls.ClearAll()
	}
}

// FlatVector is a flat typed array of scalar values with an optional null
// mask. The Data slice matches the vector kind: []int64, []float64, []string
// or []bool.
type FlatVector struct {
	base
	Data interface{}
}

// NewFlatVector creates a flat vector of the given scalar type and length
func NewFlatVector(typ *Type, length int) *FlatVector {
	v := &FlatVector{base: base{typ: typ, length: length, refs: 1}}
	switch typ.Kind {
	case Int64:
		v.Data = make([]int64, length)
	case Float64:
		v.Data = make([]float64, length)
	case String:
		v.Data = make([]string, length)
	case Bool:
		v.Data = make([]bool, length)
	default:
		panic(fmt.Sprintf("flat vector does not support %s", typ.Kind))
	}
	return v
}

func (v *FlatVector) Encoding() Encoding { return EncodingFlat }

// Int64s returns the backing int64 slice
func (v *FlatVector) Int64s() []int64 { return v.Data.([]int64) }

// Float64s returns the backing float64 slice
func (v *FlatVector) Float64s() []float64 { return v.Data.([]float64) }

// Strings returns the backing string slice
func (v *FlatVector) Strings() []string { return v.Data.([]string) }

// Bools returns the backing bool slice
func (v *FlatVector) Bools() []bool { return v.Data.([]bool) }

// SetNull marks a position null
func (v *FlatVector) SetNull(i int) {
	v.MutableNulls().SetNull(i)
}

// ValueAt returns the value at i as an untyped scalar, or nil when null
func (v *FlatVector) ValueAt(i int) interface{} {
	if v.IsNullAt(i) {
		return nil
	}
	switch d := v.Data.(type) {
	case []int64:
		return d[i]
	case []float64:
		return d[i]
	case []string:
		return d[i]
	case []bool:
		return d[i]
	}
	return nil
}

// Resize adjusts the vector to the given length, growing the backing array
// when needed. Values in the retained prefix are preserved.
func (v *FlatVector) Resize(length int) {
	switch d := v.Data.(type) {
	case []int64:
		if length > cap(d) {
			grown := make([]int64, length)
			copy(grown, d)
			v.Data = grown
		} else {
			v.Data = d[:length]
		}
	case []float64:
		if length > cap(d) {
			grown := make([]float64, length)
			copy(grown, d)
			v.Data = grown
		} else {
			v.Data = d[:length]
		}
	case []string:
		if length > cap(d) {
			grown := make([]string, length)
			copy(grown, d)
			v.Data = grown
		} else {
			v.Data = d[:length]
		}
	case []bool:
		if length > cap(d) {
			grown := make([]bool, length)
			copy(grown, d)
			v.Data = grown
		} else {
			v.Data = d[:length]
		}
	}
	v.length = length
	if v.nulls != nil {
		v.nulls.Resize(length)
	}
}

// ConstantVector repeats a single value (or null) for its whole length
type ConstantVector struct {
	base
	Value  interface{}
	IsNull bool
}

// NewConstantVector creates a constant vector of the given value
func NewConstantVector(typ *Type, length int, value interface{}) *ConstantVector {
	return &ConstantVector{
		base:  base{typ: typ, length: length, refs: 1},
		Value: value,
	}
}

// NewNullConstant creates a constant vector that is null at every position
func NewNullConstant(typ *Type, length int) *ConstantVector {
	return &ConstantVector{
		base:   base{typ: typ, length: length, refs: 1},
		IsNull: true,
	}
}

func (v *ConstantVector) Encoding() Encoding { return EncodingConstant }

func (v *ConstantVector) IsNullAt(i int) bool { return v.IsNull }

// Resize adjusts the repeat count
func (v *ConstantVector) Resize(length int) { v.length = length }

// EqualValue reports whether another constant repeats the same value
func (v *ConstantVector) EqualValue(other *ConstantVector) bool {
	if v.IsNull || other.IsNull {
		return v.IsNull == other.IsNull
	}
	return v.Value == other.Value
}

// DictionaryVector wraps an inner vector with an index indirection
type DictionaryVector struct {
	base
	Indices []int32
	Inner   Vector
}

// NewDictionaryVector wraps values with the given indices
func NewDictionaryVector(indices []int32, inner Vector) *DictionaryVector {
	return &DictionaryVector{
		base:    base{typ: inner.Type(), length: len(indices), refs: 1},
		Indices: indices,
		Inner:   inner,
	}
}

func (v *DictionaryVector) Encoding() Encoding { return EncodingDictionary }

func (v *DictionaryVector) IsNullAt(i int) bool {
	if v.nulls.IsNull(i) {
		return true
	}
	return v.Inner.IsNullAt(int(v.Indices[i]))
}
