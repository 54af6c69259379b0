package vector

// RowVector is a struct-typed vector: one child vector per field plus the
// struct's own null mask. Children may be nil until a reader fills them in.
type RowVector struct {
	base
	Children []Vector
}

// NewRowVector creates a row vector of the given row type and length.
// Children for nested row types are pre-created empty so that consumers see
// the full query schema regardless of what the file stores; scalar children
// stay nil until materialized.
func NewRowVector(typ *Type, length int) *RowVector {
	rv := &RowVector{
		base:     base{typ: typ, length: length, refs: 1},
		Children: make([]Vector, typ.NumChildren()),
	}
	for i, childType := range typ.Children {
		if childType.IsRow() {
			rv.Children[i] = NewRowVector(childType, 0)
		}
	}
	return rv
}

func (v *RowVector) Encoding() Encoding { return EncodingRow }

// ChildAt returns the i-th field vector
func (v *RowVector) ChildAt(i int) Vector { return v.Children[i] }

// SetChild replaces the i-th field vector
func (v *RowVector) SetChild(i int, child Vector) { v.Children[i] = child }

// Resize adjusts the row count. Children are resized lazily by whoever
// materializes them.
func (v *RowVector) Resize(length int) {
	v.length = length
	if v.nulls != nil {
		v.nulls.Resize(length)
	}
}

// MapVector stores one map per row as a slice [Offsets[i], Offsets[i]+Sizes[i])
// into the Keys and Values child vectors.
type MapVector struct {
	base
	Offsets []int32
	Sizes   []int32
	Keys    Vector
	Values  Vector
}

// NewMapVector creates a map vector from its parts
func NewMapVector(typ *Type, offsets, sizes []int32, keys, values Vector) *MapVector {
	return &MapVector{
		base:    base{typ: typ, length: len(offsets), refs: 1},
		Offsets: offsets,
		Sizes:   sizes,
		Keys:    keys,
		Values:  values,
	}
}

func (v *MapVector) Encoding() Encoding { return EncodingMap }

// EntryRange returns the [start, end) slice of the key/value children
// belonging to row i
func (v *MapVector) EntryRange(i int) (int32, int32) {
	return v.Offsets[i], v.Offsets[i] + v.Sizes[i]
}
