package vector

import "fmt"

// Kind represents the supported data types for columnar values
type Kind int

const (
	Int64 Kind = iota
	Float64
	String
	Bool
	Row
	Map
)

// String returns the string representation of a kind
func (k Kind) String() string {
	switch k {
	case Int64:
		return "INT64"
	case Float64:
		return "FLOAT64"
	case String:
		return "STRING"
	case Bool:
		return "BOOL"
	case Row:
		return "ROW"
	case Map:
		return "MAP"
	default:
		return "UNKNOWN"
	}
}

// Type describes a column type. Scalar types carry only a kind; Row types
// carry named children; Map types carry exactly two children (key, value).
type Type struct {
	Kind     Kind
	Names    []string
	Children []*Type
}

// Scalar type singletons
var (
	Int64Type   = &Type{Kind: Int64}
	Float64Type = &Type{Kind: Float64}
	StringType  = &Type{Kind: String}
	BoolType    = &Type{Kind: Bool}
)

// NewRowType creates a row type from parallel name/child slices
func NewRowType(names []string, children []*Type) *Type {
	if len(names) != len(children) {
		panic(fmt.Sprintf("row type field count mismatch: %d names, %d types", len(names), len(children)))
	}
	return &Type{Kind: Row, Names: names, Children: children}
}

// NewMapType creates a map type with the given key and value types
func NewMapType(key, value *Type) *Type {
	return &Type{Kind: Map, Children: []*Type{key, value}}
}

// NumChildren returns the number of child types
func (t *Type) NumChildren() int {
	return len(t.Children)
}

// ChildAt returns the i-th child type
func (t *Type) ChildAt(i int) *Type {
	return t.Children[i]
}

// IsRow reports whether the type is a row (struct) type
func (t *Type) IsRow() bool {
	return t.Kind == Row
}

// Equal reports whether two types are structurally identical
func (t *Type) Equal(other *Type) bool {
	if t == other {
		return true
	}
	if t == nil || other == nil || t.Kind != other.Kind || len(t.Children) != len(other.Children) {
		return false
	}
	for i := range t.Children {
		if !t.Children[i].Equal(other.Children[i]) {
			return false
		}
	}
	return true
}

// String returns a readable form of the type
func (t *Type) String() string {
	switch t.Kind {
	case Row:
		s := "ROW("
		for i, c := range t.Children {
			if i > 0 {
				s += ", "
			}
			if i < len(t.Names) {
				s += t.Names[i] + " "
			}
			s += c.String()
		}
		return s + ")"
	case Map:
		return fmt.Sprintf("MAP(%s, %s)", t.Children[0], t.Children[1])
	default:
		return t.Kind.String()
	}
}
