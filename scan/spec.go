package scan

import "colscan/vector"

// ScanSpec declares, per field, how the reader treats it: projected into the
// output, filtered, substituted by a constant, or missing from the file.
// Children recurse for nested structs. A spec tree is read-only input to the
// readers and outlives individual read calls.
type ScanSpec struct {
	// FieldName is the field's name; for nested fields the builder uses the
	// dotted path so row-group statistics can be looked up per column.
	FieldName string

	// Channel is the field's position in the output row, -1 when the field
	// is read only to apply its filter.
	Channel int

	// Subscript indexes the owning struct reader's child readers, -1 for
	// constant or missing fields which have no reader.
	Subscript int

	// ProjectOut marks the field as part of the output batch
	ProjectOut bool

	// ExtractValues forces eager materialization even when the field would
	// otherwise be eligible for lazy loading
	ExtractValues bool

	// Filter is the pushed-down predicate, nil when unfiltered. On struct
	// fields only IS NULL / IS NOT NULL are supported.
	Filter Filter

	// Constant substitutes a fixed value for the field (partition keys,
	// literals); the field then has no reader.
	Constant *vector.ConstantVector

	// Missing marks a projected field absent from the underlying file; it
	// materializes as a null constant of the declared type.
	Missing bool

	Children []*ScanSpec
}

// NewScanSpec creates a spec node with no reader binding
func NewScanSpec(name string) *ScanSpec {
	return &ScanSpec{FieldName: name, Channel: -1, Subscript: -1}
}

// AddField appends a projected child field, assigning its output channel
func (s *ScanSpec) AddField(name string) *ScanSpec {
	child := NewScanSpec(name)
	child.ProjectOut = true
	child.Channel = s.numProjected()
	s.Children = append(s.Children, child)
	return child
}

// AddFilterOnlyField appends a child that is read for its filter but not
// projected into the output
func (s *ScanSpec) AddFilterOnlyField(name string) *ScanSpec {
	child := NewScanSpec(name)
	s.Children = append(s.Children, child)
	return child
}

func (s *ScanSpec) numProjected() int {
	n := 0
	for _, c := range s.Children {
		if c.ProjectOut {
			n++
		}
	}
	return n
}

// AssignSubscripts numbers the non-constant, non-missing children of every
// struct node in declaration order, matching the layout of the reader's
// children slice. Called once after the tree is fully built.
func (s *ScanSpec) AssignSubscripts() {
	next := 0
	for _, c := range s.Children {
		if c.Constant == nil && !c.Missing {
			c.Subscript = next
			next++
		}
		if len(c.Children) > 0 {
			c.AssignSubscripts()
		}
	}
}

// HasFilter reports whether this node or any descendant carries a filter
func (s *ScanSpec) HasFilter() bool {
	if s.Filter != nil {
		return true
	}
	for _, c := range s.Children {
		if c.HasFilter() {
			return true
		}
	}
	return false
}

// ChildByName returns the direct child with the given field name
func (s *ScanSpec) ChildByName(name string) *ScanSpec {
	for _, c := range s.Children {
		if c.FieldName == name {
			return c
		}
	}
	return nil
}
