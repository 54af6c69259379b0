package scan

import (
	"fmt"

	"colscan/vector"
)

// LeafColumn holds an in-memory scalar column in scan layout: physical values
// (and the leaf's own validity) exist only for positions where the enclosing
// struct is non-null. For a non-nullable enclosing struct the physical
// positions coincide with row numbers.
type LeafColumn struct {
	Type    *vector.Type
	Ints    []int64
	Floats  []float64
	Strings []string
	Nulls   *vector.NullMask

	// RowGroups optionally carries per-row-group statistics for pruning
	RowGroups []ColumnStats
}

// Len returns the number of physical values stored
func (c *LeafColumn) Len() int {
	switch c.Type.Kind {
	case vector.Int64:
		return len(c.Ints)
	case vector.Float64:
		return len(c.Floats)
	case vector.String:
		return len(c.Strings)
	}
	return 0
}

// LeafReader reads a scalar column selectively. It tracks a physical value
// cursor independently of the logical read offset: the enclosing struct
// guarantees the two stay aligned by recording parent nulls and advancing
// skipped readers by full row counts.
type LeafReader struct {
	readerBase
	col    *LeafColumn
	pos    int32
	nested bool

	// Window state from the last Read, consumed by Materialize.
	windowBase  int32
	windowNulls *vector.NullMask
	windowLen   int32
}

// NewLeafReader creates a reader over an in-memory column. The reader is
// top level: a direct child of the root and a valid lazy-load target.
func NewLeafReader(spec *ScanSpec, col *LeafColumn) *LeafReader {
	return &LeafReader{readerBase: readerBase{spec: spec}, col: col}
}

// NewNestedLeafReader creates a reader for a leaf inside a nested struct.
// Nested leaves advance in lock-step with their parent and always
// materialize eagerly.
func NewNestedLeafReader(spec *ScanSpec, col *LeafColumn) *LeafReader {
	return &LeafReader{readerBase: readerBase{spec: spec}, col: col, nested: true}
}

// IsTopLevel reports whether the leaf is a valid lazy-load target
func (l *LeafReader) IsTopLevel() bool { return !l.nested }

// OutputRows returns the rows that passed the leaf's filter, or the input
// rows when the leaf is unfiltered
func (l *LeafReader) OutputRows() RowSet {
	if l.spec.Filter != nil {
		return l.outputRows
	}
	return l.inputRows
}

// Read positions the reader on the window at offset and applies the leaf's
// filter over rows. incomingNulls marks rows where the enclosing struct is
// null; those rows have no stored value and read as null.
func (l *LeafReader) Read(offset int32, rows RowSet, incomingNulls *vector.NullMask) error {
	if err := l.SeekTo(offset); err != nil {
		return err
	}
	// Reading the window consumes any parent nulls recorded for it.
	l.numParentNulls = 0
	l.parentNullsRecordedTo = 0
	if len(rows) == 0 {
		return invariantf("empty row set passed to leaf read of %q", l.spec.FieldName)
	}
	numRows := rows.Back() + 1
	l.windowBase = l.pos
	l.windowNulls = incomingNulls
	l.windowLen = numRows
	l.inputRows = append(l.inputRows[:0], rows...)

	if filter := l.spec.Filter; filter != nil {
		out := l.outputRows[:0]
		phys := l.windowBase
		ri := 0
		for i := int32(0); i < numRows; i++ {
			parentNull := incomingNulls.IsNull(int(i))
			if ri < len(rows) && rows[ri] == i {
				pass, err := l.testAt(filter, phys, parentNull)
				if err != nil {
					return err
				}
				if pass {
					out = append(out, i)
				}
				ri++
			}
			if !parentNull {
				phys++
			}
		}
		l.outputRows = out
	}

	l.pos = l.windowBase + numRows - int32(incomingNulls.CountNulls(0, int(numRows)))
	l.readOffset = offset + numRows
	return nil
}

func (l *LeafReader) testAt(filter Filter, phys int32, parentNull bool) (bool, error) {
	if parentNull || l.col.Nulls.IsNull(int(phys)) {
		return filter.TestNull(), nil
	}
	if int(phys) >= l.col.Len() {
		return false, fmt.Errorf("column %q: read past end of stored values (position %d of %d)",
			l.spec.FieldName, phys, l.col.Len())
	}
	switch l.col.Type.Kind {
	case vector.Int64:
		return filter.TestInt64(l.col.Ints[phys]), nil
	case vector.Float64:
		return filter.TestFloat64(l.col.Floats[phys]), nil
	case vector.String:
		return filter.TestString(l.col.Strings[phys]), nil
	}
	return false, fmt.Errorf("column %q: unsupported leaf kind %s", l.spec.FieldName, l.col.Type.Kind)
}

// Materialize builds a flat vector with the values at rows, which must be a
// subset of the window established by the last Read. Leaf results are rebuilt
// per batch; in-place reuse applies at the struct level.
func (l *LeafReader) Materialize(rows RowSet, result *vector.Vector) error {
	out := vector.NewFlatVector(l.col.Type, len(rows))
	phys := l.windowBase
	ri := 0
	for i := int32(0); i < l.windowLen && ri < len(rows); i++ {
		parentNull := l.windowNulls.IsNull(int(i))
		if rows[ri] == i {
			if parentNull || l.col.Nulls.IsNull(int(phys)) {
				out.SetNull(ri)
			} else if int(phys) >= l.col.Len() {
				return fmt.Errorf("column %q: materialize past end of stored values (position %d of %d)",
					l.spec.FieldName, phys, l.col.Len())
			} else {
				switch l.col.Type.Kind {
				case vector.Int64:
					out.Int64s()[ri] = l.col.Ints[phys]
				case vector.Float64:
					out.Float64s()[ri] = l.col.Floats[phys]
				case vector.String:
					out.Strings()[ri] = l.col.Strings[phys]
				}
			}
			ri++
		}
		if !parentNull {
			phys++
		}
	}
	if ri != len(rows) {
		return invariantf("column %q: %d of %d requested rows outside the read window",
			l.spec.FieldName, len(rows)-ri, len(rows))
	}
	*result = out
	return nil
}

// Skip advances the physical value cursor without touching the logical offset
func (l *LeafReader) Skip(numValues int32) (int32, error) {
	l.pos += numValues
	return numValues, nil
}

// SeekTo advances the logical offset, skipping stored values and consuming
// any parent nulls recorded since the last read
func (l *LeafReader) SeekTo(offset int32) error {
	return l.seekTo(offset, l.Skip)
}

// SetReadOffsetRecursive force-aligns the logical offset; leaves have no
// descendants to recurse into
func (l *LeafReader) SetReadOffsetRecursive(offset int32) {
	l.readOffset = offset
}

// FilterRowGroups prunes row groups whose statistics prove the leaf's filter
// can never pass
func (l *LeafReader) FilterRowGroups(rowGroupSize int64, stats StatsContext, result *RowGroupResult) error {
	filter := l.spec.Filter
	if filter == nil {
		return nil
	}
	for g := 0; g < stats.RowGroupCount(); g++ {
		st, ok := stats.ColumnStats(l.spec.FieldName, g)
		if !ok {
			continue
		}
		if !rowGroupMayMatch(filter, l.col.Type.Kind, st) {
			result.Skip.Add(uint32(g))
		}
	}
	return nil
}

func rowGroupMayMatch(filter Filter, kind vector.Kind, st ColumnStats) bool {
	switch filter.Kind() {
	case FilterIsNull:
		return st.NullCount > 0
	case FilterIsNotNull:
		return st.NullCount < st.RowCount
	}
	if st.NullCount > 0 && filter.TestNull() {
		return true
	}
	if st.NullCount == st.RowCount {
		return filter.TestNull()
	}
	if !st.HasMinMax {
		return true
	}
	switch kind {
	case vector.Int64:
		return filter.TestInt64Range(st.MinInt64, st.MaxInt64)
	case vector.Float64:
		return filter.TestFloat64Range(st.MinFloat64, st.MaxFloat64)
	case vector.String:
		return filter.TestStringRange(st.MinString, st.MaxString)
	}
	return true
}
