package scan

import (
	"fmt"

	"colscan/trace"
	"colscan/vector"
)

// StructColumnReader reads a nested struct column selectively: it narrows the
// active row set through deletions, its own null filter and per-child filters
// in declaration order, injects struct-level nulls into children, and defers
// unfiltered projected fields to lazy materialization.
type StructColumnReader struct {
	readerBase
	children   []SelectiveReader
	format     FormatData
	outputType *vector.Type
	isRoot     bool

	rows        RowSet // dense scratch for Next
	scratchRows RowSet

	nullsInReadRange *vector.NullMask
	readGeneration   uint64
	lazyReadOffset   int32
	formatPos        int32

	mutation     *Mutation
	hasDeletions bool
}

// NewStructColumnReader composes child readers under a scan spec. children is
// indexed by the spec's subscripts; outputType declares the projected row
// shape. The struct's own filter may only be IS NULL or IS NOT NULL; anything
// else is rejected here, at configuration time.
func NewStructColumnReader(spec *ScanSpec, outputType *vector.Type, format FormatData, children []SelectiveReader, isRoot bool) (*StructColumnReader, error) {
	if !outputType.IsRow() {
		return nil, invariantf("struct reader for field %q requires a ROW output type, got %s", spec.FieldName, outputType)
	}
	if spec.Filter != nil {
		if kind := spec.Filter.Kind(); kind != FilterIsNull && kind != FilterIsNotNull {
			return nil, invariantf("unsupported filter %s on struct field %q", kind, spec.FieldName)
		}
	}
	for _, childSpec := range spec.Children {
		if childSpec.Constant != nil || childSpec.Missing {
			continue
		}
		if childSpec.Subscript < 0 || childSpec.Subscript >= len(children) {
			return nil, invariantf("field %q has no reader bound (subscript %d of %d children)",
				childSpec.FieldName, childSpec.Subscript, len(children))
		}
	}
	return &StructColumnReader{
		readerBase: readerBase{spec: spec},
		children:   children,
		format:     format,
		outputType: outputType,
		isRoot:     isRoot,
	}, nil
}

// IsTopLevel reports false: struct readers always materialize eagerly when
// they appear as children; laziness applies to leaf-level read targets only.
func (r *StructColumnReader) IsTopLevel() bool { return false }

// ReadGeneration returns the monotonic counter stamped onto lazy loaders
func (r *StructColumnReader) ReadGeneration() uint64 { return r.readGeneration }

// OutputType returns the row type of materialized batches
func (r *StructColumnReader) OutputType() *vector.Type { return r.outputType }

// OutputRows returns the narrowed row set of the last read, or the full input
// rows when nothing narrowed
func (r *StructColumnReader) OutputRows() RowSet {
	if r.spec.HasFilter() || r.hasDeletions {
		return r.outputRows
	}
	return r.inputRows
}

// Next reads the next numValues rows and materializes them into result. This
// is the caller loop entry: offsets advance monotonically across calls.
func (r *StructColumnReader) Next(numValues int32, result *vector.Vector, mutation *Mutation) error {
	if len(r.children) == 0 {
		return r.nextConstant(numValues, result, mutation)
	}
	if cap(r.rows) < int(numValues) {
		r.rows = DenseRows(numValues)
	} else {
		r.rows = r.rows[:numValues]
		for i := int32(0); i < numValues; i++ {
			r.rows[i] = i
		}
	}
	r.mutation = mutation
	r.hasDeletions = mutation.HasDeletions()
	if err := r.Read(r.readOffset, r.rows, nil); err != nil {
		return err
	}
	return r.Materialize(r.OutputRows(), result)
}

// nextConstant serves the no-reader degenerate case: count-only scans or
// projections of constants and missing columns only.
func (r *StructColumnReader) nextConstant(numValues int32, result *vector.Vector, mutation *Mutation) error {
	numValues -= mutation.DeletedInRange(numValues)
	resultRow := tryReuseResult(*result)
	if resultRow == nil {
		resultRow = vector.NewRowVector(r.outputType, 0)
	}
	*result = resultRow
	resultRow.Resize(int(numValues))
	resultRow.ClearNulls()
	for _, childSpec := range r.spec.Children {
		if !childSpec.ProjectOut {
			continue
		}
		switch {
		case childSpec.Constant != nil:
			resultRow.SetChild(childSpec.Channel,
				setConstantField(childSpec.Constant, int(numValues), resultRow.ChildAt(childSpec.Channel)))
		case childSpec.Missing:
			resultRow.SetChild(childSpec.Channel,
				setNullField(r.outputType.ChildAt(childSpec.Channel), int(numValues), resultRow.ChildAt(childSpec.Channel)))
		default:
			return invariantf("struct with no readers requires constant or missing fields, got %q", childSpec.FieldName)
		}
	}
	r.readOffset += numValues
	return nil
}

// Read establishes the narrowed row set for the window [offset, offset+n)
// where n = rows.Back()+1. rows is window-relative and dense at the top level.
func (r *StructColumnReader) Read(offset int32, rows RowSet, incomingNulls *vector.NullMask) error {
	r.readGeneration++
	if err := r.prepareRead(offset, rows, incomingNulls); err != nil {
		return err
	}
	windowEnd := offset + rows.Back() + 1
	activeRows := rows

	if r.hasDeletions {
		// Deletions are resolved before any field is touched.
		if r.nullsInReadRange != nil {
			return invariantf("deleted-rows mutation on nullable struct %q: only the top level can carry a mutation", r.spec.FieldName)
		}
		if int(rows.Back()) != len(rows)-1 {
			return invariantf("mutation requires a dense top-level row set")
		}
		deleted := r.mutation.DeletedRows
		out := r.outputRows[:0]
		for i := int32(0); i <= rows.Back(); i++ {
			if !deleted.Contains(uint32(i)) {
				out = append(out, i)
			}
		}
		r.outputRows = out
		if len(r.outputRows) == 0 {
			r.readOffset = windowEnd
			return nil
		}
		activeRows = r.outputRows
	}

	structNulls := r.nullsInReadRange
	if r.spec.Filter != nil {
		// A struct itself only supports a null / not-null filter.
		kind := r.spec.Filter.Kind()
		if kind != FilterIsNull && kind != FilterIsNotNull {
			return invariantf("unsupported filter %s on struct field %q", kind, r.spec.FieldName)
		}
		r.filterNulls(activeRows, kind == FilterIsNull)
		if len(r.outputRows) == 0 {
			r.recordParentNullsInChildren(offset, rows)
			r.lazyReadOffset = offset
			r.readOffset = windowEnd
			return nil
		}
		activeRows = r.outputRows
	}

	tracer := trace.GetTracer()
	for _, childSpec := range r.spec.Children {
		if childSpec.Constant != nil || childSpec.Missing {
			continue
		}
		child := r.children[childSpec.Subscript]
		if child.IsTopLevel() && childSpec.ProjectOut && !childSpec.HasFilter() && !childSpec.ExtractValues {
			// Deferred to a lazy vector in Materialize.
			continue
		}
		if err := advanceFieldReader(child, offset); err != nil {
			return err
		}
		if childSpec.HasFilter() {
			if err := child.Read(offset, activeRows, structNulls); err != nil {
				return fmt.Errorf("field %q: %w", childSpec.FieldName, err)
			}
			activeRows = child.OutputRows()
			if tracer.IsEnabled(trace.LevelVerbose, trace.ComponentReader) {
				tracer.Verbose(trace.ComponentReader, "child filter applied", trace.Context(
					"field", childSpec.FieldName, "remaining", len(activeRows)))
			}
			if len(activeRows) == 0 {
				break
			}
		} else if err := child.Read(offset, activeRows, structNulls); err != nil {
			return fmt.Errorf("field %q: %w", childSpec.FieldName, err)
		}
	}

	// Children that were skipped or short-circuited still need the struct's
	// nulls recorded so a later lazy load sees correct validity.
	r.recordParentNullsInChildren(offset, rows)

	if r.spec.HasFilter() {
		r.setOutputRows(activeRows)
	}
	r.lazyReadOffset = offset
	r.readOffset = windowEnd
	return nil
}

func (r *StructColumnReader) prepareRead(offset int32, rows RowSet, incomingNulls *vector.NullMask) error {
	if len(rows) == 0 {
		return invariantf("empty row set passed to struct read")
	}
	if r.readOffset != offset {
		if err := r.SeekTo(offset); err != nil {
			return err
		}
	}
	// Reading the window consumes any parent nulls recorded for it.
	r.numParentNulls = 0
	r.parentNullsRecordedTo = 0
	numRows := rows.Back() + 1
	nulls, err := r.format.ReadNulls(offset, numRows)
	if err != nil {
		return err
	}
	if incomingNulls != nil {
		if nulls == nil {
			nulls = incomingNulls.Slice(0, int(numRows))
		} else {
			nulls.Union(incomingNulls)
		}
	}
	r.nullsInReadRange = nulls
	r.formatPos = offset + numRows
	r.inputRows = rows
	r.outputRows = r.outputRows[:0]
	return nil
}

// filterNulls narrows rows by the struct's own validity
func (r *StructColumnReader) filterNulls(rows RowSet, keepNulls bool) {
	out := r.scratchRows[:0]
	nulls := r.nullsInReadRange
	for _, row := range rows {
		if nulls.IsNull(int(row)) == keepNulls {
			out = append(out, row)
		}
	}
	r.scratchRows = r.outputRows
	r.outputRows = out
}

func (r *StructColumnReader) setOutputRows(rows RowSet) {
	// Safe even when rows aliases outputRows: elements are copied in place.
	r.outputRows = append(r.outputRows[:0], rows...)
}

// recordParentNullsInChildren propagates struct-level nulls into every child
// that has not absorbed them through its own read. Formats that embed parent
// nulls in leaves opt out.
func (r *StructColumnReader) recordParentNullsInChildren(offset int32, rows RowSet) {
	if r.format.ParentNullsInLeaves() {
		return
	}
	for _, childSpec := range r.spec.Children {
		if childSpec.Constant != nil || childSpec.Missing {
			continue
		}
		r.children[childSpec.Subscript].AddParentNulls(offset, r.nullsInReadRange, rows)
	}
}

// Skip advances past numValues rows of the struct. Children store no value
// where the struct is null, so they skip only the non-null count but have
// their logical offsets advanced by the full numValues, recursively, keeping
// nested readers on the same row in terms of top-level rows.
func (r *StructColumnReader) Skip(numValues int32) (int32, error) {
	numNonNull := r.format.CountNonNull(r.formatPos, numValues)
	r.formatPos += numValues
	for _, child := range r.children {
		if child == nil {
			continue
		}
		if _, err := child.Skip(numNonNull); err != nil {
			return 0, err
		}
		// Descendants were already advanced by their own non-null counts
		// inside child.Skip; the whole subtree realigns to one absolute
		// offset.
		child.SetReadOffsetRecursive(child.ReadOffset() + numValues)
	}
	return numValues, nil
}

// SkipRows fast-forwards the whole reader tree past rows that will never be
// materialized, e.g. a dropped row group.
func (r *StructColumnReader) SkipRows(numValues int32) (int32, error) {
	n, err := r.Skip(numValues)
	if err != nil {
		return 0, err
	}
	r.readOffset += numValues
	return n, nil
}

// SeekTo advances the struct to the absolute offset
func (r *StructColumnReader) SeekTo(offset int32) error {
	return r.seekTo(offset, r.Skip)
}

// SetReadOffsetRecursive aligns this reader and all descendants to the same
// absolute offset, so every reader in the subtree ends up on the same row in
// terms of top-level rows.
func (r *StructColumnReader) SetReadOffsetRecursive(offset int32) {
	r.readOffset = offset
	for _, child := range r.children {
		if child != nil {
			child.SetReadOffsetRecursive(offset)
		}
	}
}

// FilterRowGroups forwards row-group pruning to every child so statistics on
// any filtered column can drop whole row groups before a row is read.
func (r *StructColumnReader) FilterRowGroups(rowGroupSize int64, stats StatsContext, result *RowGroupResult) error {
	for _, child := range r.children {
		if child == nil {
			continue
		}
		if err := child.FilterRowGroups(rowGroupSize, stats, result); err != nil {
			return err
		}
	}
	return nil
}
