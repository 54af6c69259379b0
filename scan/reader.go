package scan

import (
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"colscan/vector"
)

// ErrInvariant marks a programming contract breach: mismatched call ordering,
// a stale lazy handle, or an unsupported configuration. Scans hitting it must
// be abandoned, never retried.
var ErrInvariant = errors.New("invariant violation")

func invariantf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}

// SelectiveReader is the capability contract every column reader implements:
// scalar leaves, nested structs, and format-specific variants all plug into a
// struct reader through it.
type SelectiveReader interface {
	// Read positions the reader on the window starting at the absolute row
	// offset and applies the reader's filter over rows (window-relative).
	// incomingNulls is the enclosing struct's validity for the window.
	Read(offset int32, rows RowSet, incomingNulls *vector.NullMask) error

	// Skip advances past numValues values in the reader's own value domain
	// without touching its logical read offset. Returns the count skipped.
	Skip(numValues int32) (int32, error)

	// SeekTo advances the reader's logical position to the absolute offset,
	// skipping stored values and consuming recorded parent nulls.
	SeekTo(offset int32) error

	// Materialize populates result with the field's values for rows,
	// which must be a subset of the window established by the last Read.
	Materialize(rows RowSet, result *vector.Vector) error

	// FilterRowGroups adds row groups that cannot contain passing rows to
	// the result's skip set, using per-column statistics.
	FilterRowGroups(rowGroupSize int64, stats StatsContext, result *RowGroupResult) error

	// AddParentNulls records enclosing-struct nulls the reader has not
	// absorbed through a Read, so later seeks stay aligned.
	AddParentNulls(offset int32, parentNulls *vector.NullMask, rows RowSet)

	// SetReadOffsetRecursive force-aligns the logical read offset, for this
	// reader and (for structs) every descendant.
	SetReadOffsetRecursive(offset int32)

	ReadOffset() int32
	OutputRows() RowSet
	IsTopLevel() bool
	HasFilter() bool
	ForcesValueExtraction() bool
}

// ColumnStats summarizes one column within one row group
type ColumnStats struct {
	RowCount  int64
	NullCount int64

	HasMinMax  bool
	MinInt64   int64
	MaxInt64   int64
	MinFloat64 float64
	MaxFloat64 float64
	MinString  string
	MaxString  string
}

// StatsContext resolves per-row-group column statistics by field name
type StatsContext interface {
	RowGroupCount() int
	ColumnStats(field string, rowGroup int) (ColumnStats, bool)
}

// RowGroupResult accumulates the set of row groups a scan can skip entirely
type RowGroupResult struct {
	Skip *roaring.Bitmap
}

// NewRowGroupResult creates an empty skip set
func NewRowGroupResult() *RowGroupResult {
	return &RowGroupResult{Skip: roaring.New()}
}

// FormatData abstracts the format-level null information of a struct column
type FormatData interface {
	// ReadNulls returns the struct's validity for the window
	// [offset, offset+numRows) as a window-relative mask, or nil when no
	// nulls are possible there.
	ReadNulls(offset, numRows int32) (*vector.NullMask, error)

	// CountNonNull counts non-null positions in [offset, offset+numRows)
	CountNonNull(offset, numRows int32) int32

	// ParentNullsInLeaves reports whether the format already records
	// enclosing-struct nulls inside leaf columns, in which case the struct
	// reader skips its own null propagation pass.
	ParentNullsInLeaves() bool
}

// NonNullFormat is the FormatData of a struct that can never be null
// (typically the root of the scan).
type NonNullFormat struct{}

func (NonNullFormat) ReadNulls(int32, int32) (*vector.NullMask, error) { return nil, nil }
func (NonNullFormat) CountNonNull(_, numRows int32) int32              { return numRows }
func (NonNullFormat) ParentNullsInLeaves() bool                        { return false }

// StructValidity is an in-memory FormatData backed by an absolute-row
// validity bitmap.
type StructValidity struct {
	Nulls         *vector.NullMask
	NullsInLeaves bool
}

func (v *StructValidity) ReadNulls(offset, numRows int32) (*vector.NullMask, error) {
	if !v.Nulls.HasNulls() {
		return nil, nil
	}
	window := v.Nulls.Slice(int(offset), int(numRows))
	if !window.HasNulls() {
		return nil, nil
	}
	return window, nil
}

func (v *StructValidity) CountNonNull(offset, numRows int32) int32 {
	return numRows - int32(v.Nulls.CountNulls(int(offset), int(offset+numRows)))
}

func (v *StructValidity) ParentNullsInLeaves() bool { return v.NullsInLeaves }

// readerBase carries the bookkeeping shared by every reader: the logical read
// offset, the last input/output row sets, and the count of enclosing-struct
// nulls recorded but not yet absorbed by a skip.
type readerBase struct {
	spec                  *ScanSpec
	readOffset            int32
	inputRows             RowSet
	outputRows            RowSet
	numParentNulls        int32
	parentNullsRecordedTo int32
}

func (b *readerBase) ReadOffset() int32          { return b.readOffset }
func (b *readerBase) HasFilter() bool            { return b.spec.HasFilter() }
func (b *readerBase) ForcesValueExtraction() bool { return b.spec.ExtractValues }

func (b *readerBase) AddParentNulls(offset int32, parentNulls *vector.NullMask, rows RowSet) {
	to := rows.Back() + 1
	from := int32(0)
	// A reader that already consumed (part of) this window through its own
	// Read must not count those nulls again.
	if b.readOffset > offset {
		from = b.readOffset - offset
	}
	if rec := b.parentNullsRecordedTo - offset; rec > from {
		from = rec
	}
	if parentNulls != nil && from < to {
		b.numParentNulls += int32(parentNulls.CountNulls(int(from), int(to)))
	}
	b.parentNullsRecordedTo = offset + to
}

// seekTo implements the shared seek protocol on top of a type-specific skip
func (b *readerBase) seekTo(offset int32, skip func(int32) (int32, error)) error {
	if offset == b.readOffset {
		return nil
	}
	if offset < b.readOffset {
		return invariantf("seeking backward on field %q: at %d, requested %d",
			b.spec.FieldName, b.readOffset, offset)
	}
	delta := offset - b.readOffset
	if b.numParentNulls > 0 {
		// Rows where the enclosing struct was null have no stored value.
		delta -= b.numParentNulls
		b.numParentNulls = 0
		b.parentNullsRecordedTo = 0
	}
	if delta > 0 {
		if _, err := skip(delta); err != nil {
			return err
		}
	}
	b.readOffset = offset
	return nil
}

// advanceFieldReader catches a lagging top-level child up to the struct's
// current window. Nested readers advance in lock-step with their parent and
// never lag.
func advanceFieldReader(r SelectiveReader, offset int32) error {
	if !r.IsTopLevel() {
		return nil
	}
	if r.ReadOffset() < offset {
		return r.SeekTo(offset)
	}
	return nil
}
