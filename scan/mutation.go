package scan

import "github.com/RoaringBitmap/roaring/v2"

// Mutation carries rows deleted since the file was written. DeletedRows is
// scoped to the current read window: bit i marks window row i as deleted.
// A nil Mutation or nil bitmap means no deletions.
type Mutation struct {
	DeletedRows *roaring.Bitmap
}

// HasDeletions reports whether the mutation excludes any rows
func (m *Mutation) HasDeletions() bool {
	return m != nil && m.DeletedRows != nil && !m.DeletedRows.IsEmpty()
}

// DeletedInRange counts deleted rows in the window prefix [0, numRows)
func (m *Mutation) DeletedInRange(numRows int32) int32 {
	if !m.HasDeletions() || numRows == 0 {
		return 0
	}
	return int32(m.DeletedRows.Rank(uint32(numRows - 1)))
}
