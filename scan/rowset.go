package scan

// RowSet is an ascending sequence of row indices relative to the current read
// window. It is not necessarily dense: filter narrowing leaves gaps.
type RowSet []int32

// DenseRows returns the dense row set [0, n)
func DenseRows(n int32) RowSet {
	rows := make(RowSet, n)
	for i := int32(0); i < n; i++ {
		rows[i] = i
	}
	return rows
}

// Back returns the last (largest) row index; the set must not be empty
func (r RowSet) Back() int32 {
	return r[len(r)-1]
}

// Empty reports whether the set holds no rows
func (r RowSet) Empty() bool {
	return len(r) == 0
}

// Clone returns an independent copy of the set
func (r RowSet) Clone() RowSet {
	out := make(RowSet, len(r))
	copy(out, r)
	return out
}
