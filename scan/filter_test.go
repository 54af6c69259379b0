package scan

import (
	"testing"

	"colscan/vector"
)

func TestFilters(t *testing.T) {
	t.Run("IsNull", func(t *testing.T) {
		f := NewIsNull()
		if !f.TestNull() || f.TestInt64(0) || f.TestString("") {
			t.Error("IS NULL must pass only nulls")
		}
	})

	t.Run("IsNotNull", func(t *testing.T) {
		f := NewIsNotNull()
		if f.TestNull() || !f.TestInt64(0) || !f.TestFloat64(1.5) || !f.TestString("") {
			t.Error("IS NOT NULL must pass every non-null value")
		}
	})

	t.Run("Int64Range", func(t *testing.T) {
		f := NewInt64Range(10, 20, false)
		cases := map[int64]bool{9: false, 10: true, 15: true, 20: true, 21: false}
		for v, want := range cases {
			if f.TestInt64(v) != want {
				t.Errorf("TestInt64(%d) = %v, want %v", v, !want, want)
			}
		}
		if f.TestNull() {
			t.Error("null passed a null-rejecting range")
		}
		if !NewInt64Range(10, 20, true).TestNull() {
			t.Error("null rejected by a null-allowing range")
		}
	})

	t.Run("Float64Range", func(t *testing.T) {
		f := NewFloat64Range(0.5, 1.5, false)
		if !f.TestFloat64(0.5) || !f.TestFloat64(1.5) || f.TestFloat64(1.51) {
			t.Error("inclusive float bounds wrong")
		}
	})

	t.Run("StringSet", func(t *testing.T) {
		f := NewStringSet([]string{"b", "d", "b"}, false)
		if !f.TestString("b") || !f.TestString("d") || f.TestString("c") {
			t.Error("set membership wrong")
		}
	})
}

func TestFilterRangePruning(t *testing.T) {
	t.Run("Int64", func(t *testing.T) {
		f := NewInt64Range(10, 20, false)
		if f.TestInt64Range(21, 30) || f.TestInt64Range(1, 9) {
			t.Error("disjoint ranges not pruned")
		}
		if !f.TestInt64Range(20, 100) || !f.TestInt64Range(0, 10) || !f.TestInt64Range(12, 13) {
			t.Error("overlapping ranges pruned")
		}
	})

	t.Run("StringSet", func(t *testing.T) {
		f := NewStringSet([]string{"banana", "date"}, false)
		if f.TestStringRange("e", "z") || f.TestStringRange("a", "az") {
			t.Error("set outside range not pruned")
		}
		if !f.TestStringRange("c", "f") || !f.TestStringRange("a", "banana") {
			t.Error("range containing a member pruned")
		}
	})
}

func TestRowGroupFiltering(t *testing.T) {
	spec := NewScanSpec("root")
	specA := spec.AddField("a")
	specA.Filter = NewInt64Range(100, 200, false)
	specB := spec.AddField("b")
	spec.AssignSubscripts()

	colA := newInt64Column(nil, nil)
	colB := newInt64Column(nil, nil)
	rowType := vector.NewRowType([]string{"a", "b"}, []*vector.Type{vector.Int64Type, vector.Int64Type})
	root, err := NewStructColumnReader(spec, rowType, NonNullFormat{},
		[]SelectiveReader{NewLeafReader(specA, colA), NewLeafReader(specB, colB)}, true)
	if err != nil {
		t.Fatal(err)
	}

	stats := NewTableStats(4)
	stats.SetColumn("a", []ColumnStats{
		{RowCount: 10, HasMinMax: true, MinInt64: 0, MaxInt64: 50},     // below range
		{RowCount: 10, HasMinMax: true, MinInt64: 150, MaxInt64: 300}, // overlaps
		{RowCount: 10, NullCount: 10},                                  // all null
		{RowCount: 10},                                                 // no min/max
	})

	result := NewRowGroupResult()
	if err := root.FilterRowGroups(10, stats, result); err != nil {
		t.Fatal(err)
	}

	if !result.Skip.Contains(0) {
		t.Error("group 0 (max below range) not skipped")
	}
	if result.Skip.Contains(1) {
		t.Error("group 1 (overlapping stats) skipped")
	}
	if !result.Skip.Contains(2) {
		t.Error("group 2 (all null, null-rejecting filter) not skipped")
	}
	if result.Skip.Contains(3) {
		t.Error("group 3 (no min/max) skipped without evidence")
	}
}

func TestRowGroupFilteringNullFilters(t *testing.T) {
	spec := NewScanSpec("root")
	specA := spec.AddField("a")
	specA.Filter = NewIsNull()
	spec.AssignSubscripts()

	root, err := NewStructColumnReader(spec,
		vector.NewRowType([]string{"a"}, []*vector.Type{vector.Int64Type}),
		NonNullFormat{}, []SelectiveReader{NewLeafReader(specA, newInt64Column(nil, nil))}, true)
	if err != nil {
		t.Fatal(err)
	}

	stats := NewTableStats(2)
	stats.SetColumn("a", []ColumnStats{
		{RowCount: 10, NullCount: 0},
		{RowCount: 10, NullCount: 3},
	})
	result := NewRowGroupResult()
	if err := root.FilterRowGroups(10, stats, result); err != nil {
		t.Fatal(err)
	}
	if !result.Skip.Contains(0) {
		t.Error("group with no nulls survived an IS NULL filter")
	}
	if result.Skip.Contains(1) {
		t.Error("group with nulls skipped under an IS NULL filter")
	}
}
