package scan

import "sort"

// FilterKind identifies the kind of a pushed-down filter
type FilterKind int

const (
	FilterIsNull FilterKind = iota
	FilterIsNotNull
	FilterInt64Range
	FilterFloat64Range
	FilterStringSet
)

// String returns the string representation of a filter kind
func (k FilterKind) String() string {
	switch k {
	case FilterIsNull:
		return "IS_NULL"
	case FilterIsNotNull:
		return "IS_NOT_NULL"
	case FilterInt64Range:
		return "INT64_RANGE"
	case FilterFloat64Range:
		return "FLOAT64_RANGE"
	case FilterStringSet:
		return "STRING_SET"
	default:
		return "UNKNOWN"
	}
}

// Filter is a per-field predicate pushed down into the reader. The TestXxx
// methods test single values; the TestXxxRange methods are used for row-group
// pruning and report whether any value in [min, max] could pass.
type Filter interface {
	Kind() FilterKind
	TestNull() bool
	TestInt64(v int64) bool
	TestFloat64(v float64) bool
	TestString(v string) bool
	TestInt64Range(min, max int64) bool
	TestFloat64Range(min, max float64) bool
	TestStringRange(min, max string) bool
}

// filterBase supplies permissive defaults so concrete filters only override
// the tests relevant to their kind.
type filterBase struct {
	kind        FilterKind
	nullAllowed bool
}

func (f filterBase) Kind() FilterKind                  { return f.kind }
func (f filterBase) TestNull() bool                    { return f.nullAllowed }
func (f filterBase) TestInt64(int64) bool              { return false }
func (f filterBase) TestFloat64(float64) bool          { return false }
func (f filterBase) TestString(string) bool            { return false }
func (f filterBase) TestInt64Range(_, _ int64) bool    { return true }
func (f filterBase) TestFloat64Range(_, _ float64) bool { return true }
func (f filterBase) TestStringRange(_, _ string) bool  { return true }

// IsNullFilter passes only null values
type IsNullFilter struct{ filterBase }

// NewIsNull creates an IS NULL filter
func NewIsNull() *IsNullFilter {
	return &IsNullFilter{filterBase{kind: FilterIsNull, nullAllowed: true}}
}

// IsNotNullFilter passes every non-null value
type IsNotNullFilter struct{ filterBase }

// NewIsNotNull creates an IS NOT NULL filter
func NewIsNotNull() *IsNotNullFilter {
	return &IsNotNullFilter{filterBase{kind: FilterIsNotNull}}
}

func (f *IsNotNullFilter) TestInt64(int64) bool     { return true }
func (f *IsNotNullFilter) TestFloat64(float64) bool { return true }
func (f *IsNotNullFilter) TestString(string) bool   { return true }

// Int64RangeFilter passes int64 values in [Min, Max]
type Int64RangeFilter struct {
	filterBase
	Min, Max int64
}

// NewInt64Range creates an inclusive int64 range filter
func NewInt64Range(min, max int64, nullAllowed bool) *Int64RangeFilter {
	return &Int64RangeFilter{
		filterBase: filterBase{kind: FilterInt64Range, nullAllowed: nullAllowed},
		Min:        min,
		Max:        max,
	}
}

func (f *Int64RangeFilter) TestInt64(v int64) bool { return v >= f.Min && v <= f.Max }

func (f *Int64RangeFilter) TestInt64Range(min, max int64) bool {
	return max >= f.Min && min <= f.Max
}

// Float64RangeFilter passes float64 values in [Min, Max]
type Float64RangeFilter struct {
	filterBase
	Min, Max float64
}

// NewFloat64Range creates an inclusive float64 range filter
func NewFloat64Range(min, max float64, nullAllowed bool) *Float64RangeFilter {
	return &Float64RangeFilter{
		filterBase: filterBase{kind: FilterFloat64Range, nullAllowed: nullAllowed},
		Min:        min,
		Max:        max,
	}
}

func (f *Float64RangeFilter) TestFloat64(v float64) bool { return v >= f.Min && v <= f.Max }

func (f *Float64RangeFilter) TestFloat64Range(min, max float64) bool {
	return max >= f.Min && min <= f.Max
}

// StringSetFilter passes strings contained in a fixed set
type StringSetFilter struct {
	filterBase
	values map[string]struct{}
	sorted []string
}

// NewStringSet creates a set membership filter over the given values
func NewStringSet(values []string, nullAllowed bool) *StringSetFilter {
	set := make(map[string]struct{}, len(values))
	sorted := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := set[v]; !ok {
			set[v] = struct{}{}
			sorted = append(sorted, v)
		}
	}
	sort.Strings(sorted)
	return &StringSetFilter{
		filterBase: filterBase{kind: FilterStringSet, nullAllowed: nullAllowed},
		values:     set,
		sorted:     sorted,
	}
}

func (f *StringSetFilter) TestString(v string) bool {
	_, ok := f.values[v]
	return ok
}

func (f *StringSetFilter) TestStringRange(min, max string) bool {
	// Binary search for the first candidate >= min, then check it fits under max.
	i := sort.SearchStrings(f.sorted, min)
	return i < len(f.sorted) && f.sorted[i] <= max
}
