// Package aggregate implements map aggregation over column batches. The
// map-union-sum operator merges map-typed values across rows by key, summing
// the values per key.
package aggregate

import (
	"fmt"
	"sort"

	"colscan/trace"
	"colscan/vector"
)

// MapUnionSum accumulates the union of map values across rows, summing per
// key. Keys may be int64 or string; values int64 (checked addition, overflow
// is an error) or float64. Rows where the map itself is null are skipped,
// entries with a null key are ignored, and entries with a null value
// contribute zero but still register the key.
type MapUnionSum struct {
	typ       *vector.Type
	keyKind   vector.Kind
	valueKind vector.Kind

	intKeySums map[int64]*accum
	strKeySums map[string]*accum
	rowsSeen   int64
}

type accum struct {
	i int64
	f float64
}

// NewMapUnionSum creates an accumulator for the given MAP type
func NewMapUnionSum(typ *vector.Type) (*MapUnionSum, error) {
	if typ.Kind != vector.Map {
		return nil, fmt.Errorf("map_union_sum requires a MAP type, got %s", typ)
	}
	keyKind := typ.ChildAt(0).Kind
	valueKind := typ.ChildAt(1).Kind
	if keyKind != vector.Int64 && keyKind != vector.String {
		return nil, fmt.Errorf("map_union_sum does not support %s keys", keyKind)
	}
	if valueKind != vector.Int64 && valueKind != vector.Float64 {
		return nil, fmt.Errorf("map_union_sum does not support %s values", valueKind)
	}
	a := &MapUnionSum{typ: typ, keyKind: keyKind, valueKind: valueKind}
	if keyKind == vector.Int64 {
		a.intKeySums = make(map[int64]*accum)
	} else {
		a.strKeySums = make(map[string]*accum)
	}
	return a, nil
}

func addCheckedInt64(a, b int64) (int64, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, fmt.Errorf("int64 overflow summing %d and %d", a, b)
	}
	return sum, nil
}

// Add folds the maps at the given rows into the accumulator. rows nil means
// every row of the batch.
func (a *MapUnionSum) Add(m *vector.MapVector, rows []int32) error {
	if !m.Type().Equal(a.typ) {
		return fmt.Errorf("map type mismatch: accumulating %s, got %s", a.typ, m.Type())
	}
	keys, ok := m.Keys.(*vector.FlatVector)
	if !ok {
		return fmt.Errorf("unsupported key encoding %s", m.Keys.Encoding())
	}
	values, ok := m.Values.(*vector.FlatVector)
	if !ok {
		return fmt.Errorf("unsupported value encoding %s", m.Values.Encoding())
	}

	if rows == nil {
		rows = make([]int32, m.Len())
		for i := range rows {
			rows[i] = int32(i)
		}
	}
	for _, row := range rows {
		if m.IsNullAt(int(row)) {
			continue
		}
		start, end := m.EntryRange(int(row))
		for e := start; e < end; e++ {
			if keys.IsNullAt(int(e)) {
				continue
			}
			acc, err := a.accumAt(keys, int(e))
			if err != nil {
				return err
			}
			if values.IsNullAt(int(e)) {
				continue // registers the key, adds nothing
			}
			if a.valueKind == vector.Int64 {
				sum, err := addCheckedInt64(acc.i, values.Int64s()[e])
				if err != nil {
					return err
				}
				acc.i = sum
			} else {
				acc.f += values.Float64s()[e]
			}
		}
		a.rowsSeen++
	}
	return nil
}

func (a *MapUnionSum) accumAt(keys *vector.FlatVector, entry int) (*accum, error) {
	if a.keyKind == vector.Int64 {
		k := keys.Int64s()[entry]
		acc, ok := a.intKeySums[k]
		if !ok {
			acc = &accum{}
			a.intKeySums[k] = acc
		}
		return acc, nil
	}
	k := keys.Strings()[entry]
	acc, ok := a.strKeySums[k]
	if !ok {
		acc = &accum{}
		a.strKeySums[k] = acc
	}
	return acc, nil
}

// NumKeys returns the number of distinct keys accumulated
func (a *MapUnionSum) NumKeys() int {
	if a.keyKind == vector.Int64 {
		return len(a.intKeySums)
	}
	return len(a.strKeySums)
}

// Result extracts the accumulated state as a single-row map vector with keys
// in ascending order.
func (a *MapUnionSum) Result() *vector.MapVector {
	n := a.NumKeys()
	keys := vector.NewFlatVector(a.typ.ChildAt(0), n)
	values := vector.NewFlatVector(a.typ.ChildAt(1), n)

	fill := func(i int, acc *accum) {
		if a.valueKind == vector.Int64 {
			values.Int64s()[i] = acc.i
		} else {
			values.Float64s()[i] = acc.f
		}
	}
	if a.keyKind == vector.Int64 {
		sorted := make([]int64, 0, n)
		for k := range a.intKeySums {
			sorted = append(sorted, k)
		}
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		for i, k := range sorted {
			keys.Int64s()[i] = k
			fill(i, a.intKeySums[k])
		}
	} else {
		sorted := make([]string, 0, n)
		for k := range a.strKeySums {
			sorted = append(sorted, k)
		}
		sort.Strings(sorted)
		for i, k := range sorted {
			keys.Strings()[i] = k
			fill(i, a.strKeySums[k])
		}
	}

	tracer := trace.GetTracer()
	if tracer.IsEnabled(trace.LevelDebug, trace.ComponentAggregate) {
		tracer.Debug(trace.ComponentAggregate, "map_union_sum extracted", trace.Context(
			"rows", a.rowsSeen, "keys", n))
	}
	return vector.NewMapVector(a.typ, []int32{0}, []int32{int32(n)}, keys, values)
}
