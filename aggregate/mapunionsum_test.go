package aggregate

import (
	"math"
	"strings"
	"testing"

	"colscan/vector"
)

func buildStringIntMap(t *testing.T) *vector.MapVector {
	t.Helper()
	typ := vector.NewMapType(vector.StringType, vector.Int64Type)

	// row 0: {a:1, b:2}, row 1: null, row 2: {b:3, c:null, <null key>:9}
	keys := vector.NewFlatVector(vector.StringType, 5)
	copy(keys.Strings(), []string{"a", "b", "b", "c", "ignored"})
	keys.SetNull(4)
	values := vector.NewFlatVector(vector.Int64Type, 5)
	copy(values.Int64s(), []int64{1, 2, 3, 0, 9})
	values.SetNull(3)

	m := vector.NewMapVector(typ, []int32{0, 2, 2}, []int32{2, 0, 3}, keys, values)
	m.MutableNulls().SetNull(1)
	return m
}

func TestMapUnionSum(t *testing.T) {
	m := buildStringIntMap(t)
	agg, err := NewMapUnionSum(m.Type())
	if err != nil {
		t.Fatal(err)
	}
	if err := agg.Add(m, nil); err != nil {
		t.Fatal(err)
	}

	result := agg.Result()
	if result.Len() != 1 {
		t.Fatalf("expected a single result row, got %d", result.Len())
	}
	start, end := result.EntryRange(0)
	if end-start != 3 {
		t.Fatalf("expected 3 keys, got %d", end-start)
	}
	keys := result.Keys.(*vector.FlatVector).Strings()
	values := result.Values.(*vector.FlatVector).Int64s()
	want := map[string]int64{"a": 1, "b": 5, "c": 0}
	for i := start; i < end; i++ {
		if values[i] != want[keys[i]] {
			t.Errorf("key %q: sum %d, want %d", keys[i], values[i], want[keys[i]])
		}
		if i > start && keys[i] < keys[i-1] {
			t.Error("keys not sorted")
		}
	}
}

func TestMapUnionSumSelectedRows(t *testing.T) {
	m := buildStringIntMap(t)
	agg, err := NewMapUnionSum(m.Type())
	if err != nil {
		t.Fatal(err)
	}
	// Only row 2: {b:3, c:null}.
	if err := agg.Add(m, []int32{2}); err != nil {
		t.Fatal(err)
	}
	result := agg.Result()
	keys := result.Keys.(*vector.FlatVector).Strings()
	values := result.Values.(*vector.FlatVector).Int64s()
	if agg.NumKeys() != 2 || keys[0] != "b" || values[0] != 3 || keys[1] != "c" || values[1] != 0 {
		t.Errorf("got keys %v values %v", keys, values)
	}
}

func TestMapUnionSumOverflow(t *testing.T) {
	typ := vector.NewMapType(vector.Int64Type, vector.Int64Type)
	keys := vector.NewFlatVector(vector.Int64Type, 2)
	copy(keys.Int64s(), []int64{7, 7})
	values := vector.NewFlatVector(vector.Int64Type, 2)
	copy(values.Int64s(), []int64{math.MaxInt64, 1})
	m := vector.NewMapVector(typ, []int32{0, 1}, []int32{1, 1}, keys, values)

	agg, err := NewMapUnionSum(typ)
	if err != nil {
		t.Fatal(err)
	}
	err = agg.Add(m, nil)
	if err == nil || !strings.Contains(err.Error(), "overflow") {
		t.Errorf("expected overflow error, got %v", err)
	}
}

func TestMapUnionSumFloat(t *testing.T) {
	typ := vector.NewMapType(vector.Int64Type, vector.Float64Type)
	keys := vector.NewFlatVector(vector.Int64Type, 3)
	copy(keys.Int64s(), []int64{2, 1, 2})
	values := vector.NewFlatVector(vector.Float64Type, 3)
	copy(values.Float64s(), []float64{0.5, 1.5, 0.25})
	m := vector.NewMapVector(typ, []int32{0, 2}, []int32{2, 1}, keys, values)

	agg, err := NewMapUnionSum(typ)
	if err != nil {
		t.Fatal(err)
	}
	if err := agg.Add(m, nil); err != nil {
		t.Fatal(err)
	}
	result := agg.Result()
	keysOut := result.Keys.(*vector.FlatVector).Int64s()
	valuesOut := result.Values.(*vector.FlatVector).Float64s()
	if keysOut[0] != 1 || valuesOut[0] != 1.5 || keysOut[1] != 2 || valuesOut[1] != 0.75 {
		t.Errorf("got keys %v values %v", keysOut, valuesOut)
	}
}

func TestMapUnionSumRejectsUnsupportedTypes(t *testing.T) {
	if _, err := NewMapUnionSum(vector.Int64Type); err == nil {
		t.Error("non-map type accepted")
	}
	if _, err := NewMapUnionSum(vector.NewMapType(vector.Float64Type, vector.Int64Type)); err == nil {
		t.Error("float keys accepted")
	}
	if _, err := NewMapUnionSum(vector.NewMapType(vector.Int64Type, vector.StringType)); err == nil {
		t.Error("string values accepted")
	}
}
