package rowcodec

import (
	"testing"

	"colscan/vector"
)

func buildBatch(t *testing.T) (*vector.Type, *vector.RowVector) {
	t.Helper()
	nested := vector.NewRowType([]string{"x", "y"}, []*vector.Type{vector.Int64Type, vector.StringType})
	typ := vector.NewRowType(
		[]string{"id", "score", "tag", "flag", "s"},
		[]*vector.Type{vector.Int64Type, vector.Float64Type, vector.StringType, vector.BoolType, nested},
	)

	rv := vector.NewRowVector(typ, 3)

	id := vector.NewFlatVector(vector.Int64Type, 3)
	copy(id.Int64s(), []int64{7, 8, 9})
	id.SetNull(1)
	rv.SetChild(0, id)

	score := vector.NewFlatVector(vector.Float64Type, 3)
	copy(score.Float64s(), []float64{1.25, -2.5, 0})
	rv.SetChild(1, score)

	rv.SetChild(2, vector.NewConstantVector(vector.StringType, 3, "fixed"))

	flag := vector.NewFlatVector(vector.BoolType, 3)
	copy(flag.Bools(), []bool{true, false, true})
	rv.SetChild(3, flag)

	s := vector.NewRowVector(nested, 3)
	x := vector.NewFlatVector(vector.Int64Type, 3)
	copy(x.Int64s(), []int64{100, 0, 300})
	s.SetChild(0, x)
	y := vector.NewFlatVector(vector.StringType, 3)
	copy(y.Strings(), []string{"a", "", "c"})
	y.SetNull(2)
	s.SetChild(1, y)
	s.MutableNulls().SetNull(1)
	rv.SetChild(4, s)

	return typ, rv
}

func TestRoundTrip(t *testing.T) {
	typ, batch := buildBatch(t)

	enc, err := NewEncoder(typ)
	if err != nil {
		t.Fatal(err)
	}
	var rows [][]byte
	for i := 0; i < batch.Len(); i++ {
		row, err := enc.Encode(nil, batch, i)
		if err != nil {
			t.Fatal(err)
		}
		rows = append(rows, row)
	}

	dec, err := NewDecoder(typ)
	if err != nil {
		t.Fatal(err)
	}
	got, err := dec.Decode(rows)
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 3 {
		t.Fatalf("decoded %d rows", got.Len())
	}

	t.Run("Scalars", func(t *testing.T) {
		id := got.ChildAt(0).(*vector.FlatVector)
		if id.ValueAt(0) != int64(7) || id.ValueAt(1) != nil || id.ValueAt(2) != int64(9) {
			t.Errorf("id = [%v %v %v]", id.ValueAt(0), id.ValueAt(1), id.ValueAt(2))
		}
		score := got.ChildAt(1).(*vector.FlatVector)
		if score.Float64s()[0] != 1.25 || score.Float64s()[1] != -2.5 {
			t.Errorf("score = %v", score.Float64s())
		}
		tag := got.ChildAt(2).(*vector.FlatVector)
		for i := 0; i < 3; i++ {
			if tag.Strings()[i] != "fixed" {
				t.Errorf("tag[%d] = %q", i, tag.Strings()[i])
			}
		}
		flag := got.ChildAt(3).(*vector.FlatVector)
		if !flag.Bools()[0] || flag.Bools()[1] || !flag.Bools()[2] {
			t.Errorf("flag = %v", flag.Bools())
		}
	})

	t.Run("NestedRow", func(t *testing.T) {
		s := got.ChildAt(4).(*vector.RowVector)
		if s.IsNullAt(0) || !s.IsNullAt(1) || s.IsNullAt(2) {
			t.Error("nested row nulls wrong")
		}
		x := s.ChildAt(0).(*vector.FlatVector)
		if x.Int64s()[0] != 100 || x.Int64s()[2] != 300 {
			t.Errorf("x = %v", x.Int64s())
		}
		y := s.ChildAt(1).(*vector.FlatVector)
		if y.ValueAt(0) != "a" || y.ValueAt(2) != nil {
			t.Errorf("y = [%v _ %v]", y.ValueAt(0), y.ValueAt(2))
		}
	})
}

func TestEncodeDictionary(t *testing.T) {
	typ := vector.NewRowType([]string{"word"}, []*vector.Type{vector.StringType})
	inner := vector.NewFlatVector(vector.StringType, 2)
	copy(inner.Strings(), []string{"lo", "hi"})
	dict := vector.NewDictionaryVector([]int32{1, 0, 1}, inner)
	rv := vector.NewRowVector(typ, 3)
	rv.SetChild(0, dict)

	enc, err := NewEncoder(typ)
	if err != nil {
		t.Fatal(err)
	}
	var rows [][]byte
	for i := 0; i < 3; i++ {
		row, err := enc.Encode(nil, rv, i)
		if err != nil {
			t.Fatal(err)
		}
		rows = append(rows, row)
	}
	dec, _ := NewDecoder(typ)
	got, err := dec.Decode(rows)
	if err != nil {
		t.Fatal(err)
	}
	word := got.ChildAt(0).(*vector.FlatVector)
	want := []string{"hi", "lo", "hi"}
	for i := range want {
		if word.Strings()[i] != want[i] {
			t.Errorf("word[%d] = %q, want %q", i, word.Strings()[i], want[i])
		}
	}
}

func TestEncodeRejectsUnresolvedLazy(t *testing.T) {
	typ := vector.NewRowType([]string{"v"}, []*vector.Type{vector.Int64Type})
	rv := vector.NewRowVector(typ, 1)
	rv.SetChild(0, vector.NewLazyVector(vector.Int64Type, 1, nil))

	enc, err := NewEncoder(typ)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := enc.Encode(nil, rv, 0); err == nil {
		t.Error("expected an error for an unresolved lazy field")
	}
}

func TestDecodeTruncated(t *testing.T) {
	typ := vector.NewRowType([]string{"v"}, []*vector.Type{vector.Int64Type})
	enc, _ := NewEncoder(typ)
	rv := vector.NewRowVector(typ, 1)
	flat := vector.NewFlatVector(vector.Int64Type, 1)
	flat.Int64s()[0] = 42
	rv.SetChild(0, flat)
	row, err := enc.Encode(nil, rv, 0)
	if err != nil {
		t.Fatal(err)
	}
	dec, _ := NewDecoder(typ)
	if _, err := dec.Decode([][]byte{row[:len(row)-1]}); err == nil {
		t.Error("expected an error for truncated input")
	}
}
