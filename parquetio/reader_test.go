package parquetio

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"

	"colscan/scan"
	"colscan/vector"
)

type fixtureRow struct {
	ID    int64   `parquet:"id"`
	Score float64 `parquet:"score"`
	Name  *string `parquet:"name,optional"`
}

func strPtr(s string) *string { return &s }

// writeFixture produces a two-row-group file: ids 1..4 in the first group,
// ids 100..103 in the second.
func writeFixture(t *testing.T, path string) {
	t.Helper()
	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[fixtureRow](file)
	group1 := []fixtureRow{
		{ID: 1, Score: 0.5, Name: strPtr("ann")},
		{ID: 2, Score: 1.5, Name: nil},
		{ID: 3, Score: 2.5, Name: strPtr("bob")},
		{ID: 4, Score: 3.5, Name: strPtr("cid")},
	}
	if _, err := writer.Write(group1); err != nil {
		t.Fatal(err)
	}
	if err := writer.Flush(); err != nil {
		t.Fatal(err)
	}
	group2 := []fixtureRow{
		{ID: 100, Score: 10.5, Name: strPtr("dee")},
		{ID: 101, Score: 11.5, Name: strPtr("eve")},
		{ID: 102, Score: 12.5, Name: nil},
		{ID: 103, Score: 13.5, Name: strPtr("fay")},
	}
	if _, err := writer.Write(group2); err != nil {
		t.Fatal(err)
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.parquet")
	writeFixture(t, path)

	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if f.NumRows() != 8 {
		t.Fatalf("expected 8 rows, got %d", f.NumRows())
	}
	if f.RowGroupCount() != 2 {
		t.Fatalf("expected 2 row groups, got %d", f.RowGroupCount())
	}

	table, err := LoadTable(f, []string{"id", "score", "name"})
	if err != nil {
		t.Fatal(err)
	}

	t.Run("Values", func(t *testing.T) {
		id := table.Columns["id"]
		if len(id.Ints) != 8 || id.Ints[0] != 1 || id.Ints[7] != 103 {
			t.Errorf("id column wrong: %v", id.Ints)
		}
		name := table.Columns["name"]
		if !name.Nulls.IsNull(1) || !name.Nulls.IsNull(6) || name.Nulls.NullCount != 2 {
			t.Errorf("name nulls wrong: %+v", name.Nulls)
		}
		if name.Strings[2] != "bob" || name.Strings[7] != "fay" {
			t.Errorf("name values wrong: %v", name.Strings)
		}
	})

	t.Run("Stats", func(t *testing.T) {
		st, ok := table.Stats.ColumnStats("id", 0)
		if !ok || !st.HasMinMax || st.MinInt64 != 1 || st.MaxInt64 != 4 || st.RowCount != 4 {
			t.Errorf("group 0 id stats wrong: %+v", st)
		}
		st, _ = table.Stats.ColumnStats("id", 1)
		if st.MinInt64 != 100 || st.MaxInt64 != 103 {
			t.Errorf("group 1 id stats wrong: %+v", st)
		}
		st, _ = table.Stats.ColumnStats("name", 0)
		if st.NullCount != 1 || st.MinString != "ann" || st.MaxString != "cid" {
			t.Errorf("group 0 name stats wrong: %+v", st)
		}
	})
}

func TestScanWithPruning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.parquet")
	writeFixture(t, path)

	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	table, err := LoadTable(f, []string{"id", "name"})
	if err != nil {
		t.Fatal(err)
	}

	spec := scan.NewScanSpec("root")
	specID := spec.AddField("id")
	specID.Filter = scan.NewInt64Range(100, 102, false)
	spec.AddField("name")

	reader, err := NewReader(table, spec)
	if err != nil {
		t.Fatal(err)
	}

	var ids []int64
	var names []interface{}
	err = Scan(reader, table, 3, func(batch *vector.RowVector) error {
		idVec := batch.ChildAt(0).(*vector.FlatVector)
		ids = append(ids, idVec.Int64s()...)
		lazy := batch.ChildAt(1).(*vector.LazyVector)
		loaded, err := lazy.Loaded()
		if err != nil {
			return err
		}
		flat := loaded.(*vector.FlatVector)
		for i := 0; i < flat.Len(); i++ {
			names = append(names, flat.ValueAt(i))
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	wantIDs := []int64{100, 101, 102}
	if len(ids) != len(wantIDs) {
		t.Fatalf("expected ids %v, got %v", wantIDs, ids)
	}
	for i := range wantIDs {
		if ids[i] != wantIDs[i] {
			t.Errorf("ids[%d] = %d, want %d", i, ids[i], wantIDs[i])
		}
	}
	wantNames := []interface{}{"dee", "eve", nil}
	for i := range wantNames {
		if names[i] != wantNames[i] {
			t.Errorf("names[%d] = %v, want %v", i, names[i], wantNames[i])
		}
	}
}

func TestScanPrunesNonMatchingGroups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.parquet")
	writeFixture(t, path)

	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	table, err := LoadTable(f, []string{"id"})
	if err != nil {
		t.Fatal(err)
	}

	spec := scan.NewScanSpec("root")
	specID := spec.AddField("id")
	specID.Filter = scan.NewInt64Range(1000, 2000, false)
	specID.ExtractValues = true

	reader, err := NewReader(table, spec)
	if err != nil {
		t.Fatal(err)
	}
	skip := scan.NewRowGroupResult()
	if err := reader.FilterRowGroups(0, table.Stats, skip); err != nil {
		t.Fatal(err)
	}
	if skip.Skip.GetCardinality() != 2 {
		t.Errorf("expected both row groups pruned, got %d", skip.Skip.GetCardinality())
	}

	batches := 0
	err = Scan(reader, table, 4, func(*vector.RowVector) error {
		batches++
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if batches != 0 {
		t.Errorf("expected 0 batches, got %d", batches)
	}
}

func TestOpenHTTP(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, filepath.Join(dir, "fixture.parquet"))

	server := httptest.NewServer(http.FileServer(http.Dir(dir)))
	defer server.Close()

	f, err := Open(server.URL + "/fixture.parquet")
	if err != nil {
		t.Fatal(err)
	}
	if f.NumRows() != 8 {
		t.Errorf("expected 8 rows over HTTP, got %d", f.NumRows())
	}
	table, err := LoadTable(f, []string{"score"})
	if err != nil {
		t.Fatal(err)
	}
	if table.Columns["score"].Floats[4] != 10.5 {
		t.Errorf("score[4] = %v", table.Columns["score"].Floats[4])
	}
}
