package parquetio

import (
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"colscan/scan"
	"colscan/trace"
	"colscan/vector"
)

// Table holds the loaded columns of a parquet file in scan layout, together
// with the per-row-group statistics collected while loading.
type Table struct {
	Columns   map[string]*scan.LeafColumn
	NumRows   int64
	GroupRows []int64
	Stats     *scan.TableStats
}

// LoadTable reads the named top-level columns of the file into memory. Only
// flat scalar columns are supported: int32/int64, float/double and byte
// arrays. Statistics (null count, min/max) are collected per row group as the
// values stream by, so pruning works even when the file carries no column
// index.
func LoadTable(f *File, columns []string) (*Table, error) {
	fields := f.pf.Schema().Fields()
	fieldIndex := make(map[string]int, len(fields))
	for i, field := range fields {
		fieldIndex[field.Name()] = i
	}

	rowGroups := f.pf.RowGroups()
	table := &Table{
		Columns:   make(map[string]*scan.LeafColumn, len(columns)),
		NumRows:   f.pf.NumRows(),
		GroupRows: make([]int64, len(rowGroups)),
		Stats:     scan.NewTableStats(len(rowGroups)),
	}
	for g, rg := range rowGroups {
		table.GroupRows[g] = rg.NumRows()
	}

	for _, name := range columns {
		idx, ok := fieldIndex[name]
		if !ok {
			return nil, fmt.Errorf("column %q not found in %s", name, f.path)
		}
		col, stats, err := loadColumn(rowGroups, idx, name, fields[idx].Type().Kind())
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		table.Columns[name] = col
		table.Stats.SetColumn(name, stats)
	}
	return table, nil
}

func columnType(kind parquet.Kind) (*vector.Type, error) {
	switch kind {
	case parquet.Int32, parquet.Int64:
		return vector.Int64Type, nil
	case parquet.Float, parquet.Double:
		return vector.Float64Type, nil
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return vector.StringType, nil
	default:
		return nil, fmt.Errorf("unsupported parquet kind %s", kind)
	}
}

func loadColumn(rowGroups []parquet.RowGroup, idx int, name string, kind parquet.Kind) (*scan.LeafColumn, []scan.ColumnStats, error) {
	typ, err := columnType(kind)
	if err != nil {
		return nil, nil, err
	}
	col := &scan.LeafColumn{Type: typ}
	totalRows := int64(0)
	for _, rg := range rowGroups {
		totalRows += rg.NumRows()
	}
	col.Nulls = vector.NewNullMask(int(totalRows))

	groupStats := make([]scan.ColumnStats, 0, len(rowGroups))
	buf := make([]parquet.Value, 1024)
	pos := 0

	for _, rg := range rowGroups {
		st := scan.ColumnStats{RowCount: rg.NumRows()}
		first := true
		pages := rg.ColumnChunks()[idx].Pages()
		for {
			page, err := pages.ReadPage()
			if err == io.EOF {
				break
			}
			if err != nil {
				pages.Close()
				return nil, nil, err
			}
			vr := page.Values()
			for {
				n, readErr := vr.ReadValues(buf)
				for _, val := range buf[:n] {
					if val.IsNull() {
						st.NullCount++
						col.Nulls.SetNull(pos)
						appendZero(col)
						pos++
						continue
					}
					switch typ.Kind {
					case vector.Int64:
						v := val.Int64()
						col.Ints = append(col.Ints, v)
						if first || v < st.MinInt64 {
							st.MinInt64 = v
						}
						if first || v > st.MaxInt64 {
							st.MaxInt64 = v
						}
					case vector.Float64:
						var v float64
						if kind == parquet.Float {
							v = float64(val.Float())
						} else {
							v = val.Double()
						}
						col.Floats = append(col.Floats, v)
						if first || v < st.MinFloat64 {
							st.MinFloat64 = v
						}
						if first || v > st.MaxFloat64 {
							st.MaxFloat64 = v
						}
					case vector.String:
						v := string(val.ByteArray())
						col.Strings = append(col.Strings, v)
						if first || v < st.MinString {
							st.MinString = v
						}
						if first || v > st.MaxString {
							st.MaxString = v
						}
					}
					first = false
					pos++
				}
				if readErr == io.EOF {
					break
				}
				if readErr != nil {
					pages.Close()
					return nil, nil, readErr
				}
			}
		}
		if err := pages.Close(); err != nil {
			return nil, nil, err
		}
		st.HasMinMax = !first
		groupStats = append(groupStats, st)
	}
	col.RowGroups = groupStats
	return col, groupStats, nil
}

func appendZero(col *scan.LeafColumn) {
	switch col.Type.Kind {
	case vector.Int64:
		col.Ints = append(col.Ints, 0)
	case vector.Float64:
		col.Floats = append(col.Floats, 0)
	case vector.String:
		col.Strings = append(col.Strings, "")
	}
}

// NewReader binds a scan spec to the table's columns and returns the root
// selective reader. The spec's subscripts are assigned here; every
// non-constant, non-missing child must name a loaded column.
func NewReader(table *Table, spec *scan.ScanSpec) (*scan.StructColumnReader, error) {
	spec.AssignSubscripts()

	var children []scan.SelectiveReader
	numProjected := 0
	for _, child := range spec.Children {
		if child.ProjectOut {
			numProjected++
		}
	}
	names := make([]string, numProjected)
	types := make([]*vector.Type, numProjected)

	for _, child := range spec.Children {
		var fieldType *vector.Type
		switch {
		case child.Constant != nil:
			fieldType = child.Constant.Type()
		case child.Missing:
			return nil, fmt.Errorf("missing field %q: parquet scans require a declared type, drop the field or bind a constant", child.FieldName)
		default:
			col, ok := table.Columns[child.FieldName]
			if !ok {
				return nil, fmt.Errorf("column %q referenced by the scan spec was not loaded", child.FieldName)
			}
			fieldType = col.Type
			children = append(children, scan.NewLeafReader(child, col))
		}
		if child.ProjectOut {
			names[child.Channel] = child.FieldName
			types[child.Channel] = fieldType
		}
	}

	rowType := vector.NewRowType(names, types)
	return scan.NewStructColumnReader(spec, rowType, scan.NonNullFormat{}, children, true)
}

// Scan drives the reader across the table in row-group order: groups whose
// statistics rule out every filter are skipped wholesale, the rest are read
// in batches of batchSize and handed to fn. Batches where every row was
// filtered out are not delivered. The batch passed to fn is reused across
// calls; fn must Retain it to keep it.
func Scan(reader *scan.StructColumnReader, table *Table, batchSize int32, fn func(*vector.RowVector) error) error {
	skip := scan.NewRowGroupResult()
	if err := reader.FilterRowGroups(0, table.Stats, skip); err != nil {
		return err
	}

	tracer := trace.GetTracer()
	var result vector.Vector
	for g, groupRows := range table.GroupRows {
		if skip.Skip.Contains(uint32(g)) {
			if tracer.IsEnabled(trace.LevelDebug, trace.ComponentParquet) {
				tracer.Debug(trace.ComponentParquet, "row group pruned by statistics", trace.Context(
					"row_group", g, "rows", groupRows))
			}
			if _, err := reader.SkipRows(int32(groupRows)); err != nil {
				return err
			}
			continue
		}
		remaining := int32(groupRows)
		for remaining > 0 {
			n := batchSize
			if remaining < n {
				n = remaining
			}
			if err := reader.Next(n, &result, nil); err != nil {
				return err
			}
			remaining -= n
			batch := result.(*vector.RowVector)
			if batch.Len() == 0 {
				continue
			}
			if err := fn(batch); err != nil {
				return err
			}
		}
	}
	return nil
}
