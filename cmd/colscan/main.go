// colscan scans a parquet file, local or remote, with projected columns and
// pushed-down filters, printing matching rows as a table. Optionally the
// matching rows are also written to a compact row file, per-row blocks with
// block compression.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"colscan/parquetio"
	"colscan/rowcodec"
	"colscan/scan"
	"colscan/sink"
	"colscan/vector"
)

var (
	columnsFlag  = flag.String("columns", "", "Comma-separated columns to project (default: all)")
	limitFlag    = flag.Int("limit", 0, "Stop after this many rows (0 = unlimited)")
	batchFlag    = flag.Int("batch", 1024, "Rows per read batch")
	outFlag      = flag.String("out", "", "Also write matching rows to this file (compact row encoding)")
	compressFlag = flag.String("compress", "none", "Block compression for -out: none, snappy, zstd, gzip")
)

var filtersFlag filterArgs

var errLimitReached = errors.New("limit reached")

func main() {
	flag.Var(&filtersFlag, "filter", "Pushed-down filter, e.g. 'age>=30', 'name=ann|bob', 'score!=null' (repeatable)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <file.parquet | http(s)://...>\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, "colscan:", err)
		os.Exit(1)
	}
}

func run(path string) error {
	f, err := parquetio.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	projected := f.ColumnNames()
	if *columnsFlag != "" {
		projected = strings.Split(*columnsFlag, ",")
		for i := range projected {
			projected[i] = strings.TrimSpace(projected[i])
		}
	}

	filters := make([]filterExpr, 0, len(filtersFlag))
	for _, arg := range filtersFlag {
		expr, err := parseFilter(arg)
		if err != nil {
			return err
		}
		filters = append(filters, expr)
	}

	// Load every column the scan touches: projected plus filter-only.
	load := append([]string(nil), projected...)
	seen := make(map[string]bool, len(load))
	for _, c := range load {
		seen[c] = true
	}
	for _, expr := range filters {
		if !seen[expr.Column] {
			seen[expr.Column] = true
			load = append(load, expr.Column)
		}
	}

	table, err := parquetio.LoadTable(f, load)
	if err != nil {
		return err
	}

	spec := scan.NewScanSpec("root")
	for _, name := range projected {
		spec.AddField(name)
	}
	for _, expr := range filters {
		fieldSpec := spec.ChildByName(expr.Column)
		if fieldSpec == nil {
			fieldSpec = spec.AddFilterOnlyField(expr.Column)
		}
		filter, err := expr.bind(table.Columns[expr.Column].Type)
		if err != nil {
			return err
		}
		fieldSpec.Filter = filter
	}

	reader, err := parquetio.NewReader(table, spec)
	if err != nil {
		return err
	}

	var rowSink sink.Sink
	var encoder *rowcodec.Encoder
	if *outFlag != "" {
		codec, err := sink.ParseCodec(*compressFlag)
		if err != nil {
			return err
		}
		fileSink, err := sink.NewFileSink(*outFlag)
		if err != nil {
			return err
		}
		rowSink, err = sink.NewCompressedSink(fileSink, codec)
		if err != nil {
			fileSink.Close()
			return err
		}
		defer rowSink.Close()
		encoder, err = rowcodec.NewEncoder(reader.OutputType())
		if err != nil {
			return err
		}
	}

	out := tablewriter.NewWriter(os.Stdout)
	out.SetHeader(projected)

	printed := 0
	err = parquetio.Scan(reader, table, int32(*batchFlag), func(batch *vector.RowVector) error {
		// Resolve lazy columns once per batch before row-wise access.
		for ch := 0; ch < len(projected); ch++ {
			if lazy, ok := batch.ChildAt(ch).(*vector.LazyVector); ok {
				loaded, err := lazy.Loaded()
				if err != nil {
					return err
				}
				batch.SetChild(ch, loaded)
			}
		}
		for i := 0; i < batch.Len(); i++ {
			if *limitFlag > 0 && printed >= *limitFlag {
				return errLimitReached
			}
			cells := make([]string, len(projected))
			for ch := range projected {
				cells[ch] = cellString(batch.ChildAt(ch), i)
			}
			out.Append(cells)
			if encoder != nil {
				row, err := encoder.Encode(nil, batch, i)
				if err != nil {
					return err
				}
				if err := rowSink.Write(row); err != nil {
					return err
				}
			}
			printed++
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLimitReached) {
		return err
	}

	out.Render()
	fmt.Printf("%d row(s)\n", printed)
	return nil
}

func cellString(v vector.Vector, i int) string {
	switch vec := v.(type) {
	case *vector.FlatVector:
		val := vec.ValueAt(i)
		if val == nil {
			return "NULL"
		}
		switch typed := val.(type) {
		case int64:
			return strconv.FormatInt(typed, 10)
		case float64:
			return strconv.FormatFloat(typed, 'g', -1, 64)
		case string:
			return typed
		case bool:
			return strconv.FormatBool(typed)
		}
		return fmt.Sprint(val)
	case *vector.ConstantVector:
		if vec.IsNull {
			return "NULL"
		}
		return fmt.Sprint(vec.Value)
	default:
		return fmt.Sprintf("<%s>", v.Encoding())
	}
}
