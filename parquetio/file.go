// Package parquetio adapts parquet files, local or remote, to the selective
// scan layer: it loads requested columns into scan-layout leaf columns,
// collects per-row-group statistics for pruning, and builds the selective
// reader tree for a scan spec.
package parquetio

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/parquet-go/parquet-go"
	"howett.net/ranger"

	"colscan/trace"
)

// File is an open parquet data source
type File struct {
	path   string
	pf     *parquet.File
	closer io.Closer
}

// Open opens a parquet file from a local path or an http(s) URL. Remote files
// are read with range requests.
func Open(path string) (*File, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return openHTTP(path)
	}
	return openLocal(path)
}

func openLocal(path string) (*File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to get file stats: %w", err)
	}
	pf, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	tracer := trace.GetTracer()
	tracer.Info(trace.ComponentParquet, "parquet file opened", trace.Context(
		"file", path,
		"size_bytes", stat.Size(),
		"row_groups", len(pf.RowGroups()),
		"rows", pf.NumRows(),
	))
	return &File{path: path, pf: pf, closer: file}, nil
}

func openHTTP(urlStr string) (*File, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	reader, err := ranger.NewReader(&ranger.HTTPRanger{URL: parsedURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP reader: %w", err)
	}
	length, err := reader.Length()
	if err != nil {
		return nil, fmt.Errorf("failed to get HTTP content length: %w", err)
	}
	pf, err := parquet.OpenFile(reader, length)
	if err != nil {
		return nil, fmt.Errorf("failed to open remote parquet file: %w", err)
	}

	tracer := trace.GetTracer()
	tracer.Info(trace.ComponentParquet, "remote parquet file opened", trace.Context(
		"url", urlStr,
		"size_bytes", length,
		"row_groups", len(pf.RowGroups()),
	))
	return &File{path: urlStr, pf: pf}, nil
}

// Path returns the path or URL the file was opened from
func (f *File) Path() string { return f.path }

// NumRows returns the total row count across all row groups
func (f *File) NumRows() int64 { return f.pf.NumRows() }

// RowGroupCount returns the number of row groups
func (f *File) RowGroupCount() int { return len(f.pf.RowGroups()) }

// ColumnNames returns the top-level field names in schema order
func (f *File) ColumnNames() []string {
	var names []string
	for _, field := range f.pf.Schema().Fields() {
		names = append(names, field.Name())
	}
	return names
}

// Close releases the underlying file handle, if any
func (f *File) Close() error {
	if f.closer != nil {
		return f.closer.Close()
	}
	return nil
}
