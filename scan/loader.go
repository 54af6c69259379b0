package scan

import (
	"colscan/trace"
	"colscan/vector"
)

// ColumnLoader is a single-use deferred materialization request for one field
// of a struct reader. It is stamped with the reader's generation at creation;
// resolving it after the reader has moved on to a later read is a fatal
// contract breach by the consumer, not a recoverable condition.
type ColumnLoader struct {
	reader     *StructColumnReader
	field      SelectiveReader
	generation uint64
	rows       RowSet
	done       bool
}

// NewColumnLoader captures a load request for field over rows. rows is copied
// so later narrowing inside the reader cannot shift the captured target.
func NewColumnLoader(reader *StructColumnReader, field SelectiveReader, generation uint64, rows RowSet) *ColumnLoader {
	return &ColumnLoader{
		reader:     reader,
		field:      field,
		generation: generation,
		rows:       rows.Clone(),
	}
}

// Load performs the deferred read and materialization of the captured field
func (l *ColumnLoader) Load() (vector.Vector, error) {
	if l.done {
		return nil, vector.ErrAlreadyLoaded
	}
	l.done = true
	if l.generation != l.reader.readGeneration {
		return nil, invariantf("lazy load of field after the enclosing reader advanced (loader generation %d, reader generation %d)",
			l.generation, l.reader.readGeneration)
	}
	tracer := trace.GetTracer()
	if tracer.IsEnabled(trace.LevelDebug, trace.ComponentLazy) {
		tracer.Debug(trace.ComponentLazy, "resolving lazy column", trace.Context(
			"offset", l.reader.lazyReadOffset, "rows", len(l.rows)))
	}
	offset := l.reader.lazyReadOffset
	if err := advanceFieldReader(l.field, offset); err != nil {
		return nil, err
	}
	if err := l.field.Read(offset, l.rows, l.reader.nullsInReadRange); err != nil {
		return nil, err
	}
	var result vector.Vector
	if err := l.field.Materialize(l.rows, &result); err != nil {
		return nil, err
	}
	return result, nil
}
