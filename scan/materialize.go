package scan

import (
	"colscan/vector"
)

// Materialize assembles the output batch for rows, which must be (a subset
// of) the row set produced by the last Read. Each projected field is resolved
// as a constant, a null constant, an eagerly materialized child, or a lazy
// vector carrying a deferred load.
func (r *StructColumnReader) Materialize(rows RowSet, result *vector.Vector) error {
	if len(r.children) == 0 {
		return invariantf("materialize on struct %q with no child readers", r.spec.FieldName)
	}
	resultRow := tryReuseResult(*result)
	if resultRow == nil {
		resultRow = vector.NewRowVector(r.outputType, 0)
	}
	*result = resultRow
	resultRow.Resize(len(rows))
	if len(rows) == 0 {
		return nil
	}

	// The result's nulls are rebuilt from the struct's validity restricted
	// to rows, or cleared when the struct cannot be null here.
	if r.nullsInReadRange != nil {
		nulls := resultRow.MutableNulls()
		nulls.ClearAll()
		for i, row := range rows {
			if r.nullsInReadRange.IsNull(int(row)) {
				nulls.SetNull(i)
			}
		}
	} else {
		resultRow.ClearNulls()
	}

	lazyPrepared := false
	for _, childSpec := range r.spec.Children {
		if !childSpec.ProjectOut {
			continue
		}
		channel := childSpec.Channel
		slot := resultRow.ChildAt(channel)
		if childSpec.Constant != nil {
			resultRow.SetChild(channel, setConstantField(childSpec.Constant, len(rows), slot))
			continue
		}
		if childSpec.Missing {
			resultRow.SetChild(channel, setNullField(r.outputType.ChildAt(channel), len(rows), slot))
			continue
		}
		child := r.children[childSpec.Subscript]
		if childSpec.ExtractValues || childSpec.Filter != nil || !child.IsTopLevel() {
			childResult := slot
			if err := child.Materialize(rows, &childResult); err != nil {
				return err
			}
			resultRow.SetChild(channel, childResult)
			continue
		}
		// Lazy field.
		if !lazyPrepared {
			if len(rows) != len(r.outputRows) {
				r.setOutputRows(rows)
			}
			lazyPrepared = true
		}
		loader := NewColumnLoader(r, child, r.readGeneration, rows)
		if lazy, ok := slot.(*vector.LazyVector); ok && slot.Unique() && !lazy.IsLoaded() {
			lazy.Reset(loader, len(rows))
		} else {
			resultRow.SetChild(channel,
				vector.NewLazyVector(r.outputType.ChildAt(channel), len(rows), loader))
		}
	}
	return nil
}

// tryReuseResult returns a row vector that may be refilled in place, or nil
// when a fresh allocation is required. Only an exclusively owned batch
// qualifies; resolved lazy and dictionary wrappers are looked through.
func tryReuseResult(result vector.Vector) *vector.RowVector {
	if result == nil || !result.Unique() {
		return nil
	}
	switch v := result.(type) {
	case *vector.RowVector:
		return v
	case *vector.LazyVector:
		if !v.IsLoaded() {
			return nil
		}
		return tryReuseResult(v.LoadedVector())
	case *vector.DictionaryVector:
		return tryReuseResult(v.Inner)
	default:
		return nil
	}
}

// setConstantField resizes an exclusively owned constant of the same value in
// place, otherwise wraps the constant fresh at the requested size.
func setConstantField(constant *vector.ConstantVector, size int, slot vector.Vector) vector.Vector {
	if existing, ok := slot.(*vector.ConstantVector); ok &&
		slot.Unique() && existing.Len() > 0 && existing.EqualValue(constant) {
		existing.Resize(size)
		return existing
	}
	if constant.IsNull {
		return vector.NewNullConstant(constant.Type(), size)
	}
	return vector.NewConstantVector(constant.Type(), size, constant.Value)
}

// setNullField produces a null constant of the field's declared type, reusing
// an exclusively owned null constant in place.
func setNullField(typ *vector.Type, size int, slot vector.Vector) vector.Vector {
	if existing, ok := slot.(*vector.ConstantVector); ok &&
		slot.Unique() && existing.Len() > 0 && existing.IsNull {
		existing.Resize(size)
		return existing
	}
	return vector.NewNullConstant(typ, size)
}
