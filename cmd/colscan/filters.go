package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"colscan/scan"
	"colscan/vector"
)

// filterExpr is one parsed -filter argument, bound to a column type after the
// table is loaded.
type filterExpr struct {
	Column string
	Op     string // ">=", "<=", "=", "null", "notnull"
	Value  string
}

// parseFilter accepts "col>=N", "col<=N", "col=a|b|c", "col==null" and
// "col!=null".
func parseFilter(arg string) (filterExpr, error) {
	for _, op := range []string{">=", "<=", "==", "!=", "="} {
		idx := strings.Index(arg, op)
		if idx <= 0 {
			continue
		}
		col := strings.TrimSpace(arg[:idx])
		if col == "" || strings.ContainsAny(col, "<>!=") {
			continue
		}
		val := strings.TrimSpace(arg[idx+len(op):])
		switch op {
		case "==", "!=":
			if val != "null" {
				return filterExpr{}, fmt.Errorf("%q: only %snull is supported", arg, op)
			}
			if op == "==" {
				return filterExpr{Column: col, Op: "null"}, nil
			}
			return filterExpr{Column: col, Op: "notnull"}, nil
		default:
			if val == "" {
				return filterExpr{}, fmt.Errorf("%q: missing comparison value", arg)
			}
			return filterExpr{Column: col, Op: op, Value: val}, nil
		}
	}
	return filterExpr{}, fmt.Errorf("cannot parse filter %q", arg)
}

// bind turns the expression into a scan filter for the column's type
func (f filterExpr) bind(typ *vector.Type) (scan.Filter, error) {
	switch f.Op {
	case "null":
		return scan.NewIsNull(), nil
	case "notnull":
		return scan.NewIsNotNull(), nil
	}
	switch typ.Kind {
	case vector.Int64:
		v, err := strconv.ParseInt(f.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("column %q: %q is not an integer", f.Column, f.Value)
		}
		switch f.Op {
		case ">=":
			return scan.NewInt64Range(v, math.MaxInt64, false), nil
		case "<=":
			return scan.NewInt64Range(math.MinInt64, v, false), nil
		case "=":
			return scan.NewInt64Range(v, v, false), nil
		}
	case vector.Float64:
		v, err := strconv.ParseFloat(f.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("column %q: %q is not a number", f.Column, f.Value)
		}
		switch f.Op {
		case ">=":
			return scan.NewFloat64Range(v, math.Inf(1), false), nil
		case "<=":
			return scan.NewFloat64Range(math.Inf(-1), v, false), nil
		case "=":
			return scan.NewFloat64Range(v, v, false), nil
		}
	case vector.String:
		if f.Op != "=" {
			return nil, fmt.Errorf("column %q: string columns support only =", f.Column)
		}
		return scan.NewStringSet(strings.Split(f.Value, "|"), false), nil
	}
	return nil, fmt.Errorf("column %q: unsupported filter %s on %s", f.Column, f.Op, typ.Kind)
}

// filterArgs collects repeated -filter flags
type filterArgs []string

func (f *filterArgs) String() string { return strings.Join(*f, ", ") }

func (f *filterArgs) Set(v string) error {
	*f = append(*f, v)
	return nil
}
