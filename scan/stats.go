package scan

// TableStats is a StatsContext backed by in-memory per-column statistics
type TableStats struct {
	Groups  int
	Columns map[string][]ColumnStats
}

// NewTableStats creates an empty stats context for the given row group count
func NewTableStats(groups int) *TableStats {
	return &TableStats{Groups: groups, Columns: make(map[string][]ColumnStats)}
}

// SetColumn registers per-row-group statistics for a column
func (t *TableStats) SetColumn(field string, stats []ColumnStats) {
	t.Columns[field] = stats
}

// RowGroupCount returns the number of row groups
func (t *TableStats) RowGroupCount() int { return t.Groups }

// ColumnStats returns the statistics of a column within one row group
func (t *TableStats) ColumnStats(field string, rowGroup int) (ColumnStats, bool) {
	stats, ok := t.Columns[field]
	if !ok || rowGroup < 0 || rowGroup >= len(stats) {
		return ColumnStats{}, false
	}
	return stats[rowGroup], true
}
