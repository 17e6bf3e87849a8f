package previous

import (
	"strings"

	"github.com/ofizant/conciliacion/internal/domain/normalizer"
	"github.com/ofizant/conciliacion/internal/domain/table"
)

// Merge appends the rows of next to prev over the union of their columns and
// removes exact-duplicate rows, keeping the first. Repeated column labels in
// either input collapse to their first occurrence beforehand, and normalized
// date columns are coerced to dates so values read back from a file compare
// equal to freshly computed ones.
func Merge(prev, next *table.Table) *table.Table {
	prev = coerceDates(prev.DedupColumns())
	next = coerceDates(next.DedupColumns())
	return table.Concat(prev, next).DropDuplicates()
}

func coerceDates(t *table.Table) *table.Table {
	out := t.Select(t.Columns()...)
	for _, col := range out.Columns() {
		if !strings.HasPrefix(col, normalizer.DateNormColumn) {
			continue
		}
		cells := out.Column(col)
		for i, c := range cells {
			if d, ok := CoerceDate(c); ok {
				cells[i] = table.Date(d)
			}
		}
		out.SetColumn(col, cells)
	}
	return out
}
