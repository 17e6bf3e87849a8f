// Package table provides the in-memory tabular model shared by the
// reconciliation engine and its readers and writers.
//
// A Table is an ordered list of column labels and rows of typed cells.
// Labels may repeat when a table is first built from a file; DedupColumns
// collapses them (first occurrence wins) and is applied once, where files
// enter the system.
package table

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Table is an ordered-column table of cells.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Cell
}

// New creates an empty table with the given columns.
func New(columns ...string) *Table {
	t := &Table{columns: append([]string(nil), columns...)}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.columns))
	for i, c := range t.columns {
		if _, ok := t.index[c]; !ok {
			t.index[c] = i
		}
	}
}

// Columns returns a copy of the column labels.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Has reports whether the table has a column with the given label.
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Row returns the i-th row. The returned slice must not be modified.
func (t *Table) Row(i int) []Cell { return t.rows[i] }

// Get returns the cell at row i for the named column, or null if the column is absent.
func (t *Table) Get(i int, column string) Cell {
	j, ok := t.index[column]
	if !ok {
		return Null()
	}
	return t.rows[i][j]
}

// Column returns the cells of the named column, or nil if it is absent.
func (t *Table) Column(column string) []Cell {
	j, ok := t.index[column]
	if !ok {
		return nil
	}
	out := make([]Cell, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[j]
	}
	return out
}

// AppendRow adds a row, padding with nulls or truncating to the table width.
func (t *Table) AppendRow(row []Cell) {
	r := make([]Cell, len(t.columns))
	copy(r, row)
	t.rows = append(t.rows, r)
}

// AppendValues adds a row from a column→cell map. Unknown columns are ignored.
func (t *Table) AppendValues(values map[string]Cell) {
	r := make([]Cell, len(t.columns))
	for col, v := range values {
		if j, ok := t.index[col]; ok {
			r[j] = v
		}
	}
	t.rows = append(t.rows, r)
}

// SetColumn replaces the named column, or appends it when absent.
// cells must have one entry per row.
func (t *Table) SetColumn(column string, cells []Cell) {
	j, ok := t.index[column]
	if !ok {
		t.columns = append(t.columns, column)
		t.index[column] = len(t.columns) - 1
		for i := range t.rows {
			t.rows[i] = append(t.rows[i], Null())
		}
		j = len(t.columns) - 1
	}
	for i := range t.rows {
		if i < len(cells) {
			t.rows[i][j] = cells[i]
		}
	}
}

// Rename changes a column label in place. It is a no-op when from is absent
// or when to already exists.
func (t *Table) Rename(from, to string) {
	j, ok := t.index[from]
	if !ok || t.Has(to) {
		return
	}
	t.columns[j] = to
	t.reindex()
}

// Select returns a new table with exactly the given columns, in order.
// Columns missing from t are filled with nulls.
func (t *Table) Select(columns ...string) *Table {
	out := New(columns...)
	for _, r := range t.rows {
		row := make([]Cell, len(columns))
		for k, c := range columns {
			if j, ok := t.index[c]; ok {
				row[k] = r[j]
			}
		}
		out.rows = append(out.rows, row)
	}
	return out
}

// Filter returns a new table holding the rows for which keep returns true.
func (t *Table) Filter(keep func(i int) bool) *Table {
	out := New(t.columns...)
	for i, r := range t.rows {
		if keep(i) {
			out.rows = append(out.rows, r)
		}
	}
	return out
}

// DedupColumns returns a table where every repeated column label keeps only
// its first occurrence.
func (t *Table) DedupColumns() *Table {
	keep := make([]int, 0, len(t.columns))
	seen := make(map[string]bool, len(t.columns))
	for j, c := range t.columns {
		if seen[c] {
			continue
		}
		seen[c] = true
		keep = append(keep, j)
	}
	if len(keep) == len(t.columns) {
		return t
	}

	cols := make([]string, len(keep))
	for k, j := range keep {
		cols[k] = t.columns[j]
	}
	out := New(cols...)
	for _, r := range t.rows {
		row := make([]Cell, len(keep))
		for k, j := range keep {
			row[k] = r[j]
		}
		out.rows = append(out.rows, row)
	}
	return out
}

// Concat stacks tables vertically over the union of their columns.
// Column order is the order of first appearance; missing cells are null.
func Concat(tables ...*Table) *Table {
	var cols []string
	seen := make(map[string]bool)
	for _, t := range tables {
		for _, c := range t.columns {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}
	out := New(cols...)
	for _, t := range tables {
		out.rows = append(out.rows, t.Select(cols...).rows...)
	}
	return out
}

// DropDuplicates returns a table without exact-duplicate rows, keeping the
// first occurrence. Null cells compare equal to each other.
func (t *Table) DropDuplicates() *Table {
	out := New(t.columns...)
	seen := make(map[string]bool, len(t.rows))
	var b strings.Builder
	for _, r := range t.rows {
		b.Reset()
		for _, c := range r {
			b.WriteString(c.key())
			b.WriteByte('|')
		}
		k := b.String()
		if seen[k] {
			continue
		}
		seen[k] = true
		out.rows = append(out.rows, r)
	}
	return out
}

// InferTypes converts every column whose non-null cells all hold plain
// numeric text into a numeric column. Columns with no values are left alone.
func (t *Table) InferTypes() {
	for j := range t.columns {
		parsed := make([]Cell, len(t.rows))
		numeric, seen := true, false
		for i, r := range t.rows {
			c := r[j]
			switch c.kind {
			case KindNull:
				continue
			case KindNumber:
				parsed[i] = c
				seen = true
				continue
			case KindText:
				f, ok := parsePlainNumber(c.text)
				if !ok {
					numeric = false
				}
				parsed[i] = Number(f)
				seen = true
			default:
				numeric = false
			}
			if !numeric {
				break
			}
		}
		if !numeric || !seen {
			continue
		}
		for i := range t.rows {
			t.rows[i][j] = parsed[i]
		}
	}
}

// plainNumber is a signed decimal with optional fraction and exponent. Hex
// floats, underscores and Inf/NaN spellings are text.
var plainNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

func parsePlainNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !plainNumber.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
