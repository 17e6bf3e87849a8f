package table

import "golang.org/x/text/unicode/norm"

// Ingest prepares a table that has just entered the system: header labels are
// converted to Unicode NFC (so a decomposed "Código" matches the composed one)
// and repeated labels collapse to their first occurrence.
// Applying Ingest more than once has no further effect.
func Ingest(t *Table) *Table {
	cols := make([]string, len(t.columns))
	changed := false
	for j, c := range t.columns {
		cols[j] = c
		if !norm.NFC.IsNormalString(c) {
			cols[j] = norm.NFC.String(c)
			changed = true
		}
	}
	if changed {
		t = &Table{columns: cols, rows: t.rows}
		t.reindex()
	}
	return t.DedupColumns()
}
