// Package previous recognizes annotated tables produced by an earlier run,
// rebuilds a ledger table from them and merges new results into them.
package previous

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ofizant/conciliacion/internal/domain/assembler"
	"github.com/ofizant/conciliacion/internal/domain/matcher"
	"github.com/ofizant/conciliacion/internal/domain/normalizer"
	"github.com/ofizant/conciliacion/internal/domain/table"
)

// ledgerSpellings lists, per ledger column, the labels accepted when reading
// it back from a previous result, most preferred first. Columns not listed
// accept only their own label.
var ledgerSpellings = map[string][]string{
	"Nro. Comp":    {"Nro. Comp", "Nro.Comp", "Nro Comp", "NroComp"},
	"Razon Social": {"Razon Social", "Razon,Social", "RazonSocial", "Razón Social"},
}

// Spellings returns the accepted labels for a ledger column, in priority order.
func Spellings(column string) []string {
	if s, ok := ledgerSpellings[column]; ok {
		return s
	}
	return []string{column}
}

var (
	ledgerSuffix    = normalizer.Ledger.Suffix()
	statementSuffix = normalizer.Statement.Suffix()

	// Fallbacks used when a ledger cell is empty in a previous result.
	amountFallbacks = []string{normalizer.AmountNormColumn + ledgerSuffix, assembler.ColAmountNorm}
	dateFallbacks   = []string{normalizer.DateNormColumn + ledgerSuffix}
)

// IsPreviousResult reports whether t looks like an annotated table: at least
// one ledger-suffixed column, one statement-suffixed column and a status column.
func IsPreviousResult(t *table.Table) bool {
	var ledger, statement bool
	for _, c := range t.Columns() {
		ledger = ledger || strings.HasSuffix(c, ledgerSuffix)
		statement = statement || strings.HasSuffix(c, statementSuffix)
	}
	return ledger && statement && t.Has(assembler.ColStatus)
}

// PendingLedger rebuilds the ledger rows still marked "Solo en Mayor".
func PendingLedger(t *table.Table) *table.Table {
	pending := t.Filter(func(i int) bool {
		return t.Get(i, assembler.ColStatus).String() == string(matcher.StatusLedgerOnly)
	})
	return ExtractLedger(pending)
}

// ExtractLedger rebuilds a ledger-shaped table from an annotated table.
// Each ledger column is read from the first accepted spelling present with
// the ledger suffix; absent columns are null. Empty amounts and dates are
// recovered from the normalized columns, dates as day/month/year text.
func ExtractLedger(t *table.Table) *table.Table {
	cols := normalizer.LedgerSchema.Columns
	out := table.New(cols...)

	sources := make([]string, len(cols))
	for k, c := range cols {
		for _, spelling := range Spellings(c) {
			if t.Has(spelling + ledgerSuffix) {
				sources[k] = spelling + ledgerSuffix
				break
			}
		}
	}

	for i := 0; i < t.Len(); i++ {
		row := make([]table.Cell, len(cols))
		for k, src := range sources {
			if src != "" {
				row[k] = t.Get(i, src)
			}
		}
		out.AppendRow(row)
	}

	fill(out, t, normalizer.LedgerSchema.AmountColumn, amountFallbacks, amountCell)
	fill(out, t, normalizer.LedgerSchema.DateColumn, dateFallbacks, dateTextCell)
	return out
}

// fill replaces null cells of column in out with the first non-null fallback
// column value of src, converted by conv.
func fill(out, src *table.Table, column string, fallbacks []string, conv func(table.Cell) table.Cell) {
	cells := out.Column(column)
	changed := false
	for i, c := range cells {
		if !c.IsNull() {
			continue
		}
		for _, fb := range fallbacks {
			if v := conv(src.Get(i, fb)); !v.IsNull() {
				cells[i] = v
				changed = true
				break
			}
		}
	}
	if changed {
		out.SetColumn(column, cells)
	}
}

func amountCell(c table.Cell) table.Cell {
	if c.Kind() == table.KindText {
		f, err := strconv.ParseFloat(strings.TrimSpace(c.String()), 64)
		if err != nil {
			return table.Null()
		}
		return table.Number(f)
	}
	if _, ok := c.Float(); ok {
		return c
	}
	return table.Null()
}

func dateTextCell(c table.Cell) table.Cell {
	t, ok := CoerceDate(c)
	if !ok {
		return table.Null()
	}
	return table.Text(t.Format("02/01/2006"))
}

var dateLayouts = []string{
	table.DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
	"2/1/2006",
}

// CoerceDate reads a normalized-date cell as written by any export path:
// a date cell, ISO or day/month/year text, or an Excel serial number.
func CoerceDate(c table.Cell) (time.Time, bool) {
	switch c.Kind() {
	case table.KindDate:
		return c.Time()
	case table.KindNumber:
		f, _ := c.Float()
		t, err := excelize.ExcelDateToTime(f, false)
		if err != nil {
			return time.Time{}, false
		}
		return dayOf(t), true
	case table.KindText:
		s := strings.TrimSpace(c.String())
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return dayOf(t), true
			}
		}
	}
	return time.Time{}, false
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
