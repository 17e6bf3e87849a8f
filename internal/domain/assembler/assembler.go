// Package assembler builds the annotated reconciliation table and its status
// summary from matcher output.
package assembler

import (
	"github.com/ofizant/conciliacion/internal/domain/matcher"
	"github.com/ofizant/conciliacion/internal/domain/normalizer"
	"github.com/ofizant/conciliacion/internal/domain/table"
)

// Metadata columns appended after the ledger and statement columns.
const (
	ColStatus  = "estado"
	ColRule    = "regla"
	ColDayDiff = "diferencia_dias"
	ColGroupID = "grupo_id"
)

// Columns returns the fixed column order of an annotated table.
func Columns() []string {
	cols := normalizer.LedgerSchema.OutputColumns()
	cols = append(cols, normalizer.StatementSchema.OutputColumns()...)
	return append(cols, ColStatus, ColRule, ColDayDiff, ColGroupID)
}

// Assemble joins the pairs with their ledger and statement fields, then
// appends the unused ledger records ("Solo en Mayor") and the unused
// statement records ("Solo en Banco"), each in row order.
func Assemble(ledger, statement *normalizer.Normalized, result *matcher.Result) *table.Table {
	out := table.New(Columns()...)
	ledgerWidth := len(ledger.Schema.Columns) + 2
	statementWidth := len(statement.Schema.Columns) + 2

	for _, p := range result.Pairs {
		row := make([]table.Cell, 0, len(Columns()))
		row = append(row, sideCells(ledger.Records[p.LedgerRowID])...)
		row = append(row, sideCells(statement.Records[p.StatementRowID])...)
		row = append(row, metaCells(p.Status, p.Rule, &p.DayDiff, p.GroupID)...)
		out.AppendRow(row)
	}

	for _, rec := range ledger.Records {
		if result.UsedLedger[rec.RowID] {
			continue
		}
		row := make([]table.Cell, 0, len(Columns()))
		row = append(row, sideCells(rec)...)
		row = append(row, make([]table.Cell, statementWidth)...)
		row = append(row, metaCells(matcher.StatusLedgerOnly, "", nil, "")...)
		out.AppendRow(row)
	}

	for _, rec := range statement.Records {
		if result.UsedStatement[rec.RowID] {
			continue
		}
		row := make([]table.Cell, 0, len(Columns()))
		row = append(row, make([]table.Cell, ledgerWidth)...)
		row = append(row, sideCells(rec)...)
		row = append(row, metaCells(matcher.StatusStatementOnly, "", nil, "")...)
		out.AppendRow(row)
	}

	return out
}

func sideCells(rec normalizer.Record) []table.Cell {
	cells := make([]table.Cell, 0, len(rec.Fields)+2)
	cells = append(cells, rec.Fields...)
	return append(cells, table.Date(rec.Date), table.Number(rec.Amount))
}

func metaCells(status matcher.Status, rule string, dayDiff *int, groupID string) []table.Cell {
	cells := []table.Cell{table.Text(string(status)), table.Null(), table.Null(), table.Null()}
	if rule != "" {
		cells[1] = table.Text(rule)
	}
	if dayDiff != nil {
		cells[2] = table.Number(float64(*dayDiff))
	}
	if groupID != "" {
		cells[3] = table.Text(groupID)
	}
	return cells
}
