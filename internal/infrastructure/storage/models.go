package storage

import (
	"time"

	"github.com/ofizant/conciliacion/internal/domain/assembler"
	"github.com/ofizant/conciliacion/internal/domain/table"
)

// DefaultListLimit caps ListRuns when no limit is given.
const DefaultListLimit = 50

// Run is the stored header of one reconciliation run.
type Run struct {
	ID              string            `json:"id"`
	CreatedAt       time.Time         `json:"created_at"`
	LedgerName      string            `json:"ledger_name,omitempty"`
	StatementName   string            `json:"statement_name,omitempty"`
	DateTolerance   int               `json:"date_tolerance"`
	MaxGroupSize    int               `json:"max_group_size"`
	Direction       string            `json:"direction"`
	AmountTolerance float64           `json:"amount_tolerance"`
	LedgerRows      int               `json:"ledger_rows"`
	StatementRows   int               `json:"statement_rows"`
	OutputRows      int               `json:"output_rows"`
	FromPrevious    bool              `json:"from_previous"`
	Columns         []string          `json:"columns"`
	Summary         assembler.Summary `json:"summary"`
}

// RunRow is one stored row of a run's annotated table. Cells follow the
// run's Columns order.
type RunRow struct {
	Position int          `json:"position"`
	Status   string       `json:"estado"`
	GroupID  string       `json:"grupo_id,omitempty"`
	Cells    []table.Cell `json:"cells"`
}

// Record pairs each cell with its column name.
func (r RunRow) Record(columns []string) map[string]table.Cell {
	out := make(map[string]table.Cell, len(columns))
	for i, col := range columns {
		if i < len(r.Cells) {
			out[col] = r.Cells[i]
		} else {
			out[col] = table.Null()
		}
	}
	return out
}

// rowsFromTable splits an annotated table into storable rows.
func rowsFromTable(detail *table.Table) []RunRow {
	rows := make([]RunRow, detail.Len())
	for i := range rows {
		rows[i] = RunRow{
			Position: i,
			Cells:    detail.Row(i),
		}
		if detail.Has(assembler.ColStatus) {
			rows[i].Status = cellText(detail.Get(i, assembler.ColStatus))
		}
		if detail.Has(assembler.ColGroupID) {
			rows[i].GroupID = cellText(detail.Get(i, assembler.ColGroupID))
		}
	}
	return rows
}

// buildTable is the inverse of rowsFromTable.
func buildTable(columns []string, rows []RunRow) *table.Table {
	t := table.New(columns...)
	for _, r := range rows {
		t.AppendRow(r.Cells)
	}
	return t
}

func cellText(c table.Cell) string {
	if c.IsNull() {
		return ""
	}
	return c.String()
}
