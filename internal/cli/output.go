package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ofizant/conciliacion/internal/application/reconcile"
	"github.com/ofizant/conciliacion/internal/domain/assembler"
	"github.com/ofizant/conciliacion/internal/domain/normalizer"
	"github.com/ofizant/conciliacion/internal/domain/table"
	"github.com/ofizant/conciliacion/internal/infrastructure/storage"
)

// StatusTotal is the row count and amount sum of one status.
type StatusTotal struct {
	Status string
	Count  int
	Amount decimal.Decimal
}

// AmountTotals sums the normalized amount of each status in summary order.
// Ledger amounts are used when present, statement amounts otherwise. Rows
// merged from an exported result carry the single export amount column.
func AmountTotals(detail *table.Table, summary assembler.Summary) []StatusTotal {
	amountCols := []string{
		normalizer.AmountNormColumn + normalizer.Ledger.Suffix(),
		normalizer.AmountNormColumn + normalizer.Statement.Suffix(),
		assembler.ColAmountNorm,
	}

	sums := make(map[string]decimal.Decimal)
	for i := 0; i < detail.Len(); i++ {
		status := detail.Get(i, assembler.ColStatus).String()
		for _, col := range amountCols {
			if f, ok := detail.Get(i, col).Float(); ok {
				sums[status] = sums[status].Add(decimal.NewFromFloat(f))
				break
			}
		}
	}

	out := make([]StatusTotal, 0, len(summary))
	for _, sc := range summary {
		out = append(out, StatusTotal{Status: sc.Status, Count: sc.Count, Amount: sums[sc.Status]})
	}
	return out
}

// PrintSummary prints the outcome of a run
func PrintSummary(w io.Writer, out *reconcile.Output) {
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, st := range AmountTotals(out.Detail, out.Summary) {
		fmt.Fprintf(w, "%-36s %6d %16s\n", st.Status, st.Count, st.Amount.StringFixed(2))
	}
	fmt.Fprintln(w, strings.Repeat("-", 60))

	m := out.Metrics
	fmt.Fprintf(w, "Total=%d Conciliados=%d Solo Mayor=%d Solo Banco=%d\n",
		m.Total, m.Matched, m.LedgerOnly, m.StatementOnly)
	if out.Stats.Groups > 0 {
		fmt.Fprintf(w, "Grupos=%d (%d asientos)\n", out.Stats.Groups, out.Stats.GroupedLedger)
	}
	if out.DroppedLedger > 0 || out.DroppedStatement > 0 {
		fmt.Fprintf(w, "Filas descartadas: Mayor=%d Banco=%d\n", out.DroppedLedger, out.DroppedStatement)
	}
	if out.FromPrevious {
		fmt.Fprintln(w, "Combinado con resultado previo.")
	}
	if out.RunID != "" {
		fmt.Fprintf(w, "Run: %s\n", out.RunID)
	}
}

// PrintRuns prints stored runs, newest first
func PrintRuns(w io.Writer, runs []*storage.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs stored.")
		return
	}
	fmt.Fprintf(w, "%-36s  %-20s  %5s  %5s  %s\n", "ID", "CREATED", "ROWS", "TOL", "FILES")
	for _, r := range runs {
		files := strings.TrimSpace(r.LedgerName + " " + r.StatementName)
		if r.FromPrevious {
			files += " (previo)"
		}
		fmt.Fprintf(w, "%-36s  %-20s  %5d  %5d  %s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.OutputRows, r.DateTolerance, files)
	}
}
