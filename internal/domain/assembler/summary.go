package assembler

import (
	"sort"
	"strings"

	"github.com/ofizant/conciliacion/internal/domain/matcher"
	"github.com/ofizant/conciliacion/internal/domain/table"
)

// Summary columns.
const (
	ColSummaryStatus = "estado"
	ColSummaryCount  = "cantidad"
)

// StatusCount is one line of the summary.
type StatusCount struct {
	Status string `json:"estado"`
	Count  int    `json:"cantidad"`
}

// Summary counts annotated rows per status, largest count first.
type Summary []StatusCount

// Summarize counts the rows of an annotated table per status. Rows with no
// status are ignored. Equal counts keep the order in which the status first
// appears.
func Summarize(detail *table.Table) Summary {
	var order []string
	counts := make(map[string]int)
	for _, c := range detail.Column(ColStatus) {
		if c.IsNull() {
			continue
		}
		s := c.String()
		if _, ok := counts[s]; !ok {
			order = append(order, s)
		}
		counts[s]++
	}

	out := make(Summary, len(order))
	for i, s := range order {
		out[i] = StatusCount{Status: s, Count: counts[s]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// Count returns the count for a status, or zero.
func (s Summary) Count(status matcher.Status) int {
	for _, sc := range s {
		if sc.Status == string(status) {
			return sc.Count
		}
	}
	return 0
}

// Table renders the summary as an (estado, cantidad) table.
func (s Summary) Table() *table.Table {
	out := table.New(ColSummaryStatus, ColSummaryCount)
	for _, sc := range s {
		out.AppendRow([]table.Cell{table.Text(sc.Status), table.Number(float64(sc.Count))})
	}
	return out
}

// Metrics are the headline numbers shown after a run.
type Metrics struct {
	Total         int `json:"total"`
	Matched       int `json:"conciliados"`
	LedgerOnly    int `json:"solo_mayor"`
	StatementOnly int `json:"solo_banco"`
}

// ComputeMetrics derives the headline numbers from an annotated table.
func ComputeMetrics(detail *table.Table) Metrics {
	m := Metrics{Total: detail.Len()}
	for _, c := range detail.Column(ColStatus) {
		s := c.String()
		switch {
		case strings.Contains(s, "Conciliado"):
			m.Matched++
		case s == string(matcher.StatusLedgerOnly):
			m.LedgerOnly++
		case s == string(matcher.StatusStatementOnly):
			m.StatementOnly++
		}
	}
	return m
}
