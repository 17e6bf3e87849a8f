// Package matcher pairs canonical ledger records with canonical statement
// records.
//
// Matching runs in fixed phases, each seeing only what earlier phases left
// unused:
//   - One-to-one: same amount and sign, dates within the tolerance window.
//     Closest date wins, then oldest ledger date, then ledger row order.
//   - Value tolerance (only when AmountTolerance > 0): same sign, amounts
//     within AmountTolerance, dates within the window.
//   - Grouping (only when MaxGroupSize > 1 and the direction is
//     LedgerToStatement): several ledger records whose amounts add up to one
//     statement amount.
//
// Example usage:
//
//	m := matcher.NewMatcher(matcher.DefaultConfig(), logger)
//	result, err := m.Match(ledger, statement)
//	for _, p := range result.Pairs {
//		fmt.Println(p.LedgerRowID, p.StatementRowID, p.Status)
//	}
package matcher

import (
	"log/slog"

	"github.com/ofizant/conciliacion/internal/domain/normalizer"
)

// Matcher matches ledger records with statement records
type Matcher struct {
	config Config
	logger *slog.Logger
}

// NewMatcher creates a new matcher with the given config.
// A nil logger falls back to slog.Default().
func NewMatcher(config Config, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{
		config: config,
		logger: logger,
	}
}

// Config returns the matcher configuration.
func (m *Matcher) Config() Config { return m.config }

// Match runs every phase over the two record sets. Records must carry dense
// row ids as produced by the normalizer.
func (m *Matcher) Match(ledger, statement []normalizer.Record) (*Result, error) {
	if err := m.config.Validate(); err != nil {
		return nil, err
	}

	result := &Result{
		Pairs:         make([]Pair, 0, len(statement)),
		UsedLedger:    make(map[int]bool, len(ledger)),
		UsedStatement: make(map[int]bool, len(statement)),
	}

	m.matchOneToOne(ledger, statement, result)
	m.logger.Debug("one-to-one phase complete",
		"exact", result.Stats.Exact,
		"date_tolerance", result.Stats.DateTolerance)

	if m.config.AmountTolerance > 0 {
		m.matchAmountTolerance(ledger, statement, result)
		m.logger.Debug("value tolerance phase complete",
			"matched", result.Stats.ValueTolerance,
			"amount_tolerance", m.config.AmountTolerance)
	}

	switch {
	case m.config.MaxGroupSize <= 1:
	case m.config.Direction == StatementToLedger:
		m.logger.Warn("grouping is only implemented for ledger into statement; skipping",
			"direction", string(m.config.Direction))
	default:
		m.matchGroups(ledger, statement, result)
		m.logger.Debug("grouping phase complete",
			"groups", result.Stats.Groups,
			"ledger_rows", result.Stats.GroupedLedger,
			"search_limit_hits", result.Stats.SearchLimitHits)
	}

	return result, nil
}

func (r *Result) add(p Pair) {
	r.Pairs = append(r.Pairs, p)
	r.UsedLedger[p.LedgerRowID] = true
	r.UsedStatement[p.StatementRowID] = true
}
