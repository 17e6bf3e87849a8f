package matcher

import (
	"fmt"
	"sort"

	"github.com/ofizant/conciliacion/internal/domain/normalizer"
)

// matchGroups looks, for every unused statement record in row order, for a
// set of unused ledger records that add up to its amount.
func (m *Matcher) matchGroups(ledger, statement []normalizer.Record, result *Result) {
	rule := GroupRule(m.config.MaxGroupSize)

	for _, s := range statement {
		if result.UsedStatement[s.RowID] {
			continue
		}

		pool := m.candidatePool(ledger, s, result)
		if len(pool) == 0 {
			continue
		}

		found := FindSubset(pool, s.Amount, m.config.MaxGroupSize, MaxSearchBranches)
		if found.LimitReached {
			result.Stats.SearchLimitHits++
			m.logger.Warn("grouping search hit branch limit",
				"statement_row", s.RowID,
				"candidates", len(pool),
				"found", found.Found)
		}
		if !found.Found {
			continue
		}

		result.Stats.Groups++
		groupID := fmt.Sprintf("G%d", result.Stats.Groups)
		for _, idx := range found.Indices {
			c := pool[idx]
			result.Stats.GroupedLedger++
			result.add(Pair{
				LedgerRowID:    c.RowID,
				StatementRowID: s.RowID,
				Status:         StatusGrouped,
				Rule:           rule,
				DayDiff:        c.DayDiff,
				GroupID:        groupID,
			})
		}
	}
}

// candidatePool returns the unused ledger records with the statement's sign
// inside the date window, nearest date first and larger amounts first on
// equal distance, capped at MaxCandidates.
func (m *Matcher) candidatePool(ledger []normalizer.Record, s normalizer.Record, result *Result) []Candidate {
	var pool []Candidate
	for _, l := range ledger {
		if result.UsedLedger[l.RowID] || l.Sign != s.Sign {
			continue
		}
		diff := normalizer.DayDiff(l.Date, s.Date)
		if diff > m.config.DateTolerance {
			continue
		}
		pool = append(pool, Candidate{RowID: l.RowID, Amount: l.Amount, DayDiff: diff, Date: l.Date})
	}

	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].DayDiff != pool[j].DayDiff {
			return pool[i].DayDiff < pool[j].DayDiff
		}
		return pool[i].Amount > pool[j].Amount
	})

	if len(pool) > MaxCandidates {
		pool = pool[:MaxCandidates]
	}
	return pool
}
