package matcher

import (
	"math"

	"github.com/ofizant/conciliacion/internal/domain/normalizer"
)

type amountKey struct {
	amount float64
	sign   int
}

// matchOneToOne pairs each statement record, in row order, with the closest
// unused ledger record carrying the same amount and sign.
func (m *Matcher) matchOneToOne(ledger, statement []normalizer.Record, result *Result) {
	byAmount := make(map[amountKey][]int, len(ledger))
	for i, l := range ledger {
		k := amountKey{l.Amount, l.Sign}
		byAmount[k] = append(byAmount[k], i)
	}

	for _, s := range statement {
		best, bestDiff := -1, 0
		for _, li := range byAmount[amountKey{s.Amount, s.Sign}] {
			l := ledger[li]
			if result.UsedLedger[l.RowID] {
				continue
			}
			diff := normalizer.DayDiff(l.Date, s.Date)
			if diff > m.config.DateTolerance {
				continue
			}
			if best < 0 || diff < bestDiff || (diff == bestDiff && l.Date.Before(ledger[best].Date)) {
				best, bestDiff = li, diff
			}
		}
		if best < 0 {
			continue
		}

		status := StatusExact
		if bestDiff > 0 {
			status = StatusDateTolerance
			result.Stats.DateTolerance++
		} else {
			result.Stats.Exact++
		}
		result.add(Pair{
			LedgerRowID:    ledger[best].RowID,
			StatementRowID: s.RowID,
			Status:         status,
			Rule:           RuleOneToOne,
			DayDiff:        bestDiff,
		})
	}
}

// matchAmountTolerance pairs the still-unused statement records with unused
// ledger records whose amount differs by at most AmountTolerance.
func (m *Matcher) matchAmountTolerance(ledger, statement []normalizer.Record, result *Result) {
	for _, s := range statement {
		if result.UsedStatement[s.RowID] {
			continue
		}

		best, bestDiff, bestAmountDiff := -1, 0, 0.0
		for li, l := range ledger {
			if result.UsedLedger[l.RowID] || l.Sign != s.Sign {
				continue
			}
			amountDiff := math.Abs(l.Amount - s.Amount)
			if amountDiff > m.config.AmountTolerance+SumEpsilon {
				continue
			}
			diff := normalizer.DayDiff(l.Date, s.Date)
			if diff > m.config.DateTolerance {
				continue
			}
			if best < 0 || closer(diff, amountDiff, l, bestDiff, bestAmountDiff, ledger[best]) {
				best, bestDiff, bestAmountDiff = li, diff, amountDiff
			}
		}
		if best < 0 {
			continue
		}

		result.Stats.ValueTolerance++
		result.add(Pair{
			LedgerRowID:    ledger[best].RowID,
			StatementRowID: s.RowID,
			Status:         StatusValueTolerance,
			Rule:           RuleOneToOneAmount,
			DayDiff:        bestDiff,
		})
	}
}

// closer orders value-tolerance candidates by day difference, then amount
// difference, then ledger date. Equal candidates keep row order.
func closer(diff int, amountDiff float64, l normalizer.Record, bestDiff int, bestAmountDiff float64, best normalizer.Record) bool {
	if diff != bestDiff {
		return diff < bestDiff
	}
	if amountDiff != bestAmountDiff {
		return amountDiff < bestAmountDiff
	}
	return l.Date.Before(best.Date)
}
