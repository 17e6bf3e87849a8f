package matcher

import (
	"math"
	"time"

	"github.com/ofizant/conciliacion/internal/domain/normalizer"
)

// Candidate is one ledger entry offered to the subset search.
type Candidate struct {
	RowID   int
	Amount  float64
	DayDiff int
	Date    time.Time
}

// SubsetResult is the outcome of FindSubset.
type SubsetResult struct {
	// Indices into the candidate slice, in ascending order. Nil when not Found.
	Indices []int
	Found   bool
	// Branches is the number of search nodes entered, including the root.
	Branches int
	// LimitReached is set when the branch budget ran out before the search
	// space was exhausted. Indices then holds the best subset seen so far.
	LimitReached bool
}

type subsetScore struct {
	maxDiff int
	size    int
	oldest  time.Time
}

func (a subsetScore) less(b subsetScore) bool {
	if a.maxDiff != b.maxDiff {
		return a.maxDiff < b.maxDiff
	}
	if a.size != b.size {
		return a.size < b.size
	}
	return a.oldest.Before(b.oldest)
}

func scoreOf(cands []Candidate, indices []int) subsetScore {
	s := subsetScore{size: len(indices)}
	for k, i := range indices {
		if cands[i].DayDiff > s.maxDiff {
			s.maxDiff = cands[i].DayDiff
		}
		if k == 0 || cands[i].Date.Before(s.oldest) {
			s.oldest = cands[i].Date
		}
	}
	return s
}

// FindSubset searches cands for a subset of at most maxItems entries whose
// amounts add up to target within SumEpsilon. All candidates are expected to
// share the sign of target.
//
// The search is a depth-first walk over index-ordered combinations. A node is
// not extended once its sum matches, once it holds more than maxItems
// entries, or once its sum has moved past target. At most branchLimit nodes
// beyond the root are entered.
//
// Among matching subsets the preferred one has the smallest maximum day
// difference, then the fewest entries, then the oldest earliest date. The
// first subset found wins ties.
func FindSubset(cands []Candidate, target float64, maxItems, branchLimit int) SubsetResult {
	type frame struct {
		chosen []int
		sum    float64
		next   int
	}

	var (
		res  SubsetResult
		best subsetScore
	)
	sign := normalizer.Sign(target)

	res.Branches = 1
	stack := []frame{{}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next >= len(cands) {
			stack = stack[:len(stack)-1]
			continue
		}
		if res.Branches > branchLimit {
			res.LimitReached = true
			break
		}

		i := top.next
		top.next++
		res.Branches++

		chosen := append(top.chosen[:len(top.chosen):len(top.chosen)], i)
		sum := top.sum + cands[i].Amount

		if len(chosen) > maxItems {
			continue
		}
		if math.Abs(sum-target) < SumEpsilon {
			if score := scoreOf(cands, chosen); !res.Found || score.less(best) {
				best = score
				res.Indices = chosen
				res.Found = true
			}
			continue
		}
		if sign >= 0 && sum > target+SumEpsilon {
			continue
		}
		if sign < 0 && sum < target-SumEpsilon {
			continue
		}

		stack = append(stack, frame{chosen: chosen, sum: sum, next: i + 1})
	}

	return res
}
