package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cand(amount float64, diff, d int) Candidate {
	return Candidate{Amount: amount, DayDiff: diff, Date: day(d)}
}

func TestFindSubset(t *testing.T) {
	t.Run("fewer rows wins on equal day difference", func(t *testing.T) {
		cands := []Candidate{cand(500, 0, 1), cand(300, 0, 1), cand(200, 0, 1), cand(500, 0, 1)}

		res := FindSubset(cands, 1000, 4, MaxSearchBranches)

		require.True(t, res.Found)
		assert.Equal(t, []int{0, 3}, res.Indices)
		assert.False(t, res.LimitReached)
	})

	t.Run("oldest date breaks remaining ties", func(t *testing.T) {
		cands := []Candidate{cand(600, 0, 5), cand(400, 0, 5), cand(600, 0, 1), cand(400, 0, 5)}

		res := FindSubset(cands, 1000, 4, MaxSearchBranches)

		require.True(t, res.Found)
		assert.Equal(t, []int{1, 2}, res.Indices)
	})

	t.Run("first found wins full ties", func(t *testing.T) {
		cands := []Candidate{cand(600, 0, 1), cand(500, 0, 1), cand(500, 0, 1), cand(400, 0, 1)}

		res := FindSubset(cands, 1000, 4, MaxSearchBranches)

		require.True(t, res.Found)
		assert.Equal(t, []int{0, 3}, res.Indices)
	})

	t.Run("no subset", func(t *testing.T) {
		cands := []Candidate{cand(300, 0, 1), cand(300, 0, 1)}

		res := FindSubset(cands, 1000, 4, MaxSearchBranches)

		assert.False(t, res.Found)
		assert.Nil(t, res.Indices)
	})

	t.Run("a matching node is not extended", func(t *testing.T) {
		cands := []Candidate{cand(0, 0, 1), cand(0, 0, 1)}

		res := FindSubset(cands, 0, 4, MaxSearchBranches)

		require.True(t, res.Found)
		assert.Equal(t, []int{0}, res.Indices)
		// root, {0}, {1}
		assert.Equal(t, 3, res.Branches)
	})

	t.Run("stops at the branch limit", func(t *testing.T) {
		cands := make([]Candidate, MaxCandidates)
		for i := range cands {
			cands[i] = cand(1, 0, 1)
		}

		res := FindSubset(cands, 1000, 10, MaxSearchBranches)

		assert.True(t, res.LimitReached)
		assert.False(t, res.Found)
		assert.Equal(t, MaxSearchBranches+1, res.Branches)
	})

	t.Run("keeps the best subset seen before the limit", func(t *testing.T) {
		cands := make([]Candidate, MaxCandidates)
		cands[0] = cand(999, 0, 1)
		for i := 1; i < len(cands); i++ {
			cands[i] = cand(1, 0, 1)
		}

		res := FindSubset(cands, 1000, 10, 100)

		assert.True(t, res.LimitReached)
		require.True(t, res.Found)
		assert.Equal(t, []int{0, 1}, res.Indices)
	})
}
