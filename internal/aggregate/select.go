package aggregate

import (
	"sort"

	"github.com/sells-group/bookvalue/internal/model"
)

// SelectCount returns how many of n records are judged: the top pct share,
// at least one, capped by maxJudged when it is positive.
func SelectCount(n int, pct float64, maxJudged int) int {
	if n == 0 {
		return 0
	}
	k := int(float64(n) * pct)
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	if maxJudged > 0 && k > maxJudged {
		k = maxJudged
	}
	return k
}

// SelectTop returns the indices of the records to judge, ordered by
// structured final score descending then record ID.
func SelectTop(records []model.MatchedBookRecord, scores map[string]model.StructuredScore, pct float64, maxJudged int) []int {
	idx := make([]int, len(records))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ra, rb := &records[idx[a]], &records[idx[b]]
		sa, sb := scores[ra.ID].FinalScore, scores[rb.ID].FinalScore
		if sa != sb {
			return sa > sb
		}
		return ra.ID < rb.ID
	})
	return idx[:SelectCount(len(records), pct, maxJudged)]
}
