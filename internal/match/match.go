// Package match reconciles supply records with demand records.
package match

import (
	"math"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/bookvalue/internal/model"
)

// DefaultThreshold is the minimum title+author similarity for a fallback match.
const DefaultThreshold = 0.85

// Result is the outcome of matching one batch.
type Result struct {
	Pairs      []model.MatchedBookRecord
	SupplyOnly []model.MatchedBookRecord
	DemandOnly []model.MatchedBookRecord
}

// All returns pairs followed by the unmatched records of both sides.
func (r Result) All() []model.MatchedBookRecord {
	out := make([]model.MatchedBookRecord, 0, len(r.Pairs)+len(r.SupplyOnly)+len(r.DemandOnly))
	out = append(out, r.Pairs...)
	out = append(out, r.SupplyOnly...)
	out = append(out, r.DemandOnly...)
	return out
}

// Matcher pairs records 1:1. Matching is deterministic for identical input.
type Matcher struct {
	threshold float64
}

// New creates a Matcher. A non-positive threshold selects DefaultThreshold.
func New(threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{threshold: threshold}
}

// Threshold returns the similarity threshold in use.
func (m *Matcher) Threshold() float64 { return m.threshold }

// Match resolves exact ISBN matches first, then falls back to normalized
// title+author similarity for the supply records still unmatched.
func (m *Matcher) Match(supply, demand []model.NormalizedBookRecord) Result {
	demandUsed := make([]bool, len(demand))
	supplyMatch := make([]int, len(supply))
	similarity := make([]float64, len(supply))
	method := make([]model.MatchMethod, len(supply))
	for i := range supplyMatch {
		supplyMatch[i] = -1
	}

	// ISBN pass.
	byISBN := make(map[string][]int)
	for j := range demand {
		if demand[j].ISBN13 != nil {
			byISBN[*demand[j].ISBN13] = append(byISBN[*demand[j].ISBN13], j)
		}
	}
	for i := range supply {
		if supply[i].ISBN13 == nil {
			continue
		}
		for _, j := range byISBN[*supply[i].ISBN13] {
			if !demandUsed[j] {
				demandUsed[j] = true
				supplyMatch[i] = j
				similarity[i] = 1
				method[i] = model.MatchISBN
				break
			}
		}
	}

	// Similarity fallback.
	demandKeys := make([]string, len(demand))
	for j := range demand {
		demandKeys[j] = Key(demand[j].Title, demand[j].Author)
	}
	for i := range supply {
		if supplyMatch[i] >= 0 {
			continue
		}
		key := Key(supply[i].Title, supply[i].Author)
		if key == "" {
			continue
		}
		best, bestScore := -1, 0.0
		for j := range demand {
			if demandUsed[j] || demandKeys[j] == "" {
				continue
			}
			score := Similarity(key, demandKeys[j])
			if score < m.threshold {
				continue
			}
			if best < 0 || better(score, demand[j], bestScore, demand[best]) {
				best, bestScore = j, score
			}
		}
		if best >= 0 {
			demandUsed[best] = true
			supplyMatch[i] = best
			similarity[i] = bestScore
			method[i] = model.MatchSimilarity
		}
	}

	var res Result
	for i := range supply {
		s := supply[i]
		if j := supplyMatch[i]; j >= 0 {
			d := demand[j]
			res.Pairs = append(res.Pairs, model.MatchedBookRecord{
				ID:         s.ID,
				Supply:     &s,
				Demand:     &d,
				Method:     method[i],
				Similarity: similarity[i],
			})
			continue
		}
		res.SupplyOnly = append(res.SupplyOnly, model.MatchedBookRecord{
			ID:     s.ID,
			Supply: &s,
			Method: model.MatchNone,
		})
	}
	for j := range demand {
		if demandUsed[j] {
			continue
		}
		d := demand[j]
		res.DemandOnly = append(res.DemandOnly, model.MatchedBookRecord{
			ID:     d.ID,
			Demand: &d,
			Method: model.MatchNone,
		})
	}
	return res
}

// better reports whether candidate (score, c) beats the current best.
// Earlier candidates win remaining ties because demand is scanned in order.
func better(score float64, c model.NormalizedBookRecord, bestScore float64, best model.NormalizedBookRecord) bool {
	if score != bestScore {
		return score > bestScore
	}
	return c.ISBN13 != nil && best.ISBN13 == nil
}

// Key builds the comparison key for a title and author: NFKC-normalized,
// case-folded, with whitespace, punctuation, and symbols removed.
func Key(title, author string) string {
	s := cases.Fold().String(norm.NFKC.String(title + author))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, s)
}

// Similarity returns the normalized Levenshtein similarity of two keys in
// [0, 1], rounded to four decimals.
func Similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	return math.Round(levenshtein.Similarity(a, b, nil)*10000) / 10000
}
