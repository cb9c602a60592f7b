// Package aggregate blends structured scores with judgments, assigns tiers,
// and routes records to the observation pool.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/bookvalue/internal/config"
	"github.com/sells-group/bookvalue/internal/model"
)

// Aggregator turns per-record scores and judgments into scored books.
type Aggregator struct {
	blend         config.BlendConfig
	tiers         config.TierConfig
	minConfidence float64
}

// New creates an Aggregator.
func New(blend config.BlendConfig, tiers config.TierConfig, minConfidence float64) *Aggregator {
	return &Aggregator{blend: blend, tiers: tiers, minConfidence: minConfidence}
}

// Result is the output of one aggregation.
type Result struct {
	Books []model.ScoredBook
	Pool  []model.ObservationPoolEntry
}

// Tier maps a final score onto its tier. The bands are contiguous and cover
// every score.
func (a *Aggregator) Tier(score float64) model.Tier {
	switch {
	case score >= a.tiers.HighPotential:
		return model.TierHighPotential
	case score >= a.tiers.Watch:
		return model.TierWatch
	default:
		return model.TierReading
	}
}

// Blend combines a structured final score with a judgment. It returns the
// adjusted structured score and the blended final score.
func (a *Aggregator) Blend(structured float64, j model.LLMJudgment) (adjusted, final float64) {
	adjusted = clamp(structured+j.StructuredAdjustment, 0, 100)
	final = a.blend.StructuredWeight*adjusted +
		a.blend.ClassicWeight*j.ClassicPotential*10 +
		a.blend.EraIPWeight*((j.EraSignificance+j.IPPotential)/2)*10
	return round2(adjusted), round2(clamp(final, 0, 100))
}

// Aggregate produces one scored book per record, ordered by final score
// descending then record ID, plus the pool entries of this run. Records
// absent from judgments were not selected.
func (a *Aggregator) Aggregate(
	records []model.MatchedBookRecord,
	scores map[string]model.StructuredScore,
	judgments map[string]model.LLMJudgment,
	runID string,
	now time.Time,
) Result {
	var res Result
	for i := range records {
		rec := &records[i]
		s := scores[rec.ID]

		book := model.ScoredBook{
			Record:             *rec,
			Structured:         s,
			AdjustedStructured: s.FinalScore,
			FinalScore:         s.FinalScore,
		}

		var reasons []reason
		if origin := rec.Origin(); origin != "" {
			reasons = append(reasons, reason{model.ReasonUnmatched, fmt.Sprintf("no %s counterpart", counterpart(origin))})
		}

		j, judged := judgments[rec.ID]
		switch {
		case !judged:
			reasons = append(reasons, reason{model.ReasonNotSelected, "below judging cut-off"})
		case j.Degraded:
			book.Judgment = &j
			reasons = append(reasons, reason{model.ReasonDegraded, j.Rationale})
		default:
			book.Judgment = &j
			book.AdjustedStructured, book.FinalScore = a.Blend(s.FinalScore, j)
			if j.Confidence < a.minConfidence {
				reasons = append(reasons, reason{model.ReasonLowConfidence, fmt.Sprintf("confidence %.2f below %.2f", j.Confidence, a.minConfidence)})
			}
		}
		book.Tier = a.Tier(book.FinalScore)
		res.Books = append(res.Books, book)

		for _, r := range reasons {
			res.Pool = append(res.Pool, entryFor(rec, &book, r, runID, now))
		}
	}

	sort.SliceStable(res.Books, func(i, j int) bool {
		if res.Books[i].FinalScore != res.Books[j].FinalScore {
			return res.Books[i].FinalScore > res.Books[j].FinalScore
		}
		return res.Books[i].Record.ID < res.Books[j].Record.ID
	})
	sortPool(res.Pool)

	zap.L().Info("aggregate: batch aggregated",
		zap.Int("books", len(res.Books)),
		zap.Int("judged", len(judgments)),
		zap.Int("pool_entries", len(res.Pool)),
	)
	return res
}

type reason struct {
	code   model.ReasonCode
	detail string
}

func counterpart(origin model.Source) model.Source {
	if origin == model.SourceSupply {
		return model.SourceDemand
	}
	return model.SourceSupply
}

func entryFor(rec *model.MatchedBookRecord, book *model.ScoredBook, r reason, runID string, now time.Time) model.ObservationPoolEntry {
	score := book.FinalScore
	e := model.ObservationPoolEntry{
		RecordID:   rec.ID,
		Title:      rec.Title(),
		Author:     rec.Author(),
		Reason:     r.code,
		Origin:     rec.Origin(),
		Detail:     r.detail,
		FinalScore: &score,
		Tier:       book.Tier.String(),
		RunID:      runID,
		FirstSeen:  now,
		LastSeen:   now,
		SeenCount:  1,
	}
	if isbn := rec.ISBN13(); isbn != nil {
		e.ISBN13 = *isbn
	}
	return e
}

// UnusableEntry routes a normalized record with neither title nor ISBN to
// the pool.
func UnusableEntry(rec *model.NormalizedBookRecord, runID string, now time.Time) model.ObservationPoolEntry {
	return model.ObservationPoolEntry{
		RecordID:  rec.ID,
		Title:     rec.Title,
		Author:    rec.Author,
		Reason:    model.ReasonUnusable,
		Origin:    rec.Source,
		Detail:    "record has neither title nor ISBN",
		RunID:     runID,
		FirstSeen: now,
		LastSeen:  now,
		SeenCount: 1,
	}
}

func sortPool(entries []model.ObservationPoolEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Key() < entries[j].Key()
	})
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
