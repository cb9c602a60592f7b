package store

import (
	"github.com/sells-group/bookvalue/internal/model"
)

func sampleBooks() []model.ScoredBook {
	isbn := "9787100000001"
	return []model.ScoredBook{
		{
			Record: model.MatchedBookRecord{
				ID:     "supply:9787100000001",
				Supply: &model.NormalizedBookRecord{ID: "supply:9787100000001", Title: "乡土中国", ISBN13: &isbn},
				Method: model.MatchISBN,
			},
			Structured: model.StructuredScore{RawScore: 88, FinalScore: 88},
			Judgment:   &model.LLMJudgment{ClassicPotential: 9, Confidence: 0.8, Rationale: "classic"},
			FinalScore: 86.2,
			Tier:       model.TierHighPotential,
		},
		{
			Record: model.MatchedBookRecord{
				ID:     "demand:7",
				Demand: &model.NormalizedBookRecord{ID: "demand:7", Title: "城市的胜利"},
				Method: model.MatchNone,
			},
			Structured: model.StructuredScore{RawScore: 40, FinalScore: 20, FirstEditionPenalty: true},
			FinalScore: 20,
			Tier:       model.TierReading,
		},
	}
}
