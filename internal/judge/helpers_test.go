package judge

import (
	"github.com/sells-group/bookvalue/internal/model"
)

func strPtr(s string) *string { return &s }

func candidate(id, title string, tags, keywords []string, adapted bool) Candidate {
	return Candidate{
		Record: &model.MatchedBookRecord{
			ID: id,
			Supply: &model.NormalizedBookRecord{
				ID:             id,
				Source:         model.SourceSupply,
				ISBN13:         strPtr("9787108009821"),
				Title:          title,
				Author:         "作者",
				Publisher:      "三联书店",
				PrintInfo:      "2008年1月第1版第1次印刷",
				IsFirstEdition: true,
				IsFirstPrint:   true,
			},
			Demand: &model.NormalizedBookRecord{
				ID:             "demand:" + id,
				Source:         model.SourceDemand,
				Title:          title,
				Author:         "作者",
				RatingCount:    12000,
				Tags:           tags,
				ReviewKeywords: keywords,
				Adapted:        adapted,
				AuthorBio:      "著名学者",
			},
			Method: model.MatchISBN,
		},
		Structured: model.StructuredScore{FinalScore: 72.5},
	}
}
