package judge

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// maxBioRunes bounds the author biography sent to the judge.
const maxBioRunes = 400

// Payload is the compact, judgment-relevant view of a record sent to the
// judge. Field order is fixed so the encoding is byte-stable.
type Payload struct {
	Title                  string   `json:"title"`
	Author                 string   `json:"author"`
	Publisher              string   `json:"publisher,omitempty"`
	ISBN13                 string   `json:"isbn13,omitempty"`
	PrintInfo              string   `json:"print_info,omitempty"`
	FirstEditionFirstPrint bool     `json:"first_edition_first_print"`
	Rating                 *float64 `json:"rating,omitempty"`
	RatingCount            int      `json:"rating_count"`
	Tags                   []string `json:"tags,omitempty"`
	Awards                 []string `json:"awards,omitempty"`
	ReviewKeywords         []string `json:"review_keywords,omitempty"`
	Adapted                bool     `json:"adapted"`
	AuthorBio              string   `json:"author_bio,omitempty"`
	StructuredScore        float64  `json:"structured_score"`
}

// BuildPayload extracts the payload for a candidate.
func BuildPayload(c Candidate) Payload {
	rec := c.Record
	p := Payload{
		Title:           rec.Title(),
		Author:          rec.Author(),
		StructuredScore: c.Structured.FinalScore,
	}
	if isbn := rec.ISBN13(); isbn != nil {
		p.ISBN13 = *isbn
	}
	if s := rec.Supply; s != nil {
		p.Publisher = s.Publisher
		p.PrintInfo = s.PrintInfo
		p.FirstEditionFirstPrint = s.FirstEditionFirstPrint()
	}
	if d := rec.Demand; d != nil {
		if p.Publisher == "" {
			p.Publisher = d.Publisher
		}
		if rec.Supply == nil {
			p.FirstEditionFirstPrint = d.FirstEditionFirstPrint()
		}
		p.Rating = d.Rating
		p.RatingCount = d.RatingCount
		p.Tags = d.Tags
		p.Awards = d.Awards
		p.ReviewKeywords = d.ReviewKeywords
		p.Adapted = d.Adapted
		p.AuthorBio = truncateRunes(d.AuthorBio, maxBioRunes)
	}
	return p
}

// Encode returns the JSON encoding of the payload.
func (p Payload) Encode() ([]byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, eris.Wrap(err, "judge: encode payload")
	}
	return b, nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
