package scorer

import (
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/bookvalue/internal/config"
	"github.com/sells-group/bookvalue/internal/model"
)

// Consensus popularity signals.
const (
	SignalRatingCount = "rating_count"
	SignalQuality     = "quality"
)

// FirstEditionMultiplier scales the raw score of any record that is not
// both a first edition and a first printing.
const FirstEditionMultiplier = 0.5

// Scorer computes structured scores over a complete matched batch.
type Scorer struct {
	cfg  config.ScoringConfig
	asOf time.Time
}

// New creates a Scorer. asOf anchors print-age calculations so results do
// not depend on the wall clock.
func New(cfg config.ScoringConfig, asOf time.Time) *Scorer {
	return &Scorer{cfg: cfg, asOf: asOf}
}

// Score scores every record. Consensus percentiles are relative to the
// whole batch, so it must be called with the full matched set.
func (s *Scorer) Score(records []model.MatchedBookRecord) map[string]model.StructuredScore {
	signals := make([]float64, len(records))
	for i := range records {
		signals[i] = s.signal(&records[i])
	}
	percentiles := Percentiles(signals)

	out := make(map[string]model.StructuredScore, len(records))
	penalized := 0
	for i := range records {
		score := s.scoreOne(&records[i], percentiles[i], signals[i] > 0)
		if score.FirstEditionPenalty {
			penalized++
		}
		out[records[i].ID] = score
	}

	zap.L().Info("scorer: batch scored",
		zap.Int("records", len(records)),
		zap.Int("penalized", penalized),
	)
	return out
}

// ScoreOne scores a single record given its consensus percentile.
func (s *Scorer) ScoreOne(rec *model.MatchedBookRecord, percentile float64) model.StructuredScore {
	return s.scoreOne(rec, percentile, s.signal(rec) > 0)
}

func (s *Scorer) scoreOne(rec *model.MatchedBookRecord, percentile float64, hasSignal bool) model.StructuredScore {
	v := viewOf(rec)

	consensus := 0.0
	if hasSignal {
		consensus = s.consensusBand(percentile)
	}

	version := s.scoreVersion(v)
	author := s.scoreAuthor(v)
	theme := s.scoreTheme(v)
	market := s.scoreMarket(v)

	// Fixed summation order keeps the result bit-for-bit reproducible.
	total := version*s.cfg.VersionWeight +
		author*s.cfg.AuthorWeight +
		consensus*s.cfg.ConsensusWeight +
		theme*s.cfg.ThemeWeight +
		market*s.cfg.MarketWeight
	// Normalize to 0-100 scale.
	if sum := WeightSum(s.cfg); sum > 0 {
		total = total / sum * 100
	}
	raw := round2(clamp(total, 0, 100))

	final := raw
	penalty := !(v.firstEdition && v.firstPrint)
	if penalty {
		final = raw * FirstEditionMultiplier
	}

	return model.StructuredScore{
		VersionScarcity:     version,
		AuthorStatus:        author,
		ConsensusStrength:   consensus,
		ThemeDurability:     theme,
		MarketSignal:        market,
		ConsensusPercentile: percentile,
		RawScore:            raw,
		FinalScore:          final,
		FirstEditionPenalty: penalty,
	}
}

// view is the merged field set a record is scored on. Physical-copy fields
// come from the supply side, reception fields from the demand side.
type view struct {
	editionNumber *int
	printNumber   *int
	printDate     *time.Time
	binding       model.Binding
	limited       bool
	signed        bool
	firstEdition  bool
	firstPrint    bool

	price             *float64
	listPrice         *float64
	inStock           *bool
	secondHandPremium bool

	tags           []string
	awards         []string
	reviewKeywords []string
	authorBio      string
	adapted        bool
}

func viewOf(rec *model.MatchedBookRecord) view {
	var v view
	copySide := rec.Supply
	if copySide == nil {
		copySide = rec.Demand
	}
	v.editionNumber = copySide.EditionNumber
	v.printNumber = copySide.PrintNumber
	v.printDate = copySide.PrintDate
	v.binding = copySide.Binding
	v.limited = copySide.IsLimited
	v.signed = copySide.IsSigned
	v.firstEdition = copySide.IsFirstEdition
	v.firstPrint = copySide.IsFirstPrint
	v.price = copySide.Price
	v.listPrice = copySide.ListPrice
	v.inStock = copySide.InStock
	v.secondHandPremium = copySide.SecondHandPremium != nil && *copySide.SecondHandPremium

	if d := rec.Demand; d != nil {
		v.tags = d.Tags
		v.awards = d.Awards
		v.reviewKeywords = d.ReviewKeywords
		v.authorBio = d.AuthorBio
		v.adapted = d.Adapted
		if v.printDate == nil {
			v.printDate = d.PrintDate
		}
	}
	return v
}

// signal returns the popularity signal used for consensus ranking.
func (s *Scorer) signal(rec *model.MatchedBookRecord) float64 {
	d := rec.Demand
	if d == nil {
		return 0
	}
	if s.cfg.ConsensusSignal == SignalQuality {
		return Quality(d.Rating, d.RatingCount)
	}
	return float64(d.RatingCount)
}

// Quality is the rating × ln(rating count) popularity proxy.
func Quality(rating *float64, count int) float64 {
	if rating == nil || *rating <= 0 || count <= 1 {
		return 0
	}
	return *rating * math.Log(float64(count))
}

// Percentiles ranks signals in descending order and returns rank/total for
// each input position. Equal signals share the best rank.
func Percentiles(signals []float64) []float64 {
	n := len(signals)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return signals[idx[a]] > signals[idx[b]] })

	rank := 1
	for pos, i := range idx {
		if pos > 0 && signals[i] != signals[idx[pos-1]] {
			rank = pos + 1
		}
		out[i] = float64(rank) / float64(n)
	}
	return out
}

func (s *Scorer) consensusBand(percentile float64) float64 {
	scores := s.cfg.ConsensusScores
	if len(scores) == 0 {
		return 0
	}
	for i, cut := range s.cfg.ConsensusCutoffs {
		if percentile <= cut && i < len(scores) {
			return scores[i]
		}
	}
	return scores[len(scores)-1]
}

// scoreVersion returns 0.0-1.0 for physical scarcity of the copy.
func (s *Scorer) scoreVersion(v view) float64 {
	var points float64
	if v.editionNumber != nil && *v.editionNumber == 1 {
		points += 8
	}
	if v.printNumber != nil && *v.printNumber == 1 {
		points += 7
	}
	if v.binding == model.BindingHardcover {
		points += 5
	}
	if v.limited {
		points += 5
	}
	if v.signed {
		points += 5
	}
	if v.printDate != nil && s.cfg.VintageYears > 0 {
		if v.printDate.AddDate(s.cfg.VintageYears, 0, 0).Before(s.asOf) {
			points += 3
		}
	}
	return math.Min(points/30, 1.0)
}

// scoreAuthor returns 0.0-1.0 for the author's standing and the work's
// canonical status.
func (s *Scorer) scoreAuthor(v view) float64 {
	var points float64
	if len(matchKeywords(s.cfg.TopAwards, v.awards...)) > 0 {
		points += 10
	}
	texts := append(append([]string{}, v.tags...), v.reviewKeywords...)
	if len(matchKeywords(s.cfg.CanonicalKeywords, texts...)) > 0 {
		points += 8
	}
	if len(matchKeywords(s.cfg.ThoughtKeywords, append(texts, v.authorBio)...)) > 0 {
		points += 5
	}
	if v.adapted {
		points += 2
	}
	return math.Min(points/25, 1.0)
}

// scoreTheme returns 0.0-1.0 for the durability of the book's themes.
func (s *Scorer) scoreTheme(v view) float64 {
	switch {
	case hasTag(v.tags, s.cfg.HighDemandTags):
		return 1.0
	case hasTag(v.tags, s.cfg.MediumDemandTags):
		return 8.0 / 15
	default:
		return 2.0 / 15
	}
}

// scoreMarket returns 0.0-1.0 for current market scarcity.
func (s *Scorer) scoreMarket(v view) float64 {
	var points float64
	if v.inStock != nil && !*v.inStock {
		points += 5
	}
	if v.price != nil && v.listPrice != nil && *v.listPrice > 0 && *v.price > *v.listPrice*s.cfg.PremiumRatio {
		points += 3
	}
	if v.secondHandPremium {
		points += 2
	}
	return math.Min(points/10, 1.0)
}

func hasTag(tags, vocabulary []string) bool {
	for _, t := range tags {
		for _, w := range vocabulary {
			if t == w {
				return true
			}
		}
	}
	return false
}

// matchKeywords returns all keywords that appear (case-insensitive) in the given texts.
func matchKeywords(keywords []string, texts ...string) []string {
	var combined string
	for _, t := range texts {
		if t != "" {
			combined += " " + strings.ToLower(t)
		}
	}
	if combined == "" {
		return nil
	}

	var matched []string
	for _, kw := range keywords {
		if kw != "" && strings.Contains(combined, strings.ToLower(kw)) {
			matched = append(matched, kw)
		}
	}
	return matched
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
