package model

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// StructuredScore is the deterministic rule-based score of one record.
// Sub-scores are in [0, 1]; RawScore and FinalScore are in [0, 100].
type StructuredScore struct {
	VersionScarcity     float64 `json:"version_scarcity"`
	AuthorStatus        float64 `json:"author_status"`
	ConsensusStrength   float64 `json:"consensus_strength"`
	ThemeDurability     float64 `json:"theme_durability"`
	MarketSignal        float64 `json:"market_signal"`
	ConsensusPercentile float64 `json:"consensus_percentile"`
	RawScore            float64 `json:"raw_score"`
	FinalScore          float64 `json:"final_score"`
	FirstEditionPenalty bool    `json:"first_edition_penalty"`
}

// LLMJudgment is the bounded semantic judgment of one record.
type LLMJudgment struct {
	ClassicPotential     float64 `json:"classic_potential"`
	EraSignificance      float64 `json:"era_significance"`
	IPPotential          float64 `json:"ip_potential"`
	StructuredAdjustment float64 `json:"structured_adjustment"`
	Confidence           float64 `json:"confidence"`
	Rationale            string  `json:"rationale"`
	Degraded             bool    `json:"degraded"`

	Backend      string  `json:"backend,omitempty"`
	Model        string  `json:"model,omitempty"`
	Attempts     int     `json:"attempts,omitempty"`
	InputTokens  int     `json:"input_tokens,omitempty"`
	OutputTokens int     `json:"output_tokens,omitempty"`
	CostUSD      float64 `json:"cost_usd,omitempty"`
}

// NeutralJudgment is the fallback used when a judgment cannot be obtained.
// It carries no weight in aggregation.
func NeutralJudgment(reason string) LLMJudgment {
	return LLMJudgment{Rationale: reason, Degraded: true}
}

// Tier is the ordered value classification of a scored record.
type Tier int

const (
	TierReading Tier = iota
	TierWatch
	TierHighPotential
)

var tierNames = map[Tier]string{
	TierReading:       "reading",
	TierWatch:         "watch",
	TierHighPotential: "high-potential",
}

// String returns the tier's stable name.
func (t Tier) String() string {
	if s, ok := tierNames[t]; ok {
		return s
	}
	return "unknown"
}

// Label returns the human-facing label used in reports.
func (t Tier) Label() string {
	switch t {
	case TierHighPotential:
		return "高潜力"
	case TierWatch:
		return "可观察"
	default:
		return "阅读价值为主"
	}
}

// ParseTier parses a tier name.
func ParseTier(s string) (Tier, error) {
	for t, name := range tierNames {
		if name == s {
			return t, nil
		}
	}
	return TierReading, eris.Errorf("model: unknown tier %q", s)
}

// MarshalJSON encodes the tier by name.
func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a tier name.
func (t *Tier) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return eris.Wrap(err, "model: decode tier")
	}
	parsed, err := ParseTier(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ScoredBook is the final, immutable result for one matched record.
type ScoredBook struct {
	Record             MatchedBookRecord `json:"record"`
	Structured         StructuredScore   `json:"structured"`
	Judgment           *LLMJudgment      `json:"judgment,omitempty"`
	AdjustedStructured float64           `json:"adjusted_structured"`
	FinalScore         float64           `json:"final_score"`
	Tier               Tier              `json:"tier"`
}
