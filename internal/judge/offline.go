package judge

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/sells-group/bookvalue/internal/model"
)

// Offline is a deterministic stand-in for the live judge. Its output is a
// pure function of the encoded payload.
type Offline struct{}

// NewOffline creates an offline judge.
func NewOffline() *Offline { return &Offline{} }

// Backend implements Judge.
func (*Offline) Backend() string { return BackendOffline }

// Judge implements Judge.
func (o *Offline) Judge(_ context.Context, candidates []Candidate) map[string]model.LLMJudgment {
	results := make([]model.LLMJudgment, len(candidates))
	for i, c := range candidates {
		p := BuildPayload(c)
		b, err := p.Encode()
		if err != nil {
			results[i] = model.NeutralJudgment(err.Error())
			continue
		}
		results[i] = OfflineJudgment(p, b)
	}
	return collect(BackendOffline, candidates, results)
}

var (
	classicHints = []string{"经典", "名著"}
	eraTags      = []string{"政治哲学", "经济思想", "历史"}
)

// OfflineJudgment derives a judgment from payload content. Base scores follow
// simple content heuristics; a SHA-256 digest of encoded spreads them by up
// to ±0.5 and picks a confidence in [0.6, 0.8].
func OfflineJudgment(p Payload, encoded []byte) model.LLMJudgment {
	sum := sha256.Sum256(encoded)

	classic := 6.0
	if containsAny(p.ReviewKeywords, classicHints) || containsAny(p.Tags, classicHints) {
		classic = 8.5
	}
	era := 4.0
	if containsAny(p.Tags, eraTags) {
		era = 7.0
	}
	ip := 4.0
	if p.Adapted {
		ip = 6.5
	}
	adjustment := -2.0
	if classic >= 8 {
		adjustment = 5.0
	}

	return model.LLMJudgment{
		ClassicPotential:     round2(clamp(classic+jitter(sum, 0), 0, MaxSubScore)),
		EraSignificance:      round2(clamp(era+jitter(sum, 1), 0, MaxSubScore)),
		IPPotential:          round2(clamp(ip+jitter(sum, 2), 0, MaxSubScore)),
		StructuredAdjustment: adjustment,
		Confidence:           round2(0.6 + 0.2*unit(sum, 3)),
		Rationale:            fmt.Sprintf("offline heuristic judgment %x", sum[:4]),
		Backend:              BackendOffline,
		Model:                "heuristic",
	}
}

// unit maps two digest bytes at slot i onto [0, 1].
func unit(sum [32]byte, i int) float64 {
	return float64(binary.BigEndian.Uint16(sum[2*i:])) / math.MaxUint16
}

func jitter(sum [32]byte, i int) float64 {
	return unit(sum, i) - 0.5
}

func containsAny(values, wanted []string) bool {
	for _, v := range values {
		for _, w := range wanted {
			if v == w {
				return true
			}
		}
	}
	return false
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
