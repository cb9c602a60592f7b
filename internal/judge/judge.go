// Package judge obtains bounded semantic judgments for the top-ranked book
// records, either from a live language-model backend or from a
// deterministic offline heuristic.
package judge

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/bookvalue/internal/model"
)

// Backend names.
const (
	BackendOffline   = "offline"
	BackendAnthropic = "anthropic"
	BackendGemini    = "gemini"
)

// Candidate is one record selected for judging.
type Candidate struct {
	Record     *model.MatchedBookRecord
	Structured model.StructuredScore
}

// Judge produces one judgment per candidate, keyed by record ID. It never
// fails as a whole: a record whose judgment cannot be obtained gets a
// neutral, degraded judgment.
type Judge interface {
	Judge(ctx context.Context, candidates []Candidate) map[string]model.LLMJudgment
	Backend() string
}

func collect(backend string, candidates []Candidate, results []model.LLMJudgment) map[string]model.LLMJudgment {
	out := make(map[string]model.LLMJudgment, len(candidates))
	degraded, inTok, outTok := 0, 0, 0
	var costUSD float64
	for i, c := range candidates {
		j := results[i]
		if j.Backend == "" {
			j.Backend = backend
		}
		if j.Degraded {
			degraded++
		}
		inTok += j.InputTokens
		outTok += j.OutputTokens
		costUSD += j.CostUSD
		out[c.Record.ID] = j
	}

	zap.L().Info("judge: batch judged",
		zap.String("backend", backend),
		zap.Int("candidates", len(candidates)),
		zap.Int("degraded", degraded),
		zap.Int("input_tokens", inTok),
		zap.Int("output_tokens", outTok),
		zap.Float64("cost_usd", costUSD),
	)
	return out
}
