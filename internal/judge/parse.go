package judge

import (
	"encoding/json"
	"math"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bookvalue/internal/model"
)

// Response keys the judge must return, and nothing else.
const (
	keyClassic    = "classic_potential"
	keyEra        = "era_significance"
	keyIP         = "ip_potential"
	keyAdjustment = "structured_adjustment"
	keyConfidence = "confidence"
	keyRationale  = "rationale"
)

var requiredKeys = []string{keyClassic, keyEra, keyIP, keyAdjustment, keyConfidence, keyRationale}

// Bounds on judged values.
const (
	MaxAdjustment = 10.0
	MaxSubScore   = 10.0
)

// Parse extracts a judgment from a model response. The response must hold
// one JSON object with exactly the six required keys; anything else is an
// error. Values are clamped into range.
func Parse(text string) (model.LLMJudgment, error) {
	obj, err := extractObject(text)
	if err != nil {
		return model.LLMJudgment{}, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(obj), &fields); err != nil {
		return model.LLMJudgment{}, eris.Wrap(err, "judge: response is not a JSON object")
	}

	for _, k := range requiredKeys {
		raw, ok := fields[k]
		if !ok {
			return model.LLMJudgment{}, eris.Errorf("judge: response missing key %q", k)
		}
		if strings.TrimSpace(string(raw)) == "null" {
			return model.LLMJudgment{}, eris.Errorf("judge: %s is null", k)
		}
	}
	if len(fields) != len(requiredKeys) {
		return model.LLMJudgment{}, eris.Errorf("judge: response has unexpected keys %v", extraKeys(fields))
	}

	nums := make(map[string]float64, 5)
	for _, k := range requiredKeys[:5] {
		var f float64
		if err := json.Unmarshal(fields[k], &f); err != nil {
			return model.LLMJudgment{}, eris.Errorf("judge: %s is not a number: %s", k, fields[k])
		}
		nums[k] = f
	}
	var rationale string
	if err := json.Unmarshal(fields[keyRationale], &rationale); err != nil {
		return model.LLMJudgment{}, eris.Errorf("judge: rationale is not a string: %s", fields[keyRationale])
	}

	return model.LLMJudgment{
		ClassicPotential:     clamp(nums[keyClassic], 0, MaxSubScore),
		EraSignificance:      clamp(nums[keyEra], 0, MaxSubScore),
		IPPotential:          clamp(nums[keyIP], 0, MaxSubScore),
		StructuredAdjustment: clamp(nums[keyAdjustment], -MaxAdjustment, MaxAdjustment),
		Confidence:           normalizeConfidence(nums[keyConfidence]),
		Rationale:            strings.TrimSpace(rationale),
	}, nil
}

// normalizeConfidence reads values above 1 as percentages.
func normalizeConfidence(c float64) float64 {
	if c > 1 && c <= 100 {
		c /= 100
	}
	return clamp(c, 0, 1)
}

// extractObject strips markdown code fences and returns the outermost
// {...} span.
func extractObject(text string) (string, error) {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return "", eris.New("judge: no JSON object in response")
	}
	return s[start : end+1], nil
}

func extraKeys(fields map[string]json.RawMessage) []string {
	known := make(map[string]bool, len(requiredKeys))
	for _, k := range requiredKeys {
		known[k] = true
	}
	var extra []string
	for k := range fields {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return extra
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
