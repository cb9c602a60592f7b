// Package cost prices judge token usage.
package cost

import (
	"github.com/sells-group/bookvalue/internal/config"
)

// Rates holds per-provider, per-model pricing in USD per million tokens.
type Rates struct {
	Anthropic map[string]config.ModelPricing
	Gemini    map[string]config.ModelPricing
}

// Calculator computes costs for judge API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// FromConfig returns a Calculator over DefaultRates with any configured
// model prices layered on top.
func FromConfig(p config.PricingConfig) *Calculator {
	rates := DefaultRates()
	for model, r := range p.Anthropic {
		rates.Anthropic[model] = r
	}
	for model, r := range p.Gemini {
		rates.Gemini[model] = r
	}
	return NewCalculator(rates)
}

// Claude computes the cost of a Claude call. Unknown models cost 0.
func (c *Calculator) Claude(model string, input, output, cacheWrite, cacheRead int64) float64 {
	rate, ok := c.rates.Anthropic[model]
	if !ok {
		return 0
	}
	inCost := perMillion(input) * rate.Input
	outCost := perMillion(output) * rate.Output
	cwCost := perMillion(cacheWrite) * rate.Input * rate.CacheWriteMul
	crCost := perMillion(cacheRead) * rate.Input * rate.CacheReadMul
	return inCost + outCost + cwCost + crCost
}

// Gemini computes the cost of a Gemini call. Unknown models cost 0.
func (c *Calculator) Gemini(model string, input, output int64) float64 {
	rate, ok := c.rates.Gemini[model]
	if !ok {
		return 0
	}
	return perMillion(input)*rate.Input + perMillion(output)*rate.Output
}

func perMillion(tokens int64) float64 {
	return float64(tokens) / 1e6
}

// DefaultRates returns the built-in pricing.
func DefaultRates() Rates {
	return Rates{
		Anthropic: map[string]config.ModelPricing{
			"claude-haiku-4-5-20251001": {
				Input: 1.00, Output: 5.00,
				CacheWriteMul: 1.25, CacheReadMul: 0.1,
			},
			"claude-sonnet-4-5-20250929": {
				Input: 3.00, Output: 15.00,
				CacheWriteMul: 1.25, CacheReadMul: 0.1,
			},
		},
		Gemini: map[string]config.ModelPricing{
			"gemini-2.5-flash":      {Input: 0.30, Output: 2.50},
			"gemini-2.5-flash-lite": {Input: 0.10, Output: 0.40},
			"gemini-2.5-pro":        {Input: 1.25, Output: 10.00},
		},
	}
}
