// Package scorer computes the deterministic structured score of matched book
// records.
package scorer

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/bookvalue/internal/config"
)

// WeightSum returns the sum of all component weights.
func WeightSum(c config.ScoringConfig) float64 {
	return c.VersionWeight + c.AuthorWeight + c.ConsensusWeight + c.ThemeWeight + c.MarketWeight
}

// ValidateConfig checks that a ScoringConfig is internally consistent.
func ValidateConfig(c config.ScoringConfig) error {
	var errs []string

	// All weights must be non-negative.
	weights := map[string]float64{
		"version_weight":   c.VersionWeight,
		"author_weight":    c.AuthorWeight,
		"consensus_weight": c.ConsensusWeight,
		"theme_weight":     c.ThemeWeight,
		"market_weight":    c.MarketWeight,
	}
	for name, w := range weights {
		if w < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	sum := WeightSum(c)
	if sum <= 0 {
		errs = append(errs, "weight sum must be > 0")
	}
	// Weights should be close to 100 (allow tolerance for floating-point).
	if math.Abs(sum-100) > 1 {
		errs = append(errs, fmt.Sprintf("weights should sum to 100, got %.1f", sum))
	}

	switch c.ConsensusSignal {
	case SignalRatingCount, SignalQuality:
	default:
		errs = append(errs, fmt.Sprintf("consensus_signal must be %s or %s, got %q", SignalRatingCount, SignalQuality, c.ConsensusSignal))
	}

	if len(c.ConsensusScores) != len(c.ConsensusCutoffs)+1 {
		errs = append(errs, "consensus_scores must have exactly one more entry than consensus_cutoffs")
	}
	for i, cut := range c.ConsensusCutoffs {
		if cut <= 0 || cut >= 1 {
			errs = append(errs, fmt.Sprintf("consensus_cutoffs[%d] must be in (0, 1)", i))
		}
		if i > 0 && cut <= c.ConsensusCutoffs[i-1] {
			errs = append(errs, "consensus_cutoffs must be strictly ascending")
		}
	}
	for i, s := range c.ConsensusScores {
		if s < 0 || s > 1 {
			errs = append(errs, fmt.Sprintf("consensus_scores[%d] must be in [0, 1]", i))
		}
	}

	if c.PremiumRatio < 1 {
		errs = append(errs, "premium_ratio must be >= 1")
	}
	if c.VintageYears < 0 {
		errs = append(errs, "vintage_years must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LoadRulebook overlays a YAML rulebook file onto base. Keys absent from the
// file keep their base values.
func LoadRulebook(path string, base config.ScoringConfig) (config.ScoringConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, eris.Wrapf(err, "scorer: read rulebook %s", path)
	}

	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, eris.Wrapf(err, "scorer: parse rulebook %s", path)
	}
	cfg.RulebookPath = path

	if err := ValidateConfig(cfg); err != nil {
		return base, err
	}
	return cfg, nil
}
