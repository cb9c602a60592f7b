package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Input      InputConfig      `yaml:"input" mapstructure:"input"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini     GeminiConfig     `yaml:"gemini" mapstructure:"gemini"`
	Judge      JudgeConfig      `yaml:"judge" mapstructure:"judge"`
	Match      MatchConfig      `yaml:"match" mapstructure:"match"`
	Scoring    ScoringConfig    `yaml:"scoring" mapstructure:"scoring"`
	Blend      BlendConfig      `yaml:"blend" mapstructure:"blend"`
	Tiers      TierConfig       `yaml:"tiers" mapstructure:"tiers"`
	Pricing    PricingConfig    `yaml:"pricing" mapstructure:"pricing"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run ledger backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// InputConfig locates the two raw record arrays.
type InputConfig struct {
	SupplyPath  string `yaml:"supply_path" mapstructure:"supply_path"`
	DemandPath  string `yaml:"demand_path" mapstructure:"demand_path"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// OutputConfig controls where run artifacts are written.
type OutputConfig struct {
	Dir        string `yaml:"dir" mapstructure:"dir"`
	Format     string `yaml:"format" mapstructure:"format"`
	PoolPath   string `yaml:"pool_path" mapstructure:"pool_path"`
	RunLogPath string `yaml:"run_log_path" mapstructure:"run_log_path"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// JudgeConfig configures top-N selection and the semantic judge.
type JudgeConfig struct {
	Provider      string        `yaml:"provider" mapstructure:"provider"`
	TopPct        float64       `yaml:"top_pct" mapstructure:"top_pct"`
	MaxJudged     int           `yaml:"max_judged" mapstructure:"max_judged"`
	Concurrency   int           `yaml:"concurrency" mapstructure:"concurrency"`
	TimeoutSecs   int           `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec    float64       `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	MaxTokens     int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature   float64       `yaml:"temperature" mapstructure:"temperature"`
	MinConfidence float64       `yaml:"min_confidence" mapstructure:"min_confidence"`
	Retry         RetryConfig   `yaml:"retry" mapstructure:"retry"`
	Circuit       CircuitConfig `yaml:"circuit" mapstructure:"circuit"`
}

// RetryConfig configures retries of transient judge transport errors.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// CircuitConfig configures the judge circuit breaker.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// MatchConfig configures supply/demand reconciliation.
type MatchConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
}

// ScoringConfig is the structured scoring rulebook. Weights sum to 100.
type ScoringConfig struct {
	RulebookPath string `yaml:"rulebook_path" mapstructure:"rulebook_path"`

	VersionWeight   float64 `yaml:"version_weight" mapstructure:"version_weight"`
	AuthorWeight    float64 `yaml:"author_weight" mapstructure:"author_weight"`
	ConsensusWeight float64 `yaml:"consensus_weight" mapstructure:"consensus_weight"`
	ThemeWeight     float64 `yaml:"theme_weight" mapstructure:"theme_weight"`
	MarketWeight    float64 `yaml:"market_weight" mapstructure:"market_weight"`

	// ConsensusSignal selects the popularity signal: "rating_count" or
	// "quality" (rating × ln(rating_count)).
	ConsensusSignal string `yaml:"consensus_signal" mapstructure:"consensus_signal"`
	// ConsensusCutoffs are ascending percentile upper bounds; ConsensusScores
	// has one more entry than ConsensusCutoffs, the last covering the remainder.
	ConsensusCutoffs []float64 `yaml:"consensus_cutoffs" mapstructure:"consensus_cutoffs"`
	ConsensusScores  []float64 `yaml:"consensus_scores" mapstructure:"consensus_scores"`

	HighDemandTags    []string `yaml:"high_demand_tags" mapstructure:"high_demand_tags"`
	MediumDemandTags  []string `yaml:"medium_demand_tags" mapstructure:"medium_demand_tags"`
	TopAwards         []string `yaml:"top_awards" mapstructure:"top_awards"`
	CanonicalKeywords []string `yaml:"canonical_keywords" mapstructure:"canonical_keywords"`
	ThoughtKeywords   []string `yaml:"thought_keywords" mapstructure:"thought_keywords"`

	PremiumRatio float64 `yaml:"premium_ratio" mapstructure:"premium_ratio"`
	VintageYears int     `yaml:"vintage_years" mapstructure:"vintage_years"`
}

// BlendConfig weights the final blend of structured and judged scores.
type BlendConfig struct {
	StructuredWeight float64 `yaml:"structured_weight" mapstructure:"structured_weight"`
	ClassicWeight    float64 `yaml:"classic_weight" mapstructure:"classic_weight"`
	EraIPWeight      float64 `yaml:"era_ip_weight" mapstructure:"era_ip_weight"`
}

// TierConfig holds the lower bounds of the upper tiers. Scores below Watch
// are reading tier.
type TierConfig struct {
	Watch         float64 `yaml:"watch" mapstructure:"watch"`
	HighPotential float64 `yaml:"high_potential" mapstructure:"high_potential"`
}

// PricingConfig holds per-provider pricing rates.
type PricingConfig struct {
	Anthropic map[string]ModelPricing `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini    map[string]ModelPricing `yaml:"gemini" mapstructure:"gemini"`
}

// ModelPricing holds per-model token pricing (USD per million tokens).
type ModelPricing struct {
	Input         float64 `yaml:"input" mapstructure:"input"`
	Output        float64 `yaml:"output" mapstructure:"output"`
	CacheWriteMul float64 `yaml:"cache_write_mul" mapstructure:"cache_write_mul"`
	CacheReadMul  float64 `yaml:"cache_read_mul" mapstructure:"cache_read_mul"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// MonitoringConfig configures run health alerts.
type MonitoringConfig struct {
	Enabled               bool    `yaml:"enabled" mapstructure:"enabled"`
	WebhookURL            string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs     int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours   int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	FailureRateThreshold  float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	DegradedRateThreshold float64 `yaml:"degraded_rate_threshold" mapstructure:"degraded_rate_threshold"`
	CostThresholdUSD      float64 `yaml:"cost_threshold_usd" mapstructure:"cost_threshold_usd"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BOOKVALUE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "bookvalue.db")
	v.SetDefault("input.timeout_secs", 30)
	v.SetDefault("output.dir", "output")
	v.SetDefault("output.format", "json")
	v.SetDefault("output.pool_path", "output/observation_pool.json")
	v.SetDefault("output.run_log_path", "output/book.md")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.failure_rate_threshold", 0.10)
	v.SetDefault("monitoring.degraded_rate_threshold", 0.25)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("gemini.key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("judge.provider", "auto")
	v.SetDefault("judge.top_pct", 0.10)
	v.SetDefault("judge.max_judged", 0)
	v.SetDefault("judge.concurrency", 4)
	v.SetDefault("judge.timeout_secs", 30)
	v.SetDefault("judge.rate_per_sec", 2.0)
	v.SetDefault("judge.max_tokens", 512)
	v.SetDefault("judge.temperature", 0.3)
	v.SetDefault("judge.min_confidence", 0.5)
	v.SetDefault("judge.retry.max_attempts", 3)
	v.SetDefault("judge.retry.initial_backoff_ms", 500)
	v.SetDefault("judge.retry.max_backoff_ms", 8000)
	v.SetDefault("judge.retry.multiplier", 2.0)
	v.SetDefault("judge.retry.jitter_fraction", 0.25)
	v.SetDefault("judge.circuit.failure_threshold", 5)
	v.SetDefault("judge.circuit.reset_timeout_secs", 30)
	v.SetDefault("match.similarity_threshold", 0.85)

	scoring := DefaultScoring()
	v.SetDefault("scoring.version_weight", scoring.VersionWeight)
	v.SetDefault("scoring.author_weight", scoring.AuthorWeight)
	v.SetDefault("scoring.consensus_weight", scoring.ConsensusWeight)
	v.SetDefault("scoring.theme_weight", scoring.ThemeWeight)
	v.SetDefault("scoring.market_weight", scoring.MarketWeight)
	v.SetDefault("scoring.consensus_signal", scoring.ConsensusSignal)
	v.SetDefault("scoring.consensus_cutoffs", scoring.ConsensusCutoffs)
	v.SetDefault("scoring.consensus_scores", scoring.ConsensusScores)
	v.SetDefault("scoring.high_demand_tags", scoring.HighDemandTags)
	v.SetDefault("scoring.medium_demand_tags", scoring.MediumDemandTags)
	v.SetDefault("scoring.top_awards", scoring.TopAwards)
	v.SetDefault("scoring.canonical_keywords", scoring.CanonicalKeywords)
	v.SetDefault("scoring.thought_keywords", scoring.ThoughtKeywords)
	v.SetDefault("scoring.premium_ratio", scoring.PremiumRatio)
	v.SetDefault("scoring.vintage_years", scoring.VintageYears)

	v.SetDefault("blend.structured_weight", 0.5)
	v.SetDefault("blend.classic_weight", 0.3)
	v.SetDefault("blend.era_ip_weight", 0.2)
	v.SetDefault("tiers.watch", 60.0)
	v.SetDefault("tiers.high_potential", 80.0)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// DefaultScoring returns the built-in scoring rulebook.
func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		// Weights (sum = 100).
		VersionWeight:   30,
		AuthorWeight:    25,
		ConsensusWeight: 20,
		ThemeWeight:     15,
		MarketWeight:    10,

		ConsensusSignal:  "rating_count",
		ConsensusCutoffs: []float64{0.10, 0.30, 0.60},
		ConsensusScores:  []float64{1.0, 0.75, 0.5, 0.25},

		HighDemandTags:    []string{"政治哲学", "经济思想", "历史", "思想", "社会学", "政治经济", "哲学", "重大事件"},
		MediumDemandTags:  []string{"传记", "文化", "学术", "理论", "社会", "城市研究"},
		TopAwards:         []string{"诺奖", "诺贝尔", "茅奖", "茅盾文学奖", "布克", "普利策"},
		CanonicalKeywords: []string{"经典", "名著"},
		ThoughtKeywords:   []string{"政治", "哲学", "思想", "经济"},

		PremiumRatio: 1.15,
		VintageYears: 20,
	}
}

// Validate checks the configuration for the given command mode ("score",
// "serve", or "read") and returns every problem found.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite", "postgres", "none":
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be sqlite, postgres, or none, got %q", c.Store.Driver))
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required for postgres")
	}

	switch mode {
	case "score":
		errs = append(errs, c.validateScoring()...)
		switch c.Output.Format {
		case "json", "csv":
		default:
			errs = append(errs, fmt.Sprintf("output.format must be json or csv, got %q", c.Output.Format))
		}
	case "serve":
		errs = append(errs, c.validateScoring()...)
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	case "read":
	default:
		errs = append(errs, fmt.Sprintf("unknown mode %q", mode))
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateScoring() []string {
	var errs []string

	switch c.Judge.Provider {
	case "auto", "offline", "anthropic", "gemini":
	default:
		errs = append(errs, fmt.Sprintf("judge.provider must be auto, offline, anthropic, or gemini, got %q", c.Judge.Provider))
	}
	if c.Judge.Provider == "anthropic" && c.Anthropic.Key == "" {
		errs = append(errs, "anthropic.key is required for the anthropic judge")
	}
	if c.Judge.Provider == "gemini" && c.Gemini.Key == "" {
		errs = append(errs, "gemini.key is required for the gemini judge")
	}
	if c.Judge.TopPct <= 0 || c.Judge.TopPct > 1 {
		errs = append(errs, "judge.top_pct must be in (0, 1]")
	}
	if c.Judge.MaxJudged < 0 {
		errs = append(errs, "judge.max_judged must be >= 0")
	}
	if c.Judge.Concurrency < 1 || c.Judge.Concurrency > 32 {
		errs = append(errs, "judge.concurrency must be between 1 and 32")
	}
	if c.Judge.MinConfidence < 0 || c.Judge.MinConfidence > 1 {
		errs = append(errs, "judge.min_confidence must be in [0, 1]")
	}

	if c.Match.SimilarityThreshold <= 0 || c.Match.SimilarityThreshold > 1 {
		errs = append(errs, "match.similarity_threshold must be in (0, 1]")
	}

	if c.Tiers.Watch <= 0 || c.Tiers.HighPotential <= c.Tiers.Watch || c.Tiers.HighPotential > 100 {
		errs = append(errs, "tiers must satisfy 0 < watch < high_potential <= 100")
	}

	b := c.Blend
	sum := b.StructuredWeight + b.ClassicWeight + b.EraIPWeight
	if b.StructuredWeight < 0 || b.ClassicWeight < 0 || b.EraIPWeight < 0 || math.Abs(sum-1) > 0.001 {
		errs = append(errs, fmt.Sprintf("blend weights must be >= 0 and sum to 1, got %.3f", sum))
	}

	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
