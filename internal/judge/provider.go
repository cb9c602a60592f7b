package judge

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bookvalue/internal/config"
	"github.com/sells-group/bookvalue/internal/cost"
	"github.com/sells-group/bookvalue/pkg/anthropic"
	"github.com/sells-group/bookvalue/pkg/gemini"
)

// ResolveBackend maps the configured provider to a concrete backend. "auto"
// prefers Anthropic, then Gemini, and falls back to offline when no key is
// configured.
func ResolveBackend(cfg *config.Config) string {
	switch cfg.Judge.Provider {
	case BackendAnthropic, BackendGemini, BackendOffline:
		return cfg.Judge.Provider
	}
	switch {
	case cfg.Anthropic.Key != "":
		return BackendAnthropic
	case cfg.Gemini.Key != "":
		return BackendGemini
	default:
		return BackendOffline
	}
}

// New builds the judge for one run.
func New(ctx context.Context, cfg *config.Config) (Judge, error) {
	backend := ResolveBackend(cfg)
	calc := cost.FromConfig(cfg.Pricing)
	params := CompletionParams{
		MaxTokens:   cfg.Judge.MaxTokens,
		Temperature: cfg.Judge.Temperature,
	}

	var completer Completer
	switch backend {
	case BackendAnthropic:
		if cfg.Anthropic.Key == "" {
			return nil, eris.New("judge: anthropic.key is required")
		}
		params.Model = cfg.Anthropic.Model
		completer = NewAnthropicCompleter(anthropic.NewClient(cfg.Anthropic.Key), params, calc)
	case BackendGemini:
		if cfg.Gemini.Key == "" {
			return nil, eris.New("judge: gemini.key is required")
		}
		client, err := gemini.NewClient(ctx, cfg.Gemini.Key)
		if err != nil {
			return nil, eris.Wrap(err, "judge: create gemini client")
		}
		params.Model = cfg.Gemini.Model
		completer = NewGeminiCompleter(client, params, calc)
	default:
		zap.L().Info("judge: using offline heuristic judge")
		return NewOffline(), nil
	}

	zap.L().Info("judge: using live judge",
		zap.String("backend", backend),
		zap.String("model", params.Model),
		zap.Int("concurrency", cfg.Judge.Concurrency),
	)
	return NewLive(completer, cfg.Judge), nil
}
