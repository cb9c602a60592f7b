package judge

import (
	"context"

	"github.com/sells-group/bookvalue/internal/cost"
	"github.com/sells-group/bookvalue/internal/resilience"
	"github.com/sells-group/bookvalue/pkg/anthropic"
	"github.com/sells-group/bookvalue/pkg/gemini"
)

// Completion is one model response with its usage.
type Completion struct {
	Text         string
	Model        string
	InputTokens  int64
	OutputTokens int64
	CostUSD      float64
}

// Completer sends one system+user exchange to a model backend. Transport
// errors worth retrying are returned as *resilience.TransientError.
type Completer interface {
	Complete(ctx context.Context, system, user string) (Completion, error)
	Name() string
}

// CompletionParams are the sampling settings shared by all backends.
type CompletionParams struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// AnthropicCompleter judges through the Anthropic Messages API.
type AnthropicCompleter struct {
	client anthropic.Client
	params CompletionParams
	calc   *cost.Calculator
}

// NewAnthropicCompleter creates an AnthropicCompleter.
func NewAnthropicCompleter(client anthropic.Client, params CompletionParams, calc *cost.Calculator) *AnthropicCompleter {
	return &AnthropicCompleter{client: client, params: params, calc: calc}
}

// Name implements Completer.
func (a *AnthropicCompleter) Name() string { return BackendAnthropic }

// Complete implements Completer.
func (a *AnthropicCompleter) Complete(ctx context.Context, system, user string) (Completion, error) {
	temp := a.params.Temperature
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.params.Model,
		MaxTokens:   int64(a.params.MaxTokens),
		System:      anthropic.BuildCachedSystemBlocks(system, "5m"),
		Messages:    []anthropic.Message{{Role: "user", Content: user}},
		Temperature: &temp,
	})
	if err != nil {
		return Completion{}, resilience.FromStatus(err, anthropic.StatusCode(err))
	}

	u := resp.Usage
	out := Completion{
		Text:         resp.Text(),
		Model:        a.params.Model,
		InputTokens:  u.InputTokens + u.CacheCreationInputTokens + u.CacheReadInputTokens,
		OutputTokens: u.OutputTokens,
	}
	if a.calc != nil {
		out.CostUSD = a.calc.Claude(a.params.Model, u.InputTokens, u.OutputTokens, u.CacheCreationInputTokens, u.CacheReadInputTokens)
	}
	return out, nil
}

// GeminiCompleter judges through the Gemini API in JSON response mode.
type GeminiCompleter struct {
	client gemini.Client
	params CompletionParams
	calc   *cost.Calculator
}

// NewGeminiCompleter creates a GeminiCompleter.
func NewGeminiCompleter(client gemini.Client, params CompletionParams, calc *cost.Calculator) *GeminiCompleter {
	return &GeminiCompleter{client: client, params: params, calc: calc}
}

// Name implements Completer.
func (g *GeminiCompleter) Name() string { return BackendGemini }

// Complete implements Completer.
func (g *GeminiCompleter) Complete(ctx context.Context, system, user string) (Completion, error) {
	temp := float32(g.params.Temperature)
	resp, err := g.client.Generate(ctx, gemini.GenerateRequest{
		Model:           g.params.Model,
		System:          system,
		Prompt:          user,
		Temperature:     &temp,
		MaxOutputTokens: int32(g.params.MaxTokens),
		JSON:            true,
	})
	if err != nil {
		return Completion{}, resilience.FromStatus(err, gemini.StatusCode(err))
	}

	out := Completion{
		Text:         resp.Text,
		Model:        g.params.Model,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
	}
	if g.calc != nil {
		out.CostUSD = g.calc.Gemini(g.params.Model, resp.InputTokens, resp.OutputTokens)
	}
	return out, nil
}
