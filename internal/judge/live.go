package judge

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/bookvalue/internal/config"
	"github.com/sells-group/bookvalue/internal/model"
	"github.com/sells-group/bookvalue/internal/resilience"
)

// Live judges candidates through a network model backend.
type Live struct {
	completer   Completer
	concurrency int
	timeout     time.Duration
	limiter     *rate.Limiter
	retry       resilience.RetryConfig
	breaker     *resilience.CircuitBreaker
}

// NewLive creates a live judge over completer using the judge settings.
func NewLive(completer Completer, cfg config.JudgeConfig) *Live {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}

	breakerCfg := resilience.CircuitFromConfig(cfg.Circuit)
	breakerCfg.ShouldTrip = resilience.IsTransient
	breakerCfg.OnStateChange = func(from, to resilience.CircuitState) {
		zap.L().Warn("judge: circuit state changed",
			zap.String("backend", completer.Name()),
			zap.Stringer("from", from),
			zap.Stringer("to", to),
		)
	}

	return &Live{
		completer:   completer,
		concurrency: concurrency,
		timeout:     timeout,
		limiter:     rate.NewLimiter(limit, 1),
		retry:       resilience.RetryFromConfig(cfg.Retry),
		breaker:     resilience.NewCircuitBreaker(breakerCfg),
	}
}

// Backend implements Judge.
func (l *Live) Backend() string { return l.completer.Name() }

// Judge implements Judge. Each candidate writes only its own result slot.
func (l *Live) Judge(ctx context.Context, candidates []Candidate) map[string]model.LLMJudgment {
	results := make([]model.LLMJudgment, len(candidates))

	var g errgroup.Group
	g.SetLimit(l.concurrency)
	for i := range candidates {
		g.Go(func() error {
			results[i] = l.judgeOne(ctx, candidates[i])
			return nil
		})
	}
	_ = g.Wait()

	return collect(l.Backend(), candidates, results)
}

func (l *Live) judgeOne(ctx context.Context, c Candidate) model.LLMJudgment {
	id := c.Record.ID
	payload, err := BuildPayload(c).Encode()
	if err != nil {
		return l.degrade(id, model.NeutralJudgment(err.Error()), err)
	}
	user := UserPrompt(payload)

	retry := l.retry
	retry.OnRetry = resilience.RetryLogger(l.completer.Name(), id)

	attempts := 0
	comp, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (Completion, error) {
		attempts++
		if err := l.limiter.Wait(ctx); err != nil {
			return Completion{}, err
		}
		return resilience.ExecuteVal(ctx, l.breaker, func(ctx context.Context) (Completion, error) {
			callCtx, cancel := context.WithTimeout(ctx, l.timeout)
			defer cancel()
			return l.completer.Complete(callCtx, SystemPrompt, user)
		})
	})
	if err != nil {
		j := model.NeutralJudgment("judge transport failed: " + err.Error())
		j.Attempts = attempts
		return l.degrade(id, j, err)
	}

	j, err := Parse(comp.Text)
	if err != nil {
		j = model.NeutralJudgment("judge response rejected: " + err.Error())
	}
	j.Backend = l.completer.Name()
	j.Model = comp.Model
	j.Attempts = attempts
	j.InputTokens = int(comp.InputTokens)
	j.OutputTokens = int(comp.OutputTokens)
	j.CostUSD = comp.CostUSD
	if err != nil {
		return l.degrade(id, j, err)
	}
	return j
}

func (l *Live) degrade(id string, j model.LLMJudgment, err error) model.LLMJudgment {
	zap.L().Warn("judge: degraded judgment",
		zap.String("record_id", id),
		zap.String("backend", l.completer.Name()),
		zap.String("class", resilience.Classify(err)),
		zap.Int("attempts", j.Attempts),
		zap.Error(err),
	)
	j.Backend = l.completer.Name()
	return j
}
