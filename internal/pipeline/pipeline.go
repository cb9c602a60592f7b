// Package pipeline orchestrates one scoring run: normalize, match, score,
// select, judge, and aggregate.
package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bookvalue/internal/aggregate"
	"github.com/sells-group/bookvalue/internal/config"
	"github.com/sells-group/bookvalue/internal/judge"
	"github.com/sells-group/bookvalue/internal/match"
	"github.com/sells-group/bookvalue/internal/model"
	"github.com/sells-group/bookvalue/internal/normalize"
	"github.com/sells-group/bookvalue/internal/scorer"
	"github.com/sells-group/bookvalue/internal/store"
)

// Fatal run errors. Nothing is written when a run fails with one of these.
var (
	ErrEmptyInput      = eris.New("pipeline: both inputs are empty")
	ErrNoUsableRecords = eris.New("pipeline: no usable records")
)

// Input is the raw material of one run.
type Input struct {
	Supply []model.RawSupplyRecord
	Demand []model.RawDemandRecord
}

// Result is the outcome of one run.
type Result struct {
	RunID string
	Books []model.ScoredBook
	// Pool holds this run's pool entries, sorted by key.
	Pool []model.ObservationPoolEntry
	// Seen holds the ID of every normalized record, usable or not.
	Seen  map[string]bool
	Stats model.RunStats
}

// Pipeline runs batches against one judge and an optional run ledger.
type Pipeline struct {
	cfg     *config.Config
	scoring config.ScoringConfig
	store   store.RunStore
	judge   judge.Judge
	now     func() time.Time
}

// New creates a Pipeline. st may be nil to skip the run ledger. The
// scoring rulebook file, when configured, is loaded here.
func New(cfg *config.Config, st store.RunStore, j judge.Judge) (*Pipeline, error) {
	scoring := cfg.Scoring
	if scoring.RulebookPath != "" {
		loaded, err := scorer.LoadRulebook(scoring.RulebookPath, scoring)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: load rulebook")
		}
		scoring = loaded
	}
	if err := scorer.ValidateConfig(scoring); err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:     cfg,
		scoring: scoring,
		store:   st,
		judge:   j,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Run executes one batch.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Result, error) {
	runID, err := p.startRun(ctx)
	if err != nil {
		return nil, err
	}
	log := zap.L().With(zap.String("run_id", runID))
	log.Info("pipeline: starting run",
		zap.Int("supply", len(in.Supply)),
		zap.Int("demand", len(in.Demand)),
		zap.String("judge", p.judge.Backend()),
	)

	res, err := p.run(ctx, runID, in)
	if err != nil {
		p.failRun(ctx, runID, err)
		return nil, err
	}

	p.finishRun(ctx, res)
	log.Info("pipeline: run complete",
		zap.Int("books", len(res.Books)),
		zap.Int("judged", res.Stats.Judged),
		zap.Int("degraded", res.Stats.Degraded),
		zap.Int("pool", len(res.Pool)),
		zap.Float64("judge_cost_usd", res.Stats.JudgeCostUSD),
	)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, runID string, in Input) (*Result, error) {
	if len(in.Supply) == 0 && len(in.Demand) == 0 {
		return nil, ErrEmptyInput
	}
	now := p.now()

	res := &Result{
		RunID: runID,
		Seen:  make(map[string]bool, len(in.Supply)+len(in.Demand)),
		Stats: model.RunStats{SupplyIn: len(in.Supply), DemandIn: len(in.Demand)},
	}

	supply := p.usable(normalize.SupplyBatch(in.Supply), res, now)
	demand := p.usable(normalize.DemandBatch(in.Demand), res, now)
	if len(supply) == 0 && len(demand) == 0 {
		return nil, ErrNoUsableRecords
	}

	matched := match.New(p.cfg.Match.SimilarityThreshold).Match(supply, demand)
	records := matched.All()
	res.Stats.Matched = len(matched.Pairs)
	res.Stats.SupplyOnly = len(matched.SupplyOnly)
	res.Stats.DemandOnly = len(matched.DemandOnly)
	for i := range matched.Pairs {
		if matched.Pairs[i].Method == model.MatchISBN {
			res.Stats.MatchedISBN++
		}
	}
	zap.L().Info("pipeline: matched",
		zap.String("run_id", runID),
		zap.Int("pairs", res.Stats.Matched),
		zap.Int("isbn_pairs", res.Stats.MatchedISBN),
		zap.Int("supply_only", res.Stats.SupplyOnly),
		zap.Int("demand_only", res.Stats.DemandOnly),
	)

	scores := scorer.New(p.scoring, now).Score(records)
	res.Stats.Scored = len(scores)

	selected := aggregate.SelectTop(records, scores, p.cfg.Judge.TopPct, p.cfg.Judge.MaxJudged)
	candidates := make([]judge.Candidate, len(selected))
	for i, idx := range selected {
		candidates[i] = judge.Candidate{Record: &records[idx], Structured: scores[records[idx].ID]}
	}
	judgments := p.judge.Judge(ctx, candidates)
	res.Stats.Judged = len(judgments)
	for _, j := range judgments {
		if j.Degraded {
			res.Stats.Degraded++
		}
		res.Stats.InputTokens += j.InputTokens
		res.Stats.OutputTokens += j.OutputTokens
		res.Stats.JudgeCostUSD += j.CostUSD
	}

	agg := aggregate.New(p.cfg.Blend, p.cfg.Tiers, p.cfg.Judge.MinConfidence).
		Aggregate(records, scores, judgments, runID, now)
	res.Books = agg.Books
	res.Pool = append(res.Pool, agg.Pool...)
	sort.SliceStable(res.Pool, func(i, j int) bool { return res.Pool[i].Key() < res.Pool[j].Key() })

	res.Stats.PoolSize = len(res.Pool)
	res.Stats.Tiers = make(map[string]int, 3)
	for i := range res.Books {
		res.Stats.Tiers[res.Books[i].Tier.String()]++
	}
	return res, nil
}

// usable records every normalized ID as seen and routes records with
// neither title nor ISBN to the pool.
func (p *Pipeline) usable(records []model.NormalizedBookRecord, res *Result, now time.Time) []model.NormalizedBookRecord {
	out := records[:0]
	for i := range records {
		rec := records[i]
		res.Seen[rec.ID] = true
		if !rec.Usable() {
			res.Stats.Unusable++
			res.Pool = append(res.Pool, aggregate.UnusableEntry(&rec, res.RunID, now))
			continue
		}
		out = append(out, rec)
	}
	return out
}

func (p *Pipeline) startRun(ctx context.Context) (string, error) {
	if p.store == nil {
		return uuid.New().String(), nil
	}
	run, err := p.store.CreateRun(ctx, p.judge.Backend())
	if err != nil {
		return "", eris.Wrap(err, "pipeline: create run")
	}
	return run.ID, nil
}

func (p *Pipeline) failRun(ctx context.Context, runID string, cause error) {
	zap.L().Error("pipeline: run failed", zap.String("run_id", runID), zap.Error(cause))
	if p.store == nil {
		return
	}
	if err := p.store.FailRun(ctx, runID, cause.Error()); err != nil {
		zap.L().Warn("pipeline: failed to record run failure", zap.String("run_id", runID), zap.Error(err))
	}
}

func (p *Pipeline) finishRun(ctx context.Context, res *Result) {
	if p.store == nil {
		return
	}
	if err := p.store.SaveScoredBooks(ctx, res.RunID, res.Books); err != nil {
		zap.L().Warn("pipeline: failed to save scored books", zap.String("run_id", res.RunID), zap.Error(err))
	}
	if err := p.store.CompleteRun(ctx, res.RunID, res.Stats); err != nil {
		zap.L().Warn("pipeline: failed to complete run", zap.String("run_id", res.RunID), zap.Error(err))
	}
}
