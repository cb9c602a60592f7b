package pipeline

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/bookvalue/internal/config"
	"github.com/sells-group/bookvalue/internal/judge"
	"github.com/sells-group/bookvalue/internal/model"
	"github.com/sells-group/bookvalue/internal/store"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{}
	cfg.Judge = config.JudgeConfig{
		Provider:      "offline",
		TopPct:        0.10,
		Concurrency:   2,
		TimeoutSecs:   5,
		MinConfidence: 0.5,
		Retry:         config.RetryConfig{MaxAttempts: 1, InitialBackoffMs: 1, MaxBackoffMs: 1, Multiplier: 1},
		Circuit:       config.CircuitConfig{FailureThreshold: 5, ResetTimeoutSecs: 30},
	}
	cfg.Match.SimilarityThreshold = 0.85
	cfg.Scoring = config.DefaultScoring()
	cfg.Blend = config.BlendConfig{StructuredWeight: 0.5, ClassicWeight: 0.3, EraIPWeight: 0.2}
	cfg.Tiers = config.TierConfig{Watch: 60, HighPotential: 80}
	cfg.Output = config.OutputConfig{
		Dir:        dir,
		Format:     "json",
		PoolPath:   dir + "/observation_pool.json",
		RunLogPath: dir + "/book.md",
	}
	return cfg
}

func newTestPipeline(t *testing.T, cfg *config.Config, st store.RunStore, j judge.Judge) *Pipeline {
	t.Helper()
	p, err := New(cfg, st, j)
	require.NoError(t, err)
	p.now = func() time.Time { return testNow }
	return p
}

// premiumInput is one first-edition, first-print signed hardcover matched by
// ISBN to the most-rated demand record, plus ten ordinary demand-only books.
func premiumInput() Input {
	in := Input{
		Supply: []model.RawSupplyRecord{{
			"sku":                 "100012",
			"title":               "万历十五年",
			"author":              "黄仁宇",
			"isbn":                "978-7-108-00982-1",
			"print_info":          "1997年5月第1版第1次印刷",
			"binding":             "精装",
			"price_now":           "¥88.00",
			"price_list":          68,
			"stock_status":        "缺货",
			"is_limited":          true,
			"is_signed":           true,
			"second_hand_premium": true,
		}},
		Demand: []model.RawDemandRecord{{
			"id":              "1041482",
			"title":           "万历十五年",
			"author":          "黄仁宇",
			"isbn":            "9787108009821",
			"rating":          8.9,
			"rating_count":    123456,
			"tags":            []any{"历史", "政治哲学", "经典"},
			"awards":          []any{"茅盾文学奖"},
			"review_keywords": []any{"经典", "必读"},
			"adapted":         true,
		}},
	}
	for i := 0; i < 10; i++ {
		in.Demand = append(in.Demand, model.RawDemandRecord{
			"id":           fmt.Sprintf("f%02d", i),
			"title":        fmt.Sprintf("普通读物第%d册", i),
			"author":       "佚名",
			"rating_count": 10 * (i + 1),
		})
	}
	return in
}

func findBook(books []model.ScoredBook, id string) *model.ScoredBook {
	for i := range books {
		if books[i].Record.ID == id {
			return &books[i]
		}
	}
	return nil
}

func poolKeys(entries []model.ObservationPoolEntry) []string {
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key()
	}
	return keys
}
