package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/bookvalue/internal/config"
	"github.com/sells-group/bookvalue/internal/model"
	"github.com/sells-group/bookvalue/internal/pool"
	"github.com/sells-group/bookvalue/internal/store"
)

func scoreConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	c := &config.Config{}
	c.Store = config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(dir, "ledger.db")}
	c.Input = config.InputConfig{
		SupplyPath:  writeJSON(t, dir, "supply.json", []map[string]any{{"sku": "1", "title": "乡土中国", "author": "费孝通", "isbn": "9787108009821"}}),
		DemandPath:  writeJSON(t, dir, "demand.json", []map[string]any{{"id": "9", "title": "乡土中国", "author": "费孝通", "isbn": "9787108009821", "rating": 9.2, "rating_count": 50000}}),
		TimeoutSecs: 5,
	}
	c.Output = config.OutputConfig{
		Dir:        filepath.Join(dir, "out"),
		Format:     "json",
		PoolPath:   filepath.Join(dir, "out", "observation_pool.json"),
		RunLogPath: filepath.Join(dir, "out", "book.md"),
	}
	c.Judge = config.JudgeConfig{
		Provider:      "offline",
		TopPct:        1,
		Concurrency:   1,
		TimeoutSecs:   5,
		MinConfidence: 0.5,
		Retry:         config.RetryConfig{MaxAttempts: 1, InitialBackoffMs: 1, MaxBackoffMs: 1, Multiplier: 1},
		Circuit:       config.CircuitConfig{FailureThreshold: 5, ResetTimeoutSecs: 30},
	}
	c.Match.SimilarityThreshold = 0.85
	c.Scoring = config.DefaultScoring()
	c.Blend = config.BlendConfig{StructuredWeight: 0.5, ClassicWeight: 0.3, EraIPWeight: 0.2}
	c.Tiers = config.TierConfig{Watch: 60, HighPotential: 80}
	return c
}

func writeJSON(t *testing.T, dir, name string, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, b, 0o644))
	return path
}

func TestRunScore(t *testing.T) {
	c := scoreConfig(t)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, runScore(ctx, c, &buf))

	out := buf.String()
	assert.Contains(t, out, "Judge:")
	assert.Contains(t, out, "offline")
	assert.Contains(t, out, "Matched:")
	assert.FileExists(t, filepath.Join(c.Output.Dir, "books_scored.json"))
	assert.FileExists(t, c.Output.RunLogPath)

	entries, err := pool.NewFile(c.Output.PoolPath).Load()
	require.NoError(t, err)
	assert.Empty(t, entries, "a matched, judged record should not be pooled")

	st, err := store.Open(ctx, c.Store)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	runs, err := st.ListRuns(ctx, model.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusComplete, runs[0].Status)
	assert.Equal(t, "offline", runs[0].JudgeBackend)

	books, err := st.ListScoredBooks(ctx, runs[0].ID)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, model.MatchISBN, books[0].Record.Method)
}

func TestRunScore_EmptyInput(t *testing.T) {
	c := scoreConfig(t)
	c.Input.SupplyPath = ""
	c.Input.DemandPath = ""

	err := runScore(context.Background(), c, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both inputs are empty")
	assert.NoFileExists(t, filepath.Join(c.Output.Dir, "books_scored.json"))
}

func TestRunScore_InvalidConfig(t *testing.T) {
	c := scoreConfig(t)
	c.Output.Format = "xml"

	err := runScore(context.Background(), c, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output.format")
}

func TestApplyScoreFlags(t *testing.T) {
	c := scoreConfig(t)
	c.Judge.Provider = "auto"

	cmd := &cobra.Command{}
	cmd.Flags().AddFlagSet(scoreCmd.Flags())
	require.NoError(t, cmd.Flags().Parse([]string{
		"--supply", "s.json",
		"--format", "csv",
		"--offline",
		"--top-pct", "0.25",
	}))
	t.Cleanup(func() {
		for _, name := range []string{"supply", "format", "offline", "top-pct"} {
			f := scoreCmd.Flags().Lookup(name)
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})

	prevDemand := c.Input.DemandPath
	require.NoError(t, applyScoreFlags(cmd, c))

	assert.Equal(t, "s.json", c.Input.SupplyPath)
	assert.Equal(t, prevDemand, c.Input.DemandPath)
	assert.Equal(t, "csv", c.Output.Format)
	assert.Equal(t, "offline", c.Judge.Provider)
	assert.InDelta(t, 0.25, c.Judge.TopPct, 1e-9)
}
