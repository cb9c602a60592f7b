package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/bookvalue/internal/model"
	"github.com/sells-group/bookvalue/internal/monitoring"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	done := now.Add(2 * time.Minute)
	runs := []model.Run{
		{
			ID:           "abc12345-6789-0000-0000-000000000000",
			Status:       model.RunStatusComplete,
			JudgeBackend: "offline",
			Stats:        model.RunStats{Scored: 11, Judged: 1},
			StartedAt:    now,
			FinishedAt:   &done,
		},
		{
			ID:           "def12345-6789-0000-0000-000000000000",
			Status:       model.RunStatusRunning,
			JudgeBackend: "anthropic",
			StartedAt:    now.Add(-time.Hour),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	out := buf.String()
	assert.Contains(t, out, "STATUS")
	assert.Contains(t, out, "abc12345")
	assert.NotContains(t, out, "abc12345-6789")
	assert.Contains(t, out, "complete")
	assert.Contains(t, out, "running")
	assert.Contains(t, out, "anthropic")
	assert.Contains(t, out, "2026-03-01 10:30")
	assert.Contains(t, out, "2m0s")
}

func TestFormatBooksList(t *testing.T) {
	books := []model.ScoredBook{{
		Record: model.MatchedBookRecord{
			ID:     "supply:1",
			Supply: &model.NormalizedBookRecord{Title: "万历十五年", Author: "黄仁宇"},
			Method: model.MatchISBN,
		},
		FinalScore: 86.5,
		Tier:       model.TierHighPotential,
	}}

	var buf bytes.Buffer
	formatBooksList(&buf, books)

	out := buf.String()
	assert.Contains(t, out, "86.50")
	assert.Contains(t, out, "high-potential")
	assert.Contains(t, out, "isbn")
	assert.Contains(t, out, "万历十五年")
	assert.Contains(t, out, "黄仁宇")
}

func TestFormatRunStats(t *testing.T) {
	var buf bytes.Buffer
	formatRunStats(&buf, &monitoring.MetricsSnapshot{
		RunsTotal:    4,
		RunsComplete: 3,
		RunsFailed:   1,
		FailRate:     0.25,
		Scored:       120,
		Judged:       12,
		Degraded:     2,
		Tiers:        map[string]int{"high-potential": 3, "watch": 9, "reading": 108},
		JudgeCostUSD: 0.0421,
		AvgDurSecs:   12.5,
	})

	out := buf.String()
	assert.Contains(t, out, "Total runs:")
	assert.Contains(t, out, "(25.0%)")
	assert.Contains(t, out, "12 (2 degraded)")
	assert.Contains(t, out, "high-potential:")
	assert.Contains(t, out, "108")
	assert.Contains(t, out, "$0.0421")
	assert.Contains(t, out, "12.5s")
}

func TestFilterTier(t *testing.T) {
	books := []model.ScoredBook{
		{Record: model.MatchedBookRecord{ID: "a"}, Tier: model.TierWatch},
		{Record: model.MatchedBookRecord{ID: "b"}, Tier: model.TierReading},
	}

	assert.Len(t, filterTier(books, nil), 2)

	watch := model.TierWatch
	got := filterTier(books, &watch)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Record.ID)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789"))
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "中国", truncateRunes("中国", 5))
	assert.Equal(t, "中华人…", truncateRunes("中华人民共和国", 4))
}
