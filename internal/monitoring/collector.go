// Package monitoring summarizes recent scoring runs from the run ledger and
// raises webhook alerts when failure, degradation, or cost thresholds are
// breached.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bookvalue/internal/model"
)

// scanLimit bounds how many runs one collection reads.
const scanLimit = 10000

// MetricsSnapshot holds a point-in-time view of run health.
type MetricsSnapshot struct {
	RunsTotal    int     `json:"runs_total"`
	RunsComplete int     `json:"runs_complete"`
	RunsFailed   int     `json:"runs_failed"`
	RunsRunning  int     `json:"runs_running"`
	FailRate     float64 `json:"fail_rate"`

	// Totals over complete runs.
	Scored       int            `json:"scored"`
	Judged       int            `json:"judged"`
	Degraded     int            `json:"degraded"`
	DegradedRate float64        `json:"degraded_rate"`
	JudgeCostUSD float64        `json:"judge_cost_usd"`
	Tiers        map[string]int `json:"tiers"`
	AvgDurSecs   float64        `json:"avg_duration_secs"`

	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// RunLister is the slice of the run ledger the collector reads.
type RunLister interface {
	ListRuns(ctx context.Context, filter model.RunFilter) ([]model.Run, error)
}

// Collector gathers metrics from the run ledger.
type Collector struct {
	runs RunLister
	now  func() time.Time
}

// NewCollector creates a new metrics collector.
func NewCollector(runs RunLister) *Collector {
	return &Collector{runs: runs, now: func() time.Time { return time.Now().UTC() }}
}

// Collect summarizes runs started within the lookback window. A
// non-positive lookback covers every run.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	now := c.now()
	snap := &MetricsSnapshot{
		Tiers:         map[string]int{},
		LookbackHours: lookbackHours,
		CollectedAt:   now,
	}

	runs, err := c.runs.ListRuns(ctx, model.RunFilter{Limit: scanLimit})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	var cutoff time.Time
	if lookbackHours > 0 {
		cutoff = now.Add(-time.Duration(lookbackHours) * time.Hour)
	}

	var totalDur time.Duration
	var durCount int
	for _, r := range runs {
		if r.StartedAt.Before(cutoff) {
			continue
		}
		snap.RunsTotal++

		switch r.Status {
		case model.RunStatusComplete:
			snap.RunsComplete++
			snap.Scored += r.Stats.Scored
			snap.Judged += r.Stats.Judged
			snap.Degraded += r.Stats.Degraded
			snap.JudgeCostUSD += r.Stats.JudgeCostUSD
			for tier, n := range r.Stats.Tiers {
				snap.Tiers[tier] += n
			}
			if r.FinishedAt != nil {
				totalDur += r.FinishedAt.Sub(r.StartedAt)
				durCount++
			}
		case model.RunStatusFailed:
			snap.RunsFailed++
		case model.RunStatusRunning:
			snap.RunsRunning++
		}
	}

	if finished := snap.RunsComplete + snap.RunsFailed; finished > 0 {
		snap.FailRate = float64(snap.RunsFailed) / float64(finished)
	}
	if snap.Judged > 0 {
		snap.DegradedRate = float64(snap.Degraded) / float64(snap.Judged)
	}
	if durCount > 0 {
		snap.AvgDurSecs = totalDur.Seconds() / float64(durCount)
	}

	return snap, nil
}
