package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/bookvalue/internal/config"
)

// defaultCheckInterval applies when monitoring.check_interval_secs is unset.
const defaultCheckInterval = 5 * time.Minute

// Checker watches recent scoring runs and raises alerts when the failure
// or degraded-judgment rates cross their thresholds.
type Checker struct {
	collector *Collector
	alerter   *Alerter
	cfg       config.MonitoringConfig
}

// NewChecker wires a run-health checker for the serve command.
func NewChecker(collector *Collector, alerter *Alerter, cfg config.MonitoringConfig) *Checker {
	return &Checker{collector: collector, alerter: alerter, cfg: cfg}
}

// Interval is the pause between run-health checks.
func (c *Checker) Interval() time.Duration {
	if c.cfg.CheckIntervalSecs <= 0 {
		return defaultCheckInterval
	}
	return time.Duration(c.cfg.CheckIntervalSecs) * time.Second
}

// Run checks run health once, then again every Interval until ctx is done.
func (c *Checker) Run(ctx context.Context) {
	every := c.Interval()
	zap.L().Info("monitoring: watching scoring runs",
		zap.Duration("every", every),
		zap.Int("lookback_hours", c.cfg.LookbackWindowHours),
		zap.Float64("failure_rate_threshold", c.cfg.FailureRateThreshold),
		zap.Float64("degraded_rate_threshold", c.cfg.DegradedRateThreshold),
	)

	if ctx.Err() == nil {
		c.Check(ctx)
	}

	tick := time.NewTicker(every)
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			c.Check(ctx)
		case <-ctx.Done():
			zap.L().Info("monitoring: run watch ended", zap.Error(ctx.Err()))
			return
		}
	}
}

// Check summarizes the runs inside the lookback window and posts an alert
// for every breached threshold. It returns the breaches found.
func (c *Checker) Check(ctx context.Context) []Alert {
	snap, err := c.collector.Collect(ctx, c.cfg.LookbackWindowHours)
	if err != nil {
		zap.L().Warn("monitoring: run summary unavailable", zap.Error(err))
		return nil
	}

	breaches := c.alerter.Evaluate(snap)
	fields := []zap.Field{
		zap.Int("runs", snap.RunsTotal),
		zap.Int("runs_failed", snap.RunsFailed),
		zap.Float64("fail_rate", snap.FailRate),
		zap.Int("judged", snap.Judged),
		zap.Float64("degraded_rate", snap.DegradedRate),
	}
	if len(breaches) == 0 {
		zap.L().Debug("monitoring: scoring runs healthy", fields...)
		return nil
	}

	kinds := make([]string, 0, len(breaches))
	for _, b := range breaches {
		kinds = append(kinds, string(b.Type))
	}
	delivered := c.alerter.SendAlerts(ctx, breaches)
	zap.L().Warn("monitoring: scoring run thresholds breached",
		append(fields,
			zap.Strings("breaches", kinds),
			zap.Int("delivered", delivered),
		)...,
	)
	return breaches
}
