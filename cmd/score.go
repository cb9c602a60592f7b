package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/bookvalue/internal/config"
	"github.com/sells-group/bookvalue/internal/fetcher"
	"github.com/sells-group/bookvalue/internal/judge"
	"github.com/sells-group/bookvalue/internal/pipeline"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score one batch of supply and demand records",
	Long: `Loads the supply and demand JSON arrays, runs normalization, matching,
structured scoring, judging of the top slice, and aggregation, then writes
the scored book list, merges the observation pool, and prepends the run to
the markdown run log.

Either source may be a local path or an http(s) URL. One side may be
omitted; both may not.

Examples:
  # Score with the offline judge
  bookvalue score --supply data/supply.json --demand data/demand.json --offline

  # Write CSV to a custom directory
  bookvalue score --supply data/supply.json --format csv --out-dir reports`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := applyScoreFlags(cmd, cfg); err != nil {
			return err
		}
		return runScore(ctx, cfg, os.Stdout)
	},
}

func init() {
	f := scoreCmd.Flags()
	f.String("supply", "", "supply records: JSON array path or URL (default input.supply_path)")
	f.String("demand", "", "demand records: JSON array path or URL (default input.demand_path)")
	f.String("out-dir", "", "output directory (default output.dir)")
	f.String("format", "", "scored list format: json or csv (default output.format)")
	f.String("pool", "", "observation pool file (default output.pool_path)")
	f.Bool("offline", false, "use the deterministic offline judge")
	f.Float64("top-pct", 0, "fraction of scored records sent to the judge (default judge.top_pct)")
	rootCmd.AddCommand(scoreCmd)
}

// applyScoreFlags overlays explicitly set flags onto c.
func applyScoreFlags(cmd *cobra.Command, c *config.Config) error {
	f := cmd.Flags()
	strs := map[string]*string{
		"supply":  &c.Input.SupplyPath,
		"demand":  &c.Input.DemandPath,
		"out-dir": &c.Output.Dir,
		"format":  &c.Output.Format,
		"pool":    &c.Output.PoolPath,
	}
	for name, dst := range strs {
		if !f.Changed(name) {
			continue
		}
		v, err := f.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}
	if f.Changed("offline") {
		if off, _ := f.GetBool("offline"); off {
			c.Judge.Provider = judge.BackendOffline
		}
	}
	if f.Changed("top-pct") {
		v, err := f.GetFloat64("top-pct")
		if err != nil {
			return err
		}
		c.Judge.TopPct = v
	}
	return nil
}

// runScore executes one batch end to end and prints a summary to w.
func runScore(ctx context.Context, c *config.Config, w io.Writer) error {
	env, err := initScoring(ctx, c, "score")
	if err != nil {
		return err
	}
	defer env.Close()

	opener := fetcher.NewOpener(time.Duration(c.Input.TimeoutSecs) * time.Second)
	in, err := pipeline.LoadInput(ctx, opener, c.Input.SupplyPath, c.Input.DemandPath)
	if err != nil {
		return err
	}

	res, err := env.Pipeline.Run(ctx, in)
	if err != nil {
		return err
	}

	art, err := pipeline.Publish(res, c.Output)
	if err != nil {
		return err
	}

	formatScoreSummary(w, env.Judge.Backend(), res, art)
	return nil
}

// formatScoreSummary writes a short run report to out.
func formatScoreSummary(out io.Writer, backend string, res *pipeline.Result, art *pipeline.Artifacts) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	s := res.Stats
	_, _ = fmt.Fprintf(w, "Run:\t%s\n", res.RunID)
	_, _ = fmt.Fprintf(w, "Judge:\t%s\n", backend)
	_, _ = fmt.Fprintf(w, "Input:\t%d supply, %d demand, %d unusable\n", s.SupplyIn, s.DemandIn, s.Unusable)
	_, _ = fmt.Fprintf(w, "Matched:\t%d (%d by ISBN)\n", s.Matched, s.MatchedISBN)
	_, _ = fmt.Fprintf(w, "Scored:\t%d\n", s.Scored)
	_, _ = fmt.Fprintf(w, "Judged:\t%d (%d degraded)\n", s.Judged, s.Degraded)
	if s.JudgeCostUSD > 0 {
		_, _ = fmt.Fprintf(w, "Judge cost:\t$%.4f\n", s.JudgeCostUSD)
	}

	tiers := make([]string, 0, len(s.Tiers))
	for t := range s.Tiers {
		tiers = append(tiers, t)
	}
	sort.Strings(tiers)
	for _, t := range tiers {
		_, _ = fmt.Fprintf(w, "  %s:\t%d\n", t, s.Tiers[t])
	}

	if art != nil {
		_, _ = fmt.Fprintf(w, "Scored list:\t%s\n", art.ScoredPath)
		if art.PoolPath != "" {
			_, _ = fmt.Fprintf(w, "Pool:\t%s (%d entries)\n", art.PoolPath, art.PoolSize)
		}
		if art.RunLogPath != "" {
			_, _ = fmt.Fprintf(w, "Run log:\t%s\n", art.RunLogPath)
		}
	}
	_ = w.Flush()
}
