package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/bookvalue/internal/model"
	"github.com/sells-group/bookvalue/internal/pool"
)

var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Show the observation pool",
	Long:  "Lists records set aside for later review, with the reason and how many runs have seen them.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("file")
		if path == "" {
			path = cfg.Output.PoolPath
		}
		if path == "" {
			return eris.New("pool: no pool file configured (output.pool_path)")
		}
		reason, _ := cmd.Flags().GetString("reason")

		entries, err := pool.NewFile(path).Load()
		if err != nil {
			return err
		}
		entries = filterReason(entries, model.ReasonCode(reason))
		if len(entries) == 0 {
			fmt.Fprintln(os.Stderr, "Observation pool is empty.")
			return nil
		}

		formatPool(os.Stdout, entries)
		return nil
	},
}

func init() {
	poolCmd.Flags().String("file", "", "pool file (default output.pool_path)")
	poolCmd.Flags().String("reason", "", "filter by reason (unmatched, not-selected, degraded-judgment, low-confidence, unusable)")
	rootCmd.AddCommand(poolCmd)
}

func filterReason(entries []model.ObservationPoolEntry, reason model.ReasonCode) []model.ObservationPoolEntry {
	if reason == "" {
		return entries
	}
	var out []model.ObservationPoolEntry
	for _, e := range entries {
		if e.Reason == reason {
			out = append(out, e)
		}
	}
	return out
}

// formatPool writes a tabular view of pool entries to w.
func formatPool(out io.Writer, entries []model.ObservationPoolEntry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RECORD\tREASON\tSEEN\tLAST_SEEN\tTITLE\tDETAIL")
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			e.RecordID,
			e.Reason,
			e.SeenCount,
			e.LastSeen.Format("2006-01-02"),
			truncateRunes(e.Title, 30),
			e.Detail,
		)
	}
	_ = w.Flush()
}
