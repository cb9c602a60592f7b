package pipeline

import (
	"go.uber.org/zap"

	"github.com/sells-group/bookvalue/internal/config"
	"github.com/sells-group/bookvalue/internal/output"
	"github.com/sells-group/bookvalue/internal/pool"
)

// Artifacts lists the files written for one run.
type Artifacts struct {
	ScoredPath string `json:"scored_path"`
	PoolPath   string `json:"pool_path"`
	PoolSize   int    `json:"pool_size"`
	RunLogPath string `json:"run_log_path,omitempty"`
}

// Publish writes the scored book list, merges this run's entries into the
// observation pool file, and prepends the run to the markdown run log when
// one is configured.
func Publish(res *Result, cfg config.OutputConfig) (*Artifacts, error) {
	scoredPath, err := output.WriteScored(cfg.Dir, cfg.Format, res.Books)
	if err != nil {
		return nil, err
	}
	art := &Artifacts{ScoredPath: scoredPath}

	if cfg.PoolPath != "" {
		merged, err := pool.NewFile(cfg.PoolPath).Update(res.Pool, res.Seen)
		if err != nil {
			return nil, err
		}
		art.PoolPath = cfg.PoolPath
		art.PoolSize = len(merged)
	}

	if cfg.RunLogPath != "" {
		if err := output.PrependRunLog(cfg.RunLogPath, res.RunID, res.Books); err != nil {
			return nil, err
		}
		art.RunLogPath = cfg.RunLogPath
	}

	zap.L().Info("pipeline: artifacts written",
		zap.String("run_id", res.RunID),
		zap.String("scored", art.ScoredPath),
		zap.String("pool", art.PoolPath),
		zap.Int("pool_size", art.PoolSize),
	)
	return art, nil
}
