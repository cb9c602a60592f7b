package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bookvalue/internal/config"
	"github.com/sells-group/bookvalue/internal/judge"
	"github.com/sells-group/bookvalue/internal/pipeline"
	"github.com/sells-group/bookvalue/internal/store"
)

// scoreEnv holds the ledger, judge, and pipeline needed by the score and
// serve commands.
type scoreEnv struct {
	Store    store.RunStore // nil when store.driver is none
	Judge    judge.Judge
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the environment.
func (e *scoreEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initScoring validates c for mode, opens the run ledger, builds the judge,
// and assembles the pipeline. Callers should defer env.Close().
func initScoring(ctx context.Context, c *config.Config, mode string) (*scoreEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, c.Store)
	if err != nil {
		return nil, err
	}
	env := &scoreEnv{Store: st}

	env.Judge, err = judge.New(ctx, c)
	if err != nil {
		env.Close()
		return nil, err
	}

	env.Pipeline, err = pipeline.New(c, st, env.Judge)
	if err != nil {
		env.Close()
		return nil, eris.Wrap(err, "init pipeline")
	}
	return env, nil
}

// openLedger opens the run ledger for read-only commands.
func openLedger(ctx context.Context, c *config.Config) (store.RunStore, error) {
	if err := c.Validate("read"); err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, c.Store)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, eris.New("run ledger is disabled (store.driver=none)")
	}
	return st, nil
}
