package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bookvalue/internal/config"
)

// Open creates and migrates the configured store. It returns nil when the
// driver is "none".
func Open(ctx context.Context, cfg config.StoreConfig) (RunStore, error) {
	var (
		st  RunStore
		err error
	)
	switch cfg.Driver {
	case "none":
		return nil, nil
	case "sqlite", "":
		st, err = NewSQLite(cfg.DatabaseURL)
	case "postgres":
		st, err = NewPostgres(ctx, cfg.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}
