package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bookvalue/internal/fetcher"
	"github.com/sells-group/bookvalue/internal/model"
)

// LoadInput reads the supply and demand arrays from local paths or URLs.
// An empty source yields an empty array.
func LoadInput(ctx context.Context, opener *fetcher.Opener, supplySrc, demandSrc string) (Input, error) {
	var (
		in  Input
		err error
	)
	if supplySrc != "" {
		in.Supply, err = readArray[model.RawSupplyRecord](ctx, opener, supplySrc)
		if err != nil {
			return in, eris.Wrap(err, "pipeline: load supply")
		}
	}
	if demandSrc != "" {
		in.Demand, err = readArray[model.RawDemandRecord](ctx, opener, demandSrc)
		if err != nil {
			return in, eris.Wrap(err, "pipeline: load demand")
		}
	}

	zap.L().Info("pipeline: input loaded",
		zap.String("supply_source", supplySrc),
		zap.Int("supply", len(in.Supply)),
		zap.String("demand_source", demandSrc),
		zap.Int("demand", len(in.Demand)),
	)
	return in, nil
}

func readArray[T any](ctx context.Context, opener *fetcher.Opener, src string) ([]T, error) {
	r, err := opener.Open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer r.Close() //nolint:errcheck

	return fetcher.ReadJSONArray[T](ctx, r)
}
