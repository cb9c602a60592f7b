package api

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/bookvalue/internal/pipeline"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, in pipeline.Input) (*pipeline.Result, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipeline.Result), args.Error(1)
}
