package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/bookvalue/internal/judge"
	"github.com/sells-group/bookvalue/internal/model"
)

// --- Completer Mock ---

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, system, user string) (judge.Completion, error) {
	args := m.Called(ctx, system, user)
	return args.Get(0).(judge.Completion), args.Error(1)
}

func (m *mockCompleter) Name() string {
	return m.Called().String(0)
}

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateRun(ctx context.Context, backend string) (*model.Run, error) {
	args := m.Called(ctx, backend)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) CompleteRun(ctx context.Context, runID string, stats model.RunStats) error {
	return m.Called(ctx, runID, stats).Error(0)
}

func (m *mockStore) FailRun(ctx context.Context, runID string, reason string) error {
	return m.Called(ctx, runID, reason).Error(0)
}

func (m *mockStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) ListRuns(ctx context.Context, filter model.RunFilter) ([]model.Run, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Run), args.Error(1)
}

func (m *mockStore) SaveScoredBooks(ctx context.Context, runID string, books []model.ScoredBook) error {
	return m.Called(ctx, runID, books).Error(0)
}

func (m *mockStore) ListScoredBooks(ctx context.Context, runID string) ([]model.ScoredBook, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ScoredBook), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}
