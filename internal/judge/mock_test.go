package judge

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/bookvalue/pkg/anthropic"
	"github.com/sells-group/bookvalue/pkg/gemini"
)

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, system, user string) (Completion, error) {
	args := m.Called(ctx, system, user)
	return args.Get(0).(Completion), args.Error(1)
}

func (m *mockCompleter) Name() string { return "mock" }

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

type mockGeminiClient struct {
	mock.Mock
}

func (m *mockGeminiClient) Generate(ctx context.Context, req gemini.GenerateRequest) (*gemini.GenerateResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gemini.GenerateResponse), args.Error(1)
}
