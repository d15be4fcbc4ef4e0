package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ragsearch/internal/search"
)

type MockIndex struct {
	mock.Mock
}

func (m *MockIndex) Index(ctx context.Context, req search.IndexRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockIndex) Query(ctx context.Context, prompt string, refs []string) (search.Answer, error) {
	args := m.Called(ctx, prompt, refs)
	return args.Get(0).(search.Answer), args.Error(1)
}
