package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ragsearch/internal/model"
)

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, token string) (*model.UserIdentity, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserIdentity), args.Error(1)
}
