package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ragsearch/internal/model"
	"ragsearch/internal/service"
)

type MockFileService struct {
	mock.Mock
}

func (m *MockFileService) Upload(ctx context.Context, owner string, in service.UploadInput) (*service.UploadResult, error) {
	args := m.Called(ctx, owner, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UploadResult), args.Error(1)
}

func (m *MockFileService) List(ctx context.Context, owner string) ([]model.FileRecord, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FileRecord), args.Error(1)
}

func (m *MockFileService) Storage(ctx context.Context, owner string) (*model.StorageAccount, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StorageAccount), args.Error(1)
}

func (m *MockFileService) Reindex(ctx context.Context, owner string) (*service.ReindexResult, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReindexResult), args.Error(1)
}

type MockPromptService struct {
	mock.Mock
}

func (m *MockPromptService) Answer(ctx context.Context, owner, prompt string, sel model.Selection) (*service.PromptResult, error) {
	args := m.Called(ctx, owner, prompt, sel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PromptResult), args.Error(1)
}
