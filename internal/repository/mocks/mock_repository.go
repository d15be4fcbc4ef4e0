package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"ragsearch/internal/model"
)

// MockTransactor runs fn directly, after recording the call.
type MockTransactor struct {
	mock.Mock
}

func (m *MockTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx)
}

type MockFileRepository struct {
	mock.Mock
}

func (m *MockFileRepository) Create(ctx context.Context, rec *model.FileRecord) (*model.FileRecord, error) {
	args := m.Called(ctx, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FileRecord), args.Error(1)
}

func (m *MockFileRepository) SetRemoteRef(ctx context.Context, id, ref string) (string, error) {
	args := m.Called(ctx, id, ref)
	return args.String(0), args.Error(1)
}

func (m *MockFileRepository) ListByOwner(ctx context.Context, owner string) ([]model.FileRecord, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FileRecord), args.Error(1)
}

func (m *MockFileRepository) FindByOwnerAndIDs(ctx context.Context, owner string, ids []string) ([]model.FileRecord, error) {
	args := m.Called(ctx, owner, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FileRecord), args.Error(1)
}

func (m *MockFileRepository) ListPending(ctx context.Context, owner string) ([]model.FileRecord, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FileRecord), args.Error(1)
}

type MockStorageRepository struct {
	mock.Mock
}

func (m *MockStorageRepository) LockForUpdate(ctx context.Context, owner string, now time.Time) (*model.StorageAccount, error) {
	args := m.Called(ctx, owner, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StorageAccount), args.Error(1)
}

func (m *MockStorageRepository) AddKB(ctx context.Context, owner string, delta float64, now time.Time) (*model.StorageAccount, error) {
	args := m.Called(ctx, owner, delta, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StorageAccount), args.Error(1)
}

func (m *MockStorageRepository) FindByOwner(ctx context.Context, owner string) (*model.StorageAccount, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StorageAccount), args.Error(1)
}
