package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ragsearch/internal/model"
	"ragsearch/internal/repository"
	repoMocks "ragsearch/internal/repository/mocks"
)

func TestStorageLedger_Reserve(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name       string
		quotaKB    float64
		sizeKB     float64
		setupMocks func(m *repoMocks.MockStorageRepository)
		wantTotal  float64
		wantErr    error
		wantQuota  *QuotaExceededError
	}{
		{
			name:    "unlimited quota increments",
			quotaKB: 0,
			sizeKB:  20,
			setupMocks: func(m *repoMocks.MockStorageRepository) {
				m.On("LockForUpdate", ctx, "u", now).Return(&model.StorageAccount{Owner: "u", TotalKB: 10}, nil)
				m.On("AddKB", ctx, "u", 20.0, now).Return(&model.StorageAccount{Owner: "u", TotalKB: 30}, nil)
			},
			wantTotal: 30,
		},
		{
			name:    "exactly at the limit is allowed",
			quotaKB: 30,
			sizeKB:  20,
			setupMocks: func(m *repoMocks.MockStorageRepository) {
				m.On("LockForUpdate", ctx, "u", now).Return(&model.StorageAccount{Owner: "u", TotalKB: 10}, nil)
				m.On("AddKB", ctx, "u", 20.0, now).Return(&model.StorageAccount{Owner: "u", TotalKB: 30}, nil)
			},
			wantTotal: 30,
		},
		{
			name:    "over the limit mutates nothing",
			quotaKB: 25,
			sizeKB:  20,
			setupMocks: func(m *repoMocks.MockStorageRepository) {
				m.On("LockForUpdate", ctx, "u", now).Return(&model.StorageAccount{Owner: "u", TotalKB: 10}, nil)
			},
			wantQuota: &QuotaExceededError{CurrentKB: 10, RequestedKB: 20, LimitKB: 25},
		},
		{
			name:       "negative size",
			sizeKB:     -1,
			setupMocks: func(m *repoMocks.MockStorageRepository) {},
			wantErr:    ErrInvalidSize,
		},
		{
			name:       "nan size",
			sizeKB:     math.NaN(),
			setupMocks: func(m *repoMocks.MockStorageRepository) {},
			wantErr:    ErrInvalidSize,
		},
		{
			name:   "lock failure propagates",
			sizeKB: 1,
			setupMocks: func(m *repoMocks.MockStorageRepository) {
				m.On("LockForUpdate", ctx, "u", now).Return(nil, errors.New("deadlock detected"))
			},
			wantErr: errors.New("deadlock detected"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockStorageRepository)
			tt.setupMocks(mRepo)

			l := NewStorageLedger(mRepo, tt.quotaKB)
			l.now = func() time.Time { return now }

			acc, err := l.Reserve(ctx, "u", tt.sizeKB)

			switch {
			case tt.wantQuota != nil:
				var qe *QuotaExceededError
				require.ErrorAs(t, err, &qe)
				assert.Equal(t, tt.wantQuota, qe)
				mRepo.AssertNotCalled(t, "AddKB", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			case tt.wantErr != nil:
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr.Error())
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantTotal, acc.TotalKB)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestStorageLedger_ReserveRequiresOwner(t *testing.T) {
	l := NewStorageLedger(new(repoMocks.MockStorageRepository), 0)
	_, err := l.Reserve(context.Background(), "", 1)
	assert.ErrorIs(t, err, ErrOwnerRequired)
}

func TestStorageLedger_Account(t *testing.T) {
	ctx := context.Background()

	t.Run("absent account reads as zero", func(t *testing.T) {
		mRepo := new(repoMocks.MockStorageRepository)
		mRepo.On("FindByOwner", ctx, "u").Return(nil, repository.ErrNotFound)

		l := NewStorageLedger(mRepo, 0)
		acc, err := l.Account(ctx, "u")
		require.NoError(t, err)
		assert.Equal(t, "u", acc.Owner)
		assert.Zero(t, acc.TotalKB)
		assert.True(t, acc.UpdatedAt.IsZero())

		total, err := l.TotalFor(ctx, "u")
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("repository error", func(t *testing.T) {
		mRepo := new(repoMocks.MockStorageRepository)
		mRepo.On("FindByOwner", ctx, "u").Return(nil, errors.New("db down"))

		_, err := NewStorageLedger(mRepo, 0).TotalFor(ctx, "u")
		assert.EqualError(t, err, "db down")
	})
}

func TestQuotaExceededError(t *testing.T) {
	err := &QuotaExceededError{CurrentKB: 10, RequestedKB: 20, LimitKB: 25}
	assert.Equal(t, "storage quota exceeded: current 10.00 KB + requested 20.00 KB > limit 25.00 KB", err.Error())
}
