package service

import (
	"context"
	"errors"
	"math"
	"time"

	"ragsearch/internal/model"
	"ragsearch/internal/repository"
)

// StorageLedger owns per-user storage totals.
type StorageLedger struct {
	repo    repository.StorageRepository
	quotaKB float64
	now     func() time.Time
}

// NewStorageLedger creates a ledger. quotaKB <= 0 means unlimited.
func NewStorageLedger(repo repository.StorageRepository, quotaKB float64) *StorageLedger {
	return &StorageLedger{repo: repo, quotaKB: quotaKB, now: time.Now}
}

// Reserve adds sizeKB to owner's total, creating the account on first use.
// It must run inside the transaction that also creates the matching file
// record; the row lock it takes serializes concurrent uploads of one owner.
// On QuotaExceededError the caller's transaction must be rolled back.
func (l *StorageLedger) Reserve(ctx context.Context, owner string, sizeKB float64) (*model.StorageAccount, error) {
	if owner == "" {
		return nil, ErrOwnerRequired
	}
	if sizeKB < 0 || math.IsNaN(sizeKB) || math.IsInf(sizeKB, 0) {
		return nil, ErrInvalidSize
	}

	now := l.now().UTC()
	acc, err := l.repo.LockForUpdate(ctx, owner, now)
	if err != nil {
		return nil, err
	}
	if l.quotaKB > 0 && acc.TotalKB+sizeKB > l.quotaKB {
		return nil, &QuotaExceededError{CurrentKB: acc.TotalKB, RequestedKB: sizeKB, LimitKB: l.quotaKB}
	}
	return l.repo.AddKB(ctx, owner, sizeKB, now)
}

// TotalFor returns owner's committed total; zero when the owner never uploaded.
func (l *StorageLedger) TotalFor(ctx context.Context, owner string) (float64, error) {
	acc, err := l.Account(ctx, owner)
	if err != nil {
		return 0, err
	}
	return acc.TotalKB, nil
}

// Account returns owner's account, or an empty one with a zero UpdatedAt when absent.
func (l *StorageLedger) Account(ctx context.Context, owner string) (*model.StorageAccount, error) {
	if owner == "" {
		return nil, ErrOwnerRequired
	}
	acc, err := l.repo.FindByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &model.StorageAccount{Owner: owner}, nil
		}
		return nil, err
	}
	return acc, nil
}
