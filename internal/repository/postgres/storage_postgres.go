package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ragsearch/internal/database"
	"ragsearch/internal/model"
	"ragsearch/internal/repository"
)

// StoragePostgres is a PostgreSQL implementation of repository.StorageRepository.
type StoragePostgres struct {
	db *sql.DB
}

// NewStoragePostgres creates a new StoragePostgres repository.
func NewStoragePostgres(db *sql.DB) *StoragePostgres {
	return &StoragePostgres{db: db}
}

var _ repository.StorageRepository = (*StoragePostgres)(nil)

// LockForUpdate creates the account row if needed, then takes a row lock on it.
// Concurrent uploads of the same owner queue here until the holder commits.
func (r *StoragePostgres) LockForUpdate(ctx context.Context, owner string, now time.Time) (*model.StorageAccount, error) {
	conn := database.Conn(ctx, r.db)

	const qEnsure = `
		INSERT INTO storage_accounts (owner, total_kb, updated_at)
		VALUES ($1, 0, $2)
		ON CONFLICT (owner) DO NOTHING
	`
	if _, err := conn.ExecContext(ctx, qEnsure, owner, now); err != nil {
		return nil, err
	}

	const qLock = `
		SELECT owner, total_kb, updated_at
		FROM storage_accounts
		WHERE owner = $1
		FOR UPDATE
	`
	var a model.StorageAccount
	if err := conn.QueryRowContext(ctx, qLock, owner).Scan(&a.Owner, &a.TotalKB, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// AddKB increments total_kb in place so the database does the arithmetic.
func (r *StoragePostgres) AddKB(ctx context.Context, owner string, delta float64, now time.Time) (*model.StorageAccount, error) {
	const q = `
		UPDATE storage_accounts
		SET total_kb = total_kb + $2, updated_at = $3
		WHERE owner = $1
		RETURNING owner, total_kb, updated_at
	`
	var a model.StorageAccount
	err := database.Conn(ctx, r.db).QueryRowContext(ctx, q, owner, delta, now).Scan(&a.Owner, &a.TotalKB, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// FindByOwner fetches the owner's account.
func (r *StoragePostgres) FindByOwner(ctx context.Context, owner string) (*model.StorageAccount, error) {
	const q = `
		SELECT owner, total_kb, updated_at
		FROM storage_accounts
		WHERE owner = $1
	`
	var a model.StorageAccount
	err := database.Conn(ctx, r.db).QueryRowContext(ctx, q, owner).Scan(&a.Owner, &a.TotalKB, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
