package repository

// Package repository contains data access layer abstractions.
// Implementations live in subpackages: postgres for production, memory for
// single-process deployments and tests.

import (
	"context"
	"errors"
	"time"

	"ragsearch/internal/model"
)

// ErrNotFound is returned when a lookup by key matches no row.
var ErrNotFound = errors.New("repository: not found")

// Transactor runs fn as one unit of work. Repository calls made with the
// context passed to fn take part in the same transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// FileRepository defines persistence for file records. No business logic here.
type FileRepository interface {
	// Create inserts a new record with a null remote ref and returns it as stored.
	Create(ctx context.Context, rec *model.FileRecord) (*model.FileRecord, error)

	// SetRemoteRef sets the remote ref of id when it is still null and returns
	// the ref stored afterwards, which differs from ref if one was already set.
	// Returns ErrNotFound when id does not exist.
	SetRemoteRef(ctx context.Context, id, ref string) (string, error)

	// ListByOwner returns all records of owner in insertion order, without content.
	ListByOwner(ctx context.Context, owner string) ([]model.FileRecord, error)

	// FindByOwnerAndIDs returns the records among ids that belong to owner, in
	// insertion order, without content. Unknown and foreign ids are simply absent.
	FindByOwnerAndIDs(ctx context.Context, owner string, ids []string) ([]model.FileRecord, error)

	// ListPending returns owner's records that have no remote ref yet, with content.
	ListPending(ctx context.Context, owner string) ([]model.FileRecord, error)
}

// StorageRepository defines persistence for per-owner storage accounts.
type StorageRepository interface {
	// LockForUpdate creates owner's account when absent and locks it until the
	// surrounding transaction ends. Must be called inside a Transactor.
	LockForUpdate(ctx context.Context, owner string, now time.Time) (*model.StorageAccount, error)

	// AddKB increments owner's total by delta and stamps now.
	AddKB(ctx context.Context, owner string, delta float64, now time.Time) (*model.StorageAccount, error)

	// FindByOwner returns owner's account or ErrNotFound.
	FindByOwner(ctx context.Context, owner string) (*model.StorageAccount, error)
}
