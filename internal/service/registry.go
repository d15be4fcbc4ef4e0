package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ragsearch/internal/model"
	"ragsearch/internal/repository"
)

// NewFile carries the fields fixed at upload time. ID is allocated when empty.
type NewFile struct {
	ID          string
	Owner       string
	DisplayName string
	ProjectName string
	SizeKB      float64
	Tags        []string
	Content     string
}

// FileRegistry is the authoritative record of a user's files and their remote refs.
type FileRegistry struct {
	repo repository.FileRepository
	now  func() time.Time
}

func NewFileRegistry(repo repository.FileRepository) *FileRegistry {
	return &FileRegistry{repo: repo, now: time.Now}
}

// Create persists a new record with no remote ref. Run it in the same
// transaction as StorageLedger.Reserve.
func (r *FileRegistry) Create(ctx context.Context, in NewFile) (*model.FileRecord, error) {
	if in.Owner == "" {
		return nil, ErrOwnerRequired
	}
	if in.SizeKB < 0 {
		return nil, ErrInvalidSize
	}
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}

	rec, err := r.repo.Create(ctx, &model.FileRecord{
		ID:          id,
		Owner:       in.Owner,
		DisplayName: in.DisplayName,
		ProjectName: in.ProjectName,
		SizeKB:      in.SizeKB,
		Tags:        tags,
		Content:     in.Content,
		CreatedAt:   r.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("create file record: %w", err)
	}
	return rec, nil
}

// AttachRemoteRef sets the remote ref of fileID once. Repeating the same ref
// succeeds without change; a different ref is ErrRemoteRefConflict.
func (r *FileRegistry) AttachRemoteRef(ctx context.Context, fileID, ref string) error {
	if ref == "" {
		return ErrRemoteRefRequired
	}
	stored, err := r.repo.SetRemoteRef(ctx, fileID, ref)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrFileNotFound
		}
		return fmt.Errorf("attach remote ref: %w", err)
	}
	if stored != ref {
		return fmt.Errorf("%w: file %s has %q, got %q", ErrRemoteRefConflict, fileID, stored, ref)
	}
	return nil
}

// ListFor returns all of owner's records in insertion order.
func (r *FileRegistry) ListFor(ctx context.Context, owner string) ([]model.FileRecord, error) {
	if owner == "" {
		return nil, ErrOwnerRequired
	}
	return r.repo.ListByOwner(ctx, owner)
}

// Pending returns owner's records still waiting for a remote ref, with content.
func (r *FileRegistry) Pending(ctx context.Context, owner string) ([]model.FileRecord, error) {
	if owner == "" {
		return nil, ErrOwnerRequired
	}
	return r.repo.ListPending(ctx, owner)
}

// Resolve returns the records sel names for owner. An unrestricted selection
// yields all of owner's records. A restricted one must match exactly: any id
// that is unknown or foreign fails the call with PartialNotFoundError, in
// request order, and nothing is returned.
func (r *FileRegistry) Resolve(ctx context.Context, owner string, sel model.Selection) ([]model.FileRecord, error) {
	if owner == "" {
		return nil, ErrOwnerRequired
	}
	if sel.All() {
		return r.repo.ListByOwner(ctx, owner)
	}

	ids := sel.IDs()
	if len(ids) == 0 {
		return []model.FileRecord{}, nil
	}
	lookup := make([]string, len(ids))
	for i, id := range ids {
		lookup[i] = canonicalID(id)
	}
	found, err := r.repo.FindByOwnerAndIDs(ctx, owner, lookup)
	if err != nil {
		return nil, err
	}

	have := make(map[string]struct{}, len(found))
	for _, f := range found {
		if f.Owner != owner {
			continue
		}
		have[f.ID] = struct{}{}
	}
	var missing []string
	for i, id := range ids {
		if _, ok := have[lookup[i]]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, &PartialNotFoundError{IDs: missing}
	}

	out := make([]model.FileRecord, 0, len(found))
	for _, f := range found {
		if f.Owner == owner {
			out = append(out, f)
		}
	}
	return out, nil
}

// canonicalID maps any accepted uuid spelling (upper case, braces, urn) onto
// the lower-case form ids are stored in. Other strings pass through unchanged.
func canonicalID(id string) string {
	if u, err := uuid.Parse(id); err == nil {
		return u.String()
	}
	return id
}
