package model

import "time"

// FileRecord is one uploaded document owned by a single user.
// All fields are fixed at creation except RemoteRef, which moves from nil to a
// value exactly once when remote indexing succeeds.
type FileRecord struct {
	ID          string    `json:"id"`
	Owner       string    `json:"owner"`
	DisplayName string    `json:"display_name"`
	ProjectName string    `json:"project_name"`
	SizeKB      float64   `json:"size_kb"`
	Tags        []string  `json:"tags"`
	Content     string    `json:"-"`
	RemoteRef   *string   `json:"remote_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Indexed reports whether the remote index has acknowledged this file.
func (f FileRecord) Indexed() bool {
	return f.RemoteRef != nil && *f.RemoteRef != ""
}

// StorageAccount is the per-user storage ledger row.
// TotalKB always equals the sum of SizeKB over the owner's FileRecords.
type StorageAccount struct {
	Owner     string    `json:"owner"`
	TotalKB   float64   `json:"total_kb"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserIdentity is the caller as resolved by the authentication boundary.
type UserIdentity struct {
	ID         string         `json:"user_id"`
	Attributes map[string]any `json:"-"`
}
