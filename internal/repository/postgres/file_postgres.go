package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"ragsearch/internal/database"
	"ragsearch/internal/model"
	"ragsearch/internal/repository"
)

// FilePostgres is a PostgreSQL implementation of repository.FileRepository.
// It uses database/sql with parameterized queries and contains no business logic.
// Calls join the transaction carried by ctx, if any.
type FilePostgres struct {
	db *sql.DB
}

// NewFilePostgres creates a new FilePostgres repository.
func NewFilePostgres(db *sql.DB) *FilePostgres {
	return &FilePostgres{db: db}
}

var _ repository.FileRepository = (*FilePostgres)(nil)

const fileColumns = `id, owner, display_name, project_name, size_kb, tags, remote_ref, created_at`

// Create inserts a new file row and returns the stored record.
func (r *FilePostgres) Create(ctx context.Context, rec *model.FileRecord) (*model.FileRecord, error) {
	tags, err := json.Marshal(nonNilTags(rec.Tags))
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	const q = `
		INSERT INTO file_records (id, owner, display_name, project_name, size_kb, tags, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + fileColumns
	row := database.Conn(ctx, r.db).QueryRowContext(ctx, q,
		rec.ID,
		rec.Owner,
		rec.DisplayName,
		rec.ProjectName,
		rec.SizeKB,
		string(tags),
		rec.Content,
		rec.CreatedAt,
	)
	out, err := scanFile(row)
	if err != nil {
		return nil, err
	}
	out.Content = rec.Content
	return out, nil
}

// SetRemoteRef fills remote_ref only while it is null, then reports what is stored.
func (r *FilePostgres) SetRemoteRef(ctx context.Context, id, ref string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", repository.ErrNotFound
	}
	conn := database.Conn(ctx, r.db)

	const qUpdate = `
		UPDATE file_records SET remote_ref = $2
		WHERE id = $1 AND remote_ref IS NULL
		RETURNING remote_ref
	`
	var stored sql.NullString
	err := conn.QueryRowContext(ctx, qUpdate, id, ref).Scan(&stored)
	if err == nil {
		return stored.String, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	// Either the row is missing or a ref was attached earlier.
	const qSelect = `SELECT remote_ref FROM file_records WHERE id = $1`
	if err := conn.QueryRowContext(ctx, qSelect, id).Scan(&stored); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", repository.ErrNotFound
		}
		return "", err
	}
	return stored.String, nil
}

// ListByOwner returns the owner's files ordered by insertion.
func (r *FilePostgres) ListByOwner(ctx context.Context, owner string) ([]model.FileRecord, error) {
	const q = `
		SELECT ` + fileColumns + `
		FROM file_records
		WHERE owner = $1
		ORDER BY seq
	`
	return r.query(ctx, q, owner)
}

// FindByOwnerAndIDs returns the subset of ids owned by owner. Ids that are not
// valid UUIDs cannot exist and are dropped before querying.
func (r *FilePostgres) FindByOwnerAndIDs(ctx context.Context, owner string, ids []string) ([]model.FileRecord, error) {
	args := []any{owner}
	placeholders := make([]string, 0, len(ids))
	for _, id := range ids {
		u, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		// Stored ids are lower-case; uuid.Parse also takes braced and urn forms.
		args = append(args, u.String())
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}
	if len(placeholders) == 0 {
		return []model.FileRecord{}, nil
	}

	q := `
		SELECT ` + fileColumns + `
		FROM file_records
		WHERE owner = $1 AND id IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY seq
	`
	return r.query(ctx, q, args...)
}

// ListPending returns the owner's files still waiting for a remote ref, content included.
func (r *FilePostgres) ListPending(ctx context.Context, owner string) ([]model.FileRecord, error) {
	const q = `
		SELECT ` + fileColumns + `, content
		FROM file_records
		WHERE owner = $1 AND remote_ref IS NULL
		ORDER BY seq
	`
	rows, err := database.Conn(ctx, r.db).QueryContext(ctx, q, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.FileRecord, 0)
	for rows.Next() {
		var content string
		f, err := scanFile(rows, &content)
		if err != nil {
			return nil, err
		}
		f.Content = content
		items = append(items, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *FilePostgres) query(ctx context.Context, q string, args ...any) ([]model.FileRecord, error) {
	rows, err := database.Conn(ctx, r.db).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.FileRecord, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(s scanner, extra ...any) (*model.FileRecord, error) {
	var (
		f    model.FileRecord
		tags []byte
		ref  sql.NullString
	)
	dest := append([]any{
		&f.ID,
		&f.Owner,
		&f.DisplayName,
		&f.ProjectName,
		&f.SizeKB,
		&tags,
		&ref,
		&f.CreatedAt,
	}, extra...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	f.Tags = []string{}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &f.Tags); err != nil {
			return nil, fmt.Errorf("decode tags of %s: %w", f.ID, err)
		}
	}
	if ref.Valid {
		v := ref.String
		f.RemoteRef = &v
	}
	return &f, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
