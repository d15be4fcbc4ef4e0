package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragsearch/internal/model"
	"ragsearch/internal/repository"
)

const (
	fileA = "0b6a3e6e-8f0e-4c55-9d52-6a0b1f0f3a01"
	fileB = "0b6a3e6e-8f0e-4c55-9d52-6a0b1f0f3a02"
)

var fileCols = []string{"id", "owner", "display_name", "project_name", "size_kb", "tags", "remote_ref", "created_at"}

func TestFilePostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewFilePostgres(db)
	now := time.Now().UTC()
	rec := &model.FileRecord{
		ID:          fileA,
		Owner:       "user-1",
		DisplayName: "notes.txt",
		ProjectName: "notes",
		SizeKB:      10,
		Tags:        []string{"alpha", "beta"},
		Content:     "alpha beta",
		CreatedAt:   now,
	}

	rows := sqlmock.NewRows(fileCols).
		AddRow(rec.ID, rec.Owner, rec.DisplayName, rec.ProjectName, rec.SizeKB, []byte(`["alpha","beta"]`), nil, now)
	mock.ExpectQuery("INSERT INTO file_records").
		WithArgs(rec.ID, rec.Owner, rec.DisplayName, rec.ProjectName, rec.SizeKB, `["alpha","beta"]`, rec.Content, now).
		WillReturnRows(rows)

	out, err := repo.Create(context.Background(), rec)

	require.NoError(t, err)
	assert.Equal(t, fileA, out.ID)
	assert.Equal(t, []string{"alpha", "beta"}, out.Tags)
	assert.Nil(t, out.RemoteRef)
	assert.Equal(t, "alpha beta", out.Content)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilePostgres_CreateNilTags(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO file_records").
		WithArgs(fileA, "u", "a.txt", "a", 0.0, `[]`, "", now).
		WillReturnRows(sqlmock.NewRows(fileCols).AddRow(fileA, "u", "a.txt", "a", 0.0, []byte(`[]`), nil, now))

	out, err := NewFilePostgres(db).Create(context.Background(), &model.FileRecord{
		ID: fileA, Owner: "u", DisplayName: "a.txt", ProjectName: "a", CreatedAt: now,
	})

	require.NoError(t, err)
	assert.NotNil(t, out.Tags)
	assert.Empty(t, out.Tags)
}

func TestFilePostgres_SetRemoteRef(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()

	t.Run("first attach", func(t *testing.T) {
		mock.ExpectQuery("UPDATE file_records SET remote_ref").
			WithArgs(fileA, "ref-1").
			WillReturnRows(sqlmock.NewRows([]string{"remote_ref"}).AddRow("ref-1"))

		stored, err := repo.SetRemoteRef(ctx, fileA, "ref-1")
		assert.NoError(t, err)
		assert.Equal(t, "ref-1", stored)
	})

	t.Run("already attached returns existing value", func(t *testing.T) {
		mock.ExpectQuery("UPDATE file_records SET remote_ref").
			WithArgs(fileA, "ref-2").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("SELECT remote_ref FROM file_records WHERE id = ").
			WithArgs(fileA).
			WillReturnRows(sqlmock.NewRows([]string{"remote_ref"}).AddRow("ref-1"))

		stored, err := repo.SetRemoteRef(ctx, fileA, "ref-2")
		assert.NoError(t, err)
		assert.Equal(t, "ref-1", stored)
	})

	t.Run("missing row", func(t *testing.T) {
		mock.ExpectQuery("UPDATE file_records SET remote_ref").
			WithArgs(fileB, "ref-1").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("SELECT remote_ref FROM file_records WHERE id = ").
			WithArgs(fileB).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.SetRemoteRef(ctx, fileB, "ref-1")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("malformed id never reaches the database", func(t *testing.T) {
		_, err := repo.SetRemoteRef(ctx, "not-a-uuid", "ref-1")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectQuery("UPDATE file_records SET remote_ref").
			WithArgs(fileA, "ref-1").
			WillReturnError(errors.New("conn reset"))

		_, err := repo.SetRemoteRef(ctx, fileA, "ref-1")
		assert.EqualError(t, err, "conn reset")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilePostgres_ListByOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows(fileCols).
		AddRow(fileA, "user-1", "a.txt", "a", 1.5, []byte(`["x"]`), "ref-a", now).
		AddRow(fileB, "user-1", "b.txt", "b", 2.5, []byte(`[]`), nil, now)
	mock.ExpectQuery("SELECT (.+) FROM file_records WHERE owner = \\$1 ORDER BY seq").
		WithArgs("user-1").
		WillReturnRows(rows)

	items, err := NewFilePostgres(db).ListByOwner(context.Background(), "user-1")

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, fileA, items[0].ID)
	require.NotNil(t, items[0].RemoteRef)
	assert.Equal(t, "ref-a", *items[0].RemoteRef)
	assert.Nil(t, items[1].RemoteRef)
	assert.Empty(t, items[1].Content)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilePostgres_FindByOwnerAndIDs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()

	t.Run("builds one placeholder per valid id", func(t *testing.T) {
		now := time.Now().UTC()
		mock.ExpectQuery("WHERE owner = \\$1 AND id IN \\(\\$2, \\$3\\)").
			WithArgs("user-1", fileA, fileB).
			WillReturnRows(sqlmock.NewRows(fileCols).AddRow(fileA, "user-1", "a.txt", "a", 1.0, []byte(`[]`), nil, now))

		items, err := repo.FindByOwnerAndIDs(ctx, "user-1", []string{fileA, "typo", fileB})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, fileA, items[0].ID)
	})

	t.Run("sends ids in canonical form", func(t *testing.T) {
		now := time.Now().UTC()
		mock.ExpectQuery("WHERE owner = \\$1 AND id IN \\(\\$2, \\$3\\)").
			WithArgs("user-1", fileA, fileB).
			WillReturnRows(sqlmock.NewRows(fileCols).
				AddRow(fileA, "user-1", "a.txt", "a", 1.0, []byte(`[]`), nil, now).
				AddRow(fileB, "user-1", "b.txt", "b", 1.0, []byte(`[]`), nil, now))

		items, err := repo.FindByOwnerAndIDs(ctx, "user-1", []string{strings.ToUpper(fileA), "urn:uuid:" + fileB})
		require.NoError(t, err)
		require.Len(t, items, 2)
	})

	t.Run("no valid ids skips the query", func(t *testing.T) {
		items, err := repo.FindByOwnerAndIDs(ctx, "user-1", []string{"typo"})
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilePostgres_ListPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	cols := append(append([]string{}, fileCols...), "content")
	mock.ExpectQuery("SELECT (.+), content FROM file_records WHERE owner = \\$1 AND remote_ref IS NULL").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(fileB, "user-1", "b.txt", "b", 2.0, []byte(`["k"]`), nil, now, "body"))

	items, err := NewFilePostgres(db).ListPending(context.Background(), "user-1")

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "body", items[0].Content)
	assert.Equal(t, []string{"k"}, items[0].Tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilePostgres_BadTagsPayload(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM file_records").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(fileCols).AddRow(fileA, "user-1", "a.txt", "a", 1.0, []byte(`{`), nil, time.Now()))

	_, err = NewFilePostgres(db).ListByOwner(context.Background(), "user-1")
	assert.ErrorContains(t, err, "decode tags")
}
