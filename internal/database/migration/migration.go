package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ragsearch/internal/logger"
)

type migrationStep struct {
	Name string
	SQL  string
}

// storage_accounts is created last and doubles as the sentinel table.
var steps = []migrationStep{
	{
		Name: "create_table_file_records",
		SQL: `CREATE TABLE IF NOT EXISTS file_records (
  id           UUID             PRIMARY KEY,
  seq          BIGSERIAL        NOT NULL UNIQUE,
  owner        TEXT             NOT NULL,
  display_name TEXT             NOT NULL,
  project_name TEXT             NOT NULL,
  size_kb      DOUBLE PRECISION NOT NULL CHECK (size_kb >= 0),
  tags         JSONB            NOT NULL DEFAULT '[]'::jsonb,
  content      TEXT             NOT NULL,
  remote_ref   TEXT,
  created_at   TIMESTAMPTZ      NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_file_records_owner_seq",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_file_records_owner_seq ON file_records (owner, seq);`,
	},
	{
		Name: "create_index_file_records_owner_pending",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_file_records_owner_pending ON file_records (owner) WHERE remote_ref IS NULL;`,
	},
	{
		Name: "create_table_storage_accounts",
		SQL: `CREATE TABLE IF NOT EXISTS storage_accounts (
  owner      TEXT             PRIMARY KEY,
  total_kb   DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (total_kb >= 0),
  updated_at TIMESTAMPTZ      NOT NULL DEFAULT now()
);`,
	},
}

// EnsureMigrated checks for the sentinel table and runs every step when it is missing.
// Steps are idempotent, so a run interrupted halfway is completed on the next start.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *logger.Logger, dbHost string) error {
	start := time.Now()
	log = log.With("component", "database", "db_host", dbHost)

	log.Info("db_migration_check", "status", "starting")

	var exists bool
	query := "SELECT to_regclass('public.storage_accounts') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		log.Error("db_migration_failed",
			"status", "error",
			"error_message", fmt.Sprintf("failed to check sentinel table: %v", err),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("db_migration_skip",
			"status", "success",
			"msg", "schema already exists, skipping migration",
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}

	log.Info("db_migration_start", "status", "in_progress")

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db_migration_failed",
				"status", "error",
				"migration_step", step.Name,
				"error_message", err.Error(),
				"duration_ms", time.Since(start).Milliseconds(),
				"step_duration_ms", time.Since(stepStart).Milliseconds(),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info("db_migration_step",
			"status", "success",
			"migration_step", step.Name,
			"step_duration_ms", time.Since(stepStart).Milliseconds(),
		)
	}

	log.Info("db_migration_success",
		"status", "success",
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
