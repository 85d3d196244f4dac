package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/noah-isme/sma-timetable/pkg/config"
)

// NewPostgres returns a configured PostgreSQL client.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// schemaStatements create the schedule archive tables. Version numbers are
// unique per unit so concurrent writers cannot both append the same version.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS schedule_versions (
		id UUID PRIMARY KEY,
		unit_id TEXT NOT NULL,
		version INTEGER NOT NULL,
		status TEXT NOT NULL,
		kind TEXT NOT NULL,
		actor TEXT NOT NULL DEFAULT '',
		meta JSONB NOT NULL DEFAULT '{}'::jsonb,
		committed_at TIMESTAMPTZ NOT NULL,
		superseded_at TIMESTAMPTZ,
		UNIQUE (unit_id, version)
	)`,
	`CREATE TABLE IF NOT EXISTS schedule_assignments (
		id UUID PRIMARY KEY,
		version_id UUID NOT NULL REFERENCES schedule_versions(id) ON DELETE CASCADE,
		section_id TEXT NOT NULL,
		session INTEGER NOT NULL,
		teacher_id TEXT NOT NULL,
		classroom_id TEXT NOT NULL,
		day_of_week SMALLINT NOT NULL,
		period SMALLINT NOT NULL,
		duration SMALLINT NOT NULL,
		origin TEXT NOT NULL,
		UNIQUE (version_id, section_id, session)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_schedule_assignments_version ON schedule_assignments (version_id)`,
}

// EnsureSchema creates the archive tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db sqlx.ExecerContext) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
