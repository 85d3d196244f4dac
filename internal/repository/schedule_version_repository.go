package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// ScheduleVersionRepository persists the append-only version history of planning units.
type ScheduleVersionRepository struct {
	db *sqlx.DB
}

// NewScheduleVersionRepository constructs repository.
func NewScheduleVersionRepository(db *sqlx.DB) *ScheduleVersionRepository {
	return &ScheduleVersionRepository{db: db}
}

func (r *ScheduleVersionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateVersioned inserts a history row. When record.Version is set it must equal
// the next archived version of the unit, otherwise a stale version error is returned.
func (r *ScheduleVersionRepository) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, record *models.ScheduleVersionRecord) error {
	if record == nil {
		return fmt.Errorf("schedule version payload is nil")
	}
	if record.UnitID == "" {
		return fmt.Errorf("unit_id is required")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Status == "" {
		record.Status = models.ScheduleStatusCommitted
	}
	if record.Kind == "" {
		record.Kind = models.EditKindCommit
	}
	if len(record.Meta) == 0 {
		record.Meta = types.JSONText(`{}`)
	}
	if record.CommittedAt.IsZero() {
		record.CommittedAt = time.Now().UTC()
	}

	target := r.exec(exec)

	var next int
	const nextVersionQuery = `SELECT COALESCE(MAX(version), 0) + 1 FROM schedule_versions WHERE unit_id = $1`
	if err := sqlx.GetContext(ctx, target, &next, nextVersionQuery, record.UnitID); err != nil {
		return fmt.Errorf("compute next schedule version: %w", err)
	}
	if record.Version == 0 {
		record.Version = next
	} else if record.Version != next {
		return &models.StaleVersionError{Expected: record.Version - 1, Current: next - 1}
	}

	const insertQuery = `
INSERT INTO schedule_versions (id, unit_id, version, status, kind, actor, meta, committed_at, superseded_at)
VALUES (:id, :unit_id, :version, :status, :kind, :actor, :meta, :committed_at, :superseded_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, insertQuery, record); err != nil {
		return fmt.Errorf("insert schedule version: %w", err)
	}
	return nil
}

// MarkSuperseded flags a committed version as replaced.
func (r *ScheduleVersionRepository) MarkSuperseded(ctx context.Context, exec sqlx.ExtContext, unitID string, version int, at time.Time) error {
	const query = `UPDATE schedule_versions SET status = $1, superseded_at = $2 WHERE unit_id = $3 AND version = $4`
	result, err := r.exec(exec).ExecContext(ctx, query, models.ScheduleStatusSuperseded, at.UTC(), unitID, version)
	if err != nil {
		return fmt.Errorf("supersede schedule version: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("schedule version rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListByUnit returns every archived version of a unit, oldest first.
func (r *ScheduleVersionRepository) ListByUnit(ctx context.Context, unitID string) ([]models.ScheduleVersionRecord, error) {
	const query = `SELECT id, unit_id, version, status, kind, actor, meta, committed_at, superseded_at
FROM schedule_versions WHERE unit_id = $1 ORDER BY version ASC`
	var records []models.ScheduleVersionRecord
	if err := r.db.SelectContext(ctx, &records, query, unitID); err != nil {
		return nil, fmt.Errorf("list schedule versions: %w", err)
	}
	return records, nil
}
