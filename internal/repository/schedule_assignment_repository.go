package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// ScheduleAssignmentRepository stores the assignments belonging to archived versions.
type ScheduleAssignmentRepository struct {
	db *sqlx.DB
}

// NewScheduleAssignmentRepository builds repository.
func NewScheduleAssignmentRepository(db *sqlx.DB) *ScheduleAssignmentRepository {
	return &ScheduleAssignmentRepository{db: db}
}

func (r *ScheduleAssignmentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// InsertBatch writes the assignments of one version.
func (r *ScheduleAssignmentRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, versionID string, items []models.Assignment) error {
	if len(items) == 0 {
		return nil
	}
	target := r.exec(exec)

	const query = `
INSERT INTO schedule_assignments (id, version_id, section_id, session, teacher_id, classroom_id, day_of_week, period, duration, origin)
VALUES (:id, :version_id, :section_id, :session, :teacher_id, :classroom_id, :day_of_week, :period, :duration, :origin)`

	for _, item := range items {
		record := models.ScheduleAssignmentRecord{
			ID:          uuid.NewString(),
			VersionID:   versionID,
			SectionID:   item.SectionID,
			Session:     item.Session,
			TeacherID:   item.TeacherID,
			ClassroomID: item.ClassroomID,
			Day:         item.Slot.Day,
			Period:      item.Slot.Period,
			Duration:    item.Duration,
			Origin:      item.Origin,
		}
		if record.Origin == "" {
			record.Origin = models.OriginGenerated
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, record); err != nil {
			return fmt.Errorf("insert schedule assignment: %w", err)
		}
	}
	return nil
}

// ListByVersion returns the assignments of a version ordered by slot.
func (r *ScheduleAssignmentRepository) ListByVersion(ctx context.Context, versionID string) ([]models.Assignment, error) {
	const query = `SELECT id, version_id, section_id, session, teacher_id, classroom_id, day_of_week, period, duration, origin
FROM schedule_assignments WHERE version_id = $1 ORDER BY day_of_week ASC, period ASC, classroom_id ASC`
	var records []models.ScheduleAssignmentRecord
	if err := r.db.SelectContext(ctx, &records, query, versionID); err != nil {
		return nil, fmt.Errorf("list schedule assignments: %w", err)
	}
	items := make([]models.Assignment, 0, len(records))
	for _, record := range records {
		items = append(items, record.Assignment())
	}
	models.SortAssignments(items)
	return items, nil
}
