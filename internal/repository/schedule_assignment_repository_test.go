package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/models"
)

func TestScheduleAssignmentRepositoryInsertBatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_assignments")).
		WithArgs(sqlmock.AnyArg(), "v-1", "10A-math", 1, "t-math", "r-101", 1, 1, 1, string(models.OriginGenerated)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_assignments")).
		WithArgs(sqlmock.AnyArg(), "v-1", "10A-physics", 1, "t-physics", "r-101", 1, 2, 2, string(models.OriginPinned)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	items := []models.Assignment{
		{SectionID: "10A-math", Session: 1, TeacherID: "t-math", ClassroomID: "r-101", Slot: models.TimeSlot{Day: 1, Period: 1}, Duration: 1},
		{SectionID: "10A-physics", Session: 1, TeacherID: "t-physics", ClassroomID: "r-101", Slot: models.TimeSlot{Day: 1, Period: 2}, Duration: 2, Origin: models.OriginPinned},
	}
	require.NoError(t, repo.InsertBatch(context.Background(), nil, "v-1", items))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleAssignmentRepositoryInsertBatchEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleAssignmentRepository(db)

	require.NoError(t, repo.InsertBatch(context.Background(), nil, "v-1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleAssignmentRepositoryListByVersion(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "version_id", "section_id", "session", "teacher_id", "classroom_id", "day_of_week", "period", "duration", "origin"}).
		AddRow("a-1", "v-1", "10A-math", 1, "t-math", "r-101", 1, 1, 1, string(models.OriginGenerated)).
		AddRow("a-2", "v-1", "10A-physics", 1, "t-physics", "r-101", 1, 2, 2, string(models.OriginPinned))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, version_id, section_id, session, teacher_id, classroom_id, day_of_week, period, duration, origin FROM schedule_assignments WHERE version_id = $1")).
		WithArgs("v-1").
		WillReturnRows(rows)

	items, err := repo.ListByVersion(context.Background(), "v-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, models.TimeSlot{Day: 1, Period: 2}, items[1].Slot)
	assert.True(t, items[1].Pinned())
	assert.NoError(t, mock.ExpectationsWereMet())
}
