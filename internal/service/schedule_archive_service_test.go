package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/repository"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

func newArchiveFixture(t *testing.T) (*ScheduleArchiveService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	svc := NewScheduleArchiveService(sqlxdb, repository.NewScheduleVersionRepository(sqlxdb), repository.NewScheduleAssignmentRepository(sqlxdb), NewMetricsService(), nil)
	return svc, mock
}

func archivedEntry() models.ScheduleVersion {
	override := assignment("10A-math", 1, "t-math", "r-101", 5, 1, 1)
	override.Origin = models.OriginPinned
	return models.ScheduleVersion{
		ID:          "v-2",
		Version:     2,
		Kind:        models.EditKindOverride,
		Actor:       "bob",
		Assignments: []models.Assignment{override},
		Override:    &override,
		CommittedAt: time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC),
	}
}

func TestScheduleArchiveServiceAppend(t *testing.T) {
	svc, mock := newArchiveFixture(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedule_versions SET status = $1")).
		WithArgs(string(models.ScheduleStatusSuperseded), sqlmock.AnyArg(), "unit-1", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version), 0) + 1 FROM schedule_versions")).
		WithArgs("unit-1").
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_versions")).
		WithArgs("v-2", "unit-1", 2, string(models.ScheduleStatusCommitted), string(models.EditKindOverride), "bob", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_assignments")).
		WithArgs(sqlmock.AnyArg(), "v-2", "10A-math", 1, "t-math", "r-101", 5, 1, 1, string(models.OriginPinned)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.Append(context.Background(), "unit-1", archivedEntry(), 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleArchiveServiceAppendRollsBack(t *testing.T) {
	svc, mock := newArchiveFixture(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedule_versions SET status = $1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version), 0) + 1 FROM schedule_versions")).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_versions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_assignments")).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := svc.Append(context.Background(), "unit-1", archivedEntry(), 1)
	requireErrorCode(t, err, appErrors.ErrInternal.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleArchiveServiceAppendStale(t *testing.T) {
	svc, mock := newArchiveFixture(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version), 0) + 1 FROM schedule_versions")).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(4))
	mock.ExpectRollback()

	entry := archivedEntry()
	entry.Version = 1
	err := svc.Append(context.Background(), "unit-1", entry, 0)
	requireErrorCode(t, err, appErrors.ErrStaleVersion.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleArchiveServiceLoad(t *testing.T) {
	svc, mock := newArchiveFixture(t)
	committed := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, unit_id, version, status, kind, actor, meta, committed_at, superseded_at FROM schedule_versions")).
		WithArgs("unit-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "unit_id", "version", "status", "kind", "actor", "meta", "committed_at", "superseded_at"}).
			AddRow("v-1", "unit-1", 1, string(models.ScheduleStatusCommitted), string(models.EditKindOverride), "bob",
				[]byte(`{"override":{"section_id":"10A-math","session":1,"teacher_id":"t-math","classroom_id":"r-101","slot":{"day":5,"period":1},"duration":1,"origin":"PINNED"}}`),
				committed, nil))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, version_id, section_id, session, teacher_id, classroom_id, day_of_week, period, duration, origin FROM schedule_assignments")).
		WithArgs("v-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "version_id", "section_id", "session", "teacher_id", "classroom_id", "day_of_week", "period", "duration", "origin"}).
			AddRow("a-1", "v-1", "10A-math", 1, "t-math", "r-101", 5, 1, 1, string(models.OriginPinned)))

	history, err := svc.Load(context.Background(), "unit-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 1, history[0].Version)
	assert.Equal(t, models.EditKindOverride, history[0].Kind)
	require.NotNil(t, history[0].Override)
	assert.Equal(t, models.TimeSlot{Day: 5, Period: 1}, history[0].Override.Slot)
	require.Len(t, history[0].Assignments, 1)
	assert.True(t, history[0].Assignments[0].Pinned())
	assert.NoError(t, mock.ExpectationsWereMet())
}
