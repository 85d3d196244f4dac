package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestScheduleVersionRepositoryCreateVersioned(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleVersionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version), 0) + 1 FROM schedule_versions WHERE unit_id = $1")).
		WithArgs("unit-1").
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_versions")).
		WithArgs(sqlmock.AnyArg(), "unit-1", 3, string(models.ScheduleStatusCommitted), string(models.EditKindOverride), "alice", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.ScheduleVersionRecord{UnitID: "unit-1", Kind: models.EditKindOverride, Actor: "alice"}
	require.NoError(t, repo.CreateVersioned(context.Background(), nil, record))
	assert.Equal(t, 3, record.Version)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, types.JSONText(`{}`), record.Meta)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleVersionRepositoryCreateVersionedStale(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleVersionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version), 0) + 1 FROM schedule_versions WHERE unit_id = $1")).
		WithArgs("unit-1").
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(5))

	err := repo.CreateVersioned(context.Background(), nil, &models.ScheduleVersionRecord{UnitID: "unit-1", Version: 3})
	var stale *models.StaleVersionError
	require.True(t, errors.As(err, &stale))
	assert.Equal(t, 2, stale.Expected)
	assert.Equal(t, 4, stale.Current)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleVersionRepositoryCreateVersionedRequiresUnit(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleVersionRepository(db)

	assert.Error(t, repo.CreateVersioned(context.Background(), nil, nil))
	assert.Error(t, repo.CreateVersioned(context.Background(), nil, &models.ScheduleVersionRecord{}))
}

func TestScheduleVersionRepositoryMarkSuperseded(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleVersionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedule_versions SET status = $1, superseded_at = $2 WHERE unit_id = $3 AND version = $4")).
		WithArgs(string(models.ScheduleStatusSuperseded), sqlmock.AnyArg(), "unit-1", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedule_versions SET status = $1")).
		WithArgs(string(models.ScheduleStatusSuperseded), sqlmock.AnyArg(), "unit-1", 9).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.MarkSuperseded(context.Background(), nil, "unit-1", 2, time.Now()))
	err := repo.MarkSuperseded(context.Background(), nil, "unit-1", 9, time.Now())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleVersionRepositoryListByUnit(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleVersionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "unit_id", "version", "status", "kind", "actor", "meta", "committed_at", "superseded_at"}).
		AddRow("v-1", "unit-1", 1, string(models.ScheduleStatusSuperseded), string(models.EditKindCommit), "alice", types.JSONText(`{}`), now, now).
		AddRow("v-2", "unit-1", 2, string(models.ScheduleStatusCommitted), string(models.EditKindOverride), "bob", types.JSONText(`{}`), now, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, unit_id, version, status, kind, actor, meta, committed_at, superseded_at FROM schedule_versions WHERE unit_id = $1 ORDER BY version ASC")).
		WithArgs("unit-1").
		WillReturnRows(rows)

	list, err := repo.ListByUnit(context.Background(), "unit-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, models.ScheduleStatusSuperseded, list[0].Status)
	assert.NotNil(t, list[0].SupersededAt)
	assert.Equal(t, models.EditKindOverride, list[1].Kind)
	assert.Nil(t, list[1].SupersededAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
