package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type scheduleVersionRepository interface {
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, record *models.ScheduleVersionRecord) error
	MarkSuperseded(ctx context.Context, exec sqlx.ExtContext, unitID string, version int, at time.Time) error
	ListByUnit(ctx context.Context, unitID string) ([]models.ScheduleVersionRecord, error)
}

type scheduleAssignmentRepository interface {
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, versionID string, items []models.Assignment) error
	ListByVersion(ctx context.Context, versionID string) ([]models.Assignment, error)
}

type versionMeta struct {
	Override *models.Assignment `json:"override,omitempty"`
}

// ScheduleArchiveService writes schedule history to Postgres inside one
// transaction per version and reloads it when a unit is registered.
type ScheduleArchiveService struct {
	tx          txProvider
	versions    scheduleVersionRepository
	assignments scheduleAssignmentRepository
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewScheduleArchiveService wires archive dependencies.
func NewScheduleArchiveService(tx txProvider, versions scheduleVersionRepository, assignments scheduleAssignmentRepository, metrics *MetricsService, logger *zap.Logger) *ScheduleArchiveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleArchiveService{tx: tx, versions: versions, assignments: assignments, metrics: metrics, logger: logger}
}

// Append persists a new version and supersedes the previous one atomically.
func (s *ScheduleArchiveService) Append(ctx context.Context, unitID string, entry models.ScheduleVersion, supersedes int) (err error) {
	if s.tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	start := time.Now()
	defer func() { s.metrics.ObserveDBQuery("schedule_archive_append", time.Since(start)) }()

	metaBytes, marshalErr := json.Marshal(versionMeta{Override: entry.Override})
	if marshalErr != nil {
		return appErrors.Wrap(marshalErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode version metadata")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if supersedes > 0 {
		if err = s.versions.MarkSuperseded(ctx, tx, unitID, supersedes, entry.CommittedAt); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to supersede schedule version")
			return err
		}
	}

	record := &models.ScheduleVersionRecord{
		ID:          entry.ID,
		UnitID:      unitID,
		Version:     entry.Version,
		Status:      models.ScheduleStatusCommitted,
		Kind:        entry.Kind,
		Actor:       entry.Actor,
		Meta:        types.JSONText(metaBytes),
		CommittedAt: entry.CommittedAt,
	}
	if err = s.versions.CreateVersioned(ctx, tx, record); err != nil {
		var stale *models.StaleVersionError
		if errors.As(err, &stale) {
			err = appErrors.Wrap(stale, appErrors.ErrStaleVersion.Code, appErrors.ErrStaleVersion.Status, "archived history is ahead of this node")
			return err
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule version")
		return err
	}
	if err = s.assignments.InsertBatch(ctx, tx, record.ID, entry.Assignments); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist schedule assignments")
		return err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule transaction")
		return err
	}
	s.logger.Debug("schedule version archived", zap.String("unit_id", unitID), zap.Int("version", entry.Version))
	return nil
}

// Load rebuilds the history of a unit, oldest first.
func (s *ScheduleArchiveService) Load(ctx context.Context, unitID string) ([]models.ScheduleVersion, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveDBQuery("schedule_archive_load", time.Since(start)) }()

	records, err := s.versions.ListByUnit(ctx, unitID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule versions")
	}
	out := make([]models.ScheduleVersion, 0, len(records))
	for _, record := range records {
		items, err := s.assignments.ListByVersion(ctx, record.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule assignments")
		}
		var meta versionMeta
		if len(record.Meta) > 0 {
			if err := record.Meta.Unmarshal(&meta); err != nil {
				s.logger.Warn("ignoring malformed version metadata", zap.String("version_id", record.ID), zap.Error(err))
			}
		}
		out = append(out, models.ScheduleVersion{
			ID:           record.ID,
			UnitID:       record.UnitID,
			Version:      record.Version,
			Status:       record.Status,
			Kind:         record.Kind,
			Actor:        record.Actor,
			Assignments:  items,
			Override:     meta.Override,
			CommittedAt:  record.CommittedAt,
			SupersededAt: record.SupersededAt,
		})
	}
	return out, nil
}
