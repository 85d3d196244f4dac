package service

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/scheduler"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/jobs"
)

// HistoryArchive is the archive surface the service needs: writes go through
// the stores, reads rebuild them on registration.
type HistoryArchive interface {
	scheduleArchive
	Load(ctx context.Context, unitID string) ([]models.ScheduleVersion, error)
}

// TimetableServiceConfig governs orchestration behaviour.
type TimetableServiceConfig struct {
	DefaultPolicy models.Policy
	CacheTTL      time.Duration
	BatchWorkers  int
	BatchRetries  int
}

// BatchOutcome is the result of one planning unit in a batch solve.
type BatchOutcome struct {
	UnitID string              `json:"unit_id"`
	Result *models.SolveResult `json:"result,omitempty"`
	Error  string              `json:"error,omitempty"`
}

type unitEntry struct {
	unit  models.PlanningUnit
	store *ScheduleStore
}

// unitView is a consistent copy of a registry entry taken under the registry lock.
type unitView struct {
	unit     models.PlanningUnit
	store    *ScheduleStore
	revision uint64
}

// TimetableService keeps a registry of planning units and runs solve, commit,
// override and analysis against them.
type TimetableService struct {
	mu      sync.RWMutex
	units   map[string]*unitEntry
	archive HistoryArchive
	cache   *CacheService
	metrics *MetricsService

	validator *validator.Validate
	logger    *zap.Logger
	cfg       TimetableServiceConfig
}

// NewTimetableService wires orchestration dependencies. archive and cache may be nil.
func NewTimetableService(archive HistoryArchive, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg TimetableServiceConfig) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultPolicy == (models.Policy{}) {
		cfg.DefaultPolicy = models.DefaultPolicy()
	}
	if cfg.BatchWorkers <= 0 {
		cfg.BatchWorkers = 4
	}
	if cfg.BatchRetries <= 0 {
		cfg.BatchRetries = 1
	}
	return &TimetableService{
		units:     make(map[string]*unitEntry),
		archive:   archive,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// RegisterUnit validates and stores a planning unit roster. Registering an
// existing unit replaces its roster and keeps its history.
func (s *TimetableService) RegisterUnit(ctx context.Context, unit models.PlanningUnit) (models.PlanningUnit, error) {
	if unit.Policy == (models.Policy{}) {
		unit.Policy = s.cfg.DefaultPolicy
	}
	unit.Policy = unit.Policy.Normalize()
	if err := s.validator.Struct(unit); err != nil {
		return models.PlanningUnit{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid planning unit")
	}
	if err := scheduler.CheckInput(s.validator, unit.Teachers, unit.Classrooms, unit.Sections, unit.Policy); err != nil {
		return models.PlanningUnit{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.units[unit.ID]; ok {
		entry.unit = unit
		entry.store.UpdateRoster(unit)
		if err := s.cache.InvalidateUnit(ctx, unit.ID); err != nil {
			s.logger.Warn("failed to invalidate solve cache", zap.String("unit_id", unit.ID), zap.Error(err))
		}
		return unit, nil
	}

	var archive scheduleArchive
	if s.archive != nil {
		archive = s.archive
	}
	store := NewScheduleStore(unit, archive, s.metrics, s.logger)
	if s.archive != nil {
		history, err := s.archive.Load(ctx, unit.ID)
		if err != nil {
			return models.PlanningUnit{}, err
		}
		store.Restore(history)
	}
	s.units[unit.ID] = &unitEntry{unit: unit, store: store}
	s.logger.Info("planning unit registered",
		zap.String("unit_id", unit.ID),
		zap.Int("teachers", len(unit.Teachers)),
		zap.Int("classrooms", len(unit.Classrooms)),
		zap.Int("sections", len(unit.Sections)))
	return unit, nil
}

// Unit returns the registered roster of a unit.
func (s *TimetableService) Unit(unitID string) (models.PlanningUnit, error) {
	entry, err := s.entry(unitID)
	if err != nil {
		return models.PlanningUnit{}, err
	}
	return entry.unit, nil
}

// Solve runs the configured solver with the pins of the active schedule and
// keeps the result as the unit draft.
func (s *TimetableService) Solve(ctx context.Context, unitID string) (*models.SolveResult, error) {
	entry, err := s.entry(unitID)
	if err != nil {
		return nil, err
	}
	unit := entry.unit
	pins := entry.store.Pinned()

	cached, key, hit := s.cache.Lookup(ctx, unit, pins)
	if hit {
		s.logger.Debug("solve served from cache", zap.String("unit_id", unitID))
		s.saveDraft(entry, cached)
		return cached, nil
	}

	problem := scheduler.Problem{
		Teachers:   unit.Teachers,
		Classrooms: unit.Classrooms,
		Sections:   unit.Sections,
		Pinned:     pins,
		Policy:     unit.Policy,
	}
	start := time.Now()
	result, err := scheduler.NewSolver(unit.Policy, s.logger).Solve(ctx, problem)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveSolve(result, time.Since(start))
	s.logger.Info("solve finished",
		zap.String("unit_id", unitID),
		zap.String("status", string(result.Status)),
		zap.Int("assignments", len(result.Assignments)),
		zap.Int("unresolved", len(result.Unresolved)),
		zap.Bool("timed_out", result.Stats.TimedOut))

	s.cache.Store(ctx, key, result, s.cfg.CacheTTL)
	s.saveDraft(entry, result)
	return result, nil
}

func (s *TimetableService) saveDraft(view unitView, result *models.SolveResult) {
	if !view.store.SaveDraftAt(view.revision, result) {
		s.logger.Warn("roster changed during solve, draft discarded", zap.String("unit_id", view.unit.ID))
	}
}

// SolveBatch solves several units in parallel on a worker queue. Outcomes
// follow the first occurrence order of unitIDs.
func (s *TimetableService) SolveBatch(ctx context.Context, unitIDs []string) ([]BatchOutcome, error) {
	ids := make([]string, 0, len(unitIDs))
	index := make(map[string]int, len(unitIDs))
	for _, id := range unitIDs {
		if _, seen := index[id]; seen {
			continue
		}
		index[id] = len(ids)
		ids = append(ids, id)
	}
	outcomes := make([]BatchOutcome, len(ids))
	for i, id := range ids {
		outcomes[i].UnitID = id
	}
	if len(ids) == 0 {
		return outcomes, nil
	}

	var mu sync.Mutex
	// finished gets one token per unit; its buffer keeps late workers from blocking.
	finished := make(chan struct{}, len(ids))
	record := func(job jobs.Job, result *models.SolveResult, err error) {
		mu.Lock()
		defer mu.Unlock()
		i := index[job.Payload.(string)]
		outcomes[i].Result = result
		if err != nil {
			outcomes[i].Error = err.Error()
		}
		finished <- struct{}{}
	}

	queue := jobs.NewQueue("timetable-batch", func(ctx context.Context, job jobs.Job) error {
		result, err := s.Solve(ctx, job.Payload.(string))
		if err != nil {
			if appErr := appErrors.FromError(err); appErr.Status < 500 {
				return jobs.Permanent(err)
			}
			return err
		}
		record(job, result, nil)
		return nil
	}, jobs.QueueConfig{
		Workers:    s.cfg.BatchWorkers,
		BufferSize: len(ids),
		MaxRetries: s.cfg.BatchRetries,
		RetryDelay: 50 * time.Millisecond,
		OnFailure:  func(job jobs.Job, err error) { record(job, nil, err) },
		Logger:     s.logger,
	})
	queue.Start(ctx)
	defer queue.Stop()

	for _, id := range ids {
		if err := queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: "solve", Payload: id}); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue batch solve")
		}
	}

	for pending := len(ids); pending > 0; pending-- {
		if err := ctx.Err(); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "batch solve cancelled")
		}
		select {
		case <-finished:
		case <-ctx.Done():
			return nil, appErrors.Wrap(ctx.Err(), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "batch solve cancelled")
		}
	}
	mu.Lock()
	defer mu.Unlock()
	return outcomes, nil
}

// Commit validates and activates a full assignment set.
func (s *TimetableService) Commit(ctx context.Context, unitID string, assignments []models.Assignment, actor string) (int, error) {
	entry, err := s.entry(unitID)
	if err != nil {
		return 0, err
	}
	return entry.store.Commit(ctx, assignments, actor)
}

// CommitDraft activates the latest solve result of the unit.
func (s *TimetableService) CommitDraft(ctx context.Context, unitID, actor string) (int, error) {
	entry, err := s.entry(unitID)
	if err != nil {
		return 0, err
	}
	return entry.store.CommitDraft(ctx, actor)
}

// Override applies one manual assignment against baseVersion.
func (s *TimetableService) Override(ctx context.Context, unitID string, baseVersion int, assignment models.Assignment, actor string) (int, []models.Violation, error) {
	if err := s.validator.Struct(assignment); err != nil {
		return 0, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid override assignment")
	}
	entry, err := s.entry(unitID)
	if err != nil {
		return 0, nil, err
	}
	return entry.store.ApplyOverride(ctx, baseVersion, assignment, actor)
}

// Validate checks an arbitrary assignment set against the unit roster.
func (s *TimetableService) Validate(unitID string, assignments []models.Assignment, partial bool) ([]models.Violation, error) {
	entry, err := s.entry(unitID)
	if err != nil {
		return nil, err
	}
	unit := entry.unit
	if partial {
		return scheduler.ValidatePartial(assignments, unit.Teachers, unit.Classrooms, unit.Sections, unit.Policy), nil
	}
	return scheduler.Validate(assignments, unit.Teachers, unit.Classrooms, unit.Sections, unit.Policy), nil
}

// Current returns the active schedule of the unit.
func (s *TimetableService) Current(unitID string) (models.Schedule, error) {
	entry, err := s.entry(unitID)
	if err != nil {
		return models.Schedule{}, err
	}
	current, ok := entry.store.Current()
	if !ok {
		return models.Schedule{}, appErrors.Clone(appErrors.ErrNotFound, "no committed schedule")
	}
	return current, nil
}

// ScheduleAt returns a committed version of the unit; version 0 means the
// active one. Superseded versions keep their status.
func (s *TimetableService) ScheduleAt(unitID string, version int) (models.Schedule, error) {
	if version == 0 {
		return s.Current(unitID)
	}
	entry, err := s.entry(unitID)
	if err != nil {
		return models.Schedule{}, err
	}
	for v := range entry.store.History() {
		if v.Version == version {
			return v.Snapshot(), nil
		}
	}
	return models.Schedule{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("schedule version %d not found", version))
}

// Draft returns the pending solve result of the unit.
func (s *TimetableService) Draft(unitID string) (models.Schedule, error) {
	entry, err := s.entry(unitID)
	if err != nil {
		return models.Schedule{}, err
	}
	draft, ok := entry.store.Draft()
	if !ok {
		return models.Schedule{}, appErrors.Clone(appErrors.ErrNotFound, "no draft schedule")
	}
	return draft, nil
}

// History returns the lazy version history of the unit.
func (s *TimetableService) History(unitID string) (iter.Seq[models.ScheduleVersion], error) {
	entry, err := s.entry(unitID)
	if err != nil {
		return nil, err
	}
	return entry.store.History(), nil
}

// Recommendations analyzes the latest solve result of the unit. Without a
// result only roster-level findings are produced.
func (s *TimetableService) Recommendations(unitID string) ([]models.Recommendation, error) {
	entry, err := s.entry(unitID)
	if err != nil {
		return nil, err
	}
	unit := entry.unit
	return scheduler.Analyze(entry.store.LastResult(), unit.Teachers, unit.Classrooms, unit.Sections, unit.Policy), nil
}

// entry copies the unit roster and store revision while holding the registry
// lock; RegisterUnit updates both under the write lock.
func (s *TimetableService) entry(unitID string) (unitView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.units[unitID]
	if !ok {
		return unitView{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("planning unit %s not found", unitID))
	}
	return unitView{unit: entry.unit, store: entry.store, revision: entry.store.Revision()}, nil
}
