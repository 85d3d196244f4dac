package service

import (
	"context"
	"iter"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/scheduler"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

// scheduleArchive durably records history entries. Append runs before the
// in-memory state changes; supersedes is the version being replaced (0 for none).
type scheduleArchive interface {
	Append(ctx context.Context, unitID string, entry models.ScheduleVersion, supersedes int) error
}

type roster struct {
	teachers   []models.Teacher
	classrooms []models.Classroom
	sections   []models.Section
	policy     models.Policy
}

// ScheduleStore holds the versioned schedule of one planning unit. Mutations are
// serialized and every accepted version is validated against the unit roster.
type ScheduleStore struct {
	mu     sync.Mutex
	unitID string
	roster roster
	// revision counts roster updates; drafts solved against an older roster are dropped.
	revision uint64
	history  []models.ScheduleVersion
	draft    *models.SolveResult
	last     *models.SolveResult

	archive scheduleArchive
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewScheduleStore builds an empty store for the unit.
func NewScheduleStore(unit models.PlanningUnit, archive scheduleArchive, metrics *MetricsService, logger *zap.Logger) *ScheduleStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	store := &ScheduleStore{
		unitID:  unit.ID,
		archive: archive,
		metrics: metrics,
		logger:  logger.With(zap.String("unit_id", unit.ID)),
		now:     func() time.Time { return time.Now().UTC() },
	}
	store.setRoster(unit)
	return store
}

func (s *ScheduleStore) setRoster(unit models.PlanningUnit) {
	s.roster = roster{
		teachers:   append([]models.Teacher(nil), unit.Teachers...),
		classrooms: append([]models.Classroom(nil), unit.Classrooms...),
		sections:   append([]models.Section(nil), unit.Sections...),
		policy:     unit.Policy.Normalize(),
	}
}

// UpdateRoster swaps the roster used to validate later commits. History is kept
// and the pending draft is dropped.
func (s *ScheduleStore) UpdateRoster(unit models.PlanningUnit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setRoster(unit)
	s.revision++
	s.draft = nil
	s.last = nil
}

// Revision returns the roster revision the store currently validates against.
func (s *ScheduleStore) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Restore replaces the history with previously archived versions.
func (s *ScheduleStore) Restore(versions []models.ScheduleVersion) {
	items := make([]models.ScheduleVersion, 0, len(versions))
	for _, v := range versions {
		items = append(items, cloneVersion(v))
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Version < items[j].Version })

	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = items
}

// Version returns the active version number, 0 when nothing was committed.
func (s *ScheduleStore) Version() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentVersion()
}

// Current returns the active schedule.
func (s *ScheduleStore) Current() (models.Schedule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) == 0 {
		return models.Schedule{}, false
	}
	return s.history[len(s.history)-1].Snapshot(), true
}

// Pinned returns the manual overrides of the active schedule; the solver keeps them fixed.
func (s *ScheduleStore) Pinned() []models.Assignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) == 0 {
		return nil
	}
	var pins []models.Assignment
	for _, item := range s.history[len(s.history)-1].Assignments {
		if item.Pinned() {
			pins = append(pins, item)
		}
	}
	return pins
}

// SaveDraft keeps the latest solve result as the pending draft. The result
// stays available to LastResult after the draft is committed.
func (s *ScheduleStore) SaveDraft(result *models.SolveResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveDraftLocked(result)
}

// SaveDraftAt is SaveDraft for a result solved against roster revision. It
// reports false and keeps the store unchanged when the roster moved on.
func (s *ScheduleStore) SaveDraftAt(revision uint64, result *models.SolveResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if revision != s.revision {
		return false
	}
	s.saveDraftLocked(result)
	return true
}

func (s *ScheduleStore) saveDraftLocked(result *models.SolveResult) {
	if result == nil {
		return
	}
	copied := *result
	copied.Assignments = models.CloneAssignments(result.Assignments)
	s.draft = &copied
	s.last = &copied
}

// Draft returns the pending draft, if any.
func (s *ScheduleStore) Draft() (models.Schedule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return models.Schedule{}, false
	}
	return models.Schedule{
		UnitID:      s.unitID,
		Version:     s.currentVersion() + 1,
		Status:      models.ScheduleStatusDraft,
		Assignments: models.CloneAssignments(s.draft.Assignments),
	}, true
}

// LastResult returns the most recent solve result of the unit.
func (s *ScheduleStore) LastResult() *models.SolveResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	copied := *s.last
	copied.Assignments = models.CloneAssignments(s.last.Assignments)
	return &copied
}

// CommitDraft commits the pending draft and clears it on success.
func (s *ScheduleStore) CommitDraft(ctx context.Context, actor string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return 0, appErrors.Clone(appErrors.ErrNotFound, "no draft schedule to commit")
	}
	version, err := s.commitLocked(ctx, s.draft.Assignments, actor)
	if err != nil {
		return 0, err
	}
	s.draft = nil
	return version, nil
}

// Commit validates the full assignment set and makes it the active schedule.
func (s *ScheduleStore) Commit(ctx context.Context, assignments []models.Assignment, actor string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(ctx, assignments, actor)
}

func (s *ScheduleStore) commitLocked(ctx context.Context, assignments []models.Assignment, actor string) (int, error) {
	items := normalizeOrigins(assignments)
	if violations := s.validate(items); len(violations) > 0 {
		s.metrics.RecordRejectedCommit()
		s.logger.Info("commit rejected", zap.Int("violations", len(violations)))
		return 0, rejected(violations)
	}
	entry := models.ScheduleVersion{
		Kind:        models.EditKindCommit,
		Actor:       actor,
		Assignments: items,
	}
	return s.appendLocked(ctx, entry)
}

// ApplyOverride replaces the assignment filling the same section session (or
// adds it), pins it, and commits the result as a new version. A resulting set
// identical to the active one is a no-op returning the current version.
func (s *ScheduleStore) ApplyOverride(ctx context.Context, baseVersion int, assignment models.Assignment, actor string) (int, []models.Violation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.history) == 0 {
		return 0, nil, appErrors.Clone(appErrors.ErrNotFound, "no committed schedule to override")
	}
	current := s.history[len(s.history)-1]

	assignment.Origin = models.OriginPinned
	next := models.CloneAssignments(current.Assignments)
	replaced := false
	for i := range next {
		if next[i].Key() == assignment.Key() {
			next[i] = assignment
			replaced = true
			break
		}
	}
	if !replaced {
		next = append(next, assignment)
	}

	if models.SameAssignments(next, current.Assignments) {
		return current.Version, nil, nil
	}
	if baseVersion != current.Version {
		s.metrics.RecordStaleOverride()
		stale := &models.StaleVersionError{Expected: baseVersion, Current: current.Version}
		return current.Version, nil, appErrors.Wrap(stale, appErrors.ErrStaleVersion.Code, appErrors.ErrStaleVersion.Status, appErrors.ErrStaleVersion.Message)
	}
	if violations := s.validate(next); len(violations) > 0 {
		s.metrics.RecordRejectedCommit()
		s.logger.Info("override rejected",
			zap.String("section_id", assignment.SectionID),
			zap.Int("session", assignment.Session),
			zap.Int("violations", len(violations)))
		return current.Version, violations, rejected(violations)
	}

	override := assignment
	entry := models.ScheduleVersion{
		Kind:        models.EditKindOverride,
		Actor:       actor,
		Assignments: next,
		Override:    &override,
	}
	version, err := s.appendLocked(ctx, entry)
	if err != nil {
		return current.Version, nil, err
	}
	return version, nil, nil
}

// History yields every version oldest first. The sequence iterates over a
// snapshot taken at call time and can be ranged over repeatedly.
func (s *ScheduleStore) History() iter.Seq[models.ScheduleVersion] {
	s.mu.Lock()
	snapshot := make([]models.ScheduleVersion, len(s.history))
	for i, v := range s.history {
		snapshot[i] = cloneVersion(v)
	}
	s.mu.Unlock()

	return func(yield func(models.ScheduleVersion) bool) {
		for _, v := range snapshot {
			if !yield(cloneVersion(v)) {
				return
			}
		}
	}
}

func (s *ScheduleStore) appendLocked(ctx context.Context, entry models.ScheduleVersion) (int, error) {
	previous := s.currentVersion()
	now := s.now()

	entry.ID = uuid.NewString()
	entry.UnitID = s.unitID
	entry.Version = previous + 1
	entry.Status = models.ScheduleStatusCommitted
	entry.CommittedAt = now
	models.SortAssignments(entry.Assignments)

	if s.archive != nil {
		if err := s.archive.Append(ctx, s.unitID, cloneVersion(entry), previous); err != nil {
			s.logger.Error("archive schedule version failed", zap.Int("version", entry.Version), zap.Error(err))
			return 0, appErrors.FromError(err)
		}
	}

	if previous > 0 {
		last := &s.history[len(s.history)-1]
		last.Status = models.ScheduleStatusSuperseded
		last.SupersededAt = &now
	}
	s.history = append(s.history, entry)
	s.metrics.RecordCommit(entry.Kind)
	s.logger.Info("schedule version committed",
		zap.Int("version", entry.Version),
		zap.String("kind", string(entry.Kind)),
		zap.String("actor", entry.Actor),
		zap.Int("assignments", len(entry.Assignments)))
	return entry.Version, nil
}

func (s *ScheduleStore) currentVersion() int {
	if len(s.history) == 0 {
		return 0
	}
	return s.history[len(s.history)-1].Version
}

func (s *ScheduleStore) validate(items []models.Assignment) []models.Violation {
	r := s.roster
	if r.policy.AllowPartialCommit {
		return scheduler.ValidatePartial(items, r.teachers, r.classrooms, r.sections, r.policy)
	}
	return scheduler.Validate(items, r.teachers, r.classrooms, r.sections, r.policy)
}

func rejected(violations []models.Violation) error {
	return appErrors.Wrap(&models.RejectedCommitError{Violations: violations}, appErrors.ErrRejectedCommit.Code, appErrors.ErrRejectedCommit.Status, appErrors.ErrRejectedCommit.Message)
}

func normalizeOrigins(items []models.Assignment) []models.Assignment {
	out := models.CloneAssignments(items)
	if out == nil {
		out = []models.Assignment{}
	}
	for i := range out {
		if out[i].Origin == "" {
			out[i].Origin = models.OriginGenerated
		}
	}
	return out
}

func cloneVersion(v models.ScheduleVersion) models.ScheduleVersion {
	v.Assignments = models.CloneAssignments(v.Assignments)
	if v.Override != nil {
		override := *v.Override
		v.Override = &override
	}
	if v.SupersededAt != nil {
		at := *v.SupersededAt
		v.SupersededAt = &at
	}
	return v
}
