package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

const solveCachePrefix = "timetable:solve"

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService caches solve results keyed by a digest of everything the
// solver reads: roster, policy and pins.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a solve cache. A nil repo disables it.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Lookup returns the cached result for the inputs and the key it was looked
// up under. Repository failures count as misses.
func (s *CacheService) Lookup(ctx context.Context, unit models.PlanningUnit, pins []models.Assignment) (*models.SolveResult, string, bool) {
	if !s.Enabled() {
		return nil, "", false
	}
	key, err := SolveCacheKey(unit, pins)
	if err != nil {
		s.logger.Warn("solve cache key failed", zap.String("unit_id", unit.ID), zap.Error(err))
		return nil, "", false
	}

	start := time.Now()
	var cached models.SolveResult
	err = s.repo.Get(ctx, key, &cached)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("solve cache get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, key, false
	}
	s.metrics.RecordCacheOperation(true, duration)
	return &cached, key, true
}

// Store saves a result under key. Results cut short by the time budget are
// skipped since another run may get further.
func (s *CacheService) Store(ctx context.Context, key string, result *models.SolveResult, ttl time.Duration) {
	if !s.Enabled() || key == "" || result == nil || result.Stats.TimedOut {
		return
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, result, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("solve cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateUnit drops every cached result of a planning unit.
func (s *CacheService) InvalidateUnit(ctx context.Context, unitID string) error {
	if !s.Enabled() {
		return nil
	}
	pattern := fmt.Sprintf("%s:%s:*", solveCachePrefix, unitID)
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("solve cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	return nil
}

// SolveCacheKey digests the roster, policy and pins in canonical order so
// reordered inputs share a key.
func SolveCacheKey(unit models.PlanningUnit, pins []models.Assignment) (string, error) {
	teachers := append([]models.Teacher(nil), unit.Teachers...)
	sort.Slice(teachers, func(i, j int) bool { return teachers[i].ID < teachers[j].ID })
	classrooms := append([]models.Classroom(nil), unit.Classrooms...)
	sort.Slice(classrooms, func(i, j int) bool { return classrooms[i].ID < classrooms[j].ID })
	sections := append([]models.Section(nil), unit.Sections...)
	sort.Slice(sections, func(i, j int) bool { return sections[i].ID < sections[j].ID })
	sortedPins := models.CloneAssignments(pins)
	models.SortAssignments(sortedPins)

	payload, err := json.Marshal(struct {
		Teachers   []models.Teacher    `json:"t"`
		Classrooms []models.Classroom  `json:"c"`
		Sections   []models.Section    `json:"s"`
		Pins       []models.Assignment `json:"p"`
		Policy     models.Policy       `json:"o"`
	}{teachers, classrooms, sections, sortedPins, unit.Policy})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return fmt.Sprintf("%s:%s:%s", solveCachePrefix, unit.ID, hex.EncodeToString(sum[:])), nil
}
