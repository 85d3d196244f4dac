package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

func testPolicy() models.Policy {
	policy := models.DefaultPolicy()
	policy.SolverTimeLimitMs = 0
	return policy
}

func smallUnit(id string) models.PlanningUnit {
	return models.PlanningUnit{
		ID: id,
		Teachers: []models.Teacher{
			{ID: "t-math", Majors: []string{"math"}, Minors: []string{"physics"}},
			{ID: "t-physics", Majors: []string{"physics"}},
			{ID: "t-bio", Majors: []string{"biology"}, Minors: []string{"math"}},
		},
		Classrooms: []models.Classroom{
			{ID: "r-101", Capacity: 40},
			{ID: "r-102", Capacity: 30},
		},
		Sections: []models.Section{
			{ID: "10A-math", Subject: "math", GradeLevel: 10, Enrollment: 35, SessionsPerWeek: 4, SessionDuration: 1},
			{ID: "10A-physics", Subject: "physics", GradeLevel: 10, Enrollment: 35, SessionsPerWeek: 3, SessionDuration: 2},
			{ID: "10B-math", Subject: "math", GradeLevel: 10, Enrollment: 28, SessionsPerWeek: 4, SessionDuration: 1},
			{ID: "10B-biology", Subject: "biology", GradeLevel: 10, Enrollment: 28, SessionsPerWeek: 2, SessionDuration: 2},
		},
		Policy: testPolicy(),
	}
}

func assignment(section string, session int, teacher, room string, day, period, duration int) models.Assignment {
	return models.Assignment{
		SectionID:   section,
		Session:     session,
		TeacherID:   teacher,
		ClassroomID: room,
		Slot:        models.TimeSlot{Day: day, Period: period},
		Duration:    duration,
	}
}

func validSchedule() []models.Assignment {
	return []models.Assignment{
		assignment("10A-math", 1, "t-math", "r-101", 1, 1, 1),
		assignment("10A-math", 2, "t-math", "r-101", 2, 1, 1),
		assignment("10A-math", 3, "t-math", "r-101", 3, 1, 1),
		assignment("10A-math", 4, "t-math", "r-101", 4, 1, 1),
		assignment("10A-physics", 1, "t-physics", "r-101", 1, 2, 2),
		assignment("10A-physics", 2, "t-physics", "r-101", 2, 2, 2),
		assignment("10A-physics", 3, "t-physics", "r-101", 3, 2, 2),
		assignment("10B-math", 1, "t-math", "r-102", 1, 2, 1),
		assignment("10B-math", 2, "t-math", "r-102", 2, 2, 1),
		assignment("10B-math", 3, "t-math", "r-102", 3, 2, 1),
		assignment("10B-math", 4, "t-math", "r-102", 4, 2, 1),
		assignment("10B-biology", 1, "t-bio", "r-102", 1, 3, 2),
		assignment("10B-biology", 2, "t-bio", "r-102", 2, 3, 2),
	}
}

func requireErrorCode(t *testing.T, err error, code string) *appErrors.Error {
	t.Helper()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr), "expected *errors.Error, got %T", err)
	require.Equal(t, code, appErr.Code)
	return appErr
}

type archiveCall struct {
	unitID     string
	version    int
	kind       models.EditKind
	supersedes int
}

type archiveStub struct {
	mu      sync.Mutex
	calls   []archiveCall
	stored  map[string][]models.ScheduleVersion
	fail    error
	loadErr error
}

func (a *archiveStub) Append(ctx context.Context, unitID string, entry models.ScheduleVersion, supersedes int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail != nil {
		return a.fail
	}
	a.calls = append(a.calls, archiveCall{unitID: unitID, version: entry.Version, kind: entry.Kind, supersedes: supersedes})
	if a.stored == nil {
		a.stored = make(map[string][]models.ScheduleVersion)
	}
	a.stored[unitID] = append(a.stored[unitID], entry)
	return nil
}

func (a *archiveStub) Load(ctx context.Context, unitID string) ([]models.ScheduleVersion, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loadErr != nil {
		return nil, a.loadErr
	}
	return append([]models.ScheduleVersion(nil), a.stored[unitID]...), nil
}

type memoryCacheRepo struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: make(map[string][]byte)}
}

func (r *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw, ok := r.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (r *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = raw
	return nil
}

func (r *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.entries {
		if strings.HasPrefix(key, prefix) {
			delete(r.entries, key)
		}
	}
	return nil
}

func (r *memoryCacheRepo) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
