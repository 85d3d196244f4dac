package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/service"
)

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *struct{ Code string } `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

type apiFixture struct {
	t         *testing.T
	router    *gin.Engine
	scheduler string
	viewer    string
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	metrics := service.NewMetricsService()
	svc := service.NewTimetableService(nil, nil, metrics, nil, nil, service.TimetableServiceConfig{})
	tokens := service.NewTokenService(service.TokenConfig{Secret: "test-secret", Issuer: "sma-timetable", Expiry: time.Hour})

	router := gin.New()
	Routes{
		Timetable: NewTimetableHandler(svc, nil, nil),
		Metrics:   NewMetricsHandler(metrics),
		Tokens:    tokens,
	}.Mount(router.Group("/api/v1"))

	scheduler, _, err := tokens.IssueToken("planner-1", models.RoleScheduler, "planner@school.test", "Planner")
	require.NoError(t, err)
	viewer, _, err := tokens.IssueToken("viewer-1", models.RoleViewer, "", "")
	require.NoError(t, err)

	return &apiFixture{t: t, router: router, scheduler: scheduler, viewer: viewer}
}

func (f *apiFixture) do(method, path, token string, body interface{}, headers ...string) (*httptest.ResponseRecorder, envelope) {
	f.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(f.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(f.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func unitPayload() map[string]interface{} {
	return map[string]interface{}{
		"teachers":   []models.Teacher{{ID: "t-math", Majors: []string{"math"}}},
		"classrooms": []models.Classroom{{ID: "r-1", Capacity: 40}},
		"sections": []models.Section{
			{ID: "10A-math", Subject: "math", GradeLevel: 10, Enrollment: 30, SessionsPerWeek: 2, SessionDuration: 1},
		},
	}
}

func mathSession(session, day, period int) models.Assignment {
	return models.Assignment{
		SectionID:   "10A-math",
		Session:     session,
		TeacherID:   "t-math",
		ClassroomID: "r-1",
		Slot:        models.TimeSlot{Day: day, Period: period},
		Duration:    1,
	}
}

func decodeVersion(t *testing.T, env envelope) int {
	t.Helper()
	var body struct {
		Version int `json:"version"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	return body.Version
}

func TestTimetableAPIRequiresSchedulerRole(t *testing.T) {
	f := newAPIFixture(t)

	w, env := f.do(http.MethodPut, "/api/v1/units/u-1", "", unitPayload())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	w, env = f.do(http.MethodPut, "/api/v1/units/u-1", f.viewer, unitPayload())
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	w, _ = f.do(http.MethodPut, "/api/v1/units/u-1", f.scheduler, unitPayload())
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = f.do(http.MethodGet, "/api/v1/units/u-1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary struct {
		ID       string `json:"id"`
		Sections int    `json:"sections"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, "u-1", summary.ID)
	assert.Equal(t, 1, summary.Sections)
}

func TestTimetableAPISolveAndCommitDraft(t *testing.T) {
	f := newAPIFixture(t)
	f.do(http.MethodPut, "/api/v1/units/u-1", f.scheduler, unitPayload())

	w, env := f.do(http.MethodGet, "/api/v1/units/u-1/draft", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = f.do(http.MethodPost, "/api/v1/units/u-1/solve", f.scheduler, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var result models.SolveResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, models.SolveFeasible, result.Status)
	assert.Len(t, result.Assignments, 2)

	w, env = f.do(http.MethodGet, "/api/v1/units/u-1/draft", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = f.do(http.MethodPost, "/api/v1/units/u-1/draft/commit", f.scheduler, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, decodeVersion(t, env))
	assert.Equal(t, `"1"`, w.Header().Get("ETag"))

	w, env = f.do(http.MethodGet, "/api/v1/units/u-1/schedule", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var current models.Schedule
	require.NoError(t, json.Unmarshal(env.Data, &current))
	assert.Equal(t, 1, current.Version)
	assert.Equal(t, models.ScheduleStatusCommitted, current.Status)

	w, env = f.do(http.MethodGet, "/api/v1/units/u-1/recommendations", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var recs []models.Recommendation
	require.NoError(t, json.Unmarshal(env.Data, &recs))
	for _, rec := range recs {
		assert.Equal(t, models.SeverityAdvisory, rec.Severity)
	}
}

func TestTimetableAPIOverrides(t *testing.T) {
	f := newAPIFixture(t)
	f.do(http.MethodPut, "/api/v1/units/u-1", f.scheduler, unitPayload())

	w, env := f.do(http.MethodPost, "/api/v1/units/u-1/schedule", f.scheduler, map[string]interface{}{
		"assignments": []models.Assignment{mathSession(1, 1, 1), mathSession(2, 1, 2)},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, decodeVersion(t, env))

	w, env = f.do(http.MethodPost, "/api/v1/units/u-1/schedule/overrides", f.scheduler,
		map[string]interface{}{"assignment": mathSession(1, 5, 3)}, "If-Match", `"1"`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decodeVersion(t, env))

	w, env = f.do(http.MethodPost, "/api/v1/units/u-1/schedule/overrides", f.scheduler,
		map[string]interface{}{"base_version": 1, "assignment": mathSession(2, 2, 1)})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "STALE_VERSION", env.Error.Code)
	assert.JSONEq(t, `{"expected_version":1,"current_version":2}`, string(env.Data))

	w, env = f.do(http.MethodPost, "/api/v1/units/u-1/schedule/overrides", f.scheduler,
		map[string]interface{}{"base_version": 2, "assignment": mathSession(2, 5, 3)})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "REJECTED_COMMIT", env.Error.Code)
	var rejected struct {
		Violations []models.Violation `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &rejected))
	assert.NotEmpty(t, rejected.Violations)

	w, env = f.do(http.MethodPost, "/api/v1/units/u-1/schedule/overrides", f.scheduler,
		map[string]interface{}{"assignment": mathSession(2, 2, 1)})
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)

	w, env = f.do(http.MethodGet, "/api/v1/units/u-1/schedule/history?since=1&include=assignments", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []struct {
		Version     int                 `json:"version"`
		Kind        models.EditKind     `json:"kind"`
		Actor       string              `json:"actor"`
		Assignments []models.Assignment `json:"assignments"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 1)
	assert.Equal(t, 2, history[0].Version)
	assert.Equal(t, models.EditKindOverride, history[0].Kind)
	assert.Equal(t, "planner-1", history[0].Actor)
	assert.Len(t, history[0].Assignments, 2)
}

func TestTimetableAPIValidate(t *testing.T) {
	f := newAPIFixture(t)
	f.do(http.MethodPut, "/api/v1/units/u-1", f.scheduler, unitPayload())

	w, env := f.do(http.MethodPost, "/api/v1/units/u-1/validate", "", map[string]interface{}{
		"assignments": []models.Assignment{mathSession(1, 1, 1)},
		"partial":     true,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"valid":true,"violations":[]}`, string(env.Data))

	w, env = f.do(http.MethodPost, "/api/v1/units/u-1/validate", "", map[string]interface{}{
		"assignments": []models.Assignment{mathSession(1, 1, 1)},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var result struct {
		Valid      bool               `json:"valid"`
		Violations []models.Violation `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.False(t, result.Valid)
	assert.Equal(t, models.ViolationSessionCountMismatch, result.Violations[0].Kind)

	w, _ = f.do(http.MethodPost, "/api/v1/units/u-1/validate", "", map[string]interface{}{
		"assignments": []map[string]interface{}{{"section_id": "10A-math", "session": 0}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableAPISolveBatch(t *testing.T) {
	f := newAPIFixture(t)
	f.do(http.MethodPut, "/api/v1/units/u-1", f.scheduler, unitPayload())
	f.do(http.MethodPut, "/api/v1/units/u-2", f.scheduler, unitPayload())

	w, env := f.do(http.MethodPost, "/api/v1/units/solve", f.scheduler, map[string]interface{}{
		"unit_ids": []string{"u-1", "missing", "u-2"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var outcomes []service.BatchOutcome
	require.NoError(t, json.Unmarshal(env.Data, &outcomes))
	require.Len(t, outcomes, 3)
	assert.Equal(t, "u-1", outcomes[0].UnitID)
	assert.NotEmpty(t, outcomes[1].Error)
	assert.Equal(t, float64(1), env.Meta["failed"])

	w, _ = f.do(http.MethodPost, "/api/v1/units/solve", f.scheduler, map[string]interface{}{"unit_ids": []string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableAPIMetricsSummary(t *testing.T) {
	f := newAPIFixture(t)
	f.do(http.MethodPut, "/api/v1/units/u-1", f.scheduler, unitPayload())
	f.do(http.MethodPost, "/api/v1/units/u-1/solve", f.scheduler, nil)

	w, env := f.do(http.MethodGet, "/api/v1/metrics/summary", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snapshot models.SystemMetrics
	require.NoError(t, json.Unmarshal(env.Data, &snapshot))
	assert.Equal(t, uint64(1), snapshot.SolvesTotal)
}

func TestTimetableAPIExport(t *testing.T) {
	f := newAPIFixture(t)
	f.do(http.MethodPut, "/api/v1/units/u-1", f.scheduler, unitPayload())

	w, env := f.do(http.MethodGet, "/api/v1/units/u-1/schedule/export", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	f.do(http.MethodPost, "/api/v1/units/u-1/schedule", f.scheduler, map[string]interface{}{
		"assignments": []models.Assignment{mathSession(1, 1, 1), mathSession(2, 1, 2)},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/units/u-1/schedule/export?format=csv&layout=list", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "timetable-u-1-v1-list.csv")
	assert.Contains(t, rec.Body.String(), "MONDAY,1,1,10A-math,math,10,t-math,r-1,GENERATED")

	w, env = f.do(http.MethodGet, "/api/v1/units/u-1/schedule/export?format=xlsx", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}
