package handler

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/service"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/response"
)

const anonymousActor = "anonymous"

type timetableService interface {
	RegisterUnit(ctx context.Context, unit models.PlanningUnit) (models.PlanningUnit, error)
	Unit(unitID string) (models.PlanningUnit, error)
	Solve(ctx context.Context, unitID string) (*models.SolveResult, error)
	SolveBatch(ctx context.Context, unitIDs []string) ([]service.BatchOutcome, error)
	Draft(unitID string) (models.Schedule, error)
	CommitDraft(ctx context.Context, unitID, actor string) (int, error)
	Commit(ctx context.Context, unitID string, assignments []models.Assignment, actor string) (int, error)
	Override(ctx context.Context, unitID string, baseVersion int, assignment models.Assignment, actor string) (int, []models.Violation, error)
	Current(unitID string) (models.Schedule, error)
	ScheduleAt(unitID string, version int) (models.Schedule, error)
	History(unitID string) (iter.Seq[models.ScheduleVersion], error)
	Recommendations(unitID string) ([]models.Recommendation, error)
	Validate(unitID string, assignments []models.Assignment, partial bool) ([]models.Violation, error)
}

type scheduleExporter interface {
	Render(unit models.PlanningUnit, schedule models.Schedule, format service.ExportFormat, layout service.ExportLayout) (*service.ExportFile, error)
}

// TimetableHandler exposes planning unit, solve and schedule endpoints.
type TimetableHandler struct {
	service   timetableService
	exporter  scheduleExporter
	validator *validator.Validate
}

// NewTimetableHandler constructs the handler. A nil exporter uses the default renderers.
func NewTimetableHandler(svc timetableService, exporter scheduleExporter, validate *validator.Validate) *TimetableHandler {
	if validate == nil {
		validate = validator.New()
	}
	if exporter == nil {
		exporter = service.NewExportService(nil, nil, nil)
	}
	return &TimetableHandler{service: svc, exporter: exporter, validator: validate}
}

// RegisterUnit godoc
// @Summary Register or replace a planning unit roster
// @Tags Units
// @Accept json
// @Produce json
// @Param unitID path string true "Planning unit ID"
// @Param payload body dto.RegisterUnitRequest true "Roster and policy"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /units/{unitID} [put]
func (h *TimetableHandler) RegisterUnit(c *gin.Context) {
	var req dto.RegisterUnitRequest
	if !h.bind(c, &req, "invalid unit payload") {
		return
	}
	unit, err := h.service.RegisterUnit(c.Request.Context(), req.Unit(c.Param("unitID")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewUnitSummary(unit))
}

// GetUnit godoc
// @Summary Get planning unit summary
// @Tags Units
// @Produce json
// @Param unitID path string true "Planning unit ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /units/{unitID} [get]
func (h *TimetableHandler) GetUnit(c *gin.Context) {
	unit, err := h.service.Unit(c.Param("unitID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewUnitSummary(unit))
}

// Solve godoc
// @Summary Solve the unit timetable into a draft
// @Description Runs the configured solver with the active overrides pinned. The result becomes the unit draft.
// @Tags Solve
// @Produce json
// @Param unitID path string true "Planning unit ID"
// @Success 200 {object} response.Envelope
// @Router /units/{unitID}/solve [post]
func (h *TimetableHandler) Solve(c *gin.Context) {
	result, err := h.service.Solve(c.Request.Context(), c.Param("unitID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// SolveBatch godoc
// @Summary Solve several planning units concurrently
// @Tags Solve
// @Accept json
// @Produce json
// @Param payload body dto.BatchSolveRequest true "Unit IDs"
// @Success 200 {object} response.Envelope
// @Router /units/solve [post]
func (h *TimetableHandler) SolveBatch(c *gin.Context) {
	var req dto.BatchSolveRequest
	if !h.bind(c, &req, "invalid batch payload") {
		return
	}
	outcomes, err := h.service.SolveBatch(c.Request.Context(), req.UnitIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	failed := 0
	for _, outcome := range outcomes {
		if outcome.Error != "" {
			failed++
		}
	}
	response.OK(c, outcomes, map[string]interface{}{"total": len(outcomes), "failed": failed})
}

// Draft godoc
// @Summary Get the pending draft schedule
// @Tags Schedules
// @Produce json
// @Param unitID path string true "Planning unit ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /units/{unitID}/draft [get]
func (h *TimetableHandler) Draft(c *gin.Context) {
	draft, err := h.service.Draft(c.Param("unitID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, draft)
}

// CommitDraft godoc
// @Summary Commit the pending draft
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param unitID path string true "Planning unit ID"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /units/{unitID}/draft/commit [post]
func (h *TimetableHandler) CommitDraft(c *gin.Context) {
	version, err := h.service.CommitDraft(c.Request.Context(), c.Param("unitID"), actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	setETag(c, version)
	response.Created(c, dto.VersionResponse{Version: version})
}

// Commit godoc
// @Summary Commit a full assignment set
// @Description The set is validated against every hard constraint; any violation rejects it.
// @Tags Schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param unitID path string true "Planning unit ID"
// @Param payload body dto.CommitRequest true "Assignments"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /units/{unitID}/schedule [post]
func (h *TimetableHandler) Commit(c *gin.Context) {
	var req dto.CommitRequest
	if !h.bind(c, &req, "invalid commit payload") {
		return
	}
	version, err := h.service.Commit(c.Request.Context(), c.Param("unitID"), req.Assignments, actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	setETag(c, version)
	response.Created(c, dto.VersionResponse{Version: version})
}

// Override godoc
// @Summary Manually place one session
// @Description Applies the assignment against base_version (or If-Match). Stale versions return 409 and violations 422.
// @Tags Schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param unitID path string true "Planning unit ID"
// @Param If-Match header string false "Base version"
// @Param payload body dto.OverrideRequest true "Override"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /units/{unitID}/schedule/overrides [post]
func (h *TimetableHandler) Override(c *gin.Context) {
	var req dto.OverrideRequest
	if !h.bind(c, &req, "invalid override payload") {
		return
	}
	base, err := baseVersion(c, req.BaseVersion)
	if err != nil {
		response.Error(c, err)
		return
	}
	version, _, err := h.service.Override(c.Request.Context(), c.Param("unitID"), base, req.Assignment, actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	setETag(c, version)
	response.OK(c, dto.VersionResponse{Version: version})
}

// Current godoc
// @Summary Get the active schedule
// @Tags Schedules
// @Produce json
// @Param unitID path string true "Planning unit ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /units/{unitID}/schedule [get]
func (h *TimetableHandler) Current(c *gin.Context) {
	current, err := h.service.Current(c.Param("unitID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	setETag(c, current.Version)
	response.OK(c, current)
}

// History godoc
// @Summary List schedule versions oldest first
// @Tags Schedules
// @Produce json
// @Param unitID path string true "Planning unit ID"
// @Param include query string false "Set to assignments to embed each version's assignments"
// @Param since query int false "Only versions newer than this one"
// @Success 200 {object} response.Envelope
// @Router /units/{unitID}/schedule/history [get]
func (h *TimetableHandler) History(c *gin.Context) {
	since := 0
	if raw := c.Query("since"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "since must be a non-negative integer"))
			return
		}
		since = parsed
	}
	withAssignments := c.Query("include") == "assignments"

	history, err := h.service.History(c.Param("unitID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	entries := []dto.HistoryEntry{}
	for version := range history {
		if version.Version <= since {
			continue
		}
		entries = append(entries, dto.NewHistoryEntry(version, withAssignments))
	}
	response.OK(c, entries)
}

// Export godoc
// @Summary Download a committed schedule as CSV or PDF
// @Tags Schedules
// @Produce text/csv
// @Produce application/pdf
// @Param unitID path string true "Planning unit ID"
// @Param format query string false "csv (default) or pdf"
// @Param layout query string false "list (default) or grid"
// @Param version query int false "Version to export; defaults to the active one"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /units/{unitID}/schedule/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	unitID := c.Param("unitID")
	version := 0
	if raw := c.Query("version"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "version must be a non-negative integer"))
			return
		}
		version = parsed
	}

	unit, err := h.service.Unit(unitID)
	if err != nil {
		response.Error(c, err)
		return
	}
	schedule, err := h.service.ScheduleAt(unitID, version)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exporter.Render(unit, schedule, service.ExportFormat(strings.ToLower(c.Query("format"))), service.ExportLayout(strings.ToLower(c.Query("layout"))))
	if err != nil {
		response.Error(c, err)
		return
	}
	setETag(c, schedule.Version)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Body)
}

// Recommendations godoc
// @Summary Gap analysis of the latest solve
// @Tags Analysis
// @Produce json
// @Param unitID path string true "Planning unit ID"
// @Success 200 {object} response.Envelope
// @Router /units/{unitID}/recommendations [get]
func (h *TimetableHandler) Recommendations(c *gin.Context) {
	recs, err := h.service.Recommendations(c.Param("unitID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if recs == nil {
		recs = []models.Recommendation{}
	}
	response.OK(c, recs)
}

// Validate godoc
// @Summary Check an assignment set without committing it
// @Tags Analysis
// @Accept json
// @Produce json
// @Param unitID path string true "Planning unit ID"
// @Param payload body dto.ValidateRequest true "Assignments"
// @Success 200 {object} response.Envelope
// @Router /units/{unitID}/validate [post]
func (h *TimetableHandler) Validate(c *gin.Context) {
	var req dto.ValidateRequest
	if !h.bind(c, &req, "invalid validate payload") {
		return
	}
	violations, err := h.service.Validate(c.Param("unitID"), req.Assignments, req.Partial)
	if err != nil {
		response.Error(c, err)
		return
	}
	if violations == nil {
		violations = []models.Violation{}
	}
	response.OK(c, dto.ValidateResponse{Valid: len(violations) == 0, Violations: violations})
}

func (h *TimetableHandler) bind(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	if err := h.validator.Struct(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

func actor(c *gin.Context) string {
	if claims := claimsFromContext(c); claims != nil && claims.UserID != "" {
		return claims.UserID
	}
	return anonymousActor
}

// baseVersion prefers the body field and falls back to If-Match.
func baseVersion(c *gin.Context, fromBody *int) (int, error) {
	if fromBody != nil {
		return *fromBody, nil
	}
	raw := strings.TrimSpace(c.GetHeader("If-Match"))
	if raw == "" {
		return 0, appErrors.Clone(appErrors.ErrPreconditionFailed, "base_version or If-Match is required")
	}
	raw = strings.Trim(strings.TrimPrefix(raw, "W/"), `"`)
	version, err := strconv.Atoi(raw)
	if err != nil || version < 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "If-Match must carry a schedule version")
	}
	return version, nil
}

func setETag(c *gin.Context, version int) {
	c.Header("ETag", fmt.Sprintf("%q", strconv.Itoa(version)))
}
