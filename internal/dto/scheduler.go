package dto

import (
	"time"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// RegisterUnitRequest loads the roster of a planning unit. The unit ID comes
// from the path; a missing policy falls back to the server default.
type RegisterUnitRequest struct {
	Teachers   []models.Teacher   `json:"teachers" validate:"dive"`
	Classrooms []models.Classroom `json:"classrooms" validate:"dive"`
	Sections   []models.Section   `json:"sections" validate:"dive"`
	Policy     *models.Policy     `json:"policy"`
}

// Unit converts the request into a planning unit.
func (r RegisterUnitRequest) Unit(unitID string) models.PlanningUnit {
	unit := models.PlanningUnit{
		ID:         unitID,
		Teachers:   r.Teachers,
		Classrooms: r.Classrooms,
		Sections:   r.Sections,
	}
	if r.Policy != nil {
		unit.Policy = *r.Policy
	}
	return unit
}

// UnitSummary describes a registered unit without echoing its roster.
type UnitSummary struct {
	ID         string        `json:"id"`
	Teachers   int           `json:"teachers"`
	Classrooms int           `json:"classrooms"`
	Sections   int           `json:"sections"`
	Policy     models.Policy `json:"policy"`
}

// NewUnitSummary counts the roster of unit.
func NewUnitSummary(unit models.PlanningUnit) UnitSummary {
	return UnitSummary{
		ID:         unit.ID,
		Teachers:   len(unit.Teachers),
		Classrooms: len(unit.Classrooms),
		Sections:   len(unit.Sections),
		Policy:     unit.Policy,
	}
}

// CommitRequest submits a full assignment set for activation.
type CommitRequest struct {
	Assignments []models.Assignment `json:"assignments" validate:"dive"`
}

// OverrideRequest moves or adds one session. BaseVersion may also be sent in
// the If-Match header.
type OverrideRequest struct {
	BaseVersion *int              `json:"base_version" validate:"omitempty,min=0"`
	Assignment  models.Assignment `json:"assignment"`
}

// VersionResponse reports the version produced by a mutation.
type VersionResponse struct {
	Version int `json:"version"`
}

// BatchSolveRequest solves several units concurrently.
type BatchSolveRequest struct {
	UnitIDs []string `json:"unit_ids" validate:"required,min=1,max=64,dive,required"`
}

// ValidateRequest checks an assignment set without committing it.
type ValidateRequest struct {
	Assignments []models.Assignment `json:"assignments" validate:"dive"`
	Partial     bool                `json:"partial"`
}

// ValidateResponse lists the hard-constraint violations of a set.
type ValidateResponse struct {
	Valid      bool               `json:"valid"`
	Violations []models.Violation `json:"violations"`
}

// HistoryEntry is one version in the history listing. Assignments are only
// included when requested.
type HistoryEntry struct {
	ID           string                `json:"id"`
	Version      int                   `json:"version"`
	Status       models.ScheduleStatus `json:"status"`
	Kind         models.EditKind       `json:"kind"`
	Actor        string                `json:"actor,omitempty"`
	Override     *models.Assignment    `json:"override,omitempty"`
	Assignments  []models.Assignment   `json:"assignments,omitempty"`
	CommittedAt  time.Time             `json:"committed_at"`
	SupersededAt *time.Time            `json:"superseded_at,omitempty"`
}

// NewHistoryEntry converts a history version.
func NewHistoryEntry(v models.ScheduleVersion, withAssignments bool) HistoryEntry {
	entry := HistoryEntry{
		ID:           v.ID,
		Version:      v.Version,
		Status:       v.Status,
		Kind:         v.Kind,
		Actor:        v.Actor,
		Override:     v.Override,
		CommittedAt:  v.CommittedAt,
		SupersededAt: v.SupersededAt,
	}
	if withAssignments {
		entry.Assignments = v.Assignments
	}
	return entry
}
