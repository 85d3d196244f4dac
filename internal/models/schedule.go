package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ScheduleStatus represents lifecycle phases for schedule versions.
type ScheduleStatus string

const (
	ScheduleStatusDraft      ScheduleStatus = "DRAFT"
	ScheduleStatusCommitted  ScheduleStatus = "COMMITTED"
	ScheduleStatusSuperseded ScheduleStatus = "SUPERSEDED"
)

// EditKind records how a version came to be.
type EditKind string

const (
	EditKindCommit   EditKind = "COMMIT"
	EditKindOverride EditKind = "OVERRIDE"
)

// Schedule is the active assignment set of a planning unit.
type Schedule struct {
	UnitID      string         `json:"unit_id"`
	Version     int            `json:"version"`
	Status      ScheduleStatus `json:"status"`
	Assignments []Assignment   `json:"assignments"`
	CommittedAt time.Time      `json:"committed_at"`
}

// ScheduleVersion is one entry of the append-only history.
type ScheduleVersion struct {
	ID           string         `json:"id"`
	UnitID       string         `json:"unit_id"`
	Version      int            `json:"version"`
	Status       ScheduleStatus `json:"status"`
	Kind         EditKind       `json:"kind"`
	Actor        string         `json:"actor,omitempty"`
	Assignments  []Assignment   `json:"assignments"`
	Override     *Assignment    `json:"override,omitempty"`
	CommittedAt  time.Time      `json:"committed_at"`
	SupersededAt *time.Time     `json:"superseded_at,omitempty"`
}

// Snapshot converts a history entry into a schedule value.
func (v ScheduleVersion) Snapshot() Schedule {
	return Schedule{
		UnitID:      v.UnitID,
		Version:     v.Version,
		Status:      v.Status,
		Assignments: CloneAssignments(v.Assignments),
		CommittedAt: v.CommittedAt,
	}
}

// ScheduleVersionRecord is the archived row of one history entry.
type ScheduleVersionRecord struct {
	ID           string         `db:"id" json:"id"`
	UnitID       string         `db:"unit_id" json:"unit_id"`
	Version      int            `db:"version" json:"version"`
	Status       ScheduleStatus `db:"status" json:"status"`
	Kind         EditKind       `db:"kind" json:"kind"`
	Actor        string         `db:"actor" json:"actor"`
	Meta         types.JSONText `db:"meta" json:"meta"`
	CommittedAt  time.Time      `db:"committed_at" json:"committed_at"`
	SupersededAt *time.Time     `db:"superseded_at" json:"superseded_at,omitempty"`
}

// ScheduleAssignmentRecord is one archived assignment of a version.
type ScheduleAssignmentRecord struct {
	ID          string           `db:"id" json:"id"`
	VersionID   string           `db:"version_id" json:"version_id"`
	SectionID   string           `db:"section_id" json:"section_id"`
	Session     int              `db:"session" json:"session"`
	TeacherID   string           `db:"teacher_id" json:"teacher_id"`
	ClassroomID string           `db:"classroom_id" json:"classroom_id"`
	Day         int              `db:"day_of_week" json:"day_of_week"`
	Period      int              `db:"period" json:"period"`
	Duration    int              `db:"duration" json:"duration"`
	Origin      AssignmentOrigin `db:"origin" json:"origin"`
}

// Assignment converts the row back into a domain assignment.
func (r ScheduleAssignmentRecord) Assignment() Assignment {
	return Assignment{
		SectionID:   r.SectionID,
		Session:     r.Session,
		TeacherID:   r.TeacherID,
		ClassroomID: r.ClassroomID,
		Slot:        TimeSlot{Day: r.Day, Period: r.Period},
		Duration:    r.Duration,
		Origin:      r.Origin,
	}
}
