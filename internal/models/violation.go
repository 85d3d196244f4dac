package models

import "fmt"

// ViolationKind names a broken hard constraint.
type ViolationKind string

const (
	ViolationDoubleBookedTeacher    ViolationKind = "DoubleBookedTeacher"
	ViolationDoubleBookedRoom       ViolationKind = "DoubleBookedRoom"
	ViolationDoubleBookedSection    ViolationKind = "DoubleBookedSection"
	ViolationSessionCountMismatch   ViolationKind = "SessionCountMismatch"
	ViolationHourCeilingExceeded    ViolationKind = "HourCeilingExceeded"
	ViolationCapacityExceeded       ViolationKind = "CapacityExceeded"
	ViolationSpecializationMismatch ViolationKind = "SpecializationMismatch"
	ViolationInvalidAssignment      ViolationKind = "InvalidAssignment"
)

// CeilingScope distinguishes daily from weekly hour ceilings.
type CeilingScope string

const (
	CeilingDaily  CeilingScope = "DAY"
	CeilingWeekly CeilingScope = "WEEK"
)

// Violation describes one hard-constraint breach with the data needed to explain it.
type Violation struct {
	Kind        ViolationKind `json:"kind"`
	TeacherID   string        `json:"teacher_id,omitempty"`
	ClassroomID string        `json:"classroom_id,omitempty"`
	SectionIDs  []string      `json:"section_ids,omitempty"`
	Slot        *TimeSlot     `json:"slot,omitempty"`
	Day         int           `json:"day,omitempty"`
	Scope       CeilingScope  `json:"scope,omitempty"`
	Subject     string        `json:"subject,omitempty"`
	Limit       int           `json:"limit,omitempty"`
	Actual      int           `json:"actual,omitempty"`
	Reason      string        `json:"reason,omitempty"`
}

// RejectedCommitError is returned when a commit or override fails validation.
type RejectedCommitError struct {
	Violations []Violation `json:"violations"`
}

// Error implements the error interface.
func (e *RejectedCommitError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("schedule rejected: %d violation(s)", len(e.Violations))
}

// StaleVersionError is returned when a mutation targets an outdated version.
type StaleVersionError struct {
	Expected int `json:"expected"`
	Current  int `json:"current"`
}

// Error implements the error interface.
func (e *StaleVersionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("stale schedule version %d, current is %d", e.Expected, e.Current)
}
