package models

import "sort"

// AssignmentOrigin marks whether a human or the solver produced an assignment.
type AssignmentOrigin string

const (
	OriginGenerated AssignmentOrigin = "GENERATED"
	OriginPinned    AssignmentOrigin = "PINNED"
)

// SessionKey identifies one weekly session (decision slot) of a section.
type SessionKey struct {
	SectionID string `json:"section_id"`
	Session   int    `json:"session"`
}

// Assignment binds one section session to a teacher, a classroom and a starting slot.
type Assignment struct {
	SectionID   string           `json:"section_id" validate:"required"`
	Session     int              `json:"session" validate:"min=1"`
	TeacherID   string           `json:"teacher_id" validate:"required"`
	ClassroomID string           `json:"classroom_id" validate:"required"`
	Slot        TimeSlot         `json:"slot"`
	Duration    int              `json:"duration" validate:"min=1"`
	Origin      AssignmentOrigin `json:"origin,omitempty"`
}

// Key returns the decision slot filled by the assignment.
func (a Assignment) Key() SessionKey {
	return SessionKey{SectionID: a.SectionID, Session: a.Session}
}

// Pinned reports whether the assignment is a manual override.
func (a Assignment) Pinned() bool {
	return a.Origin == OriginPinned
}

// LastPeriod is the final period occupied by the session.
func (a Assignment) LastPeriod() int {
	return a.Slot.Period + a.Duration - 1
}

// Overlaps reports whether two sessions share at least one period on the same day.
func (a Assignment) Overlaps(b Assignment) bool {
	if a.Slot.Day != b.Slot.Day {
		return false
	}
	return a.Slot.Period <= b.LastPeriod() && b.Slot.Period <= a.LastPeriod()
}

// SortAssignments orders assignments by slot, classroom, section and session.
func SortAssignments(items []Assignment) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if c := a.Slot.Compare(b.Slot); c != 0 {
			return c < 0
		}
		if a.ClassroomID != b.ClassroomID {
			return a.ClassroomID < b.ClassroomID
		}
		if a.SectionID != b.SectionID {
			return a.SectionID < b.SectionID
		}
		if a.Session != b.Session {
			return a.Session < b.Session
		}
		return a.TeacherID < b.TeacherID
	})
}

// CloneAssignments copies a slice so callers cannot alias stored state.
func CloneAssignments(items []Assignment) []Assignment {
	if items == nil {
		return nil
	}
	out := make([]Assignment, len(items))
	copy(out, items)
	return out
}

// SameAssignments compares two sets irrespective of order.
func SameAssignments(a, b []Assignment) bool {
	if len(a) != len(b) {
		return false
	}
	left := CloneAssignments(a)
	right := CloneAssignments(b)
	SortAssignments(left)
	SortAssignments(right)
	for i := range left {
		if left[i] != right[i] {
			return false
		}
	}
	return true
}
