package models

// SolveStatus summarises a whole solve.
type SolveStatus string

const (
	SolveFeasible   SolveStatus = "Feasible"
	SolvePartial    SolveStatus = "Partial"
	SolveInfeasible SolveStatus = "Infeasible"
)

// ConflictKind classifies why a section could not be fully scheduled.
type ConflictKind string

const (
	ConflictNoQualifiedTeacher    ConflictKind = "NoQualifiedTeacher"
	ConflictNoEligibleRoom        ConflictKind = "NoEligibleRoom"
	ConflictNoFreeTimeslot        ConflictKind = "NoFreeTimeslot"
	ConflictHourBudgetExhausted   ConflictKind = "HourBudgetExhausted"
	ConflictSearchBudgetExhausted ConflictKind = "SearchBudgetExhausted"
)

// SectionConflict is one member of the minimal conflict set: a section and the
// resource class it is missing.
type SectionConflict struct {
	SectionID        string       `json:"section_id"`
	Subject          string       `json:"subject"`
	GradeLevel       int          `json:"grade_level"`
	Kind             ConflictKind `json:"kind"`
	Structural       bool         `json:"structural"`
	TeacherIDs       []string     `json:"teacher_ids,omitempty"`
	ClassroomIDs     []string     `json:"classroom_ids,omitempty"`
	RequiredCapacity int          `json:"required_capacity,omitempty"`
	MissingSessions  int          `json:"missing_sessions"`
	SessionDuration  int          `json:"session_duration"`
}

// UnresolvedSection lists a section short of its weekly session count.
type UnresolvedSection struct {
	SectionID string      `json:"section_id"`
	Required  int         `json:"required"`
	Scheduled int         `json:"scheduled"`
	Status    SolveStatus `json:"status"`
}

// SolveStats reports search effort and soft-objective penalties.
type SolveStats struct {
	Strategy    SolverStrategy `json:"strategy"`
	Iterations  int            `json:"iterations"`
	Backtracks  int            `json:"backtracks"`
	Repairs     int            `json:"repairs,omitempty"`
	ElapsedMs   int64          `json:"elapsed_ms"`
	TimedOut    bool           `json:"timed_out"`
	Exhausted   bool           `json:"exhausted"`
	GapPenalty  float64        `json:"gap_penalty"`
	LoadPenalty float64        `json:"load_penalty"`
	Score       float64        `json:"score"`
}

// SolveResult is the output of every solver strategy.
type SolveResult struct {
	Status        SolveStatus         `json:"status"`
	Assignments   []Assignment        `json:"assignments"`
	Unresolved    []UnresolvedSection `json:"unresolved_sections"`
	Conflicts     []SectionConflict   `json:"minimal_conflict_set,omitempty"`
	PinViolations []Violation         `json:"pin_violations,omitempty"`
	Stats         SolveStats          `json:"stats"`
}

// ConflictFor returns the conflict recorded for a section, if any.
func (r *SolveResult) ConflictFor(sectionID string) (SectionConflict, bool) {
	if r == nil {
		return SectionConflict{}, false
	}
	for _, conflict := range r.Conflicts {
		if conflict.SectionID == sectionID {
			return conflict, true
		}
	}
	return SectionConflict{}, false
}

// UnresolvedFor returns the unresolved entry for a section, if any.
func (r *SolveResult) UnresolvedFor(sectionID string) (UnresolvedSection, bool) {
	if r == nil {
		return UnresolvedSection{}, false
	}
	for _, item := range r.Unresolved {
		if item.SectionID == sectionID {
			return item, true
		}
	}
	return UnresolvedSection{}, false
}
