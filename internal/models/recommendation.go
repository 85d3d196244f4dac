package models

// RecommendationKind classifies a gap-analysis finding.
type RecommendationKind string

const (
	RecNoQualifiedTeacher       RecommendationKind = "NoQualifiedTeacher"
	RecInsufficientRoomCapacity RecommendationKind = "InsufficientRoomCapacity"
	RecNoAvailableTimeslot      RecommendationKind = "NoAvailableTimeslot"
	RecTeacherHoursExhausted    RecommendationKind = "TeacherHoursExhausted"
	RecIncreaseSolverBudget     RecommendationKind = "IncreaseSolverBudget"
	RecIncreaseShifts           RecommendationKind = "IncreaseShifts"
	RecTeacherUnderloaded       RecommendationKind = "TeacherUnderloaded"
	RecTeacherNearCeiling       RecommendationKind = "TeacherNearCeiling"
	RecClassroomUnderutilized   RecommendationKind = "ClassroomUnderutilized"
	RecMinorSpecializationLoad  RecommendationKind = "MinorSpecializationLoad"
	RecSubjectTeacherShortage   RecommendationKind = "SubjectTeacherShortage"
	RecTeacherSurplus           RecommendationKind = "TeacherSurplus"
)

// Severity separates blocking findings from advisory ones.
type Severity string

const (
	SeverityBlocking Severity = "BLOCKING"
	SeverityAdvisory Severity = "ADVISORY"
)

// RemedyUnit qualifies a recommendation's remedy value.
type RemedyUnit string

const (
	UnitTeachers     RemedyUnit = "TEACHERS"
	UnitSeats        RemedyUnit = "SEATS"
	UnitHours        RemedyUnit = "HOURS"
	UnitPeriods      RemedyUnit = "PERIODS"
	UnitMilliseconds RemedyUnit = "MILLISECONDS"
	UnitAssignments  RemedyUnit = "ASSIGNMENTS"
	UnitRatio        RemedyUnit = "RATIO"
	UnitShifts       RemedyUnit = "SHIFTS"
)

// Recommendation is a structured finding; phrasing is left to presentation layers.
type Recommendation struct {
	Kind         RecommendationKind `json:"kind"`
	Severity     Severity           `json:"severity"`
	Subject      string             `json:"subject,omitempty"`
	GradeLevel   int                `json:"grade_level,omitempty"`
	SectionIDs   []string           `json:"section_ids,omitempty"`
	TeacherIDs   []string           `json:"teacher_ids,omitempty"`
	ClassroomIDs []string           `json:"classroom_ids,omitempty"`
	RemedyValue  float64            `json:"remedy_value"`
	RemedyUnit   RemedyUnit         `json:"remedy_unit"`
}
