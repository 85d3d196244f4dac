package models

// Section is one class group needing a fixed number of weekly sessions in a subject.
type Section struct {
	ID              string `db:"id" json:"id" validate:"required"`
	Subject         string `db:"subject" json:"subject" validate:"required"`
	GradeLevel      int    `db:"grade_level" json:"grade_level" validate:"min=0"`
	Enrollment      int    `db:"enrollment" json:"enrollment" validate:"min=0"`
	SessionsPerWeek int    `db:"sessions_per_week" json:"sessions_per_week" validate:"min=1"`
	SessionDuration int    `db:"session_duration" json:"session_duration" validate:"min=1,max=10"`
}

// WeeklyHours is the total teaching time the section demands per week.
func (s Section) WeeklyHours() int {
	return s.SessionsPerWeek * s.SessionDuration
}
