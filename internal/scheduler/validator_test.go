package scheduler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

func validSmallSchedule() []models.Assignment {
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

func TestValidateAcceptsCompleteSchedule(t *testing.T) {
	roster := smallRoster()
	violations := Validate(validSmallSchedule(), roster.teachers, roster.classrooms, roster.sections, testPolicy())
	assert.Empty(t, violations)
}

func TestValidateDetectsOverlappingMultiPeriodSessions(t *testing.T) {
	roster := smallRoster()
	schedule := validSmallSchedule()
	// 10A-physics session 1 occupies r-101 on Monday periods 2-3.
	schedule[11] = assignment("10B-biology", 1, "t-bio", "r-101", 1, 3, 2)

	violations := Validate(schedule, roster.teachers, roster.classrooms, roster.sections, testPolicy())
	require.Len(t, violations, 1)
	assert.Equal(t, models.ViolationDoubleBookedRoom, violations[0].Kind)
	assert.Equal(t, "r-101", violations[0].ClassroomID)
	assert.ElementsMatch(t, []string{"10A-physics", "10B-biology"}, violations[0].SectionIDs)
}

func TestValidateDetectsDoubleBookedTeacherAndSection(t *testing.T) {
	roster := smallRoster()
	schedule := validSmallSchedule()
	schedule[1] = assignment("10A-math", 2, "t-math", "r-102", 1, 1, 1)

	violations := Validate(schedule, roster.teachers, roster.classrooms, roster.sections, testPolicy())
	assert.Equal(t, []models.ViolationKind{
		models.ViolationCapacityExceeded,
		models.ViolationDoubleBookedSection,
		models.ViolationDoubleBookedTeacher,
	}, violationKinds(violations))
}

func TestValidateHourCeilings(t *testing.T) {
	roster := smallRoster()
	roster.teachers[0].MaxHoursPerDay = 1
	roster.teachers[0].MaxHoursPerWeek = 7

	violations := Validate(validSmallSchedule(), roster.teachers, roster.classrooms, roster.sections, testPolicy())
	require.NotEmpty(t, violations)

	var daily, weekly int
	for _, v := range violations {
		require.Equal(t, models.ViolationHourCeilingExceeded, v.Kind)
		assert.Equal(t, "t-math", v.TeacherID)
		switch v.Scope {
		case models.CeilingDaily:
			daily++
			assert.Equal(t, 1, v.Limit)
			assert.Equal(t, 2, v.Actual)
		case models.CeilingWeekly:
			weekly++
			assert.Equal(t, 7, v.Limit)
			assert.Equal(t, 8, v.Actual)
		}
	}
	assert.Equal(t, 4, daily)
	assert.Equal(t, 1, weekly)
}

func TestValidateCapacityAndSpecialization(t *testing.T) {
	roster := smallRoster()
	schedule := validSmallSchedule()
	// 35 students in a 30 seat room, taught by a minor-only teacher.
	schedule[0] = assignment("10A-math", 1, "t-bio", "r-102", 5, 1, 1)

	policy := testPolicy()
	policy.SpecializationStrictness = models.StrictnessMajorOnly
	violations := Validate(schedule, roster.teachers, roster.classrooms, roster.sections, policy)
	assert.Equal(t, []models.ViolationKind{
		models.ViolationCapacityExceeded,
		models.ViolationSpecializationMismatch,
	}, violationKinds(violations))
	assert.Equal(t, 30, violations[0].Limit)
	assert.Equal(t, 35, violations[0].Actual)

	policy.SpecializationStrictness = models.StrictnessMajorOrMinor
	violations = Validate(schedule, roster.teachers, roster.classrooms, roster.sections, policy)
	assert.Equal(t, []models.ViolationKind{models.ViolationCapacityExceeded}, violationKinds(violations))
}

func TestValidateSessionCounts(t *testing.T) {
	roster := smallRoster()
	schedule := validSmallSchedule()[:12]

	violations := Validate(schedule, roster.teachers, roster.classrooms, roster.sections, testPolicy())
	require.Len(t, violations, 1)
	assert.Equal(t, models.ViolationSessionCountMismatch, violations[0].Kind)
	assert.Equal(t, []string{"10B-biology"}, violations[0].SectionIDs)
	assert.Equal(t, 2, violations[0].Limit)
	assert.Equal(t, 1, violations[0].Actual)

	assert.Empty(t, ValidatePartial(schedule, roster.teachers, roster.classrooms, roster.sections, testPolicy()))
}

func TestValidateRejectsInvalidAssignments(t *testing.T) {
	roster := smallRoster()
	policy := testPolicy()
	policy.Shifts = 2

	cases := map[string]models.Assignment{
		"unknown teacher":  assignment("10A-math", 1, "t-ghost", "r-101", 1, 1, 1),
		"unknown room":     assignment("10A-math", 1, "t-math", "r-999", 1, 1, 1),
		"unknown section":  assignment("12Z-art", 1, "t-math", "r-101", 1, 1, 1),
		"off grid":         assignment("10A-math", 1, "t-math", "r-101", 6, 1, 1),
		"wrong duration":   assignment("10A-math", 1, "t-math", "r-101", 1, 1, 2),
		"crosses shift":    assignment("10A-physics", 1, "t-physics", "r-101", 1, 5, 2),
		"session too high": assignment("10A-math", 5, "t-math", "r-101", 1, 1, 1),
	}
	for name, item := range cases {
		t.Run(name, func(t *testing.T) {
			violations := ValidatePartial([]models.Assignment{item}, roster.teachers, roster.classrooms, roster.sections, policy)
			require.Len(t, violations, 1)
			assert.Equal(t, models.ViolationInvalidAssignment, violations[0].Kind)
			assert.NotEmpty(t, violations[0].Reason)
		})
	}

	duplicate := []models.Assignment{
		assignment("10A-math", 1, "t-math", "r-101", 1, 1, 1),
		assignment("10A-math", 1, "t-math", "r-101", 2, 1, 1),
	}
	violations := ValidatePartial(duplicate, roster.teachers, roster.classrooms, roster.sections, policy)
	assert.Equal(t, []models.ViolationKind{models.ViolationInvalidAssignment}, violationKinds(violations))
}

func TestValidateIsOrderIndependent(t *testing.T) {
	roster := smallRoster()
	schedule := validSmallSchedule()
	schedule[1] = assignment("10A-math", 2, "t-math", "r-102", 1, 1, 1)
	schedule = append(schedule, assignment("10A-math", 1, "t-bio", "r-102", 5, 4, 1))
	roster.teachers[0].MaxHoursPerDay = 1

	forward := Validate(schedule, roster.teachers, roster.classrooms, roster.sections, testPolicy())

	reversed := make([]models.Assignment, len(schedule))
	for i, item := range schedule {
		reversed[len(schedule)-1-i] = item
	}
	backward := Validate(reversed, roster.teachers, roster.classrooms, roster.sections, testPolicy())
	assert.Equal(t, forward, backward)
}

func TestCheckInputRejectsMalformedRoster(t *testing.T) {
	roster := smallRoster()
	require.NoError(t, CheckInput(nil, roster.teachers, roster.classrooms, roster.sections, testPolicy()))

	badRoom := append([]models.Classroom{{ID: "r-0", Capacity: -5}}, roster.classrooms...)
	err := CheckInput(nil, roster.teachers, badRoom, roster.sections, testPolicy())
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	dupTeachers := append(roster.teachers, models.Teacher{ID: "t-math", Majors: []string{"art"}})
	err = CheckInput(nil, dupTeachers, roster.classrooms, roster.sections, testPolicy())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate teacher id t-math")

	dual := []models.Teacher{{ID: "t-dual", Majors: []string{"math"}, Minors: []string{"math"}}}
	err = CheckInput(nil, dual, roster.classrooms, roster.sections, testPolicy())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both major and minor")

	policy := testPolicy()
	policy.AllowDualSpecialization = true
	assert.NoError(t, CheckInput(nil, dual, roster.classrooms, roster.sections, policy))

	policy = testPolicy()
	policy.MaxHoursDay = 0
	assert.Error(t, CheckInput(nil, roster.teachers, roster.classrooms, roster.sections, policy))
}
