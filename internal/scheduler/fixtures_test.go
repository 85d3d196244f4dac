package scheduler

import (
	"github.com/noah-isme/sma-timetable/internal/models"
)

func testPolicy() models.Policy {
	policy := models.DefaultPolicy()
	policy.SolverTimeLimitMs = 0
	return policy
}

type rosterFixture struct {
	teachers   []models.Teacher
	classrooms []models.Classroom
	sections   []models.Section
}

func (f rosterFixture) problem(policy models.Policy, pinned ...models.Assignment) Problem {
	return Problem{
		Teachers:   f.teachers,
		Classrooms: f.classrooms,
		Sections:   f.sections,
		Pinned:     pinned,
		Policy:     policy,
	}
}

func smallRoster() rosterFixture {
	return rosterFixture{
		teachers: []models.Teacher{
			{ID: "t-math", Majors: []string{"math"}, Minors: []string{"physics"}},
			{ID: "t-physics", Majors: []string{"physics"}},
			{ID: "t-bio", Majors: []string{"biology"}, Minors: []string{"math"}},
		},
		classrooms: []models.Classroom{
			{ID: "r-101", Capacity: 40},
			{ID: "r-102", Capacity: 30},
		},
		sections: []models.Section{
			{ID: "10A-math", Subject: "math", GradeLevel: 10, Enrollment: 35, SessionsPerWeek: 4, SessionDuration: 1},
			{ID: "10A-physics", Subject: "physics", GradeLevel: 10, Enrollment: 35, SessionsPerWeek: 3, SessionDuration: 2},
			{ID: "10B-math", Subject: "math", GradeLevel: 10, Enrollment: 28, SessionsPerWeek: 4, SessionDuration: 1},
			{ID: "10B-biology", Subject: "biology", GradeLevel: 10, Enrollment: 28, SessionsPerWeek: 2, SessionDuration: 2},
		},
	}
}

func assignment(section string, session int, teacher, room string, day, period, duration int) models.Assignment {
	return models.Assignment{
		SectionID:   section,
		Session:     session,
		TeacherID:   teacher,
		ClassroomID: room,
		Slot:        models.TimeSlot{Day: day, Period: period},
		Duration:    duration,
	}
}

func violationKinds(items []models.Violation) []models.ViolationKind {
	kinds := make([]models.ViolationKind, 0, len(items))
	for _, item := range items {
		kinds = append(kinds, item.Kind)
	}
	return kinds
}

func recommendationKinds(items []models.Recommendation) []models.RecommendationKind {
	kinds := make([]models.RecommendationKind, 0, len(items))
	for _, item := range items {
		kinds = append(kinds, item.Kind)
	}
	return kinds
}
