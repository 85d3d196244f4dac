package scheduler

import (
	"context"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// Problem is one planning unit handed to a solver.
type Problem struct {
	Teachers   []models.Teacher
	Classrooms []models.Classroom
	Sections   []models.Section
	Pinned     []models.Assignment
	Policy     models.Policy
	// TimeLimit overrides Policy.SolverTimeLimitMs when positive.
	TimeLimit time.Duration
}

// Solver produces a SolveResult for a problem. Implementations keep no state
// between calls and are safe to run concurrently on independent problems.
// Infeasibility and budget expiry are reported through the result; an error
// means the input itself was malformed.
type Solver interface {
	Solve(ctx context.Context, problem Problem) (*models.SolveResult, error)
}

// NewSolver picks the backend named by policy.Strategy.
func NewSolver(policy models.Policy, logger *zap.Logger) Solver {
	switch policy.Normalize().Strategy {
	case models.StrategyGreedy:
		return NewGreedySolver(nil, logger)
	default:
		return NewBacktrackingSolver(nil, logger)
	}
}

// preparedSolve is the state shared by every backend once pins are booked
// and structurally impossible sections are set aside.
type preparedSolve struct {
	cat           *catalog
	state         *schedulerState
	slots         []decisionSlot
	structural    map[int]models.SectionConflict
	pinViolations []models.Violation
	deadline      time.Time
	started       time.Time
}

func prepare(validate *validator.Validate, problem Problem) (*preparedSolve, error) {
	if err := CheckInput(validate, problem.Teachers, problem.Classrooms, problem.Sections, problem.Policy); err != nil {
		return nil, err
	}
	cat := newCatalog(problem.Teachers, problem.Classrooms, problem.Sections, problem.Policy)
	prep := &preparedSolve{
		cat:        cat,
		state:      newSchedulerState(cat),
		structural: make(map[int]models.SectionConflict),
		started:    time.Now(),
	}
	limit := problem.TimeLimit
	if limit <= 0 {
		limit = cat.policy.TimeLimit()
	}
	if limit > 0 {
		prep.deadline = prep.started.Add(limit)
	}

	if violations := cat.check(problem.Pinned, false); len(violations) > 0 {
		prep.pinViolations = violations
		return prep, nil
	}
	pins := models.CloneAssignments(problem.Pinned)
	for i := range pins {
		pins[i].Origin = models.OriginPinned
	}
	prep.state.book(pins)

	longest := models.LongestShift(cat.policy.Shifts)
	for idx, section := range cat.sections {
		if prep.state.filled[idx] >= section.SessionsPerWeek {
			continue
		}
		teachers := cat.eligibleTeachers(section)
		rooms := cat.roomsFor(section)
		conflict := models.SectionConflict{
			SectionID:       section.ID,
			Subject:         section.Subject,
			GradeLevel:      section.GradeLevel,
			Structural:      true,
			MissingSessions: section.SessionsPerWeek - prep.state.filled[idx],
			SessionDuration: section.SessionDuration,
		}
		switch {
		case len(teachers) == 0:
			conflict.Kind = models.ConflictNoQualifiedTeacher
		case len(rooms) == 0:
			conflict.Kind = models.ConflictNoEligibleRoom
			conflict.RequiredCapacity = section.Enrollment
		case section.SessionDuration > longest:
			conflict.Kind = models.ConflictNoFreeTimeslot
			conflict.TeacherIDs = cat.teacherIDs(teachers)
			conflict.ClassroomIDs = cat.roomIDs(rooms)
		case !prep.state.anyBudget(teachers, section.SessionDuration):
			conflict.Kind = models.ConflictHourBudgetExhausted
			conflict.TeacherIDs = cat.teacherIDs(teachers)
		}
		if conflict.Kind != "" {
			prep.structural[idx] = conflict
			continue
		}
		for session := 1; session <= section.SessionsPerWeek; session++ {
			if _, pinned := prep.state.placed[models.SessionKey{SectionID: section.ID, Session: session}]; pinned {
				continue
			}
			prep.slots = append(prep.slots, decisionSlot{section: idx, session: session, teachers: teachers, rooms: rooms})
		}
	}

	// Most constrained first: fewest eligible teachers, then fewest rooms.
	sort.SliceStable(prep.slots, func(i, j int) bool {
		a, b := prep.slots[i], prep.slots[j]
		if len(a.teachers) != len(b.teachers) {
			return len(a.teachers) < len(b.teachers)
		}
		if len(a.rooms) != len(b.rooms) {
			return len(a.rooms) < len(b.rooms)
		}
		if a.section != b.section {
			return a.section < b.section
		}
		return a.session < b.session
	})
	return prep, nil
}

// expired reports whether the wall clock budget or the context has run out.
func (p *preparedSolve) expired(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	return !p.deadline.IsZero() && time.Now().After(p.deadline)
}

// finalize rebuilds the state for the chosen assignment set and derives
// status, unresolved sections, conflicts and penalties from it.
func (p *preparedSolve) finalize(assignments []models.Assignment, stats models.SolveStats) *models.SolveResult {
	stats.ElapsedMs = time.Since(p.started).Milliseconds()
	result := &models.SolveResult{
		Assignments: make([]models.Assignment, 0),
		Unresolved:  make([]models.UnresolvedSection, 0),
		Stats:       stats,
	}
	if len(p.pinViolations) > 0 {
		result.Status = models.SolveInfeasible
		result.PinViolations = p.pinViolations
		return result
	}

	final := newSchedulerState(p.cat)
	final.book(assignments)
	result.Assignments = final.exportAssignments()

	missing := 0
	anyScheduled := false
	for idx, section := range p.cat.sections {
		scheduled := final.filled[idx]
		if scheduled > 0 {
			anyScheduled = true
		}
		if scheduled >= section.SessionsPerWeek {
			continue
		}
		missing += section.SessionsPerWeek - scheduled
		status := models.SolvePartial
		if scheduled == 0 {
			status = models.SolveInfeasible
		}
		result.Unresolved = append(result.Unresolved, models.UnresolvedSection{
			SectionID: section.ID,
			Required:  section.SessionsPerWeek,
			Scheduled: scheduled,
			Status:    status,
		})
		conflict, ok := p.structural[idx]
		if !ok {
			conflict = final.diagnose(idx)
		}
		result.Conflicts = append(result.Conflicts, conflict)
	}

	switch {
	case len(result.Unresolved) == 0:
		result.Status = models.SolveFeasible
	case !anyScheduled:
		result.Status = models.SolveInfeasible
	default:
		result.Status = models.SolvePartial
	}

	result.Stats.GapPenalty = final.calculateGapPenalty()
	result.Stats.LoadPenalty = final.calculateLoadPenalty()
	result.Stats.Score = scheduleScore(missing, result.Stats.GapPenalty, result.Stats.LoadPenalty)
	return result
}

// anyBudget reports whether at least one teacher could still absorb a session
// of the given duration on some day.
func (s *schedulerState) anyBudget(teachers []int, duration int) bool {
	for _, teacher := range teachers {
		for day := 1; day <= models.DaysPerWeek; day++ {
			if s.teachers[teacher].HasBudget(day, duration) {
				return true
			}
		}
	}
	return false
}

// diagnose explains, against a final state, why a section is still short.
func (s *schedulerState) diagnose(idx int) models.SectionConflict {
	section := s.cat.sections[idx]
	teachers := s.cat.eligibleTeachers(section)
	rooms := s.cat.roomsFor(section)
	conflict := models.SectionConflict{
		SectionID:       section.ID,
		Subject:         section.Subject,
		GradeLevel:      section.GradeLevel,
		MissingSessions: section.SessionsPerWeek - s.filled[idx],
		SessionDuration: section.SessionDuration,
		TeacherIDs:      s.cat.teacherIDs(teachers),
		ClassroomIDs:    s.cat.roomIDs(rooms),
	}
	switch {
	case !s.anyBudget(teachers, section.SessionDuration):
		conflict.Kind = models.ConflictHourBudgetExhausted
		conflict.ClassroomIDs = nil
	case len(s.candidates(decisionSlot{section: idx, teachers: teachers, rooms: rooms})) == 0:
		conflict.Kind = models.ConflictNoFreeTimeslot
	default:
		conflict.Kind = models.ConflictSearchBudgetExhausted
	}
	return conflict
}
