package scheduler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// maxRepairIterations bounds the gap repair pass after greedy placement.
const maxRepairIterations = 12

// GreedySolver places each decision slot with its best scoring candidate in
// a single pass, then moves generated sessions earlier to close idle gaps.
// It never backtracks, so it is fast but may leave sessions unfilled that
// the backtracking solver would place.
type GreedySolver struct {
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGreedySolver constructs the single-pass backend.
func NewGreedySolver(validate *validator.Validate, logger *zap.Logger) *GreedySolver {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GreedySolver{validator: validate, logger: logger}
}

// Solve implements Solver.
func (s *GreedySolver) Solve(ctx context.Context, problem Problem) (*models.SolveResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	prep, err := prepare(s.validator, problem)
	if err != nil {
		return nil, err
	}
	stats := models.SolveStats{Strategy: models.StrategyGreedy}
	if len(prep.pinViolations) > 0 {
		return prep.finalize(nil, stats), nil
	}

	state := prep.state
	for _, slot := range prep.slots {
		if prep.expired(ctx) {
			stats.TimedOut = true
			break
		}
		if limit := prep.cat.policy.MaxIterations; limit > 0 && stats.Iterations >= limit {
			stats.Exhausted = true
			break
		}
		stats.Iterations++
		if candidates := state.candidates(slot); len(candidates) > 0 {
			best := candidates[0]
			state.place(slot.section, slot.session, best.teacher, best.room, best.slot, models.OriginGenerated)
		}
	}
	if !stats.TimedOut {
		stats.Repairs = state.repairGaps(maxRepairIterations)
	}

	result := prep.finalize(state.exportAssignments(), stats)
	s.logger.Debug("timetable solve finished",
		zap.String("strategy", string(stats.Strategy)),
		zap.String("status", string(result.Status)),
		zap.Int("iterations", stats.Iterations),
		zap.Int("repairs", stats.Repairs),
	)
	return result, nil
}

// repairGaps repeatedly moves one generated session to an earlier period of
// the same day when that strictly lowers the idle periods around it.
func (s *schedulerState) repairGaps(maxIterations int) int {
	iterations := 0
	for iterations < maxIterations {
		if !s.moveOneEarlier() {
			break
		}
		iterations++
	}
	return iterations
}

func (s *schedulerState) moveOneEarlier() bool {
	for _, item := range s.exportAssignments() {
		if item.Pinned() || item.Slot.Period == 1 {
			continue
		}
		section, _ := s.cat.section(item.SectionID)
		teacher, _ := s.cat.teacher(item.TeacherID)
		room, _ := s.cat.room(item.ClassroomID)
		day := item.Slot.Day
		before := s.localGaps(section, teacher, room, day)

		s.unplace(section, item.Session, teacher, room, item.Slot)
		for period := 1; period < item.Slot.Period; period++ {
			target := models.TimeSlot{Day: day, Period: period}
			if !s.canPlace(section, teacher, room, target) {
				continue
			}
			s.place(section, item.Session, teacher, room, target, item.Origin)
			if s.localGaps(section, teacher, room, day) < before {
				return true
			}
			s.unplace(section, item.Session, teacher, room, target)
		}
		s.place(section, item.Session, teacher, room, item.Slot, item.Origin)
	}
	return false
}

func (s *schedulerState) localGaps(section, teacher, room, day int) int {
	return s.teachers[teacher].assigned.idle(day) + s.sections[section].idle(day) + s.rooms[room].idle(day)
}
