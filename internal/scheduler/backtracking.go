package scheduler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// BacktrackingSolver runs a depth-first search over decision slots with
// chronological backtracking. It keeps the best assignment set seen so far,
// ranked by satisfied sections then filled sessions, and returns it when the
// search completes or its budget runs out.
type BacktrackingSolver struct {
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBacktrackingSolver constructs the default solver backend.
func NewBacktrackingSolver(validate *validator.Validate, logger *zap.Logger) *BacktrackingSolver {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BacktrackingSolver{validator: validate, logger: logger}
}

// Solve implements Solver.
func (s *BacktrackingSolver) Solve(ctx context.Context, problem Problem) (*models.SolveResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	prep, err := prepare(s.validator, problem)
	if err != nil {
		return nil, err
	}
	stats := models.SolveStats{Strategy: models.StrategyBacktracking}
	if len(prep.pinViolations) > 0 {
		s.logger.Debug("pinned assignments rejected", zap.Int("violations", len(prep.pinViolations)))
		return prep.finalize(nil, stats), nil
	}

	search := newBacktrackSearch(ctx, prep)
	search.dfs(0)

	stats.Iterations = search.iterations
	stats.Backtracks = search.backtracks
	stats.TimedOut = search.timedOut
	stats.Exhausted = search.exhausted
	result := prep.finalize(search.best, stats)
	s.logger.Debug("timetable solve finished",
		zap.String("strategy", string(stats.Strategy)),
		zap.String("status", string(result.Status)),
		zap.Int("iterations", stats.Iterations),
		zap.Int("backtracks", stats.Backtracks),
		zap.Bool("timed_out", stats.TimedOut),
		zap.Bool("exhausted", stats.Exhausted),
	)
	return result, nil
}

type backtrackSearch struct {
	ctx   context.Context
	prep  *preparedSolve
	state *schedulerState
	slots []decisionSlot

	maxIterations int
	iterations    int
	backtracks    int
	timedOut      bool
	exhausted     bool
	stopped       bool

	// potential is filled plus still undecided sessions per section.
	potential []int
	satisfied int
	reachable int
	skips     int

	best          []models.Assignment
	bestSatisfied int
	bestFilled    int
}

func newBacktrackSearch(ctx context.Context, prep *preparedSolve) *backtrackSearch {
	b := &backtrackSearch{
		ctx:           ctx,
		prep:          prep,
		state:         prep.state,
		slots:         prep.slots,
		maxIterations: prep.cat.policy.MaxIterations,
		potential:     make([]int, len(prep.cat.sections)),
		bestSatisfied: -1,
		bestFilled:    -1,
	}
	copy(b.potential, prep.state.filled)
	for _, slot := range prep.slots {
		b.potential[slot.section]++
	}
	for idx, section := range prep.cat.sections {
		if prep.state.filled[idx] >= section.SessionsPerWeek {
			b.satisfied++
		}
		if b.potential[idx] >= section.SessionsPerWeek {
			b.reachable++
		}
	}
	return b
}

func (b *backtrackSearch) filled() int {
	return len(b.state.placed)
}

func (b *backtrackSearch) required(section int) int {
	return b.prep.cat.sections[section].SessionsPerWeek
}

// consider records the current state when it beats the best seen so far.
func (b *backtrackSearch) consider() {
	filled := b.filled()
	if b.satisfied < b.bestSatisfied || (b.satisfied == b.bestSatisfied && filled <= b.bestFilled) {
		return
	}
	b.bestSatisfied = b.satisfied
	b.bestFilled = filled
	b.best = b.state.exportAssignments()
}

func (b *backtrackSearch) stop() {
	b.consider()
	b.stopped = true
}

// bounded prunes a branch that cannot beat the incumbent. Every undecided
// slot from depth on could at best be filled.
func (b *backtrackSearch) bounded(depth int) bool {
	if b.bestSatisfied < 0 {
		return false
	}
	if b.reachable != b.bestSatisfied {
		return b.reachable < b.bestSatisfied
	}
	return b.filled()+len(b.slots)-depth <= b.bestFilled
}

func (b *backtrackSearch) dfs(depth int) {
	if b.stopped {
		return
	}
	b.iterations++
	if b.maxIterations > 0 && b.iterations > b.maxIterations {
		b.exhausted = true
		b.stop()
		return
	}
	if b.prep.expired(b.ctx) {
		b.timedOut = true
		b.stop()
		return
	}
	if depth == len(b.slots) {
		b.consider()
		if b.skips == 0 {
			b.stopped = true
		}
		return
	}
	if b.bounded(depth) {
		return
	}

	slot := b.slots[depth]
	required := b.required(slot.section)
	for _, cand := range b.state.candidates(slot) {
		b.state.place(slot.section, slot.session, cand.teacher, cand.room, cand.slot, models.OriginGenerated)
		if b.state.filled[slot.section] == required {
			b.satisfied++
		}
		b.dfs(depth + 1)
		if b.state.filled[slot.section] == required {
			b.satisfied--
		}
		b.state.unplace(slot.section, slot.session, cand.teacher, cand.room, cand.slot)
		if b.stopped {
			return
		}
		b.backtracks++
	}

	// Leave the slot unfilled and keep scheduling the rest.
	if b.potential[slot.section] == required {
		b.reachable--
	}
	b.potential[slot.section]--
	b.skips++
	b.dfs(depth + 1)
	b.skips--
	b.potential[slot.section]++
	if b.potential[slot.section] == required {
		b.reachable++
	}
}
