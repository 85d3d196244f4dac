package scheduler

import (
	"github.com/noah-isme/sma-timetable/internal/models"
)

// grid marks occupied periods per day; index 0 of each dimension is unused.
type grid [models.DaysPerWeek + 1][models.PeriodsPerDay + 1]bool

func (g *grid) free(day, period, duration int) bool {
	for p := period; p < period+duration; p++ {
		if p > models.PeriodsPerDay || g[day][p] {
			return false
		}
	}
	return true
}

func (g *grid) mark(day, period, duration int, value bool) {
	for p := period; p < period+duration && p <= models.PeriodsPerDay; p++ {
		g[day][p] = value
	}
}

// idle counts empty periods between the first and last occupied period of a day.
func (g *grid) idle(day int) int {
	first, last, used := 0, 0, 0
	for p := 1; p <= models.PeriodsPerDay; p++ {
		if !g[day][p] {
			continue
		}
		if first == 0 {
			first = p
		}
		last = p
		used++
	}
	if used == 0 {
		return 0
	}
	return last - first + 1 - used
}

// idleDelta is the change in idle periods if [period, period+duration) were booked.
func (g *grid) idleDelta(day, period, duration int) int {
	before := g.idle(day)
	g.mark(day, period, duration, true)
	after := g.idle(day)
	g.mark(day, period, duration, false)
	return after - before
}

// teacherAvailability tracks a teacher's booked periods and hour budgets.
type teacherAvailability struct {
	MaxLoadPerDay  int
	MaxLoadPerWeek int
	perDay         [models.DaysPerWeek + 1]int
	weekly         int
	assigned       grid
}

func newTeacherAvailability(teacher models.Teacher, policy models.Policy) *teacherAvailability {
	return &teacherAvailability{
		MaxLoadPerDay:  teacher.DailyCeiling(policy),
		MaxLoadPerWeek: teacher.WeeklyCeiling(policy),
	}
}

// CanTeach reports whether the teacher is free for the whole session and both
// budgets can absorb its duration.
func (t *teacherAvailability) CanTeach(day, period, duration int) bool {
	if !t.HasBudget(day, duration) {
		return false
	}
	return t.assigned.free(day, period, duration)
}

// HasBudget ignores bookings and checks only the hour ceilings.
func (t *teacherAvailability) HasBudget(day, duration int) bool {
	if t.MaxLoadPerDay > 0 && t.perDay[day]+duration > t.MaxLoadPerDay {
		return false
	}
	return t.HasWeeklyBudget(duration)
}

// HasWeeklyBudget checks only the weekly ceiling.
func (t *teacherAvailability) HasWeeklyBudget(duration int) bool {
	return t.MaxLoadPerWeek <= 0 || t.weekly+duration <= t.MaxLoadPerWeek
}

func (t *teacherAvailability) Reserve(day, period, duration int) {
	t.assigned.mark(day, period, duration, true)
	t.perDay[day] += duration
	t.weekly += duration
}

func (t *teacherAvailability) Release(day, period, duration int) {
	t.assigned.mark(day, period, duration, false)
	t.perDay[day] -= duration
	t.weekly -= duration
}

// Utilization is the share of the weekly ceiling already booked.
func (t *teacherAvailability) Utilization() float64 {
	if t.MaxLoadPerWeek <= 0 {
		return 0
	}
	return float64(t.weekly) / float64(t.MaxLoadPerWeek)
}

// decisionSlot is one required session awaiting a (teacher, room, timeslot).
type decisionSlot struct {
	section  int
	session  int
	teachers []int
	rooms    []int
}

// candidate is a feasible triple for a decision slot together with its soft score.
type candidate struct {
	teacher int
	room    int
	slot    models.TimeSlot
	score   float64
}

// schedulerState is the mutable booking state one solve works on.
type schedulerState struct {
	cat         *catalog
	teachers    []*teacherAvailability
	rooms       []grid
	sections    []grid
	sectionDays [][models.DaysPerWeek + 1]int
	filled      []int
	placed      map[models.SessionKey]models.Assignment
}

func newSchedulerState(cat *catalog) *schedulerState {
	s := &schedulerState{
		cat:         cat,
		teachers:    make([]*teacherAvailability, len(cat.teachers)),
		rooms:       make([]grid, len(cat.classrooms)),
		sections:    make([]grid, len(cat.sections)),
		sectionDays: make([][models.DaysPerWeek + 1]int, len(cat.sections)),
		filled:      make([]int, len(cat.sections)),
		placed:      make(map[models.SessionKey]models.Assignment),
	}
	for i, teacher := range cat.teachers {
		s.teachers[i] = newTeacherAvailability(teacher, cat.policy)
	}
	return s
}

// canPlace checks every hard constraint the state can see for a session.
func (s *schedulerState) canPlace(section, teacher, room int, slot models.TimeSlot) bool {
	duration := s.cat.sections[section].SessionDuration
	if !models.FitsShift(slot.Period, duration, s.cat.policy.Shifts) {
		return false
	}
	if !s.teachers[teacher].CanTeach(slot.Day, slot.Period, duration) {
		return false
	}
	if !s.rooms[room].free(slot.Day, slot.Period, duration) {
		return false
	}
	return s.sections[section].free(slot.Day, slot.Period, duration)
}

func (s *schedulerState) place(section, session, teacher, room int, slot models.TimeSlot, origin models.AssignmentOrigin) models.Assignment {
	sec := s.cat.sections[section]
	duration := sec.SessionDuration
	s.teachers[teacher].Reserve(slot.Day, slot.Period, duration)
	s.rooms[room].mark(slot.Day, slot.Period, duration, true)
	s.sections[section].mark(slot.Day, slot.Period, duration, true)
	s.sectionDays[section][slot.Day]++
	s.filled[section]++
	assignment := models.Assignment{
		SectionID:   sec.ID,
		Session:     session,
		TeacherID:   s.cat.teachers[teacher].ID,
		ClassroomID: s.cat.classrooms[room].ID,
		Slot:        slot,
		Duration:    duration,
		Origin:      origin,
	}
	s.placed[assignment.Key()] = assignment
	return assignment
}

func (s *schedulerState) unplace(section, session, teacher, room int, slot models.TimeSlot) {
	sec := s.cat.sections[section]
	duration := sec.SessionDuration
	s.teachers[teacher].Release(slot.Day, slot.Period, duration)
	s.rooms[room].mark(slot.Day, slot.Period, duration, false)
	s.sections[section].mark(slot.Day, slot.Period, duration, false)
	s.sectionDays[section][slot.Day]--
	s.filled[section]--
	delete(s.placed, models.SessionKey{SectionID: sec.ID, Session: session})
}

// book places already validated assignments, keeping their origin.
func (s *schedulerState) book(items []models.Assignment) {
	for _, item := range items {
		section, _ := s.cat.section(item.SectionID)
		teacher, _ := s.cat.teacher(item.TeacherID)
		room, _ := s.cat.room(item.ClassroomID)
		s.place(section, item.Session, teacher, room, item.Slot, item.Origin)
	}
}

func (s *schedulerState) exportAssignments() []models.Assignment {
	out := make([]models.Assignment, 0, len(s.placed))
	for _, assignment := range s.placed {
		out = append(out, assignment)
	}
	models.SortAssignments(out)
	return out
}

// candidates enumerates feasible triples for a slot, best first. For each
// (teacher, timeslot) only the tightest free classroom is offered.
func (s *schedulerState) candidates(slot decisionSlot) []candidate {
	section := s.cat.sections[slot.section]
	duration := section.SessionDuration
	policy := s.cat.policy
	var result []candidate
	for _, teacher := range slot.teachers {
		load := s.teachers[teacher]
		if !load.HasWeeklyBudget(duration) {
			continue
		}
		tier := s.cat.teachers[teacher].Tier(section.Subject)
		for day := 1; day <= models.DaysPerWeek; day++ {
			if !load.HasBudget(day, duration) {
				continue
			}
			for period := 1; period+duration-1 <= models.PeriodsPerDay; period++ {
				if !models.FitsShift(period, duration, policy.Shifts) {
					continue
				}
				if !load.assigned.free(day, period, duration) || !s.sections[slot.section].free(day, period, duration) {
					continue
				}
				room := -1
				for _, r := range slot.rooms {
					if s.rooms[r].free(day, period, duration) {
						room = r
						break
					}
				}
				if room < 0 {
					continue
				}
				result = append(result, candidate{
					teacher: teacher,
					room:    room,
					slot:    models.TimeSlot{Day: day, Period: period},
					score:   s.score(slot.section, teacher, room, tier, day, period, duration),
				})
			}
		}
	}
	sortCandidates(result)
	return result
}
