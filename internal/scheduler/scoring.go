package scheduler

import (
	"math"
	"sort"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// sameDayPenalty discourages stacking several sessions of one section on a day.
const sameDayPenalty = 1.0

// score ranks a candidate placement; lower is better.
func (s *schedulerState) score(section, teacher, room int, tier models.SpecializationTier, day, period, duration int) float64 {
	policy := s.cat.policy
	load := s.teachers[teacher]

	ceiling := load.MaxLoadPerWeek
	if ceiling <= 0 {
		ceiling = models.DaysPerWeek * models.PeriodsPerDay
	}
	balance := float64(load.weekly+duration) / float64(ceiling)

	gaps := load.assigned.idleDelta(day, period, duration) + s.sections[section].idleDelta(day, period, duration)

	value := policy.LoadBalanceWeight*balance +
		policy.GapMinimizeWeight*float64(gaps) +
		sameDayPenalty*float64(s.sectionDays[section][day])
	if tier == models.TierMinor {
		value += policy.MinorPenaltyWeight
	}
	return value
}

// sortCandidates orders by score, then by teacher id, timeslot and classroom id.
// Catalog indices follow id order so comparing indices compares ids.
func sortCandidates(items []candidate) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.score != b.score {
			return a.score < b.score
		}
		if a.teacher != b.teacher {
			return a.teacher < b.teacher
		}
		if c := a.slot.Compare(b.slot); c != 0 {
			return c < 0
		}
		return a.room < b.room
	})
}

// calculateGapPenalty sums idle periods inside every teacher's and section's day.
func (s *schedulerState) calculateGapPenalty() float64 {
	var penalty float64
	for _, load := range s.teachers {
		for day := 1; day <= models.DaysPerWeek; day++ {
			penalty += float64(load.assigned.idle(day))
		}
	}
	for idx := range s.sections {
		for day := 1; day <= models.DaysPerWeek; day++ {
			penalty += float64(s.sections[idx].idle(day))
		}
	}
	return penalty
}

// calculateLoadPenalty is the mean absolute deviation of teacher utilization
// among teachers that received any hours.
func (s *schedulerState) calculateLoadPenalty() float64 {
	var utils []float64
	for _, load := range s.teachers {
		if load.weekly > 0 {
			utils = append(utils, load.Utilization())
		}
	}
	if len(utils) == 0 {
		return 0
	}
	var mean float64
	for _, u := range utils {
		mean += u
	}
	mean /= float64(len(utils))
	var penalty float64
	for _, u := range utils {
		penalty += math.Abs(u - mean)
	}
	return penalty / float64(len(utils))
}

// scheduleScore maps missing sessions and the soft penalties onto 0..100.
func scheduleScore(missing int, gapPenalty, loadPenalty float64) float64 {
	return math.Max(0, 100-(float64(missing)*100+gapPenalty*2+loadPenalty*5))
}
