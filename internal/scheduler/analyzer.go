package scheduler

import (
	"math"
	"slices"
	"sort"

	"github.com/noah-isme/sma-timetable/internal/models"
)

var recommendationRank = map[models.RecommendationKind]int{
	models.RecNoQualifiedTeacher:       0,
	models.RecInsufficientRoomCapacity: 1,
	models.RecSubjectTeacherShortage:   2,
	models.RecTeacherHoursExhausted:    3,
	models.RecNoAvailableTimeslot:      4,
	models.RecIncreaseSolverBudget:     5,
	models.RecIncreaseShifts:           6,
	models.RecTeacherNearCeiling:       7,
	models.RecTeacherUnderloaded:       8,
	models.RecMinorSpecializationLoad:  9,
	models.RecTeacherSurplus:           10,
	models.RecClassroomUnderutilized:   11,
}

// Analyze turns a solve result into shortage and surplus findings. Root
// causes come from the result's conflict set; secondary findings are derived
// from whatever assignments the result holds. The output order is stable.
func Analyze(result *models.SolveResult, teachers []models.Teacher, classrooms []models.Classroom, sections []models.Section, policy models.Policy) []models.Recommendation {
	if result == nil {
		result = &models.SolveResult{}
	}
	cat := newCatalog(teachers, classrooms, sections, policy)
	a := &analysis{cat: cat, result: result, out: make([]models.Recommendation, 0)}
	a.rootCauses()
	a.subjectSupply()
	a.teacherLoads()
	a.classroomUtilization()
	sortRecommendations(a.out)
	return a.out
}

type analysis struct {
	cat    *catalog
	result *models.SolveResult
	out    []models.Recommendation
}

func (a *analysis) add(rec models.Recommendation) {
	a.out = append(a.out, rec)
}

func (a *analysis) rootCauses() {
	type subjectGrade struct {
		subject string
		grade   int
	}
	noTeacher := make(map[subjectGrade][]string)
	var noTeacherKeys []subjectGrade
	noRoom := make(map[string]*models.Recommendation)
	var noRoomKeys []string
	var budgetSections []string
	var crowdedSections []string

	conflicts := append([]models.SectionConflict(nil), a.result.Conflicts...)
	sort.SliceStable(conflicts, func(i, j int) bool { return conflicts[i].SectionID < conflicts[j].SectionID })

	for _, conflict := range conflicts {
		switch conflict.Kind {
		case models.ConflictNoQualifiedTeacher:
			key := subjectGrade{subject: conflict.Subject, grade: conflict.GradeLevel}
			if _, ok := noTeacher[key]; !ok {
				noTeacherKeys = append(noTeacherKeys, key)
			}
			noTeacher[key] = append(noTeacher[key], conflict.SectionID)
		case models.ConflictNoEligibleRoom:
			rec, ok := noRoom[conflict.Subject]
			if !ok {
				rec = &models.Recommendation{
					Kind:       models.RecInsufficientRoomCapacity,
					Severity:   models.SeverityBlocking,
					Subject:    conflict.Subject,
					RemedyUnit: models.UnitSeats,
				}
				noRoom[conflict.Subject] = rec
				noRoomKeys = append(noRoomKeys, conflict.Subject)
			}
			rec.SectionIDs = append(rec.SectionIDs, conflict.SectionID)
			rec.RemedyValue = math.Max(rec.RemedyValue, float64(conflict.RequiredCapacity))
		case models.ConflictNoFreeTimeslot:
			crowdedSections = append(crowdedSections, conflict.SectionID)
			a.add(models.Recommendation{
				Kind:         models.RecNoAvailableTimeslot,
				Severity:     models.SeverityBlocking,
				Subject:      conflict.Subject,
				GradeLevel:   conflict.GradeLevel,
				SectionIDs:   []string{conflict.SectionID},
				TeacherIDs:   conflict.TeacherIDs,
				ClassroomIDs: conflict.ClassroomIDs,
				RemedyValue:  float64(conflict.MissingSessions * conflict.SessionDuration),
				RemedyUnit:   models.UnitPeriods,
			})
		case models.ConflictHourBudgetExhausted:
			crowdedSections = append(crowdedSections, conflict.SectionID)
			a.add(models.Recommendation{
				Kind:        models.RecTeacherHoursExhausted,
				Severity:    models.SeverityBlocking,
				Subject:     conflict.Subject,
				GradeLevel:  conflict.GradeLevel,
				SectionIDs:  []string{conflict.SectionID},
				TeacherIDs:  conflict.TeacherIDs,
				RemedyValue: float64(conflict.MissingSessions * conflict.SessionDuration),
				RemedyUnit:  models.UnitHours,
			})
		case models.ConflictSearchBudgetExhausted:
			budgetSections = append(budgetSections, conflict.SectionID)
		}
	}

	for _, key := range noTeacherKeys {
		a.add(models.Recommendation{
			Kind:        models.RecNoQualifiedTeacher,
			Severity:    models.SeverityBlocking,
			Subject:     key.subject,
			GradeLevel:  key.grade,
			SectionIDs:  noTeacher[key],
			RemedyValue: 1,
			RemedyUnit:  models.UnitTeachers,
		})
	}
	for _, subject := range noRoomKeys {
		a.add(*noRoom[subject])
	}
	if len(budgetSections) > 0 {
		a.add(models.Recommendation{
			Kind:        models.RecIncreaseSolverBudget,
			Severity:    models.SeverityBlocking,
			SectionIDs:  budgetSections,
			RemedyValue: float64(suggestedBudgetMs(a.cat.policy, a.result.Stats)),
			RemedyUnit:  models.UnitMilliseconds,
		})
	}
	if shifts := a.cat.policy.Shifts; len(crowdedSections) > 0 && shifts < models.MaxShifts {
		a.add(models.Recommendation{
			Kind:        models.RecIncreaseShifts,
			Severity:    models.SeverityAdvisory,
			SectionIDs:  crowdedSections,
			RemedyValue: float64(shifts + 1),
			RemedyUnit:  models.UnitShifts,
		})
	}
}

// suggestedBudgetMs doubles whichever time budget the search ran with.
func suggestedBudgetMs(policy models.Policy, stats models.SolveStats) int64 {
	base := int64(policy.SolverTimeLimitMs)
	if base <= 0 {
		base = stats.ElapsedMs
	}
	if base <= 0 {
		base = int64(models.DefaultPolicy().SolverTimeLimitMs)
	}
	return base * 2
}

// subjectSupply compares weekly demand per subject with the combined weekly
// ceilings of the teachers eligible for it.
func (a *analysis) subjectSupply() {
	demand := make(map[string]int)
	sectionsBySubject := make(map[string][]string)
	var subjects []string
	for _, section := range a.cat.sections {
		if _, ok := demand[section.Subject]; !ok {
			subjects = append(subjects, section.Subject)
		}
		demand[section.Subject] += section.WeeklyHours()
		sectionsBySubject[section.Subject] = append(sectionsBySubject[section.Subject], section.ID)
	}
	sort.Strings(subjects)

	for _, subject := range subjects {
		eligible := a.cat.eligibleTeachers(models.Section{Subject: subject})
		if len(eligible) == 0 {
			continue
		}
		supply := 0
		for _, idx := range eligible {
			supply += a.cat.teachers[idx].WeeklyCeiling(a.cat.policy)
		}
		if demand[subject] <= supply {
			continue
		}
		a.add(models.Recommendation{
			Kind:        models.RecSubjectTeacherShortage,
			Severity:    models.SeverityBlocking,
			Subject:     subject,
			SectionIDs:  sectionsBySubject[subject],
			TeacherIDs:  a.cat.teacherIDs(eligible),
			RemedyValue: float64(demand[subject] - supply),
			RemedyUnit:  models.UnitHours,
		})
	}
}

func (a *analysis) teacherLoads() {
	hours := make([]int, len(a.cat.teachers))
	minorSections := make([][]string, len(a.cat.teachers))
	minorCount := make([]int, len(a.cat.teachers))
	for _, item := range a.result.Assignments {
		teacher, ok := a.cat.teacher(item.TeacherID)
		if !ok {
			continue
		}
		hours[teacher] += item.Duration
		section, ok := a.cat.section(item.SectionID)
		if !ok {
			continue
		}
		if a.cat.teachers[teacher].Tier(a.cat.sections[section].Subject) == models.TierMinor {
			minorCount[teacher]++
			if !slices.Contains(minorSections[teacher], item.SectionID) {
				minorSections[teacher] = append(minorSections[teacher], item.SectionID)
			}
		}
	}

	policy := a.cat.policy
	for idx, teacher := range a.cat.teachers {
		ids := []string{teacher.ID}
		if !a.hasEligibleSection(teacher) {
			a.add(models.Recommendation{
				Kind:        models.RecTeacherSurplus,
				Severity:    models.SeverityAdvisory,
				TeacherIDs:  ids,
				RemedyValue: float64(teacher.WeeklyCeiling(policy)),
				RemedyUnit:  models.UnitHours,
			})
			continue
		}
		ceiling := teacher.WeeklyCeiling(policy)
		if policy.NearCeilingRatio > 0 && ceiling > 0 && float64(hours[idx]) >= policy.NearCeilingRatio*float64(ceiling) {
			a.add(models.Recommendation{
				Kind:        models.RecTeacherNearCeiling,
				Severity:    models.SeverityAdvisory,
				TeacherIDs:  ids,
				RemedyValue: float64(ceiling - hours[idx]),
				RemedyUnit:  models.UnitHours,
			})
		}
		if policy.MinTeacherLoad > 0 && hours[idx] < policy.MinTeacherLoad {
			a.add(models.Recommendation{
				Kind:        models.RecTeacherUnderloaded,
				Severity:    models.SeverityAdvisory,
				TeacherIDs:  ids,
				RemedyValue: float64(policy.MinTeacherLoad - hours[idx]),
				RemedyUnit:  models.UnitHours,
			})
		}
		if minorCount[idx] > 0 {
			sort.Strings(minorSections[idx])
			a.add(models.Recommendation{
				Kind:        models.RecMinorSpecializationLoad,
				Severity:    models.SeverityAdvisory,
				TeacherIDs:  ids,
				SectionIDs:  minorSections[idx],
				RemedyValue: float64(minorCount[idx]),
				RemedyUnit:  models.UnitAssignments,
			})
		}
	}
}

func (a *analysis) hasEligibleSection(teacher models.Teacher) bool {
	for _, section := range a.cat.sections {
		if a.cat.policy.Eligible(teacher.Tier(section.Subject)) {
			return true
		}
	}
	return false
}

// classroomUtilization flags rooms booked for less than LowUtilizationRatio
// of the weekly grid. An empty schedule says nothing about rooms.
func (a *analysis) classroomUtilization() {
	ratio := a.cat.policy.LowUtilizationRatio
	if ratio <= 0 || len(a.result.Assignments) == 0 {
		return
	}
	used := make([]int, len(a.cat.classrooms))
	for _, item := range a.result.Assignments {
		if room, ok := a.cat.room(item.ClassroomID); ok {
			used[room] += item.Duration
		}
	}
	available := float64(models.DaysPerWeek * models.PeriodsPerDay)
	for idx, room := range a.cat.classrooms {
		utilization := float64(used[idx]) / available
		if utilization >= ratio {
			continue
		}
		a.add(models.Recommendation{
			Kind:         models.RecClassroomUnderutilized,
			Severity:     models.SeverityAdvisory,
			ClassroomIDs: []string{room.ID},
			RemedyValue:  math.Round(utilization*100) / 100,
			RemedyUnit:   models.UnitRatio,
		})
	}
}

func sortRecommendations(items []models.Recommendation) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Severity != b.Severity {
			return a.Severity == models.SeverityBlocking
		}
		if ra, rb := recommendationRank[a.Kind], recommendationRank[b.Kind]; ra != rb {
			return ra < rb
		}
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		if a.GradeLevel != b.GradeLevel {
			return a.GradeLevel < b.GradeLevel
		}
		if sa, sb := firstOf(a.SectionIDs), firstOf(b.SectionIDs); sa != sb {
			return sa < sb
		}
		if ta, tb := firstOf(a.TeacherIDs), firstOf(b.TeacherIDs); ta != tb {
			return ta < tb
		}
		return firstOf(a.ClassroomIDs) < firstOf(b.ClassroomIDs)
	})
}
