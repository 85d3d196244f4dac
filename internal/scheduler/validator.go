package scheduler

import (
	"fmt"
	"sort"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// Validate enumerates every hard constraint the assignment set violates. It
// never fails: an empty result means the set is a valid complete schedule.
func Validate(assignments []models.Assignment, teachers []models.Teacher, classrooms []models.Classroom, sections []models.Section, policy models.Policy) []models.Violation {
	return newCatalog(teachers, classrooms, sections, policy).check(assignments, true)
}

// ValidatePartial is Validate without the under-fill half of the session
// count rule. Sections may have fewer assignments than required but never more.
func ValidatePartial(assignments []models.Assignment, teachers []models.Teacher, classrooms []models.Classroom, sections []models.Section, policy models.Policy) []models.Violation {
	return newCatalog(teachers, classrooms, sections, policy).check(assignments, false)
}

type resolvedAssignment struct {
	models.Assignment
	teacher int
	room    int
	section int
}

func (c *catalog) check(assignments []models.Assignment, requireComplete bool) []models.Violation {
	violations := make([]models.Violation, 0)
	resolved := make([]resolvedAssignment, 0, len(assignments))
	seenKeys := make(map[models.SessionKey]bool, len(assignments))

	ordered := models.CloneAssignments(assignments)
	models.SortAssignments(ordered)

	for _, item := range ordered {
		invalid := func(reason string) {
			violations = append(violations, models.Violation{
				Kind:        models.ViolationInvalidAssignment,
				TeacherID:   item.TeacherID,
				ClassroomID: item.ClassroomID,
				SectionIDs:  []string{item.SectionID},
				Slot:        slotRef(item.Slot),
				Reason:      reason,
			})
		}
		teacherIdx, okTeacher := c.teacher(item.TeacherID)
		roomIdx, okRoom := c.room(item.ClassroomID)
		sectionIdx, okSection := c.section(item.SectionID)
		switch {
		case !okSection:
			invalid("unknown section")
			continue
		case !okTeacher:
			invalid("unknown teacher")
			continue
		case !okRoom:
			invalid("unknown classroom")
			continue
		}
		section := c.sections[sectionIdx]
		switch {
		case !item.Slot.Valid():
			invalid("timeslot outside the weekly grid")
			continue
		case item.Duration != section.SessionDuration:
			invalid(fmt.Sprintf("duration %d does not match section duration %d", item.Duration, section.SessionDuration))
			continue
		case !models.FitsShift(item.Slot.Period, item.Duration, c.policy.Shifts):
			invalid("session crosses a shift boundary or the end of the day")
			continue
		case item.Session < 1 || item.Session > section.SessionsPerWeek:
			invalid(fmt.Sprintf("session %d outside 1..%d", item.Session, section.SessionsPerWeek))
			continue
		case seenKeys[item.Key()]:
			invalid("session assigned more than once")
			continue
		}
		seenKeys[item.Key()] = true
		resolved = append(resolved, resolvedAssignment{Assignment: item, teacher: teacherIdx, room: roomIdx, section: sectionIdx})
	}

	for _, item := range resolved {
		section := c.sections[item.section]
		room := c.classrooms[item.room]
		teacher := c.teachers[item.teacher]
		if room.Capacity < section.Enrollment {
			violations = append(violations, models.Violation{
				Kind:        models.ViolationCapacityExceeded,
				ClassroomID: room.ID,
				SectionIDs:  []string{section.ID},
				Slot:        slotRef(item.Slot),
				Limit:       room.Capacity,
				Actual:      section.Enrollment,
			})
		}
		if !c.policy.Eligible(teacher.Tier(section.Subject)) {
			violations = append(violations, models.Violation{
				Kind:       models.ViolationSpecializationMismatch,
				TeacherID:  teacher.ID,
				SectionIDs: []string{section.ID},
				Subject:    section.Subject,
				Slot:       slotRef(item.Slot),
			})
		}
	}

	violations = append(violations, c.overlaps(resolved, models.ViolationDoubleBookedTeacher, func(a resolvedAssignment) int { return a.teacher })...)
	violations = append(violations, c.overlaps(resolved, models.ViolationDoubleBookedRoom, func(a resolvedAssignment) int { return a.room })...)
	violations = append(violations, c.overlaps(resolved, models.ViolationDoubleBookedSection, func(a resolvedAssignment) int { return a.section })...)
	violations = append(violations, c.hourCeilings(resolved)...)
	violations = append(violations, c.sessionCounts(resolved, requireComplete)...)

	sortViolations(violations)
	return violations
}

// overlaps reports every pair of assignments that share a resource and at
// least one period.
func (c *catalog) overlaps(items []resolvedAssignment, kind models.ViolationKind, resource func(resolvedAssignment) int) []models.Violation {
	groups := make(map[int][]resolvedAssignment)
	for _, item := range items {
		key := resource(item)
		groups[key] = append(groups[key], item)
	}
	keys := make([]int, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Ints(keys)

	var result []models.Violation
	for _, key := range keys {
		group := groups[key]
		sort.SliceStable(group, func(i, j int) bool {
			if c := group[i].Slot.Compare(group[j].Slot); c != 0 {
				return c < 0
			}
			if group[i].SectionID != group[j].SectionID {
				return group[i].SectionID < group[j].SectionID
			}
			return group[i].Session < group[j].Session
		})
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if group[j].Slot.Day != group[i].Slot.Day {
					break
				}
				if !group[i].Overlaps(group[j].Assignment) {
					continue
				}
				violation := models.Violation{
					Kind:       kind,
					SectionIDs: []string{group[i].SectionID, group[j].SectionID},
					Slot:       slotRef(group[j].Slot),
				}
				switch kind {
				case models.ViolationDoubleBookedTeacher:
					violation.TeacherID = c.teachers[key].ID
				case models.ViolationDoubleBookedRoom:
					violation.ClassroomID = c.classrooms[key].ID
				}
				result = append(result, violation)
			}
		}
	}
	return result
}

func (c *catalog) hourCeilings(items []resolvedAssignment) []models.Violation {
	daily := make([][models.DaysPerWeek + 1]int, len(c.teachers))
	weekly := make([]int, len(c.teachers))
	for _, item := range items {
		daily[item.teacher][item.Slot.Day] += item.Duration
		weekly[item.teacher] += item.Duration
	}

	var result []models.Violation
	for idx, teacher := range c.teachers {
		if limit := teacher.DailyCeiling(c.policy); limit > 0 {
			for day := 1; day <= models.DaysPerWeek; day++ {
				if daily[idx][day] > limit {
					result = append(result, models.Violation{
						Kind:      models.ViolationHourCeilingExceeded,
						TeacherID: teacher.ID,
						Scope:     models.CeilingDaily,
						Day:       day,
						Limit:     limit,
						Actual:    daily[idx][day],
					})
				}
			}
		}
		if limit := teacher.WeeklyCeiling(c.policy); limit > 0 && weekly[idx] > limit {
			result = append(result, models.Violation{
				Kind:      models.ViolationHourCeilingExceeded,
				TeacherID: teacher.ID,
				Scope:     models.CeilingWeekly,
				Limit:     limit,
				Actual:    weekly[idx],
			})
		}
	}
	return result
}

func (c *catalog) sessionCounts(items []resolvedAssignment, requireComplete bool) []models.Violation {
	counts := make([]int, len(c.sections))
	for _, item := range items {
		counts[item.section]++
	}
	var result []models.Violation
	for idx, section := range c.sections {
		count := counts[idx]
		if count > section.SessionsPerWeek || (requireComplete && count < section.SessionsPerWeek) {
			result = append(result, models.Violation{
				Kind:       models.ViolationSessionCountMismatch,
				SectionIDs: []string{section.ID},
				Subject:    section.Subject,
				Limit:      section.SessionsPerWeek,
				Actual:     count,
			})
		}
	}
	return result
}

func slotRef(slot models.TimeSlot) *models.TimeSlot {
	s := slot
	return &s
}

func sortViolations(items []models.Violation) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.TeacherID != b.TeacherID {
			return a.TeacherID < b.TeacherID
		}
		if a.ClassroomID != b.ClassroomID {
			return a.ClassroomID < b.ClassroomID
		}
		if sa, sb := firstOf(a.SectionIDs), firstOf(b.SectionIDs); sa != sb {
			return sa < sb
		}
		if c := compareSlots(a.Slot, b.Slot); c != 0 {
			return c < 0
		}
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		return a.Scope < b.Scope
	})
}

func firstOf(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[0]
}

func compareSlots(a, b *models.TimeSlot) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.Compare(*b)
	}
}
