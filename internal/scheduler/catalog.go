package scheduler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

// catalog indexes a roster by identifier. Entities are kept sorted by ID so
// every iteration over them is deterministic.
type catalog struct {
	policy     models.Policy
	teachers   []models.Teacher
	classrooms []models.Classroom
	sections   []models.Section
	teacherIdx map[string]int
	roomIdx    map[string]int
	sectionIdx map[string]int
}

func newCatalog(teachers []models.Teacher, classrooms []models.Classroom, sections []models.Section, policy models.Policy) *catalog {
	c := &catalog{
		policy:     policy.Normalize(),
		teacherIdx: make(map[string]int, len(teachers)),
		roomIdx:    make(map[string]int, len(classrooms)),
		sectionIdx: make(map[string]int, len(sections)),
	}
	for _, teacher := range teachers {
		if _, dup := c.teacherIdx[teacher.ID]; dup {
			continue
		}
		c.teacherIdx[teacher.ID] = -1
		c.teachers = append(c.teachers, teacher)
	}
	for _, room := range classrooms {
		if _, dup := c.roomIdx[room.ID]; dup {
			continue
		}
		c.roomIdx[room.ID] = -1
		c.classrooms = append(c.classrooms, room)
	}
	for _, section := range sections {
		if _, dup := c.sectionIdx[section.ID]; dup {
			continue
		}
		c.sectionIdx[section.ID] = -1
		c.sections = append(c.sections, section)
	}
	sort.Slice(c.teachers, func(i, j int) bool { return c.teachers[i].ID < c.teachers[j].ID })
	sort.Slice(c.classrooms, func(i, j int) bool { return c.classrooms[i].ID < c.classrooms[j].ID })
	sort.Slice(c.sections, func(i, j int) bool { return c.sections[i].ID < c.sections[j].ID })
	for i, teacher := range c.teachers {
		c.teacherIdx[teacher.ID] = i
	}
	for i, room := range c.classrooms {
		c.roomIdx[room.ID] = i
	}
	for i, section := range c.sections {
		c.sectionIdx[section.ID] = i
	}
	return c
}

func (c *catalog) teacher(id string) (int, bool) {
	idx, ok := c.teacherIdx[id]
	return idx, ok
}

func (c *catalog) room(id string) (int, bool) {
	idx, ok := c.roomIdx[id]
	return idx, ok
}

func (c *catalog) section(id string) (int, bool) {
	idx, ok := c.sectionIdx[id]
	return idx, ok
}

// eligibleTeachers returns teacher indices allowed to teach the section's
// subject under the policy's strictness.
func (c *catalog) eligibleTeachers(section models.Section) []int {
	var result []int
	for i, teacher := range c.teachers {
		if c.policy.Eligible(teacher.Tier(section.Subject)) {
			result = append(result, i)
		}
	}
	return result
}

// roomsFor returns classrooms large enough for the section, tightest fit first.
func (c *catalog) roomsFor(section models.Section) []int {
	var result []int
	for i, room := range c.classrooms {
		if room.Capacity >= section.Enrollment {
			result = append(result, i)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return c.classrooms[result[i]].Capacity < c.classrooms[result[j]].Capacity
	})
	return result
}

func (c *catalog) teacherIDs(indices []int) []string {
	ids := make([]string, 0, len(indices))
	for _, idx := range indices {
		ids = append(ids, c.teachers[idx].ID)
	}
	return ids
}

func (c *catalog) roomIDs(indices []int) []string {
	ids := make([]string, 0, len(indices))
	for _, idx := range indices {
		ids = append(ids, c.classrooms[idx].ID)
	}
	return ids
}

type problemInput struct {
	Teachers   []models.Teacher   `validate:"dive"`
	Classrooms []models.Classroom `validate:"dive"`
	Sections   []models.Section   `validate:"dive"`
	Policy     models.Policy
}

// CheckInput rejects malformed rosters before any search begins: missing
// identifiers, non-positive capacities, duplicate ids, out-of-range policy
// values and major/minor overlaps the policy does not allow.
func CheckInput(validate *validator.Validate, teachers []models.Teacher, classrooms []models.Classroom, sections []models.Section, policy models.Policy) error {
	if validate == nil {
		validate = validator.New()
	}
	policy = policy.Normalize()
	input := problemInput{Teachers: teachers, Classrooms: classrooms, Sections: sections, Policy: policy}
	if err := validate.Struct(input); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable input")
	}

	if dup := firstDuplicate(len(teachers), func(i int) string { return teachers[i].ID }); dup != "" {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate teacher id %s", dup))
	}
	if dup := firstDuplicate(len(classrooms), func(i int) string { return classrooms[i].ID }); dup != "" {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate classroom id %s", dup))
	}
	if dup := firstDuplicate(len(sections), func(i int) string { return sections[i].ID }); dup != "" {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate section id %s", dup))
	}

	if !policy.AllowDualSpecialization {
		for _, teacher := range teachers {
			if dual := teacher.DualSpecializations(); len(dual) > 0 {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("teacher %s lists %s as both major and minor", teacher.ID, strings.Join(dual, ",")))
			}
		}
	}
	return nil
}

func firstDuplicate(n int, id func(int) string) string {
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		key := id(i)
		if _, ok := seen[key]; ok {
			return key
		}
		seen[key] = struct{}{}
	}
	return ""
}
