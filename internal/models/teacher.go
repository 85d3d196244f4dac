package models

// SpecializationTier ranks how a teacher is qualified for a subject.
type SpecializationTier int

const (
	TierNone SpecializationTier = iota
	TierMinor
	TierMajor
)

// Teacher is a roster entry that can be assigned to sections of its specializations.
type Teacher struct {
	ID              string   `db:"id" json:"id" validate:"required"`
	Majors          []string `json:"majors" validate:"dive,required"`
	Minors          []string `json:"minors" validate:"dive,required"`
	MaxHoursPerDay  int      `db:"max_hours_per_day" json:"max_hours_per_day" validate:"min=0"`
	MaxHoursPerWeek int      `db:"max_hours_per_week" json:"max_hours_per_week" validate:"min=0"`
}

// Tier reports the strongest specialization the teacher holds for subject.
func (t Teacher) Tier(subject string) SpecializationTier {
	for _, major := range t.Majors {
		if major == subject {
			return TierMajor
		}
	}
	for _, minor := range t.Minors {
		if minor == subject {
			return TierMinor
		}
	}
	return TierNone
}

// DailyCeiling returns the teacher's own daily limit or the policy default.
func (t Teacher) DailyCeiling(p Policy) int {
	if t.MaxHoursPerDay > 0 {
		return t.MaxHoursPerDay
	}
	return p.MaxHoursDay
}

// WeeklyCeiling returns the teacher's own weekly limit or the policy default.
func (t Teacher) WeeklyCeiling(p Policy) int {
	if t.MaxHoursPerWeek > 0 {
		return t.MaxHoursPerWeek
	}
	return p.MaxHoursWeek
}

// DualSpecializations lists subjects present in both the major and minor sets.
func (t Teacher) DualSpecializations() []string {
	majors := make(map[string]struct{}, len(t.Majors))
	for _, major := range t.Majors {
		majors[major] = struct{}{}
	}
	var dual []string
	for _, minor := range t.Minors {
		if _, ok := majors[minor]; ok {
			dual = append(dual, minor)
		}
	}
	return dual
}
