package models

import "time"

// SpecializationStrictness controls which specialization tiers may teach a subject.
type SpecializationStrictness string

const (
	StrictnessMajorOnly    SpecializationStrictness = "major-only"
	StrictnessMajorOrMinor SpecializationStrictness = "major-or-minor"
)

// SolverStrategy selects the optimization backend.
type SolverStrategy string

const (
	StrategyBacktracking SolverStrategy = "backtracking"
	StrategyGreedy       SolverStrategy = "greedy"
)

// Policy carries every tunable the solver, validator and analyzer honour.
type Policy struct {
	SpecializationStrictness SpecializationStrictness `json:"specializationStrictness" validate:"omitempty,oneof=major-only major-or-minor"`
	MaxHoursDay              int                      `json:"maxHoursDay" validate:"min=1,max=10"`
	MaxHoursWeek             int                      `json:"maxHoursWeek" validate:"min=1,max=50"`
	SolverTimeLimitMs        int                      `json:"solverTimeLimitMs" validate:"min=0"`
	LoadBalanceWeight        float64                  `json:"loadBalanceWeight" validate:"min=0"`
	GapMinimizeWeight        float64                  `json:"gapMinimizeWeight" validate:"min=0"`

	Strategy                SolverStrategy `json:"strategy" validate:"omitempty,oneof=backtracking greedy"`
	MaxIterations           int            `json:"maxIterations" validate:"min=0"`
	Shifts                  int            `json:"shifts" validate:"min=0,max=3"`
	AllowDualSpecialization bool           `json:"allowDualSpecialization"`
	AllowPartialCommit      bool           `json:"allowPartialCommit"`
	MinorPenaltyWeight      float64        `json:"minorPenaltyWeight" validate:"min=0"`
	MinTeacherLoad          int            `json:"minTeacherLoad" validate:"min=0"`
	NearCeilingRatio        float64        `json:"nearCeilingRatio" validate:"min=0,max=1"`
	LowUtilizationRatio     float64        `json:"lowUtilizationRatio" validate:"min=0,max=1"`
}

// DefaultPolicy mirrors the defaults of the original planning tool (6 periods a
// day, 30 a week, whole-day shift).
func DefaultPolicy() Policy {
	return Policy{
		SpecializationStrictness: StrictnessMajorOrMinor,
		MaxHoursDay:              6,
		MaxHoursWeek:             30,
		SolverTimeLimitMs:        5000,
		LoadBalanceWeight:        1,
		GapMinimizeWeight:        1,
		Strategy:                 StrategyBacktracking,
		MaxIterations:            50000,
		Shifts:                   1,
		MinorPenaltyWeight:       0.5,
		MinTeacherLoad:           0,
		NearCeilingRatio:         0.9,
		LowUtilizationRatio:      0.2,
	}
}

// Normalize fills zero-valued enum fields with defaults.
func (p Policy) Normalize() Policy {
	if p.SpecializationStrictness == "" {
		p.SpecializationStrictness = StrictnessMajorOrMinor
	}
	if p.Strategy == "" {
		p.Strategy = StrategyBacktracking
	}
	if p.Shifts == 0 {
		p.Shifts = 1
	}
	return p
}

// Eligible reports whether a teacher of the given tier may teach under the policy.
func (p Policy) Eligible(tier SpecializationTier) bool {
	switch tier {
	case TierMajor:
		return true
	case TierMinor:
		return p.SpecializationStrictness != StrictnessMajorOnly
	default:
		return false
	}
}

// TimeLimit converts SolverTimeLimitMs; zero means no wall-clock limit.
func (p Policy) TimeLimit() time.Duration {
	return time.Duration(p.SolverTimeLimitMs) * time.Millisecond
}
