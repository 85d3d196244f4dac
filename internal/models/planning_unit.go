package models

// PlanningUnit is one independent scheduling scope (typically a school) with
// the roster loaded for the current planning cycle.
type PlanningUnit struct {
	ID         string      `json:"id" validate:"required"`
	Teachers   []Teacher   `json:"teachers" validate:"dive"`
	Classrooms []Classroom `json:"classrooms" validate:"dive"`
	Sections   []Section   `json:"sections" validate:"dive"`
	Policy     Policy      `json:"policy"`
}
