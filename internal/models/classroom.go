package models

// Classroom is a bookable room; capacity is fixed for the duration of a solve.
type Classroom struct {
	ID       string `db:"id" json:"id" validate:"required"`
	Capacity int    `db:"capacity" json:"capacity" validate:"gt=0"`
}
