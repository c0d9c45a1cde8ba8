package models

import "time"

// OwnerType scopes an availability matrix to a class, teacher or subject.
type OwnerType string

const (
	OwnerClass   OwnerType = "CLASS"
	OwnerTeacher OwnerType = "TEACHER"
	OwnerSubject OwnerType = "SUBJECT"
)

// Valid reports whether the owner type is known.
func (o OwnerType) Valid() bool {
	switch o {
	case OwnerClass, OwnerTeacher, OwnerSubject:
		return true
	}
	return false
}

// AvailabilityState is the tri-state constraint for one (owner, day, period) cell.
type AvailabilityState string

const (
	StateAvailable   AvailabilityState = "AVAILABLE"
	StateConditional AvailabilityState = "CONDITIONAL"
	StateUnavailable AvailabilityState = "UNAVAILABLE"
)

// Valid reports whether the state is one of the three known values.
func (s AvailabilityState) Valid() bool {
	switch s {
	case StateAvailable, StateConditional, StateUnavailable:
		return true
	}
	return false
}

// AvailabilityEntry stores one explicit cell of an owner's availability matrix.
// Cells without an entry are implicitly AVAILABLE.
type AvailabilityEntry struct {
	ID        string            `db:"id" json:"id"`
	OwnerType OwnerType         `db:"owner_type" json:"owner_type"`
	OwnerID   string            `db:"owner_id" json:"owner_id"`
	DayOfWeek Day               `db:"day_of_week" json:"day_of_week"`
	PeriodID  string            `db:"period_id" json:"period_id"`
	State     AvailabilityState `db:"state" json:"state"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt time.Time         `db:"updated_at" json:"updated_at"`
}
