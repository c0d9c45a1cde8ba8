package models

import "time"

// Period is one ordered teaching slot within a day. Break periods are never schedulable.
type Period struct {
	ID        string    `db:"id" json:"id"`
	Number    int       `db:"number" json:"number"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	IsBreak   bool      `db:"is_break" json:"is_break"`
	Label     string    `db:"label" json:"label"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// GradeCalendarEntry marks one active weekday for a grade.
type GradeCalendarEntry struct {
	ID        string    `db:"id" json:"id"`
	Grade     string    `db:"grade" json:"grade"`
	DayOfWeek Day       `db:"day_of_week" json:"day_of_week"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
