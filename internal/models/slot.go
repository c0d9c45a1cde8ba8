package models

import "time"

// TimetableSlot is one committed placement of a lesson requirement on a
// specific day, covering a contiguous run of periods, optionally in a room.
type TimetableSlot struct {
	ID                  string    `db:"id" json:"id"`
	DayOfWeek           Day       `db:"day_of_week" json:"day_of_week"`
	LessonRequirementID string    `db:"lesson_requirement_id" json:"lesson_requirement_id"`
	RoomID              *string   `db:"room_id" json:"room_id,omitempty"`
	Generated           bool      `db:"generated" json:"generated"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`

	PeriodIDs  []string `db:"-" json:"period_ids"`
	TeacherIDs []string `db:"-" json:"teacher_ids"`
	ClassIDs   []string `db:"-" json:"class_ids"`
}

// HydratedSlot joins a slot with the display data read-back consumers need.
type HydratedSlot struct {
	ID            string   `json:"id"`
	DayOfWeek     Day      `json:"day_of_week"`
	PeriodNumbers []int    `json:"period_numbers"`
	PeriodLabels  []string `json:"period_labels"`
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time"`
	SubjectName   *string  `json:"subject_name,omitempty"`
	Title         *string  `json:"title,omitempty"`
	TeacherNames  []string `json:"teacher_names"`
	ClassNames    []string `json:"class_names"`
	RoomName      *string  `json:"room_name,omitempty"`
}
