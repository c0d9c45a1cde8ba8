package models

import "time"

// RequirementKind distinguishes subject lessons from staff meetings.
type RequirementKind string

const (
	KindSubject RequirementKind = "SUBJECT"
	KindMeeting RequirementKind = "MEETING"
)

// Valid reports whether the kind is known.
func (k RequirementKind) Valid() bool {
	return k == KindSubject || k == KindMeeting
}

// LessonRequirement is a weekly recurring demand: place Count occurrences of
// Length contiguous periods each. SUBJECT requirements carry a subject and at
// least one class; MEETING requirements carry a title and may have no classes.
type LessonRequirement struct {
	ID        string          `db:"id" json:"id"`
	Kind      RequirementKind `db:"kind" json:"kind"`
	SubjectID *string         `db:"subject_id" json:"subject_id,omitempty"`
	Title     *string         `db:"title" json:"title,omitempty"`
	Count     int             `db:"weekly_count" json:"count"`
	Length    int             `db:"block_length" json:"length"`
	RoomType  *string         `db:"room_type" json:"room_type,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`

	TeacherIDs []string `db:"-" json:"teacher_ids"`
	ClassIDs   []string `db:"-" json:"class_ids"`
}

// IsMeeting reports whether the requirement is a staff meeting.
func (r *LessonRequirement) IsMeeting() bool {
	return r.Kind == KindMeeting
}

// LessonRequirementDetail enriches a requirement with display names for API responses.
type LessonRequirementDetail struct {
	LessonRequirement
	SubjectName  *string  `json:"subject_name,omitempty"`
	TeacherNames []string `json:"teacher_names"`
	ClassNames   []string `json:"class_names"`
}
