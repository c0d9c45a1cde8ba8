package dto

// LessonConfigRequest creates or updates a lesson requirement. Subject
// lessons carry subjectId and classIds; meetings carry title instead and may
// omit classes.
type LessonConfigRequest struct {
	SubjectID  *string  `json:"subjectId"`
	Title      *string  `json:"title"`
	ClassIDs   []string `json:"classIds"`
	TeacherIDs []string `json:"teacherIds" validate:"required,min=1"`
	Count      int      `json:"count" validate:"required,min=1"`
	Length     int      `json:"length" validate:"required,min=1,max=3"`
	RoomType   *string  `json:"roomType"`
	IsMeeting  bool     `json:"isMeeting"`
}

// ImportAssignmentsRequest tunes the bulk derivation of requirements from
// teacher assignments.
type ImportAssignmentsRequest struct {
	WeeklyCount int `json:"weeklyCount" validate:"omitempty,min=1"`
}

// ImportAssignmentsResponse reports how many requirements were derived.
type ImportAssignmentsResponse struct {
	Imported int `json:"imported"`
}
