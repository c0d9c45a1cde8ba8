package dto

// GenerateTimetableRequest triggers one timetable generation run.
// ActiveDays is a global weekday filter; empty falls back to the configured
// default school week.
type GenerateTimetableRequest struct {
	ClearExisting bool     `json:"clearExisting"`
	ActiveDays    []string `json:"activeDays" validate:"omitempty,dive,required"`
}

// GenerationStep is one human-readable trace line of the solver.
type GenerationStep struct {
	Message string `json:"message"`
}

// ConflictLesson identifies the requirement behind a conflict for display.
type ConflictLesson struct {
	Subject string `json:"subject"`
	Class   string `json:"class"`
}

// GenerationConflict reports a requirement whose weekly count could not be
// fully placed. placed + the shortfall always equals needed.
type GenerationConflict struct {
	Lesson ConflictLesson `json:"lesson"`
	Placed int            `json:"placed"`
	Needed int            `json:"needed"`
}

// GenerationSummary aggregates run-level counters.
type GenerationSummary struct {
	Lessons int `json:"lessons"`
}

// GenerateTimetableResponse is the structured result of a run. Success stays
// true when conflicts exist; only fatal errors fail the run.
type GenerateTimetableResponse struct {
	Success        bool                 `json:"success"`
	TotalPlaced    int                  `json:"totalPlaced"`
	TotalConflicts int                  `json:"totalConflicts"`
	Summary        GenerationSummary    `json:"summary"`
	Steps          []GenerationStep     `json:"steps"`
	Conflicts      []GenerationConflict `json:"conflicts"`
}
