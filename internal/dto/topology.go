package dto

// PeriodRequest creates or updates one period of the daily grid.
type PeriodRequest struct {
	Number    int    `json:"number" validate:"required,min=1"`
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
	IsBreak   bool   `json:"isBreak"`
	Label     string `json:"label"`
}

// RoomRequest creates or updates a room.
type RoomRequest struct {
	Name     string `json:"name" validate:"required"`
	Type     string `json:"type" validate:"required"`
	Capacity int    `json:"capacity" validate:"omitempty,min=0"`
}

// GradeCalendarRequest replaces the active weekday set of one grade.
type GradeCalendarRequest struct {
	Days []string `json:"days" validate:"required,min=1,dive,required"`
}
