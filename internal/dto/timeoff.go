package dto

// TimeOffCell is one explicit cell of an owner's availability matrix.
// Omitted cells are implicitly AVAILABLE.
type TimeOffCell struct {
	DayOfWeek string `json:"dayOfWeek" validate:"required"`
	PeriodID  string `json:"periodId" validate:"required"`
	State     string `json:"state" validate:"required,oneof=AVAILABLE CONDITIONAL UNAVAILABLE"`
}

// ReplaceTimeOffRequest swaps an owner's whole matrix. An empty matrix clears
// every explicit cell back to AVAILABLE.
type ReplaceTimeOffRequest struct {
	Matrix []TimeOffCell `json:"matrix" validate:"dive"`
}
