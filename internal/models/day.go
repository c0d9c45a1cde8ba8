package models

import "strings"

// Day is a schedulable weekday. Sunday is never schedulable.
type Day string

const (
	Monday    Day = "MONDAY"
	Tuesday   Day = "TUESDAY"
	Wednesday Day = "WEDNESDAY"
	Thursday  Day = "THURSDAY"
	Friday    Day = "FRIDAY"
	Saturday  Day = "SATURDAY"
)

// WeekDays lists schedulable days in natural week order.
var WeekDays = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

var dayOrder = map[Day]int{
	Monday:    1,
	Tuesday:   2,
	Wednesday: 3,
	Thursday:  4,
	Friday:    5,
	Saturday:  6,
}

// Order returns the 1-based position of the day within the week, 0 for unknown days.
func (d Day) Order() int {
	return dayOrder[d]
}

// Valid reports whether the day is a known schedulable weekday.
func (d Day) Valid() bool {
	_, ok := dayOrder[d]
	return ok
}

// ParseDay normalises a raw day name into a Day, reporting success.
func ParseDay(raw string) (Day, bool) {
	day := Day(strings.ToUpper(strings.TrimSpace(raw)))
	return day, day.Valid()
}

// SortDays orders days in place by natural week order, dropping duplicates and unknowns.
func SortDays(days []Day) []Day {
	seen := make(map[Day]bool, len(days))
	result := make([]Day, 0, len(days))
	for _, candidate := range WeekDays {
		for _, day := range days {
			if day == candidate && !seen[day] {
				seen[day] = true
				result = append(result, day)
			}
		}
	}
	return result
}
