package solver

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
)

func strPtr(s string) *string { return &s }

func testPeriods(count int) []models.Period {
	periods := make([]models.Period, 0, count)
	for i := 1; i <= count; i++ {
		periods = append(periods, models.Period{
			ID:     fmt.Sprintf("p%d", i),
			Number: i,
			Label:  fmt.Sprintf("Period %d", i),
		})
	}
	return periods
}

func baseSnapshot() Snapshot {
	return Snapshot{
		Periods: testPeriods(6),
		Rooms: []models.Room{
			{ID: "room-1", Name: "R101", Type: "STANDARD", Capacity: 36},
			{ID: "room-2", Name: "R102", Type: "STANDARD", Capacity: 36},
			{ID: "room-3", Name: "Lab", Type: "LAB", Capacity: 24},
		},
		Classes: map[string]models.Class{
			"class-1": {ID: "class-1", Name: "10A", Grade: "10", StudentCount: 30},
			"class-2": {ID: "class-2", Name: "10B", Grade: "10", StudentCount: 30},
		},
		Subjects: map[string]models.Subject{
			"math":    {ID: "math", Name: "Mathematics"},
			"physics": {ID: "physics", Name: "Physics"},
		},
		Teachers: map[string]models.Teacher{
			"teacher-1": {ID: "teacher-1", FullName: "A. Harahap"},
			"teacher-2": {ID: "teacher-2", FullName: "B. Siregar"},
			"teacher-3": {ID: "teacher-3", FullName: "C. Lubis"},
		},
		DefaultDays:  []models.Day{models.Monday, models.Tuesday, models.Wednesday, models.Thursday, models.Friday},
		ActiveDays:   []models.Day{models.Monday, models.Tuesday, models.Wednesday, models.Thursday, models.Friday},
		GradeDays:    map[string][]models.Day{},
		Availability: map[CellKey]models.AvailabilityState{},
	}
}

func subjectRequirement(id, subjectID string, count, length int, teacherIDs, classIDs []string) models.LessonRequirement {
	return models.LessonRequirement{
		ID:         id,
		Kind:       models.KindSubject,
		SubjectID:  strPtr(subjectID),
		Count:      count,
		Length:     length,
		TeacherIDs: teacherIDs,
		ClassIDs:   classIDs,
	}
}

func blockAllPeriods(snap *Snapshot, owner models.OwnerType, ownerID string, days ...models.Day) {
	for _, day := range days {
		for _, period := range snap.Periods {
			snap.Availability[CellKey{Owner: owner, OwnerID: ownerID, Day: day, PeriodID: period.ID}] = models.StateUnavailable
		}
	}
}

func TestSolveFiveSingleLessonsFitFreeWeek(t *testing.T) {
	snap := baseSnapshot()
	snap.Requirements = []models.LessonRequirement{
		subjectRequirement("req-1", "math", 5, 1, []string{"teacher-1"}, []string{"class-1"}),
	}

	result, err := Solve(snap)
	require.NoError(t, err)
	assert.Len(t, result.Placements, 5)
	assert.Empty(t, result.Conflicts)
}

func TestSolveRecordsShortfallWhenTeacherMostlyBlocked(t *testing.T) {
	snap := baseSnapshot()
	snap.Periods = testPeriods(2)
	snap.Requirements = []models.LessonRequirement{
		subjectRequirement("req-1", "math", 5, 1, []string{"teacher-1"}, []string{"class-1"}),
	}
	blockAllPeriods(&snap, models.OwnerTeacher, "teacher-1", models.Monday, models.Tuesday, models.Wednesday)

	result, err := Solve(snap)
	require.NoError(t, err)
	// Two free days with two periods each leave four legal slots for five lessons.
	assert.Len(t, result.Placements, 4)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "req-1", result.Conflicts[0].RequirementID)
	assert.Equal(t, 5, result.Conflicts[0].Needed)
	assert.Equal(t, 4, result.Conflicts[0].Placed)
}

func TestSolveMostConstrainedRequirementWinsContestedSlot(t *testing.T) {
	snap := baseSnapshot()
	snap.Periods = testPeriods(1)
	snap.ActiveDays = []models.Day{models.Monday}
	snap.DefaultDays = []models.Day{models.Monday}
	// Both requirements share teacher-1 and need the sole free period, but
	// req-narrow has only one candidate day while req-wide spans two classes
	// whose other day options are blocked asymmetrically.
	snap.Requirements = []models.LessonRequirement{
		subjectRequirement("req-wide", "math", 1, 1, []string{"teacher-1"}, []string{"class-1"}),
		subjectRequirement("req-narrow", "physics", 1, 1, []string{"teacher-1"}, []string{"class-2"}),
	}
	// Shrink req-narrow's options below req-wide's by marking class-2
	// unavailable nowhere (both have one candidate); tie then breaks by id.
	result, err := Solve(snap)
	require.NoError(t, err)
	require.Len(t, result.Placements, 1)
	assert.Equal(t, "req-narrow", result.Placements[0].RequirementID)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "req-wide", result.Conflicts[0].RequirementID)
	assert.Equal(t, 1, result.Conflicts[0].Needed)
	assert.Equal(t, 0, result.Conflicts[0].Placed)
}

func TestSolveMeetingWithoutClasses(t *testing.T) {
	snap := baseSnapshot()
	snap.Requirements = []models.LessonRequirement{
		{
			ID:         "meet-1",
			Kind:       models.KindMeeting,
			Title:      strPtr("MGMP Matematika"),
			Count:      1,
			Length:     1,
			TeacherIDs: []string{"teacher-1", "teacher-2", "teacher-3"},
		},
	}

	result, err := Solve(snap)
	require.NoError(t, err)
	require.Len(t, result.Placements, 1)
	placement := result.Placements[0]
	assert.Empty(t, placement.ClassIDs)
	assert.Nil(t, placement.RoomID)
	assert.ElementsMatch(t, []string{"teacher-1", "teacher-2", "teacher-3"}, placement.TeacherIDs)
}

func TestSolveMeetingsScheduledBeforeSubjectLessons(t *testing.T) {
	snap := baseSnapshot()
	snap.Periods = testPeriods(1)
	snap.ActiveDays = []models.Day{models.Monday}
	snap.DefaultDays = []models.Day{models.Monday}
	snap.Requirements = []models.LessonRequirement{
		subjectRequirement("aaa-lesson", "math", 1, 1, []string{"teacher-1"}, []string{"class-1"}),
		{
			ID:         "zzz-meeting",
			Kind:       models.KindMeeting,
			Title:      strPtr("Staff briefing"),
			Count:      1,
			Length:     1,
			TeacherIDs: []string{"teacher-1"},
		},
	}

	result, err := Solve(snap)
	require.NoError(t, err)
	require.Len(t, result.Placements, 1)
	assert.Equal(t, "zzz-meeting", result.Placements[0].RequirementID)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "aaa-lesson", result.Conflicts[0].RequirementID)
}

func TestSolveBlocksAreContiguousAndSkipBreaks(t *testing.T) {
	snap := baseSnapshot()
	periods := testPeriods(5)
	periods[2].IsBreak = true // period 3 is the break
	snap.Periods = periods
	snap.ActiveDays = []models.Day{models.Monday}
	snap.DefaultDays = []models.Day{models.Monday}
	snap.Requirements = []models.LessonRequirement{
		subjectRequirement("req-1", "math", 2, 2, []string{"teacher-1"}, []string{"class-1"}),
	}

	result, err := Solve(snap)
	require.NoError(t, err)
	require.Len(t, result.Placements, 2)
	assert.Empty(t, result.Conflicts)

	breakID := periods[2].ID
	for _, placement := range result.Placements {
		assert.Len(t, placement.PeriodIDs, 2)
		assert.NotContains(t, placement.PeriodIDs, breakID)
	}
	// The only double runs around a mid-morning break are 1-2 and 4-5.
	assert.ElementsMatch(t,
		[][]string{{"p1", "p2"}, {"p4", "p5"}},
		[][]string{result.Placements[0].PeriodIDs, result.Placements[1].PeriodIDs},
	)
}

func TestSolveRespectsGradeCalendar(t *testing.T) {
	snap := baseSnapshot()
	snap.GradeDays = map[string][]models.Day{
		"10": {models.Monday, models.Tuesday},
	}
	snap.Requirements = []models.LessonRequirement{
		subjectRequirement("req-1", "math", 4, 1, []string{"teacher-1"}, []string{"class-1"}),
	}

	result, err := Solve(snap)
	require.NoError(t, err)
	require.Len(t, result.Placements, 4)
	for _, placement := range result.Placements {
		assert.Contains(t, []models.Day{models.Monday, models.Tuesday}, placement.Day)
	}
}

func TestSolveNeverUsesUnavailableCells(t *testing.T) {
	snap := baseSnapshot()
	snap.Requirements = []models.LessonRequirement{
		subjectRequirement("req-1", "math", 5, 1, []string{"teacher-1"}, []string{"class-1"}),
	}
	for _, period := range snap.Periods[:3] {
		snap.Availability[CellKey{Owner: models.OwnerSubject, OwnerID: "math", Day: models.Monday, PeriodID: period.ID}] = models.StateUnavailable
	}

	result, err := Solve(snap)
	require.NoError(t, err)
	for _, placement := range result.Placements {
		if placement.Day != models.Monday {
			continue
		}
		for _, id := range placement.PeriodIDs {
			assert.NotContains(t, []string{"p1", "p2", "p3"}, id)
		}
	}
}

func TestSolvePrefersZeroConditionalCells(t *testing.T) {
	snap := baseSnapshot()
	snap.Periods = testPeriods(2)
	snap.ActiveDays = []models.Day{models.Monday}
	snap.DefaultDays = []models.Day{models.Monday}
	snap.Requirements = []models.LessonRequirement{
		subjectRequirement("req-1", "math", 1, 1, []string{"teacher-1"}, []string{"class-1"}),
	}
	snap.Availability[CellKey{Owner: models.OwnerTeacher, OwnerID: "teacher-1", Day: models.Monday, PeriodID: "p1"}] = models.StateConditional

	result, err := Solve(snap)
	require.NoError(t, err)
	require.Len(t, result.Placements, 1)
	assert.Equal(t, []string{"p2"}, result.Placements[0].PeriodIDs)
}

func TestSolveAcceptsConditionalWhenNothingElseRemains(t *testing.T) {
	snap := baseSnapshot()
	snap.Periods = testPeriods(1)
	snap.ActiveDays = []models.Day{models.Monday}
	snap.DefaultDays = []models.Day{models.Monday}
	snap.Requirements = []models.LessonRequirement{
		subjectRequirement("req-1", "math", 1, 1, []string{"teacher-1"}, []string{"class-1"}),
	}
	snap.Availability[CellKey{Owner: models.OwnerTeacher, OwnerID: "teacher-1", Day: models.Monday, PeriodID: "p1"}] = models.StateConditional

	result, err := Solve(snap)
	require.NoError(t, err)
	assert.Len(t, result.Placements, 1)
	assert.Empty(t, result.Conflicts)
}

func TestSolveRoomTypeAndCapacity(t *testing.T) {
	snap := baseSnapshot()
	snap.ActiveDays = []models.Day{models.Monday}
	snap.DefaultDays = []models.Day{models.Monday}
	req := subjectRequirement("req-1", "physics", 1, 1, []string{"teacher-1"}, []string{"class-1"})
	req.RoomType = strPtr("LAB")
	snap.Requirements = []models.LessonRequirement{req}

	result, err := Solve(snap)
	require.NoError(t, err)
	// The only lab holds 24 but the class has 30 students.
	assert.Empty(t, result.Placements)
	require.Len(t, result.Conflicts, 1)

	snap.Rooms = append(snap.Rooms, models.Room{ID: "room-4", Name: "Big Lab", Type: "LAB", Capacity: 40})
	result, err = Solve(snap)
	require.NoError(t, err)
	require.Len(t, result.Placements, 1)
	require.NotNil(t, result.Placements[0].RoomID)
	assert.Equal(t, "room-4", *result.Placements[0].RoomID)
}

func TestSolveNoTeacherClassOrRoomDoubleBooking(t *testing.T) {
	snap := baseSnapshot()
	snap.Requirements = []models.LessonRequirement{
		subjectRequirement("req-1", "math", 5, 1, []string{"teacher-1"}, []string{"class-1"}),
		subjectRequirement("req-2", "physics", 5, 1, []string{"teacher-1"}, []string{"class-2"}),
		subjectRequirement("req-3", "math", 5, 1, []string{"teacher-2"}, []string{"class-1"}),
	}

	result, err := Solve(snap)
	require.NoError(t, err)
	assert.Empty(t, result.Conflicts)

	type cell struct {
		owner    string
		day      models.Day
		periodID string
	}
	seen := make(map[cell]bool)
	for _, placement := range result.Placements {
		for _, periodID := range placement.PeriodIDs {
			for _, teacherID := range placement.TeacherIDs {
				key := cell{"t:" + teacherID, placement.Day, periodID}
				assert.False(t, seen[key], "teacher double booked at %v", key)
				seen[key] = true
			}
			for _, classID := range placement.ClassIDs {
				key := cell{"c:" + classID, placement.Day, periodID}
				assert.False(t, seen[key], "class double booked at %v", key)
				seen[key] = true
			}
			if placement.RoomID != nil {
				key := cell{"r:" + *placement.RoomID, placement.Day, periodID}
				assert.False(t, seen[key], "room double booked at %v", key)
				seen[key] = true
			}
		}
	}
}

func TestSolveDeterministic(t *testing.T) {
	build := func() Snapshot {
		snap := baseSnapshot()
		snap.Requirements = []models.LessonRequirement{
			subjectRequirement("req-1", "math", 4, 1, []string{"teacher-1"}, []string{"class-1"}),
			subjectRequirement("req-2", "physics", 3, 2, []string{"teacher-2"}, []string{"class-1"}),
			subjectRequirement("req-3", "math", 4, 1, []string{"teacher-1"}, []string{"class-2"}),
			{
				ID:         "meet-1",
				Kind:       models.KindMeeting,
				Title:      strPtr("Staff briefing"),
				Count:      1,
				Length:     1,
				TeacherIDs: []string{"teacher-1", "teacher-2"},
			},
		}
		snap.Availability[CellKey{Owner: models.OwnerTeacher, OwnerID: "teacher-1", Day: models.Monday, PeriodID: "p1"}] = models.StateUnavailable
		snap.Availability[CellKey{Owner: models.OwnerClass, OwnerID: "class-2", Day: models.Friday, PeriodID: "p6"}] = models.StateConditional
		return snap
	}

	first, err := Solve(build())
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Solve(build())
		require.NoError(t, err)
		assert.True(t, reflect.DeepEqual(first, again), "run %d diverged", i)
	}
}

func TestSolveExistingSlotsBlockAndCountTowardQuota(t *testing.T) {
	snap := baseSnapshot()
	snap.ActiveDays = []models.Day{models.Monday}
	snap.DefaultDays = []models.Day{models.Monday}
	snap.Requirements = []models.LessonRequirement{
		subjectRequirement("req-1", "math", 3, 1, []string{"teacher-1"}, []string{"class-1"}),
	}
	roomID := "room-1"
	snap.ExistingSlots = []Placement{
		{
			RequirementID: "req-1",
			Day:           models.Monday,
			PeriodIDs:     []string{"p1"},
			RoomID:        &roomID,
			TeacherIDs:    []string{"teacher-1"},
			ClassIDs:      []string{"class-1"},
		},
	}

	result, err := Solve(snap)
	require.NoError(t, err)
	// One occurrence already exists, so only two more are placed and p1 stays taken.
	require.Len(t, result.Placements, 2)
	assert.Empty(t, result.Conflicts)
	for _, placement := range result.Placements {
		assert.NotContains(t, placement.PeriodIDs, "p1")
	}
}

func TestSolveValidationIssuesStableOrder(t *testing.T) {
	build := func() Snapshot {
		snap := baseSnapshot()
		snap.Availability[CellKey{Owner: models.OwnerTeacher, OwnerID: "teacher-1", Day: models.Monday, PeriodID: "ghost-b"}] = models.StateAvailable
		snap.Availability[CellKey{Owner: models.OwnerClass, OwnerID: "class-1", Day: models.Friday, PeriodID: "ghost-a"}] = models.StateAvailable
		snap.Availability[CellKey{Owner: models.OwnerTeacher, OwnerID: "teacher-1", Day: models.Friday, PeriodID: "ghost-c"}] = models.StateAvailable
		return snap
	}

	_, err := Solve(build())
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, []string{
		"availability entry references unknown period ghost-a",
		"availability entry references unknown period ghost-c",
		"availability entry references unknown period ghost-b",
	}, vErr.Issues)

	for i := 0; i < 5; i++ {
		_, err := Solve(build())
		var again *ValidationError
		require.ErrorAs(t, err, &again)
		assert.Equal(t, vErr.Issues, again.Issues, "run %d diverged", i)
	}
}

func TestSolveValidationErrors(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Snapshot)
		message string
	}{
		{
			name: "meeting without title",
			mutate: func(snap *Snapshot) {
				snap.Requirements = []models.LessonRequirement{{
					ID: "meet-1", Kind: models.KindMeeting, Count: 1, Length: 1, TeacherIDs: []string{"teacher-1"},
				}}
			},
			message: "meeting requirement without title",
		},
		{
			name: "subject without classes",
			mutate: func(snap *Snapshot) {
				snap.Requirements = []models.LessonRequirement{{
					ID: "req-1", Kind: models.KindSubject, SubjectID: strPtr("math"), Count: 1, Length: 1, TeacherIDs: []string{"teacher-1"},
				}}
			},
			message: "subject requirement without classes",
		},
		{
			name: "requirement without teachers",
			mutate: func(snap *Snapshot) {
				snap.Requirements = []models.LessonRequirement{subjectRequirement("req-1", "math", 1, 1, nil, []string{"class-1"})}
			},
			message: "no teachers attached",
		},
		{
			name: "unsupported block length",
			mutate: func(snap *Snapshot) {
				snap.Requirements = []models.LessonRequirement{subjectRequirement("req-1", "math", 1, 4, []string{"teacher-1"}, []string{"class-1"})}
			},
			message: "unsupported block length",
		},
		{
			name: "unknown class",
			mutate: func(snap *Snapshot) {
				snap.Requirements = []models.LessonRequirement{subjectRequirement("req-1", "math", 1, 1, []string{"teacher-1"}, []string{"ghost"})}
			},
			message: "unknown class",
		},
		{
			name: "availability references unknown period",
			mutate: func(snap *Snapshot) {
				snap.Availability[CellKey{Owner: models.OwnerTeacher, OwnerID: "teacher-1", Day: models.Monday, PeriodID: "ghost"}] = models.StateAvailable
			},
			message: "unknown period",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := baseSnapshot()
			tc.mutate(&snap)
			_, err := Solve(snap)
			require.Error(t, err)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}
