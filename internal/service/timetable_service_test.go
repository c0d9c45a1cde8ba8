package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/pkg/config"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type stubPeriods struct {
	items []models.Period
	err   error
}

func (s *stubPeriods) List(_ context.Context) ([]models.Period, error) { return s.items, s.err }

func (s *stubPeriods) FindByID(_ context.Context, id string) (*models.Period, error) {
	for i := range s.items {
		if s.items[i].ID == id {
			return &s.items[i], nil
		}
	}
	return nil, errNoRows
}

func (s *stubPeriods) Create(_ context.Context, period *models.Period) error {
	s.items = append(s.items, *period)
	return nil
}

func (s *stubPeriods) Update(_ context.Context, period *models.Period) error {
	for i := range s.items {
		if s.items[i].ID == period.ID {
			s.items[i] = *period
			return nil
		}
	}
	return errNoRows
}

func (s *stubPeriods) Delete(_ context.Context, id string) error {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return errNoRows
}

type stubRooms struct {
	items []models.Room
	err   error
}

func (s *stubRooms) List(_ context.Context) ([]models.Room, error) { return s.items, s.err }

type stubClasses struct {
	items []models.Class
	err   error
}

func (s *stubClasses) List(_ context.Context) ([]models.Class, error) { return s.items, s.err }

func (s *stubClasses) FindByID(_ context.Context, id string) (*models.Class, error) {
	for i := range s.items {
		if s.items[i].ID == id {
			return &s.items[i], nil
		}
	}
	return nil, errNoRows
}

type stubSubjects struct {
	items []models.Subject
	err   error
}

func (s *stubSubjects) List(_ context.Context) ([]models.Subject, error) { return s.items, s.err }

func (s *stubSubjects) FindByID(_ context.Context, id string) (*models.Subject, error) {
	for i := range s.items {
		if s.items[i].ID == id {
			return &s.items[i], nil
		}
	}
	return nil, errNoRows
}

type stubTeachers struct {
	items []models.Teacher
	err   error
}

func (s *stubTeachers) List(_ context.Context) ([]models.Teacher, error) { return s.items, s.err }

func (s *stubTeachers) FindByID(_ context.Context, id string) (*models.Teacher, error) {
	for i := range s.items {
		if s.items[i].ID == id {
			return &s.items[i], nil
		}
	}
	return nil, errNoRows
}

type stubCalendars struct {
	items []models.GradeCalendarEntry
	err   error
}

func (s *stubCalendars) ListAll(_ context.Context) ([]models.GradeCalendarEntry, error) {
	return s.items, s.err
}

type stubRequirements struct {
	items []models.LessonRequirement
	err   error
}

func (s *stubRequirements) List(_ context.Context) ([]models.LessonRequirement, error) {
	return s.items, s.err
}

type stubAvailability struct {
	items []models.AvailabilityEntry
	err   error
}

func (s *stubAvailability) ListAll(_ context.Context) ([]models.AvailabilityEntry, error) {
	return s.items, s.err
}

type mockSlotStore struct {
	existing  []models.TimetableSlot
	deleted   bool
	created   []models.TimetableSlot
	createErr error
}

func (m *mockSlotStore) ListAll(_ context.Context) ([]models.TimetableSlot, error) {
	return m.existing, nil
}

func (m *mockSlotStore) ListByTeacher(_ context.Context, teacherID string) ([]models.TimetableSlot, error) {
	var matched []models.TimetableSlot
	for _, slot := range m.existing {
		for _, id := range slot.TeacherIDs {
			if id == teacherID {
				matched = append(matched, slot)
				break
			}
		}
	}
	return matched, nil
}

func (m *mockSlotStore) ListByClass(_ context.Context, classID string) ([]models.TimetableSlot, error) {
	var matched []models.TimetableSlot
	for _, slot := range m.existing {
		for _, id := range slot.ClassIDs {
			if id == classID {
				matched = append(matched, slot)
				break
			}
		}
	}
	return matched, nil
}

func (m *mockSlotStore) DeleteGenerated(_ context.Context, _ sqlx.ExtContext) error {
	m.deleted = true
	return nil
}

func (m *mockSlotStore) BulkCreate(_ context.Context, _ sqlx.ExtContext, slots []models.TimetableSlot) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = slots
	return nil
}

type stubInvalidator struct {
	patterns []string
}

func (s *stubInvalidator) DeleteByPattern(_ context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return nil
}

type runRecorder struct {
	outcomes  []string
	placed    int
	conflicts int
}

func (r *runRecorder) ObserveGenerationRun(outcome string, _ time.Duration, placed, conflicts int) {
	r.outcomes = append(r.outcomes, outcome)
	r.placed += placed
	r.conflicts += conflicts
}

var errNoRows = sql.ErrNoRows

type generateFixture struct {
	periods      *stubPeriods
	rooms        *stubRooms
	classes      *stubClasses
	subjects     *stubSubjects
	teachers     *stubTeachers
	calendars    *stubCalendars
	requirements *stubRequirements
	availability *stubAvailability
	slots        *mockSlotStore
	cache        *stubInvalidator
	metrics      *runRecorder
	db           *sqlx.DB
	mock         sqlmock.Sqlmock
}

func newGenerateFixture(t *testing.T) *generateFixture {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	subjectID := "subj-math"
	return &generateFixture{
		periods: &stubPeriods{items: []models.Period{
			{ID: "p1", Number: 1, StartTime: "07:30", EndTime: "08:15"},
			{ID: "p2", Number: 2, StartTime: "08:15", EndTime: "09:00"},
			{ID: "p3", Number: 3, StartTime: "09:00", EndTime: "09:45"},
		}},
		rooms: &stubRooms{items: []models.Room{
			{ID: "room-1", Name: "R101", Type: "GENERAL", Capacity: 32},
		}},
		classes: &stubClasses{items: []models.Class{
			{ID: "class-a", Name: "10A", Grade: "10", StudentCount: 28},
		}},
		subjects: &stubSubjects{items: []models.Subject{
			{ID: subjectID, Code: "MATH", Name: "Mathematics"},
		}},
		teachers: &stubTeachers{items: []models.Teacher{
			{ID: "teacher-1", FullName: "Ana Kova"},
		}},
		calendars: &stubCalendars{},
		requirements: &stubRequirements{items: []models.LessonRequirement{
			{
				ID:         "req-1",
				Kind:       models.KindSubject,
				SubjectID:  &subjectID,
				Count:      1,
				Length:     1,
				TeacherIDs: []string{"teacher-1"},
				ClassIDs:   []string{"class-a"},
			},
		}},
		availability: &stubAvailability{},
		slots:        &mockSlotStore{},
		cache:        &stubInvalidator{},
		metrics:      &runRecorder{},
		db:           sqlx.NewDb(mockDB, "sqlmock"),
		mock:         mock,
	}
}

func (f *generateFixture) service() *TimetableService {
	cfg := config.SchedulerConfig{
		DefaultActiveDays:  []string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY"},
		DefaultWeeklyCount: 2,
		MaxBlockLength:     3,
	}
	return NewTimetableService(
		f.periods, f.rooms, f.classes, f.subjects, f.teachers,
		f.calendars, f.requirements, f.availability, f.slots,
		f.db, f.cache, f.metrics, nil, zap.NewNop(), cfg,
	)
}

func TestTimetableServiceGenerateCommitsPlacements(t *testing.T) {
	f := newGenerateFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	svc := f.service()
	resp, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{ClearExisting: true})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.TotalPlaced)
	assert.Equal(t, 0, resp.TotalConflicts)
	assert.Equal(t, 1, resp.Summary.Lessons)
	assert.NotEmpty(t, resp.Steps)

	assert.True(t, f.slots.deleted)
	require.Len(t, f.slots.created, 1)
	assert.True(t, f.slots.created[0].Generated)
	assert.Equal(t, "req-1", f.slots.created[0].LessonRequirementID)

	assert.Equal(t, []string{"timetable:*"}, f.cache.patterns)
	assert.Equal(t, []string{"committed"}, f.metrics.outcomes)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestTimetableServiceGenerateRejectsConcurrentRuns(t *testing.T) {
	f := newGenerateFixture(t)
	svc := f.service()

	svc.runMu.Lock()
	defer svc.runMu.Unlock()

	_, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrLocked.Code, appErr.Code)
}

func TestTimetableServiceGenerateRollsBackOnPersistFailure(t *testing.T) {
	f := newGenerateFixture(t)
	f.slots.createErr = errors.New("unique constraint violated")
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	svc := f.service()
	_, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{})
	require.Error(t, err)

	assert.Equal(t, []string{"aborted"}, f.metrics.outcomes)
	assert.Empty(t, f.cache.patterns)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestTimetableServiceGenerateRejectsUnknownDay(t *testing.T) {
	f := newGenerateFixture(t)
	svc := f.service()

	_, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{ActiveDays: []string{"FUNDAY"}})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestTimetableServiceGenerateManualSlotsSatisfyQuota(t *testing.T) {
	f := newGenerateFixture(t)
	f.slots.existing = []models.TimetableSlot{
		{
			ID:                  "slot-manual",
			DayOfWeek:           models.Monday,
			LessonRequirementID: "req-1",
			Generated:           false,
			PeriodIDs:           []string{"p1"},
			TeacherIDs:          []string{"teacher-1"},
			ClassIDs:            []string{"class-a"},
		},
	}
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	svc := f.service()
	resp, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{ClearExisting: true})
	require.NoError(t, err)

	assert.Equal(t, 0, resp.TotalPlaced)
	assert.Equal(t, 0, resp.TotalConflicts)
	assert.Empty(t, f.slots.created)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestTimetableServiceGenerateReportsShortfallAsConflict(t *testing.T) {
	f := newGenerateFixture(t)
	f.requirements.items[0].Count = 2
	// every day except Monday period 1 is blocked for the teacher
	for _, day := range models.WeekDays {
		for _, period := range f.periods.items {
			if day == models.Monday && period.ID == "p1" {
				continue
			}
			f.availability.items = append(f.availability.items, models.AvailabilityEntry{
				OwnerType: models.OwnerTeacher,
				OwnerID:   "teacher-1",
				DayOfWeek: day,
				PeriodID:  period.ID,
				State:     models.StateUnavailable,
			})
		}
	}
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	svc := f.service()
	resp, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{ClearExisting: true})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.TotalPlaced)
	require.Len(t, resp.Conflicts, 1)
	assert.Equal(t, 2, resp.Conflicts[0].Needed)
	assert.Equal(t, 1, resp.Conflicts[0].Placed)
	assert.Equal(t, "Mathematics", resp.Conflicts[0].Lesson.Subject)
	assert.Equal(t, "10A", resp.Conflicts[0].Lesson.Class)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestTimetableServiceGenerateFailsWithoutRequirements(t *testing.T) {
	f := newGenerateFixture(t)
	f.requirements.items = nil

	svc := f.service()
	_, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
	assert.Equal(t, []string{"aborted"}, f.metrics.outcomes)
}
