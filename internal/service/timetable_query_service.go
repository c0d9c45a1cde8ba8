package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/export"
)

const publicTimetableCacheKey = "timetable:public"

type slotReader interface {
	ListAll(ctx context.Context) ([]models.TimetableSlot, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.TimetableSlot, error)
	ListByClass(ctx context.Context, classID string) ([]models.TimetableSlot, error)
}

type cacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// TimetableQueryService serves hydrated read-back views of the committed
// timetable. It never touches the solver.
type TimetableQueryService struct {
	slots        slotReader
	periods      periodLister
	rooms        roomLister
	classes      classLister
	subjects     subjectLister
	teachers     teacherLister
	requirements requirementLister
	cache        cacheStore
	cacheTTL     time.Duration
	logger       *zap.Logger
}

// NewTimetableQueryService wires the read-side dependencies.
func NewTimetableQueryService(
	slots slotReader,
	periods periodLister,
	rooms roomLister,
	classes classLister,
	subjects subjectLister,
	teachers teacherLister,
	requirements requirementLister,
	cache cacheStore,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *TimetableQueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableQueryService{
		slots:        slots,
		periods:      periods,
		rooms:        rooms,
		classes:      classes,
		subjects:     subjects,
		teachers:     teachers,
		requirements: requirements,
		cache:        cache,
		cacheTTL:     cacheTTL,
		logger:       logger,
	}
}

// All returns the full hydrated timetable ordered by day and first period.
func (s *TimetableQueryService) All(ctx context.Context) ([]models.HydratedSlot, error) {
	slots, err := s.slots.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return s.hydrate(ctx, slots)
}

// ForTeacher returns the hydrated slots a teacher appears in.
func (s *TimetableQueryService) ForTeacher(ctx context.Context, teacherID string) ([]models.HydratedSlot, error) {
	slots, err := s.slots.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher timetable")
	}
	return s.hydrate(ctx, slots)
}

// ForClass returns the hydrated slots a class appears in.
func (s *TimetableQueryService) ForClass(ctx context.Context, classID string) ([]models.HydratedSlot, error) {
	slots, err := s.slots.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class timetable")
	}
	return s.hydrate(ctx, slots)
}

// Public returns the full timetable through a short-lived cache. A stale entry
// can only survive until the generation service invalidates the prefix.
func (s *TimetableQueryService) Public(ctx context.Context) ([]models.HydratedSlot, error) {
	if s.cache != nil {
		var cached []models.HydratedSlot
		err := s.cache.Get(ctx, publicTimetableCacheKey, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("public timetable cache read failed", zap.Error(err))
		}
	}

	hydrated, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, publicTimetableCacheKey, hydrated, s.cacheTTL); err != nil {
			s.logger.Warn("public timetable cache write failed", zap.Error(err))
		}
	}
	return hydrated, nil
}

// Dataset flattens the full timetable for the CSV and PDF exporters.
func (s *TimetableQueryService) Dataset(ctx context.Context) (*export.Dataset, error) {
	hydrated, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(hydrated))
	for _, slot := range hydrated {
		lesson := ""
		if slot.SubjectName != nil {
			lesson = *slot.SubjectName
		} else if slot.Title != nil {
			lesson = *slot.Title
		}
		room := ""
		if slot.RoomName != nil {
			room = *slot.RoomName
		}
		rows = append(rows, []string{
			string(slot.DayOfWeek),
			formatPeriodNumbers(slot.PeriodNumbers),
			fmt.Sprintf("%s-%s", slot.StartTime, slot.EndTime),
			lesson,
			strings.Join(slot.ClassNames, ", "),
			strings.Join(slot.TeacherNames, ", "),
			room,
		})
	}

	return &export.Dataset{
		Title:   "Weekly Timetable",
		Headers: []string{"Day", "Periods", "Time", "Lesson", "Classes", "Teachers", "Room"},
		Rows:    rows,
	}, nil
}

func formatPeriodNumbers(numbers []int) string {
	if len(numbers) == 0 {
		return ""
	}
	if len(numbers) == 1 {
		return fmt.Sprintf("%d", numbers[0])
	}
	return fmt.Sprintf("%d-%d", numbers[0], numbers[len(numbers)-1])
}

type hydrationContext struct {
	periods      map[string]models.Period
	rooms        map[string]models.Room
	classes      map[string]models.Class
	teachers     map[string]models.Teacher
	subjects     map[string]models.Subject
	requirements map[string]models.LessonRequirement
}

func (s *TimetableQueryService) loadLookups(ctx context.Context) (*hydrationContext, error) {
	wrap := func(err error, msg string) error {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, msg)
	}

	periods, err := s.periods.List(ctx)
	if err != nil {
		return nil, wrap(err, "failed to load periods")
	}
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, wrap(err, "failed to load rooms")
	}
	classes, err := s.classes.List(ctx)
	if err != nil {
		return nil, wrap(err, "failed to load classes")
	}
	teachers, err := s.teachers.List(ctx)
	if err != nil {
		return nil, wrap(err, "failed to load teachers")
	}
	subjects, err := s.subjects.List(ctx)
	if err != nil {
		return nil, wrap(err, "failed to load subjects")
	}
	requirements, err := s.requirements.List(ctx)
	if err != nil {
		return nil, wrap(err, "failed to load lesson requirements")
	}

	lookups := &hydrationContext{
		periods:      make(map[string]models.Period, len(periods)),
		rooms:        make(map[string]models.Room, len(rooms)),
		classes:      make(map[string]models.Class, len(classes)),
		teachers:     make(map[string]models.Teacher, len(teachers)),
		subjects:     make(map[string]models.Subject, len(subjects)),
		requirements: make(map[string]models.LessonRequirement, len(requirements)),
	}
	for _, period := range periods {
		lookups.periods[period.ID] = period
	}
	for _, room := range rooms {
		lookups.rooms[room.ID] = room
	}
	for _, class := range classes {
		lookups.classes[class.ID] = class
	}
	for _, teacher := range teachers {
		lookups.teachers[teacher.ID] = teacher
	}
	for _, subject := range subjects {
		lookups.subjects[subject.ID] = subject
	}
	for _, requirement := range requirements {
		lookups.requirements[requirement.ID] = requirement
	}
	return lookups, nil
}

func (s *TimetableQueryService) hydrate(ctx context.Context, slots []models.TimetableSlot) ([]models.HydratedSlot, error) {
	lookups, err := s.loadLookups(ctx)
	if err != nil {
		return nil, err
	}

	hydrated := make([]models.HydratedSlot, 0, len(slots))
	for _, slot := range slots {
		view := models.HydratedSlot{
			ID:        slot.ID,
			DayOfWeek: slot.DayOfWeek,
		}

		for _, periodID := range slot.PeriodIDs {
			if period, ok := lookups.periods[periodID]; ok {
				view.PeriodNumbers = append(view.PeriodNumbers, period.Number)
				view.PeriodLabels = append(view.PeriodLabels, period.Label)
			}
		}
		if first, ok := lookups.periods[firstID(slot.PeriodIDs)]; ok {
			view.StartTime = first.StartTime
		}
		if last, ok := lookups.periods[lastID(slot.PeriodIDs)]; ok {
			view.EndTime = last.EndTime
		}

		if requirement, ok := lookups.requirements[slot.LessonRequirementID]; ok {
			if requirement.IsMeeting() {
				view.Title = requirement.Title
			} else if requirement.SubjectID != nil {
				if subject, ok := lookups.subjects[*requirement.SubjectID]; ok {
					name := subject.Name
					view.SubjectName = &name
				}
			}
		}

		for _, teacherID := range slot.TeacherIDs {
			if teacher, ok := lookups.teachers[teacherID]; ok {
				view.TeacherNames = append(view.TeacherNames, teacher.FullName)
			}
		}
		for _, classID := range slot.ClassIDs {
			if class, ok := lookups.classes[classID]; ok {
				view.ClassNames = append(view.ClassNames, class.Name)
			}
		}
		if slot.RoomID != nil {
			if room, ok := lookups.rooms[*slot.RoomID]; ok {
				name := room.Name
				view.RoomName = &name
			}
		}

		hydrated = append(hydrated, view)
	}

	sort.SliceStable(hydrated, func(i, j int) bool {
		if hydrated[i].DayOfWeek != hydrated[j].DayOfWeek {
			return hydrated[i].DayOfWeek.Order() < hydrated[j].DayOfWeek.Order()
		}
		return firstNumber(hydrated[i].PeriodNumbers) < firstNumber(hydrated[j].PeriodNumbers)
	})
	return hydrated, nil
}

func firstID(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

func lastID(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return ids[len(ids)-1]
}

func firstNumber(numbers []int) int {
	if len(numbers) == 0 {
		return 0
	}
	return numbers[0]
}
