package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/solver"
	"github.com/noah-isme/timetable-api/pkg/config"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type periodLister interface {
	List(ctx context.Context) ([]models.Period, error)
}

type roomLister interface {
	List(ctx context.Context) ([]models.Room, error)
}

type classLister interface {
	List(ctx context.Context) ([]models.Class, error)
}

type subjectLister interface {
	List(ctx context.Context) ([]models.Subject, error)
}

type teacherLister interface {
	List(ctx context.Context) ([]models.Teacher, error)
}

type calendarLister interface {
	ListAll(ctx context.Context) ([]models.GradeCalendarEntry, error)
}

type requirementLister interface {
	List(ctx context.Context) ([]models.LessonRequirement, error)
}

type availabilityLister interface {
	ListAll(ctx context.Context) ([]models.AvailabilityEntry, error)
}

type slotStore interface {
	ListAll(ctx context.Context) ([]models.TimetableSlot, error)
	DeleteGenerated(ctx context.Context, exec sqlx.ExtContext) error
	BulkCreate(ctx context.Context, exec sqlx.ExtContext, slots []models.TimetableSlot) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type cacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

type generationObserver interface {
	ObserveGenerationRun(outcome string, duration time.Duration, placed, conflicts int)
}

// TimetableService runs the auto-generation engine as one exclusive,
// transactional operation over the timetable's slot set.
type TimetableService struct {
	periods      periodLister
	rooms        roomLister
	classes      classLister
	subjects     subjectLister
	teachers     teacherLister
	calendars    calendarLister
	requirements requirementLister
	availability availabilityLister
	slots        slotStore
	tx           txProvider
	cache        cacheInvalidator
	metrics      generationObserver
	validator    *validator.Validate
	logger       *zap.Logger
	cfg          config.SchedulerConfig

	// runMu serialises generation runs for this school instance; manual slot
	// edits go through the same service and are blocked for the run's duration.
	runMu sync.Mutex
}

// NewTimetableService wires the generation dependencies.
func NewTimetableService(
	periods periodLister,
	rooms roomLister,
	classes classLister,
	subjects subjectLister,
	teachers teacherLister,
	calendars calendarLister,
	requirements requirementLister,
	availability availabilityLister,
	slots slotStore,
	tx txProvider,
	cache cacheInvalidator,
	metrics generationObserver,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg config.SchedulerConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{
		periods:      periods,
		rooms:        rooms,
		classes:      classes,
		subjects:     subjects,
		teachers:     teachers,
		calendars:    calendars,
		requirements: requirements,
		availability: availability,
		slots:        slots,
		tx:           tx,
		cache:        cache,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
		cfg:          cfg,
	}
}

// Generate executes one deterministic generation run. Conflicts are part of a
// successful result; only invalid input or persistence failures return errors.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation payload")
	}

	activeDays, err := s.resolveActiveDays(req.ActiveDays)
	if err != nil {
		return nil, err
	}

	if !s.runMu.TryLock() {
		return nil, appErrors.Clone(appErrors.ErrLocked, "")
	}
	defer s.runMu.Unlock()

	start := time.Now()

	snap, err := s.loadSnapshot(ctx, activeDays, req.ClearExisting)
	if err != nil {
		s.observe("aborted", start, 0, 0)
		return nil, err
	}

	result, err := solver.Solve(*snap)
	if err != nil {
		s.observe("aborted", start, 0, 0)
		var vErr *solver.ValidationError
		if errors.As(err, &vErr) {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, vErr.Error())
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "generation failed")
	}

	if err := s.commit(ctx, req.ClearExisting, result.Placements); err != nil {
		s.observe("aborted", start, 0, 0)
		return nil, err
	}

	s.observe("committed", start, len(result.Placements), len(result.Conflicts))
	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, "timetable:*"); err != nil {
			s.logger.Warn("timetable cache invalidation failed", zap.Error(err))
		}
	}

	resp := s.buildResponse(snap, result)
	s.logger.Info("timetable generation completed",
		zap.Int("placed", resp.TotalPlaced),
		zap.Int("conflicts", resp.TotalConflicts),
		zap.Bool("clear_existing", req.ClearExisting),
		zap.Duration("duration", time.Since(start)),
	)
	return resp, nil
}

func (s *TimetableService) observe(outcome string, start time.Time, placed, conflicts int) {
	if s.metrics != nil {
		s.metrics.ObserveGenerationRun(outcome, time.Since(start), placed, conflicts)
	}
}

func (s *TimetableService) resolveActiveDays(raw []string) ([]models.Day, error) {
	if len(raw) == 0 {
		raw = s.cfg.DefaultActiveDays
	}
	if len(raw) == 0 {
		raw = []string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY"}
	}
	days := make([]models.Day, 0, len(raw))
	for _, name := range raw {
		day, ok := models.ParseDay(name)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown day "+name)
		}
		days = append(days, day)
	}
	return models.SortDays(days), nil
}

// loadSnapshot reads every solver input exactly once; availability edits made
// while the run is in flight are not visible to it.
func (s *TimetableService) loadSnapshot(ctx context.Context, activeDays []models.Day, clearExisting bool) (*solver.Snapshot, error) {
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
	subjects, err := s.subjects.List(ctx)
	if err != nil {
		return nil, wrap(err, "failed to load subjects")
	}
	teachers, err := s.teachers.List(ctx)
	if err != nil {
		return nil, wrap(err, "failed to load teachers")
	}
	calendars, err := s.calendars.ListAll(ctx)
	if err != nil {
		return nil, wrap(err, "failed to load grade calendars")
	}
	requirements, err := s.requirements.List(ctx)
	if err != nil {
		return nil, wrap(err, "failed to load lesson requirements")
	}
	if len(requirements) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no lesson requirements configured")
	}
	entries, err := s.availability.ListAll(ctx)
	if err != nil {
		return nil, wrap(err, "failed to load availability")
	}
	existingSlots, err := s.slots.ListAll(ctx)
	if err != nil {
		return nil, wrap(err, "failed to load existing slots")
	}

	classMap := make(map[string]models.Class, len(classes))
	for _, class := range classes {
		classMap[class.ID] = class
	}
	subjectMap := make(map[string]models.Subject, len(subjects))
	for _, subject := range subjects {
		subjectMap[subject.ID] = subject
	}
	teacherMap := make(map[string]models.Teacher, len(teachers))
	for _, teacher := range teachers {
		teacherMap[teacher.ID] = teacher
	}

	gradeDays := make(map[string][]models.Day)
	for _, entry := range calendars {
		gradeDays[entry.Grade] = append(gradeDays[entry.Grade], entry.DayOfWeek)
	}
	for grade := range gradeDays {
		gradeDays[grade] = models.SortDays(gradeDays[grade])
	}

	availability := make(map[solver.CellKey]models.AvailabilityState, len(entries))
	for _, entry := range entries {
		availability[solver.CellKey{
			Owner:    entry.OwnerType,
			OwnerID:  entry.OwnerID,
			Day:      entry.DayOfWeek,
			PeriodID: entry.PeriodID,
		}] = entry.State
	}

	defaultDays, err := s.resolveActiveDays(nil)
	if err != nil {
		return nil, err
	}

	var surviving []solver.Placement
	for _, slot := range existingSlots {
		if clearExisting && slot.Generated {
			continue
		}
		surviving = append(surviving, solver.Placement{
			RequirementID: slot.LessonRequirementID,
			Day:           slot.DayOfWeek,
			PeriodIDs:     slot.PeriodIDs,
			RoomID:        slot.RoomID,
			TeacherIDs:    slot.TeacherIDs,
			ClassIDs:      slot.ClassIDs,
		})
	}

	return &solver.Snapshot{
		Periods:       periods,
		Rooms:         rooms,
		Classes:       classMap,
		Subjects:      subjectMap,
		Teachers:      teacherMap,
		GradeDays:     gradeDays,
		DefaultDays:   defaultDays,
		ActiveDays:    activeDays,
		Requirements:  requirements,
		Availability:  availability,
		ExistingSlots: surviving,
	}, nil
}

// commit writes the run's slot set inside one transaction: either every
// placement lands or the previous schedule stays untouched.
func (s *TimetableService) commit(ctx context.Context, clearExisting bool, placements []solver.Placement) error {
	if s.tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin generation transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if clearExisting {
		if err := s.slots.DeleteGenerated(ctx, tx); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear generated slots")
		}
	}

	slots := make([]models.TimetableSlot, 0, len(placements))
	for _, placement := range placements {
		slots = append(slots, models.TimetableSlot{
			DayOfWeek:           placement.Day,
			LessonRequirementID: placement.RequirementID,
			RoomID:              placement.RoomID,
			Generated:           true,
			PeriodIDs:           placement.PeriodIDs,
			TeacherIDs:          placement.TeacherIDs,
			ClassIDs:            placement.ClassIDs,
		})
	}
	if err := s.slots.BulkCreate(ctx, tx, slots); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist generated slots")
	}

	if err := tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit generation transaction")
	}
	committed = true
	return nil
}

func (s *TimetableService) buildResponse(snap *solver.Snapshot, result *solver.Result) *dto.GenerateTimetableResponse {
	requirementMap := make(map[string]models.LessonRequirement, len(snap.Requirements))
	for _, requirement := range snap.Requirements {
		requirementMap[requirement.ID] = requirement
	}

	steps := make([]dto.GenerationStep, 0, len(result.Steps))
	for _, message := range result.Steps {
		steps = append(steps, dto.GenerationStep{Message: message})
	}

	conflicts := make([]dto.GenerationConflict, 0, len(result.Conflicts))
	for _, conflict := range result.Conflicts {
		requirement := requirementMap[conflict.RequirementID]
		conflicts = append(conflicts, dto.GenerationConflict{
			Lesson: dto.ConflictLesson{
				Subject: requirementSubjectLabel(requirement, snap.Subjects),
				Class:   requirementClassLabel(requirement, snap.Classes),
			},
			Placed: conflict.Placed,
			Needed: conflict.Needed,
		})
	}

	return &dto.GenerateTimetableResponse{
		Success:        true,
		TotalPlaced:    len(result.Placements),
		TotalConflicts: len(conflicts),
		Summary:        dto.GenerationSummary{Lessons: len(snap.Requirements)},
		Steps:          steps,
		Conflicts:      conflicts,
	}
}

func requirementSubjectLabel(requirement models.LessonRequirement, subjects map[string]models.Subject) string {
	if requirement.IsMeeting() {
		if requirement.Title != nil {
			return *requirement.Title
		}
		return "meeting"
	}
	if requirement.SubjectID == nil {
		return ""
	}
	if subject, ok := subjects[*requirement.SubjectID]; ok {
		return subject.Name
	}
	return *requirement.SubjectID
}

func requirementClassLabel(requirement models.LessonRequirement, classes map[string]models.Class) string {
	names := make([]string, 0, len(requirement.ClassIDs))
	for _, classID := range requirement.ClassIDs {
		if class, ok := classes[classID]; ok {
			names = append(names, class.Name)
		} else {
			names = append(names, classID)
		}
	}
	return strings.Join(names, ", ")
}
