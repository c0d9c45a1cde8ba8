package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type periodStore interface {
	List(ctx context.Context) ([]models.Period, error)
	FindByID(ctx context.Context, id string) (*models.Period, error)
	Create(ctx context.Context, period *models.Period) error
	Update(ctx context.Context, period *models.Period) error
	Delete(ctx context.Context, id string) error
}

type roomStore interface {
	List(ctx context.Context) ([]models.Room, error)
	FindByID(ctx context.Context, id string) (*models.Room, error)
	Create(ctx context.Context, room *models.Room) error
	Update(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, id string) error
}

type calendarStore interface {
	ListAll(ctx context.Context) ([]models.GradeCalendarEntry, error)
	ListByGrade(ctx context.Context, grade string) ([]models.GradeCalendarEntry, error)
	Replace(ctx context.Context, grade string, days []models.Day) error
}

// TopologyService manages the scheduling grid: the daily period ladder, the
// room inventory and per-grade active weekdays.
type TopologyService struct {
	periods   periodStore
	rooms     roomStore
	calendars calendarStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTopologyService wires the grid dependencies.
func NewTopologyService(periods periodStore, rooms roomStore, calendars calendarStore, validate *validator.Validate, logger *zap.Logger) *TopologyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TopologyService{
		periods:   periods,
		rooms:     rooms,
		calendars: calendars,
		validator: validate,
		logger:    logger,
	}
}

// ListPeriods returns the daily grid ordered by period number.
func (s *TopologyService) ListPeriods(ctx context.Context) ([]models.Period, error) {
	periods, err := s.periods.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load periods")
	}
	return periods, nil
}

// CreatePeriod adds one period to the grid. Period numbers must stay unique;
// the solver relies on them to detect contiguous runs.
func (s *TopologyService) CreatePeriod(ctx context.Context, req dto.PeriodRequest) (*models.Period, error) {
	if err := s.validatePeriod(ctx, req, ""); err != nil {
		return nil, err
	}
	period := &models.Period{
		Number:    req.Number,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		IsBreak:   req.IsBreak,
		Label:     req.Label,
	}
	if err := s.periods.Create(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create period")
	}
	return period, nil
}

// UpdatePeriod replaces one period's definition.
func (s *TopologyService) UpdatePeriod(ctx context.Context, id string, req dto.PeriodRequest) (*models.Period, error) {
	if _, err := s.periods.FindByID(ctx, id); err != nil {
		return nil, mapLookupError(err, "period not found", "failed to load period")
	}
	if err := s.validatePeriod(ctx, req, id); err != nil {
		return nil, err
	}
	period := &models.Period{
		ID:        id,
		Number:    req.Number,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		IsBreak:   req.IsBreak,
		Label:     req.Label,
	}
	if err := s.periods.Update(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update period")
	}
	return period, nil
}

// DeletePeriod removes a period from the grid.
func (s *TopologyService) DeletePeriod(ctx context.Context, id string) error {
	if err := s.periods.Delete(ctx, id); err != nil {
		return mapLookupError(err, "period not found", "failed to delete period")
	}
	return nil
}

// ListRooms returns the room inventory.
func (s *TopologyService) ListRooms(ctx context.Context) ([]models.Room, error) {
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	return rooms, nil
}

// CreateRoom adds a room to the inventory.
func (s *TopologyService) CreateRoom(ctx context.Context, req dto.RoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	room := &models.Room{
		Name:     req.Name,
		Type:     req.Type,
		Capacity: req.Capacity,
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create room")
	}
	return room, nil
}

// UpdateRoom replaces a room's definition.
func (s *TopologyService) UpdateRoom(ctx context.Context, id string, req dto.RoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	if _, err := s.rooms.FindByID(ctx, id); err != nil {
		return nil, mapLookupError(err, "room not found", "failed to load room")
	}
	room := &models.Room{
		ID:       id,
		Name:     req.Name,
		Type:     req.Type,
		Capacity: req.Capacity,
	}
	if err := s.rooms.Update(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update room")
	}
	return room, nil
}

// DeleteRoom removes a room from the inventory.
func (s *TopologyService) DeleteRoom(ctx context.Context, id string) error {
	if err := s.rooms.Delete(ctx, id); err != nil {
		return mapLookupError(err, "room not found", "failed to delete room")
	}
	return nil
}

// GradeCalendars returns active weekdays grouped per grade.
func (s *TopologyService) GradeCalendars(ctx context.Context) (map[string][]models.Day, error) {
	entries, err := s.calendars.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade calendars")
	}
	grouped := make(map[string][]models.Day)
	for _, entry := range entries {
		grouped[entry.Grade] = append(grouped[entry.Grade], entry.DayOfWeek)
	}
	for grade := range grouped {
		grouped[grade] = models.SortDays(grouped[grade])
	}
	return grouped, nil
}

// ReplaceGradeCalendar swaps one grade's active weekday set.
func (s *TopologyService) ReplaceGradeCalendar(ctx context.Context, grade string, req dto.GradeCalendarRequest) ([]models.Day, error) {
	if grade == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "grade is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid calendar payload")
	}

	days := make([]models.Day, 0, len(req.Days))
	for _, name := range req.Days {
		day, ok := models.ParseDay(name)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown day "+name)
		}
		days = append(days, day)
	}
	days = models.SortDays(days)

	if err := s.calendars.Replace(ctx, grade, days); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace grade calendar")
	}
	s.logger.Info("grade calendar replaced", zap.String("grade", grade), zap.Int("days", len(days)))
	return days, nil
}

func (s *TopologyService) validatePeriod(ctx context.Context, req dto.PeriodRequest, selfID string) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period payload")
	}
	start, err := time.Parse("15:04", req.StartTime)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "startTime must be HH:MM")
	}
	end, err := time.Parse("15:04", req.EndTime)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "endTime must be HH:MM")
	}
	if !end.After(start) {
		return appErrors.Clone(appErrors.ErrValidation, "endTime must be after startTime")
	}

	existing, err := s.periods.List(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load periods")
	}
	for _, period := range existing {
		if period.Number == req.Number && period.ID != selfID {
			return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("period number %d already exists", req.Number))
		}
	}
	return nil
}

func mapLookupError(err error, notFoundMsg, internalMsg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFoundMsg)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internalMsg)
}
