package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type availabilityStore interface {
	ListByOwner(ctx context.Context, ownerType models.OwnerType, ownerID string) ([]models.AvailabilityEntry, error)
	ReplaceForOwner(ctx context.Context, ownerType models.OwnerType, ownerID string, entries []models.AvailabilityEntry) error
}

type classFinder interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type subjectFinder interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type teacherFinder interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// AvailabilityService manages the tri-state time-off matrices of classes,
// teachers and subjects.
type AvailabilityService struct {
	store     availabilityStore
	periods   periodLister
	classes   classFinder
	subjects  subjectFinder
	teachers  teacherFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAvailabilityService wires the availability dependencies.
func NewAvailabilityService(
	store availabilityStore,
	periods periodLister,
	classes classFinder,
	subjects subjectFinder,
	teachers teacherFinder,
	validate *validator.Validate,
	logger *zap.Logger,
) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		store:     store,
		periods:   periods,
		classes:   classes,
		subjects:  subjects,
		teachers:  teachers,
		validator: validate,
		logger:    logger,
	}
}

// Matrix returns the explicit cells of one owner's availability matrix.
// Cells missing from the result are AVAILABLE.
func (s *AvailabilityService) Matrix(ctx context.Context, rawOwnerType, ownerID string) ([]dto.TimeOffCell, error) {
	ownerType, err := s.resolveOwner(ctx, rawOwnerType, ownerID)
	if err != nil {
		return nil, err
	}

	entries, err := s.store.ListByOwner(ctx, ownerType, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}

	cells := make([]dto.TimeOffCell, 0, len(entries))
	for _, entry := range entries {
		cells = append(cells, dto.TimeOffCell{
			DayOfWeek: string(entry.DayOfWeek),
			PeriodID:  entry.PeriodID,
			State:     string(entry.State),
		})
	}
	return cells, nil
}

// Replace swaps an owner's whole matrix. AVAILABLE cells are dropped before
// persisting so the stored matrix stays sparse.
func (s *AvailabilityService) Replace(ctx context.Context, rawOwnerType, ownerID string, req dto.ReplaceTimeOffRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time-off payload")
	}

	ownerType, err := s.resolveOwner(ctx, rawOwnerType, ownerID)
	if err != nil {
		return err
	}

	periods, err := s.periods.List(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load periods")
	}
	knownPeriods := make(map[string]struct{}, len(periods))
	for _, period := range periods {
		knownPeriods[period.ID] = struct{}{}
	}

	seen := make(map[string]struct{}, len(req.Matrix))
	entries := make([]models.AvailabilityEntry, 0, len(req.Matrix))
	for _, cell := range req.Matrix {
		day, ok := models.ParseDay(cell.DayOfWeek)
		if !ok {
			return appErrors.Clone(appErrors.ErrValidation, "unknown day "+cell.DayOfWeek)
		}
		if _, ok := knownPeriods[cell.PeriodID]; !ok {
			return appErrors.Clone(appErrors.ErrValidation, "unknown period "+cell.PeriodID)
		}
		cellKey := string(day) + "/" + cell.PeriodID
		if _, dup := seen[cellKey]; dup {
			return appErrors.Clone(appErrors.ErrValidation, "duplicate cell "+cellKey)
		}
		seen[cellKey] = struct{}{}

		state := models.AvailabilityState(cell.State)
		if state == models.StateAvailable {
			continue
		}
		entries = append(entries, models.AvailabilityEntry{
			OwnerType: ownerType,
			OwnerID:   ownerID,
			DayOfWeek: day,
			PeriodID:  cell.PeriodID,
			State:     state,
		})
	}

	if err := s.store.ReplaceForOwner(ctx, ownerType, ownerID, entries); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace availability")
	}

	s.logger.Info("availability matrix replaced",
		zap.String("owner_type", string(ownerType)),
		zap.String("owner_id", ownerID),
		zap.Int("explicit_cells", len(entries)),
	)
	return nil
}

// resolveOwner validates the owner type segment and checks the owner exists.
func (s *AvailabilityService) resolveOwner(ctx context.Context, rawOwnerType, ownerID string) (models.OwnerType, error) {
	ownerType := models.OwnerType(strings.ToUpper(rawOwnerType))
	if !ownerType.Valid() {
		return "", appErrors.Clone(appErrors.ErrValidation, "unknown owner type "+rawOwnerType)
	}
	if ownerID == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "owner id is required")
	}

	var err error
	switch ownerType {
	case models.OwnerClass:
		_, err = s.classes.FindByID(ctx, ownerID)
	case models.OwnerSubject:
		_, err = s.subjects.FindByID(ctx, ownerID)
	case models.OwnerTeacher:
		_, err = s.teachers.FindByID(ctx, ownerID)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, strings.ToLower(rawOwnerType)+" not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve owner")
	}
	return ownerType, nil
}
