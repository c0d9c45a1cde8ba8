package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/pkg/config"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type requirementStore interface {
	List(ctx context.Context) ([]models.LessonRequirement, error)
	FindByID(ctx context.Context, id string) (*models.LessonRequirement, error)
	Create(ctx context.Context, requirement *models.LessonRequirement) error
	BulkCreate(ctx context.Context, requirements []models.LessonRequirement) error
	Update(ctx context.Context, requirement *models.LessonRequirement) error
	Delete(ctx context.Context, id string) error
}

type assignmentLister interface {
	ListAll(ctx context.Context) ([]models.TeacherAssignment, error)
}

// LessonConfigService manages the weekly lesson requirement registry.
type LessonConfigService struct {
	requirements requirementStore
	assignments  assignmentLister
	classes      classLister
	subjects     subjectLister
	teachers     teacherLister
	validator    *validator.Validate
	logger       *zap.Logger
	cfg          config.SchedulerConfig
}

// NewLessonConfigService wires the requirement registry dependencies.
func NewLessonConfigService(
	requirements requirementStore,
	assignments assignmentLister,
	classes classLister,
	subjects subjectLister,
	teachers teacherLister,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg config.SchedulerConfig,
) *LessonConfigService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonConfigService{
		requirements: requirements,
		assignments:  assignments,
		classes:      classes,
		subjects:     subjects,
		teachers:     teachers,
		validator:    validate,
		logger:       logger,
		cfg:          cfg,
	}
}

// List returns every requirement with display names attached.
func (s *LessonConfigService) List(ctx context.Context) ([]models.LessonRequirementDetail, error) {
	requirements, err := s.requirements.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson requirements")
	}

	subjectNames, teacherNames, classNames, err := s.nameLookups(ctx)
	if err != nil {
		return nil, err
	}

	details := make([]models.LessonRequirementDetail, 0, len(requirements))
	for _, requirement := range requirements {
		detail := models.LessonRequirementDetail{LessonRequirement: requirement}
		if requirement.SubjectID != nil {
			if name, ok := subjectNames[*requirement.SubjectID]; ok {
				detail.SubjectName = &name
			}
		}
		for _, teacherID := range requirement.TeacherIDs {
			if name, ok := teacherNames[teacherID]; ok {
				detail.TeacherNames = append(detail.TeacherNames, name)
			}
		}
		for _, classID := range requirement.ClassIDs {
			if name, ok := classNames[classID]; ok {
				detail.ClassNames = append(detail.ClassNames, name)
			}
		}
		details = append(details, detail)
	}
	return details, nil
}

// Create registers one requirement after full referential validation.
func (s *LessonConfigService) Create(ctx context.Context, req dto.LessonConfigRequest) (*models.LessonRequirement, error) {
	requirement, err := s.buildRequirement(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.requirements.Create(ctx, requirement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lesson requirement")
	}
	return requirement, nil
}

// Update replaces an existing requirement's definition.
func (s *LessonConfigService) Update(ctx context.Context, id string, req dto.LessonConfigRequest) (*models.LessonRequirement, error) {
	if _, err := s.requirements.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson requirement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson requirement")
	}

	requirement, err := s.buildRequirement(ctx, req)
	if err != nil {
		return nil, err
	}
	requirement.ID = id
	if err := s.requirements.Update(ctx, requirement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lesson requirement")
	}
	return requirement, nil
}

// Delete removes a requirement. Slots referencing it cascade at the database.
func (s *LessonConfigService) Delete(ctx context.Context, id string) error {
	if err := s.requirements.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "lesson requirement not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lesson requirement")
	}
	return nil
}

// ImportFromAssignments derives subject requirements from the teacher
// assignment table. Assignments sharing a subject and class merge into one
// requirement with the union of their teachers; pairs already covered by an
// existing requirement are skipped.
func (s *LessonConfigService) ImportFromAssignments(ctx context.Context, req dto.ImportAssignmentsRequest) (*dto.ImportAssignmentsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid import payload")
	}
	weeklyCount := req.WeeklyCount
	if weeklyCount == 0 {
		weeklyCount = s.cfg.DefaultWeeklyCount
	}

	assignments, err := s.assignments.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher assignments")
	}
	existing, err := s.requirements.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson requirements")
	}

	covered := make(map[string]struct{})
	for _, requirement := range existing {
		if requirement.SubjectID == nil {
			continue
		}
		for _, classID := range requirement.ClassIDs {
			covered[*requirement.SubjectID+"/"+classID] = struct{}{}
		}
	}

	type group struct {
		subjectID string
		classID   string
		teachers  map[string]struct{}
	}
	groups := make(map[string]*group)
	for _, assignment := range assignments {
		key := assignment.SubjectID + "/" + assignment.ClassID
		if _, skip := covered[key]; skip {
			continue
		}
		g, ok := groups[key]
		if !ok {
			g = &group{subjectID: assignment.SubjectID, classID: assignment.ClassID, teachers: make(map[string]struct{})}
			groups[key] = g
		}
		g.teachers[assignment.TeacherID] = struct{}{}
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	derived := make([]models.LessonRequirement, 0, len(keys))
	for _, key := range keys {
		g := groups[key]
		teacherIDs := make([]string, 0, len(g.teachers))
		for teacherID := range g.teachers {
			teacherIDs = append(teacherIDs, teacherID)
		}
		sort.Strings(teacherIDs)

		subjectID := g.subjectID
		derived = append(derived, models.LessonRequirement{
			Kind:       models.KindSubject,
			SubjectID:  &subjectID,
			Count:      weeklyCount,
			Length:     1,
			TeacherIDs: teacherIDs,
			ClassIDs:   []string{g.classID},
		})
	}

	if len(derived) > 0 {
		if err := s.requirements.BulkCreate(ctx, derived); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist derived requirements")
		}
	}

	s.logger.Info("requirements imported from assignments",
		zap.Int("imported", len(derived)),
		zap.Int("assignments", len(assignments)),
	)
	return &dto.ImportAssignmentsResponse{Imported: len(derived)}, nil
}

func (s *LessonConfigService) buildRequirement(ctx context.Context, req dto.LessonConfigRequest) (*models.LessonRequirement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	if req.Length > s.cfg.MaxBlockLength {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("length exceeds maximum of %d", s.cfg.MaxBlockLength))
	}

	kind := models.KindSubject
	if req.IsMeeting {
		kind = models.KindMeeting
	}
	switch kind {
	case models.KindSubject:
		if req.SubjectID == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "subjectId is required for subject lessons")
		}
		if len(req.ClassIDs) == 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "at least one class is required for subject lessons")
		}
	case models.KindMeeting:
		if req.Title == nil || *req.Title == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "title is required for meetings")
		}
	}

	subjectNames, teacherNames, classNames, err := s.nameLookups(ctx)
	if err != nil {
		return nil, err
	}
	if req.SubjectID != nil {
		if _, ok := subjectNames[*req.SubjectID]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown subject "+*req.SubjectID)
		}
	}
	for _, teacherID := range req.TeacherIDs {
		if _, ok := teacherNames[teacherID]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown teacher "+teacherID)
		}
	}
	for _, classID := range req.ClassIDs {
		if _, ok := classNames[classID]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown class "+classID)
		}
	}

	return &models.LessonRequirement{
		Kind:       kind,
		SubjectID:  req.SubjectID,
		Title:      req.Title,
		Count:      req.Count,
		Length:     req.Length,
		RoomType:   req.RoomType,
		TeacherIDs: req.TeacherIDs,
		ClassIDs:   req.ClassIDs,
	}, nil
}

func (s *LessonConfigService) nameLookups(ctx context.Context) (map[string]string, map[string]string, map[string]string, error) {
	wrap := func(err error, msg string) error {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, msg)
	}

	subjects, err := s.subjects.List(ctx)
	if err != nil {
		return nil, nil, nil, wrap(err, "failed to load subjects")
	}
	teachers, err := s.teachers.List(ctx)
	if err != nil {
		return nil, nil, nil, wrap(err, "failed to load teachers")
	}
	classes, err := s.classes.List(ctx)
	if err != nil {
		return nil, nil, nil, wrap(err, "failed to load classes")
	}

	subjectNames := make(map[string]string, len(subjects))
	for _, subject := range subjects {
		subjectNames[subject.ID] = subject.Name
	}
	teacherNames := make(map[string]string, len(teachers))
	for _, teacher := range teachers {
		teacherNames[teacher.ID] = teacher.FullName
	}
	classNames := make(map[string]string, len(classes))
	for _, class := range classes {
		classNames[class.ID] = class.Name
	}
	return subjectNames, teacherNames, classNames, nil
}
