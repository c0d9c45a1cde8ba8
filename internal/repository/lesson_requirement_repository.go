package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

// LessonRequirementRepository persists weekly lesson requirements together
// with their teacher and class join rows.
type LessonRequirementRepository struct {
	db *sqlx.DB
}

// NewLessonRequirementRepository creates a new lesson requirement repository.
func NewLessonRequirementRepository(db *sqlx.DB) *LessonRequirementRepository {
	return &LessonRequirementRepository{db: db}
}

const requirementColumns = `id, kind, subject_id, title, weekly_count, block_length, room_type, created_at, updated_at`

type requirementMember struct {
	RequirementID string `db:"lesson_requirement_id"`
	MemberID      string `db:"member_id"`
}

// List returns all requirements with teachers and classes attached.
func (r *LessonRequirementRepository) List(ctx context.Context) ([]models.LessonRequirement, error) {
	query := fmt.Sprintf(`SELECT %s FROM lesson_requirements ORDER BY id ASC`, requirementColumns)
	var requirements []models.LessonRequirement
	if err := r.db.SelectContext(ctx, &requirements, query); err != nil {
		return nil, fmt.Errorf("list lesson requirements: %w", err)
	}
	if err := r.attachMembers(ctx, requirements); err != nil {
		return nil, err
	}
	return requirements, nil
}

// FindByID loads one requirement with teachers and classes attached.
func (r *LessonRequirementRepository) FindByID(ctx context.Context, id string) (*models.LessonRequirement, error) {
	query := fmt.Sprintf(`SELECT %s FROM lesson_requirements WHERE id = $1`, requirementColumns)
	var requirement models.LessonRequirement
	if err := r.db.GetContext(ctx, &requirement, query, id); err != nil {
		return nil, err
	}
	list := []models.LessonRequirement{requirement}
	if err := r.attachMembers(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (r *LessonRequirementRepository) attachMembers(ctx context.Context, requirements []models.LessonRequirement) error {
	if len(requirements) == 0 {
		return nil
	}

	var teachers []requirementMember
	if err := r.db.SelectContext(ctx, &teachers, `SELECT lesson_requirement_id, teacher_id AS member_id FROM lesson_requirement_teachers ORDER BY teacher_id ASC`); err != nil {
		return fmt.Errorf("list requirement teachers: %w", err)
	}
	var classes []requirementMember
	if err := r.db.SelectContext(ctx, &classes, `SELECT lesson_requirement_id, class_id AS member_id FROM lesson_requirement_classes ORDER BY class_id ASC`); err != nil {
		return fmt.Errorf("list requirement classes: %w", err)
	}

	teacherMap := make(map[string][]string)
	for _, row := range teachers {
		teacherMap[row.RequirementID] = append(teacherMap[row.RequirementID], row.MemberID)
	}
	classMap := make(map[string][]string)
	for _, row := range classes {
		classMap[row.RequirementID] = append(classMap[row.RequirementID], row.MemberID)
	}

	for i := range requirements {
		requirements[i].TeacherIDs = teacherMap[requirements[i].ID]
		requirements[i].ClassIDs = classMap[requirements[i].ID]
	}
	return nil
}

// Create inserts a requirement and its join rows in one transaction.
func (r *LessonRequirementRepository) Create(ctx context.Context, requirement *models.LessonRequirement) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin requirement create: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := insertRequirement(ctx, tx, requirement); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit requirement create: %w", err)
	}
	return nil
}

// BulkCreate inserts several requirements atomically; used by the assignment import.
func (r *LessonRequirementRepository) BulkCreate(ctx context.Context, requirements []models.LessonRequirement) error {
	if len(requirements) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin requirement import: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i := range requirements {
		if err := insertRequirement(ctx, tx, &requirements[i]); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit requirement import: %w", err)
	}
	return nil
}

func insertRequirement(ctx context.Context, tx *sqlx.Tx, requirement *models.LessonRequirement) error {
	if requirement.ID == "" {
		requirement.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	requirement.CreatedAt = now
	requirement.UpdatedAt = now

	const insert = `INSERT INTO lesson_requirements (id, kind, subject_id, title, weekly_count, block_length, room_type, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := tx.ExecContext(ctx, insert, requirement.ID, requirement.Kind, requirement.SubjectID, requirement.Title, requirement.Count, requirement.Length, requirement.RoomType, requirement.CreatedAt, requirement.UpdatedAt); err != nil {
		return fmt.Errorf("insert lesson requirement: %w", err)
	}
	return insertRequirementMembers(ctx, tx, requirement)
}

func insertRequirementMembers(ctx context.Context, tx *sqlx.Tx, requirement *models.LessonRequirement) error {
	for _, teacherID := range requirement.TeacherIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO lesson_requirement_teachers (lesson_requirement_id, teacher_id) VALUES ($1, $2)`, requirement.ID, teacherID); err != nil {
			return fmt.Errorf("insert requirement teacher: %w", err)
		}
	}
	for _, classID := range requirement.ClassIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO lesson_requirement_classes (lesson_requirement_id, class_id) VALUES ($1, $2)`, requirement.ID, classID); err != nil {
			return fmt.Errorf("insert requirement class: %w", err)
		}
	}
	return nil
}

// Update rewrites a requirement and replaces its join rows.
func (r *LessonRequirementRepository) Update(ctx context.Context, requirement *models.LessonRequirement) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin requirement update: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	requirement.UpdatedAt = time.Now().UTC()
	const update = `UPDATE lesson_requirements SET kind = $2, subject_id = $3, title = $4, weekly_count = $5, block_length = $6, room_type = $7, updated_at = $8 WHERE id = $1`
	result, err := tx.ExecContext(ctx, update, requirement.ID, requirement.Kind, requirement.SubjectID, requirement.Title, requirement.Count, requirement.Length, requirement.RoomType, requirement.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update lesson requirement: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM lesson_requirement_teachers WHERE lesson_requirement_id = $1`, requirement.ID); err != nil {
		return fmt.Errorf("clear requirement teachers: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM lesson_requirement_classes WHERE lesson_requirement_id = $1`, requirement.ID); err != nil {
		return fmt.Errorf("clear requirement classes: %w", err)
	}
	if err := insertRequirementMembers(ctx, tx, requirement); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit requirement update: %w", err)
	}
	return nil
}

// Delete removes a requirement; join rows cascade at the database level.
func (r *LessonRequirementRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM lesson_requirements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lesson requirement: %w", err)
	}
	return requireRowsAffected(result)
}
