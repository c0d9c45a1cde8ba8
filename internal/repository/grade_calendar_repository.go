package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

// GradeCalendarRepository stores per-grade active weekday sets.
type GradeCalendarRepository struct {
	db *sqlx.DB
}

// NewGradeCalendarRepository creates a new grade calendar repository.
func NewGradeCalendarRepository(db *sqlx.DB) *GradeCalendarRepository {
	return &GradeCalendarRepository{db: db}
}

// ListAll returns every calendar entry across grades.
func (r *GradeCalendarRepository) ListAll(ctx context.Context) ([]models.GradeCalendarEntry, error) {
	const query = `SELECT id, grade, day_of_week, created_at FROM grade_calendars ORDER BY grade ASC, day_of_week ASC`
	var entries []models.GradeCalendarEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("list grade calendars: %w", err)
	}
	return entries, nil
}

// ListByGrade returns the active days configured for one grade.
func (r *GradeCalendarRepository) ListByGrade(ctx context.Context, grade string) ([]models.GradeCalendarEntry, error) {
	const query = `SELECT id, grade, day_of_week, created_at FROM grade_calendars WHERE grade = $1 ORDER BY day_of_week ASC`
	var entries []models.GradeCalendarEntry
	if err := r.db.SelectContext(ctx, &entries, query, grade); err != nil {
		return nil, fmt.Errorf("list grade calendar %s: %w", grade, err)
	}
	return entries, nil
}

// Replace swaps a grade's day set atomically.
func (r *GradeCalendarRepository) Replace(ctx context.Context, grade string, days []models.Day) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin grade calendar replace: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM grade_calendars WHERE grade = $1`, grade); err != nil {
		return fmt.Errorf("clear grade calendar %s: %w", grade, err)
	}
	const insert = `INSERT INTO grade_calendars (id, grade, day_of_week, created_at) VALUES ($1, $2, $3, $4)`
	now := time.Now().UTC()
	for _, day := range days {
		if _, err := tx.ExecContext(ctx, insert, uuid.NewString(), grade, day, now); err != nil {
			return fmt.Errorf("insert grade calendar %s: %w", grade, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit grade calendar replace: %w", err)
	}
	return nil
}
