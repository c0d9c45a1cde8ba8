package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

// AvailabilityRepository stores the tri-state availability matrices. Only
// non-AVAILABLE cells need persisting; missing rows default to AVAILABLE.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository creates a new availability repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

const availabilityColumns = `id, owner_type, owner_id, day_of_week, period_id, state, created_at, updated_at`

// ListByOwner returns the explicit cells of one owner's matrix.
func (r *AvailabilityRepository) ListByOwner(ctx context.Context, ownerType models.OwnerType, ownerID string) ([]models.AvailabilityEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM availability_entries WHERE owner_type = $1 AND owner_id = $2 ORDER BY day_of_week ASC, period_id ASC`, availabilityColumns)
	var entries []models.AvailabilityEntry
	if err := r.db.SelectContext(ctx, &entries, query, ownerType, ownerID); err != nil {
		return nil, fmt.Errorf("list availability for %s %s: %w", ownerType, ownerID, err)
	}
	return entries, nil
}

// ListAll returns every explicit availability cell; the generation run loads
// this once as its immutable snapshot.
func (r *AvailabilityRepository) ListAll(ctx context.Context) ([]models.AvailabilityEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM availability_entries ORDER BY owner_type ASC, owner_id ASC, day_of_week ASC, period_id ASC`, availabilityColumns)
	var entries []models.AvailabilityEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	return entries, nil
}

// ReplaceForOwner swaps an owner's matrix atomically.
func (r *AvailabilityRepository) ReplaceForOwner(ctx context.Context, ownerType models.OwnerType, ownerID string, entries []models.AvailabilityEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin availability replace: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM availability_entries WHERE owner_type = $1 AND owner_id = $2`, ownerType, ownerID); err != nil {
		return fmt.Errorf("clear availability for %s %s: %w", ownerType, ownerID, err)
	}

	const insert = `INSERT INTO availability_entries (id, owner_type, owner_id, day_of_week, period_id, state, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	now := time.Now().UTC()
	for _, entry := range entries {
		if _, err := tx.ExecContext(ctx, insert, uuid.NewString(), ownerType, ownerID, entry.DayOfWeek, entry.PeriodID, entry.State, now, now); err != nil {
			return fmt.Errorf("insert availability cell: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit availability replace: %w", err)
	}
	return nil
}
