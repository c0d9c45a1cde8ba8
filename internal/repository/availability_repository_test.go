package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
)

func TestAvailabilityRepositoryListByOwner(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "owner_type", "owner_id", "day_of_week", "period_id", "state", "created_at", "updated_at"}).
		AddRow("av-1", "TEACHER", "teacher-1", "MONDAY", "p1", "UNAVAILABLE", now, now).
		AddRow("av-2", "TEACHER", "teacher-1", "MONDAY", "p2", "CONDITIONAL", now, now)
	mock.ExpectQuery("SELECT id, owner_type, owner_id").
		WithArgs(models.OwnerTeacher, "teacher-1").
		WillReturnRows(rows)

	entries, err := repo.ListByOwner(context.Background(), models.OwnerTeacher, "teacher-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.StateUnavailable, entries[0].State)
	assert.Equal(t, models.StateConditional, entries[1].State)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryReplaceForOwner(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM availability_entries").
		WithArgs(models.OwnerClass, "class-a").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO availability_entries").
		WithArgs(sqlmock.AnyArg(), models.OwnerClass, "class-a", models.Friday, "p1", models.StateUnavailable, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	entries := []models.AvailabilityEntry{
		{DayOfWeek: models.Friday, PeriodID: "p1", State: models.StateUnavailable},
	}
	require.NoError(t, repo.ReplaceForOwner(context.Background(), models.OwnerClass, "class-a", entries))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryReplaceForOwnerEmptyMatrix(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM availability_entries").
		WithArgs(models.OwnerSubject, "subj-1").
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectCommit()

	require.NoError(t, repo.ReplaceForOwner(context.Background(), models.OwnerSubject, "subj-1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
