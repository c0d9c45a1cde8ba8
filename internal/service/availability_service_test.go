package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type mockAvailabilityStore struct {
	entries  []models.AvailabilityEntry
	replaced []models.AvailabilityEntry
	calls    int
}

func (m *mockAvailabilityStore) ListByOwner(_ context.Context, ownerType models.OwnerType, ownerID string) ([]models.AvailabilityEntry, error) {
	var matched []models.AvailabilityEntry
	for _, entry := range m.entries {
		if entry.OwnerType == ownerType && entry.OwnerID == ownerID {
			matched = append(matched, entry)
		}
	}
	return matched, nil
}

func (m *mockAvailabilityStore) ReplaceForOwner(_ context.Context, _ models.OwnerType, _ string, entries []models.AvailabilityEntry) error {
	m.calls++
	m.replaced = entries
	return nil
}

func newAvailabilityService(t *testing.T) (*AvailabilityService, *mockAvailabilityStore) {
	t.Helper()
	f := newGenerateFixture(t)
	store := &mockAvailabilityStore{}
	svc := NewAvailabilityService(store, f.periods, f.classes, f.subjects, f.teachers, nil, zap.NewNop())
	return svc, store
}

func TestAvailabilityServiceMatrix(t *testing.T) {
	svc, store := newAvailabilityService(t)
	store.entries = []models.AvailabilityEntry{
		{OwnerType: models.OwnerTeacher, OwnerID: "teacher-1", DayOfWeek: models.Monday, PeriodID: "p1", State: models.StateUnavailable},
		{OwnerType: models.OwnerTeacher, OwnerID: "teacher-other", DayOfWeek: models.Monday, PeriodID: "p1", State: models.StateConditional},
	}

	cells, err := svc.Matrix(context.Background(), "teacher", "teacher-1")
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, dto.TimeOffCell{DayOfWeek: "MONDAY", PeriodID: "p1", State: "UNAVAILABLE"}, cells[0])
}

func TestAvailabilityServiceMatrixUnknownOwner(t *testing.T) {
	svc, _ := newAvailabilityService(t)

	_, err := svc.Matrix(context.Background(), "teacher", "teacher-ghost")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestAvailabilityServiceReplaceDropsAvailableCells(t *testing.T) {
	svc, store := newAvailabilityService(t)

	err := svc.Replace(context.Background(), "teacher", "teacher-1", dto.ReplaceTimeOffRequest{
		Matrix: []dto.TimeOffCell{
			{DayOfWeek: "MONDAY", PeriodID: "p1", State: "UNAVAILABLE"},
			{DayOfWeek: "MONDAY", PeriodID: "p2", State: "AVAILABLE"},
			{DayOfWeek: "TUESDAY", PeriodID: "p1", State: "CONDITIONAL"},
		},
	})
	require.NoError(t, err)
	require.Len(t, store.replaced, 2)
	assert.Equal(t, models.StateUnavailable, store.replaced[0].State)
	assert.Equal(t, models.StateConditional, store.replaced[1].State)
	assert.Equal(t, models.OwnerTeacher, store.replaced[0].OwnerType)
}

func TestAvailabilityServiceReplaceValidation(t *testing.T) {
	tests := []struct {
		name  string
		cells []dto.TimeOffCell
	}{
		{"unknown day", []dto.TimeOffCell{{DayOfWeek: "SOMEDAY", PeriodID: "p1", State: "UNAVAILABLE"}}},
		{"unknown period", []dto.TimeOffCell{{DayOfWeek: "MONDAY", PeriodID: "p99", State: "UNAVAILABLE"}}},
		{"unknown state", []dto.TimeOffCell{{DayOfWeek: "MONDAY", PeriodID: "p1", State: "MAYBE"}}},
		{"duplicate cell", []dto.TimeOffCell{
			{DayOfWeek: "MONDAY", PeriodID: "p1", State: "UNAVAILABLE"},
			{DayOfWeek: "MONDAY", PeriodID: "p1", State: "CONDITIONAL"},
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, store := newAvailabilityService(t)
			err := svc.Replace(context.Background(), "teacher", "teacher-1", dto.ReplaceTimeOffRequest{Matrix: tc.cells})
			require.Error(t, err)
			var appErr *appErrors.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
			assert.Zero(t, store.calls)
		})
	}
}

func TestAvailabilityServiceReplaceUnknownOwnerType(t *testing.T) {
	svc, _ := newAvailabilityService(t)

	err := svc.Replace(context.Background(), "room", "room-1", dto.ReplaceTimeOffRequest{})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestAvailabilityServiceReplaceEmptyMatrixClears(t *testing.T) {
	svc, store := newAvailabilityService(t)

	err := svc.Replace(context.Background(), "class", "class-a", dto.ReplaceTimeOffRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, store.calls)
	assert.Empty(t, store.replaced)
}
