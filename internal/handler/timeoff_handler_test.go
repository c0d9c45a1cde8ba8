package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/timetable-api/internal/dto"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type fakeAvailability struct {
	cells     []dto.TimeOffCell
	err       error
	lastOwner string
	lastID    string
	lastReq   dto.ReplaceTimeOffRequest
	replaces  int
}

func (f *fakeAvailability) Matrix(_ context.Context, ownerType, ownerID string) ([]dto.TimeOffCell, error) {
	f.lastOwner = ownerType
	f.lastID = ownerID
	return f.cells, f.err
}

func (f *fakeAvailability) Replace(_ context.Context, ownerType, ownerID string, req dto.ReplaceTimeOffRequest) error {
	f.lastOwner = ownerType
	f.lastID = ownerID
	f.lastReq = req
	f.replaces++
	return f.err
}

func timeOffRouter(svc availabilityManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewTimeOffHandler(svc)
	r := gin.New()
	r.GET("/timeoff/:ownerType/:ownerId", h.Matrix)
	r.POST("/timeoff/:ownerType/:ownerId", h.Replace)
	r.PUT("/timeoff/:ownerType/:ownerId", h.Replace)
	return r
}

func timeOffRequest(method, body string) *http.Request {
	req := httptest.NewRequest(method, "/timeoff/teacher/teacher-1", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestTimeOffHandlerMatrix(t *testing.T) {
	svc := &fakeAvailability{cells: []dto.TimeOffCell{{DayOfWeek: "MONDAY", PeriodID: "p1", State: "UNAVAILABLE"}}}
	r := timeOffRouter(svc)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, timeOffRequest(http.MethodGet, ""))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "teacher", svc.lastOwner)
	assert.Equal(t, "teacher-1", svc.lastID)
	assert.Contains(t, rec.Body.String(), "UNAVAILABLE")
}

func TestTimeOffHandlerMatrixNotFound(t *testing.T) {
	r := timeOffRouter(&fakeAvailability{err: appErrors.ErrNotFound})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, timeOffRequest(http.MethodGet, ""))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTimeOffHandlerReplace(t *testing.T) {
	svc := &fakeAvailability{}
	r := timeOffRouter(svc)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, timeOffRequest(http.MethodPut,
		`{"matrix":[{"dayOfWeek":"MONDAY","periodId":"p1","state":"CONDITIONAL"}]}`))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, svc.lastReq.Matrix, 1)
	assert.Equal(t, "CONDITIONAL", svc.lastReq.Matrix[0].State)
}

func TestTimeOffHandlerReplaceViaPost(t *testing.T) {
	svc := &fakeAvailability{}
	r := timeOffRouter(svc)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, timeOffRequest(http.MethodPost,
		`{"matrix":[{"dayOfWeek":"FRIDAY","periodId":"p2","state":"UNAVAILABLE"}]}`))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, svc.replaces)
	assert.Equal(t, "teacher", svc.lastOwner)
	assert.Equal(t, "UNAVAILABLE", svc.lastReq.Matrix[0].State)
}

func TestTimeOffHandlerReplaceMalformedBody(t *testing.T) {
	svc := &fakeAvailability{}
	r := timeOffRouter(svc)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, timeOffRequest(http.MethodPut, `{"matrix":`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.replaces)
}
