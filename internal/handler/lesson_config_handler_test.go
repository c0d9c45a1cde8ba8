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
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type fakeLessonConfig struct {
	details   []models.LessonRequirementDetail
	created   *models.LessonRequirement
	updated   *models.LessonRequirement
	imported  *dto.ImportAssignmentsResponse
	err       error
	lastID    string
	deletedID string
	lastReq   dto.LessonConfigRequest
	importReq dto.ImportAssignmentsRequest
}

func (f *fakeLessonConfig) List(context.Context) ([]models.LessonRequirementDetail, error) {
	return f.details, f.err
}

func (f *fakeLessonConfig) Create(_ context.Context, req dto.LessonConfigRequest) (*models.LessonRequirement, error) {
	f.lastReq = req
	return f.created, f.err
}

func (f *fakeLessonConfig) Update(_ context.Context, id string, req dto.LessonConfigRequest) (*models.LessonRequirement, error) {
	f.lastID = id
	f.lastReq = req
	return f.updated, f.err
}

func (f *fakeLessonConfig) Delete(_ context.Context, id string) error {
	f.deletedID = id
	return f.err
}

func (f *fakeLessonConfig) ImportFromAssignments(_ context.Context, req dto.ImportAssignmentsRequest) (*dto.ImportAssignmentsResponse, error) {
	f.importReq = req
	return f.imported, f.err
}

func lessonContext(t *testing.T, method, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, "/lesson-config", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, rec
}

func TestLessonConfigHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeLessonConfig{created: &models.LessonRequirement{ID: "req-1", Kind: models.KindSubject}}
	h := NewLessonConfigHandler(svc)

	c, rec := lessonContext(t, http.MethodPost,
		`{"subjectId":"subj-1","classIds":["class-a"],"teacherIds":["teacher-1"],"count":2,"length":1}`)
	h.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 2, svc.lastReq.Count)
}

func TestLessonConfigHandlerCreateValidationError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewLessonConfigHandler(&fakeLessonConfig{err: appErrors.ErrValidation})

	c, rec := lessonContext(t, http.MethodPost, `{"teacherIds":["teacher-1"],"count":1,"length":1}`)
	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLessonConfigHandlerUpdate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeLessonConfig{updated: &models.LessonRequirement{ID: "req-1"}}
	h := NewLessonConfigHandler(svc)

	c, rec := lessonContext(t, http.MethodPut,
		`{"title":"Staff sync","teacherIds":["teacher-1"],"count":1,"length":1,"isMeeting":true}`)
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}
	h.Update(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-1", svc.lastID)
	assert.True(t, svc.lastReq.IsMeeting)
}

func TestLessonConfigHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeLessonConfig{}
	h := NewLessonConfigHandler(svc)

	c, rec := lessonContext(t, http.MethodDelete, "")
	c.Params = gin.Params{{Key: "id", Value: "req-9"}}
	h.Delete(c)
	// Status-only responses are not flushed to the recorder outside a router.
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "req-9", svc.deletedID)
}

func TestLessonConfigHandlerImportEmptyBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeLessonConfig{imported: &dto.ImportAssignmentsResponse{Imported: 3}}
	h := NewLessonConfigHandler(svc)

	c, rec := lessonContext(t, http.MethodPost, "")
	h.Import(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"imported":3`)
}

func TestLessonConfigHandlerImportWithOverride(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeLessonConfig{imported: &dto.ImportAssignmentsResponse{Imported: 1}}
	h := NewLessonConfigHandler(svc)

	c, rec := lessonContext(t, http.MethodPost, `{"weeklyCount":4}`)
	h.Import(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4, svc.importReq.WeeklyCount)
}
