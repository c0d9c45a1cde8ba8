package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type lessonConfigManager interface {
	List(ctx context.Context) ([]models.LessonRequirementDetail, error)
	Create(ctx context.Context, req dto.LessonConfigRequest) (*models.LessonRequirement, error)
	Update(ctx context.Context, id string, req dto.LessonConfigRequest) (*models.LessonRequirement, error)
	Delete(ctx context.Context, id string) error
	ImportFromAssignments(ctx context.Context, req dto.ImportAssignmentsRequest) (*dto.ImportAssignmentsResponse, error)
}

// LessonConfigHandler exposes the lesson requirement registry.
type LessonConfigHandler struct {
	service lessonConfigManager
}

// NewLessonConfigHandler constructs the handler.
func NewLessonConfigHandler(svc lessonConfigManager) *LessonConfigHandler {
	return &LessonConfigHandler{service: svc}
}

// List godoc
// @Summary List lesson requirements
// @Tags LessonConfig
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /lesson-config [get]
func (h *LessonConfigHandler) List(c *gin.Context) {
	details, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, details, nil)
}

// Create godoc
// @Summary Create a lesson requirement
// @Tags LessonConfig
// @Accept json
// @Produce json
// @Param payload body dto.LessonConfigRequest true "Requirement definition"
// @Success 201 {object} response.Envelope
// @Router /lesson-config [post]
func (h *LessonConfigHandler) Create(c *gin.Context) {
	var req dto.LessonConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lesson payload"))
		return
	}
	created, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Update godoc
// @Summary Update a lesson requirement
// @Tags LessonConfig
// @Accept json
// @Produce json
// @Param id path string true "Requirement ID"
// @Param payload body dto.LessonConfigRequest true "Requirement definition"
// @Success 200 {object} response.Envelope
// @Router /lesson-config/{id} [put]
func (h *LessonConfigHandler) Update(c *gin.Context) {
	var req dto.LessonConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lesson payload"))
		return
	}
	updated, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}

// Delete godoc
// @Summary Delete a lesson requirement
// @Tags LessonConfig
// @Produce json
// @Param id path string true "Requirement ID"
// @Success 204
// @Router /lesson-config/{id} [delete]
func (h *LessonConfigHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Import godoc
// @Summary Derive requirements from teacher assignments
// @Description Groups assignments sharing a subject and class into one requirement with the union of their teachers.
// @Tags LessonConfig
// @Accept json
// @Produce json
// @Param payload body dto.ImportAssignmentsRequest true "Import options"
// @Success 200 {object} response.Envelope
// @Router /lesson-config/from-assignments [post]
func (h *LessonConfigHandler) Import(c *gin.Context) {
	var req dto.ImportAssignmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid import payload"))
		return
	}
	result, err := h.service.ImportFromAssignments(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
