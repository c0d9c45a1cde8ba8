package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type availabilityManager interface {
	Matrix(ctx context.Context, ownerType, ownerID string) ([]dto.TimeOffCell, error)
	Replace(ctx context.Context, ownerType, ownerID string, req dto.ReplaceTimeOffRequest) error
}

// TimeOffHandler exposes the availability matrix endpoints.
type TimeOffHandler struct {
	service availabilityManager
}

// NewTimeOffHandler constructs the handler.
func NewTimeOffHandler(svc availabilityManager) *TimeOffHandler {
	return &TimeOffHandler{service: svc}
}

// Matrix godoc
// @Summary Availability matrix of one owner
// @Description Returns only explicit cells; omitted cells are AVAILABLE.
// @Tags TimeOff
// @Produce json
// @Param ownerType path string true "Owner type" Enums(class, teacher, subject)
// @Param ownerId path string true "Owner ID"
// @Success 200 {object} response.Envelope
// @Router /timeoff/{ownerType}/{ownerId} [get]
func (h *TimeOffHandler) Matrix(c *gin.Context) {
	cells, err := h.service.Matrix(c.Request.Context(), c.Param("ownerType"), c.Param("ownerId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cells, nil)
}

// Replace godoc
// @Summary Replace an owner's availability matrix
// @Description Full replace; omitted cells become AVAILABLE. Served on both POST and PUT.
// @Tags TimeOff
// @Accept json
// @Produce json
// @Param ownerType path string true "Owner type" Enums(class, teacher, subject)
// @Param ownerId path string true "Owner ID"
// @Param payload body dto.ReplaceTimeOffRequest true "Full matrix"
// @Success 204
// @Router /timeoff/{ownerType}/{ownerId} [post]
func (h *TimeOffHandler) Replace(c *gin.Context) {
	var req dto.ReplaceTimeOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid time-off payload"))
		return
	}
	if err := h.service.Replace(c.Request.Context(), c.Param("ownerType"), c.Param("ownerId"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
