package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type topologyManager interface {
	ListPeriods(ctx context.Context) ([]models.Period, error)
	CreatePeriod(ctx context.Context, req dto.PeriodRequest) (*models.Period, error)
	UpdatePeriod(ctx context.Context, id string, req dto.PeriodRequest) (*models.Period, error)
	DeletePeriod(ctx context.Context, id string) error
	ListRooms(ctx context.Context) ([]models.Room, error)
	CreateRoom(ctx context.Context, req dto.RoomRequest) (*models.Room, error)
	UpdateRoom(ctx context.Context, id string, req dto.RoomRequest) (*models.Room, error)
	DeleteRoom(ctx context.Context, id string) error
	GradeCalendars(ctx context.Context) (map[string][]models.Day, error)
	ReplaceGradeCalendar(ctx context.Context, grade string, req dto.GradeCalendarRequest) ([]models.Day, error)
}

// TopologyHandler exposes the scheduling grid endpoints.
type TopologyHandler struct {
	service topologyManager
}

// NewTopologyHandler constructs the handler.
func NewTopologyHandler(svc topologyManager) *TopologyHandler {
	return &TopologyHandler{service: svc}
}

// ListPeriods godoc
// @Summary List the daily period grid
// @Tags Topology
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /periods [get]
func (h *TopologyHandler) ListPeriods(c *gin.Context) {
	periods, err := h.service.ListPeriods(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods, nil)
}

// CreatePeriod godoc
// @Summary Create a period
// @Tags Topology
// @Accept json
// @Produce json
// @Param payload body dto.PeriodRequest true "Period definition"
// @Success 201 {object} response.Envelope
// @Router /periods [post]
func (h *TopologyHandler) CreatePeriod(c *gin.Context) {
	var req dto.PeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid period payload"))
		return
	}
	period, err := h.service.CreatePeriod(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, period)
}

// UpdatePeriod godoc
// @Summary Update a period
// @Tags Topology
// @Accept json
// @Produce json
// @Param id path string true "Period ID"
// @Param payload body dto.PeriodRequest true "Period definition"
// @Success 200 {object} response.Envelope
// @Router /periods/{id} [put]
func (h *TopologyHandler) UpdatePeriod(c *gin.Context) {
	var req dto.PeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid period payload"))
		return
	}
	period, err := h.service.UpdatePeriod(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// DeletePeriod godoc
// @Summary Delete a period
// @Tags Topology
// @Param id path string true "Period ID"
// @Success 204
// @Router /periods/{id} [delete]
func (h *TopologyHandler) DeletePeriod(c *gin.Context) {
	if err := h.service.DeletePeriod(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListRooms godoc
// @Summary List the room inventory
// @Tags Topology
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rooms [get]
func (h *TopologyHandler) ListRooms(c *gin.Context) {
	rooms, err := h.service.ListRooms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, nil)
}

// CreateRoom godoc
// @Summary Create a room
// @Tags Topology
// @Accept json
// @Produce json
// @Param payload body dto.RoomRequest true "Room definition"
// @Success 201 {object} response.Envelope
// @Router /rooms [post]
func (h *TopologyHandler) CreateRoom(c *gin.Context) {
	var req dto.RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid room payload"))
		return
	}
	room, err := h.service.CreateRoom(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, room)
}

// UpdateRoom godoc
// @Summary Update a room
// @Tags Topology
// @Accept json
// @Produce json
// @Param id path string true "Room ID"
// @Param payload body dto.RoomRequest true "Room definition"
// @Success 200 {object} response.Envelope
// @Router /rooms/{id} [put]
func (h *TopologyHandler) UpdateRoom(c *gin.Context) {
	var req dto.RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid room payload"))
		return
	}
	room, err := h.service.UpdateRoom(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil)
}

// DeleteRoom godoc
// @Summary Delete a room
// @Tags Topology
// @Param id path string true "Room ID"
// @Success 204
// @Router /rooms/{id} [delete]
func (h *TopologyHandler) DeleteRoom(c *gin.Context) {
	if err := h.service.DeleteRoom(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GradeCalendars godoc
// @Summary Active weekdays per grade
// @Tags Topology
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grade-calendars [get]
func (h *TopologyHandler) GradeCalendars(c *gin.Context) {
	grouped, err := h.service.GradeCalendars(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grouped, nil)
}

// ReplaceGradeCalendar godoc
// @Summary Replace one grade's active weekday set
// @Tags Topology
// @Accept json
// @Produce json
// @Param grade path string true "Grade"
// @Param payload body dto.GradeCalendarRequest true "Active weekdays"
// @Success 200 {object} response.Envelope
// @Router /grade-calendars/{grade} [put]
func (h *TopologyHandler) ReplaceGradeCalendar(c *gin.Context) {
	var req dto.GradeCalendarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid calendar payload"))
		return
	}
	days, err := h.service.ReplaceGradeCalendar(c.Request.Context(), c.Param("grade"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, days, nil)
}
