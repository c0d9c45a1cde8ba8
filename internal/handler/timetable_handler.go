package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/export"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type timetableGenerator interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
}

type timetableReader interface {
	All(ctx context.Context) ([]models.HydratedSlot, error)
	ForTeacher(ctx context.Context, teacherID string) ([]models.HydratedSlot, error)
	ForClass(ctx context.Context, classID string) ([]models.HydratedSlot, error)
	Public(ctx context.Context) ([]models.HydratedSlot, error)
	Dataset(ctx context.Context) (*export.Dataset, error)
}

// TimetableHandler exposes generation and read-back endpoints.
type TimetableHandler struct {
	generator timetableGenerator
	queries   timetableReader
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(generator timetableGenerator, queries timetableReader) *TimetableHandler {
	return &TimetableHandler{
		generator: generator,
		queries:   queries,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
	}
}

// Generate godoc
// @Summary Run the timetable auto-generation engine
// @Description Deterministically places every configured lesson requirement into non-conflicting slots. Requirements that cannot be fully placed are reported as conflicts, not errors.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generation options"
// @Success 200 {object} response.Envelope
// @Router /timetable/auto-generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}
	result, err := h.generator.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// All godoc
// @Summary Full timetable
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/all [get]
func (h *TimetableHandler) All(c *gin.Context) {
	slots, err := h.queries.All(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// My godoc
// @Summary Personal timetable for the authenticated teacher
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/my [get]
func (h *TimetableHandler) My(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if claims.TeacherID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "no teacher profile linked to this account"))
		return
	}
	slots, err := h.queries.ForTeacher(c.Request.Context(), claims.TeacherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// ByClass godoc
// @Summary Timetable of one class
// @Tags Timetable
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/class/{id} [get]
func (h *TimetableHandler) ByClass(c *gin.Context) {
	slots, err := h.queries.ForClass(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Public godoc
// @Summary Public read-only timetable
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/public [get]
func (h *TimetableHandler) Public(c *gin.Context) {
	slots, err := h.queries.Public(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// ExportCSV godoc
// @Summary Download the timetable as CSV
// @Tags Timetable
// @Produce text/csv
// @Success 200 {file} file
// @Router /timetable/export/csv [get]
func (h *TimetableHandler) ExportCSV(c *gin.Context) {
	dataset, err := h.queries.Dataset(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="timetable.csv"`)
	c.Header("Content-Type", "text/csv")
	if err := h.csv.Export(c.Writer, dataset); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "csv export failed"))
	}
}

// ExportPDF godoc
// @Summary Download the timetable as PDF
// @Tags Timetable
// @Produce application/pdf
// @Success 200 {file} file
// @Router /timetable/export/pdf [get]
func (h *TimetableHandler) ExportPDF(c *gin.Context) {
	dataset, err := h.queries.Dataset(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="timetable.pdf"`)
	c.Header("Content-Type", "application/pdf")
	if err := h.pdf.Export(c.Writer, dataset); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "pdf export failed"))
	}
}
