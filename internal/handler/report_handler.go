package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusgo/tutorias-api/internal/dto"
	"github.com/campusgo/tutorias-api/internal/service"
	appErrors "github.com/campusgo/tutorias-api/pkg/errors"
	"github.com/campusgo/tutorias-api/pkg/response"
)

// ReportHandler exposes report and export endpoints.
type ReportHandler struct {
	reports *service.ReportService
	exports *service.ExportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService, exports *service.ExportService) *ReportHandler {
	return &ReportHandler{reports: reports, exports: exports}
}

// Student godoc
// @Summary Aggregate report for one student
// @Tags Reportes
// @Produce json
// @Param id path string true "Student ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /reportes/estudiante/{id} [get]
func (h *ReportHandler) Student(c *gin.Context) {
	report, err := h.reports.StudentReport(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Tutor godoc
// @Summary Aggregate report for one tutor
// @Tags Reportes
// @Produce json
// @Param id path string true "Tutor ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /reportes/tutor/{id} [get]
func (h *ReportHandler) Tutor(c *gin.Context) {
	report, err := h.reports.TutorReport(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Weekly godoc
// @Summary Aggregate report over a date window
// @Tags Reportes
// @Produce json
// @Param desde query string false "Start of window (RFC3339), defaults to the current week's Monday"
// @Param hasta query string false "End of window (RFC3339), defaults to the current week's Sunday"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /reportes/semanal [get]
func (h *ReportHandler) Weekly(c *gin.Context) {
	from, to, err := parseWindow(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	report, err := h.reports.RangeReport(c.Request.Context(), actorFromContext(c), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Export godoc
// @Summary Download a report as PDF or CSV
// @Tags Reportes
// @Produce application/pdf
// @Produce text/csv
// @Param tipo path string true "Report kind: estudiante, tutor or semanal"
// @Param formato query string true "pdf or csv"
// @Param id query string false "Target student or tutor ID"
// @Param desde query string false "Start of window (RFC3339)"
// @Param hasta query string false "End of window (RFC3339)"
// @Security BearerAuth
// @Success 200
// @Router /reportes/exportar/{tipo} [get]
func (h *ReportHandler) Export(c *gin.Context) {
	from, to, err := parseWindow(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	req := dto.ExportRequest{
		Kind:     dto.ReportKind(c.Param("tipo")),
		Format:   dto.ExportFormat(c.DefaultQuery("formato", "pdf")),
		TargetID: c.Query("id"),
		From:     from,
		To:       to,
	}
	result, err := h.exports.Export(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Binary(c, result.ContentType, result.Filename, result.Payload)
}

func parseWindow(c *gin.Context) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if raw := c.Query("desde"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "desde must be RFC3339")
		}
		from = &parsed
	}
	if raw := c.Query("hasta"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "hasta must be RFC3339")
		}
		to = &parsed
	}
	return from, to, nil
}
