package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusgo/tutorias-api/internal/dto"
	"github.com/campusgo/tutorias-api/internal/service"
	appErrors "github.com/campusgo/tutorias-api/pkg/errors"
	"github.com/campusgo/tutorias-api/pkg/response"
)

// EnrollmentHandler exposes session enrollment endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// Create godoc
// @Summary Enroll a student into a session
// @Tags Inscripciones
// @Accept json
// @Produce json
// @Param payload body dto.EnrollRequest true "Enrollment payload"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /inscripciones [post]
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req dto.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Delete godoc
// @Summary Leave a session that has not started
// @Tags Inscripciones
// @Param id path string true "Enrollment ID"
// @Security BearerAuth
// @Success 204
// @Router /inscripciones/{id} [delete]
func (h *EnrollmentHandler) Delete(c *gin.Context) {
	if err := h.enrollments.Unenroll(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Attendance godoc
// @Summary Record the attendance outcome of an enrollment
// @Tags Inscripciones
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body dto.AttendanceRequest true "Attendance payload"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /inscripciones/{id}/asistencia [put]
func (h *EnrollmentHandler) Attendance(c *gin.Context) {
	var req dto.AttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.RecordAttendance(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Rate godoc
// @Summary Rate a finished session the student attended
// @Tags Inscripciones
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body dto.RatingRequest true "Rating payload"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /inscripciones/{id}/calificar [put]
func (h *EnrollmentHandler) Rate(c *gin.Context) {
	var req dto.RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.Rate(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// ListBySession godoc
// @Summary List the roster of a session
// @Tags Inscripciones
// @Produce json
// @Param id path string true "Session ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /tutorias/{id}/inscripciones [get]
func (h *EnrollmentHandler) ListBySession(c *gin.Context) {
	roster, err := h.enrollments.ListBySession(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}

// ListMine godoc
// @Summary List the caller's enrollment history
// @Tags Inscripciones
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /inscripciones/mias [get]
func (h *EnrollmentHandler) ListMine(c *gin.Context) {
	history, err := h.enrollments.ListMine(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}
