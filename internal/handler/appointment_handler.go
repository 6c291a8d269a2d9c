package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusgo/tutorias-api/internal/dto"
	"github.com/campusgo/tutorias-api/internal/service"
	appErrors "github.com/campusgo/tutorias-api/pkg/errors"
	"github.com/campusgo/tutorias-api/pkg/response"
)

// AppointmentHandler exposes 1:1 appointment endpoints.
type AppointmentHandler struct {
	appointments *service.AppointmentService
}

// NewAppointmentHandler constructs AppointmentHandler.
func NewAppointmentHandler(appointments *service.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments}
}

// Create godoc
// @Summary Book an appointment with a tutor
// @Tags Appointments
// @Accept json
// @Produce json
// @Param payload body dto.CreateAppointmentRequest true "Appointment payload"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /citas [post]
func (h *AppointmentHandler) Create(c *gin.Context) {
	var req dto.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	appointment, err := h.appointments.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, appointment)
}

// Confirm godoc
// @Summary Confirm a pending appointment
// @Tags Appointments
// @Produce json
// @Param id path string true "Appointment ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /citas/{id}/confirmar [put]
func (h *AppointmentHandler) Confirm(c *gin.Context) {
	appointment, err := h.appointments.Confirm(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appointment, nil)
}

// Cancel godoc
// @Summary Cancel an appointment, releasing its slot
// @Tags Appointments
// @Produce json
// @Param id path string true "Appointment ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /citas/{id}/cancelar [put]
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	appointment, err := h.appointments.Cancel(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appointment, nil)
}

// ListUpcoming godoc
// @Summary List upcoming appointments scoped to the caller
// @Tags Appointments
// @Produce json
// @Param tutorId query string false "Filter by tutor (admin only)"
// @Param estudianteId query string false "Filter by student (admin only)"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /citas [get]
func (h *AppointmentHandler) ListUpcoming(c *gin.Context) {
	req := dto.ListAppointmentsRequest{
		TutorID:   c.Query("tutorId"),
		StudentID: c.Query("estudianteId"),
	}
	appointments, err := h.appointments.ListUpcoming(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appointments, nil)
}
