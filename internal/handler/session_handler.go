package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusgo/tutorias-api/internal/dto"
	"github.com/campusgo/tutorias-api/internal/models"
	"github.com/campusgo/tutorias-api/internal/service"
	appErrors "github.com/campusgo/tutorias-api/pkg/errors"
	"github.com/campusgo/tutorias-api/pkg/response"
)

// SessionHandler exposes group tutoring session endpoints.
type SessionHandler struct {
	sessions *service.SessionService
}

// NewSessionHandler constructs SessionHandler.
func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// List godoc
// @Summary List sessions
// @Tags Tutorias
// @Produce json
// @Param tutorId query string false "Filter by tutor"
// @Param estado query string false "Filter by status"
// @Param materia query string false "Filter by subject"
// @Param desde query string false "Start of window (RFC3339)"
// @Param hasta query string false "End of window (RFC3339)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /tutorias [get]
func (h *SessionHandler) List(c *gin.Context) {
	var filter models.SessionFilter
	filter.TutorID = c.Query("tutorId")
	filter.Status = models.SessionStatus(c.Query("estado"))
	filter.Subject = c.Query("materia")
	if from, err := time.Parse(time.RFC3339, c.Query("desde")); err == nil {
		filter.From = &from
	}
	if to, err := time.Parse(time.RFC3339, c.Query("hasta")); err == nil {
		filter.To = &to
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	sessions, pagination, err := h.sessions.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, pagination)
}

// Get godoc
// @Summary Get a session with its enrollment count
// @Tags Tutorias
// @Produce json
// @Param id path string true "Session ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /tutorias/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Create godoc
// @Summary Open a new session
// @Tags Tutorias
// @Accept json
// @Produce json
// @Param payload body dto.CreateSessionRequest true "Session payload"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /tutorias [post]
func (h *SessionHandler) Create(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.sessions.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Update godoc
// @Summary Update a session within its status gate
// @Tags Tutorias
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.UpdateSessionRequest true "Changes"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /tutorias/{id} [put]
func (h *SessionHandler) Update(c *gin.Context) {
	var req dto.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.sessions.Update(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Delete godoc
// @Summary Delete a session nobody enrolled in
// @Tags Tutorias
// @Param id path string true "Session ID"
// @Security BearerAuth
// @Success 204
// @Router /tutorias/{id} [delete]
func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.sessions.Delete(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
