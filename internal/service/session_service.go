package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusgo/tutorias-api/internal/dto"
	"github.com/campusgo/tutorias-api/internal/models"
	"github.com/campusgo/tutorias-api/internal/repository"
	appErrors "github.com/campusgo/tutorias-api/pkg/errors"
)

type sessionRepository interface {
	FindByID(ctx context.Context, id string) (*models.TutoringSession, error)
	FindDetailByID(ctx context.Context, id string) (*models.SessionDetail, error)
	List(ctx context.Context, filter models.SessionFilter) ([]models.SessionDetail, int, error)
	Create(ctx context.Context, session *models.TutoringSession) error
	Update(ctx context.Context, session *models.TutoringSession) error
	CountEnrollments(ctx context.Context, sessionID string) (int, error)
	DeleteIfEmpty(ctx context.Context, id string) error
}

type sessionTutorRepository interface {
	FindByID(ctx context.Context, id string) (*models.Tutor, error)
	FindByUserID(ctx context.Context, userID string) (*models.Tutor, error)
}

type reportCacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// sessionTransitions lists the allowed forward moves of the lifecycle.
// finalizada and cancelada are terminal.
var sessionTransitions = map[models.SessionStatus][]models.SessionStatus{
	models.SessionScheduled:  {models.SessionInProgress, models.SessionCompleted, models.SessionCancelled},
	models.SessionInProgress: {models.SessionCompleted, models.SessionCancelled},
}

// SessionService manages the group-session lifecycle. Updates are gated by
// the current status: a scheduled session is fully editable, a running one
// accepts only description and status, a finished one only description.
type SessionService struct {
	sessions  sessionRepository
	tutors    sessionTutorRepository
	cache     reportCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewSessionService constructs a SessionService instance. cache may be nil.
func NewSessionService(sessions sessionRepository, tutors sessionTutorRepository, cache reportCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SessionService{
		sessions:  sessions,
		tutors:    tutors,
		cache:     cache,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Create opens a new session owned by the acting tutor, or by the tutor
// named in the request when the actor is an admin.
func (s *SessionService) Create(ctx context.Context, actor models.Actor, req dto.CreateSessionRequest) (*models.TutoringSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	tutorID, err := s.resolveTutorID(ctx, actor, req.TutorID)
	if err != nil {
		return nil, err
	}

	if !req.StartsAt.After(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "fechaProgramada must be in the future")
	}

	session := &models.TutoringSession{
		TutorID:     tutorID,
		Subject:     req.Subject,
		Topic:       req.Topic,
		Description: req.Description,
		StartsAt:    req.StartsAt,
		DurationMin: req.DurationMin,
		MaxSeats:    req.MaxSeats,
		Modality:    req.Modality,
		Location:    req.Location,
		Status:      models.SessionScheduled,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}

	s.logger.Info("session created",
		zap.String("session_id", session.ID),
		zap.String("tutor_id", session.TutorID),
		zap.String("subject", session.Subject))
	return session, nil
}

// Get returns a session with tutor identity and live enrollment count.
func (s *SessionService) Get(ctx context.Context, id string) (*models.SessionDetail, error) {
	detail, err := s.sessions.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return detail, nil
}

// List returns sessions matching the filter plus pagination metadata.
func (s *SessionService) List(ctx context.Context, filter models.SessionFilter) ([]models.SessionDetail, *models.Pagination, error) {
	sessions, total, err := s.sessions.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return sessions, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Update applies the permitted subset of changes given the session's
// current status.
func (s *SessionService) Update(ctx context.Context, actor models.Actor, id string, req dto.UpdateSessionRequest) (*models.TutoringSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	session, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeOwner(ctx, actor, session); err != nil {
		return nil, err
	}

	if err := s.applyUpdate(ctx, session, req); err != nil {
		return nil, err
	}

	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}

	s.invalidateReportCaches(ctx)
	return session, nil
}

// Delete removes a session that has not started and nobody has enrolled in.
func (s *SessionService) Delete(ctx context.Context, actor models.Actor, id string) error {
	session, err := s.loadSession(ctx, id)
	if err != nil {
		return err
	}

	if err := s.authorizeOwner(ctx, actor, session); err != nil {
		return err
	}

	if session.Status == models.SessionInProgress || session.Status == models.SessionCompleted {
		return appErrors.Clone(appErrors.ErrInvalidState, "a session that has started cannot be deleted")
	}

	if err := s.sessions.DeleteIfEmpty(ctx, id); err != nil {
		if errors.Is(err, repository.ErrHasEnrollments) {
			return appErrors.Clone(appErrors.ErrInvalidState, "a session with enrollments cannot be deleted")
		}
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}

	s.invalidateReportCaches(ctx)
	return nil
}

// applyUpdate mutates session in place according to the status gate.
// Immutable fields present in the request are rejected by name.
func (s *SessionService) applyUpdate(ctx context.Context, session *models.TutoringSession, req dto.UpdateSessionRequest) error {
	switch session.Status {
	case models.SessionCompleted:
		if fields := blockedSessionFields(req, false); len(fields) > 0 {
			return appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("a finished session only accepts descripcion changes, not: %s", strings.Join(fields, ", ")))
		}
	case models.SessionCancelled:
		return appErrors.Clone(appErrors.ErrInvalidState, "a cancelled session cannot be modified")
	case models.SessionInProgress:
		if fields := blockedSessionFields(req, true); len(fields) > 0 {
			return appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("a running session only accepts descripcion and estado changes, not: %s", strings.Join(fields, ", ")))
		}
	}

	if req.Status != nil && *req.Status != session.Status {
		if !transitionAllowed(session.Status, *req.Status) {
			return appErrors.Clone(appErrors.ErrInvalidState,
				fmt.Sprintf("cannot move session from %s to %s", session.Status, *req.Status))
		}
		session.Status = *req.Status
	}

	if req.Description != nil {
		session.Description = req.Description
	}

	if session.Status == models.SessionScheduled || req.Status != nil {
		if req.Subject != nil {
			session.Subject = *req.Subject
		}
		if req.Topic != nil {
			session.Topic = *req.Topic
		}
		if req.StartsAt != nil {
			if !req.StartsAt.After(s.now()) {
				return appErrors.Clone(appErrors.ErrValidation, "fechaProgramada must be in the future")
			}
			session.StartsAt = *req.StartsAt
		}
		if req.DurationMin != nil {
			session.DurationMin = *req.DurationMin
		}
		if req.Modality != nil {
			session.Modality = *req.Modality
		}
		if req.Location != nil {
			session.Location = req.Location
		}
		if req.MaxSeats != nil {
			enrolled, err := s.sessions.CountEnrollments(ctx, session.ID)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollments")
			}
			if *req.MaxSeats < enrolled {
				return appErrors.Clone(appErrors.ErrValidation,
					fmt.Sprintf("cupoMaximo cannot drop below the %d current enrollments", enrolled))
			}
			session.MaxSeats = *req.MaxSeats
		}
	}

	return nil
}

// blockedSessionFields lists the wire names of immutable fields carried by
// the request. allowStatus admits estado for sessions already running.
func blockedSessionFields(req dto.UpdateSessionRequest, allowStatus bool) []string {
	var fields []string
	if req.Subject != nil {
		fields = append(fields, "materia")
	}
	if req.Topic != nil {
		fields = append(fields, "tema")
	}
	if req.StartsAt != nil {
		fields = append(fields, "fechaProgramada")
	}
	if req.DurationMin != nil {
		fields = append(fields, "duracionMin")
	}
	if req.MaxSeats != nil {
		fields = append(fields, "cupoMaximo")
	}
	if req.Modality != nil {
		fields = append(fields, "modalidad")
	}
	if req.Location != nil {
		fields = append(fields, "ubicacion")
	}
	if !allowStatus && req.Status != nil {
		fields = append(fields, "estado")
	}
	return fields
}

func transitionAllowed(from, to models.SessionStatus) bool {
	for _, next := range sessionTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// resolveTutorID maps the actor to the tutor owning the session.
func (s *SessionService) resolveTutorID(ctx context.Context, actor models.Actor, requested string) (string, error) {
	if actor.IsAdmin() {
		if requested == "" {
			return "", appErrors.Clone(appErrors.ErrValidation, "tutorId is required for admin-created sessions")
		}
		if _, err := s.tutors.FindByID(ctx, requested); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return "", appErrors.Clone(appErrors.ErrNotFound, "tutor not found")
			}
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor")
		}
		return requested, nil
	}

	if actor.Role != models.RoleTutor {
		return "", appErrors.Clone(appErrors.ErrForbidden, "only tutors may create sessions")
	}
	tutor, err := s.tutors.FindByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "tutor profile not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor profile")
	}
	return tutor.ID, nil
}

func (s *SessionService) loadSession(ctx context.Context, id string) (*models.TutoringSession, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

// authorizeOwner admits admins and the owning tutor.
func (s *SessionService) authorizeOwner(ctx context.Context, actor models.Actor, session *models.TutoringSession) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role == models.RoleTutor {
		tutor, err := s.tutors.FindByID(ctx, session.TutorID)
		if err == nil && tutor.UserID == actor.UserID {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "you do not own this session")
}

func (s *SessionService) invalidateReportCaches(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "reports:*"); err != nil {
		s.logger.Warn("failed to invalidate report caches", zap.Error(err))
	}
}
