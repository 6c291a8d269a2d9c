package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusgo/tutorias-api/internal/dto"
	"github.com/campusgo/tutorias-api/internal/models"
	"github.com/campusgo/tutorias-api/internal/repository"
	appErrors "github.com/campusgo/tutorias-api/pkg/errors"
)

type enrollmentRepository interface {
	CreateWithCapacity(ctx context.Context, sessionID, studentID string) (*repository.EnrollmentResult, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	ListBySession(ctx context.Context, sessionID string) ([]models.EnrollmentDetail, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
	Delete(ctx context.Context, id string) error
	UpdateAttendance(ctx context.Context, id string, attendance models.AttendanceStatus) error
	UpdateRating(ctx context.Context, id string, rating int, comment *string) error
}

type enrollmentSessionRepository interface {
	FindByID(ctx context.Context, id string) (*models.TutoringSession, error)
}

type enrollmentStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
}

type enrollmentTutorRepository interface {
	FindByID(ctx context.Context, id string) (*models.Tutor, error)
}

// enrollmentNotifier is told about confirmed enrollments after the
// transaction commits. Implementations must not block.
type enrollmentNotifier interface {
	EnrollmentCreated(detail *models.EnrollmentDetail, seatsRemaining int)
}

// EnrollmentService enrolls students into group sessions. Capacity and
// duplicate checks run inside the repository transaction; this layer maps
// the outcomes onto the API error taxonomy and triggers side effects.
type EnrollmentService struct {
	enrollments enrollmentRepository
	sessions    enrollmentSessionRepository
	students    enrollmentStudentRepository
	tutors      enrollmentTutorRepository
	notifier    enrollmentNotifier
	cache       reportCacheInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEnrollmentService constructs an EnrollmentService instance. notifier
// and cache may be nil.
func NewEnrollmentService(enrollments enrollmentRepository, sessions enrollmentSessionRepository, students enrollmentStudentRepository, tutors enrollmentTutorRepository, notifier enrollmentNotifier, cache reportCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EnrollmentService{
		enrollments: enrollments,
		sessions:    sessions,
		students:    students,
		tutors:      tutors,
		notifier:    notifier,
		cache:       cache,
		validator:   validate,
		logger:      logger,
	}
}

// Enroll registers the acting student, or the student named by an admin,
// into a scheduled session with free seats.
func (s *EnrollmentService) Enroll(ctx context.Context, actor models.Actor, req dto.EnrollRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	studentID, err := s.resolveStudentID(ctx, actor, req.StudentID)
	if err != nil {
		return nil, err
	}

	result, err := s.enrollments.CreateWithCapacity(ctx, req.SessionID, studentID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		case errors.Is(err, repository.ErrSessionNotScheduled):
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "enrollment is only open while the session is scheduled")
		case errors.Is(err, repository.ErrSessionFull):
			return nil, appErrors.Clone(appErrors.ErrSessionFull, "the session has no seats left")
		case errors.Is(err, repository.ErrDuplicateEnrollment):
			return nil, appErrors.Clone(appErrors.ErrConflict, "student is already enrolled in this session")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
	}

	detail, err := s.enrollments.FindDetailByID(ctx, result.Enrollment.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	s.logger.Info("student enrolled",
		zap.String("enrollment_id", detail.ID),
		zap.String("session_id", detail.SessionID),
		zap.Int("seats_remaining", result.SeatsRemaining))

	if s.notifier != nil {
		s.notifier.EnrollmentCreated(detail, result.SeatsRemaining)
	}
	s.invalidateReportCaches(ctx)
	return detail, nil
}

// Unenroll removes an enrollment while its session is still scheduled.
func (s *EnrollmentService) Unenroll(ctx context.Context, actor models.Actor, enrollmentID string) error {
	enrollment, err := s.loadEnrollment(ctx, enrollmentID)
	if err != nil {
		return err
	}

	if err := s.authorizeStudent(ctx, actor, enrollment.StudentID); err != nil {
		return err
	}

	session, err := s.sessions.FindByID(ctx, enrollment.SessionID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.Status != models.SessionScheduled {
		return appErrors.Clone(appErrors.ErrInvalidState, "cannot leave a session that has started")
	}

	if err := s.enrollments.Delete(ctx, enrollmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove enrollment")
	}

	s.invalidateReportCaches(ctx)
	return nil
}

// RecordAttendance stores the attendance outcome. Only the tutor owning
// the session or an admin may record, and only once the session has
// started.
func (s *EnrollmentService) RecordAttendance(ctx context.Context, actor models.Actor, enrollmentID string, req dto.AttendanceRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	attendance := models.AttendanceStatus(req.Attendance)
	if !models.ValidAttendance(attendance) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "asistencia must be asistio, falta or justificada")
	}

	enrollment, err := s.loadEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.FindByID(ctx, enrollment.SessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	if err := s.authorizeSessionTutor(ctx, actor, session); err != nil {
		return nil, err
	}

	if session.Status != models.SessionInProgress && session.Status != models.SessionCompleted {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "attendance can only be recorded once the session has started")
	}

	if err := s.enrollments.UpdateAttendance(ctx, enrollmentID, attendance); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}

	s.invalidateReportCaches(ctx)
	return s.reloadDetail(ctx, enrollmentID)
}

// Rate stores the student's rating of a finished session they attended.
func (s *EnrollmentService) Rate(ctx context.Context, actor models.Actor, enrollmentID string, req dto.RatingRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rating payload")
	}

	enrollment, err := s.loadEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeStudent(ctx, actor, enrollment.StudentID); err != nil {
		return nil, err
	}

	session, err := s.sessions.FindByID(ctx, enrollment.SessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.Status != models.SessionCompleted {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "only finished sessions can be rated")
	}
	if enrollment.Attendance != models.AttendanceShowed {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "only attendees can rate a session")
	}

	if err := s.enrollments.UpdateRating(ctx, enrollmentID, req.Rating, req.Comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store rating")
	}

	s.invalidateReportCaches(ctx)
	return s.reloadDetail(ctx, enrollmentID)
}

func (s *EnrollmentService) reloadDetail(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	detail, err := s.enrollments.FindDetailByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return detail, nil
}

// ListBySession returns the roster of a session for its tutor or an admin.
func (s *EnrollmentService) ListBySession(ctx context.Context, actor models.Actor, sessionID string) ([]models.EnrollmentDetail, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	if err := s.authorizeSessionTutor(ctx, actor, session); err != nil {
		return nil, err
	}

	roster, err := s.enrollments.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return roster, nil
}

// ListMine returns the acting student's enrollment history.
func (s *EnrollmentService) ListMine(ctx context.Context, actor models.Actor) ([]models.EnrollmentDetail, error) {
	student, err := s.students.FindByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}

	history, err := s.enrollments.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return history, nil
}

func (s *EnrollmentService) resolveStudentID(ctx context.Context, actor models.Actor, requested string) (string, error) {
	if actor.IsAdmin() {
		if requested == "" {
			return "", appErrors.Clone(appErrors.ErrValidation, "estudianteId is required for admin enrollments")
		}
		if _, err := s.students.FindByID(ctx, requested); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return "", appErrors.Clone(appErrors.ErrNotFound, "student not found")
			}
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
		}
		return requested, nil
	}

	if actor.Role != models.RoleStudent {
		return "", appErrors.Clone(appErrors.ErrForbidden, "only students may enroll")
	}
	student, err := s.students.FindByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	return student.ID, nil
}

func (s *EnrollmentService) loadEnrollment(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.enrollments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

// authorizeStudent admits admins and the student owning the enrollment.
func (s *EnrollmentService) authorizeStudent(ctx context.Context, actor models.Actor, studentID string) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role == models.RoleStudent {
		student, err := s.students.FindByID(ctx, studentID)
		if err == nil && student.UserID == actor.UserID {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "you do not own this enrollment")
}

// authorizeSessionTutor admits admins and the tutor owning the session.
func (s *EnrollmentService) authorizeSessionTutor(ctx context.Context, actor models.Actor, session *models.TutoringSession) error {
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

func (s *EnrollmentService) invalidateReportCaches(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "reports:*"); err != nil {
		s.logger.Warn("failed to invalidate report caches", zap.Error(err))
	}
}
