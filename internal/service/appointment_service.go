package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusgo/tutorias-api/internal/dto"
	"github.com/campusgo/tutorias-api/internal/models"
	"github.com/campusgo/tutorias-api/internal/repository"
	appErrors "github.com/campusgo/tutorias-api/pkg/errors"
)

type appointmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Appointment, error)
	CreateExclusive(ctx context.Context, appt *models.Appointment) error
	UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) error
	ListUpcoming(ctx context.Context, filter repository.UpcomingFilter) ([]models.AppointmentDetail, error)
}

type appointmentTutorRepository interface {
	FindByID(ctx context.Context, id string) (*models.Tutor, error)
	FindByUserID(ctx context.Context, userID string) (*models.Tutor, error)
}

type appointmentStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
}

type appointmentUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// AppointmentService books and manages 1:1 appointments. Creation matches
// the requested instant against the tutor's declared weekly availability
// and lets the repository's exclusive insert arbitrate concurrent requests
// for the same slot.
type AppointmentService struct {
	appointments appointmentRepository
	tutors       appointmentTutorRepository
	students     appointmentStudentRepository
	users        appointmentUserRepository
	availability AvailabilityPolicy
	validator    *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
}

// NewAppointmentService constructs an AppointmentService instance.
func NewAppointmentService(appointments appointmentRepository, tutors appointmentTutorRepository, students appointmentStudentRepository, users appointmentUserRepository, validate *validator.Validate, logger *zap.Logger) *AppointmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AppointmentService{
		appointments: appointments,
		tutors:       tutors,
		students:     students,
		users:        users,
		availability: DefaultAvailabilityPolicy(),
		validator:    validate,
		logger:       logger,
		now:          time.Now,
	}
}

// Create books an appointment for the acting student, or for the student
// named in the request when the actor is an admin.
func (s *AppointmentService) Create(ctx context.Context, actor models.Actor, req dto.CreateAppointmentRequest) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid appointment payload")
	}

	studentID, err := s.resolveStudentID(ctx, actor, req.StudentID)
	if err != nil {
		return nil, err
	}

	tutor, err := s.tutors.FindByID(ctx, req.TutorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor")
	}

	tutorUser, err := s.users.FindByID(ctx, tutor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor account")
	}
	if !tutorUser.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "tutor account is inactive")
	}

	if !req.ScheduledAt.After(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "fechaProgramada must be in the future")
	}

	switch s.availability.Check(tutor.Availability, req.ScheduledAt) {
	case AvailabilityOK:
	case AvailabilityNotConfigured:
		return nil, appErrors.Clone(appErrors.ErrValidation, "tutor has no published availability")
	case AvailabilityDayOff:
		day := s.availability.DayName(req.ScheduledAt)
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("tutor is not available on %s", day))
	case AvailabilityOutsideHours:
		return nil, appErrors.Clone(appErrors.ErrValidation, "requested time is outside the tutor's hours")
	}

	appointment := &models.Appointment{
		StudentID:   studentID,
		TutorID:     req.TutorID,
		ScheduledAt: req.ScheduledAt,
		Subject:     req.Subject,
		Status:      models.AppointmentPending,
	}

	if err := s.appointments.CreateExclusive(ctx, appointment); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "the tutor already has an appointment at that time")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create appointment")
	}

	s.logger.Info("appointment created",
		zap.String("appointment_id", appointment.ID),
		zap.String("tutor_id", appointment.TutorID),
		zap.Time("scheduled_at", appointment.ScheduledAt))
	return appointment, nil
}

// Confirm transitions an appointment to confirmada. The owning student,
// the assigned tutor, or an admin may confirm. Confirming twice is a
// no-op; confirming a cancelled appointment is rejected.
func (s *AppointmentService) Confirm(ctx context.Context, actor models.Actor, id string) (*models.Appointment, error) {
	appointment, err := s.loadAppointment(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeParticipant(ctx, actor, appointment); err != nil {
		return nil, err
	}

	switch appointment.Status {
	case models.AppointmentConfirmed:
		return appointment, nil
	case models.AppointmentCancelled:
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "a cancelled appointment cannot be confirmed")
	}

	if err := s.appointments.UpdateStatus(ctx, id, models.AppointmentConfirmed); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to confirm appointment")
	}
	appointment.Status = models.AppointmentConfirmed
	return appointment, nil
}

// Cancel transitions an appointment to cancelada, releasing the slot for
// rebooking. The owning student, the assigned tutor, or an admin may cancel.
func (s *AppointmentService) Cancel(ctx context.Context, actor models.Actor, id string) (*models.Appointment, error) {
	appointment, err := s.loadAppointment(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeParticipant(ctx, actor, appointment); err != nil {
		return nil, err
	}

	if appointment.Status == models.AppointmentCancelled {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "appointment is already cancelled")
	}

	if err := s.appointments.UpdateStatus(ctx, id, models.AppointmentCancelled); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel appointment")
	}
	appointment.Status = models.AppointmentCancelled

	s.logger.Info("appointment cancelled",
		zap.String("appointment_id", appointment.ID),
		zap.String("cancelled_by", actor.UserID))
	return appointment, nil
}

// ListUpcoming returns future non-cancelled appointments scoped to the
// actor: students see their own, tutors theirs, admins may filter freely.
func (s *AppointmentService) ListUpcoming(ctx context.Context, actor models.Actor, req dto.ListAppointmentsRequest) ([]models.AppointmentDetail, error) {
	filter := repository.UpcomingFilter{After: s.now()}

	switch actor.Role {
	case models.RoleStudent:
		student, err := s.students.FindByUserID(ctx, actor.UserID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
		}
		filter.StudentID = student.ID
	case models.RoleTutor:
		tutor, err := s.tutorByUser(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		filter.TutorID = tutor.ID
	default:
		filter.StudentID = req.StudentID
		filter.TutorID = req.TutorID
	}

	appointments, err := s.appointments.ListUpcoming(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list appointments")
	}
	return appointments, nil
}

// resolveStudentID maps the actor to the student the booking belongs to.
// Admins may book on behalf of any student; students always book for
// themselves regardless of the payload.
func (s *AppointmentService) resolveStudentID(ctx context.Context, actor models.Actor, requested string) (string, error) {
	if actor.IsAdmin() {
		if requested == "" {
			return "", appErrors.Clone(appErrors.ErrValidation, "estudianteId is required for admin bookings")
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
		return "", appErrors.Clone(appErrors.ErrForbidden, "only students may book appointments")
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

func (s *AppointmentService) loadAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	appointment, err := s.appointments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointment")
	}
	return appointment, nil
}

// authorizeParticipant admits admins, the owning student, and the assigned
// tutor.
func (s *AppointmentService) authorizeParticipant(ctx context.Context, actor models.Actor, appointment *models.Appointment) error {
	if actor.IsAdmin() {
		return nil
	}

	switch actor.Role {
	case models.RoleStudent:
		student, err := s.students.FindByID(ctx, appointment.StudentID)
		if err == nil && student.UserID == actor.UserID {
			return nil
		}
	case models.RoleTutor:
		tutor, err := s.tutors.FindByID(ctx, appointment.TutorID)
		if err == nil && tutor.UserID == actor.UserID {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "you are not a participant of this appointment")
}

func (s *AppointmentService) tutorByUser(ctx context.Context, userID string) (*models.Tutor, error) {
	tutor, err := s.tutors.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor profile")
	}
	return tutor, nil
}
