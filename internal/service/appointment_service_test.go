package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusgo/tutorias-api/internal/dto"
	"github.com/campusgo/tutorias-api/internal/models"
	"github.com/campusgo/tutorias-api/internal/repository"
	appErrors "github.com/campusgo/tutorias-api/pkg/errors"
)

const (
	testTutorID      = "7b1d6f1a-3f2e-4b50-9c63-2a3d4e5f6a7b"
	testSpareTutorID = "aaf0d0a2-6b1c-4d2e-8f3a-1b2c3d4e5f6a"
	testStudentID    = "5c3a2b1d-9e8f-4a6b-8c7d-0e1f2a3b4c5d"
)

type mockAppointmentRepo struct {
	appointments map[string]models.Appointment
	created      *models.Appointment
	createErr    error
	statuses     map[string]models.AppointmentStatus
	listed       []models.AppointmentDetail
	lastFilter   repository.UpcomingFilter
}

func (m *mockAppointmentRepo) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	if a, ok := m.appointments[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAppointmentRepo) CreateExclusive(ctx context.Context, appt *models.Appointment) error {
	if m.createErr != nil {
		return m.createErr
	}
	if appt.ID == "" {
		appt.ID = "new-appt"
	}
	m.created = appt
	return nil
}

func (m *mockAppointmentRepo) UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) error {
	if m.statuses == nil {
		m.statuses = make(map[string]models.AppointmentStatus)
	}
	m.statuses[id] = status
	return nil
}

func (m *mockAppointmentRepo) ListUpcoming(ctx context.Context, filter repository.UpcomingFilter) ([]models.AppointmentDetail, error) {
	m.lastFilter = filter
	return m.listed, nil
}

type mockTutorReader struct {
	tutors  map[string]*models.Tutor
	byUser  map[string]*models.Tutor
	details map[string]*models.TutorDetail
}

func (m *mockTutorReader) FindByID(ctx context.Context, id string) (*models.Tutor, error) {
	if t, ok := m.tutors[id]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTutorReader) FindByUserID(ctx context.Context, userID string) (*models.Tutor, error) {
	if t, ok := m.byUser[userID]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTutorReader) FindDetailByID(ctx context.Context, id string) (*models.TutorDetail, error) {
	if d, ok := m.details[id]; ok {
		return d, nil
	}
	return nil, sql.ErrNoRows
}

type mockStudentReader struct {
	students map[string]*models.Student
	byUser   map[string]*models.Student
	details  map[string]*models.StudentDetail
}

func (m *mockStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentReader) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	if s, ok := m.byUser[userID]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentReader) FindDetailByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if d, ok := m.details[id]; ok {
		return d, nil
	}
	return nil, sql.ErrNoRows
}

type mockUserReader struct {
	users map[string]*models.User
}

func (m *mockUserReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func appointmentFixture() (*AppointmentService, *mockAppointmentRepo) {
	tutor := &models.Tutor{
		ID:     testTutorID,
		UserID: "user-tutor",
		Availability: models.WeeklyAvailability{
			"lunes": {"08:00-12:00"},
		},
	}
	repo := &mockAppointmentRepo{appointments: map[string]models.Appointment{}}
	svc := NewAppointmentService(
		repo,
		&mockTutorReader{
			tutors: map[string]*models.Tutor{testTutorID: tutor},
			byUser: map[string]*models.Tutor{"user-tutor": tutor},
		},
		&mockStudentReader{
			students: map[string]*models.Student{testStudentID: {ID: testStudentID, UserID: "user-student"}},
			byUser:   map[string]*models.Student{"user-student": {ID: testStudentID, UserID: "user-student"}},
		},
		&mockUserReader{users: map[string]*models.User{
			"user-tutor": {ID: "user-tutor", Active: true},
		}},
		validator.New(),
		zap.NewNop(),
	)
	svc.now = func() time.Time { return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC) }
	return svc, repo
}

func studentActor() models.Actor {
	return models.Actor{UserID: "user-student", Role: models.RoleStudent}
}

func TestAppointmentCreateWithinAvailability(t *testing.T) {
	svc, repo := appointmentFixture()

	appt, err := svc.Create(context.Background(), studentActor(), dto.CreateAppointmentRequest{
		TutorID:     testTutorID,
		ScheduledAt: mondayAt(9, 30),
		Subject:     "Calculo",
	})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, testStudentID, appt.StudentID)
	assert.Equal(t, models.AppointmentPending, appt.Status)
}

func TestAppointmentCreateOutsideHours(t *testing.T) {
	svc, repo := appointmentFixture()

	_, err := svc.Create(context.Background(), studentActor(), dto.CreateAppointmentRequest{
		TutorID:     testTutorID,
		ScheduledAt: mondayAt(13, 0),
		Subject:     "Calculo",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestAppointmentCreateDayOff(t *testing.T) {
	svc, _ := appointmentFixture()

	tuesday := time.Date(2026, 9, 8, 9, 0, 0, 0, time.UTC)
	_, err := svc.Create(context.Background(), studentActor(), dto.CreateAppointmentRequest{
		TutorID:     testTutorID,
		ScheduledAt: tuesday,
		Subject:     "Calculo",
	})
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "martes")
}

func TestAppointmentCreateNoAvailability(t *testing.T) {
	svc, _ := appointmentFixture()
	bare := &models.Tutor{ID: testSpareTutorID, UserID: "user-tutor"}
	svc.tutors.(*mockTutorReader).tutors[testSpareTutorID] = bare

	_, err := svc.Create(context.Background(), studentActor(), dto.CreateAppointmentRequest{
		TutorID:     testSpareTutorID,
		ScheduledAt: mondayAt(9, 0),
		Subject:     "Calculo",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAppointmentCreatePastRejected(t *testing.T) {
	svc, _ := appointmentFixture()

	past := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	_, err := svc.Create(context.Background(), studentActor(), dto.CreateAppointmentRequest{
		TutorID:     testTutorID,
		ScheduledAt: past,
		Subject:     "Calculo",
	})
	require.Error(t, err)
}

func TestAppointmentCreateSlotTaken(t *testing.T) {
	svc, repo := appointmentFixture()
	repo.createErr = repository.ErrSlotTaken

	_, err := svc.Create(context.Background(), studentActor(), dto.CreateAppointmentRequest{
		TutorID:     testTutorID,
		ScheduledAt: mondayAt(9, 0),
		Subject:     "Calculo",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestAppointmentConfirmIdempotent(t *testing.T) {
	svc, repo := appointmentFixture()
	repo.appointments["a1"] = models.Appointment{
		ID: "a1", TutorID: testTutorID, StudentID: testStudentID,
		Status: models.AppointmentConfirmed,
	}

	actor := models.Actor{UserID: "user-tutor", Role: models.RoleTutor}
	appt, err := svc.Confirm(context.Background(), actor, "a1")
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentConfirmed, appt.Status)
	assert.Empty(t, repo.statuses)
}

func TestAppointmentConfirmCancelledRejected(t *testing.T) {
	svc, repo := appointmentFixture()
	repo.appointments["a1"] = models.Appointment{
		ID: "a1", TutorID: testTutorID, StudentID: testStudentID,
		Status: models.AppointmentCancelled,
	}

	actor := models.Actor{UserID: "user-tutor", Role: models.RoleTutor}
	_, err := svc.Confirm(context.Background(), actor, "a1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestAppointmentConfirmByOwningStudent(t *testing.T) {
	svc, repo := appointmentFixture()
	repo.appointments["a1"] = models.Appointment{
		ID: "a1", TutorID: testTutorID, StudentID: testStudentID,
		Status: models.AppointmentPending,
	}

	appt, err := svc.Confirm(context.Background(), studentActor(), "a1")
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentConfirmed, appt.Status)
	assert.Equal(t, models.AppointmentConfirmed, repo.statuses["a1"])
}

func TestAppointmentConfirmForbiddenForStranger(t *testing.T) {
	svc, repo := appointmentFixture()
	repo.appointments["a1"] = models.Appointment{
		ID: "a1", TutorID: testTutorID, StudentID: testStudentID,
		Status: models.AppointmentPending,
	}

	stranger := models.Actor{UserID: "user-other", Role: models.RoleStudent}
	_, err := svc.Confirm(context.Background(), stranger, "a1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAppointmentCancelAlreadyCancelled(t *testing.T) {
	svc, repo := appointmentFixture()
	repo.appointments["a1"] = models.Appointment{
		ID: "a1", TutorID: testTutorID, StudentID: testStudentID,
		Status: models.AppointmentCancelled,
	}

	_, err := svc.Cancel(context.Background(), studentActor(), "a1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestAppointmentCancelByOwnerStudent(t *testing.T) {
	svc, repo := appointmentFixture()
	repo.appointments["a1"] = models.Appointment{
		ID: "a1", TutorID: testTutorID, StudentID: testStudentID,
		Status: models.AppointmentPending,
	}

	appt, err := svc.Cancel(context.Background(), studentActor(), "a1")
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentCancelled, appt.Status)
	assert.Equal(t, models.AppointmentCancelled, repo.statuses["a1"])
}

func TestAppointmentCancelForbiddenForStranger(t *testing.T) {
	svc, repo := appointmentFixture()
	repo.appointments["a1"] = models.Appointment{
		ID: "a1", TutorID: testTutorID, StudentID: testStudentID,
		Status: models.AppointmentPending,
	}

	stranger := models.Actor{UserID: "user-other", Role: models.RoleStudent}
	_, err := svc.Cancel(context.Background(), stranger, "a1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAppointmentListScopedToStudent(t *testing.T) {
	svc, repo := appointmentFixture()

	_, err := svc.ListUpcoming(context.Background(), studentActor(), dto.ListAppointmentsRequest{})
	require.NoError(t, err)
	assert.Equal(t, testStudentID, repo.lastFilter.StudentID)
	assert.Empty(t, repo.lastFilter.TutorID)
}

func TestAppointmentListScopedToTutor(t *testing.T) {
	svc, repo := appointmentFixture()

	actor := models.Actor{UserID: "user-tutor", Role: models.RoleTutor}
	_, err := svc.ListUpcoming(context.Background(), actor, dto.ListAppointmentsRequest{})
	require.NoError(t, err)
	assert.Equal(t, testTutorID, repo.lastFilter.TutorID)
	assert.Empty(t, repo.lastFilter.StudentID)
}

func TestAppointmentListAdminFilters(t *testing.T) {
	svc, repo := appointmentFixture()

	admin := models.Actor{UserID: "user-admin", Role: models.RoleAdmin}
	_, err := svc.ListUpcoming(context.Background(), admin, dto.ListAppointmentsRequest{TutorID: testTutorID})
	require.NoError(t, err)
	assert.Equal(t, testTutorID, repo.lastFilter.TutorID)
}
