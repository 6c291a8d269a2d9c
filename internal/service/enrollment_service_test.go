package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusgo/tutorias-api/internal/dto"
	"github.com/campusgo/tutorias-api/internal/models"
	"github.com/campusgo/tutorias-api/internal/repository"
	appErrors "github.com/campusgo/tutorias-api/pkg/errors"
)

const testSessionID = "2e9d8c7b-6a5f-4e3d-9c1b-0a9f8e7d6c5b"

type mockEnrollmentRepo struct {
	enrollments map[string]models.Enrollment
	details     map[string]*models.EnrollmentDetail
	createErr   error
	result      *repository.EnrollmentResult
	deleted     []string
	attendance  map[string]models.AttendanceStatus
	ratings     map[string]int
}

func (m *mockEnrollmentRepo) CreateWithCapacity(ctx context.Context, sessionID, studentID string) (*repository.EnrollmentResult, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.result, nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	if d, ok := m.details[id]; ok {
		return d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) ListBySession(ctx context.Context, sessionID string) ([]models.EnrollmentDetail, error) {
	var out []models.EnrollmentDetail
	for _, d := range m.details {
		if d.SessionID == sessionID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *mockEnrollmentRepo) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	var out []models.EnrollmentDetail
	for _, d := range m.details {
		if d.StudentID == studentID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *mockEnrollmentRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockEnrollmentRepo) UpdateAttendance(ctx context.Context, id string, attendance models.AttendanceStatus) error {
	if m.attendance == nil {
		m.attendance = make(map[string]models.AttendanceStatus)
	}
	m.attendance[id] = attendance
	return nil
}

func (m *mockEnrollmentRepo) UpdateRating(ctx context.Context, id string, rating int, comment *string) error {
	if m.ratings == nil {
		m.ratings = make(map[string]int)
	}
	m.ratings[id] = rating
	return nil
}

type mockEnrollmentNotifier struct {
	details []*models.EnrollmentDetail
	seats   []int
}

func (m *mockEnrollmentNotifier) EnrollmentCreated(detail *models.EnrollmentDetail, seatsRemaining int) {
	m.details = append(m.details, detail)
	m.seats = append(m.seats, seatsRemaining)
}

type enrollmentFixtureDeps struct {
	repo     *mockEnrollmentRepo
	sessions *mockSessionRepo
	notifier *mockEnrollmentNotifier
	cache    *mockCacheInvalidator
}

func enrollmentFixture(sessionStatus models.SessionStatus) (*EnrollmentService, *enrollmentFixtureDeps) {
	enrollment := models.Enrollment{
		ID:         "e1",
		SessionID:  testSessionID,
		StudentID:  testStudentID,
		Attendance: models.AttendancePending,
	}
	deps := &enrollmentFixtureDeps{
		repo: &mockEnrollmentRepo{
			enrollments: map[string]models.Enrollment{"e1": enrollment},
			details: map[string]*models.EnrollmentDetail{
				"e1": {Enrollment: enrollment, StudentName: "Ana Diaz", SessionSubject: "Fisica"},
			},
			result: &repository.EnrollmentResult{
				Enrollment:     &enrollment,
				SeatsRemaining: 4,
			},
		},
		sessions: &mockSessionRepo{
			sessions: map[string]models.TutoringSession{
				testSessionID: {ID: testSessionID, TutorID: testTutorID, Status: sessionStatus},
			},
		},
		notifier: &mockEnrollmentNotifier{},
		cache:    &mockCacheInvalidator{},
	}
	svc := NewEnrollmentService(
		deps.repo,
		deps.sessions,
		&mockStudentReader{
			students: map[string]*models.Student{testStudentID: {ID: testStudentID, UserID: "user-student"}},
			byUser:   map[string]*models.Student{"user-student": {ID: testStudentID, UserID: "user-student"}},
		},
		&mockTutorReader{
			tutors: map[string]*models.Tutor{testTutorID: {ID: testTutorID, UserID: "user-tutor"}},
		},
		deps.notifier,
		deps.cache,
		validator.New(),
		zap.NewNop(),
	)
	return svc, deps
}

func TestEnrollHappyPathNotifies(t *testing.T) {
	svc, deps := enrollmentFixture(models.SessionScheduled)

	detail, err := svc.Enroll(context.Background(), studentActor(), dto.EnrollRequest{SessionID: testSessionID})
	require.NoError(t, err)
	assert.Equal(t, "e1", detail.ID)

	require.Len(t, deps.notifier.details, 1)
	assert.Equal(t, 4, deps.notifier.seats[0])
	assert.Contains(t, deps.cache.patterns, "reports:*")
}

func TestEnrollSessionFull(t *testing.T) {
	svc, deps := enrollmentFixture(models.SessionScheduled)
	deps.repo.createErr = repository.ErrSessionFull

	_, err := svc.Enroll(context.Background(), studentActor(), dto.EnrollRequest{SessionID: testSessionID})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrSessionFull.Code, appErr.Code)
	assert.Empty(t, deps.notifier.details)
}

func TestEnrollDuplicate(t *testing.T) {
	svc, deps := enrollmentFixture(models.SessionScheduled)
	deps.repo.createErr = repository.ErrDuplicateEnrollment

	_, err := svc.Enroll(context.Background(), studentActor(), dto.EnrollRequest{SessionID: testSessionID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestEnrollSessionNotScheduled(t *testing.T) {
	svc, deps := enrollmentFixture(models.SessionInProgress)
	deps.repo.createErr = repository.ErrSessionNotScheduled

	_, err := svc.Enroll(context.Background(), studentActor(), dto.EnrollRequest{SessionID: testSessionID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestEnrollSessionMissing(t *testing.T) {
	svc, deps := enrollmentFixture(models.SessionScheduled)
	deps.repo.createErr = sql.ErrNoRows

	_, err := svc.Enroll(context.Background(), studentActor(), dto.EnrollRequest{SessionID: testSessionID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEnrollForbiddenForTutor(t *testing.T) {
	svc, _ := enrollmentFixture(models.SessionScheduled)

	_, err := svc.Enroll(context.Background(), tutorActor(), dto.EnrollRequest{SessionID: testSessionID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestUnenrollWhileScheduled(t *testing.T) {
	svc, deps := enrollmentFixture(models.SessionScheduled)

	err := svc.Unenroll(context.Background(), studentActor(), "e1")
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, deps.repo.deleted)
}

func TestUnenrollAfterStartRejected(t *testing.T) {
	svc, deps := enrollmentFixture(models.SessionInProgress)

	err := svc.Unenroll(context.Background(), studentActor(), "e1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
	assert.Empty(t, deps.repo.deleted)
}

func TestUnenrollForbiddenForStranger(t *testing.T) {
	svc, _ := enrollmentFixture(models.SessionScheduled)

	stranger := models.Actor{UserID: "user-other", Role: models.RoleStudent}
	err := svc.Unenroll(context.Background(), stranger, "e1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestRecordAttendanceByOwningTutor(t *testing.T) {
	svc, deps := enrollmentFixture(models.SessionInProgress)

	detail, err := svc.RecordAttendance(context.Background(), tutorActor(), "e1", dto.AttendanceRequest{
		Attendance: "asistio",
	})
	require.NoError(t, err)
	assert.NotNil(t, detail)
	assert.Equal(t, models.AttendanceShowed, deps.repo.attendance["e1"])
}

func TestRecordAttendanceBeforeStartRejected(t *testing.T) {
	svc, _ := enrollmentFixture(models.SessionScheduled)

	_, err := svc.RecordAttendance(context.Background(), tutorActor(), "e1", dto.AttendanceRequest{
		Attendance: "falta",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestRecordAttendanceForbiddenForStudent(t *testing.T) {
	svc, _ := enrollmentFixture(models.SessionInProgress)

	_, err := svc.RecordAttendance(context.Background(), studentActor(), "e1", dto.AttendanceRequest{
		Attendance: "asistio",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestRateFinishedAttendedSession(t *testing.T) {
	svc, deps := enrollmentFixture(models.SessionCompleted)
	e := deps.repo.enrollments["e1"]
	e.Attendance = models.AttendanceShowed
	deps.repo.enrollments["e1"] = e

	detail, err := svc.Rate(context.Background(), studentActor(), "e1", dto.RatingRequest{Rating: 5})
	require.NoError(t, err)
	assert.NotNil(t, detail)
	assert.Equal(t, 5, deps.repo.ratings["e1"])
}

func TestRateUnfinishedSessionRejected(t *testing.T) {
	svc, deps := enrollmentFixture(models.SessionInProgress)
	e := deps.repo.enrollments["e1"]
	e.Attendance = models.AttendanceShowed
	deps.repo.enrollments["e1"] = e

	_, err := svc.Rate(context.Background(), studentActor(), "e1", dto.RatingRequest{Rating: 4})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestRateWithoutAttendanceRejected(t *testing.T) {
	svc, _ := enrollmentFixture(models.SessionCompleted)

	_, err := svc.Rate(context.Background(), studentActor(), "e1", dto.RatingRequest{Rating: 4})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestListBySessionForbiddenForOtherTutor(t *testing.T) {
	svc, _ := enrollmentFixture(models.SessionScheduled)

	other := models.Actor{UserID: "user-other-tutor", Role: models.RoleTutor}
	_, err := svc.ListBySession(context.Background(), other, testSessionID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestListMineReturnsOwnHistory(t *testing.T) {
	svc, _ := enrollmentFixture(models.SessionScheduled)

	history, err := svc.ListMine(context.Background(), studentActor())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, testStudentID, history[0].StudentID)
}
