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

type mockSessionRepo struct {
	sessions  map[string]models.TutoringSession
	details   map[string]*models.SessionDetail
	enrolled  map[string]int
	created   *models.TutoringSession
	updated   *models.TutoringSession
	deleteErr error
	deleted   []string
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*models.TutoringSession, error) {
	if s, ok := m.sessions[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSessionRepo) FindDetailByID(ctx context.Context, id string) (*models.SessionDetail, error) {
	if d, ok := m.details[id]; ok {
		return d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSessionRepo) List(ctx context.Context, filter models.SessionFilter) ([]models.SessionDetail, int, error) {
	return nil, 0, nil
}

func (m *mockSessionRepo) Create(ctx context.Context, session *models.TutoringSession) error {
	if session.ID == "" {
		session.ID = "new-session"
	}
	m.created = session
	return nil
}

func (m *mockSessionRepo) Update(ctx context.Context, session *models.TutoringSession) error {
	m.updated = session
	return nil
}

func (m *mockSessionRepo) CountEnrollments(ctx context.Context, sessionID string) (int, error) {
	return m.enrolled[sessionID], nil
}

func (m *mockSessionRepo) DeleteIfEmpty(ctx context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, id)
	return nil
}

type mockCacheInvalidator struct {
	patterns []string
}

func (m *mockCacheInvalidator) DeleteByPattern(ctx context.Context, pattern string) error {
	m.patterns = append(m.patterns, pattern)
	return nil
}

func sessionFixture(status models.SessionStatus) (*SessionService, *mockSessionRepo, *mockCacheInvalidator) {
	repo := &mockSessionRepo{
		sessions: map[string]models.TutoringSession{
			"s1": {
				ID:          "s1",
				TutorID:     testTutorID,
				Subject:     "Fisica",
				Topic:       "Cinematica",
				StartsAt:    mondayAt(10, 0),
				DurationMin: 60,
				MaxSeats:    10,
				Modality:    models.ModalityInPerson,
				Status:      status,
			},
		},
		enrolled: map[string]int{},
	}
	cache := &mockCacheInvalidator{}
	svc := NewSessionService(
		repo,
		&mockTutorReader{
			tutors: map[string]*models.Tutor{testTutorID: {ID: testTutorID, UserID: "user-tutor"}},
			byUser: map[string]*models.Tutor{"user-tutor": {ID: testTutorID, UserID: "user-tutor"}},
		},
		cache,
		validator.New(),
		zap.NewNop(),
	)
	svc.now = func() time.Time { return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC) }
	return svc, repo, cache
}

func tutorActor() models.Actor {
	return models.Actor{UserID: "user-tutor", Role: models.RoleTutor}
}

func strPtr(v string) *string                          { return &v }
func intPtr(v int) *int                                { return &v }
func statusPtr(v models.SessionStatus) *models.SessionStatus { return &v }

func TestSessionCreateByTutor(t *testing.T) {
	svc, repo, _ := sessionFixture(models.SessionScheduled)

	session, err := svc.Create(context.Background(), tutorActor(), dto.CreateSessionRequest{
		Subject:     "Quimica",
		Topic:       "Estequiometria",
		StartsAt:    mondayAt(16, 0),
		DurationMin: 90,
		MaxSeats:    15,
		Modality:    models.ModalityRemote,
	})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, testTutorID, session.TutorID)
	assert.Equal(t, models.SessionScheduled, session.Status)
}

func TestSessionCreateAdminRequiresTutor(t *testing.T) {
	svc, _, _ := sessionFixture(models.SessionScheduled)

	admin := models.Actor{UserID: "user-admin", Role: models.RoleAdmin}
	_, err := svc.Create(context.Background(), admin, dto.CreateSessionRequest{
		Subject:     "Quimica",
		Topic:       "Estequiometria",
		StartsAt:    mondayAt(16, 0),
		DurationMin: 90,
		MaxSeats:    15,
		Modality:    models.ModalityRemote,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSessionCreateForbiddenForStudent(t *testing.T) {
	svc, _, _ := sessionFixture(models.SessionScheduled)

	_, err := svc.Create(context.Background(), studentActor(), dto.CreateSessionRequest{
		Subject:     "Quimica",
		Topic:       "Estequiometria",
		StartsAt:    mondayAt(16, 0),
		DurationMin: 90,
		MaxSeats:    15,
		Modality:    models.ModalityRemote,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSessionUpdateScheduledAcceptsAllFields(t *testing.T) {
	svc, repo, cache := sessionFixture(models.SessionScheduled)

	session, err := svc.Update(context.Background(), tutorActor(), "s1", dto.UpdateSessionRequest{
		Subject:  strPtr("Fisica II"),
		MaxSeats: intPtr(20),
	})
	require.NoError(t, err)
	assert.Equal(t, "Fisica II", session.Subject)
	assert.Equal(t, 20, session.MaxSeats)
	require.NotNil(t, repo.updated)
	assert.Contains(t, cache.patterns, "reports:*")
}

func TestSessionUpdateInProgressRejectsSubject(t *testing.T) {
	svc, _, _ := sessionFixture(models.SessionInProgress)

	_, err := svc.Update(context.Background(), tutorActor(), "s1", dto.UpdateSessionRequest{
		Subject: strPtr("Fisica II"),
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "materia")
}

func TestSessionUpdateInProgressAcceptsDescriptionAndStatus(t *testing.T) {
	svc, _, _ := sessionFixture(models.SessionInProgress)

	session, err := svc.Update(context.Background(), tutorActor(), "s1", dto.UpdateSessionRequest{
		Description: strPtr("se cubrieron los dos primeros temas"),
		Status:      statusPtr(models.SessionCompleted),
	})
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, session.Status)
	require.NotNil(t, session.Description)
}

func TestSessionUpdateCompletedOnlyDescription(t *testing.T) {
	svc, _, _ := sessionFixture(models.SessionCompleted)

	session, err := svc.Update(context.Background(), tutorActor(), "s1", dto.UpdateSessionRequest{
		Description: strPtr("resumen final"),
	})
	require.NoError(t, err)
	require.NotNil(t, session.Description)
	assert.Equal(t, "resumen final", *session.Description)

	_, err = svc.Update(context.Background(), tutorActor(), "s1", dto.UpdateSessionRequest{
		Status: statusPtr(models.SessionCancelled),
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "estado")
}

func TestSessionUpdateCancelledRejectsEverything(t *testing.T) {
	svc, _, _ := sessionFixture(models.SessionCancelled)

	_, err := svc.Update(context.Background(), tutorActor(), "s1", dto.UpdateSessionRequest{
		Description: strPtr("nota"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestSessionUpdateInvalidTransition(t *testing.T) {
	svc, _, _ := sessionFixture(models.SessionInProgress)

	_, err := svc.Update(context.Background(), tutorActor(), "s1", dto.UpdateSessionRequest{
		Status: statusPtr(models.SessionScheduled),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestSessionUpdateSeatsBelowEnrollment(t *testing.T) {
	svc, repo, _ := sessionFixture(models.SessionScheduled)
	repo.enrolled["s1"] = 8

	_, err := svc.Update(context.Background(), tutorActor(), "s1", dto.UpdateSessionRequest{
		MaxSeats: intPtr(5),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSessionUpdateForbiddenForOtherTutor(t *testing.T) {
	svc, _, _ := sessionFixture(models.SessionScheduled)

	other := models.Actor{UserID: "user-other-tutor", Role: models.RoleTutor}
	_, err := svc.Update(context.Background(), other, "s1", dto.UpdateSessionRequest{
		Description: strPtr("nota"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSessionDeleteWithEnrollments(t *testing.T) {
	svc, repo, _ := sessionFixture(models.SessionScheduled)
	repo.deleteErr = repository.ErrHasEnrollments

	err := svc.Delete(context.Background(), tutorActor(), "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestSessionDeleteAfterStartRejected(t *testing.T) {
	svc, repo, _ := sessionFixture(models.SessionInProgress)

	err := svc.Delete(context.Background(), tutorActor(), "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deleted)
}

func TestSessionDeleteEmpty(t *testing.T) {
	svc, repo, cache := sessionFixture(models.SessionScheduled)

	err := svc.Delete(context.Background(), tutorActor(), "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, repo.deleted)
	assert.Contains(t, cache.patterns, "reports:*")
}
