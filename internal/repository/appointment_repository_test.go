package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/campusgo/tutorias-api/internal/models"
)

func newAppointmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func pendingAppointment() *models.Appointment {
	return &models.Appointment{
		StudentID:   "student-1",
		TutorID:     "tutor-1",
		ScheduledAt: time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC),
		Subject:     "Calculo",
	}
}

func TestAppointmentCreateExclusiveFreeSlot(t *testing.T) {
	db, mock, cleanup := newAppointmentRepoMock(t)
	defer cleanup()

	repo := NewAppointmentRepository(db)
	appt := pendingAppointment()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM appointments")).
		WithArgs(appt.TutorID, appt.ScheduledAt, models.AppointmentPending, models.AppointmentConfirmed).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO appointments")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateExclusive(context.Background(), appt))
	require.NotEmpty(t, appt.ID)
	require.Equal(t, models.AppointmentPending, appt.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentCreateExclusiveProbeFindsConflict(t *testing.T) {
	db, mock, cleanup := newAppointmentRepoMock(t)
	defer cleanup()

	repo := NewAppointmentRepository(db)
	appt := pendingAppointment()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM appointments")).
		WithArgs(appt.TutorID, appt.ScheduledAt, models.AppointmentPending, models.AppointmentConfirmed).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("existing-appt"))
	mock.ExpectRollback()

	err := repo.CreateExclusive(context.Background(), appt)
	require.ErrorIs(t, err, ErrSlotTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentCreateExclusiveUniqueViolationBackstop(t *testing.T) {
	db, mock, cleanup := newAppointmentRepoMock(t)
	defer cleanup()

	repo := NewAppointmentRepository(db)
	appt := pendingAppointment()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM appointments")).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO appointments")).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.CreateExclusive(context.Background(), appt)
	require.ErrorIs(t, err, ErrSlotTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentUpdateStatus(t *testing.T) {
	db, mock, cleanup := newAppointmentRepoMock(t)
	defer cleanup()

	repo := NewAppointmentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE appointments SET status")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "a1", models.AppointmentConfirmed))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentListUpcomingFilters(t *testing.T) {
	db, mock, cleanup := newAppointmentRepoMock(t)
	defer cleanup()

	repo := NewAppointmentRepository(db)
	after := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "student_id", "tutor_id", "scheduled_at", "subject", "status", "created_at", "updated_at", "tutor_name", "student_name"}).
		AddRow("a1", "student-1", "tutor-1", after.Add(24*time.Hour), "Calculo", "pendiente", after, after, "Mario Ruiz", "Ana Diaz")
	mock.ExpectQuery(regexp.QuoteMeta("FROM appointments a")).
		WithArgs(after, models.AppointmentCancelled, "tutor-1").
		WillReturnRows(rows)

	appointments, err := repo.ListUpcoming(context.Background(), UpcomingFilter{TutorID: "tutor-1", After: after})
	require.NoError(t, err)
	require.Len(t, appointments, 1)
	require.Equal(t, "Mario Ruiz", appointments[0].TutorName)
	require.NoError(t, mock.ExpectationsWereMet())
}
