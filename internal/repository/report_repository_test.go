package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/campusgo/tutorias-api/internal/models"
)

func enrollmentDetailRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "session_id", "student_id", "attendance", "rating", "comment", "enrolled_at",
		"student_name", "student_email", "session_subject", "session_topic",
		"session_starts", "session_status", "tutor_name",
	})
}

func TestReportStudentEnrollmentsNewestEnrollmentFirst(t *testing.T) {
	db, mock, cleanup := newAppointmentRepoMock(t)
	defer cleanup()

	repo := NewReportRepository(db)
	rows := enrollmentDetailRows().
		AddRow("e2", "s2", "st1", models.AttendancePending, nil, nil,
			time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC),
			"Ana Diaz", "ana@uni.edu", "Fisica", "Ondas",
			time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC), models.SessionScheduled, "Luis Rojas").
		AddRow("e1", "s1", "st1", models.AttendanceShowed, 5, nil,
			time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
			"Ana Diaz", "ana@uni.edu", "Calculo", "Limites",
			time.Date(2026, 8, 25, 8, 0, 0, 0, time.UTC), models.SessionCompleted, "Luis Rojas")

	mock.ExpectQuery(`WHERE e\.student_id = \$1 ORDER BY e\.enrolled_at DESC`).
		WithArgs("st1").
		WillReturnRows(rows)

	enrollments, err := repo.StudentEnrollments(context.Background(), "st1")
	require.NoError(t, err)
	require.Len(t, enrollments, 2)
	require.Equal(t, "e2", enrollments[0].ID)
	require.Equal(t, "e1", enrollments[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
