package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusgo/tutorias-api/internal/models"
)

// EnrollmentRepository handles persistence of session enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// EnrollmentResult carries the enrollment plus seat accounting taken inside
// the same transaction, so callers can report remaining capacity accurately.
type EnrollmentResult struct {
	Enrollment     *models.Enrollment
	SeatsRemaining int
}

// CreateWithCapacity enrolls a student into a session under a row lock.
// The session row is locked for the lifetime of the transaction so the
// count-then-insert sequence cannot race a concurrent enrollment. Returns
// ErrSessionNotScheduled, ErrSessionFull or ErrDuplicateEnrollment.
func (r *EnrollmentRepository) CreateWithCapacity(ctx context.Context, sessionID, studentID string) (*EnrollmentResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin enrollment tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var session struct {
		Status   models.SessionStatus `db:"status"`
		MaxSeats int                  `db:"max_seats"`
	}
	if err := tx.GetContext(ctx, &session, `SELECT status, max_seats FROM tutoring_sessions WHERE id = $1 FOR UPDATE`, sessionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("lock session: %w", err)
	}
	if session.Status != models.SessionScheduled {
		return nil, ErrSessionNotScheduled
	}

	var enrolled int
	if err := tx.GetContext(ctx, &enrolled, `SELECT COUNT(*) FROM enrollments WHERE session_id = $1`, sessionID); err != nil {
		return nil, fmt.Errorf("count enrollments: %w", err)
	}
	if enrolled >= session.MaxSeats {
		return nil, ErrSessionFull
	}

	var existing string
	err = tx.GetContext(ctx, &existing, `SELECT id FROM enrollments WHERE session_id = $1 AND student_id = $2`, sessionID, studentID)
	if err == nil {
		return nil, ErrDuplicateEnrollment
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("probe enrollment: %w", err)
	}

	now := time.Now().UTC()
	enrollment := &models.Enrollment{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		StudentID:  studentID,
		Attendance: models.AttendancePending,
		EnrolledAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	const insert = `INSERT INTO enrollments (id, session_id, student_id, attendance, rating, comment, enrolled_at, created_at, updated_at)
        VALUES (:id, :session_id, :student_id, :attendance, :rating, :comment, :enrolled_at, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insert, enrollment); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEnrollment
		}
		return nil, fmt.Errorf("insert enrollment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit enrollment tx: %w", err)
	}
	return &EnrollmentResult{
		Enrollment:     enrollment,
		SeatsRemaining: session.MaxSeats - enrolled - 1,
	}, nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, session_id, student_id, attendance, rating, comment, enrolled_at
        FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

const enrollmentDetailColumns = `e.id, e.session_id, e.student_id, e.attendance, e.rating, e.comment, e.enrolled_at,
        u.full_name AS student_name, u.email AS student_email,
        s.subject AS session_subject, s.topic AS session_topic,
        s.starts_at AS session_starts, s.status AS session_status,
        tu.full_name AS tutor_name`

const enrollmentDetailJoins = `FROM enrollments e
        JOIN students st ON st.id = e.student_id
        JOIN users u ON u.id = st.user_id
        JOIN tutoring_sessions s ON s.id = e.session_id
        JOIN tutors t ON t.id = s.tutor_id
        JOIN users tu ON tu.id = t.user_id`

// FindDetailByID returns an enrollment with student and session context.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE e.id = $1", enrollmentDetailColumns, enrollmentDetailJoins)
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListBySession returns the roster of a session in enrollment order.
func (r *EnrollmentRepository) ListBySession(ctx context.Context, sessionID string) ([]models.EnrollmentDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE e.session_id = $1 ORDER BY e.enrolled_at ASC", enrollmentDetailColumns, enrollmentDetailJoins)
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, sessionID); err != nil {
		return nil, fmt.Errorf("list session enrollments: %w", err)
	}
	return enrollments, nil
}

// ListByStudent returns a student's enrollment history, most recent first.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE e.student_id = $1 ORDER BY s.starts_at DESC", enrollmentDetailColumns, enrollmentDetailJoins)
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return enrollments, nil
}

// Delete removes an enrollment.
func (r *EnrollmentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM enrollments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete enrollment rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateAttendance records the attendance outcome of an enrollment.
func (r *EnrollmentRepository) UpdateAttendance(ctx context.Context, id string, attendance models.AttendanceStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE enrollments SET attendance = $1, updated_at = $2 WHERE id = $3`, attendance, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update attendance: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update attendance rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateRating stores the student's rating and optional comment.
func (r *EnrollmentRepository) UpdateRating(ctx context.Context, id string, rating int, comment *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE enrollments SET rating = $1, comment = $2, updated_at = $3 WHERE id = $4`, rating, comment, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update rating: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update rating rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
