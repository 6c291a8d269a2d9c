package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusgo/tutorias-api/internal/models"
)

// AppointmentRepository handles persistence of 1:1 appointments.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository constructs the repository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// FindByID returns an appointment by its ID.
func (r *AppointmentRepository) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	const query = `SELECT id, student_id, tutor_id, scheduled_at, subject, status, created_at, updated_at FROM appointments WHERE id = $1`
	var appt models.Appointment
	if err := r.db.GetContext(ctx, &appt, query, id); err != nil {
		return nil, err
	}
	return &appt, nil
}

// CreateExclusive inserts the appointment only if no active appointment
// occupies the same (tutor, timestamp) pair. The conflict probe locks any
// matching row for the duration of the transaction; the partial unique index
// on active appointments is the backstop when two transactions race past the
// probe. Returns ErrSlotTaken on either detection path.
func (r *AppointmentRepository) CreateExclusive(ctx context.Context, appt *models.Appointment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin appointment tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const probe = `SELECT id FROM appointments
        WHERE tutor_id = $1 AND scheduled_at = $2 AND status IN ($3, $4)
        FOR UPDATE`
	var existing string
	err = tx.GetContext(ctx, &existing, probe, appt.TutorID, appt.ScheduledAt, models.AppointmentPending, models.AppointmentConfirmed)
	if err == nil {
		return ErrSlotTaken
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("probe appointment slot: %w", err)
	}

	now := time.Now().UTC()
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	if appt.Status == "" {
		appt.Status = models.AppointmentPending
	}
	appt.CreatedAt = now
	appt.UpdatedAt = now

	const insert = `INSERT INTO appointments (id, student_id, tutor_id, scheduled_at, subject, status, created_at, updated_at)
        VALUES (:id, :student_id, :tutor_id, :scheduled_at, :subject, :status, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insert, appt); err != nil {
		if isUniqueViolation(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("create appointment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit appointment tx: %w", err)
	}
	return nil
}

// UpdateStatus transitions an appointment's lifecycle state.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) error {
	const query = `UPDATE appointments SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	return nil
}

// UpcomingFilter narrows the upcoming-appointment listing by ownership.
type UpcomingFilter struct {
	StudentID string
	TutorID   string
	After     time.Time
}

// ListUpcoming returns future non-cancelled appointments ordered by start
// time ascending, joined with the tutor and student names.
func (r *AppointmentRepository) ListUpcoming(ctx context.Context, filter UpcomingFilter) ([]models.AppointmentDetail, error) {
	conditions := []string{"a.scheduled_at >= $1", "a.status <> $2"}
	args := []interface{}{filter.After, models.AppointmentCancelled}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("a.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.TutorID != "" {
		conditions = append(conditions, fmt.Sprintf("a.tutor_id = $%d", len(args)+1))
		args = append(args, filter.TutorID)
	}

	query := fmt.Sprintf(`SELECT a.id, a.student_id, a.tutor_id, a.scheduled_at, a.subject, a.status, a.created_at, a.updated_at,
        ut.full_name AS tutor_name, us.full_name AS student_name
        FROM appointments a
        JOIN tutors t ON t.id = a.tutor_id
        JOIN users ut ON ut.id = t.user_id
        JOIN students s ON s.id = a.student_id
        JOIN users us ON us.id = s.user_id
        WHERE %s ORDER BY a.scheduled_at ASC`, strings.Join(conditions, " AND "))

	var appointments []models.AppointmentDetail
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("list upcoming appointments: %w", err)
	}
	return appointments, nil
}
