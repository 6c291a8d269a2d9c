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

// SessionRepository handles persistence of group tutoring sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionDetailColumns = `s.id, s.tutor_id, s.subject, s.topic, s.description, s.starts_at, s.duration_min,
        s.max_seats, s.modality, s.location, s.status, s.created_at, s.updated_at,
        u.full_name AS tutor_name,
        (SELECT COUNT(*) FROM enrollments e WHERE e.session_id = s.id) AS enrolled_count`

// FindByID returns a session by its ID.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.TutoringSession, error) {
	const query = `SELECT id, tutor_id, subject, topic, description, starts_at, duration_min, max_seats, modality, location, status, created_at, updated_at
        FROM tutoring_sessions WHERE id = $1`
	var session models.TutoringSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// FindDetailByID returns a session with tutor identity and enrollment count.
func (r *SessionRepository) FindDetailByID(ctx context.Context, id string) (*models.SessionDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM tutoring_sessions s
        JOIN tutors t ON t.id = s.tutor_id
        JOIN users u ON u.id = t.user_id
        WHERE s.id = $1`, sessionDetailColumns)
	var detail models.SessionDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns sessions matching the filter, newest first, with total count.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.SessionDetail, int, error) {
	var conditions []string
	var args []interface{}

	if filter.TutorID != "" {
		conditions = append(conditions, fmt.Sprintf("s.tutor_id = $%d", len(args)+1))
		args = append(args, filter.TutorID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("s.subject ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Subject+"%")
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("s.starts_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("s.starts_at <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM tutoring_sessions s
        JOIN tutors t ON t.id = s.tutor_id
        JOIN users u ON u.id = t.user_id
        %s ORDER BY s.starts_at DESC LIMIT %d OFFSET %d`, sessionDetailColumns, clause, size, offset)

	var sessions []models.SessionDetail
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM tutoring_sessions s%s", clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}
	return sessions, total, nil
}

// Create persists a new session.
func (r *SessionRepository) Create(ctx context.Context, session *models.TutoringSession) error {
	now := time.Now().UTC()
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.Status == "" {
		session.Status = models.SessionScheduled
	}
	session.CreatedAt = now
	session.UpdatedAt = now
	const query = `INSERT INTO tutoring_sessions (id, tutor_id, subject, topic, description, starts_at, duration_min, max_seats, modality, location, status, created_at, updated_at)
        VALUES (:id, :tutor_id, :subject, :topic, :description, :starts_at, :duration_min, :max_seats, :modality, :location, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Update persists the full mutable field set of a session.
func (r *SessionRepository) Update(ctx context.Context, session *models.TutoringSession) error {
	session.UpdatedAt = time.Now().UTC()
	const query = `UPDATE tutoring_sessions SET subject = :subject, topic = :topic, description = :description,
        starts_at = :starts_at, duration_min = :duration_min, max_seats = :max_seats,
        modality = :modality, location = :location, status = :status, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// CountEnrollments returns the current enrollment count of a session.
func (r *SessionRepository) CountEnrollments(ctx context.Context, sessionID string) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE session_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, sessionID); err != nil {
		return 0, fmt.Errorf("count session enrollments: %w", err)
	}
	return count, nil
}

// DeleteIfEmpty removes a session only when no enrollment references it,
// holding the session row locked while the enrollment count is taken.
func (r *SessionRepository) DeleteIfEmpty(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var lockedID string
	if err := tx.GetContext(ctx, &lockedID, `SELECT id FROM tutoring_sessions WHERE id = $1 FOR UPDATE`, id); err != nil {
		if err == sql.ErrNoRows {
			return sql.ErrNoRows
		}
		return fmt.Errorf("lock session: %w", err)
	}

	var count int
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM enrollments WHERE session_id = $1`, id); err != nil {
		return fmt.Errorf("count session enrollments: %w", err)
	}
	if count > 0 {
		return ErrHasEnrollments
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM tutoring_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete tx: %w", err)
	}
	return nil
}
