package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campusgo/tutorias-api/internal/models"
)

// ReportRepository runs the read-only aggregation queries behind reports.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

const sessionStatsColumns = `s.id, s.tutor_id, s.subject, s.topic, s.starts_at, s.status,
        u.full_name AS tutor_name,
        COUNT(e.id) AS enrolled,
        COALESCE(SUM(e.rating), 0) AS rating_sum,
        COUNT(e.rating) AS rated_count`

const sessionStatsGroup = `GROUP BY s.id, s.tutor_id, s.subject, s.topic, s.starts_at, s.status, u.full_name`

// StudentEnrollments returns the full enrollment history of a student with
// session context, most recent enrollment first.
func (r *ReportRepository) StudentEnrollments(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE e.student_id = $1 ORDER BY e.enrolled_at DESC", enrollmentDetailColumns, enrollmentDetailJoins)
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("student enrollments: %w", err)
	}
	return enrollments, nil
}

// TutorSessionStats returns per-session aggregates for every session owned
// by the tutor, most recent first.
func (r *ReportRepository) TutorSessionStats(ctx context.Context, tutorID string) ([]models.SessionStats, error) {
	query := fmt.Sprintf(`SELECT %s FROM tutoring_sessions s
        JOIN tutors t ON t.id = s.tutor_id
        JOIN users u ON u.id = t.user_id
        LEFT JOIN enrollments e ON e.session_id = s.id
        WHERE s.tutor_id = $1
        %s ORDER BY s.starts_at DESC`, sessionStatsColumns, sessionStatsGroup)
	var stats []models.SessionStats
	if err := r.db.SelectContext(ctx, &stats, query, tutorID); err != nil {
		return nil, fmt.Errorf("tutor session stats: %w", err)
	}
	return stats, nil
}

// RangeSessionStats returns per-session aggregates for every session whose
// start falls inside the inclusive window, in chronological order.
func (r *ReportRepository) RangeSessionStats(ctx context.Context, from, to time.Time) ([]models.SessionStats, error) {
	query := fmt.Sprintf(`SELECT %s FROM tutoring_sessions s
        JOIN tutors t ON t.id = s.tutor_id
        JOIN users u ON u.id = t.user_id
        LEFT JOIN enrollments e ON e.session_id = s.id
        WHERE s.starts_at >= $1 AND s.starts_at <= $2
        %s ORDER BY s.starts_at ASC`, sessionStatsColumns, sessionStatsGroup)
	var stats []models.SessionStats
	if err := r.db.SelectContext(ctx, &stats, query, from, to); err != nil {
		return nil, fmt.Errorf("range session stats: %w", err)
	}
	return stats, nil
}
