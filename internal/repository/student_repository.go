package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campusgo/tutorias-api/internal/models"
)

// StudentRepository handles persistence of student profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student profile by its ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, user_id, student_number, program, term, phone, created_at, updated_at FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByUserID returns the student profile owned by a user.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	const query = `SELECT id, user_id, student_number, program, term, phone, created_at, updated_at FROM students WHERE user_id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, userID); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindDetailByID returns a student joined with its user identity.
func (r *StudentRepository) FindDetailByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	const query = `SELECT s.id, s.user_id, s.student_number, s.program, s.term, s.phone, s.created_at, s.updated_at,
        u.full_name, u.email
        FROM students s JOIN users u ON u.id = s.user_id WHERE s.id = $1`
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Update persists the mutable student profile fields.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET program = :program, term = :term, phone = :phone, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}
