package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campusgo/tutorias-api/internal/models"
)

// TutorRepository handles persistence of tutor profiles.
type TutorRepository struct {
	db *sqlx.DB
}

// NewTutorRepository constructs the repository.
func NewTutorRepository(db *sqlx.DB) *TutorRepository {
	return &TutorRepository{db: db}
}

// FindByID returns a tutor profile by its ID.
func (r *TutorRepository) FindByID(ctx context.Context, id string) (*models.Tutor, error) {
	const query = `SELECT id, user_id, specialty, department, availability, created_at, updated_at FROM tutors WHERE id = $1`
	var tutor models.Tutor
	if err := r.db.GetContext(ctx, &tutor, query, id); err != nil {
		return nil, err
	}
	return &tutor, nil
}

// FindByUserID returns the tutor profile owned by a user.
func (r *TutorRepository) FindByUserID(ctx context.Context, userID string) (*models.Tutor, error) {
	const query = `SELECT id, user_id, specialty, department, availability, created_at, updated_at FROM tutors WHERE user_id = $1`
	var tutor models.Tutor
	if err := r.db.GetContext(ctx, &tutor, query, userID); err != nil {
		return nil, err
	}
	return &tutor, nil
}

// FindDetailByID returns a tutor joined with its user identity.
func (r *TutorRepository) FindDetailByID(ctx context.Context, id string) (*models.TutorDetail, error) {
	const query = `SELECT t.id, t.user_id, t.specialty, t.department, t.availability, t.created_at, t.updated_at,
        u.full_name, u.email
        FROM tutors t JOIN users u ON u.id = t.user_id WHERE t.id = $1`
	var detail models.TutorDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns all tutor profiles joined with user identity.
func (r *TutorRepository) List(ctx context.Context) ([]models.TutorDetail, error) {
	const query = `SELECT t.id, t.user_id, t.specialty, t.department, t.availability, t.created_at, t.updated_at,
        u.full_name, u.email
        FROM tutors t JOIN users u ON u.id = t.user_id AND u.active = TRUE ORDER BY u.full_name ASC`
	var tutors []models.TutorDetail
	if err := r.db.SelectContext(ctx, &tutors, query); err != nil {
		return nil, fmt.Errorf("list tutors: %w", err)
	}
	return tutors, nil
}

// Update persists the mutable tutor profile fields.
func (r *TutorRepository) Update(ctx context.Context, tutor *models.Tutor) error {
	tutor.UpdatedAt = time.Now().UTC()
	const query = `UPDATE tutors SET specialty = :specialty, department = :department, availability = :availability, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, tutor); err != nil {
		return fmt.Errorf("update tutor: %w", err)
	}
	return nil
}
