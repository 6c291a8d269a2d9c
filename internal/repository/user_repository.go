package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusgo/tutorias-api/internal/models"
)

// UserRepository handles persistence of users, their role profiles, and
// refresh token sessions.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	const query = `SELECT id, email, password_hash, full_name, role, active, created_at, updated_at FROM users WHERE email = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID returns a user by its ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT id, email, password_hash, full_name, role, active, created_at, updated_at FROM users WHERE id = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// RegisterWithProfile creates the user plus its role profile inside one
// transaction. Exactly one of student/tutor may be non-nil; admins carry no
// profile. Unique violations (email, student number) map to ErrDuplicateKey.
func (r *UserRepository) RegisterWithProfile(ctx context.Context, user *models.User, student *models.Student, tutor *models.Tutor) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin register tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	const userQuery = `INSERT INTO users (id, email, password_hash, full_name, role, active, created_at, updated_at)
        VALUES (:id, :email, :password_hash, :full_name, :role, :active, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, userQuery, user); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create user: %w", err)
	}

	if student != nil {
		if student.ID == "" {
			student.ID = uuid.NewString()
		}
		student.UserID = user.ID
		student.CreatedAt = now
		student.UpdatedAt = now
		const studentQuery = `INSERT INTO students (id, user_id, student_number, program, term, phone, created_at, updated_at)
            VALUES (:id, :user_id, :student_number, :program, :term, :phone, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, studentQuery, student); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateKey
			}
			return fmt.Errorf("create student profile: %w", err)
		}
	}

	if tutor != nil {
		if tutor.ID == "" {
			tutor.ID = uuid.NewString()
		}
		tutor.UserID = user.ID
		tutor.CreatedAt = now
		tutor.UpdatedAt = now
		const tutorQuery = `INSERT INTO tutors (id, user_id, specialty, department, availability, created_at, updated_at)
            VALUES (:id, :user_id, :specialty, :department, :availability, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, tutorQuery, tutor); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateKey
			}
			return fmt.Errorf("create tutor profile: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit register tx: %w", err)
	}
	return nil
}

// UpdateIdentity updates the mutable user fields.
func (r *UserRepository) UpdateIdentity(ctx context.Context, id, fullName, passwordHash string) error {
	const query = `UPDATE users SET full_name = $2, password_hash = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, fullName, passwordHash, time.Now().UTC()); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// CreateRefreshToken persists a refresh token session.
func (r *UserRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at, revoked, revoked_at)
        VALUES (:id, :user_id, :token, :expires_at, :created_at, :revoked, :revoked_at)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindRefreshToken looks a refresh token up by its opaque value.
func (r *UserRepository) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	const query = `SELECT id, user_id, token, expires_at, created_at, revoked, revoked_at FROM refresh_tokens WHERE token = $1`
	var stored models.RefreshToken
	if err := r.db.GetContext(ctx, &stored, query, token); err != nil {
		return nil, err
	}
	return &stored, nil
}

// RevokeRefreshToken marks a single refresh token as revoked.
func (r *UserRepository) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, revokedAt); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeUserRefreshTokens revokes every active refresh token of a user.
func (r *UserRepository) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE user_id = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	return nil
}
