package models

import "time"

// UserRole represents the available roles for the RBAC system.
// Role values are stored and transported in Spanish to preserve the
// external API contract.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleTutor   UserRole = "tutor"
	RoleStudent UserRole = "estudiante"
)

// User represents an application user stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"nombre"`
	Role         UserRole  `db:"role" json:"rol"`
	Active       bool      `db:"active" json:"activo"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Actor identifies the authenticated caller for capability checks.
// It is resolved once by the JWT middleware and passed down to services.
type Actor struct {
	UserID string
	Role   UserRole
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
