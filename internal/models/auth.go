package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims are the custom claims embedded in access tokens.
type JWTClaims struct {
	UserID   string   `json:"uid"`
	Role     UserRole `json:"rol"`
	Email    string   `json:"email"`
	FullName string   `json:"nombre"`
	jwt.RegisteredClaims
}

// LoginRequest is the credential payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued token pair.
type LoginResponse struct {
	AccessToken  string    `json:"token"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresIn    int64     `json:"expiresIn"`
	IssuedAt     time.Time `json:"issuedAt"`
	User         UserInfo  `json:"user"`
}

// UserInfo is the public identity subset returned on login and profile reads.
type UserInfo struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	FullName string   `json:"nombre"`
	Role     UserRole `json:"rol"`
}

// RefreshTokenRequest exchanges a refresh token for a new pair.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// RefreshTokenResponse carries the rotated token pair.
type RefreshTokenResponse struct {
	AccessToken  string    `json:"token"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresIn    int64     `json:"expiresIn"`
	IssuedAt     time.Time `json:"issuedAt"`
}

// RegisterRequest creates a user plus its role profile in one transaction.
// Student fields are required when rol is estudiante, tutor fields when rol
// is tutor.
type RegisterRequest struct {
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=8"`
	FullName string   `json:"nombre" validate:"required"`
	Role     UserRole `json:"rol" validate:"required,oneof=admin tutor estudiante"`

	StudentNumber string `json:"matricula,omitempty"`
	Program       string `json:"carrera,omitempty"`
	Term          *int   `json:"semestre,omitempty" validate:"omitempty,min=1,max=12"`
	Phone         string `json:"telefono,omitempty"`

	Specialty    string             `json:"especialidad,omitempty"`
	Department   string             `json:"departamento,omitempty"`
	Availability WeeklyAvailability `json:"disponibilidad,omitempty"`
}

// ProfileResponse bundles the user record with its role profile, if any.
type ProfileResponse struct {
	User    UserInfo    `json:"user"`
	Profile interface{} `json:"profile,omitempty"`
}

// UpdateProfileRequest carries the partially updatable profile fields for
// the authenticated user. Changing the password requires the current one.
type UpdateProfileRequest struct {
	FullName        *string `json:"nombre,omitempty"`
	Password        *string `json:"password,omitempty" validate:"omitempty,min=8"`
	CurrentPassword *string `json:"currentPassword,omitempty"`

	Phone   *string `json:"telefono,omitempty"`
	Program *string `json:"carrera,omitempty"`
	Term    *int    `json:"semestre,omitempty" validate:"omitempty,min=1,max=12"`

	Specialty    *string            `json:"especialidad,omitempty"`
	Department   *string            `json:"departamento,omitempty"`
	Availability WeeklyAvailability `json:"disponibilidad,omitempty"`
}
