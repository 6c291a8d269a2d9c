package models

import "time"

// Tutor is the tutor profile owned by exactly one user.
type Tutor struct {
	ID           string             `db:"id" json:"id"`
	UserID       string             `db:"user_id" json:"userId"`
	Specialty    string             `db:"specialty" json:"especialidad"`
	Department   string             `db:"department" json:"departamento"`
	Availability WeeklyAvailability `db:"availability" json:"disponibilidad"`
	CreatedAt    time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `db:"updated_at" json:"updatedAt"`
}

// TutorDetail joins the owning user's public identity.
type TutorDetail struct {
	Tutor
	FullName string `db:"full_name" json:"nombre"`
	Email    string `db:"email" json:"email"`
}
