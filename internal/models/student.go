package models

import "time"

// Student is the student profile owned by exactly one user.
type Student struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"userId"`
	StudentNumber string    `db:"student_number" json:"matricula"`
	Program       string    `db:"program" json:"carrera"`
	Term          int       `db:"term" json:"semestre"`
	Phone         *string   `db:"phone" json:"telefono,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// StudentDetail joins the owning user's public identity.
type StudentDetail struct {
	Student
	FullName string `db:"full_name" json:"nombre"`
	Email    string `db:"email" json:"email"`
}
