package models

import "time"

// AppointmentStatus enumerates the appointment lifecycle.
type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pendiente"
	AppointmentConfirmed AppointmentStatus = "confirmada"
	AppointmentCancelled AppointmentStatus = "cancelada"
)

// Appointment is a 1:1 booking between a student and a tutor at an exact
// timestamp. At most one non-cancelled appointment may exist per
// (tutor, timestamp) pair; the database enforces this with a partial unique
// index as the backstop for concurrent creation.
type Appointment struct {
	ID          string            `db:"id" json:"id"`
	StudentID   string            `db:"student_id" json:"estudianteId"`
	TutorID     string            `db:"tutor_id" json:"tutorId"`
	ScheduledAt time.Time         `db:"scheduled_at" json:"fechaProgramada"`
	Subject     string            `db:"subject" json:"materia"`
	Status      AppointmentStatus `db:"status" json:"estado"`
	CreatedAt   time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updatedAt"`
}

// AppointmentDetail joins the tutor and student identities for listings.
type AppointmentDetail struct {
	Appointment
	TutorName   string `db:"tutor_name" json:"tutorNombre"`
	StudentName string `db:"student_name" json:"estudianteNombre"`
}
