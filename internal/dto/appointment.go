package dto

import "time"

// CreateAppointmentRequest books a 1:1 slot with a tutor. EstudianteID is
// honored for admin callers only; students always book for themselves.
type CreateAppointmentRequest struct {
	TutorID     string    `json:"tutorId" validate:"required,uuid4"`
	ScheduledAt time.Time `json:"fechaProgramada" validate:"required"`
	Subject     string    `json:"materia" validate:"required"`
	StudentID   string    `json:"estudianteId,omitempty" validate:"omitempty,uuid4"`
}

// ListAppointmentsRequest filters the upcoming-appointments listing.
type ListAppointmentsRequest struct {
	TutorID   string
	StudentID string
}
