package dto

import (
	"time"

	"github.com/campusgo/tutorias-api/internal/models"
)

// CreateSessionRequest opens a new group session. TutorID is honored for
// admin callers only; tutors always create sessions they own.
type CreateSessionRequest struct {
	TutorID     string          `json:"tutorId,omitempty" validate:"omitempty,uuid4"`
	Subject     string          `json:"materia" validate:"required"`
	Topic       string          `json:"tema" validate:"required"`
	Description *string         `json:"descripcion,omitempty"`
	StartsAt    time.Time       `json:"fechaProgramada" validate:"required"`
	DurationMin int             `json:"duracionMin" validate:"required,min=15,max=480"`
	MaxSeats    int             `json:"cupoMaximo" validate:"required,min=1,max=200"`
	Modality    models.Modality `json:"modalidad" validate:"required,oneof=presencial virtual hibrida"`
	Location    *string         `json:"ubicacion,omitempty"`
}

// UpdateSessionRequest carries the partial update of a session. Which
// fields may change depends on the session's current status.
type UpdateSessionRequest struct {
	Subject     *string               `json:"materia,omitempty"`
	Topic       *string               `json:"tema,omitempty"`
	Description *string               `json:"descripcion,omitempty"`
	StartsAt    *time.Time            `json:"fechaProgramada,omitempty"`
	DurationMin *int                  `json:"duracionMin,omitempty" validate:"omitempty,min=15,max=480"`
	MaxSeats    *int                  `json:"cupoMaximo,omitempty" validate:"omitempty,min=1,max=200"`
	Modality    *models.Modality      `json:"modalidad,omitempty" validate:"omitempty,oneof=presencial virtual hibrida"`
	Location    *string               `json:"ubicacion,omitempty"`
	Status      *models.SessionStatus `json:"estado,omitempty" validate:"omitempty,oneof=programada en_progreso finalizada cancelada"`
}
