package models

import "time"

// SessionStatus enumerates the group-session lifecycle. The progression is
// forward-only: programada -> en_progreso -> finalizada, with cancelada
// reachable from programada or en_progreso.
type SessionStatus string

const (
	SessionScheduled  SessionStatus = "programada"
	SessionInProgress SessionStatus = "en_progreso"
	SessionCompleted  SessionStatus = "finalizada"
	SessionCancelled  SessionStatus = "cancelada"
)

// Modality enumerates how a session is delivered.
type Modality string

const (
	ModalityInPerson Modality = "presencial"
	ModalityRemote   Modality = "virtual"
	ModalityHybrid   Modality = "hibrida"
)

// TutoringSession is a group tutoring session owned by one tutor.
type TutoringSession struct {
	ID          string        `db:"id" json:"id"`
	TutorID     string        `db:"tutor_id" json:"tutorId"`
	Subject     string        `db:"subject" json:"materia"`
	Topic       string        `db:"topic" json:"tema"`
	Description *string       `db:"description" json:"descripcion,omitempty"`
	StartsAt    time.Time     `db:"starts_at" json:"fecha"`
	DurationMin int           `db:"duration_min" json:"duracion"`
	MaxSeats    int           `db:"max_seats" json:"cupoMaximo"`
	Modality    Modality      `db:"modality" json:"modalidad"`
	Location    *string       `db:"location" json:"ubicacion,omitempty"`
	Status      SessionStatus `db:"status" json:"estado"`
	CreatedAt   time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updatedAt"`
}

// SessionDetail joins the tutor identity and live enrollment count.
type SessionDetail struct {
	TutoringSession
	TutorName     string `db:"tutor_name" json:"tutorNombre"`
	EnrolledCount int    `db:"enrolled_count" json:"inscritos"`
}

// AvailableSeats reports the remaining capacity, never negative.
func (d SessionDetail) AvailableSeats() int {
	remaining := d.MaxSeats - d.EnrolledCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SessionFilter captures listing criteria for sessions.
type SessionFilter struct {
	TutorID  string
	Status   SessionStatus
	Subject  string
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}
