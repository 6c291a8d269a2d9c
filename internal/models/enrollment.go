package models

import "time"

// AttendanceStatus enumerates the attendance outcome of an enrollment.
type AttendanceStatus string

const (
	AttendancePending AttendanceStatus = "pendiente"
	AttendanceShowed  AttendanceStatus = "asistio"
	AttendanceMissed  AttendanceStatus = "falta"
	AttendanceExcused AttendanceStatus = "justificada"
)

// ValidAttendance reports whether s is a recordable attendance outcome.
// "pendiente" is the initial state only and cannot be recorded back.
func ValidAttendance(s AttendanceStatus) bool {
	switch s {
	case AttendanceShowed, AttendanceMissed, AttendanceExcused:
		return true
	}
	return false
}

// Enrollment links one student to one tutoring session, unique per
// (session, student).
type Enrollment struct {
	ID         string           `db:"id" json:"id"`
	SessionID  string           `db:"session_id" json:"tutoriaId"`
	StudentID  string           `db:"student_id" json:"estudianteId"`
	Attendance AttendanceStatus `db:"attendance" json:"asistencia"`
	Rating     *int             `db:"rating" json:"calificacion,omitempty"`
	Comment    *string          `db:"comment" json:"comentario,omitempty"`
	EnrolledAt time.Time        `db:"enrolled_at" json:"fechaInscripcion"`
	CreatedAt  time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updatedAt"`
}

// EnrollmentDetail joins student identity and session context for listings
// and reports.
type EnrollmentDetail struct {
	Enrollment
	StudentName    string        `db:"student_name" json:"estudianteNombre"`
	StudentEmail   string        `db:"student_email" json:"estudianteEmail"`
	SessionSubject string        `db:"session_subject" json:"materia"`
	SessionTopic   string        `db:"session_topic" json:"tema"`
	SessionStarts  time.Time     `db:"session_starts" json:"fechaTutoria"`
	SessionStatus  SessionStatus `db:"session_status" json:"estadoTutoria"`
	TutorName      string        `db:"tutor_name" json:"tutorNombre"`
}
