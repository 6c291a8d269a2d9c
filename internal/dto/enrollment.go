package dto

// EnrollRequest enrolls a student into a session. EstudianteID is honored
// for admin callers only.
type EnrollRequest struct {
	SessionID string `json:"tutoriaId" validate:"required,uuid4"`
	StudentID string `json:"estudianteId,omitempty" validate:"omitempty,uuid4"`
}

// AttendanceRequest records the attendance outcome of an enrollment.
type AttendanceRequest struct {
	Attendance string `json:"asistencia" validate:"required,oneof=asistio falta justificada"`
}

// RatingRequest stores the student's rating of a finished session.
type RatingRequest struct {
	Rating  int     `json:"calificacion" validate:"required,min=1,max=5"`
	Comment *string `json:"comentario,omitempty" validate:"omitempty,max=500"`
}
