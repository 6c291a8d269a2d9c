package models

import "time"

// KeyCount is a ranked frequency entry (subject, status, or tutor rankings).
type KeyCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// AttendanceBreakdown buckets enrollments by attendance outcome.
type AttendanceBreakdown struct {
	Showed  int `json:"asistio"`
	Missed  int `json:"falta"`
	Excused int `json:"justificada"`
	Pending int `json:"pendiente"`
}

// StudentSummary aggregates a student's enrollment history.
// PromedioCalificacion is null when no enrollment carries a rating.
type StudentSummary struct {
	TotalEnrollments int                 `json:"totalInscripciones"`
	Attendance       AttendanceBreakdown `json:"asistencia"`
	AverageRating    *float64            `json:"promedioCalificacion"`
	TopSubjects      []KeyCount          `json:"topMaterias"`
}

// StudentReport is the per-student aggregate document.
type StudentReport struct {
	Student     StudentDetail      `json:"estudiante"`
	Summary     StudentSummary     `json:"resumen"`
	Enrollments []EnrollmentDetail `json:"inscripciones"`
}

// SessionSummary condenses one session for tutor and range reports.
type SessionSummary struct {
	ID            string        `json:"id"`
	StartsAt      time.Time     `json:"fecha"`
	Subject       string        `json:"materia"`
	Topic         string        `json:"tema"`
	Status        SessionStatus `json:"estado"`
	Enrolled      int           `json:"inscritos"`
	AverageRating *float64      `json:"promedioCalificacion"`
}

// SessionStats is the raw per-session aggregation row backing
// tutor and range reports.
type SessionStats struct {
	ID         string        `db:"id"`
	TutorID    string        `db:"tutor_id"`
	TutorName  string        `db:"tutor_name"`
	Subject    string        `db:"subject"`
	Topic      string        `db:"topic"`
	StartsAt   time.Time     `db:"starts_at"`
	Status     SessionStatus `db:"status"`
	Enrolled   int           `db:"enrolled"`
	RatingSum  int           `db:"rating_sum"`
	RatedCount int           `db:"rated_count"`
}

// TutorSummary aggregates a tutor's owned sessions.
type TutorSummary struct {
	TotalSessions int        `json:"totalTutorias"`
	TotalEnrolled int        `json:"totalInscritos"`
	AverageRating *float64   `json:"promedioCalificacion"`
	ByStatus      []KeyCount `json:"porEstado"`
	TopSubjects   []KeyCount `json:"topMaterias"`
}

// TutorReport is the per-tutor aggregate document.
type TutorReport struct {
	Tutor    TutorDetail      `json:"tutor"`
	Summary  TutorSummary     `json:"resumen"`
	Sessions []SessionSummary `json:"tutorias"`
}

// DateRange is the inclusive window of a range report.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// RangeSummary aggregates all sessions whose start falls inside the range.
type RangeSummary struct {
	TotalSessions int        `json:"totalTutorias"`
	TotalEnrolled int        `json:"totalInscritos"`
	AverageRating *float64   `json:"promedioCalificacion"`
	ByStatus      []KeyCount `json:"porEstado"`
	TopSubjects   []KeyCount `json:"topMaterias"`
	TopTutors     []KeyCount `json:"topTutores"`
}

// RangeReport is the date-window aggregate document.
type RangeReport struct {
	Range    DateRange        `json:"rango"`
	Summary  RangeSummary     `json:"resumen"`
	Sessions []SessionSummary `json:"tutorias"`
}
