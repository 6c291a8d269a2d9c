package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Sentinel errors surfaced by transactional repository operations. Services
// translate them into the API error taxonomy.
var (
	// ErrSlotTaken signals an active appointment already occupies the
	// (tutor, timestamp) pair.
	ErrSlotTaken = errors.New("tutor already booked at that time")
	// ErrSessionNotScheduled signals the session is no longer open.
	ErrSessionNotScheduled = errors.New("session is not open for enrollment")
	// ErrSessionFull signals seat capacity has been reached.
	ErrSessionFull = errors.New("session capacity reached")
	// ErrDuplicateEnrollment signals the student is already enrolled.
	ErrDuplicateEnrollment = errors.New("student already enrolled in session")
	// ErrHasEnrollments blocks hard deletion of a session with enrollments.
	ErrHasEnrollments = errors.New("session has enrollments")
	// ErrDuplicateKey signals a generic unique-constraint violation.
	ErrDuplicateKey = errors.New("duplicate key")
)

const uniqueViolationCode = "23505"

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation. Unique indexes are the backstop for the check-then-insert
// paths, which are not race-free on their own.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolationCode
	}
	return false
}
