package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusgo/tutorias-api/internal/models"
	"github.com/campusgo/tutorias-api/pkg/jobs"
	"github.com/campusgo/tutorias-api/pkg/mailer"
)

const jobTypeEnrollmentEmail = "enrollment.confirmation"

// enrollmentEmailPayload is the job payload for confirmation emails.
type enrollmentEmailPayload struct {
	To             string
	StudentName    string
	Subject        string
	Topic          string
	StartsAt       time.Time
	TutorName      string
	SeatsRemaining int
}

// NotificationService sends enrollment confirmation emails through the
// background queue so request latency never depends on the SMTP relay.
type NotificationService struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewNotificationService wires the mail sender behind a worker queue.
func NewNotificationService(sender mailer.Sender, cfg jobs.QueueConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{logger: logger}
	s.queue = jobs.NewQueue("notifications", func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(enrollmentEmailPayload)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		return sender.Send(ctx, composeEnrollmentEmail(payload))
	}, cfg)
	return s
}

// Start launches the worker pool.
func (s *NotificationService) Start(ctx context.Context) {
	if s == nil {
		return
	}
	s.queue.Start(ctx)
}

// Stop drains the queue and stops the workers.
func (s *NotificationService) Stop() {
	if s == nil {
		return
	}
	s.queue.Stop()
}

// EnrollmentCreated queues a confirmation email. Delivery is best effort;
// a full queue is logged and the enrollment proceeds.
func (s *NotificationService) EnrollmentCreated(detail *models.EnrollmentDetail, seatsRemaining int) {
	if s == nil {
		return
	}
	job := jobs.Job{
		ID:   uuid.NewString(),
		Type: jobTypeEnrollmentEmail,
		Payload: enrollmentEmailPayload{
			To:             detail.StudentEmail,
			StudentName:    detail.StudentName,
			Subject:        detail.SessionSubject,
			Topic:          detail.SessionTopic,
			StartsAt:       detail.SessionStarts,
			TutorName:      detail.TutorName,
			SeatsRemaining: seatsRemaining,
		},
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to queue enrollment email",
			zap.String("enrollment_id", detail.ID),
			zap.Error(err))
	}
}

func composeEnrollmentEmail(p enrollmentEmailPayload) mailer.Message {
	when := p.StartsAt.Format("02/01/2006 15:04")

	var html strings.Builder
	html.WriteString(fmt.Sprintf("<h2>Inscripcion confirmada</h2><p>Hola %s,</p>", p.StudentName))
	html.WriteString(fmt.Sprintf("<p>Tu inscripcion a la tutoria de <strong>%s</strong> (%s) quedo registrada.</p>", p.Subject, p.Topic))
	html.WriteString("<ul>")
	html.WriteString(fmt.Sprintf("<li>Fecha: %s</li>", when))
	html.WriteString(fmt.Sprintf("<li>Tutor: %s</li>", p.TutorName))
	html.WriteString(fmt.Sprintf("<li>Cupos restantes: %d</li>", p.SeatsRemaining))
	html.WriteString("</ul><p>Si no puedes asistir, cancela tu inscripcion con anticipacion.</p>")

	text := fmt.Sprintf("Hola %s, tu inscripcion a la tutoria de %s (%s) quedo registrada. Fecha: %s. Tutor: %s.",
		p.StudentName, p.Subject, p.Topic, when, p.TutorName)

	return mailer.Message{
		To:      p.To,
		Subject: fmt.Sprintf("Inscripcion confirmada: %s", p.Subject),
		HTML:    html.String(),
		Text:    text,
	}
}
