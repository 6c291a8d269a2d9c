package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/campusgo/tutorias-api/internal/dto"
	"github.com/campusgo/tutorias-api/internal/models"
	"github.com/campusgo/tutorias-api/pkg/export"
	appErrors "github.com/campusgo/tutorias-api/pkg/errors"
)

type reportProvider interface {
	StudentReport(ctx context.Context, actor models.Actor, studentID string) (*models.StudentReport, error)
	TutorReport(ctx context.Context, actor models.Actor, tutorID string) (*models.TutorReport, error)
	RangeReport(ctx context.Context, actor models.Actor, from, to *time.Time) (*models.RangeReport, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult is a rendered report document ready to stream.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService turns report aggregates into downloadable documents.
// Authorization is inherited from the report provider.
type ExportService struct {
	reports reportProvider
	csv     csvRenderer
	pdf     pdfRenderer
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService constructs an ExportService instance.
func NewExportService(reports reportProvider, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{reports: reports, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// Export builds the requested report and renders it in the requested
// format.
func (s *ExportService) Export(ctx context.Context, actor models.Actor, req dto.ExportRequest) (*ExportResult, error) {
	var (
		dataset export.Dataset
		title   string
		slug    string
		err     error
	)

	switch req.Kind {
	case dto.ReportStudent:
		if req.TargetID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "estudianteId is required")
		}
		var report *models.StudentReport
		report, err = s.reports.StudentReport(ctx, actor, req.TargetID)
		if err == nil {
			dataset = studentDataset(report)
			title = fmt.Sprintf("Reporte de tutorias - %s", report.Student.FullName)
			slug = "reporte-estudiante"
		}
	case dto.ReportTutor:
		if req.TargetID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "tutorId is required")
		}
		var report *models.TutorReport
		report, err = s.reports.TutorReport(ctx, actor, req.TargetID)
		if err == nil {
			dataset = tutorDataset(report)
			title = fmt.Sprintf("Reporte de tutorias - %s", report.Tutor.FullName)
			slug = "reporte-tutor"
		}
	case dto.ReportWeekly:
		var report *models.RangeReport
		report, err = s.reports.RangeReport(ctx, actor, req.From, req.To)
		if err == nil {
			dataset = rangeDataset(report)
			title = fmt.Sprintf("Reporte semanal %s a %s",
				report.Range.From.Format("2006-01-02"), report.Range.To.Format("2006-01-02"))
			slug = "reporte-semanal"
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown report kind")
	}
	if err != nil {
		return nil, err
	}

	stamp := s.now().Format("20060102-150405")
	switch req.Format {
	case dto.FormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("%s-%s.csv", slug, stamp),
			ContentType: "text/csv",
			Payload:     payload,
		}, nil
	case dto.FormatPDF:
		payload, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("%s-%s.pdf", slug, stamp),
			ContentType: "application/pdf",
			Payload:     payload,
		}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, "unknown export format")
}

func studentDataset(report *models.StudentReport) export.Dataset {
	summary := []export.SummaryItem{
		{Label: "Estudiante", Value: report.Student.FullName},
		{Label: "Matricula", Value: report.Student.StudentNumber},
		{Label: "Total inscripciones", Value: strconv.Itoa(report.Summary.TotalEnrollments)},
		{Label: "Asistencias", Value: strconv.Itoa(report.Summary.Attendance.Showed)},
		{Label: "Faltas", Value: strconv.Itoa(report.Summary.Attendance.Missed)},
		{Label: "Promedio calificacion", Value: formatAverage(report.Summary.AverageRating)},
	}

	rows := make([][]string, 0, len(report.Enrollments))
	for _, e := range report.Enrollments {
		rows = append(rows, []string{
			e.SessionStarts.Format("2006-01-02 15:04"),
			e.SessionSubject,
			e.SessionTopic,
			e.TutorName,
			string(e.Attendance),
			formatRating(e.Rating),
		})
	}

	return export.Dataset{
		Summary: summary,
		Headers: []string{"Fecha", "Materia", "Tema", "Tutor", "Asistencia", "Calificacion"},
		Rows:    rows,
	}
}

func tutorDataset(report *models.TutorReport) export.Dataset {
	summary := []export.SummaryItem{
		{Label: "Tutor", Value: report.Tutor.FullName},
		{Label: "Especialidad", Value: report.Tutor.Specialty},
		{Label: "Total tutorias", Value: strconv.Itoa(report.Summary.TotalSessions)},
		{Label: "Total inscritos", Value: strconv.Itoa(report.Summary.TotalEnrolled)},
		{Label: "Promedio calificacion", Value: formatAverage(report.Summary.AverageRating)},
	}
	return export.Dataset{
		Summary: summary,
		Headers: []string{"Fecha", "Materia", "Tema", "Estado", "Inscritos", "Promedio"},
		Rows:    sessionRows(report.Sessions),
	}
}

func rangeDataset(report *models.RangeReport) export.Dataset {
	summary := []export.SummaryItem{
		{Label: "Desde", Value: report.Range.From.Format("2006-01-02")},
		{Label: "Hasta", Value: report.Range.To.Format("2006-01-02")},
		{Label: "Total tutorias", Value: strconv.Itoa(report.Summary.TotalSessions)},
		{Label: "Total inscritos", Value: strconv.Itoa(report.Summary.TotalEnrolled)},
		{Label: "Promedio calificacion", Value: formatAverage(report.Summary.AverageRating)},
	}
	return export.Dataset{
		Summary: summary,
		Headers: []string{"Fecha", "Materia", "Tema", "Estado", "Inscritos", "Promedio"},
		Rows:    sessionRows(report.Sessions),
	}
}

func sessionRows(sessions []models.SessionSummary) [][]string {
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			s.StartsAt.Format("2006-01-02 15:04"),
			s.Subject,
			s.Topic,
			string(s.Status),
			strconv.Itoa(s.Enrolled),
			formatAverage(s.AverageRating),
		})
	}
	return rows
}

func formatAverage(avg *float64) string {
	if avg == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*avg, 'f', 2, 64)
}

func formatRating(rating *int) string {
	if rating == nil {
		return ""
	}
	return strconv.Itoa(*rating)
}
