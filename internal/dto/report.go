package dto

import "time"

// ReportKind selects which aggregate a report or export covers.
type ReportKind string

const (
	ReportStudent ReportKind = "estudiante"
	ReportTutor   ReportKind = "tutor"
	ReportWeekly  ReportKind = "semanal"
)

// ExportFormat selects the rendered document type.
type ExportFormat string

const (
	FormatPDF ExportFormat = "pdf"
	FormatCSV ExportFormat = "csv"
)

// ExportRequest captures the query parameters of a report export.
// From/To apply to the weekly kind only; when absent the current civil week
// (Monday through Sunday) is used.
type ExportRequest struct {
	Kind     ReportKind
	Format   ExportFormat
	TargetID string
	From     *time.Time
	To       *time.Time
}
