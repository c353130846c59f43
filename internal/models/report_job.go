package models

import (
	"strings"
	"time"
)

// ReportFormat enumerates supported export formats.
type ReportFormat string

const (
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatXLSX ReportFormat = "xlsx"
	ReportFormatPDF  ReportFormat = "pdf"
)

// ParseReportFormat normalises a requested format, defaulting to xlsx when empty.
func ParseReportFormat(raw string) (ReportFormat, bool) {
	switch f := ReportFormat(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return ReportFormatXLSX, true
	case ReportFormatCSV, ReportFormatXLSX, ReportFormatPDF:
		return f, true
	default:
		return "", false
	}
}

// ContentType returns the MIME type used for downloads and email attachments.
func (f ReportFormat) ContentType() string {
	switch f {
	case ReportFormatCSV:
		return "text/csv"
	case ReportFormatPDF:
		return "application/pdf"
	default:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
}

// ReportStatus captures background job lifecycle states.
type ReportStatus string

const (
	ReportStatusQueued     ReportStatus = "QUEUED"
	ReportStatusProcessing ReportStatus = "PROCESSING"
	ReportStatusFinished   ReportStatus = "FINISHED"
	ReportStatusFailed     ReportStatus = "FAILED"
)

// EmailStatus tracks delivery of a finished report.
type EmailStatus string

const (
	EmailStatusNone    EmailStatus = ""
	EmailStatusSent    EmailStatus = "SENT"
	EmailStatusSkipped EmailStatus = "SKIPPED"
	EmailStatusFailed  EmailStatus = "FAILED"
)

// ReportJob is the metadata of one asynchronous report generation.
type ReportJob struct {
	ID           string          `json:"id"`
	Params       ReportJobParams `json:"params"`
	Status       ReportStatus    `json:"status"`
	Progress     int             `json:"progress"`
	ResultURL    *string         `json:"result_url,omitempty"`
	SummaryCount int             `json:"summary_count"`
	SkippedRows  int             `json:"skipped_rows"`
	EmailStatus  EmailStatus     `json:"email_status,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
}

// ReportJobParams stores the request-scoped options of a job.
type ReportJobParams struct {
	SourceName string       `json:"source_name"`
	UploadPath string       `json:"upload_path"`
	Format     ReportFormat `json:"format"`
	Category   string       `json:"category,omitempty"`
	Recipient  string       `json:"recipient,omitempty"`
}

// UpdateReportJobParams lists the mutable fields of a job; nil fields are left untouched.
type UpdateReportJobParams struct {
	Status       *ReportStatus
	Progress     *int
	ResultURL    *string
	SummaryCount *int
	SkippedRows  *int
	EmailStatus  *EmailStatus
	ErrorMessage *string
	FinishedAt   *time.Time
}

// Apply copies the non-nil fields onto the job.
func (p UpdateReportJobParams) Apply(job *ReportJob) {
	if p.Status != nil {
		job.Status = *p.Status
	}
	if p.Progress != nil {
		job.Progress = *p.Progress
	}
	if p.ResultURL != nil {
		url := *p.ResultURL
		job.ResultURL = &url
	}
	if p.SummaryCount != nil {
		job.SummaryCount = *p.SummaryCount
	}
	if p.SkippedRows != nil {
		job.SkippedRows = *p.SkippedRows
	}
	if p.EmailStatus != nil {
		job.EmailStatus = *p.EmailStatus
	}
	if p.ErrorMessage != nil {
		msg := *p.ErrorMessage
		job.ErrorMessage = &msg
	}
	if p.FinishedAt != nil {
		at := *p.FinishedAt
		job.FinishedAt = &at
	}
}
