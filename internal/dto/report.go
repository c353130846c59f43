package dto

import (
	"time"

	"github.com/noah-isme/punch-attendance/internal/models"
)

// ReportRequest captures the form fields of POST /reports; the punch file travels alongside.
type ReportRequest struct {
	Format    string `form:"format" validate:"omitempty,report_format"`
	Category  string `form:"category"`
	Recipient string `form:"recipient" validate:"omitempty,email"`
}

// ReportJobResponse is returned after enqueueing a report.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse exposes job progress metadata.
type ReportStatusResponse struct {
	ID           string              `json:"id"`
	Status       models.ReportStatus `json:"status"`
	Progress     int                 `json:"progress"`
	Format       models.ReportFormat `json:"format"`
	ResultURL    *string             `json:"resultUrl,omitempty"`
	SummaryCount int                 `json:"summaryCount"`
	SkippedRows  int                 `json:"skippedRows"`
	EmailStatus  models.EmailStatus  `json:"emailStatus,omitempty"`
	Error        *string             `json:"error,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
	FinishedAt   *time.Time          `json:"finishedAt,omitempty"`
}

// NewReportStatusResponse maps job metadata to the API shape.
func NewReportStatusResponse(job *models.ReportJob) *ReportStatusResponse {
	resp := &ReportStatusResponse{
		ID:           job.ID,
		Status:       job.Status,
		Progress:     job.Progress,
		Format:       job.Params.Format,
		ResultURL:    job.ResultURL,
		SummaryCount: job.SummaryCount,
		SkippedRows:  job.SkippedRows,
		EmailStatus:  job.EmailStatus,
		CreatedAt:    job.CreatedAt,
		FinishedAt:   job.FinishedAt,
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp
}
