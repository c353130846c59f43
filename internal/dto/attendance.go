package dto

import "github.com/noah-isme/punch-attendance/internal/models"

// SummaryRow is the display form of one person-day summary. None labels render as empty strings.
type SummaryRow struct {
	PersonID         string `json:"personId"`
	Date             string `json:"date"`
	TimeIn           string `json:"timeIn"`
	TimeOut          string `json:"timeOut"`
	LateStatus       string `json:"lateStatus"`
	EarlyLeaveStatus string `json:"earlyLeaveStatus"`
	Category         string `json:"employmentCategory"`
	StatusText       string `json:"statusText"`
}

// SummaryHeaders are the column titles used by tables and exports, in Cells order.
var SummaryHeaders = []string{"Person", "Date", "Time In", "Time Out", "Late Status", "Early Leave Status", "Employment Category", "Status"}

// NewSummaryRows formats summaries for display, preserving order.
func NewSummaryRows(summaries []models.AttendanceSummary) []SummaryRow {
	rows := make([]SummaryRow, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, SummaryRow{
			PersonID:         s.PersonID,
			Date:             s.Date.Format(models.DateLayout),
			TimeIn:           s.TimeIn.Format(models.ClockLayout),
			TimeOut:          s.TimeOut.Format(models.ClockLayout),
			LateStatus:       string(s.LateStatus),
			EarlyLeaveStatus: string(s.EarlyLeaveStatus),
			Category:         s.Category,
			StatusText:       s.StatusText,
		})
	}
	return rows
}

// Cells returns the row values in SummaryHeaders order.
func (r SummaryRow) Cells() []string {
	return []string{r.PersonID, r.Date, r.TimeIn, r.TimeOut, r.LateStatus, r.EarlyLeaveStatus, r.Category, r.StatusText}
}

// SummaryMeta is attached to summary responses.
type SummaryMeta struct {
	TotalRows   int                 `json:"totalRows"`
	ValidRows   int                 `json:"validRows"`
	SkippedRows int                 `json:"skippedRows"`
	Warnings    []models.RowWarning `json:"warnings"`
}

// NewSummaryMeta extracts batch counters.
func NewSummaryMeta(result *models.BatchResult) SummaryMeta {
	warnings := result.Warnings
	if warnings == nil {
		warnings = []models.RowWarning{}
	}
	return SummaryMeta{
		TotalRows:   result.TotalRows,
		ValidRows:   result.ValidRows,
		SkippedRows: result.SkippedRows,
		Warnings:    warnings,
	}
}

// Map converts the meta block into the envelope representation.
func (m SummaryMeta) Map() map[string]interface{} {
	return map[string]interface{}{
		"totalRows":   m.TotalRows,
		"validRows":   m.ValidRows,
		"skippedRows": m.SkippedRows,
		"warnings":    m.Warnings,
	}
}
