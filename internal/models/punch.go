package models

import (
	"strings"
	"time"
)

// Layouts used when rendering summary rows.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04:05"
)

// Recognised employment categories, stored in title case.
const (
	CategoryFullTime = "Full-Time"
	CategoryPartTime = "Part-Time"
)

// ParseCategory normalises a caller-supplied category. Only the two recognised values are accepted.
func ParseCategory(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "full-time":
		return CategoryFullTime, true
	case "part-time":
		return CategoryPartTime, true
	default:
		return "", false
	}
}

// IsPartTime reports whether a per-row category selects the part-time rule table.
func IsPartTime(category string) bool {
	return strings.EqualFold(strings.TrimSpace(category), "part-time")
}

// LateStatus labels a punch relative to the lateness windows. The zero value means on time.
type LateStatus string

const (
	LateStatusNone      LateStatus = ""
	LateStatusComesLate LateStatus = "Comes Late"
	LateStatusVeryLate  LateStatus = "Very Late"
)

// EarlyLeaveStatus labels a punch falling inside the early-leave window.
type EarlyLeaveStatus string

const (
	EarlyLeaveNone        EarlyLeaveStatus = ""
	EarlyLeaveLeavesEarly EarlyLeaveStatus = "Leave Early"
)

// PunchRecord is one normalised clock event.
type PunchRecord struct {
	Row       int       `json:"row"`
	PersonID  string    `json:"person_id"`
	Timestamp time.Time `json:"timestamp"`
	Valid     bool      `json:"valid"`
	Raw       string    `json:"raw,omitempty"`
	Category  string    `json:"employment_category,omitempty"`
}

// Date returns the calendar day of a valid punch at midnight in the punch location.
func (p PunchRecord) Date() (time.Time, bool) {
	if !p.Valid {
		return time.Time{}, false
	}
	y, m, d := p.Timestamp.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, p.Timestamp.Location()), true
}

// TimeOfDay returns the elapsed wall-clock time since midnight.
func TimeOfDay(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second + time.Duration(t.Nanosecond())
}

// ClassifiedRecord pairs a punch with its derived labels.
type ClassifiedRecord struct {
	PunchRecord
	LateStatus       LateStatus       `json:"late_status"`
	EarlyLeaveStatus EarlyLeaveStatus `json:"early_leave_status"`
}

// AttendanceSummary is the per person, per day reduction of classified punches.
type AttendanceSummary struct {
	PersonID         string           `json:"person_id"`
	Date             time.Time        `json:"date"`
	TimeIn           time.Time        `json:"time_in"`
	TimeOut          time.Time        `json:"time_out"`
	LateStatus       LateStatus       `json:"late_status"`
	EarlyLeaveStatus EarlyLeaveStatus `json:"early_leave_status"`
	Category         string           `json:"employment_category"`
	StatusText       string           `json:"status_text"`
}

// StatusText joins the late and early-leave labels with a single space, omitting empty parts.
func StatusText(late LateStatus, early EarlyLeaveStatus) string {
	switch {
	case late == LateStatusNone:
		return string(early)
	case early == EarlyLeaveNone:
		return string(late)
	default:
		return string(late) + " " + string(early)
	}
}

// RowWarning describes a source row excluded from a batch.
type RowWarning struct {
	Row    int    `json:"row"`
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// BatchResult is the outcome of processing one punch file.
type BatchResult struct {
	Summaries   []AttendanceSummary `json:"summaries"`
	TotalRows   int                 `json:"total_rows"`
	ValidRows   int                 `json:"valid_rows"`
	SkippedRows int                 `json:"skipped_rows"`
	Warnings    []RowWarning        `json:"warnings,omitempty"`
}
