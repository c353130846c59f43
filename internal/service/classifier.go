package service

import (
	"time"

	"github.com/noah-isme/punch-attendance/internal/models"
)

// RuleTable holds the time-of-day thresholds for one employment category.
type RuleTable struct {
	Category string
	// LateAfter is the exclusive lower bound of the ComesLate window.
	LateAfter time.Duration
	// VeryLateAfter is the inclusive upper bound of ComesLate and the exclusive lower bound of VeryLate.
	VeryLateAfter time.Duration
	// EarlyLeaveFrom and EarlyLeaveUntil bound the LeavesEarly window, both inclusive.
	EarlyLeaveFrom  time.Duration
	EarlyLeaveUntil time.Duration
}

func clock(h, m int) time.Duration {
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute
}

var (
	FullTimeRules = RuleTable{
		Category:        models.CategoryFullTime,
		LateAfter:       clock(8, 30),
		VeryLateAfter:   clock(10, 0),
		EarlyLeaveFrom:  clock(12, 0),
		EarlyLeaveUntil: clock(16, 30),
	}
	PartTimeRules = RuleTable{
		Category:        models.CategoryPartTime,
		LateAfter:       clock(8, 30),
		VeryLateAfter:   clock(9, 0),
		EarlyLeaveFrom:  clock(10, 0),
		EarlyLeaveUntil: clock(12, 30),
	}
)

// RulesFor selects the part-time table for "part-time" (any case); every other value uses full-time.
func RulesFor(category string) RuleTable {
	if models.IsPartTime(category) {
		return PartTimeRules
	}
	return FullTimeRules
}

// Late classifies a time of day. VeryLate is checked first so the windows never overlap.
func (r RuleTable) Late(tod time.Duration) models.LateStatus {
	switch {
	case tod > r.VeryLateAfter:
		return models.LateStatusVeryLate
	case tod > r.LateAfter:
		return models.LateStatusComesLate
	default:
		return models.LateStatusNone
	}
}

// EarlyLeave classifies a time of day against the closed early-leave window.
func (r RuleTable) EarlyLeave(tod time.Duration) models.EarlyLeaveStatus {
	if tod >= r.EarlyLeaveFrom && tod <= r.EarlyLeaveUntil {
		return models.EarlyLeaveLeavesEarly
	}
	return models.EarlyLeaveNone
}

// Classify labels one punch. Invalid punches keep both labels empty.
func Classify(rec models.PunchRecord) models.ClassifiedRecord {
	out := models.ClassifiedRecord{PunchRecord: rec}
	if !rec.Valid {
		return out
	}
	rules := RulesFor(rec.Category)
	tod := models.TimeOfDay(rec.Timestamp)
	out.LateStatus = rules.Late(tod)
	out.EarlyLeaveStatus = rules.EarlyLeave(tod)
	return out
}

// ClassifyAll labels every valid punch and drops the invalid ones, which have no calendar date.
func ClassifyAll(records []models.PunchRecord) []models.ClassifiedRecord {
	out := make([]models.ClassifiedRecord, 0, len(records))
	for _, rec := range records {
		if !rec.Valid {
			continue
		}
		out = append(out, Classify(rec))
	}
	return out
}
