package service

import (
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/punch-attendance/internal/models"
)

type groupKey struct {
	person string
	year   int
	month  time.Month
	day    int
}

// Aggregate reduces classified punches to one summary per (person, calendar date), sorted by
// person then date. Within a group the chronologically first punch decides the late status,
// any punch marks early leave, and the first punch seen in input order decides the category.
func Aggregate(records []models.ClassifiedRecord) []models.AttendanceSummary {
	groups := make(map[groupKey][]models.ClassifiedRecord)
	for _, rec := range records {
		if !rec.Valid {
			continue
		}
		y, m, d := rec.Timestamp.Date()
		key := groupKey{person: rec.PersonID, year: y, month: m, day: d}
		groups[key] = append(groups[key], rec)
	}

	summaries := make([]models.AttendanceSummary, 0, len(groups))
	for _, group := range groups {
		summaries = append(summaries, reduceGroup(group))
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].PersonID != summaries[j].PersonID {
			return summaries[i].PersonID < summaries[j].PersonID
		}
		return summaries[i].Date.Before(summaries[j].Date)
	})
	return summaries
}

func reduceGroup(group []models.ClassifiedRecord) models.AttendanceSummary {
	category := strings.TrimSpace(group[0].Category)
	if category == "" {
		category = models.CategoryFullTime
	}

	ordered := make([]models.ClassifiedRecord, len(group))
	copy(ordered, group)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	first, last := ordered[0], ordered[len(ordered)-1]
	early := models.EarlyLeaveNone
	for _, rec := range ordered {
		if rec.EarlyLeaveStatus == models.EarlyLeaveLeavesEarly {
			early = models.EarlyLeaveLeavesEarly
			break
		}
	}
	date, _ := first.Date()

	return models.AttendanceSummary{
		PersonID:         first.PersonID,
		Date:             date,
		TimeIn:           first.Timestamp,
		TimeOut:          last.Timestamp,
		LateStatus:       first.LateStatus,
		EarlyLeaveStatus: early,
		Category:         category,
		StatusText:       models.StatusText(first.LateStatus, early),
	}
}
