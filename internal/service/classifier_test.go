package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/punch-attendance/internal/models"
)

func punchAt(person, category string, h, m, s int) models.PunchRecord {
	return models.PunchRecord{
		PersonID:  person,
		Timestamp: time.Date(2024, 3, 4, h, m, s, 0, time.UTC),
		Valid:     true,
		Category:  category,
	}
}

func TestClassifyFullTimeBoundaries(t *testing.T) {
	cases := []struct {
		h, m, s int
		late    models.LateStatus
		early   models.EarlyLeaveStatus
	}{
		{7, 59, 0, models.LateStatusNone, models.EarlyLeaveNone},
		{8, 30, 0, models.LateStatusNone, models.EarlyLeaveNone},
		{8, 30, 1, models.LateStatusComesLate, models.EarlyLeaveNone},
		{10, 0, 0, models.LateStatusComesLate, models.EarlyLeaveNone},
		{10, 0, 1, models.LateStatusVeryLate, models.EarlyLeaveNone},
		{11, 59, 59, models.LateStatusVeryLate, models.EarlyLeaveNone},
		{12, 0, 0, models.LateStatusVeryLate, models.EarlyLeaveLeavesEarly},
		{16, 30, 0, models.LateStatusVeryLate, models.EarlyLeaveLeavesEarly},
		{16, 30, 1, models.LateStatusVeryLate, models.EarlyLeaveNone},
	}
	for _, tc := range cases {
		got := Classify(punchAt("A", "Full-Time", tc.h, tc.m, tc.s))
		assert.Equal(t, tc.late, got.LateStatus, "%02d:%02d:%02d", tc.h, tc.m, tc.s)
		assert.Equal(t, tc.early, got.EarlyLeaveStatus, "%02d:%02d:%02d", tc.h, tc.m, tc.s)
	}
}

func TestClassifyPartTimeBoundaries(t *testing.T) {
	cases := []struct {
		h, m, s int
		late    models.LateStatus
		early   models.EarlyLeaveStatus
	}{
		{8, 30, 0, models.LateStatusNone, models.EarlyLeaveNone},
		{8, 30, 1, models.LateStatusComesLate, models.EarlyLeaveNone},
		{9, 0, 0, models.LateStatusComesLate, models.EarlyLeaveNone},
		{9, 0, 1, models.LateStatusVeryLate, models.EarlyLeaveNone},
		{9, 59, 59, models.LateStatusVeryLate, models.EarlyLeaveNone},
		{10, 0, 0, models.LateStatusVeryLate, models.EarlyLeaveLeavesEarly},
		{12, 30, 0, models.LateStatusVeryLate, models.EarlyLeaveLeavesEarly},
		{12, 30, 1, models.LateStatusVeryLate, models.EarlyLeaveNone},
	}
	for _, tc := range cases {
		got := Classify(punchAt("B", "PART-TIME", tc.h, tc.m, tc.s))
		assert.Equal(t, tc.late, got.LateStatus, "%02d:%02d:%02d", tc.h, tc.m, tc.s)
		assert.Equal(t, tc.early, got.EarlyLeaveStatus, "%02d:%02d:%02d", tc.h, tc.m, tc.s)
	}
}

func TestClassifySubSecondPrecision(t *testing.T) {
	rec := punchAt("A", "Full-Time", 8, 30, 0)
	rec.Timestamp = rec.Timestamp.Add(time.Millisecond)
	assert.Equal(t, models.LateStatusComesLate, Classify(rec).LateStatus)
}

func TestRulesForUnknownCategoryUsesFullTime(t *testing.T) {
	for _, category := range []string{"", "Contractor", "full-time", " Part-Time "} {
		want := FullTimeRules
		if models.IsPartTime(category) {
			want = PartTimeRules
		}
		assert.Equal(t, want, RulesFor(category), category)
	}
	assert.Equal(t, PartTimeRules, RulesFor(" Part-Time "))
}

func TestClassifyInvalidRecordUnlabeled(t *testing.T) {
	got := Classify(models.PunchRecord{PersonID: "A", Raw: "garbage"})
	assert.Equal(t, models.LateStatusNone, got.LateStatus)
	assert.Equal(t, models.EarlyLeaveNone, got.EarlyLeaveStatus)

	all := ClassifyAll([]models.PunchRecord{
		{PersonID: "A", Raw: "garbage"},
		punchAt("A", "", 8, 0, 0),
	})
	assert.Len(t, all, 1)
}

func TestClassifyIsDeterministic(t *testing.T) {
	records := []models.PunchRecord{
		punchAt("A", "Full-Time", 9, 15, 0),
		punchAt("A", "Full-Time", 13, 0, 0),
		punchAt("B", "Part-Time", 9, 30, 0),
	}
	assert.Equal(t, ClassifyAll(records), ClassifyAll(records))
}
