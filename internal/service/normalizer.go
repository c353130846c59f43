package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/punch-attendance/internal/models"
	appErrors "github.com/noah-isme/punch-attendance/pkg/errors"
	"github.com/noah-isme/punch-attendance/pkg/ingest"
)

// Column names recognised in punch exports.
const (
	ColumnTimestamp = "Date/Time"
	ColumnName      = "Name"
	ColumnEmployee  = "Employee"
)

// categoryColumns are matched case-insensitively, in order.
var categoryColumns = []string{"Category", "Employment Category", "Employment Type"}

// timestampLayouts are tried in order; each attempt is a strict parse.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006 3:04:05PM",
	"1-2-2006 15:04:05",
	"1-2-2006 15:04",
}

// Excel serial day numbers accepted as timestamps: 1900-01-01 through 9999-12-31.
const (
	minExcelSerial = 1.0
	maxExcelSerial = 2958465.0
)

// Normalizer turns raw punch rows into PunchRecords.
type Normalizer struct {
	loc *time.Location
}

// NewNormalizer builds a normalizer interpreting zone-less timestamps in loc.
func NewNormalizer(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.Local
	}
	return &Normalizer{loc: loc}
}

// HasCategoryColumn reports whether the export carries a per-row employment category.
func HasCategoryColumn(table ingest.Table) bool {
	_, ok := table.LookupFold(categoryColumns...)
	return ok
}

// PersonColumn resolves the person identifier column, preferring Name over Employee.
func PersonColumn(table ingest.Table) (string, error) {
	col, ok := table.Lookup(ColumnName, ColumnEmployee)
	if !ok {
		return "", appErrors.Clone(appErrors.ErrSchema, "punch file needs a Name or Employee column")
	}
	return col, nil
}

// CheckSchema verifies the header row carries the person and timestamp columns.
func CheckSchema(table ingest.Table) error {
	if _, err := PersonColumn(table); err != nil {
		return err
	}
	if !table.Has(ColumnTimestamp) {
		return appErrors.Clone(appErrors.ErrSchema, fmt.Sprintf("punch file needs a %s column", ColumnTimestamp))
	}
	return nil
}

// Normalize parses every row. Rows with an unparseable timestamp are kept with Valid=false and
// reported as warnings; rows without a person identifier are dropped with a warning.
func (n *Normalizer) Normalize(table ingest.Table, defaultCategory string) ([]models.PunchRecord, []models.RowWarning, error) {
	if err := CheckSchema(table); err != nil {
		return nil, nil, err
	}
	personCol, _ := PersonColumn(table)
	categoryCol, explicit := table.LookupFold(categoryColumns...)
	defaultCategory = strings.TrimSpace(defaultCategory)

	records := make([]models.PunchRecord, 0, len(table.Rows))
	var warnings []models.RowWarning
	for _, row := range table.Rows {
		person := row.Get(personCol)
		if person == "" {
			warnings = append(warnings, models.RowWarning{Row: row.Line, Field: personCol, Reason: "missing person identifier"})
			continue
		}

		rec := models.PunchRecord{Row: row.Line, PersonID: person, Category: defaultCategory}
		if explicit {
			rec.Category = row.Get(categoryCol)
		}

		raw := row.Get(ColumnTimestamp)
		if ts, ok := n.ParseTimestamp(raw); ok {
			rec.Timestamp = ts
			rec.Valid = true
		} else {
			rec.Raw = raw
			reason := "unparseable timestamp"
			if raw == "" {
				reason = "missing timestamp"
			}
			warnings = append(warnings, models.RowWarning{Row: row.Line, Field: ColumnTimestamp, Value: raw, Reason: reason})
		}
		records = append(records, rec)
	}
	return records, warnings, nil
}

// ParseTimestamp tries each known layout, then RFC 3339, then an Excel serial day number.
// Values without an offset are read in the normalizer's zone; an explicit offset is kept so the
// punched wall-clock time is what gets classified.
func (n *Normalizer) ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, raw, n.loc); err == nil {
			return ts, true
		}
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, true
	}
	return n.parseSerial(raw)
}

func (n *Normalizer) parseSerial(raw string) (time.Time, bool) {
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(serial) || serial < minExcelSerial || serial > maxExcelSerial {
		return time.Time{}, false
	}
	// A whole number is a bare date with no time of day.
	if serial == math.Trunc(serial) {
		return time.Time{}, false
	}
	ts, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	ts = ts.Round(time.Second)
	return time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), ts.Minute(), ts.Second(), 0, n.loc), true
}
