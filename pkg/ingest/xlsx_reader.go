package ingest

import (
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	appErrors "github.com/noah-isme/punch-attendance/pkg/errors"
)

// ReadXLSX decodes the active sheet of a workbook. Cell values are read raw, so date cells
// arrive as Excel serial day numbers. Numeric cells whose number format carries a time of day
// are rendered as "2006-01-02 15:04:05" so that a midnight datetime is not mistaken for a bare
// date.
func ReadXLSX(r io.Reader) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to open workbook")
	}
	defer f.Close() //nolint:errcheck

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return Table{}, appErrors.Clone(appErrors.ErrSchema, "workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return Table{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read worksheet")
	}

	headerIdx := -1
	for i, row := range rows {
		if !blankCells(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return Table{}, appErrors.Clone(appErrors.ErrSchema, "punch file is empty")
	}

	table, err := newTable(rows[headerIdx])
	if err != nil {
		return Table{}, err
	}
	formats := datetimeFormats{file: f, sheet: sheet, byStyle: make(map[int]bool)}
	for i := headerIdx + 1; i < len(rows); i++ {
		table.appendRow(i+1, formats.render(i+1, rows[i]))
	}
	return table, nil
}

// DatetimeLayout is how serial datetime cells are rendered.
const DatetimeLayout = "2006-01-02 15:04:05"

// Built-in number formats that show a time of day (ECMA-376 18.8.30).
var builtinTimeFormats = map[int]bool{18: true, 19: true, 20: true, 21: true, 22: true, 45: true, 46: true, 47: true}

type datetimeFormats struct {
	file    *excelize.File
	sheet   string
	byStyle map[int]bool
}

func (d datetimeFormats) render(line int, cells []string) []string {
	for col, raw := range cells {
		serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || serial <= 0 || math.IsNaN(serial) || math.IsInf(serial, 0) {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col+1, line)
		if err != nil {
			continue
		}
		styleID, err := d.file.GetCellStyle(d.sheet, cell)
		if err != nil || !d.hasTime(styleID) {
			continue
		}
		ts, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			continue
		}
		cells[col] = ts.Round(time.Second).Format(DatetimeLayout)
	}
	return cells
}

func (d datetimeFormats) hasTime(styleID int) bool {
	if styleID == 0 {
		return false
	}
	if known, ok := d.byStyle[styleID]; ok {
		return known
	}
	timed := false
	if style, err := d.file.GetStyle(styleID); err == nil && style != nil {
		timed = builtinTimeFormats[style.NumFmt]
		if style.CustomNumFmt != nil {
			timed = customFormatHasTime(*style.CustomNumFmt)
		}
	}
	d.byStyle[styleID] = timed
	return timed
}

// customFormatHasTime reports whether a format code has an hour token outside quoted literals
// and bracketed sections such as colours. Elapsed hours ("[h]") count.
func customFormatHasTime(code string) bool {
	code = strings.ToLower(code)
	if strings.Contains(code, "[h") {
		return true
	}
	var quoted, bracket bool
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case c == '\\' && !quoted:
			i++
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == '[':
			bracket = true
		case c == ']':
			bracket = false
		case !bracket && c == 'h':
			return true
		}
	}
	return false
}

func blankCells(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
