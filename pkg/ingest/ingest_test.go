package ingest

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	appErrors "github.com/noah-isme/punch-attendance/pkg/errors"
)

func TestReadCSV(t *testing.T) {
	input := "\ufeffName,Date/Time, Category \n" +
		"Alice,2024-03-04 08:00:00,Full-Time\n" +
		",,\n" +
		"Bob,2024-03-04 09:10:00,part-time\n"

	table, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "Date/Time", "Category"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, 2, table.Rows[0].Line)
	assert.Equal(t, "Alice", table.Rows[0].Get("Name"))
	assert.Equal(t, 4, table.Rows[1].Line)
	assert.Equal(t, "part-time", table.Rows[1].Get("Category"))
}

func TestReadCSVSemicolonAndShortRows(t *testing.T) {
	input := "Employee;Date/Time\nE-1;04/03/2024 08:00\nE-2\n"

	table, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "04/03/2024 08:00", table.Rows[0].Get("Date/Time"))
	assert.Equal(t, "", table.Rows[1].Get("Date/Time"))
}

func TestReadCSVEmpty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrSchema))
}

func TestReadCSVDuplicateHeader(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("Name,Name\na,b\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrSchema))
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Name", "Date/Time"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"Alice", "2024-03-04 08:00:00"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A5", &[]interface{}{"Bob", "2024-03-04 12:15:00"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	table, err := Read("punches.XLSX", buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Date/Time"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, 3, table.Rows[0].Line)
	assert.Equal(t, "Alice", table.Rows[0].Get("Name"))
	assert.Equal(t, 5, table.Rows[1].Line)
	assert.Equal(t, "2024-03-04 12:15:00", table.Rows[1].Get("Date/Time"))
}

func TestReadXLSXDatetimeCells(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Name", "Date/Time"}))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "Alice"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)))

	dateOnly, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"Bob", 45355}))
	require.NoError(t, f.SetCellStyle("Sheet1", "B3", "B3", dateOnly))

	custom := "yyyy/mm/dd hh:mm"
	withClock, err := f.NewStyle(&excelize.Style{CustomNumFmt: &custom})
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]interface{}{"Carol", 45355.75}))
	require.NoError(t, f.SetCellStyle("Sheet1", "B4", "B4", withClock))

	require.NoError(t, f.SetSheetRow("Sheet1", "A5", &[]interface{}{"Dan", 45355.5}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	table, err := Read("punches.xlsx", buf)
	require.NoError(t, err)
	require.Len(t, table.Rows, 4)
	assert.Equal(t, "2024-03-04 00:00:00", table.Rows[0].Get("Date/Time"))
	assert.Equal(t, "45355", table.Rows[1].Get("Date/Time"))
	assert.Equal(t, "2024-03-04 18:00:00", table.Rows[2].Get("Date/Time"))
	assert.Equal(t, "45355.5", table.Rows[3].Get("Date/Time"))
}

func TestCustomFormatHasTime(t *testing.T) {
	cases := map[string]bool{
		"yyyy-mm-dd hh:mm:ss": true,
		"[h]:mm":              true,
		"m/d/yyyy h AM/PM":    true,
		"yyyy-mm-dd":          false,
		"[Red]0.00":           false,
		`"shift "0`:           false,
		`\h0`:                false,
	}
	for code, want := range cases {
		assert.Equal(t, want, customFormatHasTime(code), code)
	}
}

func TestDetectFormat(t *testing.T) {
	format, err := DetectFormat("export.csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, format)

	_, err = DetectFormat("legacy.xls")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUnsupportedFormat))

	_, err = DetectFormat("notes.docx")
	assert.True(t, errors.Is(err, appErrors.ErrUnsupportedFormat))
}

func TestLookup(t *testing.T) {
	table := Table{Headers: []string{"Employee", "Date/Time", "employment type"}}

	col, ok := table.Lookup("Name", "Employee")
	assert.True(t, ok)
	assert.Equal(t, "Employee", col)

	_, ok = table.Lookup("name")
	assert.False(t, ok)

	col, ok = table.LookupFold("Category", "Employment Type")
	assert.True(t, ok)
	assert.Equal(t, "employment type", col)
}
