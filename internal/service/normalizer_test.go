package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/punch-attendance/pkg/errors"
	"github.com/noah-isme/punch-attendance/pkg/ingest"
)

func punchTable(headers []string, rows ...[]string) ingest.Table {
	table := ingest.Table{Headers: headers}
	for i, cells := range rows {
		values := make(map[string]string, len(headers))
		for j, h := range headers {
			if j < len(cells) {
				values[h] = cells[j]
			}
		}
		table.Rows = append(table.Rows, ingest.Row{Line: i + 2, Values: values})
	}
	return table
}

func TestNormalizerParseTimestamp(t *testing.T) {
	n := NewNormalizer(time.UTC)

	cases := []struct {
		raw  string
		want time.Time
	}{
		{"2024-03-04 08:30:00", time.Date(2024, 3, 4, 8, 30, 0, 0, time.UTC)},
		{"2024-03-04 08:30", time.Date(2024, 3, 4, 8, 30, 0, 0, time.UTC)},
		{"2024-03-04T16:45:10", time.Date(2024, 3, 4, 16, 45, 10, 0, time.UTC)},
		{"2024/03/04 07:59:59", time.Date(2024, 3, 4, 7, 59, 59, 0, time.UTC)},
		{"3/4/2024 2:15 PM", time.Date(2024, 3, 4, 14, 15, 0, 0, time.UTC)},
		{"3/4/2024 09:05:00", time.Date(2024, 3, 4, 9, 5, 0, 0, time.UTC)},
		{"2024-03-04T08:30:00+07:00", time.Date(2024, 3, 4, 8, 30, 0, 0, time.FixedZone("", 7*3600))},
		{"45355.5", time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, ok := n.ParseTimestamp(tc.raw)
		require.True(t, ok, tc.raw)
		assert.True(t, tc.want.Equal(got), "%s: got %s", tc.raw, got)
	}

	for _, raw := range []string{"", "  ", "not a date", "2024-03-04", "45355", "-3.5", "2024-13-40 08:00:00"} {
		_, ok := n.ParseTimestamp(raw)
		assert.False(t, ok, raw)
	}
}

func TestNormalizerKeepsSourceOffset(t *testing.T) {
	n := NewNormalizer(time.UTC)
	got, ok := n.ParseTimestamp("2024-03-04T23:30:00+07:00")
	require.True(t, ok)
	assert.Equal(t, "23:30:00", got.Format("15:04:05"))
	y, m, d := got.Date()
	assert.Equal(t, []int{2024, 3, 4}, []int{y, int(m), d})
}

func TestNormalizerNormalize(t *testing.T) {
	n := NewNormalizer(time.UTC)
	table := punchTable([]string{"Name", "Date/Time"},
		[]string{"Alice", "2024-03-04 08:00:00"},
		[]string{"", "2024-03-04 08:05:00"},
		[]string{"Bob", "yesterday"},
		[]string{" Carol ", ""},
	)

	records, warnings, err := n.Normalize(table, " Part-Time ")
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "Alice", records[0].PersonID)
	assert.True(t, records[0].Valid)
	assert.Equal(t, "Part-Time", records[0].Category)
	assert.Equal(t, 2, records[0].Row)

	assert.False(t, records[1].Valid)
	assert.Equal(t, "yesterday", records[1].Raw)
	assert.Equal(t, "Carol", records[2].PersonID)
	assert.False(t, records[2].Valid)

	require.Len(t, warnings, 3)
	assert.Equal(t, 3, warnings[0].Row)
	assert.Equal(t, "missing person identifier", warnings[0].Reason)
	assert.Equal(t, "unparseable timestamp", warnings[1].Reason)
	assert.Equal(t, "missing timestamp", warnings[2].Reason)
}

func TestNormalizerCategoryColumnOverridesDefault(t *testing.T) {
	n := NewNormalizer(time.UTC)
	table := punchTable([]string{"Employee", "Date/Time", "employment type"},
		[]string{"E-1", "2024-03-04 08:00:00", "part-time"},
		[]string{"E-2", "2024-03-04 08:00:00", ""},
	)

	records, _, err := n.Normalize(table, "Full-Time")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "part-time", records[0].Category)
	assert.Equal(t, "", records[1].Category)
	assert.True(t, HasCategoryColumn(table))
}

func TestNormalizerSchemaErrors(t *testing.T) {
	n := NewNormalizer(time.UTC)

	_, _, err := n.Normalize(punchTable([]string{"Badge", "Date/Time"}), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrSchema))

	_, _, err = n.Normalize(punchTable([]string{"Name", "Timestamp"}), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrSchema))
}

func TestPersonColumnPrefersName(t *testing.T) {
	col, err := PersonColumn(punchTable([]string{"Employee", "Name", "Date/Time"}))
	require.NoError(t, err)
	assert.Equal(t, "Name", col)
}
