package ingest

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	appErrors "github.com/noah-isme/punch-attendance/pkg/errors"
)

// Format identifies a supported punch file encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Row is one data row keyed by header name. Line is the 1-based line or sheet row in the source.
type Row struct {
	Line   int
	Values map[string]string
}

// Get returns the trimmed cell value for the column, or "" when absent.
func (r Row) Get(column string) string {
	return strings.TrimSpace(r.Values[column])
}

// Table holds raw punch rows exactly as read from an uploaded file.
type Table struct {
	Headers []string
	Rows    []Row
}

// Has reports whether the header row contains the exact column name.
func (t Table) Has(column string) bool {
	for _, h := range t.Headers {
		if h == column {
			return true
		}
	}
	return false
}

// Lookup returns the first candidate present in the header row, compared exactly.
func (t Table) Lookup(candidates ...string) (string, bool) {
	for _, c := range candidates {
		if t.Has(c) {
			return c, true
		}
	}
	return "", false
}

// LookupFold is Lookup with case-insensitive comparison; it returns the header as spelled in the file.
func (t Table) LookupFold(candidates ...string) (string, bool) {
	for _, c := range candidates {
		for _, h := range t.Headers {
			if strings.EqualFold(h, c) {
				return h, true
			}
		}
	}
	return "", false
}

// DetectFormat maps a file name to a reader by extension.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".xls":
		return "", appErrors.Clone(appErrors.ErrUnsupportedFormat, "legacy .xls workbooks are not supported, save the file as .xlsx or .csv")
	default:
		return "", appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("unsupported punch file %q, expected .csv or .xlsx", filepath.Base(filename)))
	}
}

// Read decodes a punch file using the reader matching its extension.
func Read(filename string, r io.Reader) (Table, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return Table{}, err
	}
	switch format {
	case FormatXLSX:
		return ReadXLSX(r)
	default:
		return ReadCSV(r)
	}
}

func newTable(header []string) (Table, error) {
	headers := make([]string, len(header))
	seen := make(map[string]struct{}, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := seen[h]; dup && h != "" {
			return Table{}, appErrors.Clone(appErrors.ErrSchema, fmt.Sprintf("duplicate column %q", h))
		}
		seen[h] = struct{}{}
		headers[i] = h
	}
	return Table{Headers: headers}, nil
}

func (t *Table) appendRow(line int, cells []string) {
	blank := true
	values := make(map[string]string, len(t.Headers))
	for i, h := range t.Headers {
		if h == "" || i >= len(cells) {
			continue
		}
		values[h] = cells[i]
		if strings.TrimSpace(cells[i]) != "" {
			blank = false
		}
	}
	if blank {
		return
	}
	t.Rows = append(t.Rows, Row{Line: line, Values: values})
}
