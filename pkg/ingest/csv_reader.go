package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"

	appErrors "github.com/noah-isme/punch-attendance/pkg/errors"
)

// ReadCSV decodes a delimited punch export. The delimiter (comma, semicolon or tab) is sniffed from the header line.
func ReadCSV(r io.Reader) (Table, error) {
	br := bufio.NewReader(r)
	peek, _ := br.Peek(4096)

	reader := csv.NewReader(br)
	reader.Comma = sniffDelimiter(peek)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Table{}, appErrors.Clone(appErrors.ErrSchema, "punch file is empty")
		}
		return Table{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read csv header")
	}
	table, err := newTable(header)
	if err != nil {
		return Table{}, err
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read csv row")
		}
		line, _ := reader.FieldPos(0)
		table.appendRow(line, record)
	}
	return table, nil
}

func sniffDelimiter(sample []byte) rune {
	if i := bytes.IndexAny(sample, "\r\n"); i >= 0 {
		sample = sample[:i]
	}
	best, bestCount := ',', bytes.Count(sample, []byte{','})
	for _, candidate := range []rune{';', '\t'} {
		if n := bytes.Count(sample, []byte(string(candidate))); n > bestCount {
			best, bestCount = candidate, n
		}
	}
	return best
}
