package sensors

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrNoHeaders is returned when the export has no header line.
	ErrNoHeaders = errors.New("sensor export has no headers")
	// ErrSourceMissing is returned when a file source does not exist.
	ErrSourceMissing = errors.New("sensor source file not found")
)

// ReadRows decodes a CSV stream into header-keyed rows. Short records are
// padded with empty values; extra columns are ignored.
func ReadRows(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeaders
	}
	if err != nil {
		return nil, fmt.Errorf("read headers: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	if len(headers) == 0 || (len(headers) == 1 && headers[0] == "") {
		return nil, ErrNoHeaders
	}

	rows := make([]Row, 0)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		row := make(Row, len(headers))
		for i, h := range headers {
			if i < len(record) {
				row[h] = record[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
