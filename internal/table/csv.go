package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// CSVOptions controls how delimited text is read.
type CSVOptions struct {
	Comma         rune // Field delimiter (default ',')
	SkipFirstLine bool // Skip a non-data line that precedes the header
}

// ReadCSV parses delimited text whose first (or, with SkipFirstLine, second) record is the header.
//
// Rows shorter than the header are padded with empty cells; longer rows are truncated.
func ReadCSV(r io.Reader, opts CSVOptions) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}

	if opts.SkipFirstLine {
		if _, err := reader.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("failed to read CSV: no header line")
			}
			return nil, fmt.Errorf("failed to skip first CSV line: %w", err)
		}
	}

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read CSV: no header line")
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	t := New(header...)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		t.Append(record...)
	}

	return t, nil
}

// ParseCSV is [ReadCSV] over a byte slice.
func ParseCSV(data []byte, opts CSVOptions) (*Table, error) {
	return ReadCSV(bytes.NewReader(data), opts)
}

// WriteCSV writes the header and every row as delimited text.
//
// comma defaults to ','.
func (t *Table) WriteCSV(w io.Writer, comma rune) error {
	writer := csv.NewWriter(w)
	if comma != 0 {
		writer.Comma = comma
	}

	if err := writer.Write(t.Columns); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}
	return nil
}

// Bytes renders the table as delimited text.
func (t *Table) Bytes(comma rune) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.WriteCSV(&buf, comma); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
