package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"medschool-scraper/models"
)

// ErrInputNotFound means the CSV file to read does not exist. It aborts the
// pass but is not a crash: the caller may retry once the file is produced.
var ErrInputNotFound = errors.New("input file not found")

// CSVReader lazily reads a headered CSV file into RawRecords.
type CSVReader struct {
	path string
}

// NewCSVReader returns a reader for path. The file is not opened until Each.
func NewCSVReader(path string) *CSVReader {
	return &CSVReader{path: path}
}

// Path returns the file being read.
func (r *CSVReader) Path() string { return r.path }

// ErrMalformedRow marks a record the CSV parser could not read. The rest of
// the file is still read.
var ErrMalformedRow = errors.New("malformed row")

// RowFunc receives one data row and the physical line it starts on. When the
// record could not be parsed, row is nil and err wraps ErrMalformedRow.
// Returning a non-nil error stops Each.
type RowFunc func(line int, row models.RawRecord, err error) error

// Each reads the file from the start, calling fn for every data row. Header
// names are trimmed and lower-cased; short rows are padded with empty values.
// Stray quotes are read literally. The file is closed before Each returns;
// only a missing file, an I/O failure or an error from fn ends the pass early.
func (r *CSVReader) Each(fn RowFunc) error {
	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("csv: %s: %w", r.path, ErrInputNotFound)
		}
		return fmt.Errorf("csv: open %q: %w", r.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("csv: read header: %w", err)
	}
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			if err := fn(perr.StartLine, nil, fmt.Errorf("%w: %v", ErrMalformedRow, perr)); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("csv: read: %w", err)
		}
		line, _ := reader.FieldPos(0)

		rec := make(models.RawRecord, len(header))
		for i, col := range header {
			if col == "" {
				continue
			}
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		if err := fn(line, rec, nil); err != nil {
			return err
		}
	}
}
