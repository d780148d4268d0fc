// =============================================================================
// Invoicing - CSV Fetcher
// =============================================================================
//
// Reads the orders sheet from a CSV export ("File > Download > CSV" in
// Google Sheets). Line N of the file is row N of the sheet and field K is
// column K, so the configured cells, columns and lines apply unchanged.
//
// DELIMITERS:
//   ","  (default), ";" or "semicolon", "|" or "pipe", "\t" or "tab"
//
// =============================================================================

package input

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ginjaninja78/invoicing/internal/errs"
)

// CSVExport serves ranges of a CSV file.
type CSVExport struct {
	Path string

	rows [][]string
}

// OpenCSV loads a CSV export.
func OpenCSV(path, delimiter string) (*CSVExport, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &errs.NotFoundError{What: "csv", Path: path}
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(bufio.NewReader(file))
	configureReader(reader, delimiter)

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}

	return &CSVExport{Path: path, rows: rows}, nil
}

// Fetch implements Fetcher.
func (c *CSVExport) Fetch(_ context.Context, a1Range string) ([][]string, error) {
	r, err := parseRange(a1Range)
	if err != nil {
		return nil, err
	}
	return r.slice(c.rows), nil
}

// configureReader sets the delimiter and relaxes the CSV rules; sheet
// exports have ragged rows.
func configureReader(reader *csv.Reader, delimiter string) {
	switch delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if r, _ := utf8.DecodeRuneInString(delimiter); r != utf8.RuneError {
			reader.Comma = r
		} else {
			reader.Comma = ','
		}
	}

	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
}
