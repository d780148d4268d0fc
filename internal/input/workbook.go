// =============================================================================
// Invoicing - Workbook Fetcher
// =============================================================================
//
// Reads the orders sheet from a local XLSX workbook, for sheets exported
// from Google Sheets or kept in Excel.
//
// The whole worksheet is loaded once with excelize; ranges are then cut out
// of memory. The file is closed before OpenWorkbook returns.
//
// =============================================================================

package input

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/invoicing/internal/errs"
)

// Workbook serves ranges of one worksheet.
type Workbook struct {
	Path  string
	Sheet string

	rows [][]string
}

// OpenWorkbook loads a worksheet.
//
// PARAMETERS:
//   - path: The XLSX file.
//   - sheetName: The worksheet; empty selects the first one.
//
// RETURNS:
//   - The loaded workbook.
//   - NotFoundError if the file does not exist, or an error if it cannot be
//     read or has no such sheet.
func OpenWorkbook(path, sheetName string) (*Workbook, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, &errs.NotFoundError{What: "workbook", Path: path}
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheetName = f.GetSheetName(0)
		if sheetName == "" {
			return nil, fmt.Errorf("workbook %s has no sheets", path)
		}
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet %q: %w", sheetName, err)
	}

	return &Workbook{Path: path, Sheet: sheetName, rows: rows}, nil
}

// Fetch implements Fetcher.
func (w *Workbook) Fetch(_ context.Context, a1Range string) ([][]string, error) {
	r, err := parseRange(a1Range)
	if err != nil {
		return nil, err
	}
	return r.slice(w.rows), nil
}
