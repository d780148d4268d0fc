// =============================================================================
// Invoicing - Input Collaborators
// =============================================================================
//
// An input collaborator turns one spreadsheet into orders. The layout of the
// sheet (which cells, columns and lines to read) comes from the "input"
// section of the configuration; where the cells come from is a Fetcher:
//
//   google : Google Sheets API, one request per range
//   xlsx   : a local workbook read with excelize
//   csv    : a local CSV export of the sheet
//
// READ SEQUENCE:
//   1. Resolve the column letters (ConfigError on a bad letter)
//   2. Date cell
//   3. Promotion name and value cells
//   4. Names line and prices line, from column A to the last column
//   5. Orders block A<orders line>:<last column><last line>
//
// =============================================================================

package input

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/invoicing/internal/config"
	"github.com/ginjaninja78/invoicing/internal/errs"
	"github.com/ginjaninja78/invoicing/internal/orders"
	"github.com/ginjaninja78/invoicing/internal/sheet"
)

// Reader produces the orders of one spreadsheet.
type Reader interface {
	Read(ctx context.Context) ([]orders.Order, error)
}

// Fetcher returns the cells of an A1 range ("B2", "A5:H40") as rows of
// strings. Trailing empty cells and rows may be omitted.
type Fetcher interface {
	Fetch(ctx context.Context, a1Range string) ([][]string, error)
}

// =============================================================================
// FACTORY
// =============================================================================

// Options selects and configures the input collaborator.
type Options struct {
	// Config is the input section, already checked by Config.RequireInput.
	Config *config.InputConfig

	// Source overrides Config.SpreadsheetID (the --input flag).
	Source string

	// InputDir is searched for relative workbook and CSV paths.
	InputDir string

	Log *logrus.Entry
}

// Open builds the reader for the configured source.
func Open(ctx context.Context, opts Options) (*SheetReader, error) {
	in := opts.Config
	source := opts.Source
	if source == "" {
		source = in.SpreadsheetID
	}
	if source == "" {
		return nil, &errs.ConfigError{Key: "input.spreadsheet_id", Msg: "no spreadsheet given (use --input)"}
	}

	log := opts.Log.WithField("input", in.Source)

	var (
		fetcher Fetcher
		err     error
	)
	switch in.Source {
	case config.SourceGoogle:
		fetcher, err = NewGoogleFetcher(ctx, source, in, log)
	case config.SourceXLSX:
		fetcher, err = OpenWorkbook(localPath(source, opts.InputDir), in.Sheet)
	case config.SourceCSV:
		fetcher, err = OpenCSV(localPath(source, opts.InputDir), in.CSVDelimiter)
	default:
		return nil, &errs.ConfigError{Key: "input.source", Msg: fmt.Sprintf("unknown source %q", in.Source)}
	}
	if err != nil {
		return nil, err
	}

	log.WithField("source", source).Debug("input opened")
	return NewSheetReader(in, fetcher, log), nil
}

// localPath resolves a relative path against the input folder when it does
// not exist as given.
func localPath(path, inputDir string) string {
	if filepath.IsAbs(path) || inputDir == "" {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return filepath.Join(inputDir, path)
}

// =============================================================================
// SHEET READER
// =============================================================================

// SheetReader reads the configured layout through a Fetcher.
type SheetReader struct {
	in      *config.InputConfig
	fetcher Fetcher
	log     *logrus.Entry
}

// NewSheetReader binds a layout to a fetcher.
func NewSheetReader(in *config.InputConfig, fetcher Fetcher, log *logrus.Entry) *SheetReader {
	return &SheetReader{in: in, fetcher: fetcher, log: log}
}

// Read implements Reader.
func (r *SheetReader) Read(ctx context.Context) ([]orders.Order, error) {
	layout, err := sheet.NewLayout(r.in.Columns)
	if err != nil {
		return nil, err
	}
	lines := r.in.Lines
	last := r.in.Columns.Last

	r.log.Debug("requesting date cell")
	date, err := r.cell(ctx, r.in.Cells.Date)
	if err != nil {
		return nil, err
	}
	r.log.Debugf("order date: %s", date)

	r.log.Debug("requesting promotion cells")
	promoName, err := r.cell(ctx, r.in.Cells.PromotionName)
	if err != nil {
		return nil, err
	}
	promoValue, err := r.cell(ctx, r.in.Cells.PromotionValue)
	if err != nil {
		return nil, err
	}
	promotion, err := sheet.ParsePromotion(promoName, promoValue)
	if err != nil {
		r.log.WithError(err).Debug("promotion ignored")
	}
	if promotion != nil {
		r.log.Infof("order promotion %s", promotion)
	}

	names, err := r.line(ctx, fmt.Sprintf("A%d:%s%d", lines.Names, last, lines.Names))
	if err != nil {
		return nil, err
	}
	prices, err := r.line(ctx, fmt.Sprintf("A%d:%s%d", lines.Prices, last, lines.Prices))
	if err != nil {
		return nil, err
	}

	items, consigns, skipped := sheet.ReadColumns(names, prices, layout)
	for _, e := range skipped {
		r.log.Debug(e)
	}
	r.log.Infof("found %d items, %d consigns", len(items), len(consigns))
	for _, c := range items {
		r.log.Debugf("item %s", c)
	}
	for _, c := range consigns {
		r.log.Debugf("consign %s", c)
	}

	rows, err := r.fetch(ctx, fmt.Sprintf("A%d:%s%d", lines.Orders, last, lines.Last))
	if err != nil {
		return nil, err
	}

	result, skipped := sheet.BuildOrders(rows, lines.Orders, items, consigns, layout, sheet.Header{
		Date:      date,
		Promotion: promotion,
	})
	for _, e := range skipped {
		r.log.Debug(e)
	}
	for _, o := range result {
		r.log.Debugf("order %s: %s: %s: %d items, %d consigns, %s total",
			o.OrderID, o.Client, o.Date, len(o.Items), len(o.Consigns), o.TotalAll())
	}
	r.log.Infof("found %d orders", len(result))

	return result, nil
}

func (r *SheetReader) fetch(ctx context.Context, a1 string) ([][]string, error) {
	r.log.Debugf("requesting range : %s", a1)
	values, err := r.fetcher.Fetch(ctx, a1)
	if err != nil {
		return nil, err
	}
	r.log.Debugf("got result, size %d", len(values))
	return values, nil
}

// cell returns the first value of the range, "" when it is empty.
func (r *SheetReader) cell(ctx context.Context, a1 string) (string, error) {
	row, err := r.line(ctx, a1)
	if err != nil || len(row) == 0 {
		return "", err
	}
	return row[0], nil
}

// line returns the first row of the range.
func (r *SheetReader) line(ctx context.Context, a1 string) ([]string, error) {
	values, err := r.fetch(ctx, a1)
	if err != nil || len(values) == 0 {
		return nil, err
	}
	return values[0], nil
}
