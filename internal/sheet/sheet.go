// =============================================================================
// Invoicing - Sheet Interpretation
// =============================================================================
//
// This module turns raw tabular strings into orders. It knows nothing about
// where the strings come from (Google Sheets, a workbook, a CSV export).
//
// SHEET STRUCTURE (example, letters and lines are configurable):
//
//   |   | A        | B       | C        | D      | E      | F      | G      |
//   |---|----------|---------|----------|--------|--------|--------|--------|
//   | 1 | Date     | 05/03   |          |        |        |        |        |
//   | 2 | Promo    | Spring  | 10       |        |        |        |        |
//   | 3 |          |         |          | Crate  | Bottle | Apple  | Pear   |   <- names line
//   | 4 |          |         |          | 1.5    | 0.2    | 2.10   | 3      |   <- prices line
//   | 5 | 1        | ACME    | Dock 4   | 2      |        | 10     | 4      |   <- first order line
//   | 6 | 2        | Bistro  |          |        | 6      | x      | 1      |
//
//   D..E are consignments (before the sales column F), F..G are items.
//
// PARSING RULES:
//   - A column is used only if its name and price are both non-empty and the
//     price is a decimal. Other columns are skipped.
//   - A row becomes an order only if its order id and client are non-empty.
//   - A quantity cell that is empty or not a decimal is skipped; the rest of
//     the row is kept.
//
// Skipped cells are reported as ParseErrors so the caller can log them; they
// never stop the run.
//
// =============================================================================

package sheet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/invoicing/internal/config"
	"github.com/ginjaninja78/invoicing/internal/errs"
	"github.com/ginjaninja78/invoicing/internal/orders"
)

// =============================================================================
// LAYOUT
// =============================================================================

// Layout holds 0-based column indices.
type Layout struct {
	OrderID       int
	Client        int
	DeliveryPoint int

	// Consigns is the first priced column.
	Consigns int

	// Sales is the first item column; priced columns before it are
	// consignments.
	Sales int

	// Last is the last priced column, inclusive.
	Last int
}

// ColumnIndex converts a column name ("A", "AB") to a 0-based index.
func ColumnIndex(name string) (int, error) {
	n, err := excelize.ColumnNameToNumber(strings.TrimSpace(name))
	if err != nil {
		return 0, err
	}
	return n - 1, nil
}

// ColumnName converts a 0-based index back to a column name.
func ColumnName(index int) string {
	name, err := excelize.ColumnNumberToName(index + 1)
	if err != nil {
		return strconv.Itoa(index)
	}
	return name
}

// NewLayout resolves the configured column letters.
func NewLayout(cols config.ColumnsConfig) (Layout, error) {
	var layout Layout

	fields := []struct {
		key   string
		value string
		dst   *int
	}{
		{"input.columns.order_id", cols.OrderID, &layout.OrderID},
		{"input.columns.client", cols.Client, &layout.Client},
		{"input.columns.delivery_point", cols.DeliveryPoint, &layout.DeliveryPoint},
		{"input.columns.consigns", cols.Consigns, &layout.Consigns},
		{"input.columns.sales", cols.Sales, &layout.Sales},
		{"input.columns.last", cols.Last, &layout.Last},
	}
	for _, f := range fields {
		idx, err := ColumnIndex(f.value)
		if err != nil {
			return Layout{}, &errs.ConfigError{Key: f.key, Msg: fmt.Sprintf("invalid column %q: %v", f.value, err)}
		}
		*f.dst = idx
	}

	if layout.Last < layout.Consigns {
		return Layout{}, &errs.ConfigError{Key: "input.columns.last", Msg: "must not be before input.columns.consigns"}
	}
	return layout, nil
}

// =============================================================================
// PRICED COLUMNS
// =============================================================================

// Column is a priced column of the sheet.
type Column struct {
	Index int
	Name  string
	Price decimal.Decimal
}

func (c Column) String() string {
	return fmt.Sprintf("%d:%s:%s", c.Index, c.Name, c.Price)
}

// ReadColumns pairs the names line with the prices line.
//
// PARAMETERS:
//   - names: The cells of the names line, starting at column A.
//   - prices: The cells of the prices line, starting at column A.
//   - layout: The column layout.
//
// RETURNS:
//   - items: priced columns from layout.Sales on.
//   - consigns: priced columns before layout.Sales.
//   - skipped: one ParseError per column whose price did not parse.
func ReadColumns(names, prices []string, layout Layout) (items, consigns []Column, skipped []*errs.ParseError) {
	for i := layout.Consigns; i <= layout.Last; i++ {
		if i >= len(names) || i >= len(prices) {
			continue
		}
		name := strings.ReplaceAll(names[i], "\n", "")
		priceCell := prices[i]
		if name == "" || priceCell == "" {
			continue
		}

		price, err := parseDecimal(priceCell)
		if err != nil {
			skipped = append(skipped, &errs.ParseError{
				Where: "price of column " + ColumnName(i),
				Value: priceCell,
				Err:   err,
			})
			continue
		}

		col := Column{Index: i, Name: name, Price: price}
		if i < layout.Sales {
			consigns = append(consigns, col)
		} else {
			items = append(items, col)
		}
	}
	return items, consigns, skipped
}

// =============================================================================
// HEADER
// =============================================================================

// Header holds the values shared by every order of the sheet.
type Header struct {
	Date      string
	Promotion *orders.Promotion
}

// ParsePromotion builds the promotion from its two cells. Either cell empty
// means no promotion. A value that is not an integer is a ParseError and
// also means no promotion.
func ParsePromotion(name, value string) (*orders.Promotion, error) {
	if name == "" || value == "" {
		return nil, nil
	}
	percent, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return nil, &errs.ParseError{Where: "promotion value", Value: value, Err: err}
	}
	return &orders.Promotion{Name: name, Percent: percent}, nil
}

// =============================================================================
// ORDERS
// =============================================================================

// BuildOrders emits one order per qualifying row, in row order.
//
// PARAMETERS:
//   - rows: The order lines, each starting at column A.
//   - firstLine: The 1-based sheet line of rows[0], for error messages.
//   - items, consigns: The priced columns from ReadColumns.
//   - layout: The column layout.
//   - header: Date and promotion shared by all orders.
//
// RETURNS:
//   - The orders.
//   - One ParseError per quantity cell that was skipped.
func BuildOrders(rows [][]string, firstLine int, items, consigns []Column, layout Layout, header Header) ([]orders.Order, []*errs.ParseError) {
	var (
		result  []orders.Order
		skipped []*errs.ParseError
	)

	for r, row := range rows {
		orderID := cell(row, layout.OrderID)
		client := cell(row, layout.Client)
		if orderID == "" || client == "" {
			continue
		}

		order := orders.Order{
			OrderID:       orderID,
			Client:        client,
			DeliveryPoint: cell(row, layout.DeliveryPoint),
			Date:          header.Date,
		}
		if header.Promotion != nil {
			p := *header.Promotion
			order.Promotion = &p
		}

		line := firstLine + r
		var bad []*errs.ParseError
		order.Items, bad = readLines(row, line, items)
		skipped = append(skipped, bad...)
		order.Consigns, bad = readLines(row, line, consigns)
		skipped = append(skipped, bad...)

		result = append(result, order)
	}

	return result, skipped
}

func readLines(row []string, line int, columns []Column) ([]orders.Item, []*errs.ParseError) {
	var (
		lines   []orders.Item
		skipped []*errs.ParseError
	)
	for _, col := range columns {
		value := cell(row, col.Index)
		if value == "" {
			continue
		}
		qty, err := parseDecimal(value)
		if err != nil {
			skipped = append(skipped, &errs.ParseError{
				Where: fmt.Sprintf("%s%d", ColumnName(col.Index), line),
				Value: value,
				Err:   err,
			})
			continue
		}
		lines = append(lines, orders.NewItem(col.Name, qty, col.Price))
	}
	return lines, skipped
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// cell safely reads row[index].
func cell(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return row[index]
}

func parseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(s))
}
