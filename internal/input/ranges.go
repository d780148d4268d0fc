package input

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// cellRange is a rectangle of 1-based coordinates, inclusive on both ends.
type cellRange struct {
	fromCol, fromRow int
	toCol, toRow     int
}

// parseRange reads "B2" or "A5:H40". A "Sheet!" prefix is ignored.
func parseRange(a1 string) (cellRange, error) {
	if i := strings.LastIndex(a1, "!"); i >= 0 {
		a1 = a1[i+1:]
	}
	from, to, found := strings.Cut(a1, ":")
	if !found {
		to = from
	}

	var (
		r   cellRange
		err error
	)
	r.fromCol, r.fromRow, err = excelize.CellNameToCoordinates(strings.TrimSpace(from))
	if err != nil {
		return cellRange{}, fmt.Errorf("invalid range %q: %w", a1, err)
	}
	r.toCol, r.toRow, err = excelize.CellNameToCoordinates(strings.TrimSpace(to))
	if err != nil {
		return cellRange{}, fmt.Errorf("invalid range %q: %w", a1, err)
	}
	if r.toCol < r.fromCol {
		r.fromCol, r.toCol = r.toCol, r.fromCol
	}
	if r.toRow < r.fromRow {
		r.fromRow, r.toRow = r.toRow, r.fromRow
	}
	return r, nil
}

// slice cuts the range out of a whole-sheet grid the way the Sheets API
// returns values: trailing empty cells of each row and trailing empty rows
// are dropped.
func (r cellRange) slice(grid [][]string) [][]string {
	var out [][]string
	for row := r.fromRow; row <= r.toRow && row <= len(grid); row++ {
		src := grid[row-1]
		var cells []string
		for col := r.fromCol; col <= r.toCol && col <= len(src); col++ {
			cells = append(cells, src[col-1])
		}
		out = append(out, trimRow(cells))
	}
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out
}

func trimRow(cells []string) []string {
	n := len(cells)
	for n > 0 && cells[n-1] == "" {
		n--
	}
	if n == 0 {
		return []string{}
	}
	return cells[:n]
}
