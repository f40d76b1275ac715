package sheet

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// anchorLabels are tried in order to pick the column that decides where data ends.
var anchorLabels = []string{"home", "team", "team name", "match"}

// HeaderMap maps lower-cased, trimmed header labels to 1-based column numbers. Labels keep
// the order in which they were first seen; a repeated label points at its last column.
type HeaderMap struct {
	labels []string
	cols   map[string]int
}

func newHeaderMap() HeaderMap {
	return HeaderMap{cols: map[string]int{}}
}

func (h *HeaderMap) set(label string, col int) {
	if _, ok := h.cols[label]; !ok {
		h.labels = append(h.labels, label)
	}
	h.cols[label] = col
}

// Col returns the column for label.
func (h HeaderMap) Col(label string) (int, bool) {
	c, ok := h.cols[label]
	return c, ok
}

// Labels returns the header labels in first-seen order.
func (h HeaderMap) Labels() []string {
	return append([]string(nil), h.labels...)
}

// Len is the number of distinct labels.
func (h HeaderMap) Len() int { return len(h.labels) }

// Layout describes where a template's header is and where new rows go.
type Layout struct {
	Sheet     string
	HeaderRow int
	Headers   HeaderMap
	// AnchorCol is 0 when the template has no header columns.
	AnchorCol int
	StartRow  int
}

// DetectLayout locates the header row, builds the header map and finds the first
// writable row of sheet. It returns ErrNoWritableColumn together with a usable layout
// (start row = header row + 1) when no header labels exist.
func DetectLayout(f *excelize.File, sheet string) (Layout, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return Layout{}, err
	}
	lay := Layout{Sheet: sheet, HeaderRow: findHeaderRow(rows), Headers: newHeaderMap()}
	if lay.HeaderRow <= len(rows) {
		for i, v := range rows[lay.HeaderRow-1] {
			if v == "" {
				continue
			}
			lay.Headers.set(strings.ToLower(strings.TrimSpace(v)), i+1)
		}
	}
	lay.StartRow = lay.HeaderRow + 1
	lay.AnchorCol = anchorColumn(lay.Headers)
	if lay.AnchorCol == 0 {
		return lay, ErrNoWritableColumn
	}
	for r := lay.HeaderRow + 1; r <= len(rows); r++ {
		cell, _ := excelize.CoordinatesToCellName(lay.AnchorCol, r)
		v, err := f.GetCellValue(sheet, cell)
		if err != nil {
			return Layout{}, err
		}
		if v == "" {
			break
		}
		lay.StartRow = r + 1
	}
	return lay, nil
}

// findHeaderRow returns the first 1-based row holding any non-empty cell, or 1.
func findHeaderRow(rows [][]string) int {
	for i, row := range rows {
		for _, v := range row {
			if v != "" {
				return i + 1
			}
		}
	}
	return 1
}

// anchorColumn prefers a known team/match label and otherwise takes the first header.
func anchorColumn(h HeaderMap) int {
	for _, l := range anchorLabels {
		if c, ok := h.Col(l); ok {
			return c
		}
	}
	if h.Len() > 0 {
		c, _ := h.Col(h.labels[0])
		return c
	}
	return 0
}
