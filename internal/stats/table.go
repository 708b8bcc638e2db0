// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// column describes one report column. Numeric columns are right aligned.
type column struct {
	title   string
	numeric bool
}

// textTable lays out report rows in fixed-width columns measured in
// terminal cells, so wide runes keep the columns straight.
type textTable struct {
	cols []column
	rows [][]string
}

func newTextTable(cols ...column) *textTable {
	return &textTable{cols: cols}
}

// add appends a row. Missing cells render blank, extra cells are dropped.
func (t *textTable) add(cells ...string) {
	row := make([]string, len(t.cols))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

func (t *textTable) widths() []int {
	widths := make([]int, len(t.cols))
	for i, c := range t.cols {
		widths[i] = displayWidth(c.title)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], displayWidth(cell))
		}
	}
	return widths
}

// lines renders the header followed by every row. Trailing blanks are trimmed.
func (t *textTable) lines() []string {
	if len(t.cols) == 0 {
		return nil
	}
	widths := t.widths()
	header := make([]string, len(t.cols))
	for i, c := range t.cols {
		header[i] = c.title
	}

	out := make([]string, 0, len(t.rows)+1)
	out = append(out, t.line(header, widths))
	for _, row := range t.rows {
		out = append(out, t.line(row, widths))
	}
	return out
}

func (t *textTable) line(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		if t.cols[i].numeric {
			parts[i] = runewidth.FillLeft(cell, widths[i])
		} else {
			parts[i] = runewidth.FillRight(cell, widths[i])
		}
	}
	return strings.TrimRight(strings.Join(parts, " "), " ")
}

func (t *textTable) write(w io.Writer) error {
	for _, line := range t.lines() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
