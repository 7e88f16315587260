package report

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Cell is one value of a rendered report. Number is set for numeric cells so
// spreadsheet writers can keep them numeric; Text is always the display form.
type Cell struct {
	Text      string   `json:"text"`
	Number    *float64 `json:"number,omitempty"`
	Highlight bool     `json:"highlight,omitempty"`
}

// Table is the flat cell matrix handed to the UI and the spreadsheet writers.
type Table struct {
	Name           string   `json:"name"`
	Header         []Cell   `json:"header"`
	Rows           [][]Cell `json:"rows"`
	SkippedPunches int      `json:"skipped_punches"`
}

func TextCell(text string) Cell {
	return Cell{Text: text}
}

// HoursCell renders hours with two decimals.
func HoursCell(v decimal.Decimal) Cell {
	rounded := v.Round(2)
	f, _ := rounded.Float64()
	return Cell{Text: rounded.StringFixed(2), Number: &f}
}

func IntCell(v int) Cell {
	f := float64(v)
	return Cell{Text: strconv.Itoa(v), Number: &f}
}

func (c Cell) Highlighted(on bool) Cell {
	c.Highlight = on
	return c
}

// HeaderCells builds a header row from column titles.
func HeaderCells(titles ...string) []Cell {
	cells := make([]Cell, len(titles))
	for i, t := range titles {
		cells[i] = TextCell(t)
	}
	return cells
}

// NewTable returns a header-only table.
func NewTable(name string, header []Cell) Table {
	return Table{
		Name:   name,
		Header: header,
		Rows:   [][]Cell{},
	}
}
