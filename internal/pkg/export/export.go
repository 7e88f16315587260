package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"regexp"
	"strings"

	"github.com/geopunch/attendance-backend/internal/domain/report"
	"github.com/xuri/excelize/v2"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeCSV  = "text/csv; charset=utf-8"

	headerFill    = "#4472C4"
	highlightFill = "#FCE4D6"
	maxSheetName  = 31
)

// File is a rendered spreadsheet ready to be sent to a client.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Render writes t in the requested spreadsheet format. Writer failures are
// reported as report.ErrUpstreamUnavailable.
func Render(t report.Table, format report.Format, filename string) (File, error) {
	switch format {
	case report.FormatXLSX:
		data, err := XLSX(t)
		if err != nil {
			return File{}, fmt.Errorf("%w: %w", report.ErrUpstreamUnavailable, err)
		}
		return File{Filename: filename + ".xlsx", ContentType: ContentTypeXLSX, Data: data}, nil
	case report.FormatCSV:
		data, err := CSV(t)
		if err != nil {
			return File{}, fmt.Errorf("%w: %w", report.ErrUpstreamUnavailable, err)
		}
		return File{Filename: filename + ".csv", ContentType: ContentTypeCSV, Data: data}, nil
	default:
		return File{}, fmt.Errorf("unsupported export format %q", format)
	}
}

// XLSX renders t as a single-sheet workbook. Numeric cells stay numeric and
// highlighted cells get a light fill.
func XLSX(t report.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetName(t.Name)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	weekendHeaderStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{highlightFill}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	highlightStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{highlightFill}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create highlight style: %w", err)
	}

	widths := make([]int, len(t.Header))
	for i, c := range t.Header {
		widths[i] = len(c.Text)
	}

	write := func(row int, cells []report.Cell, header bool) error {
		for i, c := range cells {
			name, err := excelize.CoordinatesToCellName(i+1, row)
			if err != nil {
				return err
			}
			var value interface{} = c.Text
			if c.Number != nil {
				value = *c.Number
			}
			if err := f.SetCellValue(sheet, name, value); err != nil {
				return err
			}
			style := 0
			switch {
			case header && c.Highlight:
				style = weekendHeaderStyle
			case header:
				style = headerStyle
			case c.Highlight:
				style = highlightStyle
			}
			if style != 0 {
				if err := f.SetCellStyle(sheet, name, name, style); err != nil {
					return err
				}
			}
			if i < len(widths) && len(c.Text) > widths[i] {
				widths[i] = len(c.Text)
			}
		}
		return nil
	}

	if err := write(1, t.Header, true); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	for r, row := range t.Rows {
		if err := write(r+2, row, false); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", r+1, err)
		}
	}

	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, col, col, float64(min(w+2, 60))); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, fmt.Errorf("failed to freeze header: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// CSV renders t with the header as the first record. Cells use their display text.
func CSV(t report.Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	record := func(cells []report.Cell) []string {
		out := make([]string, len(cells))
		for i, c := range cells {
			out[i] = c.Text
		}
		return out
	}

	if err := w.Write(record(t.Header)); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range t.Rows {
		if err := w.Write(record(row)); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

var invalidSheetChars = strings.NewReplacer(":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")")

// SheetName makes name usable as an Excel sheet name.
func SheetName(name string) string {
	name = strings.TrimSpace(invalidSheetChars.Replace(name))
	if name == "" {
		return "Report"
	}
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	return name
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Filename builds "<title>_<period>" in lowercase slug form, without extension.
func Filename(title, period string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if period == "" {
		return slug
	}
	return slug + "_" + period
}
