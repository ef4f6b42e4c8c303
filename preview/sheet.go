package preview

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// CellKind tags the variant held by a Cell.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

// Cell is one spreadsheet value. Exactly one of text or number is meaningful,
// selected by Kind. Use String to convert it for display.
type Cell struct {
	Kind   CellKind
	text   string
	number float64
}

// TextCell creates a text cell.
func TextCell(s string) Cell {
	if s == "" {
		return Cell{Kind: CellEmpty}
	}
	return Cell{Kind: CellText, text: s}
}

// NumberCell creates a numeric cell.
func NumberCell(v float64) Cell {
	return Cell{Kind: CellNumber, number: v}
}

// Number returns the numeric value and whether the cell holds one.
func (c Cell) Number() (float64, bool) {
	return c.number, c.Kind == CellNumber
}

// String renders the cell for display. Empty cells render as "".
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.text
	case CellNumber:
		return strconv.FormatFloat(c.number, 'f', -1, 64)
	default:
		return ""
	}
}

// SheetPreview holds the leading rows of one worksheet.
type SheetPreview struct {
	Sheet     string   // previewed sheet
	Sheets    []string // every sheet in the workbook
	Rows      [][]Cell
	Truncated bool
}

// StringRows flattens the preview to display strings.
func (s *SheetPreview) StringRows() [][]string {
	out := make([][]string, len(s.Rows))
	for i, row := range s.Rows {
		out[i] = make([]string, len(row))
		for j, cell := range row {
			out[i][j] = cell.String()
		}
	}
	return out
}

// ReadSheet decodes up to maxRows rows of the first worksheet of an xlsx file.
func ReadSheet(path string, maxRows int) (*SheetPreview, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &SheetPreview{}, nil
	}
	sheet := sheets[0]
	preview := &SheetPreview{Sheet: sheet, Sheets: sheets}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	rowNum := 0
	for rows.Next() {
		rowNum++
		if len(preview.Rows) == maxRows {
			preview.Truncated = true
			break
		}
		columns, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("reading row %d of %s: %w", rowNum, sheet, err)
		}
		row := make([]Cell, len(columns))
		for i, formatted := range columns {
			row[i] = decodeCell(f, sheet, i+1, rowNum, formatted)
		}
		preview.Rows = append(preview.Rows, row)
	}
	return preview, nil
}

// decodeCell turns a formatted cell value into a tagged Cell. Cells whose
// stored type is numeric (or untyped, which includes numeric formula
// results) become numbers when their raw value parses as one.
func decodeCell(f *excelize.File, sheet string, col, row int, formatted string) Cell {
	if formatted == "" {
		return Cell{Kind: CellEmpty}
	}
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return TextCell(formatted)
	}
	cellType, err := f.GetCellType(sheet, axis)
	if err != nil {
		return TextCell(formatted)
	}
	if cellType != excelize.CellTypeNumber && cellType != excelize.CellTypeUnset {
		return TextCell(formatted)
	}
	raw, err := f.GetCellValue(sheet, axis, excelize.Options{RawCellValue: true})
	if err != nil {
		return TextCell(formatted)
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return NumberCell(v)
	}
	return TextCell(formatted)
}
