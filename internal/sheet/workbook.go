package sheet

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/rowrelay/internal/core"
	"github.com/xuri/excelize/v2"
)

// readWorkbook reads the active sheet of an xlsx workbook with typed cells.
func readWorkbook(data []byte, maxRows int) ([]string, [][]core.Cell, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		if names := f.GetSheetList(); len(names) > 0 {
			sheet = names[0]
		}
	}
	if sheet == "" {
		return nil, nil, ErrEmptySheet
	}

	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(raw) == 0 {
		return nil, nil, ErrEmptySheet
	}
	if len(raw)-1 > maxRows {
		return nil, nil, fmt.Errorf("%w of %d rows (sheet %q has %d)", ErrTooManyRows, maxRows, sheet, len(raw)-1)
	}

	w := &workbookSheet{
		file:       f,
		sheet:      sheet,
		date1904:   uses1904(f),
		dateStyles: make(map[int]bool),
	}

	header := raw[0]
	rows := make([][]core.Cell, 0, len(raw)-1)
	for r, values := range raw[1:] {
		cells := make([]core.Cell, len(values))
		for c, v := range values {
			// +1 for the header row, +1 because cell names are 1-based.
			cell, err := w.cell(c+1, r+2, v)
			if err != nil {
				return nil, nil, err
			}
			cells[c] = cell
		}
		rows = append(rows, cells)
	}

	return header, rows, nil
}

type workbookSheet struct {
	file     *excelize.File
	sheet    string
	date1904 bool

	// style id -> whether its number format renders a date
	dateStyles map[int]bool
}

// cell types the raw value of the cell at (col, row).
func (w *workbookSheet) cell(col, row int, raw string) (core.Cell, error) {
	if raw == "" {
		return core.EmptyCell(), nil
	}

	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return core.Cell{}, err
	}
	kind, err := w.file.GetCellType(w.sheet, name)
	if err != nil {
		return core.Cell{}, fmt.Errorf("cell %s: %w", name, err)
	}

	switch kind {
	case excelize.CellTypeBool:
		return core.BoolCell(raw == "1" || strings.EqualFold(raw, "true")), nil

	case excelize.CellTypeDate:
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return core.DateCell(t), nil
		}
		return core.TextCell(raw), nil

	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeError:
		return core.TextCell(raw), nil

	default:
		// Numbers are stored untyped; formula results may be either.
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return core.TextCell(raw), nil
		}
		if w.isDateCell(name) {
			if t, err := excelize.ExcelDateToTime(n, w.date1904); err == nil {
				return core.DateCell(t), nil
			}
		}
		return core.NumberCell(n), nil
	}
}

// isDateCell reports whether the cell's number format displays a date.
func (w *workbookSheet) isDateCell(name string) bool {
	id, err := w.file.GetCellStyle(w.sheet, name)
	if err != nil || id == 0 {
		return false
	}
	if isDate, ok := w.dateStyles[id]; ok {
		return isDate
	}

	isDate := false
	if style, err := w.file.GetStyle(id); err == nil && style != nil {
		isDate = isDateNumFmt(style.NumFmt, style.CustomNumFmt)
	}
	w.dateStyles[id] = isDate
	return isDate
}

// isDateNumFmt recognises the built-in date/time formats and custom formats
// containing date tokens.
func isDateNumFmt(id int, custom *string) bool {
	switch {
	case id >= 14 && id <= 22, id >= 45 && id <= 47:
		return true
	case custom != nil:
		return hasDateToken(*custom)
	}
	return false
}

// hasDateToken scans a format code for y, m, d or h outside quoted literals
// and bracketed sections ([Red], [$-409]).
func hasDateToken(code string) bool {
	inQuote, inBracket := false, false
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case c == '\\':
			i++
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '[':
			inBracket = true
		case c == ']':
			inBracket = false
		case inBracket:
		default:
			switch c | 0x20 {
			case 'y', 'm', 'd', 'h':
				return true
			}
		}
	}
	return false
}

func uses1904(f *excelize.File) bool {
	props, err := f.GetWorkbookProps()
	if err != nil || props.Date1904 == nil {
		return false
	}
	return *props.Date1904
}
