// Package core provides the row-to-payload engine and batch orchestration.
// This package has no transport dependencies and can be used by any frontend.
package core

import (
	"context"
	"strings"
	"time"
)

// CellKind identifies which variant a Cell holds.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
	CellBoolean
	CellDate
)

// String returns a lowercase name for the kind.
func (k CellKind) String() string {
	switch k {
	case CellEmpty:
		return "empty"
	case CellText:
		return "text"
	case CellNumber:
		return "number"
	case CellBoolean:
		return "boolean"
	case CellDate:
		return "date"
	default:
		return "unknown"
	}
}

// Cell is a single spreadsheet value. Only the field matching Kind is meaningful.
type Cell struct {
	Kind CellKind
	text string
	num  float64
	b    bool
	t    time.Time
}

// EmptyCell returns the null marker.
func EmptyCell() Cell { return Cell{Kind: CellEmpty} }

// TextCell returns a text cell.
func TextCell(s string) Cell { return Cell{Kind: CellText, text: s} }

// NumberCell returns a numeric cell.
func NumberCell(f float64) Cell { return Cell{Kind: CellNumber, num: f} }

// BoolCell returns a boolean cell.
func BoolCell(b bool) Cell { return Cell{Kind: CellBoolean, b: b} }

// DateCell returns a date cell.
func DateCell(t time.Time) Cell { return Cell{Kind: CellDate, t: t} }

// Text returns the text value. Empty for non-text cells.
func (c Cell) Text() string { return c.text }

// Number returns the numeric value. Zero for non-number cells.
func (c Cell) Number() float64 { return c.num }

// Bool returns the boolean value. False for non-boolean cells.
func (c Cell) Bool() bool { return c.b }

// Time returns the date value. Zero for non-date cells.
func (c Cell) Time() time.Time { return c.t }

// IsBlank reports whether the cell is the null marker or an empty string.
func (c Cell) IsBlank() bool {
	return c.Kind == CellEmpty || (c.Kind == CellText && c.text == "")
}

// Row is one table row. Cells are addressed by column name through the
// header index shared with the owning Table.
type Row struct {
	index map[string]int
	cells []Cell
}

// Get returns the cell for column. ok is false when the column is not part
// of the header.
func (r Row) Get(column string) (cell Cell, ok bool) {
	pos, ok := r.index[column]
	if !ok {
		return Cell{}, false
	}
	if pos >= len(r.cells) {
		return EmptyCell(), true
	}
	return r.cells[pos], true
}

// Table is a header plus the non-blank rows of a sheet.
type Table struct {
	columns []string
	index   map[string]int
	rows    []Row
}

// NewTable builds a Table. Text cells are trimmed and rows whose cells are
// all blank are dropped; the remaining rows are renumbered from zero.
func NewTable(header []string, rows [][]Cell) *Table {
	t := &Table{
		columns: make([]string, len(header)),
		index:   make(map[string]int, len(header)),
	}
	for i, h := range header {
		h = strings.TrimSpace(h)
		t.columns[i] = h
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}

	for _, raw := range rows {
		cells := make([]Cell, len(header))
		blank := true
		for i := range cells {
			if i >= len(raw) {
				cells[i] = EmptyCell()
				continue
			}
			c := raw[i]
			if c.Kind == CellText {
				c.text = strings.TrimSpace(c.text)
			}
			if !c.IsBlank() {
				blank = false
			}
			cells[i] = c
		}
		if blank {
			continue
		}
		t.rows = append(t.rows, Row{index: t.index, cells: cells})
	}
	return t
}

// Columns returns the header in sheet order.
func (t *Table) Columns() []string { return t.columns }

// HasColumn reports whether name is part of the header.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.rows) }

// Row returns the row at position i.
func (t *Table) Row(i int) Row { return t.rows[i] }

// ParseType is the target primitive of a scalar rule.
type ParseType string

const (
	ParseNone    ParseType = ""
	ParseInt     ParseType = "int"
	ParseBoolean ParseType = "boolean"
	ParseDate    ParseType = "date"
)

// ValueMap maps lowercase source values to arbitrary JSON values.
type ValueMap map[string]any

// FieldRule is either a *ScalarRule or a *GroupRule.
type FieldRule interface {
	// Columns returns every source column the rule reads.
	Columns() []string
	isFieldRule()
}

// ScalarRule copies one column into the payload, optionally coerced.
type ScalarRule struct {
	SourceColumn string
	Required     bool
	Parse        ParseType
	ValueMap     ValueMap // takes precedence over Parse when non-nil
}

func (r *ScalarRule) Columns() []string { return []string{r.SourceColumn} }
func (*ScalarRule) isFieldRule()        {}

// GroupRule lists which of a set of flag columns are filled in.
type GroupRule struct {
	Members []string
}

func (r *GroupRule) Columns() []string { return r.Members }
func (*GroupRule) isFieldRule()        {}

// FieldEntry binds a dotted output key to its rule.
type FieldEntry struct {
	Key  string
	Rule FieldRule
}

// FieldMapping is the ordered list of output fields for a batch.
type FieldMapping []FieldEntry

// Payload is the nested JSON object built for one row.
type Payload map[string]any

// RowFailure is a row that could not be built or sent.
type RowFailure struct {
	Idx   int    `json:"Idx"`
	Error string `json:"Error"`
}

// BatchStatus summarizes a BatchResult for the caller.
type BatchStatus string

const (
	BatchComplete BatchStatus = "complete"
	BatchPartial  BatchStatus = "partial"
)

// BatchResult holds per-row outcomes in table order.
type BatchResult struct {
	Correctos []int        `json:"Correctos"`
	Erroneos  []RowFailure `json:"Erróneos"`
}

// Status returns BatchComplete when no row failed.
func (r BatchResult) Status() BatchStatus {
	if len(r.Erroneos) == 0 {
		return BatchComplete
	}
	return BatchPartial
}

// recordSuccess returns r with idx appended to the successes.
func (r BatchResult) recordSuccess(idx int) BatchResult {
	r.Correctos = append(r.Correctos, idx)
	return r
}

// recordFailure returns r with a failure for idx appended.
func (r BatchResult) recordFailure(idx int, msg string) BatchResult {
	r.Erroneos = append(r.Erroneos, RowFailure{Idx: idx, Error: msg})
	return r
}

// TableDecoder turns an encoded spreadsheet into a Table.
type TableDecoder interface {
	Decode(ctx context.Context, encoded string) (*Table, error)
}

// Sender delivers one payload. ok is false on transport failure or any
// status other than 200/201, with diagnostic describing why.
type Sender interface {
	Send(ctx context.Context, payload Payload, url string) (ok bool, diagnostic string)
}
