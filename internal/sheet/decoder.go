// Package sheet decodes the base64 spreadsheet of a registration request into
// a core.Table.
//
// Two formats are recognised by content, not by name: Office Open XML
// workbooks (zip container, read with excelize) and delimited text (CSV or
// semicolon-separated, as exported by spreadsheet tools in Spanish locales).
// The first row of the sheet is the header.
package sheet

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/rowrelay/internal/core"
)

// DefaultMaxRows caps the data rows of a decoded sheet.
const DefaultMaxRows = 100000

var (
	// ErrEmptySheet is returned when the sheet has no header row.
	ErrEmptySheet = errors.New("spreadsheet has no header row")

	// ErrTooManyRows is returned when the sheet exceeds the row limit.
	ErrTooManyRows = errors.New("spreadsheet exceeds the row limit")

	// ErrLegacyWorkbook is returned for pre-2007 binary .xls files.
	ErrLegacyWorkbook = errors.New("legacy .xls workbooks are not supported, save the file as .xlsx or .csv")
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0}
)

// Decoder implements core.TableDecoder.
type Decoder struct {
	MaxRows int
}

// NewDecoder returns a decoder rejecting sheets with more than maxRows data
// rows. A non-positive maxRows uses DefaultMaxRows.
func NewDecoder(maxRows int) *Decoder {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &Decoder{MaxRows: maxRows}
}

// Decode base64-decodes encoded and parses the result as a workbook or
// delimited text. Every error is a *core.DecodeError.
func (d *Decoder) Decode(ctx context.Context, encoded string) (*core.Table, error) {
	data, err := decodeBase64(encoded)
	if err != nil {
		return nil, &core.DecodeError{Err: err}
	}
	if len(data) == 0 {
		return nil, &core.DecodeError{Err: ErrEmptySheet}
	}
	if err := ctx.Err(); err != nil {
		return nil, &core.DecodeError{Err: err}
	}

	var (
		header []string
		rows   [][]core.Cell
	)
	switch {
	case bytes.HasPrefix(data, zipMagic):
		header, rows, err = readWorkbook(data, d.maxRows())
	case bytes.HasPrefix(data, oleMagic):
		err = ErrLegacyWorkbook
	default:
		header, rows, err = readDelimited(data, d.maxRows())
	}
	if err != nil {
		return nil, &core.DecodeError{Err: err}
	}

	return core.NewTable(header, rows), nil
}

func (d *Decoder) maxRows() int {
	if d == nil || d.MaxRows <= 0 {
		return DefaultMaxRows
	}
	return d.MaxRows
}

// decodeBase64 accepts standard base64 with or without padding, optionally
// prefixed by a data URL header ("data:...;base64,") as produced by browser
// file readers. Embedded whitespace and line breaks are ignored.
func decodeBase64(encoded string) ([]byte, error) {
	s := strings.TrimSpace(encoded)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)

	data, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return data, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "=")); rawErr == nil {
		return raw, nil
	}
	return nil, fmt.Errorf("invalid base64: %w", err)
}
