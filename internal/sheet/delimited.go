package sheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/rowrelay/internal/core"
)

// readDelimited parses CSV text. Every value is a text cell: delimited text
// carries no type information, so numbers and booleans are coerced later by
// the mapping.
func readDelimited(data []byte, maxRows int) ([]string, [][]core.Cell, error) {
	r := csv.NewReader(newTextReader(bytes.NewReader(data)))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, ErrEmptySheet
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	var rows [][]core.Cell
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row: %w", err)
		}
		if len(rows) >= maxRows {
			return nil, nil, fmt.Errorf("%w of %d rows", ErrTooManyRows, maxRows)
		}

		cells := make([]core.Cell, len(record))
		for i, v := range record {
			v = unwrapTextFormula(v)
			if v == "" {
				cells[i] = core.EmptyCell()
				continue
			}
			cells[i] = core.TextCell(v)
		}
		rows = append(rows, cells)
	}

	return header, rows, nil
}

// unwrapTextFormula turns the ="00123" form spreadsheet exports use to keep
// leading zeros back into its literal text.
func unwrapTextFormula(s string) string {
	t := strings.TrimSpace(s)
	if len(t) >= 3 && strings.HasPrefix(t, `="`) && strings.HasSuffix(t, `"`) {
		return t[2 : len(t)-1]
	}
	return s
}

// sniffDelimiter picks ';' over ',' when the first line holds more
// semicolons than commas outside quotes.
func sniffDelimiter(data []byte) rune {
	line, _ := bufio.NewReader(bytes.NewReader(data)).ReadSlice('\n')

	var commas, semis int
	quoted := false
	for _, c := range line {
		switch c {
		case '"':
			quoted = !quoted
		case ',':
			if !quoted {
				commas++
			}
		case ';':
			if !quoted {
				semis++
			}
		}
	}
	if semis > commas {
		return ';'
	}
	return ','
}
