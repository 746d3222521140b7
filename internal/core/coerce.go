package core

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// DateLayout is the ISO calendar date written for ParseDate.
const DateLayout = "2006-01-02"

// DateTimeLayout is used when a date cell passes through without a parse type.
const DateTimeLayout = "2006-01-02T15:04:05"

// Coerce converts a cell according to a scalar rule's value map or parse type.
//
// A non-nil valueMap wins over parse. Text cells are looked up by their
// lowercase form; other cells by their canonical text, unchanged.
//
// ParseBoolean uses truthiness rather than strict parsing: any non-empty text
// is true (including "false" and "0"), a number is true when non-zero and a
// date is always true. It never fails.
func Coerce(cell Cell, parse ParseType, valueMap ValueMap) (any, error) {
	if valueMap != nil {
		key := cellKeyText(cell)
		if cell.Kind == CellText {
			key = strings.ToLower(key)
		}
		v, ok := valueMap[key]
		if !ok {
			return nil, &MappingNotFoundError{Value: cellKeyText(cell)}
		}
		return cloneValue(v), nil
	}

	switch parse {
	case ParseInt:
		return coerceInt(cell)
	case ParseBoolean:
		return truthy(cell), nil
	case ParseDate:
		if cell.Kind != CellDate {
			return nil, &CoercionError{Parse: parse, Kind: cell.Kind, Value: cellKeyText(cell)}
		}
		return cell.t.Format(DateLayout), nil
	default:
		return passthrough(cell), nil
	}
}

func coerceInt(cell Cell) (any, error) {
	switch cell.Kind {
	case CellText:
		n, err := strconv.ParseInt(strings.TrimSpace(cell.text), 10, 64)
		if err != nil {
			return nil, &CoercionError{Parse: ParseInt, Kind: cell.Kind, Value: cell.text, Err: unwrapNumErr(err)}
		}
		return n, nil
	case CellNumber, CellBoolean:
		var src any = cell.num
		if cell.Kind == CellBoolean {
			src = cell.b
		}
		n, err := cast.ToInt64E(src)
		if err != nil {
			return nil, &CoercionError{Parse: ParseInt, Kind: cell.Kind, Value: cellKeyText(cell), Err: err}
		}
		return n, nil
	default:
		return nil, &CoercionError{Parse: ParseInt, Kind: cell.Kind, Value: cellKeyText(cell)}
	}
}

func truthy(cell Cell) bool {
	switch cell.Kind {
	case CellText:
		return cell.text != ""
	case CellNumber:
		return cell.num != 0
	case CellBoolean:
		return cell.b
	case CellDate:
		return true
	default:
		return false
	}
}

func passthrough(cell Cell) any {
	switch cell.Kind {
	case CellText:
		return cell.text
	case CellNumber:
		return cell.num
	case CellBoolean:
		return cell.b
	case CellDate:
		return cell.t.Format(DateTimeLayout)
	default:
		return nil
	}
}

// cellKeyText renders a cell as the literal used for value-map lookups and
// error messages.
func cellKeyText(cell Cell) string {
	switch cell.Kind {
	case CellText:
		return cell.text
	case CellNumber:
		return cast.ToString(cell.num)
	case CellBoolean:
		return strconv.FormatBool(cell.b)
	case CellDate:
		if isMidnight(cell.t) {
			return cell.t.Format(DateLayout)
		}
		return cell.t.Format(DateTimeLayout)
	default:
		return ""
	}
}

func isMidnight(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0
}

// cloneValue deep-copies JSON objects and arrays. A payload must never share
// a container with the mapping, or writes below a mapped object would leak
// into the rule and every later row.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// unwrapNumErr drops the strconv prefix, the value is already in the message.
func unwrapNumErr(err error) error {
	if ne, ok := err.(*strconv.NumError); ok {
		return ne.Err
	}
	return err
}
