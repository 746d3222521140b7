package core

// payload.go turns one Row into one Payload.
//
// Output keys are dotted paths: "RolId.Id" writes Payload{"RolId": {"Id": v}}.
// Keys sharing a prefix merge into the same nested object, so "A.B" and "A.C"
// produce a single "A".

import (
	"log/slog"
	"strings"
)

// ExtractPresent returns, in the order given, the columns whose cell in row
// is not blank. Columns missing from the row count as blank. The result is
// never nil.
func ExtractPresent(row Row, columns []string) []string {
	present := make([]string, 0, len(columns))
	for _, col := range columns {
		cell, ok := row.Get(col)
		if !ok || cell.IsBlank() {
			continue
		}
		present = append(present, col)
	}
	return present
}

// PayloadBuilder builds payloads from rows.
type PayloadBuilder struct {
	Logger *slog.Logger
}

// NewPayloadBuilder returns a builder logging to logger, or to the default
// logger when nil.
func NewPayloadBuilder(logger *slog.Logger) *PayloadBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &PayloadBuilder{Logger: logger}
}

// Build applies mapping to row. The first required-field, coercion or path
// failure aborts the row and no payload is returned.
//
// A scalar rule whose column is not in the row is logged and skipped. In the
// normal flow ValidateSchema rejects such mappings before any row is built.
func (b *PayloadBuilder) Build(row Row, mapping FieldMapping) (Payload, error) {
	payload := make(Payload, len(mapping))

	for _, entry := range mapping {
		switch rule := entry.Rule.(type) {
		case *GroupRule:
			if err := setAtPath(payload, entry.Key, ExtractPresent(row, rule.Members)); err != nil {
				return nil, err
			}

		case *ScalarRule:
			cell, ok := row.Get(rule.SourceColumn)
			if !ok {
				b.logger().Warn("mapped column not in row, skipping field",
					"key", entry.Key,
					"column", rule.SourceColumn,
				)
				continue
			}

			if cell.IsBlank() {
				if rule.Required {
					return nil, &RequiredFieldMissingError{Key: entry.Key}
				}
				continue
			}

			value, err := Coerce(cell, rule.Parse, rule.ValueMap)
			if err != nil {
				return nil, &FieldError{Key: entry.Key, Err: err}
			}

			if err := setAtPath(payload, entry.Key, value); err != nil {
				return nil, err
			}
		}
	}

	return payload, nil
}

func (b *PayloadBuilder) logger() *slog.Logger {
	if b == nil || b.Logger == nil {
		return slog.Default()
	}
	return b.Logger
}

// setAtPath stores value under the dotted key, creating or reusing nested
// objects for every segment but the last. The leaf is overwritten if present.
// Objects reached on the way down must be owned by the payload; Coerce
// copies mapped values for that reason.
func setAtPath(root map[string]any, key string, value any) error {
	return setSegments(root, key, strings.Split(key, "."), value)
}

func setSegments(node map[string]any, key string, segments []string, value any) error {
	head := segments[0]
	if len(segments) == 1 {
		node[head] = value
		return nil
	}

	existing, ok := node[head]
	if !ok {
		child := make(map[string]any)
		node[head] = child
		return setSegments(child, key, segments[1:], value)
	}

	// A JSON null is a value like any other leaf.
	var child map[string]any
	switch existing := existing.(type) {
	case map[string]any:
		child = existing
	case Payload:
		child = existing
	default:
		return &PathConflictError{Key: key, Segment: head}
	}

	return setSegments(child, key, segments[1:], value)
}

// MergeComplement copies the top-level keys of complement into payload,
// overwriting collisions. A nil complement is a no-op; anything that is not
// a JSON object is an error.
func MergeComplement(payload Payload, complement any) error {
	switch c := complement.(type) {
	case nil:
		return nil
	case map[string]any:
		for k, v := range c {
			payload[k] = v
		}
		return nil
	case Payload:
		for k, v := range c {
			payload[k] = v
		}
		return nil
	default:
		return &ComplementError{Got: jsonKind(complement)}
	}
}

func jsonKind(v any) string {
	switch v.(type) {
	case []any:
		return "array"
	case string:
		return "string"
	case float64, int, int64:
		return "number"
	case bool:
		return "boolean"
	default:
		return "value"
	}
}
