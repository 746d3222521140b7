package core

// structure.go parses the request's "structure" object into a FieldMapping.
//
// The object maps dotted output keys to rule objects:
//
//	{
//	  "Nombre":       {"file_name_column": "Nombre", "required": true},
//	  "RolId.Id":     {"file_name_column": "Rol", "parse": "int"},
//	  "Activo":       {"file_name_column": "Estado", "mapping": {"activo": true, "inactivo": false}},
//	  "Dias":         {"column_group": ["Lunes", "Martes", "Miercoles"]}
//	}
//
// Key order is preserved because it is the order fields are built in. Every
// malformed rule is reported in one error so the caller can fix them together.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Rule object keys.
const (
	ruleKeySourceColumn = "file_name_column"
	ruleKeyColumnGroup  = "column_group"
	ruleKeyRequired     = "required"
	ruleKeyParse        = "parse"
	ruleKeyMapping      = "mapping"
)

// ParseStructure decodes and validates a structure object.
func ParseStructure(raw []byte) (FieldMapping, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, &ConfigError{Err: ErrMissingStructure}
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("structure: %w", err)}
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, &ConfigError{Err: fmt.Errorf("structure must be an object")}
	}

	var (
		mapping  FieldMapping
		position = make(map[string]int)
		errs     *multierror.Error
	)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, &ConfigError{Err: fmt.Errorf("structure: %w", err)}
		}
		key := tok.(string)

		var body json.RawMessage
		if err := dec.Decode(&body); err != nil {
			return nil, &ConfigError{Err: fmt.Errorf("structure: %w", err)}
		}

		rule, err := parseRule(key, body)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}

		// A repeated key keeps its first position and its last rule.
		if i, dup := position[key]; dup {
			mapping[i].Rule = rule
			continue
		}
		position[key] = len(mapping)
		mapping = append(mapping, FieldEntry{Key: key, Rule: rule})
	}

	if _, err := dec.Token(); err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("structure: %w", err)}
	}

	if errs != nil {
		errs.ErrorFormat = joinErrors
		return nil, &ConfigError{Err: errs}
	}
	if len(mapping) == 0 {
		return nil, &ConfigError{Err: ErrMissingStructure}
	}
	return mapping, nil
}

func parseRule(key string, body json.RawMessage) (FieldRule, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("field %q: rule must be an object", key)
	}

	source, hasSource := fields[ruleKeySourceColumn]
	group, hasGroup := fields[ruleKeyColumnGroup]

	switch {
	case hasSource && hasGroup:
		return nil, fmt.Errorf("field %q: %s and %s are mutually exclusive", key, ruleKeySourceColumn, ruleKeyColumnGroup)
	case hasGroup:
		var members []string
		if err := json.Unmarshal(group, &members); err != nil || members == nil {
			return nil, fmt.Errorf("field %q: %s must be a list of column names", key, ruleKeyColumnGroup)
		}
		return &GroupRule{Members: members}, nil
	case !hasSource:
		return nil, fmt.Errorf("field %q: one of %s or %s is required", key, ruleKeySourceColumn, ruleKeyColumnGroup)
	}

	rule := &ScalarRule{}
	if err := json.Unmarshal(source, &rule.SourceColumn); err != nil || rule.SourceColumn == "" {
		return nil, fmt.Errorf("field %q: %s must be a non-empty string", key, ruleKeySourceColumn)
	}

	if raw, ok := fields[ruleKeyRequired]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &rule.Required); err != nil {
			return nil, fmt.Errorf("field %q: %s must be a boolean", key, ruleKeyRequired)
		}
	}

	if raw, ok := fields[ruleKeyParse]; ok && !isNull(raw) {
		var parse string
		if err := json.Unmarshal(raw, &parse); err != nil {
			return nil, fmt.Errorf("field %q: %s must be a string", key, ruleKeyParse)
		}
		switch p := ParseType(parse); p {
		case ParseNone, ParseInt, ParseBoolean, ParseDate:
			rule.Parse = p
		default:
			return nil, fmt.Errorf("field %q: unknown %s %q (want int, boolean or date)", key, ruleKeyParse, parse)
		}
	}

	if raw, ok := fields[ruleKeyMapping]; ok && !isNull(raw) {
		var values map[string]any
		if err := json.Unmarshal(raw, &values); err != nil || values == nil {
			return nil, fmt.Errorf("field %q: %s must be an object", key, ruleKeyMapping)
		}
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		rule.ValueMap = make(ValueMap, len(values))
		seen := make(map[string]string, len(values))
		for _, k := range keys {
			lower := strings.ToLower(k)
			if prev, dup := seen[lower]; dup {
				return nil, fmt.Errorf("field %q: %s keys %q and %q differ only in case", key, ruleKeyMapping, prev, k)
			}
			seen[lower] = k
			rule.ValueMap[lower] = values[k]
		}
	}

	return rule, nil
}

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("field key must not be empty")
	}
	for _, seg := range strings.Split(key, ".") {
		if seg == "" {
			return fmt.Errorf("field %q: empty path segment", key)
		}
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func joinErrors(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}
