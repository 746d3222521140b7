package core

// validation.go checks a mapping against a sheet before any row is processed.
//
// Validation happens at two levels:
//  1. Header validation (ValidateSchema): every column the mapping reads must
//     exist in the sheet header. All missing columns are reported at once.
//  2. Row validation: done while building each payload (required fields,
//     coercion), see PayloadBuilder.

import "strings"

// ExpectedColumns returns every column referenced by mapping: scalar source
// columns and group members, deduplicated, in first-seen order.
func ExpectedColumns(mapping FieldMapping) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, entry := range mapping {
		for _, col := range entry.Rule.Columns() {
			if seen[col] {
				continue
			}
			seen[col] = true
			cols = append(cols, col)
		}
	}
	return cols
}

// ValidateSchema returns a *MissingColumnsError listing every column the
// mapping expects that the table header lacks.
func ValidateSchema(table *Table, mapping FieldMapping) error {
	var missing []string
	for _, col := range ExpectedColumns(mapping) {
		if !table.HasColumn(col) {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		return &MissingColumnsError{Columns: missing}
	}
	return nil
}

// ResolveEndpoint joins a service base URL and an endpoint path with exactly
// one slash. One trailing slash is stripped from base and one leading slash
// from path.
func ResolveEndpoint(base, path string) (string, error) {
	if base == "" || path == "" {
		return "", &ConfigError{Err: ErrMissingEndpointConfig}
	}
	base = strings.TrimSuffix(base, "/")
	path = strings.TrimPrefix(path, "/")
	return base + "/" + path, nil
}
