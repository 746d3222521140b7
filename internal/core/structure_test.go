package core

import (
	"errors"
	"strings"
	"testing"
)

func TestParseStructure(t *testing.T) {
	raw := []byte(`{
		"Nombre":   {"file_name_column": "Nombre", "required": true},
		"RolId.Id": {"file_name_column": "Rol", "parse": "int"},
		"Activo":   {"file_name_column": "Estado", "mapping": {"Activo": true, "INACTIVO": false}},
		"Dias":     {"column_group": ["Lunes", "Martes"]}
	}`)

	mapping, err := ParseStructure(raw)
	if err != nil {
		t.Fatalf("ParseStructure() error = %v", err)
	}

	wantKeys := []string{"Nombre", "RolId.Id", "Activo", "Dias"}
	if len(mapping) != len(wantKeys) {
		t.Fatalf("len(mapping) = %d, want %d", len(mapping), len(wantKeys))
	}
	for i, k := range wantKeys {
		if mapping[i].Key != k {
			t.Errorf("mapping[%d].Key = %q, want %q", i, mapping[i].Key, k)
		}
	}

	nombre := mapping[0].Rule.(*ScalarRule)
	if !nombre.Required || nombre.SourceColumn != "Nombre" {
		t.Errorf("Nombre rule = %+v", nombre)
	}
	if rol := mapping[1].Rule.(*ScalarRule); rol.Parse != ParseInt {
		t.Errorf("RolId.Id parse = %q, want int", rol.Parse)
	}
	activo := mapping[2].Rule.(*ScalarRule)
	if activo.ValueMap["activo"] != true || activo.ValueMap["inactivo"] != false {
		t.Errorf("Activo value map keys should be lowercased: %v", activo.ValueMap)
	}
	dias := mapping[3].Rule.(*GroupRule)
	if len(dias.Members) != 2 || dias.Members[0] != "Lunes" {
		t.Errorf("Dias members = %v", dias.Members)
	}
}

func TestParseStructure_DuplicateKey(t *testing.T) {
	raw := []byte(`{"A": {"file_name_column": "x"}, "B": {"file_name_column": "y"}, "A": {"file_name_column": "z"}}`)

	mapping, err := ParseStructure(raw)
	if err != nil {
		t.Fatalf("ParseStructure() error = %v", err)
	}
	if len(mapping) != 2 {
		t.Fatalf("len(mapping) = %d, want 2", len(mapping))
	}
	if mapping[0].Key != "A" || mapping[0].Rule.(*ScalarRule).SourceColumn != "z" {
		t.Errorf("mapping[0] = %+v, want key A with last rule", mapping[0])
	}
}

func TestParseStructure_Errors(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		missing  bool
		contains []string
	}{
		{name: "empty", raw: "", missing: true},
		{name: "null", raw: "null", missing: true},
		{name: "empty object", raw: "{}", missing: true},
		{name: "not an object", raw: `["a"]`, contains: []string{"must be an object"}},
		{name: "malformed json", raw: `{"a": `, contains: []string{"structure"}},
		{
			name:     "unknown parse",
			raw:      `{"A": {"file_name_column": "a", "parse": "float"}}`,
			contains: []string{`unknown parse "float"`},
		},
		{
			name:     "both source and group",
			raw:      `{"A": {"file_name_column": "a", "column_group": ["b"]}}`,
			contains: []string{"mutually exclusive"},
		},
		{
			name:     "mapping keys differing only in case",
			raw:      `{"A": {"file_name_column": "a", "mapping": {"activo": false, "Activo": true}}}`,
			contains: []string{`mapping keys "Activo" and "activo" differ only in case`},
		},
		{
			name:     "empty path segment",
			raw:      `{"A..B": {"file_name_column": "a"}}`,
			contains: []string{"empty path segment"},
		},
		{
			name: "every bad rule reported",
			raw: `{
				"A": {"required": true},
				"B": {"file_name_column": "b", "required": "yes"},
				"C": {"file_name_column": "c"}
			}`,
			contains: []string{`field "A"`, `field "B"`, "; "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStructure([]byte(tt.raw))
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("ParseStructure() error = %v, want *ConfigError", err)
			}
			if tt.missing != errors.Is(err, ErrMissingStructure) {
				t.Errorf("errors.Is(ErrMissingStructure) = %v, want %v (%v)", !tt.missing, tt.missing, err)
			}
			for _, s := range tt.contains {
				if !strings.Contains(err.Error(), s) {
					t.Errorf("error %q should contain %q", err, s)
				}
			}
		})
	}
}
