package core

import (
	"errors"
	"reflect"
	"testing"
)

func TestExpectedColumns(t *testing.T) {
	mapping := FieldMapping{
		{Key: "Nombre", Rule: &ScalarRule{SourceColumn: "Nombre"}},
		{Key: "Dias", Rule: &GroupRule{Members: []string{"Lunes", "Martes"}}},
		{Key: "Alias", Rule: &ScalarRule{SourceColumn: "Nombre"}},
		{Key: "Turno", Rule: &GroupRule{Members: []string{"Martes", "Noche"}}},
	}

	want := []string{"Nombre", "Lunes", "Martes", "Noche"}
	if got := ExpectedColumns(mapping); !reflect.DeepEqual(got, want) {
		t.Errorf("ExpectedColumns() = %v, want %v", got, want)
	}
}

func TestValidateSchema(t *testing.T) {
	table := NewTable([]string{"Nombre", " Rol ", "Lunes"}, nil)

	tests := []struct {
		name    string
		mapping FieldMapping
		missing []string
	}{
		{
			name: "all present",
			mapping: FieldMapping{
				{Key: "Nombre", Rule: &ScalarRule{SourceColumn: "Nombre"}},
				{Key: "RolId", Rule: &ScalarRule{SourceColumn: "Rol"}},
			},
		},
		{
			name: "reports every missing column",
			mapping: FieldMapping{
				{Key: "Nombre", Rule: &ScalarRule{SourceColumn: "Nombre"}},
				{Key: "Email", Rule: &ScalarRule{SourceColumn: "Correo"}},
				{Key: "Dias", Rule: &GroupRule{Members: []string{"Lunes", "Martes"}}},
			},
			missing: []string{"Correo", "Martes"},
		},
		{
			name: "header match is case-sensitive",
			mapping: FieldMapping{
				{Key: "Nombre", Rule: &ScalarRule{SourceColumn: "nombre"}},
			},
			missing: []string{"nombre"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSchema(table, tt.mapping)
			if tt.missing == nil {
				if err != nil {
					t.Fatalf("ValidateSchema() error = %v", err)
				}
				return
			}
			var target *MissingColumnsError
			if !errors.As(err, &target) {
				t.Fatalf("ValidateSchema() error = %v, want *MissingColumnsError", err)
			}
			if !reflect.DeepEqual(target.Columns, tt.missing) {
				t.Errorf("missing = %v, want %v", target.Columns, tt.missing)
			}
		})
	}
}

func TestResolveEndpoint(t *testing.T) {
	tests := []struct {
		base    string
		path    string
		want    string
		wantErr bool
	}{
		{base: "http://x", path: "y", want: "http://x/y"},
		{base: "http://x/", path: "/y", want: "http://x/y"},
		{base: "http://x/", path: "y", want: "http://x/y"},
		{base: "http://x", path: "/api/v1/personas", want: "http://x/api/v1/personas"},
		{base: "", path: "y", wantErr: true},
		{base: "http://x", path: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ResolveEndpoint(tt.base, tt.path)
		if tt.wantErr {
			if !errors.Is(err, ErrMissingEndpointConfig) {
				t.Errorf("ResolveEndpoint(%q, %q) error = %v, want ErrMissingEndpointConfig", tt.base, tt.path, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ResolveEndpoint(%q, %q) error = %v", tt.base, tt.path, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ResolveEndpoint(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
		}
	}
}
