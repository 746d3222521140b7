package core

import (
	"errors"
	"reflect"
	"testing"
)

func testRow(header []string, cells ...Cell) Row {
	return NewTable(header, [][]Cell{cells}).Row(0)
}

func TestExtractPresent(t *testing.T) {
	header := []string{"Lunes", "Martes", "Miercoles"}

	tests := []struct {
		name    string
		row     Row
		columns []string
		want    []string
	}{
		{
			name:    "keeps filled columns in member order",
			row:     testRow(header, TextCell("x"), EmptyCell(), TextCell("x")),
			columns: []string{"Miercoles", "Lunes", "Martes"},
			want:    []string{"Miercoles", "Lunes"},
		},
		{
			name:    "whitespace counts as blank",
			row:     testRow(header, TextCell("  "), NumberCell(0), EmptyCell()),
			columns: header,
			want:    []string{"Martes"},
		},
		{
			name:    "absent column counts as blank",
			row:     testRow(header, TextCell("x"), EmptyCell(), EmptyCell()),
			columns: []string{"Domingo", "Lunes"},
			want:    []string{"Lunes"},
		},
		{
			name:    "nothing filled",
			row:     testRow(header, EmptyCell(), EmptyCell(), TextCell("x")),
			columns: []string{"Lunes", "Martes"},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractPresent(tt.row, tt.columns)
			if got == nil {
				t.Fatal("ExtractPresent() returned nil, want empty slice")
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractPresent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPayloadBuilder_Build(t *testing.T) {
	header := []string{"Nombre", "Rol", "Area", "Estado", "Lunes", "Martes", "Nota"}
	row := testRow(header,
		TextCell("Ana"),
		TextCell("3"),
		NumberCell(7),
		TextCell("ACTIVO"),
		TextCell("x"),
		EmptyCell(),
		EmptyCell(),
	)

	mapping := FieldMapping{
		{Key: "Nombre", Rule: &ScalarRule{SourceColumn: "Nombre", Required: true}},
		{Key: "Puesto.RolId", Rule: &ScalarRule{SourceColumn: "Rol", Parse: ParseInt}},
		{Key: "Puesto.AreaId", Rule: &ScalarRule{SourceColumn: "Area", Parse: ParseInt}},
		{Key: "Activo", Rule: &ScalarRule{SourceColumn: "Estado", ValueMap: ValueMap{"activo": true}}},
		{Key: "Dias", Rule: &GroupRule{Members: []string{"Lunes", "Martes"}}},
		{Key: "Nota", Rule: &ScalarRule{SourceColumn: "Nota"}},
	}

	got, err := NewPayloadBuilder(nil).Build(row, mapping)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := Payload{
		"Nombre": "Ana",
		"Puesto": map[string]any{"RolId": int64(3), "AreaId": int64(7)},
		"Activo": true,
		"Dias":   []string{"Lunes"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Build() = %#v, want %#v", got, want)
	}
}

func TestPayloadBuilder_BuildErrors(t *testing.T) {
	header := []string{"Nombre", "Rol"}

	tests := []struct {
		name    string
		row     Row
		mapping FieldMapping
		check   func(error) bool
	}{
		{
			name: "required field empty",
			row:  testRow(header, TextCell("   "), TextCell("1")),
			mapping: FieldMapping{
				{Key: "Nombre", Rule: &ScalarRule{SourceColumn: "Nombre", Required: true}},
			},
			check: func(err error) bool {
				var target *RequiredFieldMissingError
				return errors.As(err, &target) && target.Key == "Nombre"
			},
		},
		{
			name: "coercion failure carries key",
			row:  testRow(header, TextCell("Ana"), TextCell("abc")),
			mapping: FieldMapping{
				{Key: "RolId", Rule: &ScalarRule{SourceColumn: "Rol", Parse: ParseInt}},
			},
			check: func(err error) bool {
				var field *FieldError
				var coercion *CoercionError
				return errors.As(err, &field) && field.Key == "RolId" && errors.As(err, &coercion)
			},
		},
		{
			name: "descending through a scalar",
			row:  testRow(header, TextCell("Ana"), TextCell("1")),
			mapping: FieldMapping{
				{Key: "Rol", Rule: &ScalarRule{SourceColumn: "Nombre"}},
				{Key: "Rol.Id", Rule: &ScalarRule{SourceColumn: "Rol"}},
			},
			check: func(err error) bool {
				var target *PathConflictError
				return errors.As(err, &target) && target.Segment == "Rol"
			},
		},
		{
			name: "descending through null",
			row:  testRow(header, TextCell("Ana"), TextCell("1")),
			mapping: FieldMapping{
				{Key: "Rol", Rule: &ScalarRule{SourceColumn: "Rol", ValueMap: ValueMap{"1": nil}}},
				{Key: "Rol.Id", Rule: &ScalarRule{SourceColumn: "Nombre"}},
			},
			check: func(err error) bool {
				var target *PathConflictError
				return errors.As(err, &target) && target.Key == "Rol.Id"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := NewPayloadBuilder(nil).Build(tt.row, tt.mapping)
			if err == nil {
				t.Fatalf("Build() = %v, want error", payload)
			}
			if payload != nil {
				t.Errorf("Build() payload = %v, want nil on error", payload)
			}
			if !tt.check(err) {
				t.Errorf("Build() error = %v (%T), unexpected type", err, err)
			}
		})
	}
}

func TestPayloadBuilder_SkipsAbsentColumn(t *testing.T) {
	row := testRow([]string{"Nombre"}, TextCell("Ana"))
	mapping := FieldMapping{
		{Key: "Nombre", Rule: &ScalarRule{SourceColumn: "Nombre"}},
		{Key: "Email", Rule: &ScalarRule{SourceColumn: "Correo", Required: true}},
	}

	got, err := NewPayloadBuilder(nil).Build(row, mapping)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if _, ok := got["Email"]; ok {
		t.Errorf("Build() should skip absent column, got %v", got)
	}
}

func TestPayloadBuilder_LeafOverwrite(t *testing.T) {
	row := testRow([]string{"A", "B"}, TextCell("first"), TextCell("second"))
	mapping := FieldMapping{
		{Key: "X", Rule: &ScalarRule{SourceColumn: "A"}},
		{Key: "X", Rule: &ScalarRule{SourceColumn: "B"}},
	}

	got, err := NewPayloadBuilder(nil).Build(row, mapping)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got["X"] != "second" {
		t.Errorf("X = %v, want second", got["X"])
	}
}

func TestMergeComplement(t *testing.T) {
	tests := []struct {
		name       string
		complement any
		want       Payload
		wantErr    bool
	}{
		{
			name:       "nil is a no-op",
			complement: nil,
			want:       Payload{"Nombre": "Ana", "EmpresaId": 1.0},
		},
		{
			name:       "object overwrites collisions",
			complement: map[string]any{"EmpresaId": 9.0, "Origen": "carga"},
			want:       Payload{"Nombre": "Ana", "EmpresaId": 9.0, "Origen": "carga"},
		},
		{
			name:       "array is rejected",
			complement: []any{1.0},
			wantErr:    true,
		},
		{
			name:       "string is rejected",
			complement: "x",
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := Payload{"Nombre": "Ana", "EmpresaId": 1.0}
			err := MergeComplement(payload, tt.complement)
			if tt.wantErr {
				var target *ComplementError
				if !errors.As(err, &target) {
					t.Fatalf("MergeComplement() error = %v, want *ComplementError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("MergeComplement() error = %v", err)
			}
			if !reflect.DeepEqual(payload, tt.want) {
				t.Errorf("payload = %v, want %v", payload, tt.want)
			}
		})
	}
}
