package core

import (
	"reflect"
	"testing"
)

func TestNewTable(t *testing.T) {
	table := NewTable(
		[]string{" Nombre ", "Rol", "Extra"},
		[][]Cell{
			{TextCell("  Ana "), NumberCell(1)},
			{EmptyCell(), TextCell("   ")},
			{TextCell("Luis"), EmptyCell(), TextCell("x"), TextCell("ignored")},
		},
	)

	if !reflect.DeepEqual(table.Columns(), []string{"Nombre", "Rol", "Extra"}) {
		t.Errorf("Columns() = %v", table.Columns())
	}
	if table.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (blank row dropped)", table.Len())
	}

	cell, ok := table.Row(0).Get("Nombre")
	if !ok || cell.Text() != "Ana" {
		t.Errorf("Row(0).Get(Nombre) = %q, %v, want trimmed Ana", cell.Text(), ok)
	}

	cell, ok = table.Row(0).Get("Extra")
	if !ok || cell.Kind != CellEmpty {
		t.Errorf("short row should pad with empty cells, got %v, %v", cell.Kind, ok)
	}

	cell, _ = table.Row(1).Get("Extra")
	if cell.Text() != "x" {
		t.Errorf("Row(1).Get(Extra) = %q, want x", cell.Text())
	}

	if _, ok := table.Row(1).Get("Missing"); ok {
		t.Error("Get(Missing) ok = true, want false")
	}
}

func TestCell_IsBlank(t *testing.T) {
	tests := []struct {
		cell Cell
		want bool
	}{
		{EmptyCell(), true},
		{TextCell(""), true},
		{TextCell("a"), false},
		{NumberCell(0), false},
		{BoolCell(false), false},
	}
	for _, tt := range tests {
		if got := tt.cell.IsBlank(); got != tt.want {
			t.Errorf("%v.IsBlank() = %v, want %v", tt.cell.Kind, got, tt.want)
		}
	}
}

func TestBatchResult_Status(t *testing.T) {
	var r BatchResult
	if r.Status() != BatchComplete {
		t.Errorf("empty result Status() = %v, want complete", r.Status())
	}
	r = r.recordSuccess(0).recordFailure(1, "bad")
	if r.Status() != BatchPartial {
		t.Errorf("Status() = %v, want partial", r.Status())
	}
}
