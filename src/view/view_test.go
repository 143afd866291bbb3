package view

import (
	"reflect"
	"testing"

	"github.com/username/tadawulboard/src/models"
)

func unified(symbol, name, retained string) models.UnifiedRow {
	return models.UnifiedRow{Symbol: symbol, CompanyName: name, RetainedEarnings: retained}
}

func TestDerive_EmptySearchKeepsEveryRow(t *testing.T) {
	rows := []models.UnifiedRow{
		unified("2010", "SABIC", "100"),
		unified("1050", "Bank", "100"),
		unified("4030", "Shipping", "100"),
	}

	got := Derive(rows, "")
	if len(got) != 3 {
		t.Fatalf("Expected all rows, got %d", len(got))
	}
	// Equal sort keys, so relative input order must survive.
	for i, r := range got {
		if r.Symbol != rows[i].Symbol {
			t.Errorf("Row %d: expected %s, got %s", i, rows[i].Symbol, r.Symbol)
		}
	}
}

func TestDerive_FiltersBySymbolOrName(t *testing.T) {
	rows := []models.UnifiedRow{
		unified("2010", "SABIC", ""),
		unified("1050", "Holdings 2010", ""),
		unified("4030", "Shipping", ""),
	}

	got := Derive(rows, "2010")
	if len(got) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(got))
	}
	if got[0].Symbol != "2010" || got[1].Symbol != "1050" {
		t.Errorf("Unexpected matches: %+v", got)
	}

	// Substring match is literal and case-sensitive.
	if got := Derive(rows, "sabic"); len(got) != 0 {
		t.Errorf("Expected case-sensitive match, got %d rows", len(got))
	}
}

func TestDerive_SortOrderAndStability(t *testing.T) {
	rows := []models.UnifiedRow{
		unified("A", "", ""),
		unified("B", "", "100"),
		unified("C", "", "abc"),
		unified("D", "", "-50"),
		unified("E", "", "100"),
	}

	got := Derive(rows, "")
	wantOrder := []string{"B", "E", "D", "A", "C"}
	var gotOrder []string
	for _, r := range got {
		gotOrder = append(gotOrder, r.Symbol)
	}
	if !reflect.DeepEqual(gotOrder, wantOrder) {
		t.Errorf("Expected order %v, got %v", wantOrder, gotOrder)
	}
}

func TestDerive_DoesNotMutateInput(t *testing.T) {
	rows := []models.UnifiedRow{
		unified("A", "", "1"),
		unified("B", "", "2"),
	}
	original := make([]models.UnifiedRow, len(rows))
	copy(original, rows)

	Derive(rows, "")
	if !reflect.DeepEqual(rows, original) {
		t.Errorf("Derive mutated its input: %+v", rows)
	}
}

func TestPartitionColumns(t *testing.T) {
	cols := []models.ExtractionColumn{
		{Filename: "a.pdf", Data: map[string]string{"DATE": "2024-11-14"}},
		{Filename: "b.pdf", ExtractionError: "no headings found"},
		{Filename: "c.pdf"}, // no data, no error: still not usable
		{Filename: "d.pdf", Data: map[string]string{"DATE": "2024-11-21"}},
	}

	successful, failed := PartitionColumns(cols)
	if len(successful) != 2 || successful[0].Filename != "a.pdf" || successful[1].Filename != "d.pdf" {
		t.Errorf("Unexpected successful partition: %+v", successful)
	}
	if len(failed) != 2 {
		t.Errorf("Expected 2 failed columns, got %d", len(failed))
	}
}
