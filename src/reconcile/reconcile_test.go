package reconcile

import (
	"testing"

	"github.com/username/tadawulboard/src/models"
)

func ownership(symbols ...string) []models.OwnershipRecord {
	out := make([]models.OwnershipRecord, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, models.OwnershipRecord{Symbol: s, CompanyName: "Company " + s})
	}
	return out
}

func TestReconcile_OneRowPerOwnershipRecord(t *testing.T) {
	own := ownership("2010", "1050", "4030")
	earn := []models.EarningsRecord{
		{Symbol: "1050", RetainedEarnings: "500", Year: "2023"},
		{Symbol: "9999", RetainedEarnings: "42"},
	}

	rows := Reconcile(own, earn)
	if len(rows) != len(own) {
		t.Fatalf("Expected %d rows, got %d", len(own), len(rows))
	}

	// Ownership order is preserved; unmatched earnings symbols add nothing.
	for i, r := range rows {
		if r.Symbol != own[i].Symbol {
			t.Errorf("Row %d: expected symbol %s, got %s", i, own[i].Symbol, r.Symbol)
		}
	}
	if rows[1].RetainedEarnings != "500" || rows[1].Year != "2023" {
		t.Errorf("Matched row not populated: %+v", rows[1])
	}
	if rows[0].RetainedEarnings != "" || rows[0].ReinvestedEarnings != "" || rows[0].Year != "" || rows[0].ExtractionError != "" {
		t.Errorf("Unmatched row should default to empty strings: %+v", rows[0])
	}
}

func TestReconcile_LastWriteWinsOnDuplicateSymbols(t *testing.T) {
	own := ownership("2010")
	earn := []models.EarningsRecord{
		{Symbol: "2010", RetainedEarnings: "A"},
		{Symbol: "2010", RetainedEarnings: "B"},
	}

	rows := Reconcile(own, earn)
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	if rows[0].RetainedEarnings != "B" {
		t.Errorf("Expected later earnings record to win, got %q", rows[0].RetainedEarnings)
	}
}

func TestReconcile_JoinsOnTrimmedSymbol(t *testing.T) {
	own := []models.OwnershipRecord{{Symbol: "1050", CompanyName: "Bank"}}
	earn := []models.EarningsRecord{{Symbol: " 1050 ", RetainedEarnings: "7"}}

	rows := Reconcile(own, earn)
	if rows[0].RetainedEarnings != "7" {
		t.Errorf("Expected join on trimmed symbol, got %q", rows[0].RetainedEarnings)
	}
}

func TestReconcile_RowIDsAreUnique(t *testing.T) {
	// Same symbol twice in the ownership batch still yields distinct rows
	// with distinct identities.
	own := ownership("2010", "2010")
	rows := Reconcile(own, nil)
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[0].RowID == "" || rows[0].RowID == rows[1].RowID {
		t.Errorf("Expected distinct non-empty row IDs, got %q and %q", rows[0].RowID, rows[1].RowID)
	}
}

func TestReconcile_EmptyInputs(t *testing.T) {
	if rows := Reconcile(nil, nil); len(rows) != 0 {
		t.Errorf("Expected no rows for empty inputs, got %d", len(rows))
	}
	if rows := Reconcile(nil, []models.EarningsRecord{{Symbol: "2010"}}); len(rows) != 0 {
		t.Errorf("Earnings alone must not create rows, got %d", len(rows))
	}
}
