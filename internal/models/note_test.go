package models

import "testing"

func TestNoteFromTableRowBackfillsShortRows(t *testing.T) {
	// A row written before the status and date columns existed.
	old := []string{"AAPL", "Apple", "services flywheel", "high", "Tech", "growth"}
	n := NoteFromTableRow(old)

	if n.Code != "AAPL" || n.AssetType != "growth" {
		t.Fatalf("leading columns misread: %+v", n)
	}
	if n.Status != "" || n.FirstBuyDate != "" || n.LastModified != "" {
		t.Errorf("missing columns not left empty: %+v", n)
	}
	if got := len(n.TableRow()); got != len(NoteColumns) {
		t.Errorf("TableRow produced %d cells, want %d", got, len(NoteColumns))
	}
}

func TestNoteTableRowOrderMatchesColumns(t *testing.T) {
	n := NoteRecord{
		Code: "005930", Name: "Samsung Electronics", Thesis: "memory cycle",
		Conviction: ConvictionHigh, Sector: "Semis", AssetType: "cyclical",
		Catalysts: "HBM demand", Risks: "cycle turn", KPIs: "DRAM ASP",
		Horizon: "long", TargetPrice: "90000", ExitPlan: "trim above target",
		Status: NoteStatusHolding, FirstBuyDate: "2025-01-02",
		LastSellDate: "", LastModified: "2025-06-01",
	}
	row := n.TableRow()
	back := NoteFromTableRow(row)
	if back != n {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", back, n)
	}
}
