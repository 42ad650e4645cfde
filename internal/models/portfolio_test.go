package models

import (
	"reflect"
	"testing"
)

func TestConsolidatedRowTableRoundTrip(t *testing.T) {
	row := ConsolidatedRow{
		Holding: Holding{
			Code:        "005930",
			Name:        "Samsung Electronics",
			Quantity:    10,
			AvgCost:     65500,
			Price:       71200,
			MarketValue: 712000,
			ProfitLoss:  57000,
			ReturnPct:   8.7,
			AccountName: "domestic",
			Currency:    "KRW",
		},
		Weight: 12.34,
	}

	cells := row.TableRow()
	if len(cells) != len(PortfolioColumns) {
		t.Fatalf("TableRow produced %d cells, want %d", len(cells), len(PortfolioColumns))
	}

	parsed, err := ConsolidatedRowFromTableRow(cells)
	if err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if !reflect.DeepEqual(parsed, row) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", parsed, row)
	}
}

func TestConsolidatedRowFromTableRowRejectsBadRows(t *testing.T) {
	if _, err := ConsolidatedRowFromTableRow([]string{"005930", "Samsung"}); err == nil {
		t.Error("short row accepted")
	}
	bad := ConsolidatedRow{Holding: Holding{Code: "005930", Quantity: 1}}.TableRow()
	bad[5] = "not-a-number"
	if _, err := ConsolidatedRowFromTableRow(bad); err == nil {
		t.Error("non-numeric market value accepted")
	}
}

func TestHeldCodesExcludesCash(t *testing.T) {
	p := &ConsolidatedPortfolio{Rows: []ConsolidatedRow{
		{Holding: Holding{Code: "AAPL"}},
		{Holding: Holding{Code: CashCode}},
		{Holding: Holding{Code: "005930"}},
	}}
	got := p.HeldCodes()
	want := []string{"AAPL", "005930"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("HeldCodes() = %v, want %v", got, want)
	}
}
