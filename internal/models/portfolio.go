package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CashCode is the synthetic instrument code of the consolidated cash row.
const CashCode = "CASH"

// PortfolioColumns is the persisted portfolio table header, in column order.
var PortfolioColumns = []string{
	"Code", "Name", "Quantity", "Avg Cost", "Price", "Market Value",
	"P/L", "Return %", "Account", "Weight %", "Currency",
}

// RateInfoColumns is the rate-info table header, in column order.
var RateInfoColumns = []string{"Updated At", "Rate", "Source", "Total Value"}

// Holding is one position reported by a brokerage account. Monetary fields are
// KRW, except AvgCost and Price on overseas holdings which stay in the trade
// currency.
type Holding struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Quantity    int64   `json:"quantity"`
	AvgCost     float64 `json:"avg_cost"`
	Price       float64 `json:"price"`
	MarketValue float64 `json:"market_value"`
	ProfitLoss  float64 `json:"profit_loss"`
	ReturnPct   float64 `json:"return_pct"`
	AccountName string  `json:"account_name"`
	Currency    string  `json:"currency"`
}

// CashBalance is the orderable cash reported by one account, converted to KRW.
type CashBalance struct {
	AccountName string  `json:"account_name"`
	Amount      float64 `json:"amount"`
}

// ConsolidatedRow is one line of the persisted portfolio table: a holding plus
// its weight in the total, or the synthetic cash row.
type ConsolidatedRow struct {
	Holding
	Weight float64 `json:"weight"`
}

// ConsolidatedPortfolio is the outcome of one aggregation run.
type ConsolidatedPortfolio struct {
	Rows          []ConsolidatedRow  `json:"rows"`
	TotalValue    float64            `json:"total_value"`
	TotalCash     float64            `json:"total_cash"`
	Rate          *RateQuote         `json:"rate,omitempty"`
	AccountValues map[string]float64 `json:"account_values,omitempty"`
	GeneratedAt   time.Time          `json:"generated_at"`
}

// HeldCodes returns the instrument codes present in the run, cash excluded.
func (p *ConsolidatedPortfolio) HeldCodes() []string {
	codes := make([]string, 0, len(p.Rows))
	for _, r := range p.Rows {
		if r.Code != CashCode {
			codes = append(codes, r.Code)
		}
	}
	return codes
}

// TableRow renders the row for tabular persistence, in PortfolioColumns order.
func (r ConsolidatedRow) TableRow() []string {
	return []string{
		r.Code,
		r.Name,
		strconv.FormatInt(r.Quantity, 10),
		cell(r.AvgCost),
		cell(r.Price),
		cell(r.MarketValue),
		cell(r.ProfitLoss),
		decimal.NewFromFloat(r.ReturnPct).StringFixed(2),
		r.AccountName,
		decimal.NewFromFloat(r.Weight).StringFixed(2),
		r.Currency,
	}
}

// ConsolidatedRowFromTableRow parses one persisted portfolio row back into a
// struct. Short or non-numeric rows return an error.
func ConsolidatedRowFromTableRow(row []string) (ConsolidatedRow, error) {
	if len(row) < len(PortfolioColumns) {
		return ConsolidatedRow{}, fmt.Errorf("portfolio row has %d columns, want %d", len(row), len(PortfolioColumns))
	}
	var (
		r   ConsolidatedRow
		err error
	)
	r.Code = strings.TrimSpace(row[0])
	r.Name = strings.TrimSpace(row[1])
	if r.Quantity, err = strconv.ParseInt(strings.TrimSpace(row[2]), 10, 64); err != nil {
		return ConsolidatedRow{}, fmt.Errorf("parsing quantity %q: %w", row[2], err)
	}
	numeric := []struct {
		dst *float64
		col int
	}{
		{&r.AvgCost, 3}, {&r.Price, 4}, {&r.MarketValue, 5},
		{&r.ProfitLoss, 6}, {&r.ReturnPct, 7}, {&r.Weight, 9},
	}
	for _, f := range numeric {
		if *f.dst, err = strconv.ParseFloat(strings.TrimSpace(row[f.col]), 64); err != nil {
			return ConsolidatedRow{}, fmt.Errorf("parsing %s %q: %w", PortfolioColumns[f.col], row[f.col], err)
		}
	}
	r.AccountName = strings.TrimSpace(row[8])
	r.Currency = strings.TrimSpace(row[10])
	return r, nil
}

// cell renders a monetary value without trailing zeros.
func cell(v float64) string {
	return decimal.NewFromFloat(v).String()
}
