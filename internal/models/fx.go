package models

import "time"

// DefaultUSDKRW is the fallback conversion rate applied when every provider
// fails. Stale but serviceable for weight calculations.
const DefaultUSDKRW = 1300.0

// RateSourceDefault marks a quote produced by the fallback rather than a provider.
const RateSourceDefault = "default"

// RateQuote is one resolved USD to KRW conversion rate and where it came from.
type RateQuote struct {
	Rate      float64   `json:"rate"`
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetched_at"`
}

// TableRow renders the quote for the rate-info table, in RateInfoColumns order.
func (q RateQuote) TableRow(totalValue float64) []string {
	return []string{
		q.FetchedAt.Format("2006-01-02 15:04:05"),
		cell(q.Rate),
		q.Source,
		cell(totalValue),
	}
}
