// Package interfaces defines service contracts for damoa
package interfaces

import (
	"context"

	"github.com/damoa-dev/damoa/internal/models"
)

// BrokerageClient collects balances from one brokerage account. Implementations
// handle token issuance and caching internally; callers never see credentials
// beyond the models.Account they pass in.
type BrokerageClient interface {
	// Holdings returns the account's positions with a positive quantity.
	// Overseas accounts are converted to KRW at the resolver's current rate.
	Holdings(ctx context.Context, account models.Account) ([]models.Holding, error)

	// Cash returns the account's orderable cash in KRW.
	Cash(ctx context.Context, account models.Account) (models.CashBalance, error)
}

// RateResolver supplies the USD to KRW conversion rate for one run.
type RateResolver interface {
	// Resolve returns a usable quote. It never fails: provider errors fall
	// through to the next provider and finally to the default rate.
	Resolve(ctx context.Context) models.RateQuote

	// Reset clears the memoized quote so the next Resolve fetches fresh.
	Reset()
}
