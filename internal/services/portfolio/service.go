// Package portfolio consolidates every configured brokerage account into one
// KRW-normalized table and persists it as a full overwrite.
package portfolio

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/damoa-dev/damoa/internal/common"
	"github.com/damoa-dev/damoa/internal/interfaces"
	"github.com/damoa-dev/damoa/internal/models"
)

// Compile-time interface check
var _ interfaces.PortfolioService = (*Service)(nil)

// Service implements PortfolioService
type Service struct {
	accounts []models.Account
	broker   interfaces.BrokerageClient
	rates    interfaces.RateResolver
	storage  interfaces.StorageManager
	tables   common.TablesConfig
	logger   *common.Logger
}

// NewService creates a new portfolio service
func NewService(accounts []models.Account, broker interfaces.BrokerageClient, rates interfaces.RateResolver, storage interfaces.StorageManager, tables common.TablesConfig, logger *common.Logger) *Service {
	return &Service{
		accounts: accounts,
		broker:   broker,
		rates:    rates,
		storage:  storage,
		tables:   tables,
		logger:   logger,
	}
}

// Aggregate collects holdings and cash from every account and builds the
// consolidated view. A failing account degrades to an empty result so the
// remaining accounts still land in the table; only a run that collects
// nothing at all returns models.ErrNoData.
func (s *Service) Aggregate(ctx context.Context) (*models.ConsolidatedPortfolio, error) {
	var (
		holdings     []models.Holding
		totalCash    float64
		overseasSeen bool
	)

	for _, account := range s.accounts {
		hs, err := s.broker.Holdings(ctx, account)
		if err != nil {
			s.logger.Warn().Err(err).Str("account", account.Name).Msg("holdings collection failed, continuing with empty result")
			hs = nil
		}
		holdings = append(holdings, hs...)

		cash, err := s.broker.Cash(ctx, account)
		if err != nil {
			s.logger.Warn().Err(err).Str("account", account.Name).Msg("cash collection failed, continuing with zero cash")
			cash = models.CashBalance{AccountName: account.Name}
		}
		totalCash += cash.Amount

		if account.Overseas() && (len(hs) > 0 || cash.Amount > 0) {
			overseasSeen = true
		}
	}

	if len(holdings) == 0 && totalCash == 0 {
		return nil, models.ErrNoData
	}

	rows := make([]models.ConsolidatedRow, 0, len(holdings)+1)
	for _, h := range holdings {
		rows = append(rows, models.ConsolidatedRow{Holding: h})
	}
	if totalCash > 0 {
		rows = append(rows, models.ConsolidatedRow{Holding: models.Holding{
			Code:        models.CashCode,
			Name:        "Cash",
			Quantity:    1,
			AvgCost:     totalCash,
			Price:       totalCash,
			MarketValue: totalCash,
			AccountName: "all",
			Currency:    "KRW",
		}})
	}

	var totalValue float64
	for _, r := range rows {
		totalValue += r.MarketValue
	}

	accountValues := make(map[string]float64)
	for i := range rows {
		rows[i].Weight = weight(rows[i].MarketValue, totalValue)
		accountValues[rows[i].AccountName] += rows[i].MarketValue
	}

	p := &models.ConsolidatedPortfolio{
		Rows:          rows,
		TotalValue:    totalValue,
		TotalCash:     totalCash,
		AccountValues: accountValues,
		GeneratedAt:   time.Now(),
	}

	// The memoized quote from overseas collection, recorded for the
	// rate-info table.
	if overseasSeen {
		quote := s.rates.Resolve(ctx)
		p.Rate = &quote
	}

	s.logger.Info().
		Int("rows", len(rows)).
		Float64("total_value", totalValue).
		Float64("total_cash", totalCash).
		Msg("portfolio aggregated")
	return p, nil
}

// Sync aggregates and persists the consolidated table. The write replaces the
// whole table; a run with nothing to persist skips the write entirely so
// prior data is never overwritten by an empty header.
func (s *Service) Sync(ctx context.Context) (*models.ConsolidatedPortfolio, error) {
	// Each run resolves its own rate.
	s.rates.Reset()

	p, err := s.Aggregate(ctx)
	if err != nil {
		if errors.Is(err, models.ErrNoData) {
			s.logger.Info().Msg("no holdings or cash collected, skipping persist")
		}
		return nil, err
	}

	store := s.storage.TableStore()

	tableRows := make([][]string, 0, len(p.Rows))
	for _, r := range p.Rows {
		tableRows = append(tableRows, r.TableRow())
	}
	if err := store.ReplaceAll(ctx, s.tables.Portfolio, models.PortfolioColumns, tableRows); err != nil {
		return nil, &models.PersistenceError{Op: "replace", Table: s.tables.Portfolio, Err: err}
	}

	if p.Rate != nil {
		row := p.Rate.TableRow(p.TotalValue)
		if err := store.ReplaceAll(ctx, s.tables.RateInfo, models.RateInfoColumns, [][]string{row}); err != nil {
			return nil, &models.PersistenceError{Op: "replace", Table: s.tables.RateInfo, Err: err}
		}
	}

	for name, value := range p.AccountValues {
		s.logger.Info().
			Str("account", name).
			Float64("value", value).
			Float64("weight", weight(value, p.TotalValue)).
			Msg("account share of portfolio")
	}
	s.logger.Info().Str("table", s.tables.Portfolio).Int("rows", len(p.Rows)).Msg("portfolio persisted")
	return p, nil
}

// Load reads back the last persisted consolidated table. Rows that fail to
// parse are skipped with a warning.
func (s *Service) Load(ctx context.Context) (*models.ConsolidatedPortfolio, error) {
	raw, err := s.storage.TableStore().ReadAll(ctx, s.tables.Portfolio)
	if err != nil {
		return nil, &models.PersistenceError{Op: "read", Table: s.tables.Portfolio, Err: err}
	}
	if len(raw) <= 1 {
		return nil, models.ErrNoData
	}

	p := &models.ConsolidatedPortfolio{AccountValues: make(map[string]float64)}
	for _, cells := range raw[1:] {
		row, err := models.ConsolidatedRowFromTableRow(cells)
		if err != nil {
			s.logger.Warn().Err(err).Msg("skipping unparseable persisted row")
			continue
		}
		p.Rows = append(p.Rows, row)
		p.TotalValue += row.MarketValue
		p.AccountValues[row.AccountName] += row.MarketValue
		if row.Code == models.CashCode {
			p.TotalCash = row.MarketValue
		}
	}
	if len(p.Rows) == 0 {
		return nil, models.ErrNoData
	}
	return p, nil
}

// weight is a row's share of the total in percent, rounded to 2 decimals.
func weight(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return decimal.NewFromFloat(value / total * 100).Round(2).InexactFloat64()
}
