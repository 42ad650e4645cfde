// Package app wires configuration, clients, storage and services into one
// shared core used by cmd/damoa-server and cmd/damoa-sync.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/damoa-dev/damoa/internal/clients/fx"
	"github.com/damoa-dev/damoa/internal/clients/kis"
	"github.com/damoa-dev/damoa/internal/common"
	"github.com/damoa-dev/damoa/internal/interfaces"
	"github.com/damoa-dev/damoa/internal/models"
	"github.com/damoa-dev/damoa/internal/services/notes"
	"github.com/damoa-dev/damoa/internal/services/portfolio"
	"github.com/damoa-dev/damoa/internal/services/reconcile"
	"github.com/damoa-dev/damoa/internal/storage"
)

// App holds all initialized services and clients.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Storage          interfaces.StorageManager
	Broker           interfaces.BrokerageClient
	Rates            interfaces.RateResolver
	PortfolioService interfaces.PortfolioService
	NoteService      interfaces.NoteService
	ReconcileService interfaces.ReconcileService
	StartupTime      time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes all services, clients and storage. configPath may be
// empty, in which case DAMOA_CONFIG, then damoa.toml beside the binary, then
// config/damoa.toml are tried.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	binDir := getBinaryDir()

	if configPath == "" {
		configPath = os.Getenv("DAMOA_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "damoa.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/damoa.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Resolve relative storage path to binary directory
	if config.Storage.File.Path != "" && !filepath.IsAbs(config.Storage.File.Path) {
		config.Storage.File.Path = filepath.Join(binDir, config.Storage.File.Path)
	}

	logger := common.NewLogger(config.Logging)

	storageManager, err := storage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	rates := fx.NewResolver(
		fx.WithLogger(logger.Component("fx")),
		fx.WithTimeout(config.Rates.GetTimeout()),
	)

	broker := kis.NewClient(rates,
		kis.WithBaseURL(config.Brokerage.BaseURL),
		kis.WithLogger(logger.Component("kis")),
		kis.WithRateLimit(config.Brokerage.RateLimit),
		kis.WithTimeout(config.Brokerage.GetTimeout()),
	)

	portfolioService := portfolio.NewService(config.Accounts, broker, rates, storageManager, config.Tables, logger.Component("portfolio"))
	noteService := notes.NewService(storageManager, config.Tables.Notes, logger.Component("notes"))
	reconcileService := reconcile.NewService(storageManager, config.Tables.Notes, logger.Component("reconcile"))

	a := &App{
		Config:           config,
		Logger:           logger,
		Storage:          storageManager,
		Broker:           broker,
		Rates:            rates,
		PortfolioService: portfolioService,
		NoteService:      noteService,
		ReconcileService: reconcileService,
		StartupTime:      startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")
	return a, nil
}

// Close releases all resources held by the App.
func (a *App) Close() {
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}

// RunSync executes one full aggregate-persist-reconcile pass. A run that
// collects nothing reports models.ErrNoData without touching the stores.
func (a *App) RunSync(ctx context.Context) (*models.ConsolidatedPortfolio, *models.ReconcileResult, error) {
	p, err := a.PortfolioService.Sync(ctx)
	if err != nil {
		return nil, nil, err
	}

	res, err := a.ReconcileService.Reconcile(ctx, p.HeldCodes())
	if err != nil {
		return p, nil, err
	}

	return p, res, nil
}
