// Package storage provides tabular persistence with pluggable backends.
package storage

import (
	"fmt"

	"github.com/damoa-dev/damoa/internal/common"
	"github.com/damoa-dev/damoa/internal/interfaces"
)

// Backend type constants.
const (
	BackendSheets = "sheets"
	BackendFile   = "file"
)

// Manager implements interfaces.StorageManager over the configured backend.
type Manager struct {
	tables interfaces.TableStore
	logger *common.Logger
}

// NewManager creates a StorageManager with the backend selected by
// configuration. Supported backends: "sheets", "file".
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	var (
		tables interfaces.TableStore
		err    error
	)

	switch config.Storage.Backend {
	case BackendSheets:
		tables, err = NewSheetsStore(logger, &config.Sheets,
			WithFirstSheetFallback(config.Tables.Portfolio))
	case BackendFile:
		tables, err = NewFileStore(logger, &config.Storage.File)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: sheets, file)", config.Storage.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s table store: %w", config.Storage.Backend, err)
	}

	logger.Info().
		Str("backend", config.Storage.Backend).
		Msg("Storage manager initialized")

	return &Manager{tables: tables, logger: logger}, nil
}

func (m *Manager) TableStore() interfaces.TableStore {
	return m.tables
}

func (m *Manager) Close() error {
	return m.tables.Close()
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
