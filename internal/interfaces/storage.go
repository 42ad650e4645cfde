package interfaces

import "context"

// TableStore persists named tables of string cells. Implementations back onto
// a spreadsheet service or the local filesystem.
//
// ReplaceAll is the only mutation: every write is a full overwrite of one
// table, header first. How atomic that overwrite is depends on the backend;
// the file store stages and renames, the sheets store clears then writes.
type TableStore interface {
	// ReplaceAll overwrites the named table with header and rows as one
	// logical unit, creating the table when it does not exist yet.
	ReplaceAll(ctx context.Context, table string, header []string, rows [][]string) error

	// ReadAll returns the table's rows including the header row. A table
	// that does not exist reads as empty, not as an error.
	ReadAll(ctx context.Context, table string) ([][]string, error)

	// Close releases backend resources.
	Close() error
}

// StorageManager owns the configured storage backend.
type StorageManager interface {
	// TableStore returns the tabular store selected by configuration.
	TableStore() TableStore

	// Close shuts down every backend.
	Close() error
}
