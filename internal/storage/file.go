package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/damoa-dev/damoa/internal/common"
	"github.com/damoa-dev/damoa/internal/interfaces"
)

// FileStore keeps each table as one CSV file under a base directory. Writes
// stage to a temp file in the same directory and rename over the target, so a
// reader never observes a half-written table.
type FileStore struct {
	basePath string
	logger   *common.Logger
}

// NewFileStore creates a FileStore and ensures the base directory exists.
func NewFileStore(logger *common.Logger, config *common.FileConfig) (*FileStore, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("file store path is empty")
	}
	if err := os.MkdirAll(config.Path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", config.Path, err)
	}

	logger.Debug().Str("path", config.Path).Msg("FileStore opened")
	return &FileStore{basePath: config.Path, logger: logger}, nil
}

// sanitizeTable makes a table name safe for use as a filename. Replaces /, \,
// : with _ and collapses ".." to "_" to prevent path traversal.
func (fs *FileStore) sanitizeTable(table string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(table)
}

func (fs *FileStore) filePath(table string) string {
	return filepath.Join(fs.basePath, fs.sanitizeTable(table)+".csv")
}

// ReplaceAll overwrites the table atomically: the new content lands in a temp
// file first and a rename swaps it in.
func (fs *FileStore) ReplaceAll(ctx context.Context, table string, header []string, rows [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(fs.basePath, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush rows: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	target := fs.filePath(table)
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", target, err)
	}

	fs.logger.Debug().Str("table", table).Int("rows", len(rows)).Msg("table replaced")
	return nil
}

// ReadAll returns the table's rows including the header. A table that has
// never been written reads as empty.
func (fs *FileStore) ReadAll(ctx context.Context, table string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(fs.filePath(table))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open table %s: %w", table, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", table, err)
	}
	return rows, nil
}

func (fs *FileStore) Close() error {
	return nil
}

// Compile-time check
var _ interfaces.TableStore = (*FileStore)(nil)
