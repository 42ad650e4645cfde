package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/damoa-dev/damoa/internal/common"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	fs, err := NewFileStore(common.NewSilentLogger(), &common.FileConfig{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return fs
}

func TestFileStore_RoundTrip(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()

	header := []string{"Code", "Name"}
	rows := [][]string{
		{"005930", "Samsung Electronics"},
		{"AAPL", "Apple, Inc."},
	}
	if err := fs.ReplaceAll(ctx, "Portfolio", header, rows); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	got, err := fs.ReadAll(ctx, "Portfolio")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ReadAll returned %d rows, want header + 2", len(got))
	}
	if got[0][0] != "Code" || got[2][1] != "Apple, Inc." {
		t.Errorf("round trip corrupted rows: %v", got)
	}
}

func TestFileStore_MissingTableReadsEmpty(t *testing.T) {
	fs := newTestFileStore(t)

	rows, err := fs.ReadAll(context.Background(), "NeverWritten")
	if err != nil {
		t.Fatalf("ReadAll on a missing table: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("missing table read %d rows, want none", len(rows))
	}
}

func TestFileStore_ReplaceOverwritesFully(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()

	header := []string{"Code"}
	if err := fs.ReplaceAll(ctx, "Notes", header, [][]string{{"AAA"}, {"BBB"}, {"CCC"}}); err != nil {
		t.Fatal(err)
	}
	if err := fs.ReplaceAll(ctx, "Notes", header, [][]string{{"DDD"}}); err != nil {
		t.Fatal(err)
	}

	rows, err := fs.ReadAll(ctx, "Notes")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1][0] != "DDD" {
		t.Errorf("second write did not fully replace the first: %v", rows)
	}
}

func TestFileStore_LeavesNoTempFiles(t *testing.T) {
	fs := newTestFileStore(t)

	if err := fs.ReplaceAll(context.Background(), "Portfolio", []string{"Code"}, nil); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(fs.basePath)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("staging file %s left behind after rename", e.Name())
		}
	}
}

func TestFileStore_SanitizesTableNames(t *testing.T) {
	fs := newTestFileStore(t)

	if err := fs.ReplaceAll(context.Background(), "../escape", []string{"Code"}, nil); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(fs.basePath, "__escape.csv")); err != nil {
		t.Errorf("sanitized table file not found: %v", err)
	}
}
