package storage

import (
	"testing"

	"github.com/damoa-dev/damoa/internal/common"
)

func TestNewManager_FileBackend(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Storage.Backend = BackendFile
	cfg.Storage.File.Path = t.TempDir()

	m, err := NewManager(common.NewSilentLogger(), cfg)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	defer m.Close()

	if _, ok := m.TableStore().(*FileStore); !ok {
		t.Errorf("backend %q produced %T, want *FileStore", cfg.Storage.Backend, m.TableStore())
	}
}

func TestNewManager_UnknownBackend(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Storage.Backend = "postgres"

	if _, err := NewManager(common.NewSilentLogger(), cfg); err == nil {
		t.Fatal("NewManager accepted an unknown backend")
	}
}
