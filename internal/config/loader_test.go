package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iltoga/businesssuite-desktop/internal/models"
)

func TestSaveAndLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")

	in := &models.Settings{PollIntervalMS: 5000, BridgePort: 9000}
	if err := SaveYAML(path, in); err != nil {
		t.Fatalf("SaveYAML: %v", err)
	}

	var out models.Settings
	if err := LoadYAML(path, &out); err != nil {
		t.Fatalf("LoadYAML: %v", err)
	}
	if out != *in {
		t.Errorf("round trip = %+v, want %+v", out, *in)
	}

	// The temp file used for the atomic write must not be left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("stale temp file %s left after save", e.Name())
		}
	}
}

func TestSaveYAMLReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")

	if err := SaveYAML(path, &models.Settings{BridgePort: 8576}); err != nil {
		t.Fatalf("SaveYAML: %v", err)
	}
	if err := SaveYAML(path, &models.Settings{BridgePort: 9999}); err != nil {
		t.Fatalf("SaveYAML overwrite: %v", err)
	}

	var out models.Settings
	if err := LoadYAML(path, &out); err != nil {
		t.Fatalf("LoadYAML: %v", err)
	}
	if out.BridgePort != 9999 {
		t.Errorf("bridge port after overwrite = %d, want 9999", out.BridgePort)
	}
}

func TestLoadYAMLOrDefault(t *testing.T) {
	dir := t.TempDir()

	// Missing file falls back to defaults.
	got, err := LoadYAMLOrDefault(filepath.Join(dir, "missing.yaml"), models.NewSettings)
	if err != nil {
		t.Fatalf("LoadYAMLOrDefault: %v", err)
	}
	if got.BridgePort != 8576 {
		t.Errorf("default bridge port = %d, want 8576", got.BridgePort)
	}

	// A corrupt file is an error, not a silent reset.
	corrupt := filepath.Join(dir, "corrupt.yaml")
	if err := os.WriteFile(corrupt, []byte("{not yaml"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadYAMLOrDefault(corrupt, models.NewSettings); err == nil {
		t.Error("corrupt file loaded without error")
	}
}
