package tool

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/moyoez/cutqueue/types"
)

func TestLoadConfigWritesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend == "" || cfg.PollIntervalMs != int(DefaultPollInterval/time.Millisecond) {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected the default config to be written: %v", err)
	}
	if !strings.Contains(string(data), "backend:") {
		t.Errorf("Default config misses the backend key:\n%s", data)
	}
}

func TestLoadConfigKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "backend: http://gpu-box:9000/\npollIntervalMs: -1\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend != "http://gpu-box:9000" {
		t.Errorf("Expected the trailing slash to be trimmed, got %q", cfg.Backend)
	}
	if cfg.UploadPath != "/api/upload" {
		t.Errorf("Expected the default upload path, got %q", cfg.UploadPath)
	}
	if PollInterval(&cfg) != DefaultPollInterval {
		t.Errorf("Expected an invalid interval to fall back, got %v", PollInterval(&cfg))
	}
}

func TestLoadConfigRejectsEmptyBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("backend: \"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected an empty backend to be rejected")
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := defaultConfig()
	ApplyFlagOverrides(&cfg, types.Config{UseBackend: "http://other:1", UsePollInterval: 500})
	if cfg.Backend != "http://other:1" || PollInterval(&cfg) != 500*time.Millisecond {
		t.Errorf("Overrides not applied: %+v", cfg)
	}
	if cfg.Listen != DefaultListen {
		t.Errorf("Unset overrides must keep the config value, got %q", cfg.Listen)
	}
	if GetCurrentConfig().Backend != "http://other:1" {
		t.Error("Expected the effective config to be updated")
	}
}
