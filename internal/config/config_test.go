package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/temidaradev/coinwatch/internal/tracker"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Ticker != "bitcoin" || cfg.IntervalSeconds != 60 {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
	if filepath.Base(cfg.FavoritesPath) != FavoritesFile {
		t.Errorf("Unexpected favorites path %s", cfg.FavoritesPath)
	}
	if cfg.Status.Enabled {
		t.Error("Status server should be off by default")
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeConfig(t, `
ticker: ethereum
interval_seconds: 120
api:
  timeout: 3s
log:
  level: debug
status:
  enabled: true
  addr: 127.0.0.1:9999
widget:
  width: 400
`)
	t.Setenv("COINWATCH_INTERVAL_SECONDS", "300")
	t.Setenv("COINWATCH_API_KEY", "demo")
	t.Setenv("COINWATCH_STATUS_ADDR", "127.0.0.1:8000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Ticker != "ethereum" {
		t.Errorf("Expected ticker from file, got %s", cfg.Ticker)
	}
	if cfg.IntervalSeconds != 300 {
		t.Errorf("Expected env override 300, got %d", cfg.IntervalSeconds)
	}
	if cfg.API.Timeout != 3*time.Second {
		t.Errorf("Expected 3s timeout, got %s", cfg.API.Timeout)
	}
	if cfg.API.Key != "demo" {
		t.Errorf("Expected api key from env, got %q", cfg.API.Key)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Errorf("Unexpected log config %+v", cfg.Log)
	}
	if !cfg.Status.Enabled || cfg.Status.Addr != "127.0.0.1:8000" {
		t.Errorf("Unexpected status config %+v", cfg.Status)
	}
	if cfg.Widget.Width != 400 || cfg.Widget.Height != 64 {
		t.Errorf("Unset widget fields should keep defaults: %+v", cfg.Widget)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Run("explicit path missing", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Error("Expected an error for a missing explicit config")
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		if _, err := Load(writeConfig(t, "ticker: [")); err == nil {
			t.Error("Expected a parse error")
		}
	})

	t.Run("interval out of range", func(t *testing.T) {
		_, err := Load(writeConfig(t, "interval_seconds: 10\n"))
		if !errors.Is(err, tracker.ErrIntervalRange) {
			t.Errorf("Expected ErrIntervalRange, got %v", err)
		}
	})

	t.Run("blank ticker", func(t *testing.T) {
		if _, err := Load(writeConfig(t, "ticker: \"  \"\n")); err == nil {
			t.Error("Expected an error for a blank ticker")
		}
	})

	t.Run("bad env value", func(t *testing.T) {
		t.Setenv("COINWATCH_INTERVAL_SECONDS", "soon")
		if _, err := Load(writeConfig(t, "ticker: bitcoin\n")); err == nil {
			t.Error("Expected an error for a non-numeric env value")
		}
	})
}
