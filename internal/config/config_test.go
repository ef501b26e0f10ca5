package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/l1jgo/simsync/internal/settings"
)

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "simsync.toml")
	src := `
[demo]
step_frequency = 120
iterations = 10
contacts = true
render_mode = "wireframe"

[frame]
rate = "8ms"

[bridge]
enabled = true

[logging]
level = "debug"
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Demo.StepFrequency != 120 || cfg.Demo.Iterations != 10 || !cfg.Demo.Contacts {
		t.Errorf("demo section not applied: %+v", cfg.Demo)
	}
	if cfg.Demo.RenderMode != "wireframe" {
		t.Errorf("render mode %q", cfg.Demo.RenderMode)
	}
	if cfg.Demo.MaxSubSteps != 20 || cfg.Demo.K != 1e6 {
		t.Errorf("defaults lost: %+v", cfg.Demo)
	}
	if cfg.Frame.Rate != 8*time.Millisecond {
		t.Errorf("frame rate %v", cfg.Frame.Rate)
	}
	if !cfg.Bridge.Enabled || cfg.Bridge.BindAddress != "127.0.0.1:7002" {
		t.Errorf("bridge %+v", cfg.Bridge)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Errorf("logging %+v", cfg.Logging)
	}
}

func TestLoadRejectsStartupFrequency(t *testing.T) {
	path := filepath.Join(t.TempDir(), "simsync.toml")
	if err := os.WriteFile(path, []byte("[demo]\nstep_frequency = 50\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, settings.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestLoadOrDefaultMissing(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if cfg.Demo != settings.Defaults() {
		t.Errorf("expected default demo settings")
	}
}

func TestShippedConfigLoads(t *testing.T) {
	if _, err := Load(filepath.Join("..", "..", "config", "simsync.toml")); err != nil {
		t.Fatalf("shipped config: %v", err)
	}
}
