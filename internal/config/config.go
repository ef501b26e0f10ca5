package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/l1jgo/simsync/internal/settings"
)

type Config struct {
	Demo      settings.Settings `toml:"demo"`
	Frame     FrameConfig       `toml:"frame"`
	Scenes    ScenesConfig      `toml:"scenes"`
	Bridge    BridgeConfig      `toml:"bridge"`
	Viewer    ViewerConfig      `toml:"viewer"`
	Profiling ProfilingConfig   `toml:"profiling"`
	Logging   LoggingConfig     `toml:"logging"`
}

type FrameConfig struct {
	Rate time.Duration `toml:"rate"` // headless frame period
}

type ScenesConfig struct {
	DataDir    string `toml:"data_dir"`    // YAML scene files
	ScriptsDir string `toml:"scripts_dir"` // Lua scene scripts
	Initial    int    `toml:"initial"`
}

type BridgeConfig struct {
	Enabled        bool   `toml:"enabled"`
	BindAddress    string `toml:"bind_address"`
	InQueueSize    int    `toml:"in_queue_size"`
	OutQueueSize   int    `toml:"out_queue_size"`
	MaxCmdsPerTick int    `toml:"max_cmds_per_tick"`
	PublishEvery   int    `toml:"publish_every"` // frames between snapshots
}

type ViewerConfig struct {
	Enabled   bool   `toml:"enabled"`
	Width     int    `toml:"width"`
	Height    int    `toml:"height"`
	Title     string `toml:"title"`
	TargetFPS int    `toml:"target_fps"`
}

type ProfilingConfig struct {
	Driver     string `toml:"driver"` // "sqlite", "postgres", or "" to disable
	DSN        string `toml:"dsn"`
	MaxConns   int    `toml:"max_conns"`
	FlushEvery int    `toml:"flush_every"` // frames
	BatchSize  int    `toml:"batch_size"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Load decodes path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Demo.ValidateStartup(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Defaults(), nil
	}
	return cfg, err
}

func Defaults() *Config {
	return &Config{
		Demo: settings.Defaults(),
		Frame: FrameConfig{
			Rate: 16 * time.Millisecond,
		},
		Scenes: ScenesConfig{
			DataDir:    "config/scenes",
			ScriptsDir: "config/scripts",
		},
		Bridge: BridgeConfig{
			BindAddress:    "127.0.0.1:7002",
			InQueueSize:    64,
			OutQueueSize:   16,
			MaxCmdsPerTick: 32,
			PublishEvery:   2,
		},
		Viewer: ViewerConfig{
			Width:     1280,
			Height:    720,
			Title:     "simview",
			TargetFPS: 60,
		},
		Profiling: ProfilingConfig{
			DSN:        "profile.db",
			MaxConns:   4,
			FlushEvery: 60,
			BatchSize:  512,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
