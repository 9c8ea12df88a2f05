// Package config loads coinwatch settings from code defaults, an optional
// YAML file and COINWATCH_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/temidaradev/coinwatch/internal/coin"
	"github.com/temidaradev/coinwatch/internal/source"
	"github.com/temidaradev/coinwatch/internal/tracker"
)

const (
	AppName           = "coinwatch"
	EnvPrefix         = "COINWATCH"
	FavoritesFile     = "favorite_tickers.json"
	ConfigFile        = "config.yaml"
	DefaultStatusAddr = "127.0.0.1:9273"
)

type Config struct {
	Ticker          string `yaml:"ticker" envconfig:"TICKER"`
	IntervalSeconds int    `yaml:"interval_seconds" envconfig:"INTERVAL_SECONDS"`
	FavoritesPath   string `yaml:"favorites_path" envconfig:"FAVORITES_PATH"`

	API    APIConfig    `yaml:"api" envconfig:"API"`
	Log    LogConfig    `yaml:"log" envconfig:"LOG"`
	Status StatusConfig `yaml:"status" envconfig:"STATUS"`
	Widget WidgetConfig `yaml:"widget" envconfig:"WIDGET"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url" envconfig:"BASE_URL"`
	Key     string        `yaml:"key" envconfig:"KEY"`
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

type LogConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`
	Format string `yaml:"format" envconfig:"FORMAT"`
	Output string `yaml:"output" envconfig:"OUTPUT"`
}

// StatusConfig controls the local status server used by desktop panels.
type StatusConfig struct {
	Enabled          bool   `yaml:"enabled" envconfig:"ENABLED"`
	Addr             string `yaml:"addr" envconfig:"ADDR"`
	MetricsNamespace string `yaml:"metrics_namespace" envconfig:"METRICS_NAMESPACE"`
	MetricsSubsystem string `yaml:"metrics_subsystem" envconfig:"METRICS_SUBSYSTEM"`
}

type WidgetConfig struct {
	Width    int     `yaml:"width" envconfig:"WIDTH"`
	Height   int     `yaml:"height" envconfig:"HEIGHT"`
	FontSize float64 `yaml:"font_size" envconfig:"FONT_SIZE"`
	Floating bool    `yaml:"floating" envconfig:"FLOATING"`
}

func Default() Config {
	return Config{
		Ticker:          "bitcoin",
		IntervalSeconds: tracker.DefaultIntervalSeconds,
		FavoritesPath:   filepath.Join(Dir(), FavoritesFile),
		API: APIConfig{
			BaseURL: source.DefaultBaseURL,
			Timeout: source.DefaultTimeout,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Status: StatusConfig{
			Addr:             DefaultStatusAddr,
			MetricsNamespace: AppName,
			MetricsSubsystem: "price",
		},
		Widget: WidgetConfig{
			Width:    320,
			Height:   64,
			FontSize: 16,
			Floating: true,
		},
	}
}

// Dir is the per-user config directory, falling back to the working
// directory when the OS does not provide one.
func Dir() string {
	root, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(root, AppName)
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	return filepath.Join(Dir(), ConfigFile)
}

// Load builds the configuration. An empty path means DefaultPath, which
// may be absent; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := coin.Parse(c.Ticker); err != nil {
		return fmt.Errorf("invalid ticker: %w", err)
	}
	if c.IntervalSeconds < tracker.MinIntervalSeconds || c.IntervalSeconds > tracker.MaxIntervalSeconds {
		return fmt.Errorf("%w: interval_seconds=%d", tracker.ErrIntervalRange, c.IntervalSeconds)
	}
	if c.FavoritesPath == "" {
		return errors.New("favorites_path must not be empty")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api timeout must be positive, got %s", c.API.Timeout)
	}
	if c.Widget.Width <= 0 || c.Widget.Height <= 0 || c.Widget.FontSize <= 0 {
		return fmt.Errorf("invalid widget size %dx%d font %v", c.Widget.Width, c.Widget.Height, c.Widget.FontSize)
	}
	return nil
}
