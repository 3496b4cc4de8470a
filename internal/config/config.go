// Package config loads and saves ecotrace configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all ecotrace configuration.
type Config struct {
	General   GeneralConfig   `toml:"general"`
	Server    ServerConfig    `toml:"server"`
	Storage   StorageConfig   `toml:"storage"`
	Carbon    CarbonConfig    `toml:"carbon"`
	Optimizer OptimizerConfig `toml:"optimizer"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DefaultDays  int    `toml:"default_days"`
	DefaultLimit int    `toml:"default_limit"`
	AccountID    string `toml:"account_id,omitempty"`
}

// ServerConfig holds the portal HTTP server settings.
type ServerConfig struct {
	Addr       string  `toml:"addr"`
	RatePerSec float64 `toml:"rate_per_sec"`
	RateBurst  int     `toml:"rate_burst"`
}

// StorageConfig holds receipt store settings.
type StorageConfig struct {
	DBPath string `toml:"db_path,omitempty"`
}

// CarbonConfig holds emissions conversion settings.
type CarbonConfig struct {
	GridIntensity float64 `toml:"grid_intensity_g_per_kwh"`
}

// OptimizerConfig holds prompt optimizer settings.
type OptimizerConfig struct {
	DefaultStrategy string `toml:"default_strategy"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		General: GeneralConfig{
			DefaultDays:  30,
			DefaultLimit: 50,
		},
		Server: ServerConfig{
			Addr:       "127.0.0.1:8686",
			RatePerSec: 10,
			RateBurst:  30,
		},
		Carbon: CarbonConfig{
			GridIntensity: 350,
		},
		Optimizer: OptimizerConfig{
			DefaultStrategy: "balanced",
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ecotrace")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "ecotrace")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "ecotrace")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "ecotrace")
}

// DefaultDBPath returns the default receipt database location.
func DefaultDBPath() string {
	return filepath.Join(DataDir(), "receipts.db")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(Path(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// GetAccountID returns the account id from the ECOTRACE_ACCOUNT env var or
// the config, in that order. The id is an opaque handle resolved by the
// surrounding account system; nothing here authenticates it.
func GetAccountID(cfg Config) string {
	if id := os.Getenv("ECOTRACE_ACCOUNT"); id != "" {
		return id
	}
	return cfg.General.AccountID
}

// DBPath returns the configured database path, falling back to the default.
func DBPath(cfg Config) string {
	if cfg.Storage.DBPath != "" {
		return cfg.Storage.DBPath
	}
	return DefaultDBPath()
}
