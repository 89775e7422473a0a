package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Simkl      SimklConfig      `toml:"simkl"`
	TMDB       TMDBConfig       `toml:"tmdb"`
	Letterboxd LetterboxdConfig `toml:"letterboxd"`
	Sync       SyncConfig       `toml:"sync"`
	Database   DatabaseConfig   `toml:"database"`
}

// SimklConfig contains Simkl API credentials.
type SimklConfig struct {
	ClientID string `toml:"client_id"`
	BaseURL  string `toml:"base_url"`
}

// TMDBConfig contains TMDB API credentials and pacing.
type TMDBConfig struct {
	APIKey            string  `toml:"api_key"`
	BaseURL           string  `toml:"base_url"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// LetterboxdConfig contains settings for the review scraper.
type LetterboxdConfig struct {
	BaseURL    string `toml:"base_url"`
	MaxReviews int    `toml:"max_reviews"`
}

// SyncConfig contains import defaults.
type SyncConfig struct {
	HistoryPath    string        `toml:"history_path"`
	WatchlistPath  string        `toml:"watchlist_path"`
	WatchlistLabel string        `toml:"watchlist_label"`
	SettleDelay    time.Duration `toml:"settle_delay"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys absent from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, os.ErrExist)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ValidateSimkl reports whether Simkl credentials were filled in.
func (c *Config) ValidateSimkl() error {
	if isPlaceholder(c.Simkl.ClientID) {
		return fmt.Errorf("%w: simkl.client_id", ErrMissingCredentials)
	}
	if c.Simkl.BaseURL == "" {
		return fmt.Errorf("%w: simkl.base_url is empty", ErrInvalidConfig)
	}
	return nil
}

// ValidateTMDB reports whether TMDB credentials were filled in.
func (c *Config) ValidateTMDB() error {
	if isPlaceholder(c.TMDB.APIKey) {
		return fmt.Errorf("%w: tmdb.api_key", ErrMissingCredentials)
	}
	if c.TMDB.BaseURL == "" {
		return fmt.Errorf("%w: tmdb.base_url is empty", ErrInvalidConfig)
	}
	return nil
}

// isPlaceholder matches empty values and the "your_..." values shipped in the example config.
func isPlaceholder(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.HasPrefix(v, "your_")
}
