package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./simklx.db" {
			t.Errorf("expected database path ./simklx.db, got %s", config.Database.Path)
		}
		if config.Simkl.BaseURL != "https://api.simkl.com" {
			t.Errorf("expected simkl base URL https://api.simkl.com, got %s", config.Simkl.BaseURL)
		}
		if config.TMDB.BaseURL != "https://api.themoviedb.org/3" {
			t.Errorf("expected tmdb base URL, got %s", config.TMDB.BaseURL)
		}
		if config.Sync.SettleDelay != 5*time.Second {
			t.Errorf("expected settle delay 5s, got %v", config.Sync.SettleDelay)
		}
		if config.Sync.WatchlistLabel != "plantowatch" {
			t.Errorf("expected watchlist label plantowatch, got %s", config.Sync.WatchlistLabel)
		}
		if config.Letterboxd.MaxReviews != 20 {
			t.Errorf("expected 20 max reviews, got %d", config.Letterboxd.MaxReviews)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[simkl]
client_id = "test_client_id"

[tmdb]
api_key = "test_api_key"
requests_per_second = 2.5

[sync]
settle_delay = "250ms"

[database]
path = ""
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Simkl.ClientID != "test_client_id" {
			t.Errorf("expected client_id test_client_id, got %s", config.Simkl.ClientID)
		}
		if config.Simkl.BaseURL != "https://api.simkl.com" {
			t.Errorf("expected default base URL to survive partial config, got %s", config.Simkl.BaseURL)
		}
		if config.TMDB.RequestsPerSecond != 2.5 {
			t.Errorf("expected 2.5 requests per second, got %v", config.TMDB.RequestsPerSecond)
		}
		if config.Sync.SettleDelay != 250*time.Millisecond {
			t.Errorf("expected 250ms settle delay, got %v", config.Sync.SettleDelay)
		}
		if config.Database.Path != "" {
			t.Errorf("expected empty database path, got %s", config.Database.Path)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("LoadConfig invalid toml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[simkl\nclient_id ="), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestConfigValidation(t *testing.T) {
	t.Run("placeholder credentials are rejected", func(t *testing.T) {
		config := DefaultConfig()

		if err := config.ValidateSimkl(); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials for simkl, got %v", err)
		}
		if err := config.ValidateTMDB(); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials for tmdb, got %v", err)
		}
	})

	t.Run("filled credentials pass", func(t *testing.T) {
		config := DefaultConfig()
		config.Simkl.ClientID = "abc"
		config.TMDB.APIKey = "def"

		if err := config.ValidateSimkl(); err != nil {
			t.Errorf("unexpected simkl error: %v", err)
		}
		if err := config.ValidateTMDB(); err != nil {
			t.Errorf("unexpected tmdb error: %v", err)
		}
	})

	t.Run("empty base URL is invalid", func(t *testing.T) {
		config := DefaultConfig()
		config.Simkl.ClientID = "abc"
		config.Simkl.BaseURL = ""

		if err := config.ValidateSimkl(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
