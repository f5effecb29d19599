// Package config resolves client configuration from a config file and
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "PNEUMOSCAN"

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	ConfigDir string
}

// Load reads config.yaml from the config dir, if present, and applies
// PNEUMOSCAN_* environment overrides on top of the defaults.
func Load() (*Config, error) {
	dir, err := configDir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault("base_url", "http://localhost:8000")
	v.SetDefault("timeout_seconds", 30)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return &Config{
		BaseURL:   v.GetString("base_url"),
		Timeout:   time.Duration(v.GetInt("timeout_seconds")) * time.Second,
		ConfigDir: dir,
	}, nil
}

// CookiePath is the session cookie file.
func (c *Config) CookiePath() string {
	return filepath.Join(c.ConfigDir, "cookies.json")
}

// CachePath is the offline history snapshot database.
func (c *Config) CachePath() string {
	return filepath.Join(c.ConfigDir, "history.db")
}

// PreviewDir holds locally generated preview copies of staged scans.
func (c *Config) PreviewDir() string {
	return filepath.Join(c.ConfigDir, "previews")
}

// configDir returns the platform-specific config directory.
func configDir() (string, error) {
	// Allow override for testing
	if testDir := os.Getenv(envPrefix + "_CONFIG_DIR"); testDir != "" {
		return testDir, nil
	}

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", "pneumoscan"), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, "pneumoscan"), nil
	default: // linux and others
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configHome = filepath.Join(home, ".config")
		}
		return filepath.Join(configHome, "pneumoscan"), nil
	}
}
