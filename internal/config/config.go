// ABOUTME: Application configuration locating the data directory and vault root
// ABOUTME: Stored as JSON under the XDG config directory with ~ expansion for user paths

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harper/feedvault/internal/mdutil"
)

// Config stores feedvault configuration.
type Config struct {
	// DataDir holds settings.yaml and the article state database.
	// Supports ~ expansion. Defaults to ~/.local/share/feedvault.
	DataDir string `json:"data_dir,omitempty"`

	// VaultDir is the document tree feed articles are written into.
	// Supports ~ expansion. Defaults to <DataDir>/vault.
	VaultDir string `json:"vault_dir,omitempty"`
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return defaultDataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetVaultDir returns the configured vault directory with ~ expanded.
func (c *Config) GetVaultDir() string {
	if c.VaultDir == "" {
		return filepath.Join(c.GetDataDir(), "vault")
	}
	return ExpandPath(c.VaultDir)
}

// SettingsPath returns the feed registry path inside the data directory.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.GetDataDir(), "settings.yaml")
}

// StatePath returns the article state database path inside the data directory.
func (c *Config) StatePath() string {
	return filepath.Join(c.GetDataDir(), "state.db")
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "feedvault", "config.json")
}

// Load reads config from disk, writing defaults on first run.
func Load() (*Config, error) {
	path := GetConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := &Config{}
			if saveErr := cfg.Save(); saveErr != nil {
				fmt.Fprintf(os.Stderr, "warning: could not save default config: %v\n", saveErr)
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return mdutil.AtomicWrite(path, data)
}

func defaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "feedvault")
}
