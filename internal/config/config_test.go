// ABOUTME: Tests for configuration path resolution
// ABOUTME: Verifies ~ expansion and directory defaults

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", home},
		{"~/vault", filepath.Join(home, "vault")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetDataDirDefault(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	cfg := &Config{}
	want := "/tmp/xdg-data/feedvault"
	if got := cfg.GetDataDir(); got != want {
		t.Errorf("GetDataDir() = %q, want %q", got, want)
	}
}

func TestGetVaultDirDefaultsUnderDataDir(t *testing.T) {
	cfg := &Config{DataDir: "/data"}
	if got := cfg.GetVaultDir(); got != "/data/vault" {
		t.Errorf("GetVaultDir() = %q, want %q", got, "/data/vault")
	}

	cfg.VaultDir = "~/Documents/vault"
	home, _ := os.UserHomeDir()
	want := filepath.Join(home, "Documents", "vault")
	if got := cfg.GetVaultDir(); got != want {
		t.Errorf("GetVaultDir() = %q, want %q", got, want)
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := &Config{DataDir: "/data"}
	if got := cfg.SettingsPath(); got != "/data/settings.yaml" {
		t.Errorf("SettingsPath() = %q, want %q", got, "/data/settings.yaml")
	}
	if got := cfg.StatePath(); got != "/data/state.db" {
		t.Errorf("StatePath() = %q, want %q", got, "/data/state.db")
	}
}
