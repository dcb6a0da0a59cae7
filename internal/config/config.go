package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all mailsweep configuration.
type Config struct {
	Scan     ScanConfig     `toml:"scan"`
	UI       UIConfig       `toml:"ui"`
	Accounts AccountsConfig `toml:"accounts"`
	Gmail    GmailConfig    `toml:"gmail"`
}

// GmailConfig holds Gmail OAuth credentials.
// Users can override the embedded defaults via config file or env vars.
type GmailConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// ScanConfig holds mailbox scan settings.
type ScanConfig struct {
	MaxEmails int    `toml:"max_emails"`
	BatchSize int    `toml:"batch_size"`
	Query     string `toml:"query"`
}

// UIConfig holds TUI display settings.
type UIConfig struct {
	DefaultView string `toml:"default_view"`
	Theme       string `toml:"theme"`
}

// AccountsConfig holds account selection settings.
type AccountsConfig struct {
	Default string `toml:"default"`
}

func defaults() Config {
	return Config{
		Scan: ScanConfig{
			MaxEmails: 1000,
			BatchSize: 100,
		},
		UI: UIConfig{
			DefaultView: "senders",
			Theme:       "default",
		},
	}
}

// Load reads config from path. If path is empty, returns defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// ConfigDir returns the mailsweep config directory path.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mailsweep")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "mailsweep")
}

// DataDir returns the mailsweep data directory path.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "mailsweep")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "mailsweep")
}
