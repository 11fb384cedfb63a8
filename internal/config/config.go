package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.leadline/config.toml.
type Config struct {
	// APIBaseURL is the backend root, e.g. https://ops.example.com.
	APIBaseURL string `toml:"api_base_url"`
	// Token authenticates every API and socket request.
	Token string `toml:"token"`
	// SenderID is the operator's user id on the backend.
	SenderID int64 `toml:"sender_id"`
	// DefaultWorkspace selects the workspace when --workspace is absent.
	DefaultWorkspace string `toml:"default_workspace"`
}

// Load reads config from the given path. Returns zero config and error if file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields every networked command needs.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("config: api_base_url is required")
	}
	if c.Token == "" {
		return fmt.Errorf("config: token is required")
	}
	if c.SenderID <= 0 {
		return fmt.Errorf("config: sender_id is required")
	}
	return nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
