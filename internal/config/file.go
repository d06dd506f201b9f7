package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file structure.
// Pointer fields distinguish "unset" from an explicit zero value.
type FileConfig struct {
	Port                    string  `toml:"port"`
	APIKey                  string  `toml:"api_key"`
	BaseURL                 string  `toml:"base_url"`
	BetaHeader              string  `toml:"beta_header"`
	RoutePrefix             string  `toml:"route_prefix"`
	DefaultModel            string  `toml:"default_model"`
	DefaultMaxTokens        *int    `toml:"default_max_tokens"`
	LogLevel                string  `toml:"log_level"`
	LogFormat               string  `toml:"log_format"`
	EnableMetrics           *bool   `toml:"enable_metrics"`
	CountTokens             *bool   `toml:"count_tokens"`
	RequestLogDB            string  `toml:"request_log_db"`
	RequestLogRetentionDays *int    `toml:"request_log_retention_days"`
	RequestLogPruneSchedule *string `toml:"request_log_prune_schedule"`
}

// ConfigPath returns the path to the config file (~/.openai-relay/config.toml).
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.toml")
}

// LoadFile loads configuration from the TOML file at path, or from
// ConfigPath when path is empty.
// Returns an empty FileConfig if the default file doesn't exist; an
// explicitly named file must exist.
func LoadFile(path string) (*FileConfig, error) {
	cfg := &FileConfig{}

	explicit := path != ""
	if !explicit {
		path = ConfigPath()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) && !explicit {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// EnsureConfigFile creates a default config file with commented examples if none exists.
func EnsureConfigFile() error {
	path := ConfigPath()

	// If config already exists, do nothing
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := EnsureDataDir(); err != nil {
		return err
	}

	defaultConfig := fmt.Sprintf(`# openai-relay configuration
# Environment variables take precedence over values in this file.

# port = "3000"
# api_key = "sk-..."                      # prefer OPENAI_API_KEY
# base_url = "https://api.openai.com/v1"
# beta_header = "assistants=v2"
# route_prefix = "/api/openai/v1"

# Chat completion defaults
# default_model = "gpt-4o-mini"
# default_max_tokens = 10

# log_level = "info"                      # debug, info, warn, error
# log_format = "text"                     # text, json
# enable_metrics = true
# count_tokens = true

# Request journal (disabled when empty)
# request_log_db = %q
# request_log_retention_days = 30
# request_log_prune_schedule = "@daily"
`, DefaultDBPath())

	return os.WriteFile(path, []byte(defaultConfig), 0600)
}
