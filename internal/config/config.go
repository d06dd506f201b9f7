package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Defaults applied when neither the environment nor the config file set a value.
const (
	DefaultPort          = "3000"
	DefaultBaseURL       = "https://api.openai.com/v1"
	DefaultBetaHeader    = "assistants=v2"
	DefaultRoutePrefix   = "/api/openai/v1"
	DefaultModel         = "gpt-4o-mini"
	DefaultMaxTokens     = 10
	DefaultRetentionDays = 30
	DefaultPruneSchedule = "@daily"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
)

// Config holds application configuration loaded from environment and file.
// Priority: CLI flags → Env vars → config.toml → defaults
type Config struct {
	// ServerPort is the address to bind the server to (e.g., ":3000")
	ServerPort string

	// APIKey is the upstream credential injected into every outbound call.
	// It must never be logged or echoed back to a caller.
	APIKey string

	// BaseURL is the upstream origin including its version prefix.
	BaseURL string

	// BetaHeader is the OpenAI-Beta value sent on thread, message and run calls.
	BetaHeader string

	// RoutePrefix is prepended to every proxied inbound path.
	RoutePrefix string

	// Chat completion defaults
	DefaultModel     string
	DefaultMaxTokens int

	LogLevel  string
	LogFormat string

	EnableMetrics bool
	CountTokens   bool

	// RequestLogDB is the request journal path; empty disables the journal.
	RequestLogDB            string
	RequestLogRetention     int
	RequestLogPruneSchedule string
}

// Load reads configuration from the file at path (or the default location
// when path is empty) and environment variables.
// Environment variables override file config values. The result is not
// validated; callers apply their own overrides first and then Validate.
func Load(path string) (*Config, error) {
	fileConfig, err := LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config file: %w", err)
	}

	maxTokens, err := getEnvIntOrFile("DEFAULT_MAX_TOKENS", fileConfig.DefaultMaxTokens, DefaultMaxTokens)
	if err != nil {
		return nil, err
	}
	retention, err := getEnvIntOrFile("REQUEST_LOG_RETENTION_DAYS", fileConfig.RequestLogRetentionDays, DefaultRetentionDays)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort:              NormalizePort(getEnvOrFile("PORT", fileConfig.Port, DefaultPort)),
		APIKey:                  getEnvOrFile("OPENAI_API_KEY", fileConfig.APIKey, ""),
		BaseURL:                 strings.TrimRight(getEnvOrFile("OPENAI_BASE_URL", fileConfig.BaseURL, DefaultBaseURL), "/"),
		BetaHeader:              getEnvOrFile("OPENAI_BETA", fileConfig.BetaHeader, DefaultBetaHeader),
		RoutePrefix:             strings.TrimRight(getEnvOrFile("ROUTE_PREFIX", fileConfig.RoutePrefix, DefaultRoutePrefix), "/"),
		DefaultModel:            getEnvOrFile("DEFAULT_MODEL", fileConfig.DefaultModel, DefaultModel),
		DefaultMaxTokens:        maxTokens,
		LogLevel:                getEnvOrFile("LOG_LEVEL", fileConfig.LogLevel, DefaultLogLevel),
		LogFormat:               getEnvOrFile("LOG_FORMAT", fileConfig.LogFormat, DefaultLogFormat),
		EnableMetrics:           getEnvBoolOrFile("ENABLE_METRICS", fileConfig.EnableMetrics, true),
		CountTokens:             getEnvBoolOrFile("COUNT_TOKENS", fileConfig.CountTokens, true),
		RequestLogDB:            ExpandHome(getEnvOrFile("REQUEST_LOG_DB", fileConfig.RequestLogDB, "")),
		RequestLogRetention:     retention,
		RequestLogPruneSchedule: getEnvOrPtrFile("REQUEST_LOG_PRUNE_SCHEDULE", fileConfig.RequestLogPruneSchedule, DefaultPruneSchedule),
	}

	return cfg, nil
}

// Validate checks values that cannot be corrected silently.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("base url %q must start with http:// or https://", c.BaseURL)
	}
	if c.RoutePrefix != "" && !strings.HasPrefix(c.RoutePrefix, "/") {
		return fmt.Errorf("route prefix %q must start with /", c.RoutePrefix)
	}
	if c.DefaultMaxTokens <= 0 {
		return fmt.Errorf("default max tokens must be positive, got %d", c.DefaultMaxTokens)
	}
	if c.RequestLogRetention < 0 {
		return fmt.Errorf("request log retention days must not be negative, got %d", c.RequestLogRetention)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log format %q must be text or json", c.LogFormat)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log level %q must be debug, info, warn or error", c.LogLevel)
	}
	return nil
}

// MaskedAPIKey returns a display-safe form of the credential.
func (c *Config) MaskedAPIKey() string {
	if c.APIKey == "" {
		return "(unset)"
	}
	if len(c.APIKey) <= 8 {
		return "****"
	}
	return c.APIKey[:3] + "..." + c.APIKey[len(c.APIKey)-4:]
}

// NormalizePort turns a bare port number into a listen address.
func NormalizePort(port string) string {
	if port == "" || strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

// getEnvOrFile returns env value, file value, or default (in priority order)
func getEnvOrFile(key, fileValue, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if fileValue != "" {
		return fileValue
	}
	return defaultValue
}

// getEnvOrPtrFile is getEnvOrFile for values where an explicit empty
// string in the file is meaningful.
func getEnvOrPtrFile(key string, fileValue *string, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	if fileValue != nil {
		return *fileValue
	}
	return defaultValue
}

// getEnvBoolOrFile returns env bool, file bool, or default (in priority order)
func getEnvBoolOrFile(key string, fileValue *bool, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	if fileValue != nil {
		return *fileValue
	}
	return defaultValue
}

// getEnvIntOrFile returns env int, file int, or default (in priority order)
func getEnvIntOrFile(key string, fileValue *int, defaultValue int) (int, error) {
	if value := os.Getenv(key); value != "" {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return n, nil
	}
	if fileValue != nil {
		return *fileValue, nil
	}
	return defaultValue, nil
}
