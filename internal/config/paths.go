package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DataDir returns the path to the openai-relay data directory.
// - Windows: %APPDATA%\openai-relay
// - Other OS: ~/.openai-relay
func DataDir() string {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "openai-relay")
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".openai-relay"
	}
	return filepath.Join(home, ".openai-relay")
}

// DefaultDBPath returns the suggested path for the request journal.
func DefaultDBPath() string {
	return filepath.Join(DataDir(), "requests.db")
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0700)
}
