package database

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// FileName is the preference database file inside the data directory
const FileName = "preferences.db"

// Config holds the preference database options
type Config struct {
	Path            string        `yaml:"path"`            // Database file path, ":memory:" for tests
	JournalMode     string        `yaml:"journalMode"`     // SQLite journal mode (WAL, DELETE, etc.)
	SynchronousMode string        `yaml:"synchronousMode"` // SQLite synchronous mode (FULL, NORMAL, OFF)
	BusyTimeout     int           `yaml:"busyTimeout"`     // SQLite busy timeout in milliseconds
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"` // Maximum connection lifetime
}

// DefaultConfig returns the production settings for a database stored in dataDir
func DefaultConfig(dataDir string) *Config {
	return &Config{
		Path:            filepath.Join(dataDir, FileName),
		JournalMode:     "WAL",
		SynchronousMode: "NORMAL",
		BusyTimeout:     5000,
		ConnMaxLifetime: time.Hour,
	}
}

// TestConfig returns an in-memory configuration
func TestConfig() *Config {
	return &Config{
		Path:            ":memory:",
		JournalMode:     "MEMORY",
		SynchronousMode: "OFF",
		BusyTimeout:     1000,
	}
}

// ConfigForEnvironment picks the database settings for a shell environment
func ConfigForEnvironment(env, dataDir string) *Config {
	if env == "test" {
		return TestConfig()
	}
	return DefaultConfig(dataDir)
}

// IsInMemory reports whether the database lives only in memory
func (c *Config) IsInMemory() bool {
	return c.Path == ":memory:" || strings.Contains(c.Path, "mode=memory")
}

// Validate checks the configuration for obviously broken values
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("database path is required")
	}
	switch strings.ToUpper(c.JournalMode) {
	case "WAL", "DELETE", "TRUNCATE", "PERSIST", "MEMORY", "OFF":
	default:
		return fmt.Errorf("invalid journal mode %q", c.JournalMode)
	}
	switch strings.ToUpper(c.SynchronousMode) {
	case "OFF", "NORMAL", "FULL", "EXTRA":
	default:
		return fmt.Errorf("invalid synchronous mode %q", c.SynchronousMode)
	}
	if c.BusyTimeout < 0 {
		return fmt.Errorf("busy timeout must not be negative")
	}
	return nil
}

// GetConnectionString builds the go-sqlite3 DSN
func (c *Config) GetConnectionString() string {
	values := url.Values{}
	values.Set("_journal_mode", c.JournalMode)
	values.Set("_synchronous", c.SynchronousMode)
	values.Set("_busy_timeout", fmt.Sprintf("%d", c.BusyTimeout))

	// Escape only the characters that would break query string parsing
	path := c.Path
	if strings.ContainsAny(path, "?&") {
		path = strings.ReplaceAll(path, "?", "%3F")
		path = strings.ReplaceAll(path, "&", "%26")
	}

	return path + "?" + values.Encode()
}
