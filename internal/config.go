package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Library LibraryConfig     `yaml:"library"`
	Tracker TrackerConfig     `yaml:"tracker"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Library.Validate(); err != nil {
		return fmt.Errorf("library: %w", err)
	}
	if err := c.Tracker.Validate(); err != nil {
		return fmt.Errorf("tracker: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// SSEHeartbeat is how often idle event streams are pinged.
	SSEHeartbeat time.Duration `yaml:"sse_heartbeat"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.ShutdownTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.SSEHeartbeat, validation.Min(time.Duration(0))),
	)
}

// LibraryConfig holds the path to the comic library directory.
type LibraryConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the library configuration.
func (c *LibraryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// TrackerConfig controls the reading progress file.
//
// When EnableWriting is false the tracker is loaded and served but never
// modified or saved.
type TrackerConfig struct {
	Path          string `yaml:"path"`
	EnableWriting bool   `yaml:"enable_writing"`
}

// Validate validates the tracker configuration.
func (c *TrackerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds the search mirror database path. An empty path
// disables the mirror; search then matches comic names in memory.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Enabled reports whether the search mirror should be opened.
func (c *SQLiteConfig) Enabled() bool { return c.Path != "" }

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port:            8080,
				ShutdownTimeout: 10 * time.Second,
				SSEHeartbeat:    30 * time.Second,
			},
		},
		Library: LibraryConfig{
			Path: "./library",
		},
		Tracker: TrackerConfig{
			Path: "./progress.json",
		},
		SQLite: SQLiteConfig{
			Path: "./marble.db",
		},
	}
}
