package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// API contains the daemon HTTP listener configuration.
type API struct {
	Bind  string `toml:"bind"`
	Token string `toml:"token"`
}

// Store selects and configures the record store backend.
type Store struct {
	Driver       string `toml:"driver"`
	Path         string `toml:"path"`
	DSN          string `toml:"dsn"`
	ListLimit    int    `toml:"list_limit"`
	MaxListLimit int    `toml:"max_list_limit"`
}

// Engine configures the external speech-to-text collaborator.
type Engine struct {
	Command        []string `toml:"command"`
	WorkDir        string   `toml:"work_dir"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	MaxConcurrent  int      `toml:"max_concurrent"`
	DefaultModel   string   `toml:"default_model"`
}

// Pipeline holds ingress defaults.
type Pipeline struct {
	DefaultGroup    string `toml:"default_group"`
	DefaultLanguage string `toml:"default_language"`
	EventJournal    int    `toml:"event_journal"`
}

// Workflow contains daemon timing and retry settings.
type Workflow struct {
	WriteRetryAttempts   int `toml:"write_retry_attempts"`
	WriteRetryBackoffMS  int `toml:"write_retry_backoff_ms"`
	ShutdownGraceSeconds int `toml:"shutdown_grace_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Completed      bool   `toml:"completed"`
	Failures       bool   `toml:"failures"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
	StreamBuffer  int    `toml:"stream_buffer"`
}

// Config encapsulates all configuration values for minutes.
//
// Configuration sections by subsystem:
//   - Paths: state and log directories
//   - API: daemon listener and bearer token
//   - Store: record store driver (sqlite or postgres)
//   - Engine: speech-to-text command, deadline, and concurrency
//   - Pipeline: ingress defaults
//   - Workflow: retry and shutdown timing
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	API           API           `toml:"api"`
	Store         Store         `toml:"store"`
	Engine        Engine        `toml:"engine"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Store.Driver == StoreDriverSQLite {
		if err := os.MkdirAll(filepath.Dir(c.Store.Path), 0o755); err != nil {
			return fmt.Errorf("create store directory: %w", err)
		}
	}
	return nil
}

// LockPath returns the daemon single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "minutesd.lock")
}

// CurrentLogPath is the pointer the daemon keeps at its active log file.
func (c *Config) CurrentLogPath() string {
	return filepath.Join(c.Paths.LogDir, "minutes.log")
}

// PIDPath is where a running daemon records its process id.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.StateDir, "minutesd.pid")
}

// EngineBinary returns the executable the transcription command runs, or an
// empty string when no command is configured.
func (c *Config) EngineBinary() string {
	if len(c.Engine.Command) == 0 {
		return ""
	}
	return c.Engine.Command[0]
}
