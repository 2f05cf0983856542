package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAPI()
	if err := c.normalizeStore(); err != nil {
		return err
	}
	if err := c.normalizeEngine(); err != nil {
		return err
	}
	c.normalizePipeline()
	c.normalizeWorkflow()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.StateDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	c.API.Token = strings.TrimSpace(c.API.Token)
	if c.API.Token == "" {
		if value, ok := os.LookupEnv("MINUTES_API_TOKEN"); ok {
			c.API.Token = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeStore() error {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case "", "sqlite3":
		c.Store.Driver = StoreDriverSQLite
	case "postgresql", "pgx":
		c.Store.Driver = StoreDriverPostgres
	}
	c.Store.DSN = strings.TrimSpace(c.Store.DSN)
	if c.Store.DSN == "" {
		if value, ok := os.LookupEnv("MINUTES_STORE_DSN"); ok {
			c.Store.DSN = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		c.Store.Path = filepath.Join(c.Paths.StateDir, defaultStoreFile)
	}
	var err error
	if c.Store.Path, err = expandPath(c.Store.Path); err != nil {
		return fmt.Errorf("store.path: %w", err)
	}
	if c.Store.ListLimit <= 0 {
		c.Store.ListLimit = defaultListLimit
	}
	if c.Store.MaxListLimit <= 0 {
		c.Store.MaxListLimit = defaultMaxListLimit
	}
	return nil
}

func (c *Config) normalizeEngine() error {
	command := make([]string, 0, len(c.Engine.Command))
	for _, part := range c.Engine.Command {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			command = append(command, trimmed)
		}
	}
	c.Engine.Command = command
	if strings.TrimSpace(c.Engine.WorkDir) != "" {
		var err error
		if c.Engine.WorkDir, err = expandPath(c.Engine.WorkDir); err != nil {
			return fmt.Errorf("engine.work_dir: %w", err)
		}
	}
	c.Engine.DefaultModel = strings.ToLower(strings.TrimSpace(c.Engine.DefaultModel))
	if c.Engine.DefaultModel == "" {
		c.Engine.DefaultModel = defaultEngineModel
	}
	return nil
}

func (c *Config) normalizePipeline() {
	c.Pipeline.DefaultGroup = strings.TrimSpace(c.Pipeline.DefaultGroup)
	if c.Pipeline.DefaultGroup == "" {
		c.Pipeline.DefaultGroup = defaultGroup
	}
	c.Pipeline.DefaultLanguage = strings.ToLower(strings.TrimSpace(c.Pipeline.DefaultLanguage))
	if c.Pipeline.DefaultLanguage == "" {
		c.Pipeline.DefaultLanguage = defaultLanguage
	}
	if c.Pipeline.EventJournal <= 0 {
		c.Pipeline.EventJournal = defaultEventJournal
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.WriteRetryAttempts <= 0 {
		c.Workflow.WriteRetryAttempts = defaultWriteRetryAttempts
	}
	if c.Workflow.WriteRetryBackoffMS < 0 {
		c.Workflow.WriteRetryBackoffMS = 0
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("MINUTES_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
	if c.Logging.StreamBuffer <= 0 {
		c.Logging.StreamBuffer = defaultLogStreamBuffer
	}
}
