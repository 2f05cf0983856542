package config

import (
	"errors"
	"fmt"
	"net"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAPI() error {
	if _, _, err := net.SplitHostPort(c.API.Bind); err != nil {
		return fmt.Errorf("api.bind must be host:port: %w", err)
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Driver {
	case StoreDriverSQLite:
		if strings.TrimSpace(c.Store.Path) == "" {
			return errors.New("store.path must be set when store.driver is sqlite")
		}
	case StoreDriverPostgres:
		if c.Store.DSN == "" {
			return errors.New("store.dsn must be set when store.driver is postgres (or set MINUTES_STORE_DSN)")
		}
	default:
		return fmt.Errorf("store.driver: unsupported value %q", c.Store.Driver)
	}
	if c.Store.ListLimit > c.Store.MaxListLimit {
		return errors.New("store.list_limit must not exceed store.max_list_limit")
	}
	return nil
}

func (c *Config) validateEngine() error {
	if len(c.Engine.Command) == 0 {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("engine.command is required. Edit %s (create with 'minutes config init')", defaultPath)
	}
	if !slices.Contains(ModelHints, c.Engine.DefaultModel) {
		return fmt.Errorf("engine.default_model must be one of %s", strings.Join(ModelHints, ", "))
	}
	return ensurePositiveMap(map[string]int{
		"engine.timeout_seconds": c.Engine.TimeoutSeconds,
		"engine.max_concurrent":  c.Engine.MaxConcurrent,
	})
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"notifications.request_timeout":   c.Notifications.RequestTimeout,
		"workflow.shutdown_grace_seconds": c.Workflow.ShutdownGraceSeconds,
	}); err != nil {
		return err
	}
	if c.Workflow.WriteRetryAttempts > 10 {
		return errors.New("workflow.write_retry_attempts must be at most 10")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
