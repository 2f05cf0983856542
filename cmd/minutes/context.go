package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"minutes/internal/api"
	"minutes/internal/config"
	"minutes/internal/recordaccess"
	"minutes/internal/store"
)

// probeTimeout bounds the daemon liveness check before falling back to the store.
const probeTimeout = 2 * time.Second

type commandContext struct {
	configFlag *string
	groupFlag  *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error
}

func newCommandContext(configFlag, groupFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		groupFlag:  groupFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// group returns the --group flag value; empty means the daemon default.
func (c *commandContext) group() string {
	if c.groupFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.groupFlag)
}

// resolvedGroup returns the explicit group or the configured default.
func (c *commandContext) resolvedGroup() string {
	if group := c.group(); group != "" {
		return group
	}
	if cfg := c.configValue(); cfg != nil {
		return cfg.Pipeline.DefaultGroup
	}
	return ""
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) apiClient() (*api.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	client, err := api.NewClient(cfg.API.Bind, cfg.API.Token)
	if err != nil {
		return nil, wrapAPIError(err, cfg.API.Bind)
	}
	return client, nil
}

// withClient runs fn against the daemon API and rewrites connection errors
// into operator hints.
func (c *commandContext) withClient(fn func(*api.Client) error) error {
	client, err := c.apiClient()
	if err != nil {
		return err
	}
	if err := fn(client); err != nil {
		return wrapAPIError(err, c.configValue().API.Bind)
	}
	return nil
}

// dialDaemon returns a client only when the daemon answers a status probe.
func (c *commandContext) dialDaemon(ctx context.Context) (*api.Client, error) {
	client, err := c.apiClient()
	if err != nil {
		return nil, err
	}
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if _, err := client.Status(probeCtx); err != nil {
		return nil, err
	}
	return client, nil
}

// openRecords returns daemon-backed record access, or direct store access
// when the daemon is not reachable.
func (c *commandContext) openRecords(cmd *cobra.Command) (recordaccess.Session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return recordaccess.Session{}, err
	}
	return recordaccess.OpenWithFallback(
		func() (*api.Client, error) { return c.dialDaemon(cmd.Context()) },
		func() (*store.Store, error) { return store.Open(cfg) },
		cfg.Pipeline.DefaultGroup,
	)
}

func wrapAPIError(err error, bind string) error {
	if err == nil {
		return nil
	}
	var apiErr *api.Error
	switch {
	case errors.As(err, &apiErr) && apiErr.StatusCode == 401:
		return errors.New("daemon rejected the request: check api.token or MINUTES_API_TOKEN")
	case errors.As(err, &apiErr):
		return apiErr
	case api.IsUnavailable(err):
		return fmt.Errorf("connect to daemon at %s: not reachable; start it with `minutes start`", strings.TrimSpace(bind))
	default:
		return err
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
