package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"minutes/internal/config"
	"minutes/internal/daemonctl"
)

const startWaitTimeout = 15 * time.Second

func stopGrace(cfg *config.Config) time.Duration {
	// the daemon drains in-flight work for its own grace period first
	return time.Duration(cfg.Workflow.ShutdownGraceSeconds)*time.Second + 5*time.Second
}

func (c *commandContext) launcher(logLevel string) func() error {
	return func() error {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("resolve executable: %w", err)
		}
		opts := daemonctl.LaunchOptions{LogLevel: logLevel}
		if c.configSeen {
			opts.ConfigPath = c.configPath
		}
		return daemonctl.Launch(exe, opts)
	}
}

func newStartCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			result, err := daemonctl.EnsureStarted(cmd.Context(), client, ctx.launcher(logLevel), startWaitTimeout)
			if err != nil {
				return fmt.Errorf("%w; see %s", err, cfg.CurrentLogPath())
			}
			verb := "already running"
			if result.Launched {
				verb = "started"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Daemon %s (pid %d)\n", verb, result.PID)
			return nil
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level for the launched daemon")
	return cmd
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the background daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			result, err := daemonctl.Stop(cmd.Context(), client, cfg.PIDPath(), stopGrace(cfg))
			out := cmd.OutOrStdout()
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(out, "Daemon is not running")
				return nil
			}
			if err != nil {
				return wrapAPIError(err, cfg.API.Bind)
			}
			if result.ForcedKill {
				fmt.Fprintf(out, "Daemon did not exit in time; killed pid %d\n", result.PID)
				return nil
			}
			fmt.Fprintf(out, "Daemon stopped (pid %d)\n", result.PID)
			return nil
		},
	}
}

func newRestartCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the background daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			result, err := daemonctl.Restart(cmd.Context(), client, cfg.PIDPath(), ctx.launcher(logLevel), stopGrace(cfg), startWaitTimeout)
			if err != nil {
				return wrapAPIError(err, cfg.API.Bind)
			}
			out := cmd.OutOrStdout()
			if result.WasRunning {
				fmt.Fprintf(out, "Daemon stopped (pid %d)\n", result.Stop.PID)
			}
			fmt.Fprintf(out, "Daemon started (pid %d)\n", result.Start.PID)
			return nil
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level for the launched daemon")
	return cmd
}
