package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"minutes/internal/api"
	"minutes/internal/config"
	"minutes/internal/preflight"
	"minutes/internal/store"
)

// statusSnapshot is what `minutes status` renders or prints as JSON.
type statusSnapshot struct {
	Daemon    api.DaemonStatus   `json:"daemon"`
	Preflight []preflight.Result `json:"preflight"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, dependency and record status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			snapshot, err := buildStatusSnapshot(cmd.Context(), ctx, cfg)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, snapshot)
			}
			renderStatus(newView(cmd.OutOrStdout()), snapshot)
			return nil
		},
	}
}

func buildStatusSnapshot(ctx context.Context, cmdCtx *commandContext, cfg *config.Config) (statusSnapshot, error) {
	snapshot := statusSnapshot{Preflight: preflight.RunAll(ctx, cfg)}
	if client, err := cmdCtx.dialDaemon(ctx); err == nil {
		status, err := client.Status(ctx)
		if err != nil {
			return snapshot, wrapAPIError(err, cfg.API.Bind)
		}
		snapshot.Daemon = status
		return snapshot, nil
	}

	st, err := store.Open(cfg)
	if err != nil {
		return snapshot, fmt.Errorf("open record store: %w", err)
	}
	defer st.Close()

	counts, err := st.Stats(ctx, "")
	if err != nil {
		return snapshot, err
	}
	recent, err := st.Recent(ctx, 10)
	if err != nil {
		return snapshot, err
	}
	daemon := api.DaemonStatus{
		StoreDriver:   st.Driver(),
		StoreLocation: st.Location(),
		LockFilePath:  cfg.LockPath(),
		DefaultGroup:  cfg.Pipeline.DefaultGroup,
		Counts:        api.FromStatusCounts(counts),
		Recent:        api.FromRecords(recent),
	}
	for _, dep := range preflight.CheckSystemDeps(cfg) {
		daemon.Dependencies = append(daemon.Dependencies, api.DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		})
	}
	snapshot.Daemon = daemon
	return snapshot, nil
}

func renderStatus(v *view, snapshot statusSnapshot) {
	d := snapshot.Daemon

	v.heading("System Status")
	if d.Running {
		v.status("Daemon", toneOK, fmt.Sprintf("Running (pid %d, up %s)", d.PID, formatUptime(d.UptimeSeconds)))
		v.status("Active work", toneInfo, strconv.Itoa(d.Active))
	} else {
		v.status("Daemon", toneError, "Not running")
	}
	v.status("Store", toneInfo, fmt.Sprintf("%s (%s)", d.StoreDriver, d.StoreLocation))
	v.status("Default group", toneInfo, d.DefaultGroup)
	for _, result := range snapshot.Preflight {
		t := toneOK
		if !result.Passed {
			t = toneError
		}
		v.status(result.Name, t, result.Detail)
	}

	v.section("Dependencies")
	for _, line := range dependencyLines(d.Dependencies, v.color) {
		v.println(line)
	}

	v.section("Record Status")
	rows := buildCountRows(d.Counts)
	if len(rows) == 0 {
		v.println("No records")
		return
	}
	v.table([]string{"Status", "Count"}, rows, 1)

	if len(d.Recent) > 0 {
		v.section("Recent Activity")
		fmt.Fprint(v.out, renderRecordTable(d.Recent))
	}
}

func dependencyLines(deps []api.DependencyStatus, color bool) []string {
	lines := make([]string, 0, len(deps)+1)
	var missing []string
	for _, dep := range deps {
		if dep.Available {
			message := "Ready"
			if dep.Command != "" {
				message = fmt.Sprintf("Ready (command: %s)", dep.Command)
			}
			lines = append(lines, statusRow(dep.Name, toneOK, message, color))
			continue
		}
		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		t := toneError
		if dep.Optional {
			t = toneWarn
		} else {
			missing = append(missing, dep.Name)
		}
		lines = append(lines, statusRow(dep.Name, t, detail, color))
	}
	if len(missing) > 0 {
		lines = append(lines, statusRow("Missing dependencies", toneWarn,
			strings.Join(missing, ", ")+" (check engine.command in config.toml)", color))
	}
	return lines
}

// buildCountRows lists non-zero status counts in lifecycle order.
func buildCountRows(counts map[string]int) [][]string {
	var rows [][]string
	for _, key := range api.SortedCountKeys(counts) {
		if counts[key] == 0 {
			continue
		}
		rows = append(rows, []string{key, strconv.Itoa(counts[key])})
	}
	return rows
}

func formatUptime(seconds int64) string {
	if seconds <= 0 {
		return "0s"
	}
	return (time.Duration(seconds) * time.Second).String()
}
