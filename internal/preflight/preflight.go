package preflight

import (
	"context"
	"path/filepath"
	"strings"

	"minutes/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}

	if cfg.Store.Driver == config.StoreDriverSQLite && cfg.Store.Path != "" {
		dir := filepath.Dir(cfg.Store.Path)
		if dir != cfg.Paths.StateDir {
			results = append(results, CheckDirectoryAccess("Store directory", dir))
		}
	}

	if dir := strings.TrimSpace(cfg.Engine.WorkDir); dir != "" {
		results = append(results, CheckDirectoryAccess("Engine work directory", dir))
	}

	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		results = append(results, CheckNtfy(ctx, topic))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
