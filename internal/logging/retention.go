package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Retention selects the per-run daemon log files eligible for pruning.
type Retention struct {
	Dir     string
	Pattern string
	// Keep is never removed, typically the file the daemon is writing.
	Keep   string
	MaxAge time.Duration
}

// PruneLogs removes files in r.Dir matching r.Pattern whose modification time
// is older than r.MaxAge, and returns how many were removed. A non-positive
// MaxAge disables pruning.
func PruneLogs(logger *slog.Logger, r Retention) int {
	if r.MaxAge <= 0 || r.Dir == "" {
		return 0
	}
	if logger == nil {
		logger = NewNop()
	}
	matches, err := filepath.Glob(filepath.Join(r.Dir, r.Pattern))
	if err != nil {
		return 0
	}
	keep := absPath(r.Keep)
	cutoff := time.Now().Add(-r.MaxAge)
	removed := 0
	for _, path := range matches {
		if keep != "" && absPath(path) == keep {
			continue
		}
		info, err := os.Lstat(path)
		if err != nil || !info.Mode().IsRegular() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check file permissions on paths.log_dir"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		removed++
		logger.Debug("log pruned", String("path", path), String(FieldEventType, "log_pruned"))
	}
	return removed
}

func absPath(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
