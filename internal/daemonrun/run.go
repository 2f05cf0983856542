package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"minutes/internal/config"
	"minutes/internal/daemon"
	"minutes/internal/engine"
	"minutes/internal/events"
	"minutes/internal/logging"
	"minutes/internal/notifications"
	"minutes/internal/pipeline"
	"minutes/internal/preflight"
	"minutes/internal/store"
)

// retentionInterval is how often old log files are pruned while running.
const retentionInterval = 24 * time.Hour

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the minutes daemon and blocks until SIGINT/SIGTERM or ctx ends.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("minutes-%s.log", runID))
	logHub := logging.NewStreamHub(cfg.Logging.StreamBuffer)

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		Outputs:     []string{"stdout", logPath},
		Development: opts.Development,
		Stream:      logHub,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.CurrentLogPath(), logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update minutes.log link: %v\n", err)
	}
	retention := logging.Retention{
		Dir:     cfg.Paths.LogDir,
		Pattern: "minutes-*.log",
		Keep:    logPath,
		MaxAge:  time.Duration(cfg.Logging.RetentionDays) * 24 * time.Hour,
	}
	logging.PruneLogs(logger, retention)
	logPreflight(signalCtx, logger, cfg)

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	st, err := store.Open(cfg)
	if err != nil {
		logging.ErrorWithContext(logger, "open record store", "store_open_failed",
			logging.Error(err),
			logging.String("driver", cfg.Store.Driver),
			logging.String(logging.FieldErrorHint, "check store.path or store.dsn in config.toml"),
		)
		return err
	}

	bus := events.New(logger, cfg.Pipeline.EventJournal)
	eng := engine.NewLimiter(
		engine.NewCommand(cfg.Engine.Command, cfg.Engine.WorkDir),
		cfg.Engine.MaxConcurrent,
		time.Duration(cfg.Engine.TimeoutSeconds)*time.Second,
	)
	pl, err := pipeline.New(pipeline.Options{
		Config: cfg,
		Store:  st,
		Bus:    bus,
		Engine: eng,
		Logger: logger,
	})
	if err != nil {
		_ = st.Close()
		return fmt.Errorf("create pipeline: %w", err)
	}

	d, err := daemon.New(cfg, st, bus, pl, logger, logHub, notifications.NewService(cfg))
	if err != nil {
		_ = st.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "stop the other instance or free api.bind"),
		)
		return err
	}

	g, gCtx := errgroup.WithContext(signalCtx)
	g.Go(func() error {
		ticker := time.NewTicker(retentionInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
				logging.PruneLogs(logger, retention)
			}
		}
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("minutes daemon shutting down",
			logging.String(logging.FieldEventType, "daemon_shutdown"),
			logging.Int("grace_seconds", cfg.Workflow.ShutdownGraceSeconds),
		)
		d.Stop()
		return nil
	})
	return g.Wait()
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	for _, result := range preflight.RunAll(ctx, cfg) {
		if result.Passed {
			logger.Info("preflight check passed",
				logging.String(logging.FieldEventType, "preflight"),
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
			)
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "dependent features may fail at runtime"),
		)
	}
}

func ensureCurrentLogPointer(current, target string) error {
	if current == "" || target == "" {
		return nil
	}
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
