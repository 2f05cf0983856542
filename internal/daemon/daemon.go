package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"minutes/internal/config"
	"minutes/internal/deps"
	"minutes/internal/events"
	"minutes/internal/logging"
	"minutes/internal/notifications"
	"minutes/internal/pipeline"
	"minutes/internal/preflight"
	"minutes/internal/store"
)

// recentLimit bounds the recent activity reported by Status.
const recentLimit = 10

// Daemon coordinates the background processing services and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	bus      *events.Bus
	pipeline *pipeline.Pipeline
	logHub   *logging.StreamHub
	notifier notifications.Service

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	mu        sync.Mutex
	deps      []deps.Status
	detach    func()
	cancel    context.CancelFunc
	running   atomic.Bool
	startedAt atomic.Int64
}

// Status represents daemon runtime information.
type Status struct {
	Running              bool
	PID                  int
	StartedAt            time.Time
	StoreDriver          string
	StoreLocation        string
	LockFilePath         string
	DefaultGroup         string
	Counts               map[store.Status]int
	ActiveTranscriptions int
	ActiveAnalyses       int
	Recent               []*store.Record
	Bus                  events.Stats
	JournalNext          uint64
	Dependencies         []deps.Status
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, bus *events.Bus, pl *pipeline.Pipeline, logger *slog.Logger, logHub *logging.StreamHub, notifier notifications.Service) (*Daemon, error) {
	if cfg == nil || st == nil || bus == nil || pl == nil {
		return nil, errors.New("daemon requires config, store, event bus, and pipeline")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    st,
		bus:      bus,
		pipeline: pl,
		logHub:   logHub,
		notifier: notifier,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, subscribes the pipeline stages, and opens
// the API listener.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another minutes daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.pipeline.Start()
	detach := notifications.Attach(d.bus, d.notifier, d.logger)
	if err := d.api.start(runCtx); err != nil {
		detach()
		d.pipeline.Stop()
		cancel()
		_ = d.lock.Unlock()
		return err
	}

	statuses := preflight.CheckSystemDeps(d.cfg)
	d.mu.Lock()
	d.deps = statuses
	d.detach = detach
	d.cancel = cancel
	d.mu.Unlock()
	d.logDependencies(statuses)

	d.startedAt.Store(time.Now().UnixNano())
	d.running.Store(true)
	d.logger.Info("minutes daemon started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.String("lock", d.lockPath),
		logging.String("api", d.api.address()),
		logging.String("store", d.store.Driver()),
	)
	return nil
}

// Stop closes the API listener, waits up to the shutdown grace period for
// in-flight stage work, then unsubscribes the stages and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.mu.Lock()
	cancel, detach := d.cancel, d.detach
	d.cancel, d.detach = nil, nil
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	d.api.stop()

	grace := time.Duration(d.cfg.Workflow.ShutdownGraceSeconds) * time.Second
	graceCtx, graceCancel := context.WithTimeout(context.Background(), grace)
	if err := d.bus.Drain(graceCtx); err != nil {
		transcriptions, analyses := d.pipeline.Active()
		logging.WarnWithContext(d.logger, "shutdown grace period elapsed with work in flight", "daemon_drain_timeout",
			logging.Error(err),
			logging.Int("active_transcriptions", transcriptions),
			logging.Int("active_analyses", analyses),
			logging.String(logging.FieldErrorHint, "raise workflow.shutdown_grace_seconds for long recordings"),
			logging.String(logging.FieldImpact, "interrupted records stay in a non-terminal status"),
		)
	}
	graceCancel()

	d.pipeline.Stop()
	if detach != nil {
		detach()
	}
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_unlock_failed",
			logging.Error(err),
			logging.String("lock", d.lockPath),
		)
	}
	d.running.Store(false)
	d.logger.Info("minutes daemon stopped", logging.String(logging.FieldEventType, "daemon_stop"))
}

// Close stops the daemon, closes the bus, and releases the store.
func (d *Daemon) Close() error {
	d.Stop()
	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = d.bus.Close(closeCtx)
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Addr reports the API listener address, or an empty string when the API is
// disabled or not started.
func (d *Daemon) Addr() string {
	return d.api.address()
}

// LogStream exposes the in-memory log hub.
func (d *Daemon) LogStream() *logging.StreamHub {
	return d.logHub
}

// Ingress exposes the submission entry point.
func (d *Daemon) Ingress() *pipeline.Ingress {
	return d.pipeline.Ingress()
}

// TestNotification sends a test push notification.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg.Notifications.NtfyTopic == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.Publish(ctx, notifications.EventTest, nil); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) (Status, error) {
	counts, err := d.store.Stats(ctx, "")
	if err != nil {
		return Status{}, fmt.Errorf("record stats: %w", err)
	}
	recent, err := d.store.Recent(ctx, recentLimit)
	if err != nil {
		return Status{}, fmt.Errorf("recent records: %w", err)
	}
	transcriptions, analyses := d.pipeline.Active()
	_, next := d.bus.Journal().Tail(1)

	d.mu.Lock()
	statuses := append([]deps.Status(nil), d.deps...)
	d.mu.Unlock()

	status := Status{
		Running:              d.running.Load(),
		PID:                  os.Getpid(),
		StoreDriver:          d.store.Driver(),
		StoreLocation:        d.store.Location(),
		LockFilePath:         d.lockPath,
		DefaultGroup:         d.cfg.Pipeline.DefaultGroup,
		Counts:               counts,
		ActiveTranscriptions: transcriptions,
		ActiveAnalyses:       analyses,
		Recent:               recent,
		Bus:                  d.bus.Stats(),
		JournalNext:          next,
		Dependencies:         statuses,
	}
	if started := d.startedAt.Load(); started > 0 && status.Running {
		status.StartedAt = time.Unix(0, started)
	}
	return status, nil
}

func (d *Daemon) logDependencies(statuses []deps.Status) {
	for _, dep := range statuses {
		if dep.Available {
			d.logger.Info("dependency available",
				logging.String(logging.FieldEventType, "dependency_snapshot"),
				logging.String("dependency", dep.Name),
				logging.String("command", dep.Command),
			)
			continue
		}
		logging.WarnWithContext(d.logger, "dependency unavailable", "dependency_missing",
			logging.String("dependency", dep.Name),
			logging.String("command", dep.Command),
			logging.String("detail", dep.Detail),
			logging.String(logging.FieldErrorHint, "set engine.command in config.toml"),
			logging.String(logging.FieldImpact, "submissions will fail at the transcription stage"),
		)
	}
}
