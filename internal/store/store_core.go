package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"minutes/internal/config"
)

// Store manages record persistence.
type Store struct {
	db           *sql.DB
	dialect      dialect
	location     string
	locks        keyLocks
	listLimit    int
	maxListLimit int
}

// Options tunes list bounds.
type Options struct {
	ListLimit    int
	MaxListLimit int
}

const (
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func (s *Store) retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !s.dialect.retryable(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := s.retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, s.dialect.rebind(query), args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Open connects to the backend selected by cfg.Store.Driver.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	opts := Options{ListLimit: cfg.Store.ListLimit, MaxListLimit: cfg.Store.MaxListLimit}
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		return OpenPostgres(context.Background(), cfg.Store.DSN, opts)
	default:
		return OpenSQLite(context.Background(), cfg.Store.Path, opts)
	}
}

// OpenSQLite initializes or connects to a SQLite database file.
func OpenSQLite(ctx context.Context, path string, opts Options) (*Store, error) {
	db, err := sql.Open(sqliteDialect.driver, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection serializes SQLite writers inside the process and
	// keeps pragmas applied to every statement.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	return newStore(ctx, db, sqliteDialect, path, opts)
}

// OpenPostgres connects to a PostgreSQL database through pgx.
func OpenPostgres(ctx context.Context, dsn string, opts Options) (*Store, error) {
	db, err := sql.Open(postgresDialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetConnMaxIdleTime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return newStore(ctx, db, postgresDialect, redactDSN(dsn), opts)
}

func newStore(ctx context.Context, db *sql.DB, d dialect, location string, opts Options) (*Store, error) {
	if opts.ListLimit <= 0 {
		opts.ListLimit = 20
	}
	if opts.MaxListLimit < opts.ListLimit {
		opts.MaxListLimit = max(opts.ListLimit, 500)
	}
	store := &Store{
		db:           db,
		dialect:      d,
		location:     location,
		listLimit:    opts.ListLimit,
		maxListLimit: opts.MaxListLimit,
	}
	if err := store.initSchema(ensureContext(ctx)); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Driver names the active backend.
func (s *Store) Driver() string {
	return s.dialect.name
}

// Location is the database file path, or the redacted DSN for Postgres.
func (s *Store) Location() string {
	return s.location
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
