package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// Stats returns a count of records grouped by status. An empty group counts
// every group.
func (s *Store) Stats(ctx context.Context, groupID string) (map[Status]int, error) {
	ctx = ensureContext(ctx)
	query := "SELECT status, COUNT(1) FROM records GROUP BY status"
	var args []any
	if strings.TrimSpace(groupID) != "" {
		query = "SELECT status, COUNT(1) FROM records WHERE group_id = ? GROUP BY status"
		args = append(args, groupID)
	}
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("record stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[Status(status)] = count
	}
	return stats, rows.Err()
}

// Health aggregates record state for diagnostic output.
func (s *Store) Health(ctx context.Context, groupID string) (HealthSummary, error) {
	stats, err := s.Stats(ctx, groupID)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{ByStatus: stats}
	for status, count := range stats {
		health.Total += count
		switch {
		case status == StatusCompleted:
			health.Completed += count
		case status == StatusFailed:
			health.Failed += count
		case status.IsActive():
			health.Active += count
		}
	}
	recent, err := s.Recent(ctx, 1)
	if err != nil {
		return HealthSummary{}, err
	}
	if len(recent) > 0 {
		health.LastUpdate = recent[0].UpdatedAt
	}
	return health, nil
}

// CheckHealth returns diagnostic information about the backing database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	ctx = ensureContext(ctx)
	health := DatabaseHealth{
		Driver:   s.dialect.name,
		Location: s.location,
	}

	if s.dialect.name == sqliteDialect.name {
		info, err := os.Stat(s.location)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return health, fmt.Errorf("database file %q is missing", s.location)
			}
			return health, fmt.Errorf("stat database: %w", err)
		}
		if info.IsDir() {
			return health, fmt.Errorf("database path %q is a directory", s.location)
		}
	}

	version, err := s.schemaVersion(ctx)
	if err != nil {
		return health, err
	}
	health.SchemaVersion = version

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM records").Scan(&health.TotalRecords); err != nil {
		return health, fmt.Errorf("count records: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM record_history").Scan(&health.TotalRevisions); err != nil {
		return health, fmt.Errorf("count revisions: %w", err)
	}

	if s.dialect.name == sqliteDialect.name {
		var result string
		if err := s.db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
			health.IntegrityDetail = err.Error()
		} else {
			health.IntegrityCheck = result == "ok"
			health.IntegrityDetail = result
		}
	} else {
		health.IntegrityCheck = s.db.PingContext(ctx) == nil
		health.IntegrityDetail = "ping"
	}
	return health, nil
}

// Prune deletes completed and failed records last updated before cutoff,
// together with their history. It returns the number of records removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = ensureContext(ctx)
	var removed int64
	err := s.retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		terminal := []any{string(StatusCompleted), string(StatusFailed), cutoff.UnixNano()}
		if _, err := tx.ExecContext(ctx, s.dialect.rebind(`DELETE FROM record_history WHERE EXISTS (
			SELECT 1 FROM records r WHERE r.group_id = record_history.group_id AND r.id = record_history.record_id
			AND r.status IN (?, ?) AND r.updated_at < ?)`), terminal...); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, s.dialect.rebind(`DELETE FROM records WHERE status IN (?, ?) AND updated_at < ?`), terminal...)
		if err != nil {
			return err
		}
		if removed, err = res.RowsAffected(); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, fmt.Errorf("prune records: %w", err)
	}
	return removed, nil
}

func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return "postgres"
	}
	if u.User != nil {
		u.User = url.User(u.User.Username())
	}
	return u.String()
}
