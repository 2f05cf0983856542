package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema_sqlite.sql
var sqliteSchemaSQL string

//go:embed schema_postgres.sql
var postgresSchemaSQL string

// ErrSchemaMismatch means the database was written by a newer minutes.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// migration upgrades the schema to version. The first entry is the full base
// schema; later ones alter it. Append only.
type migration struct {
	version int
	apply   func(dialect) string
}

var migrations = []migration{
	{version: 1, apply: func(d dialect) string { return d.schema }},
}

func latestVersion() int {
	return migrations[len(migrations)-1].version
}

// initSchema brings the database up to latestVersion, one transaction per
// pending migration.
func (s *Store) initSchema(ctx context.Context) error {
	current, err := s.schemaVersion(ctx)
	if err != nil {
		return err
	}
	if current > latestVersion() {
		return fmt.Errorf("%w: database has version %d, this build supports %d (upgrade minutes or delete the database)",
			ErrSchemaMismatch, current, latestVersion())
	}
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := s.migrate(ctx, m, current == 0); err != nil {
			return err
		}
		current = m.version
	}
	return nil
}

// schemaVersion reports 0 for an empty database.
func (s *Store) schemaVersion(ctx context.Context) (int, error) {
	var tables int
	if err := s.db.QueryRowContext(ctx, s.dialect.rebind(s.dialect.tableExists), "schema_version").Scan(&tables); err != nil {
		return 0, fmt.Errorf("check schema_version table: %w", err)
	}
	if tables == 0 {
		return 0, nil
	}
	var version sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return int(version.Int64), nil
}

func (s *Store) migrate(ctx context.Context, m migration, fresh bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", m.version, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, m.apply(s.dialect)); err != nil {
		return fmt.Errorf("apply migration %d: %w", m.version, err)
	}
	stamp := "UPDATE schema_version SET version = ?"
	if fresh {
		stamp = "INSERT INTO schema_version (version) VALUES (?)"
	}
	if _, err := tx.ExecContext(ctx, s.dialect.rebind(stamp), m.version); err != nil {
		return fmt.Errorf("record schema version %d: %w", m.version, err)
	}
	return tx.Commit()
}
