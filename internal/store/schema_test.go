package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestSchemaStampedOnCreate(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "minutes.db")

	st, err := OpenSQLite(ctx, path, Options{})
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer st.Close()

	version, err := st.schemaVersion(ctx)
	if err != nil {
		t.Fatalf("schemaVersion: %v", err)
	}
	if version != latestVersion() {
		t.Fatalf("expected version %d, got %d", latestVersion(), version)
	}
	if err := st.initSchema(ctx); err != nil {
		t.Fatalf("re-running migrations should be a no-op: %v", err)
	}

	health, err := st.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if health.SchemaVersion != latestVersion() || !health.IntegrityCheck {
		t.Fatalf("unexpected health %+v", health)
	}
}

func TestSchemaRejectsNewerDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "minutes.db")

	st, err := OpenSQLite(ctx, path, Options{})
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if _, err := st.db.ExecContext(ctx, "UPDATE schema_version SET version = ?", latestVersion()+1); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = st.Close()

	if _, err := OpenSQLite(ctx, path, Options{}); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
