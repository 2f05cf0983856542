package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPruneLogsRemovesOldRunLogs(t *testing.T) {
	dir := t.TempDir()
	old := time.Now().Add(-72 * time.Hour)
	write := func(name string, mod time.Time) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.Chtimes(path, mod, mod); err != nil {
			t.Fatal(err)
		}
		return path
	}
	stale := write("minutes-1.log", old)
	current := write("minutes-2.log", old)
	fresh := write("minutes-3.log", time.Now())
	other := write("notes.txt", old)

	removed := PruneLogs(NewNop(), Retention{Dir: dir, Pattern: "minutes-*.log", Keep: current, MaxAge: 24 * time.Hour})
	if removed != 1 {
		t.Fatalf("expected one file removed, got %d", removed)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale log removed, got %v", err)
	}
	for _, path := range []string{current, fresh, other} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s kept: %v", path, err)
		}
	}
}

func TestPruneLogsDisabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "minutes-1.log")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if removed := PruneLogs(nil, Retention{Dir: dir, Pattern: "minutes-*.log"}); removed != 0 {
		t.Fatalf("expected no pruning without a max age, got %d", removed)
	}
}
