package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"minutes/internal/config"
)

// Option adjusts a generated test config. The TB is available for fatal
// setup failures.
type Option func(testing.TB, *config.Config)

// NewConfig returns defaults rooted in a fresh temp directory with short
// timeouts so pipeline tests finish quickly.
func NewConfig(t testing.TB, opts ...Option) *config.Config {
	t.Helper()

	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(root, "state")
	cfg.Paths.LogDir = filepath.Join(root, "logs")
	cfg.Store.Path = filepath.Join(cfg.Paths.StateDir, "minutes.db")
	cfg.API.Bind = "127.0.0.1:0"
	cfg.Engine.TimeoutSeconds = 5
	cfg.Workflow.WriteRetryBackoffMS = 1
	cfg.Workflow.ShutdownGraceSeconds = 5

	for _, opt := range opts {
		opt(t, &cfg)
	}
	return &cfg
}

func WithAPIToken(token string) Option {
	return func(_ testing.TB, cfg *config.Config) { cfg.API.Token = token }
}

func WithEngineCommand(command ...string) Option {
	return func(_ testing.TB, cfg *config.Config) { cfg.Engine.Command = command }
}

// WithStubbedBinaries puts shell stubs named names on PATH for the test. Each
// stub prints output and exits 0.
func WithStubbedBinaries(output string, names ...string) Option {
	return func(t testing.TB, cfg *config.Config) {
		bin := filepath.Join(BaseDir(cfg), "bin")
		if err := os.MkdirAll(bin, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", bin, err)
		}
		stub := "#!/bin/sh\ncat <<'STUB_EOF'\n" + output + "\nSTUB_EOF\n"
		for _, name := range names {
			if err := os.WriteFile(filepath.Join(bin, name), []byte(stub), 0o755); err != nil {
				t.Fatalf("write stub %s: %v", name, err)
			}
		}
		t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir is the temp root behind a config from NewConfig.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
