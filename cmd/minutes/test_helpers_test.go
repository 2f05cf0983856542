package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"minutes/internal/config"
	"minutes/internal/daemon"
	"minutes/internal/engine"
	"minutes/internal/events"
	"minutes/internal/logging"
	"minutes/internal/pipeline"
	"minutes/internal/store"
	"minutes/internal/testsupport"
)

const cliTranscript = "John: Good morning everyone, let's review the project timeline and deadline for the release.\n" +
	"Sarah: I will send the updated budget report to the client by Friday.\n" +
	"John: We decided to move the launch to next week after the team agreed on the plan."

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	daemon     *daemon.Daemon
}

func fakeEngine() engine.Engine {
	return engine.Func(func(_ context.Context, req engine.Request, progress engine.ProgressFunc) (engine.Result, error) {
		if progress != nil {
			progress(50, "decoding")
		}
		return engine.Result{
			Transcript:      cliTranscript,
			DurationSeconds: 300,
			Language:        req.Language,
			Participants:    []string{"John", "Sarah"},
		}, nil
	})
}

// setupCLITestEnv starts an in-process daemon and writes a config file
// pointing the CLI at its listener.
func setupCLITestEnv(t *testing.T, opts ...testsupport.Option) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	st := testsupport.MustOpenStore(t, cfg)
	bus := events.New(logging.NewNop(), 128)
	pl, err := pipeline.New(pipeline.Options{
		Config: cfg,
		Store:  st,
		Bus:    bus,
		Engine: fakeEngine(),
		Logger: logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	d, err := daemon.New(cfg, st, bus, pl, logging.NewNop(), logging.NewStreamHub(256), nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon start: %v", err)
	}
	t.Cleanup(d.Stop)

	cfg.API.Bind = d.Addr()
	return &cliTestEnv{
		cfg:        cfg,
		configPath: writeTestConfig(t, cfg),
		daemon:     d,
	}
}

// setupOfflineEnv writes a config whose API address refuses connections.
func setupOfflineEnv(t *testing.T) (*config.Config, string, *store.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.API.Bind = "127.0.0.1:1"
	st := testsupport.MustOpenStore(t, cfg)
	return cfg, writeTestConfig(t, cfg), st
}

func writeTestConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()
	raw, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	path := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(bytes.NewReader(nil))
	flags := []string{}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}
