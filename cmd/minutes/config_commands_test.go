package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"minutes/internal/config"
	"minutes/internal/testsupport"
)

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	stdout, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(stdout, target) {
		t.Fatalf("expected target in output, got %q", stdout)
	}
	raw, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if string(raw) != config.Sample() {
		t.Fatal("written file does not match embedded sample")
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAPIToken("super-secret"))
	cfg.Notifications.NtfyTopic = "https://ntfy.sh/private-topic"
	path := writeTestConfig(t, cfg)

	stdout, _, err := runCLI(t, []string{"config", "show"}, path)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(stdout, "super-secret") || strings.Contains(stdout, "private-topic") {
		t.Fatalf("secrets leaked:\n%s", stdout)
	}
	if !strings.Contains(stdout, "https://ntfy.sh/"+redacted) || !strings.Contains(stdout, "# "+path) {
		t.Fatalf("unexpected config show output:\n%s", stdout)
	}

	stdout, _, err = runCLI(t, []string{"config", "show", "--reveal"}, path)
	if err != nil {
		t.Fatalf("config show --reveal: %v", err)
	}
	if !strings.Contains(stdout, "super-secret") {
		t.Fatalf("expected token with --reveal:\n%s", stdout)
	}
}

func TestRedactConfigMasksDSNPassword(t *testing.T) {
	cfg := config.Default()
	cfg.Store.DSN = "postgres://minutes:hunter2@db:5432/minutes?sslmode=disable"
	got := redactConfig(cfg)
	if strings.Contains(got.Store.DSN, "hunter2") || !strings.Contains(got.Store.DSN, "minutes:") {
		t.Fatalf("unexpected redacted dsn %q", got.Store.DSN)
	}
	if cfg.Store.DSN == got.Store.DSN {
		t.Fatal("redaction must not mutate the input")
	}
}

func TestConfigValidateReportsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "absent.toml")
	stdout, _, err := runCLI(t, []string{"config", "validate"}, path)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(stdout, "defaults were used") || !strings.Contains(stdout, "Configuration valid") {
		t.Fatalf("unexpected validate output %q", stdout)
	}
}
