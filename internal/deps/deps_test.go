package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset"},
	}

	results := Check(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected unset result: %#v", results[2])
	}
}

func TestCheckFiles(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "transcribe.py")
	if err := os.WriteFile(script, []byte("print('{}')\n"), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	results := Check([]Requirement{
		{Name: "script", Command: script, File: true},
		{Name: "dir", Command: dir, File: true},
		{Name: "missing", Command: filepath.Join(dir, "nope.py"), File: true},
	})
	if !results[0].Available {
		t.Fatalf("expected script present, got %#v", results[0])
	}
	if results[1].Available || results[2].Available {
		t.Fatalf("expected directory and missing file to fail, got %#v", results[1:])
	}
}

func TestEngineRequirements(t *testing.T) {
	reqs := EngineRequirements([]string{"python3", "-u", "scripts/transcribe_whisper.py"}, "/srv/minutes")
	if len(reqs) != 2 {
		t.Fatalf("expected binary and script requirements, got %#v", reqs)
	}
	if reqs[0].Command != "python3" || reqs[0].File {
		t.Fatalf("unexpected binary requirement: %#v", reqs[0])
	}
	if reqs[1].Command != "/srv/minutes/scripts/transcribe_whisper.py" || !reqs[1].File {
		t.Fatalf("unexpected script requirement: %#v", reqs[1])
	}

	reqs = EngineRequirements([]string{"/usr/local/bin/whisper-json"}, "")
	if len(reqs) != 1 || reqs[0].Command != "/usr/local/bin/whisper-json" {
		t.Fatalf("unexpected requirements for plain binary: %#v", reqs)
	}

	reqs = EngineRequirements(nil, "")
	if len(reqs) != 1 || reqs[0].Command != "" {
		t.Fatalf("expected unconfigured requirement, got %#v", reqs)
	}
}
