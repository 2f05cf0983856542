package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"minutes/internal/services"
)

const stageName = "transcription"

// CommandRunner executes name with args in dir and returns its stdout.
type CommandRunner func(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, error)

// Command runs an external transcription script. The source path is
// appended to the configured argv; model, language and options travel as
// MINUTES_* environment variables.
type Command struct {
	argv   []string
	dir    string
	runner CommandRunner
}

// NewCommand builds a command adapter. dir resolves relative sources and is
// the working directory of the child process.
func NewCommand(argv []string, dir string) *Command {
	return &Command{
		argv:   append([]string(nil), argv...),
		dir:    dir,
		runner: runCommand,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (c *Command) WithCommandRunner(runner CommandRunner) {
	if runner != nil {
		c.runner = runner
	}
}

// Binary returns the executable the adapter launches.
func (c *Command) Binary() string {
	if len(c.argv) == 0 {
		return ""
	}
	return c.argv[0]
}

// scriptOutput is the JSON object printed by the transcription script.
type scriptOutput struct {
	Filename     string   `json:"filename"`
	Success      bool     `json:"success"`
	Transcript   string   `json:"transcript"`
	Duration     float64  `json:"duration"`
	Language     string   `json:"language"`
	Segments     int      `json:"segments"`
	Participants []string `json:"participants"`
	Error        string   `json:"error"`
}

// Transcribe runs the script for req.Source.
func (c *Command) Transcribe(ctx context.Context, req Request, progress ProgressFunc) (Result, error) {
	if len(c.argv) == 0 {
		return Result{}, services.Wrap(services.ErrConfiguration, stageName, "transcribe", "engine command not configured", nil)
	}
	source := strings.TrimSpace(req.Source)
	if source == "" {
		return Result{}, services.Wrap(services.ErrValidation, stageName, "transcribe", "source required", nil)
	}
	if !filepath.IsAbs(source) && c.dir != "" {
		source = filepath.Join(c.dir, source)
	}

	args := append(append([]string(nil), c.argv[1:]...), source)
	report(progress, 50, "transcribing audio")
	stdout, err := c.runner(ctx, c.dir, buildEnv(req), c.argv[0], args...)
	if err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			return Result{}, services.Wrap(services.ErrTimeout, stageName, "transcribe", "engine deadline exceeded", err)
		}
		return Result{}, services.Wrap(services.ErrEngine, stageName, "transcribe", "engine command failed", err)
	}

	out, err := parseOutput(stdout)
	if err != nil {
		return Result{}, services.Wrap(services.ErrEngine, stageName, "parse output", "", err)
	}
	if !out.Success {
		msg := strings.TrimSpace(out.Error)
		if msg == "" {
			msg = "engine reported failure"
		}
		return Result{}, services.Wrap(services.ErrEngine, stageName, "transcribe", msg, nil)
	}

	language := out.Language
	if language == "" || language == "unknown" {
		language = req.Language
	}
	return Result{
		Transcript:      strings.TrimSpace(out.Transcript),
		DurationSeconds: max(out.Duration, 0),
		Language:        language,
		Participants:    out.Participants,
		Segments:        out.Segments,
	}, nil
}

// parseOutput returns the first line of stdout that decodes as a JSON
// object. Scripts may print trailing status lines after it.
func parseOutput(stdout []byte) (scriptOutput, error) {
	scanner := bufio.NewScanner(bytes.NewReader(stdout))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var out scriptOutput
		if err := json.Unmarshal([]byte(line), &out); err == nil {
			return out, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return scriptOutput{}, fmt.Errorf("read engine output: %w", err)
	}
	return scriptOutput{}, errors.New("engine printed no JSON result")
}

func buildEnv(req Request) []string {
	env := []string{
		"MINUTES_MODEL=" + req.Model,
		"MINUTES_LANGUAGE=" + req.Language,
		"MINUTES_RECORD_ID=" + req.ID,
	}
	keys := make([]string, 0, len(req.Options))
	for key := range req.Options {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		env = append(env, "MINUTES_OPT_"+envKey(key)+"="+req.Options[key])
	}
	return env
}

func envKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, key)
}

func runCommand(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), fmt.Errorf("%s: %w: %s", name, err, tail(stderr.String(), 512))
	}
	return stdout.Bytes(), nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
