package daemonctl

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"minutes/internal/api"
)

type fakeProber struct {
	mu    sync.Mutex
	up    bool
	pid   int
	calls int
}

func (f *fakeProber) Status(context.Context) (api.DaemonStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if !f.up {
		return api.DaemonStatus{}, api.ErrUnavailable
	}
	return api.DaemonStatus{Running: true, PID: f.pid}, nil
}

func (f *fakeProber) setUp(up bool) {
	f.mu.Lock()
	f.up = up
	f.mu.Unlock()
}

func startProcess(t *testing.T, script string) *exec.Cmd {
	t.Helper()
	cmd := exec.Command("sh", "-c", script)
	if err := cmd.Start(); err != nil {
		t.Fatalf("start helper process: %v", err)
	}
	done := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(done)
	}()
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		<-done
	})
	return cmd
}

func TestEnsureStartedAlreadyRunning(t *testing.T) {
	prober := &fakeProber{up: true, pid: 42}
	result, err := EnsureStarted(context.Background(), prober, func() error {
		t.Fatal("launch should not run when the daemon answers")
		return nil
	}, time.Second)
	if err != nil {
		t.Fatalf("EnsureStarted: %v", err)
	}
	if result.Launched || result.PID != 42 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestEnsureStartedLaunchesAndWaits(t *testing.T) {
	prober := &fakeProber{pid: 7}
	result, err := EnsureStarted(context.Background(), prober, func() error {
		go func() {
			time.Sleep(50 * time.Millisecond)
			prober.setUp(true)
		}()
		return nil
	}, 5*time.Second)
	if err != nil {
		t.Fatalf("EnsureStarted: %v", err)
	}
	if !result.Launched || result.PID != 7 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestEnsureStartedTimesOut(t *testing.T) {
	prober := &fakeProber{}
	_, err := EnsureStarted(context.Background(), prober, func() error { return nil }, 300*time.Millisecond)
	if err == nil || !errors.Is(err, api.ErrUnavailable) {
		t.Fatalf("expected start timeout wrapping unavailable, got %v", err)
	}
}

func TestEnsureStartedLaunchError(t *testing.T) {
	boom := errors.New("boom")
	_, err := EnsureStarted(context.Background(), &fakeProber{}, func() error { return boom }, time.Second)
	if !errors.Is(err, boom) {
		t.Fatalf("expected launch error, got %v", err)
	}
}

func TestStopNotRunning(t *testing.T) {
	_, err := Stop(context.Background(), &fakeProber{}, "", time.Second)
	if !errors.Is(err, ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestStopRefusesCurrentProcess(t *testing.T) {
	_, err := Stop(context.Background(), &fakeProber{up: true, pid: os.Getpid()}, "", time.Second)
	if err == nil {
		t.Fatal("expected refusal to signal the test process")
	}
}

func TestStopTerminatesProcess(t *testing.T) {
	proc := startProcess(t, "exec sleep 30")
	prober := &fakeProber{up: true, pid: proc.Process.Pid}

	result, err := Stop(context.Background(), prober, filepath.Join(t.TempDir(), "minutesd.pid"), 5*time.Second)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if result.PID != proc.Process.Pid || result.ForcedKill {
		t.Fatalf("unexpected result %+v", result)
	}
	if Alive(proc.Process.Pid) {
		t.Fatal("expected process to be gone")
	}
}

func TestStopEscalatesToKill(t *testing.T) {
	proc := startProcess(t, `trap "" TERM; exec sleep 30`)
	time.Sleep(200 * time.Millisecond)

	pidPath := filepath.Join(t.TempDir(), "minutesd.pid")
	if err := os.WriteFile(pidPath, []byte("0\n"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	prober := &fakeProber{up: true, pid: proc.Process.Pid}

	result, err := Stop(context.Background(), prober, pidPath, 300*time.Millisecond)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !result.ForcedKill {
		t.Fatalf("expected forced kill, got %+v", result)
	}
	if _, err := os.Stat(pidPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected pid file removed, got %v", err)
	}
}

func TestStopUsesPIDFileFallback(t *testing.T) {
	proc := startProcess(t, "exec sleep 30")
	pidPath := filepath.Join(t.TempDir(), "minutesd.pid")
	if err := os.WriteFile(pidPath, []byte("  "+strconv.Itoa(proc.Process.Pid)+"\n"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}

	result, err := Stop(context.Background(), &fakeProber{up: true}, pidPath, 5*time.Second)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if result.PID != proc.Process.Pid {
		t.Fatalf("expected pid from file, got %+v", result)
	}
}

func TestReadPID(t *testing.T) {
	dir := t.TempDir()
	if pid, err := ReadPID(filepath.Join(dir, "missing.pid")); err != nil || pid != 0 {
		t.Fatalf("missing file: pid=%d err=%v", pid, err)
	}
	bad := filepath.Join(dir, "bad.pid")
	if err := os.WriteFile(bad, []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadPID(bad); err == nil {
		t.Fatal("expected error for invalid pid file")
	}
	good := filepath.Join(dir, "good.pid")
	if err := os.WriteFile(good, []byte("123\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if pid, err := ReadPID(good); err != nil || pid != 123 {
		t.Fatalf("good file: pid=%d err=%v", pid, err)
	}
}

func TestLaunchRequiresExecutable(t *testing.T) {
	if err := Launch(" ", LaunchOptions{}); err == nil {
		t.Fatal("expected error for empty executable")
	}
}
