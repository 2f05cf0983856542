package logstream

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// tailPoll re-checks the file when no write notification arrives, covering
// filesystems without inotify support.
const tailPoll = time.Second

// tailFile prints the last lines of path and, when following, every complete
// line appended afterwards. Truncation restarts reading from the top.
func tailFile(ctx context.Context, path string, lines int, follow bool, onLine func(string)) (bool, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return false, fmt.Errorf("open log file: %w", err)
	}
	f, err := os.Open(resolved)
	if err != nil {
		return false, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	recent, offset, err := lastLines(f, lines)
	if err != nil {
		return false, fmt.Errorf("read log file: %w", err)
	}
	printed := false
	emit := func(line string) {
		if onLine != nil {
			onLine(line)
		}
		printed = true
	}
	for _, line := range recent {
		emit(line)
	}
	if !follow {
		return printed, nil
	}

	var notify <-chan fsnotify.Event
	if watcher, err := fsnotify.NewWatcher(); err == nil {
		defer watcher.Close()
		if err := watcher.Add(resolved); err == nil {
			notify = watcher.Events
		}
	}
	ticker := time.NewTicker(tailPoll)
	defer ticker.Stop()

	var partial []byte
	for {
		select {
		case <-ctx.Done():
			return printed, nil
		case <-notify:
		case <-ticker.C:
		}

		info, err := f.Stat()
		if err != nil {
			return printed, fmt.Errorf("stat log file: %w", err)
		}
		if info.Size() < offset {
			offset = 0
			partial = partial[:0]
		}
		if info.Size() == offset {
			continue
		}
		chunk := make([]byte, info.Size()-offset)
		n, err := f.ReadAt(chunk, offset)
		if err != nil && err != io.EOF {
			return printed, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(n)
		partial = append(partial, chunk[:n]...)
		for {
			idx := bytes.IndexByte(partial, '\n')
			if idx < 0 {
				break
			}
			emit(string(bytes.TrimRight(partial[:idx], "\r")))
			partial = partial[idx+1:]
		}
	}
}

// lastLines returns up to n trailing complete lines and the offset just past
// the last newline read.
func lastLines(f *os.File, n int) ([]string, int64, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, 0, err
	}
	reader := bufio.NewReaderSize(f, 64*1024)
	var (
		ring   []string
		offset int64
	)
	for {
		line, err := reader.ReadBytes('\n')
		if err == io.EOF {
			// incomplete trailing line; followers pick it up once finished
			return ring, offset, nil
		}
		if err != nil {
			return nil, 0, err
		}
		offset += int64(len(line))
		if n <= 0 {
			continue
		}
		if len(ring) == n {
			ring = append(ring[:0], ring[1:]...)
		}
		ring = append(ring, string(bytes.TrimRight(line, "\r\n")))
	}
}
