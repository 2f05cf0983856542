package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"minutes/internal/logging"
	"minutes/internal/store"
)

// progressTracker writes monotonic checkpoints strictly between start and 100.
// The first write error is kept and later checkpoints are dropped, as is
// anything reported after close.
type progressTracker struct {
	mu      sync.Mutex
	ctx     context.Context
	writer  *writer
	groupID string
	id      string
	last    int
	err     error
	closed  bool
	sampler *logging.ProgressSampler
	logger  *slog.Logger
}

func newProgressTracker(ctx context.Context, w *writer, groupID, id string, start int, logger *slog.Logger) *progressTracker {
	return &progressTracker{
		ctx:     ctx,
		writer:  w,
		groupID: groupID,
		id:      id,
		last:    start,
		sampler: logging.NewProgressSampler(10),
		logger:  logger,
	}
}

// checkpoint records percent with label unless it would not advance progress.
func (p *progressTracker) checkpoint(percent int, label string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil || p.closed {
		return
	}
	percent = min(percent, 99)
	if percent <= p.last {
		return
	}
	_, err := p.writer.put(p.ctx, p.groupID, p.id, store.Fields{
		Progress:     store.Ptr(percent),
		EngineStatus: store.Ptr(label),
	})
	if err != nil {
		p.err = err
		return
	}
	p.last = percent
	if p.sampler.Allow(percent) {
		p.logger.Info("transcription progress",
			logging.String(logging.FieldEventType, "stage_progress"),
			logging.Int("progress", percent),
			logging.String("engine_status", label),
		)
	}
}

// close stops checkpoint writes ahead of the stage's terminal write. It waits
// for a checkpoint already being written.
func (p *progressTracker) close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

func (p *progressTracker) failure() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}
