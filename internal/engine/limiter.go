package engine

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/semaphore"

	"minutes/internal/services"
)

// Limiter bounds concurrent engine calls and applies a per-call deadline.
type Limiter struct {
	next    Engine
	sem     *semaphore.Weighted
	slots   int64
	timeout time.Duration
}

// NewLimiter wraps next with a pool of slots concurrent calls. A
// non-positive timeout disables the deadline.
func NewLimiter(next Engine, slots int, timeout time.Duration) *Limiter {
	if slots <= 0 {
		slots = 1
	}
	return &Limiter{
		next:    next,
		sem:     semaphore.NewWeighted(int64(slots)),
		slots:   int64(slots),
		timeout: timeout,
	}
}

// Slots reports the pool size.
func (l *Limiter) Slots() int {
	return int(l.slots)
}

// Transcribe waits for a free slot, then calls the wrapped engine under the
// deadline. Waiting for a slot does not count against the deadline.
func (l *Limiter) Transcribe(ctx context.Context, req Request, progress ProgressFunc) (Result, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return Result{}, services.Wrap(services.ErrTimeout, stageName, "acquire engine slot", "", err)
	}
	defer l.sem.Release(1)

	callCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	result, err := l.next.Transcribe(callCtx, req, progress)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, services.ErrTimeout) {
			return Result{}, services.Wrap(services.ErrTimeout, stageName, "transcribe", "engine deadline exceeded", err)
		}
		return Result{}, err
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return Result{}, services.Wrap(services.ErrTimeout, stageName, "transcribe", "engine deadline exceeded", callCtx.Err())
	}
	return result, nil
}
