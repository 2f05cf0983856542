package engine_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"minutes/internal/engine"
	"minutes/internal/services"
)

func TestLimiterBoundsConcurrency(t *testing.T) {
	var current, peak atomic.Int32
	slow := engine.Func(func(ctx context.Context, _ engine.Request, _ engine.ProgressFunc) (engine.Result, error) {
		n := current.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		current.Add(-1)
		return engine.Result{Transcript: "ok"}, nil
	})
	limiter := engine.NewLimiter(slow, 2, time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := limiter.Transcribe(context.Background(), engine.Request{Source: "a.wav"}, nil); err != nil {
				t.Errorf("transcribe: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := peak.Load(); got > 2 {
		t.Fatalf("peak concurrency %d exceeds 2 slots", got)
	}
	if limiter.Slots() != 2 {
		t.Fatalf("unexpected slots %d", limiter.Slots())
	}
}

func TestLimiterAppliesDeadline(t *testing.T) {
	blocking := engine.Func(func(ctx context.Context, _ engine.Request, _ engine.ProgressFunc) (engine.Result, error) {
		<-ctx.Done()
		return engine.Result{}, ctx.Err()
	})
	limiter := engine.NewLimiter(blocking, 1, 10*time.Millisecond)

	_, err := limiter.Transcribe(context.Background(), engine.Request{Source: "a.wav"}, nil)
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout marker, got %v", err)
	}
}

func TestLimiterPassesEngineErrors(t *testing.T) {
	failing := engine.Func(func(context.Context, engine.Request, engine.ProgressFunc) (engine.Result, error) {
		return engine.Result{}, services.Wrap(services.ErrEngine, "transcription", "transcribe", "model crashed", nil)
	})
	_, err := engine.NewLimiter(failing, 1, time.Second).Transcribe(context.Background(), engine.Request{}, nil)
	if !errors.Is(err, services.ErrEngine) || errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected engine error, got %v", err)
	}
}
