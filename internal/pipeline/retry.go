package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"minutes/internal/events"
	"minutes/internal/logging"
	"minutes/internal/services"
	"minutes/internal/store"
)

// internalFaultMessage is written when a stage cannot persist or publish its
// own progress.
const internalFaultMessage = "internal error: state update failed"

// writer performs store writes and bus publishes with bounded retry.
type writer struct {
	store    *store.Store
	bus      *events.Bus
	attempts int
	backoff  time.Duration
	logger   *slog.Logger
}

func (w *writer) put(ctx context.Context, groupID, id string, fields store.Fields) (*store.Record, error) {
	var rec *store.Record
	err := w.retry(ctx, "store write", func() error {
		var err error
		rec, err = w.store.Put(ctx, groupID, id, fields)
		return err
	})
	return rec, err
}

func (w *writer) publish(ctx context.Context, payload events.Payload) error {
	return w.retry(ctx, "publish "+string(payload.Topic()), func() error {
		_, err := w.bus.Publish(ctx, payload)
		return err
	})
}

func (w *writer) retry(ctx context.Context, op string, fn func() error) error {
	attempts := max(w.attempts, 1)
	delay := w.backoff
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if permanent(err) || attempt == attempts {
			break
		}
		logging.WarnWithContext(w.logger, "retrying after write failure", "write_retry",
			logging.String("operation", op),
			logging.Int("attempt", attempt),
			logging.Error(err),
			logging.String(logging.FieldImpact, "record update delayed"),
			logging.String(logging.FieldErrorHint, "check database health"),
		)
		select {
		case <-ctx.Done():
			return services.Wrap(services.ErrInternal, "", op, "", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
	return services.Wrap(services.ErrInternal, "", op, "", err)
}

// permanent errors are caller bugs that retrying cannot fix.
func permanent(err error) bool {
	return errors.Is(err, store.ErrInvalidFields) ||
		errors.Is(err, store.ErrInvalidKey) ||
		errors.Is(err, events.ErrInvalidEvent) ||
		errors.Is(err, events.ErrClosed)
}
