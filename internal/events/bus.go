package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"minutes/internal/logging"
	"minutes/internal/services"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("event bus closed")

// Handler consumes one delivered event. Returned errors and panics are
// logged; they never affect other handlers or the publisher.
type Handler func(ctx context.Context, evt Event) error

type subscription struct {
	id      uint64
	name    string
	handler Handler
}

// Bus fans published events out to topic subscribers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Topic][]subscription
	nextSub  uint64
	closed   bool

	journal  *Journal
	logger   *slog.Logger
	wg       sync.WaitGroup
	inFlight atomic.Int64
	counts   sync.Map // Topic -> *atomic.Int64
	failures atomic.Int64
}

// New builds a bus with a journal of the given capacity.
func New(logger *slog.Logger, journalCapacity int) *Bus {
	return &Bus{
		handlers: make(map[Topic][]subscription),
		journal:  NewJournal(journalCapacity),
		logger:   logging.NewComponentLogger(logger, "event-bus"),
	}
}

// Journal exposes the bounded event history.
func (b *Bus) Journal() *Journal {
	return b.journal
}

// Subscribe registers handler for topic and returns a function that removes it.
func (b *Bus) Subscribe(topic Topic, name string, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextSub++
	id := b.nextSub
	b.handlers[topic] = append(b.handlers[topic], subscription{id: id, name: name, handler: handler})
	b.logger.Debug("handler subscribed", logging.String(logging.FieldTopic, string(topic)), logging.String("handler", name))

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[topic]
		for i, sub := range subs {
			if sub.id == id {
				b.handlers[topic] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish validates payload, journals it, and schedules every subscriber of
// its topic. Publish does not wait for handlers.
func (b *Bus) Publish(ctx context.Context, payload Payload) (Event, error) {
	if err := Validate(payload); err != nil {
		return Event{}, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return Event{}, ErrClosed
	}
	subs := append([]subscription(nil), b.handlers[payload.Topic()]...)
	// Add before releasing the lock so Close cannot miss these deliveries.
	b.wg.Add(len(subs))
	b.mu.RUnlock()

	group, id := payload.Key()
	evt := b.journal.append(Event{
		Topic:     payload.Topic(),
		GroupID:   group,
		ID:        id,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
	b.counter(evt.Topic).Add(1)

	deliveryCtx := context.WithoutCancel(ctx)
	deliveryCtx = services.WithRecord(deliveryCtx, group, id)
	for _, sub := range subs {
		b.inFlight.Add(1)
		go b.deliver(deliveryCtx, sub, evt)
	}

	b.logger.Debug("event published",
		logging.String(logging.FieldTopic, string(evt.Topic)),
		logging.Record(group, id),
		logging.Int("subscribers", len(subs)),
		logging.Uint64("seq", evt.Seq),
	)
	return evt, nil
}

func (b *Bus) deliver(ctx context.Context, sub subscription, evt Event) {
	defer b.wg.Done()
	defer b.inFlight.Add(-1)
	defer func() {
		if r := recover(); r != nil {
			b.failures.Add(1)
			logging.ErrorWithContext(b.logger, "event handler panicked", "handler_panic",
				logging.String(logging.FieldTopic, string(evt.Topic)),
				logging.String("handler", sub.name),
				logging.Record(evt.GroupID, evt.ID),
				logging.String("panic", fmt.Sprint(r)),
				logging.String("stack", string(debug.Stack())),
				logging.String(logging.FieldErrorHint, "handler bug; record may need resubmission"),
			)
		}
	}()

	if err := sub.handler(ctx, evt); err != nil {
		b.failures.Add(1)
		logging.ErrorWithContext(b.logger, "event handler failed", "handler_failed",
			logging.String(logging.FieldTopic, string(evt.Topic)),
			logging.String("handler", sub.name),
			logging.Record(evt.GroupID, evt.ID),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.Error(err),
		)
	}
}

// Drain waits for every scheduled delivery to finish or ctx to end.
func (b *Bus) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain event bus: %d deliveries still running: %w", b.inFlight.Load(), ctx.Err())
	}
}

// Close stops accepting events and drains in-flight deliveries.
func (b *Bus) Close(ctx context.Context) error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return b.Drain(ctx)
}

func (b *Bus) counter(topic Topic) *atomic.Int64 {
	if v, ok := b.counts.Load(topic); ok {
		return v.(*atomic.Int64)
	}
	v, _ := b.counts.LoadOrStore(topic, new(atomic.Int64))
	return v.(*atomic.Int64)
}

// Stats summarizes bus activity.
type Stats struct {
	Published   map[Topic]int64
	Subscribers map[Topic]int
	InFlight    int64
	Failures    int64
}

// Stats returns a snapshot of publish counts and subscriber totals.
func (b *Bus) Stats() Stats {
	stats := Stats{
		Published:   make(map[Topic]int64),
		Subscribers: make(map[Topic]int),
		InFlight:    b.inFlight.Load(),
		Failures:    b.failures.Load(),
	}
	b.counts.Range(func(key, value any) bool {
		stats.Published[key.(Topic)] = value.(*atomic.Int64).Load()
		return true
	})
	b.mu.RLock()
	for topic, subs := range b.handlers {
		stats.Subscribers[topic] = len(subs)
	}
	b.mu.RUnlock()
	return stats
}
