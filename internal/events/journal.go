package events

import (
	"context"

	"minutes/internal/ring"
)

// Journal keeps the most recent published events for API readers that page
// by sequence number.
type Journal struct {
	buf *ring.Buffer[Event]
}

func NewJournal(capacity int) *Journal {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Journal{buf: ring.New[Event](capacity)}
}

func (j *Journal) append(evt Event) Event {
	return j.buf.Append(func(seq uint64) Event {
		evt.Seq = seq
		return evt
	})
}

// Fetch returns events after since; with wait set it blocks until one is
// published or ctx ends. The cursor is the sequence to resume from.
func (j *Journal) Fetch(ctx context.Context, since uint64, limit int, wait bool) ([]Event, uint64, error) {
	if j == nil {
		return nil, since, nil
	}
	return j.buf.Fetch(ctx, since, limit, wait)
}

// Tail returns the newest limit events and the latest sequence number.
func (j *Journal) Tail(limit int) ([]Event, uint64) {
	if j == nil {
		return nil, 0
	}
	return j.buf.Tail(limit)
}

func (j *Journal) FirstSequence() uint64 {
	if j == nil {
		return 0
	}
	return j.buf.First()
}
