package ring

import (
	"context"
	"sync"
)

// Buffer keeps the most recent items, each tagged with a sequence number one
// higher than the item before it. Sequence numbers start at 1.
type Buffer[T any] struct {
	mu    sync.Mutex
	items []T
	head  int // index of the oldest item
	count int
	last  uint64
	wake  chan struct{}
}

func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Buffer[T]{items: make([]T, capacity), wake: make(chan struct{})}
}

// Append stores the item built by stamp for the next sequence number and
// wakes blocked readers. stamp runs under the buffer lock.
func (b *Buffer[T]) Append(stamp func(seq uint64) T) T {
	b.mu.Lock()
	b.last++
	item := stamp(b.last)
	if b.count == len(b.items) {
		b.items[b.head] = item
		b.head = (b.head + 1) % len(b.items)
	} else {
		b.items[(b.head+b.count)%len(b.items)] = item
		b.count++
	}
	close(b.wake)
	b.wake = make(chan struct{})
	b.mu.Unlock()
	return item
}

// Fetch returns up to limit items newer than since, oldest first, and the
// cursor to pass next time. With wait set it blocks until an item arrives or
// ctx ends.
func (b *Buffer[T]) Fetch(ctx context.Context, since uint64, limit int, wait bool) ([]T, uint64, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		b.mu.Lock()
		out, next := b.pageLocked(since, limit)
		wake := b.wake
		b.mu.Unlock()
		if len(out) > 0 || !wait {
			return out, next, nil
		}
		select {
		case <-ctx.Done():
			return nil, next, ctx.Err()
		case <-wake:
		}
	}
}

// Tail returns the newest limit items and the latest sequence number.
func (b *Buffer[T]) Tail(limit int) ([]T, uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if limit <= 0 || limit > b.count {
		limit = b.count
	}
	return b.copyLocked(b.count-limit, b.count), b.last
}

// First reports the oldest buffered sequence number, or the latest sequence
// number when the buffer is empty.
func (b *Buffer[T]) First() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count == 0 {
		return b.last
	}
	return b.firstLocked()
}

// Capacity is the number of items retained.
func (b *Buffer[T]) Capacity() int {
	return len(b.items)
}

func (b *Buffer[T]) firstLocked() uint64 {
	return b.last - uint64(b.count) + 1
}

func (b *Buffer[T]) pageLocked(since uint64, limit int) ([]T, uint64) {
	if b.count == 0 || since >= b.last {
		return nil, b.last
	}
	if limit <= 0 || limit > b.count {
		limit = b.count
	}
	start := 0
	if first := b.firstLocked(); since >= first {
		start = int(since - first + 1)
	}
	end := min(start+limit, b.count)
	out := b.copyLocked(start, end)
	if end < b.count {
		// truncated page resumes after the last item returned
		return out, b.firstLocked() + uint64(end) - 1
	}
	return out, b.last
}

func (b *Buffer[T]) copyLocked(from, to int) []T {
	if from >= to {
		return nil
	}
	out := make([]T, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, b.items[(b.head+i)%len(b.items)])
	}
	return out
}
