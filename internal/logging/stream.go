package logging

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"minutes/internal/ring"
)

// LogEvent is one log record as served by the daemon log API. The record key,
// stage, component and correlation id are promoted out of Fields.
type LogEvent struct {
	Sequence      uint64            `json:"seq"`
	Timestamp     time.Time         `json:"ts"`
	Level         string            `json:"level"`
	Message       string            `json:"msg"`
	Component     string            `json:"component,omitempty"`
	Stage         string            `json:"stage,omitempty"`
	GroupID       string            `json:"group_id,omitempty"`
	RecordID      string            `json:"record_id,omitempty"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`
}

// Matches reports whether the event concerns the given record. Empty filters
// match everything.
func (e LogEvent) Matches(groupID, recordID string) bool {
	return (groupID == "" || e.GroupID == groupID) && (recordID == "" || e.RecordID == recordID)
}

// StreamHub keeps the most recent log events for `minutes logs`.
type StreamHub struct {
	buf *ring.Buffer[LogEvent]
}

func NewStreamHub(capacity int) *StreamHub {
	if capacity <= 0 {
		capacity = 512
	}
	return &StreamHub{buf: ring.New[LogEvent](capacity)}
}

// Publish stamps evt with the next sequence number and stores it.
func (h *StreamHub) Publish(evt LogEvent) {
	if h == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	h.buf.Append(func(seq uint64) LogEvent {
		evt.Sequence = seq
		return evt
	})
}

// Fetch returns events after since; with wait set it blocks until one is
// published or ctx ends.
func (h *StreamHub) Fetch(ctx context.Context, since uint64, limit int, wait bool) ([]LogEvent, uint64, error) {
	if h == nil {
		return nil, since, nil
	}
	return h.buf.Fetch(ctx, since, limit, wait)
}

// Tail returns the newest limit events without blocking.
func (h *StreamHub) Tail(limit int) ([]LogEvent, uint64) {
	if h == nil {
		return nil, 0
	}
	return h.buf.Tail(limit)
}

func (h *StreamHub) FirstSequence() uint64 {
	if h == nil {
		return 0
	}
	return h.buf.First()
}

// streamHandler mirrors every handled record into a StreamHub before passing
// it on.
type streamHandler struct {
	next   slog.Handler
	hub    *StreamHub
	fields []field
	prefix string
}

func newStreamHandler(next slog.Handler, hub *StreamHub) slog.Handler {
	if hub == nil || next == nil {
		return next
	}
	return &streamHandler{next: next, hub: hub}
}

func (h *streamHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *streamHandler) Handle(ctx context.Context, record slog.Record) error {
	fields := append([]field(nil), h.fields...)
	record.Attrs(func(attr slog.Attr) bool {
		fields = appendField(fields, h.prefix, attr)
		return true
	})
	h.hub.Publish(toLogEvent(record, fields))
	return h.next.Handle(ctx, record)
}

func (h *streamHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.next = h.next.WithAttrs(attrs)
	clone.fields = append([]field(nil), h.fields...)
	for _, attr := range attrs {
		clone.fields = appendField(clone.fields, h.prefix, attr)
	}
	return &clone
}

func (h *streamHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.next = h.next.WithGroup(name)
	if name != "" {
		clone.prefix = joinKey(h.prefix, name)
	}
	return &clone
}

// toLogEvent converts a record; later fields overwrite earlier ones, so
// call-site attributes win over logger-scoped ones.
func toLogEvent(record slog.Record, fields []field) LogEvent {
	evt := LogEvent{
		Timestamp: record.Time.UTC(),
		Level:     levelLabel(record.Level),
		Message:   strings.TrimSpace(record.Message),
	}
	promoted := map[string]*string{
		FieldComponent:     &evt.Component,
		FieldStage:         &evt.Stage,
		FieldGroupID:       &evt.GroupID,
		FieldRecordID:      &evt.RecordID,
		FieldCorrelationID: &evt.CorrelationID,
	}
	for _, f := range fields {
		key := strings.TrimSpace(f.key)
		if key == "" {
			continue
		}
		if dst, ok := promoted[key]; ok {
			*dst = plainValue(f.value)
			continue
		}
		if evt.Fields == nil {
			evt.Fields = make(map[string]string)
		}
		evt.Fields[key] = plainValue(f.value)
	}
	return evt
}
