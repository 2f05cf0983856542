package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"minutes/internal/api"
	"minutes/internal/events"
	"minutes/internal/logging"
)

// sseKeepalive is how often an idle event stream writes a comment line.
const sseKeepalive = 15 * time.Second

func (s *apiServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	since := queryUint(r, "since")
	limit := queryInt(r, "limit")
	if limit <= 0 {
		limit = 200
	}
	follow := queryBool(r, "follow")
	group := strings.TrimSpace(r.URL.Query().Get("group"))
	record := strings.TrimSpace(r.URL.Query().Get("record"))
	topic, topicFilter := parseTopicFilter(r.URL.Query().Get("topic"))

	ctx := r.Context()
	if follow {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, longPollTimeout)
		defer cancel()
	}

	raw, next, err := s.daemon.bus.Journal().Fetch(ctx, since, limit, follow)
	if err != nil && !isWaitEnded(err) {
		s.writeFault(w, r, err)
		return
	}
	if err != nil && r.Context().Err() != nil {
		// client went away
		return
	}

	filtered := make([]events.Event, 0, len(raw))
	for _, evt := range raw {
		if !evt.Matches(group, record) || (topicFilter && evt.Topic != topic) {
			continue
		}
		filtered = append(filtered, evt)
	}
	s.writeJSON(w, http.StatusOK, api.EventStreamResponse{Events: filtered, Next: next})
}

// handleEventStream serves bus events as Server-Sent Events. Each event id is
// its journal sequence, so reconnecting clients resume via Last-Event-ID.
func (s *apiServer) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported", "")
		return
	}
	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	since := queryUint(r, "since")
	if last := strings.TrimSpace(r.Header.Get("Last-Event-ID")); last != "" {
		if parsed, err := strconv.ParseUint(last, 10, 64); err == nil {
			since = parsed
		}
	}
	group := strings.TrimSpace(r.URL.Query().Get("group"))
	record := strings.TrimSpace(r.URL.Query().Get("record"))
	topic, topicFilter := parseTopicFilter(r.URL.Query().Get("topic"))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	journal := s.daemon.bus.Journal()
	for {
		waitCtx, cancel := context.WithTimeout(r.Context(), sseKeepalive)
		batch, next, err := journal.Fetch(waitCtx, since, 100, true)
		cancel()
		if r.Context().Err() != nil {
			return
		}
		if err != nil && !isWaitEnded(err) {
			logging.WarnWithContext(s.logger, "event stream fetch failed", "event_stream_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "event stream closed; client should reconnect"),
			)
			return
		}
		if len(batch) == 0 {
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
			since = next
			continue
		}
		for _, evt := range batch {
			if !evt.Matches(group, record) || (topicFilter && evt.Topic != topic) {
				continue
			}
			if err := writeSSE(w, evt); err != nil {
				return
			}
		}
		flusher.Flush()
		since = next
	}
}

func writeSSE(w http.ResponseWriter, evt events.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", evt.Seq, evt.Topic, data)
	return err
}

func parseTopicFilter(value string) (events.Topic, bool) {
	if strings.TrimSpace(value) == "" {
		return "", false
	}
	topic, ok := events.ParseTopic(value)
	if !ok {
		// an unknown topic matches nothing
		return events.Topic(value), true
	}
	return topic, true
}

func (s *apiServer) handleLogs(w http.ResponseWriter, r *http.Request) {
	hub := s.daemon.LogStream()
	if hub == nil {
		s.writeJSON(w, http.StatusOK, api.LogStreamResponse{Events: []api.LogEvent{}, Next: 0})
		return
	}

	query := r.URL.Query()
	since := queryUint(r, "since")
	limit := queryInt(r, "limit")
	if limit <= 0 {
		limit = 200
	}
	follow := queryBool(r, "follow")
	tail := queryBool(r, "tail")
	filter := logFilter{
		component:     strings.TrimSpace(query.Get("component")),
		group:         strings.TrimSpace(query.Get("group")),
		record:        strings.TrimSpace(query.Get("record")),
		correlationID: strings.TrimSpace(query.Get("correlation_id")),
		minLevel:      levelRank(query.Get("level")),
	}

	var (
		raw  []logging.LogEvent
		next uint64
	)
	if tail && since == 0 && !follow {
		raw, next = hub.Tail(limit)
	} else {
		ctx := r.Context()
		if follow {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, longPollTimeout)
			defer cancel()
		}
		var err error
		raw, next, err = hub.Fetch(ctx, since, limit, follow)
		if err != nil && !isWaitEnded(err) {
			s.writeError(w, http.StatusInternalServerError, "log stream unavailable", err.Error())
			return
		}
		if err != nil && r.Context().Err() != nil {
			return
		}
	}

	filtered := make([]logging.LogEvent, 0, len(raw))
	for _, evt := range raw {
		if filter.matches(evt) {
			filtered = append(filtered, evt)
		}
	}
	s.writeJSON(w, http.StatusOK, api.LogStreamResponse{
		Events: api.FromLogEvents(filtered),
		Next:   next,
	})
}

type logFilter struct {
	component     string
	group         string
	record        string
	correlationID string
	minLevel      int
}

func (f logFilter) matches(evt logging.LogEvent) bool {
	if f.component != "" && !strings.EqualFold(f.component, evt.Component) {
		return false
	}
	if !evt.Matches(f.group, f.record) {
		return false
	}
	if f.correlationID != "" && evt.CorrelationID != f.correlationID {
		return false
	}
	return levelRank(evt.Level) >= f.minLevel
}

// levelRank orders log levels; unknown or empty levels rank lowest.
func levelRank(level string) int {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return 1
	case "INFO":
		return 2
	case "WARN", "WARNING":
		return 3
	case "ERROR":
		return 4
	default:
		return 0
	}
}

func isWaitEnded(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
