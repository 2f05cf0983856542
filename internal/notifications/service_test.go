package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sony/gobreaker"

	"minutes/internal/config"
	"minutes/internal/events"
	"minutes/internal/logging"
	"minutes/internal/notifications"
)

type capturedRequest struct {
	title    string
	tags     string
	priority string
	body     string
}

func newCaptureServer(t *testing.T) (*httptest.Server, func() []capturedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []capturedRequest
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		mu.Lock()
		reqs = append(reqs, capturedRequest{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), reqs...)
	}
}

func ntfyConfig(url string) *config.Config {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = url
	cfg.Notifications.RequestTimeout = 5
	return &cfg
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventTest, nil); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:  "meeting analyzed",
			event: notifications.EventMeetingAnalyzed,
			payload: notifications.Payload{
				"sourceName":  "standup.wav",
				"actionItems": 2,
				"keyTopics":   []string{"Project Planning", "Timeline & Deadlines"},
			},
			expectTitle:   "Minutes - Meeting Analyzed",
			expectMessage: "📝 Summary ready: standup.wav\nAction items: 2\nTopics: Project Planning, Timeline & Deadlines",
			expectTags:    "minutes,summary,completed",
		},
		{
			name:  "transcription failed",
			event: notifications.EventTranscriptionFailed,
			payload: notifications.Payload{
				"sourceName": "retro.m4a",
				"error":      "engine error: exit status 1",
			},
			expectTitle:    "Minutes - Transcription Failed",
			expectMessage:  "❌ Transcription failed: retro.m4a\nengine error: exit status 1",
			expectTags:     "minutes,transcription,failed",
			expectPriority: "high",
		},
		{
			name:           "test",
			event:          notifications.EventTest,
			expectTitle:    "Minutes - Test",
			expectMessage:  "🧪 Notification system test",
			expectTags:     "minutes,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, captured := newCaptureServer(t)
			svc := notifications.NewService(ntfyConfig(server.URL))
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			reqs := captured()
			if len(reqs) != 1 {
				t.Fatalf("expected 1 request, got %d", len(reqs))
			}
			got := reqs[0]
			if got.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, got.title)
			}
			if got.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, got.body)
			}
			if got.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, got.tags)
			}
			if got.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, got.priority)
			}
		})
	}
}

func TestNtfyServiceHonoursToggles(t *testing.T) {
	server, captured := newCaptureServer(t)
	cfg := ntfyConfig(server.URL)
	cfg.Notifications.Completed = false
	cfg.Notifications.Failures = false

	svc := notifications.NewService(cfg)
	for _, event := range []notifications.Event{
		notifications.EventMeetingAnalyzed,
		notifications.EventTranscriptionFailed,
		notifications.Event("unknown"),
	} {
		if err := svc.Publish(context.Background(), event, notifications.Payload{"sourceName": "x"}); err != nil {
			t.Fatalf("expected no error for suppressed event %s, got %v", event, err)
		}
	}
	if reqs := captured(); len(reqs) != 0 {
		t.Fatalf("expected no requests, got %d", len(reqs))
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "topic quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	svc := notifications.NewService(ntfyConfig(server.URL))
	if err := svc.Publish(context.Background(), notifications.EventTest, nil); err == nil {
		t.Fatal("expected error for 429 response")
	}
}

func TestAttachForwardsBusEvents(t *testing.T) {
	server, captured := newCaptureServer(t)
	svc := notifications.NewService(ntfyConfig(server.URL))
	bus := events.New(logging.NewNop(), 16)
	detach := notifications.Attach(bus, svc, logging.NewNop())

	ctx := context.Background()
	if _, err := bus.Publish(ctx, events.SummaryCompleted{
		GroupID:     "meetings",
		ID:          "mtg_1",
		SourceName:  "standup.wav",
		SummaryText: "Meeting Summary:",
		ActionItems: []string{"John: send the report"},
		KeyTopics:   []string{"Project Planning"},
	}); err != nil {
		t.Fatalf("publish summary: %v", err)
	}
	if _, err := bus.Publish(ctx, events.TranscriptionFailed{
		GroupID:    "meetings",
		ID:         "mtg_2",
		SourceName: "retro.m4a",
		Error:      "engine error: boom",
	}); err != nil {
		t.Fatalf("publish failure: %v", err)
	}
	if err := bus.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}

	reqs := captured()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(reqs))
	}
	titles := map[string]bool{}
	for _, req := range reqs {
		titles[req.title] = true
	}
	if !titles["Minutes - Meeting Analyzed"] || !titles["Minutes - Transcription Failed"] {
		t.Fatalf("unexpected titles: %v", titles)
	}

	detach()
	if _, err := bus.Publish(ctx, events.TranscriptionFailed{GroupID: "meetings", ID: "mtg_3", Error: "x"}); err != nil {
		t.Fatalf("publish after detach: %v", err)
	}
	if err := bus.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if reqs := captured(); len(reqs) != 2 {
		t.Fatalf("expected no notification after detach, got %d", len(reqs))
	}
}

func TestNtfyBreakerSkipsAfterRepeatedFailures(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	svc := notifications.NewService(ntfyConfig(server.URL))
	payload := notifications.Payload{"sourceName": "retro.m4a", "error": "engine exited 1"}
	ctx := context.Background()
	for i := range 3 {
		if err := svc.Publish(ctx, notifications.EventTranscriptionFailed, payload); err == nil {
			t.Fatalf("publish %d: expected ntfy error", i)
		}
	}
	err := svc.Publish(ctx, notifications.EventTranscriptionFailed, payload)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open breaker, got %v", err)
	}
	if got := hits.Load(); got != 3 {
		t.Fatalf("expected 3 requests before the breaker opened, got %d", got)
	}

	if err := svc.Publish(ctx, notifications.EventTest, nil); err == nil || errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("test notification should bypass the breaker, got %v", err)
	}
	if got := hits.Load(); got != 4 {
		t.Fatalf("expected the test notification to reach ntfy, got %d requests", got)
	}
}
