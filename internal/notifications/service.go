package notifications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"minutes/internal/config"
)

const userAgent = "minutes/0.1.0"

const (
	// breakerTrips is how many sends in a row must fail before ntfy is skipped.
	breakerTrips = 3
	// breakerCooldown is how long sends are skipped before a probe is allowed.
	breakerCooldown = time.Minute
)

// Event names a notification-worthy milestone.
type Event string

const (
	EventMeetingAnalyzed     Event = "meeting_analyzed"
	EventTranscriptionFailed Event = "transcription_failed"
	EventTest                Event = "test"
)

// Payload carries event-specific values. Missing keys render as empty.
type Payload map[string]any

// Service publishes notifications.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		completed: cfg.Notifications.Completed,
		failures:  cfg.Notifications.Failures,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "ntfy",
			MaxRequests: 1,
			Timeout:     breakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerTrips
			},
		}),
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	completed bool
	failures  bool
	// breaker skips sends after repeated failures. Test notifications
	// bypass it.
	breaker *gobreaker.CircuitBreaker
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := n.render(event, payload)
	if !ok {
		return nil
	}
	if event == EventTest || n.breaker == nil {
		return n.send(ctx, msg)
	}
	_, err := n.breaker.Execute(func() (interface{}, error) {
		return nil, n.send(ctx, msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("ntfy skipped after %d failed sends: %w", breakerTrips, err)
	}
	return err
}

func (n *ntfyService) render(event Event, payload Payload) (message, bool) {
	switch event {
	case EventMeetingAnalyzed:
		if !n.completed {
			return message{}, false
		}
		source := payloadString(payload, "sourceName")
		var body strings.Builder
		fmt.Fprintf(&body, "📝 Summary ready: %s", source)
		if count, ok := payload["actionItems"].(int); ok {
			fmt.Fprintf(&body, "\nAction items: %d", count)
		}
		if topics := payloadStrings(payload, "keyTopics"); len(topics) > 0 {
			fmt.Fprintf(&body, "\nTopics: %s", strings.Join(topics, ", "))
		}
		return message{
			title: "Minutes - Meeting Analyzed",
			body:  body.String(),
			tags:  []string{"minutes", "summary", "completed"},
		}, true
	case EventTranscriptionFailed:
		if !n.failures {
			return message{}, false
		}
		body := fmt.Sprintf("❌ Transcription failed: %s", payloadString(payload, "sourceName"))
		if errText := payloadString(payload, "error"); errText != "" {
			body += "\n" + errText
		}
		return message{
			title:    "Minutes - Transcription Failed",
			body:     body,
			tags:     []string{"minutes", "transcription", "failed"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Minutes - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"minutes", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func payloadString(payload Payload, key string) string {
	if value, ok := payload[key].(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

func payloadStrings(payload Payload, key string) []string {
	if values, ok := payload[key].([]string); ok {
		return values
	}
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
