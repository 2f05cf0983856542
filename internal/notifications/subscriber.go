package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"minutes/internal/events"
	"minutes/internal/logging"
)

// Attach subscribes svc to the bus topics that warrant a push notification
// and returns a function that removes the subscriptions.
func Attach(bus *events.Bus, svc Service, logger *slog.Logger) func() {
	if bus == nil || svc == nil {
		return func() {}
	}
	logger = logging.NewComponentLogger(logger, "notifications")
	unsubscribers := []func(){
		bus.Subscribe(events.TopicSummaryCompleted, "notifications", func(ctx context.Context, evt events.Event) error {
			p, ok := evt.Payload.(events.SummaryCompleted)
			if !ok {
				return fmt.Errorf("unexpected payload %T", evt.Payload)
			}
			return deliver(ctx, svc, logger, EventMeetingAnalyzed, evt, Payload{
				"sourceName":  p.SourceName,
				"actionItems": len(p.ActionItems),
				"keyTopics":   p.KeyTopics,
			})
		}),
		bus.Subscribe(events.TopicTranscriptionFailed, "notifications", func(ctx context.Context, evt events.Event) error {
			p, ok := evt.Payload.(events.TranscriptionFailed)
			if !ok {
				return fmt.Errorf("unexpected payload %T", evt.Payload)
			}
			return deliver(ctx, svc, logger, EventTranscriptionFailed, evt, Payload{
				"sourceName": p.SourceName,
				"error":      p.Error,
			})
		}),
	}
	return func() {
		for _, unsubscribe := range unsubscribers {
			unsubscribe()
		}
	}
}

func deliver(ctx context.Context, svc Service, logger *slog.Logger, event Event, evt events.Event, payload Payload) error {
	if err := svc.Publish(ctx, event, payload); err != nil {
		logging.WarnWithContext(logger, "notification failed", "notification_failed",
			logging.Record(evt.GroupID, evt.ID),
			logging.String("notification", string(event)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic and network access"),
			logging.String(logging.FieldImpact, "operator was not notified; record state is unaffected"),
		)
		return nil
	}
	logger.Debug("notification sent",
		logging.Record(evt.GroupID, evt.ID),
		logging.String("notification", string(event)),
	)
	return nil
}
