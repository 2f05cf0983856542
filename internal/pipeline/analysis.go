package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"minutes/internal/analysis"
	"minutes/internal/events"
	"minutes/internal/logging"
	"minutes/internal/services"
	"minutes/internal/store"
)

const analysisStage = "analysis"

// Analyzer derives insights from a transcript.
type Analyzer func(transcript string, participants []string, durationSeconds float64) analysis.Result

// AnalysisStage overlays derived fields onto a transcribed record.
type AnalysisStage struct {
	analyze Analyzer
	writer  *writer
	logger  *slog.Logger
	active  inflight
}

// Handle is the transcription-completed subscriber.
func (s *AnalysisStage) Handle(ctx context.Context, evt events.Event) error {
	payload, ok := evt.Payload.(events.TranscriptionCompleted)
	if !ok {
		return fmt.Errorf("analysis stage: unexpected payload %T", evt.Payload)
	}
	if !s.active.acquire(payload.GroupID, payload.ID) {
		logging.WarnWithContext(s.logger, "duplicate analysis request ignored", "duplicate_delivery",
			logging.Record(payload.GroupID, payload.ID),
			logging.String(logging.FieldImpact, "the running analysis continues"),
		)
		return nil
	}
	defer s.active.release(payload.GroupID, payload.ID)

	ctx = services.WithStage(ctx, analysisStage)
	logger := logging.WithContext(ctx, s.logger)
	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.Int("transcript_chars", len(payload.TranscriptText)),
	)

	start := time.Now()
	if _, err := s.writer.put(ctx, payload.GroupID, payload.ID, store.Fields{
		Status:         store.Ptr(store.StatusProcessing),
		Progress:       store.Ptr(progressDone),
		EngineStatus:   store.Ptr("analyzing"),
		AnalysisStatus: store.Ptr(store.StageRunning),
	}); err != nil {
		s.fail(ctx, logger, payload, err)
		return nil
	}

	result, err := s.safeAnalyze(payload)
	if err != nil {
		s.fail(ctx, logger, payload, err)
		return nil
	}

	sentiment := store.Sentiment(result.Sentiment)
	insights := store.Insights(result.Insights)
	if _, err := s.writer.put(ctx, payload.GroupID, payload.ID, store.Fields{
		Status:           store.Ptr(store.StatusCompleted),
		Progress:         store.Ptr(progressDone),
		SummaryText:      store.Ptr(result.SummaryText),
		ActionItems:      result.ActionItems,
		KeyTopics:        result.KeyTopics,
		Decisions:        result.Decisions,
		Sentiment:        &sentiment,
		Insights:         &insights,
		ProcessingTimeMs: store.Ptr(time.Since(start).Milliseconds()),
		EngineStatus:     store.Ptr("completed"),
		AnalysisStatus:   store.Ptr(store.StageCompleted),
	}); err != nil {
		s.fail(ctx, logger, payload, err)
		return nil
	}

	if err := s.writer.publish(ctx, events.SummaryCompleted{
		GroupID:     payload.GroupID,
		ID:          payload.ID,
		SourceName:  payload.SourceName,
		SummaryText: result.SummaryText,
		ActionItems: result.ActionItems,
		KeyTopics:   result.KeyTopics,
		Decisions:   result.Decisions,
		Sentiment:   result.Sentiment.Overall,
		Insights:    &insights,
	}); err != nil {
		s.fail(ctx, logger, payload, err)
		return nil
	}
	if err := s.writer.publish(ctx, events.ActionItemsExtracted{
		GroupID:      payload.GroupID,
		ID:           payload.ID,
		SourceName:   payload.SourceName,
		ActionItems:  result.ActionItems,
		Participants: payload.Participants,
	}); err != nil {
		s.fail(ctx, logger, payload, err)
		return nil
	}

	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(start)),
		logging.Int("action_items", len(result.ActionItems)),
		logging.Int("topics", len(result.KeyTopics)),
		logging.String("sentiment", result.Sentiment.Overall),
	)
	return nil
}

func (s *AnalysisStage) safeAnalyze(payload events.TranscriptionCompleted) (result analysis.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.analyze(payload.TranscriptText, payload.Participants, payload.DurationSeconds), nil
}

// fail marks the record failed. Store and bus faults get the generic message.
func (s *AnalysisStage) fail(ctx context.Context, logger *slog.Logger, payload events.TranscriptionCompleted, cause error) {
	message := "analysis failed: " + cause.Error()
	if errors.Is(cause, services.ErrInternal) {
		message = internalFaultMessage
	}
	logging.ErrorWithContext(logger, "analysis failed", "stage_failed",
		logging.String(logging.FieldErrorKind, services.Kind(cause)),
		logging.Error(cause),
		logging.String(logging.FieldErrorHint, "transcript is kept; resubmit to retry"),
	)
	if _, err := s.writer.put(ctx, payload.GroupID, payload.ID, failedFields(message, nil, store.Ptr(store.StageFailed))); err != nil {
		logging.ErrorWithContext(logger, "could not record analysis failure", "state_update_failed",
			logging.Error(err),
			logging.Alert("record_stuck"),
		)
	}
}
