package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"minutes/internal/engine"
	"minutes/internal/events"
	"minutes/internal/logging"
	"minutes/internal/services"
	"minutes/internal/store"
)

const (
	transcriptionStage = "transcription"

	progressStarted    = 10
	progressLoading    = 25
	progressAudio      = 50
	progressSpeakers   = 75
	progressFinalizing = 90
	progressDone       = 100
)

// TranscriptionStage drives a record from uploading to a transcript.
type TranscriptionStage struct {
	engine engine.Engine
	writer *writer
	logger *slog.Logger
	active inflight
}

// Handle is the work-accepted subscriber. Record failures are written to the
// store; the returned error only reports a malformed delivery.
func (s *TranscriptionStage) Handle(ctx context.Context, evt events.Event) error {
	payload, ok := evt.Payload.(events.WorkAccepted)
	if !ok {
		return fmt.Errorf("transcription stage: unexpected payload %T", evt.Payload)
	}
	if !s.active.acquire(payload.GroupID, payload.ID) {
		logging.WarnWithContext(s.logger, "duplicate transcription request ignored", "duplicate_delivery",
			logging.Record(payload.GroupID, payload.ID),
			logging.String(logging.FieldImpact, "the running transcription continues"),
			logging.String(logging.FieldErrorHint, "resubmit through ingress for a new run"),
		)
		return nil
	}
	defer s.active.release(payload.GroupID, payload.ID)

	ctx = services.WithStage(ctx, transcriptionStage)
	if payload.RequestID != "" {
		ctx = services.WithRequestID(ctx, payload.RequestID)
	}
	logger := logging.WithContext(ctx, s.logger)
	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("source_name", payload.SourceName),
		logging.String("model", payload.ModelHint),
	)

	s.run(ctx, logger, payload)
	return nil
}

func (s *TranscriptionStage) run(ctx context.Context, logger *slog.Logger, payload events.WorkAccepted) {
	start := time.Now()
	var tracker *progressTracker
	defer func() {
		if r := recover(); r != nil {
			tracker.close()
			s.fail(ctx, logger, payload, services.Wrap(services.ErrInternal, transcriptionStage, "transcribe", fmt.Sprint(r), nil))
		}
	}()

	if _, err := s.writer.put(ctx, payload.GroupID, payload.ID, store.Fields{
		Status:              store.Ptr(store.StatusTranscribing),
		Progress:            store.Ptr(progressStarted),
		EngineStatus:        store.Ptr("initializing"),
		TranscriptionStatus: store.Ptr(store.StageRunning),
	}); err != nil {
		s.fault(ctx, logger, payload, err)
		return
	}

	tracker = newProgressTracker(ctx, s.writer, payload.GroupID, payload.ID, progressStarted, logger)
	tracker.checkpoint(progressLoading, "loading model")

	result, err := s.engine.Transcribe(ctx, engine.Request{
		GroupID:  payload.GroupID,
		ID:       payload.ID,
		Source:   payload.SourceName,
		Language: payload.Language,
		Model:    payload.ModelHint,
		Options:  payload.EngineOptions,
	}, tracker.checkpoint)
	if err != nil {
		tracker.close()
		if trackErr := tracker.failure(); trackErr != nil {
			s.fault(ctx, logger, payload, trackErr)
			return
		}
		s.fail(ctx, logger, payload, err)
		return
	}

	// engines that stay silent still pass through the audio checkpoint
	tracker.checkpoint(progressAudio, "transcribing audio")
	tracker.checkpoint(progressSpeakers, "detecting speakers")
	tracker.checkpoint(progressFinalizing, "finalizing transcript")
	tracker.close()
	if trackErr := tracker.failure(); trackErr != nil {
		s.fault(ctx, logger, payload, trackErr)
		return
	}

	elapsed := time.Since(start).Milliseconds()
	participants := result.Participants
	if participants == nil {
		participants = []string{}
	}
	language := result.Language
	if language == "" {
		language = payload.Language
	}
	if _, err := s.writer.put(ctx, payload.GroupID, payload.ID, store.Fields{
		Status:              store.Ptr(store.StatusCompleted),
		Progress:            store.Ptr(progressDone),
		DurationSeconds:     store.Ptr(result.DurationSeconds),
		TranscriptText:      store.Ptr(result.Transcript),
		Participants:        participants,
		Language:            store.Ptr(language),
		ProcessingTimeMs:    store.Ptr(elapsed),
		EngineStatus:        store.Ptr("completed"),
		TranscriptionStatus: store.Ptr(store.StageCompleted),
	}); err != nil {
		s.fault(ctx, logger, payload, err)
		return
	}

	if err := s.writer.publish(ctx, events.TranscriptionCompleted{
		GroupID:          payload.GroupID,
		ID:               payload.ID,
		SourceName:       payload.SourceName,
		TranscriptText:   result.Transcript,
		Participants:     participants,
		DurationSeconds:  result.DurationSeconds,
		Language:         language,
		EngineModel:      payload.ModelHint,
		ProcessingTimeMs: elapsed,
	}); err != nil {
		s.fault(ctx, logger, payload, err)
		return
	}

	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(start)),
		logging.Float64("audio_seconds", result.DurationSeconds),
		logging.Int("participants", len(participants)),
		logging.Int("transcript_chars", len(result.Transcript)),
	)
}

// fail records an engine-side failure and publishes transcription-failed.
func (s *TranscriptionStage) fail(ctx context.Context, logger *slog.Logger, payload events.WorkAccepted, cause error) {
	message := strings.TrimSpace(cause.Error())
	logging.ErrorWithContext(logger, "transcription failed", "stage_failed",
		logging.String(logging.FieldErrorKind, services.Kind(cause)),
		logging.Error(cause),
		logging.String(logging.FieldErrorHint, "check the engine command and source file"),
	)
	s.terminate(ctx, logger, payload, message, services.Kind(cause))
}

// fault handles store or bus failures after retries ran out.
func (s *TranscriptionStage) fault(ctx context.Context, logger *slog.Logger, payload events.WorkAccepted, cause error) {
	logging.ErrorWithContext(logger, "transcription state update failed", "state_update_failed",
		logging.String(logging.FieldErrorKind, services.Kind(cause)),
		logging.Error(cause),
		logging.String(logging.FieldErrorHint, "check database health; record marked failed"),
	)
	s.terminate(ctx, logger, payload, internalFaultMessage, "internal")
}

func (s *TranscriptionStage) terminate(ctx context.Context, logger *slog.Logger, payload events.WorkAccepted, message, kind string) {
	fields := failedFields(message, store.Ptr(store.StageFailed), nil)
	fields.Progress = store.Ptr(0)
	if _, err := s.writer.put(ctx, payload.GroupID, payload.ID, fields); err != nil {
		logging.ErrorWithContext(logger, "could not record transcription failure", "state_update_failed",
			logging.Error(err),
			logging.Alert("record_stuck"),
			logging.String(logging.FieldErrorHint, "record remains in its last state; inspect the store"),
		)
		return
	}
	if err := s.writer.publish(ctx, events.TranscriptionFailed{
		GroupID:     payload.GroupID,
		ID:          payload.ID,
		SourceName:  payload.SourceName,
		Error:       message,
		Kind:        kind,
		EngineModel: payload.ModelHint,
	}); err != nil {
		logging.ErrorWithContext(logger, "transcription-failed publish failed", "publish_failed", logging.Error(err))
	}
}
