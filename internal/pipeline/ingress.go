package pipeline

import (
	"context"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"minutes/internal/events"
	"minutes/internal/language"
	"minutes/internal/logging"
	"minutes/internal/services"
	"minutes/internal/store"
)

// Request is a transcription submission.
type Request struct {
	SourceName    string            `json:"sourceName" validate:"required"`
	Language      string            `json:"language,omitempty" validate:"omitempty,max=35"`
	ModelHint     string            `json:"modelHint,omitempty" validate:"omitempty,modelhint"`
	EngineOptions map[string]string `json:"engineOptions,omitempty"`
	GroupID       string            `json:"groupId,omitempty" validate:"omitempty,max=128,excludesall=/?#"`
}

// Ack is returned as soon as the submission is recorded.
type Ack struct {
	ID      string `json:"id"`
	GroupID string `json:"groupId"`
	Status  string `json:"status"`
}

// AckStatus is the status reported to submitters; downstream work has not
// started yet.
const AckStatus = "processing"

// Defaults fill omitted request fields.
type Defaults struct {
	GroupID  string
	Language string
	Model    string
}

// Ingress accepts submissions.
type Ingress struct {
	store    *store.Store
	writer   *writer
	validate *validator.Validate
	defaults Defaults
	logger   *slog.Logger
	now      func() time.Time
}

func newIngress(st *store.Store, w *writer, defaults Defaults, logger *slog.Logger) *Ingress {
	return &Ingress{
		store:    st,
		writer:   w,
		validate: newValidator(),
		defaults: defaults,
		logger:   logger,
		now:      time.Now,
	}
}

// Submit validates req, creates the record, and publishes work-accepted. It
// returns a *ValidationError for bad input and never waits for transcription.
func (in *Ingress) Submit(ctx context.Context, req Request) (Ack, error) {
	req = in.normalize(req)
	if err := in.validate.Struct(req); err != nil {
		return Ack{}, toValidationError(err)
	}

	id, err := NewID(in.now())
	if err != nil {
		return Ack{}, services.Wrap(services.ErrInternal, "ingress", "allocate id", "", err)
	}
	requestID, _ := services.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	ctx = services.WithRecord(ctx, req.GroupID, id)
	ctx = services.WithStage(services.WithRequestID(ctx, requestID), "ingress")
	logger := logging.WithContext(ctx, in.logger)

	if _, err := in.store.Put(ctx, req.GroupID, id, store.Fields{
		Status:              store.Ptr(store.StatusUploading),
		Progress:            store.Ptr(0),
		SourceName:          store.Ptr(req.SourceName),
		Language:            store.Ptr(req.Language),
		EngineModel:         store.Ptr(req.ModelHint),
		TranscriptionStatus: store.Ptr(store.StagePending),
		AnalysisStatus:      store.Ptr(store.StagePending),
	}); err != nil {
		return Ack{}, services.Wrap(services.ErrInternal, "ingress", "create record", "", err)
	}

	accepted := events.WorkAccepted{
		GroupID:       req.GroupID,
		ID:            id,
		SourceName:    req.SourceName,
		Language:      req.Language,
		ModelHint:     req.ModelHint,
		EngineOptions: maps.Clone(req.EngineOptions),
		RequestID:     requestID,
	}
	if err := in.writer.publish(ctx, accepted); err != nil {
		logging.ErrorWithContext(logger, "work-accepted publish failed", "publish_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check event bus state; record marked failed"),
		)
		_, _ = in.writer.put(context.WithoutCancel(ctx), req.GroupID, id, failedFields(internalFaultMessage, store.Ptr(store.StageFailed), nil))
		return Ack{}, err
	}

	logger.Info("submission accepted",
		logging.String(logging.FieldEventType, "submission_accepted"),
		logging.String("source_name", req.SourceName),
		logging.String("language", req.Language),
		logging.String("model", req.ModelHint),
	)
	return Ack{ID: id, GroupID: req.GroupID, Status: AckStatus}, nil
}

func (in *Ingress) normalize(req Request) Request {
	req.SourceName = strings.TrimSpace(req.SourceName)
	req.Language = language.Normalize(req.Language)
	req.ModelHint = strings.ToLower(strings.TrimSpace(req.ModelHint))
	req.GroupID = strings.TrimSpace(req.GroupID)
	if req.Language == "" {
		req.Language = in.defaults.Language
	}
	if req.ModelHint == "" {
		req.ModelHint = in.defaults.Model
	}
	if req.GroupID == "" {
		req.GroupID = in.defaults.GroupID
	}
	return req
}

// failedFields builds the terminal failure patch. Stage status pointers are
// optional so callers mark only the stage that failed.
func failedFields(message string, transcription, analysis *store.StageStatus) store.Fields {
	return store.Fields{
		Status:              store.Ptr(store.StatusFailed),
		Error:               store.Ptr(message),
		EngineStatus:        store.Ptr("failed"),
		TranscriptionStatus: transcription,
		AnalysisStatus:      analysis,
	}
}
