package pipeline

import (
	"errors"
	"log/slog"
	"time"

	"minutes/internal/analysis"
	"minutes/internal/config"
	"minutes/internal/engine"
	"minutes/internal/events"
	"minutes/internal/logging"
	"minutes/internal/store"
)

// Options wires a Pipeline.
type Options struct {
	Config   *config.Config
	Store    *store.Store
	Bus      *events.Bus
	Engine   engine.Engine
	Analyzer Analyzer
	Logger   *slog.Logger
}

// Pipeline owns the ingress and the two event-driven stages.
type Pipeline struct {
	ingress       *Ingress
	transcription *TranscriptionStage
	analysis      *AnalysisStage
	bus           *events.Bus
	unsubscribe   []func()
}

// New validates opts and builds the stages. Call Start to subscribe them.
func New(opts Options) (*Pipeline, error) {
	switch {
	case opts.Config == nil:
		return nil, errors.New("pipeline: config is required")
	case opts.Store == nil:
		return nil, errors.New("pipeline: store is required")
	case opts.Bus == nil:
		return nil, errors.New("pipeline: event bus is required")
	case opts.Engine == nil:
		return nil, errors.New("pipeline: engine is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	analyzer := opts.Analyzer
	if analyzer == nil {
		analyzer = analysis.Analyze
	}

	cfg := opts.Config
	newWriter := func(component string) *writer {
		return &writer{
			store:    opts.Store,
			bus:      opts.Bus,
			attempts: cfg.Workflow.WriteRetryAttempts,
			backoff:  time.Duration(cfg.Workflow.WriteRetryBackoffMS) * time.Millisecond,
			logger:   logging.NewComponentLogger(logger, component),
		}
	}

	return &Pipeline{
		ingress: newIngress(opts.Store, newWriter("ingress"), Defaults{
			GroupID:  cfg.Pipeline.DefaultGroup,
			Language: cfg.Pipeline.DefaultLanguage,
			Model:    cfg.Engine.DefaultModel,
		}, logging.NewComponentLogger(logger, "ingress")),
		transcription: &TranscriptionStage{
			engine: opts.Engine,
			writer: newWriter(transcriptionStage),
			logger: logging.NewComponentLogger(logger, transcriptionStage),
		},
		analysis: &AnalysisStage{
			analyze: analyzer,
			writer:  newWriter(analysisStage),
			logger:  logging.NewComponentLogger(logger, analysisStage),
		},
		bus: opts.Bus,
	}, nil
}

// Ingress returns the submission entry point.
func (p *Pipeline) Ingress() *Ingress {
	return p.ingress
}

// Start subscribes the stages to the bus.
func (p *Pipeline) Start() {
	if len(p.unsubscribe) > 0 {
		return
	}
	p.unsubscribe = append(p.unsubscribe,
		p.bus.Subscribe(events.TopicWorkAccepted, transcriptionStage, p.transcription.Handle),
		p.bus.Subscribe(events.TopicTranscriptionCompleted, analysisStage, p.analysis.Handle),
	)
}

// Stop removes the stage subscriptions. Deliveries already scheduled still
// run; drain the bus to wait for them.
func (p *Pipeline) Stop() {
	for _, unsubscribe := range p.unsubscribe {
		unsubscribe()
	}
	p.unsubscribe = nil
}

// Active reports in-flight stage executions.
func (p *Pipeline) Active() (transcriptions, analyses int) {
	return p.transcription.active.count(), p.analysis.active.count()
}
