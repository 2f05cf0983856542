package engine

import "context"

// Request identifies one transcription job.
type Request struct {
	GroupID  string
	ID       string
	Source   string
	Language string
	Model    string
	Options  map[string]string
}

// Result is the engine output the pipeline persists.
type Result struct {
	Transcript      string
	DurationSeconds float64
	Language        string
	Participants    []string
	Segments        int
}

// ProgressFunc receives engine-reported checkpoints. Percent is in 0-100;
// callers clamp and order it.
type ProgressFunc func(percent int, label string)

// Engine turns an audio reference into a transcript. Failures must wrap
// services.ErrEngine or services.ErrTimeout.
type Engine interface {
	Transcribe(ctx context.Context, req Request, progress ProgressFunc) (Result, error)
}

// Func adapts a function to the Engine interface.
type Func func(ctx context.Context, req Request, progress ProgressFunc) (Result, error)

// Transcribe calls f.
func (f Func) Transcribe(ctx context.Context, req Request, progress ProgressFunc) (Result, error) {
	return f(ctx, req, progress)
}

func report(progress ProgressFunc, percent int, label string) {
	if progress != nil {
		progress(percent, label)
	}
}
