package store

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a record.
type Status string

const (
	StatusUploading    Status = "uploading"
	StatusTranscribing Status = "transcribing"
	StatusProcessing   Status = "processing"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

var allStatuses = []Status{
	StatusUploading,
	StatusTranscribing,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
}

// AllStatuses returns every known status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus converts a string into a Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// IsActive reports whether a stage is working on the record.
func (s Status) IsActive() bool {
	return s == StatusUploading || s == StatusTranscribing || s == StatusProcessing
}

// StageStatus tracks a single stage independently of the record status.
type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageRunning   StageStatus = "running"
	StageCompleted StageStatus = "completed"
	StageFailed    StageStatus = "failed"
)

// Sentiment is the lexicon-based tone estimate for a transcript.
type Sentiment struct {
	Overall            string  `json:"overall"`
	Confidence         float64 `json:"confidence"`
	PositiveIndicators int     `json:"positiveIndicators"`
	NegativeIndicators int     `json:"negativeIndicators"`
	EnergyLevel        string  `json:"energyLevel"`
}

// Insights are participation and pacing metrics for a transcript.
type Insights struct {
	ParticipationScore int    `json:"participationScore"`
	EngagementLevel    string `json:"engagementLevel"`
	MeetingEfficiency  string `json:"meetingEfficiency"`
	FollowUpNeeded     bool   `json:"followUpNeeded"`
	WordCount          int    `json:"wordCount"`
	SpeakingRate       int    `json:"speakingRate"`
	ParticipantCount   int    `json:"participantCount"`
}

// Record is the persisted state of one unit of work.
type Record struct {
	GroupID             string
	ID                  string
	Status              Status
	Progress            int
	SourceName          string
	Language            string
	DurationSeconds     float64
	TranscriptText      string
	Participants        []string
	Error               string
	SummaryText         string
	ActionItems         []string
	KeyTopics           []string
	Decisions           []string
	Sentiment           *Sentiment
	Insights            *Insights
	EngineStatus        string
	EngineModel         string
	ProcessingTimeMs    int64
	TranscriptionStatus StageStatus
	AnalysisStatus      StageStatus
	Version             int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Key renders the record address for logs and errors.
func (r *Record) Key() string {
	if r == nil {
		return ""
	}
	return r.GroupID + "/" + r.ID
}

// Fields is an additive patch. Nil pointers and nil slices leave the stored
// value untouched; a non-nil empty slice clears it.
type Fields struct {
	Status              *Status
	Progress            *int
	SourceName          *string
	Language            *string
	DurationSeconds     *float64
	TranscriptText      *string
	Participants        []string
	Error               *string
	SummaryText         *string
	ActionItems         []string
	KeyTopics           []string
	Decisions           []string
	Sentiment           *Sentiment
	Insights            *Insights
	EngineStatus        *string
	EngineModel         *string
	ProcessingTimeMs    *int64
	TranscriptionStatus *StageStatus
	AnalysisStatus      *StageStatus
}

// Ptr returns a pointer to v, for building Fields literals.
func Ptr[T any](v T) *T {
	return &v
}

// Validate rejects patches that can never produce a valid record.
func (f Fields) Validate() error {
	if f.Status != nil {
		if _, ok := ParseStatus(string(*f.Status)); !ok {
			return fmt.Errorf("%w: unknown status %q", ErrInvalidFields, *f.Status)
		}
	}
	if f.Progress != nil && (*f.Progress < 0 || *f.Progress > 100) {
		return fmt.Errorf("%w: progress %d out of range", ErrInvalidFields, *f.Progress)
	}
	if f.DurationSeconds != nil && *f.DurationSeconds < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalidFields)
	}
	return nil
}

// changed lists the patch's present fields in a stable order.
func (f Fields) changed() []string {
	var names []string
	add := func(present bool, name string) {
		if present {
			names = append(names, name)
		}
	}
	add(f.Status != nil, "status")
	add(f.Progress != nil, "progress")
	add(f.SourceName != nil, "sourceName")
	add(f.Language != nil, "language")
	add(f.DurationSeconds != nil, "durationSeconds")
	add(f.TranscriptText != nil, "transcriptText")
	add(f.Participants != nil, "participants")
	add(f.Error != nil, "error")
	add(f.SummaryText != nil, "summaryText")
	add(f.ActionItems != nil, "actionItems")
	add(f.KeyTopics != nil, "keyTopics")
	add(f.Decisions != nil, "decisions")
	add(f.Sentiment != nil, "sentiment")
	add(f.Insights != nil, "insights")
	add(f.EngineStatus != nil, "engineStatus")
	add(f.EngineModel != nil, "engineModel")
	add(f.ProcessingTimeMs != nil, "processingTimeMs")
	add(f.TranscriptionStatus != nil, "transcriptionStatus")
	add(f.AnalysisStatus != nil, "analysisStatus")
	return names
}

// apply merges the patch into rec.
func (f Fields) apply(rec *Record) {
	if f.Status != nil {
		rec.Status = *f.Status
	}
	if f.Progress != nil {
		rec.Progress = *f.Progress
	}
	if f.SourceName != nil {
		rec.SourceName = *f.SourceName
	}
	if f.Language != nil {
		rec.Language = *f.Language
	}
	if f.DurationSeconds != nil {
		rec.DurationSeconds = *f.DurationSeconds
	}
	if f.TranscriptText != nil {
		rec.TranscriptText = *f.TranscriptText
	}
	if f.Participants != nil {
		rec.Participants = cloneStrings(f.Participants)
	}
	if f.Error != nil {
		rec.Error = *f.Error
	}
	if f.SummaryText != nil {
		rec.SummaryText = *f.SummaryText
	}
	if f.ActionItems != nil {
		rec.ActionItems = cloneStrings(f.ActionItems)
	}
	if f.KeyTopics != nil {
		rec.KeyTopics = cloneStrings(f.KeyTopics)
	}
	if f.Decisions != nil {
		rec.Decisions = cloneStrings(f.Decisions)
	}
	if f.Sentiment != nil {
		s := *f.Sentiment
		rec.Sentiment = &s
	}
	if f.Insights != nil {
		in := *f.Insights
		rec.Insights = &in
	}
	if f.EngineStatus != nil {
		rec.EngineStatus = *f.EngineStatus
	}
	if f.EngineModel != nil {
		rec.EngineModel = *f.EngineModel
	}
	if f.ProcessingTimeMs != nil {
		rec.ProcessingTimeMs = *f.ProcessingTimeMs
	}
	if f.TranscriptionStatus != nil {
		rec.TranscriptionStatus = *f.TranscriptionStatus
	}
	if f.AnalysisStatus != nil {
		rec.AnalysisStatus = *f.AnalysisStatus
	}
	// error is present exactly when the record is failed
	if rec.Status != StatusFailed {
		rec.Error = ""
	} else if strings.TrimSpace(rec.Error) == "" {
		rec.Error = "unknown error"
	}
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// Revision is one entry of a record's append-only history.
type Revision struct {
	Version      int64
	Status       Status
	Progress     int
	EngineStatus string
	Error        string
	Changed      []string
	RecordedAt   time.Time
}

// HealthSummary aggregates record counts for diagnostics.
type HealthSummary struct {
	Total      int
	Active     int
	Completed  int
	Failed     int
	ByStatus   map[Status]int
	LastUpdate time.Time
}

// DatabaseHealth describes the backing database.
type DatabaseHealth struct {
	Driver          string
	Location        string
	SchemaVersion   int
	IntegrityCheck  bool
	IntegrityDetail string
	TotalRecords    int
	TotalRevisions  int
}
