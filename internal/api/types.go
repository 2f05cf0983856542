package api

import (
	"minutes/internal/events"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Record describes a meeting record in a transport-friendly format.
type Record struct {
	ID                  string     `json:"id"`
	GroupID             string     `json:"groupId"`
	Status              string     `json:"status"`
	Progress            int        `json:"progress"`
	SourceName          string     `json:"sourceName"`
	Language            string     `json:"language,omitempty"`
	DurationSeconds     float64    `json:"durationSeconds"`
	TranscriptText      string     `json:"transcriptText,omitempty"`
	Participants        []string   `json:"participants,omitempty"`
	Error               string     `json:"error,omitempty"`
	SummaryText         string     `json:"summaryText,omitempty"`
	ActionItems         []string   `json:"actionItems,omitempty"`
	KeyTopics           []string   `json:"keyTopics,omitempty"`
	Decisions           []string   `json:"decisions,omitempty"`
	Sentiment           *Sentiment `json:"sentiment,omitempty"`
	Insights            *Insights  `json:"insights,omitempty"`
	EngineStatus        string     `json:"engineStatus,omitempty"`
	EngineModel         string     `json:"engineModel,omitempty"`
	ProcessingTimeMs    int64      `json:"processingTimeMs"`
	TranscriptionStatus string     `json:"transcriptionStatus,omitempty"`
	AnalysisStatus      string     `json:"analysisStatus,omitempty"`
	Version             int64      `json:"version"`
	CreatedAt           string     `json:"createdAt,omitempty"`
	UpdatedAt           string     `json:"updatedAt,omitempty"`
}

// Sentiment mirrors the lexicon tone estimate.
type Sentiment struct {
	Overall            string  `json:"overall"`
	Confidence         float64 `json:"confidence"`
	PositiveIndicators int     `json:"positiveIndicators"`
	NegativeIndicators int     `json:"negativeIndicators"`
	EnergyLevel        string  `json:"energyLevel"`
}

// Insights mirrors the meeting pacing metrics.
type Insights struct {
	ParticipationScore int    `json:"participationScore"`
	EngagementLevel    string `json:"engagementLevel"`
	MeetingEfficiency  string `json:"meetingEfficiency"`
	FollowUpNeeded     bool   `json:"followUpNeeded"`
	WordCount          int    `json:"wordCount"`
	SpeakingRate       int    `json:"speakingRate"`
	ParticipantCount   int    `json:"participantCount"`
}

// Revision is one history entry of a record.
type Revision struct {
	Version      int64    `json:"version"`
	Status       string   `json:"status"`
	Progress     int      `json:"progress"`
	EngineStatus string   `json:"engineStatus,omitempty"`
	Error        string   `json:"error,omitempty"`
	Changed      []string `json:"changed"`
	RecordedAt   string   `json:"recordedAt"`
}

// SubmitRequest is the body of POST /api/transcriptions.
type SubmitRequest struct {
	SourceName    string            `json:"sourceName"`
	Language      string            `json:"language,omitempty"`
	ModelHint     string            `json:"modelHint,omitempty"`
	EngineOptions map[string]string `json:"engineOptions,omitempty"`
	GroupID       string            `json:"groupId,omitempty"`
}

// SubmitResponse acknowledges an accepted submission.
type SubmitResponse struct {
	ID      string `json:"id"`
	GroupID string `json:"groupId"`
	Status  string `json:"status"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// RecordListResponse wraps a collection of records.
type RecordListResponse struct {
	Records []Record `json:"records"`
}

// RecordResponse wraps a single record.
type RecordResponse struct {
	Record Record `json:"record"`
}

// HistoryResponse wraps a record's revisions, oldest first.
type HistoryResponse struct {
	GroupID   string     `json:"groupId"`
	ID        string     `json:"id"`
	Revisions []Revision `json:"revisions"`
}

// EventStreamResponse is one page of the bus journal.
type EventStreamResponse struct {
	Events []events.Event `json:"events"`
	Next   uint64         `json:"next"`
}

// LogEvent is one structured log line.
type LogEvent struct {
	Sequence      uint64            `json:"seq"`
	Timestamp     string            `json:"ts"`
	Level         string            `json:"level"`
	Message       string            `json:"msg"`
	Component     string            `json:"component,omitempty"`
	Stage         string            `json:"stage,omitempty"`
	GroupID       string            `json:"groupId,omitempty"`
	RecordID      string            `json:"recordId,omitempty"`
	CorrelationID string            `json:"correlationId,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`
}

// LogStreamResponse is one page of the daemon log stream.
type LogStreamResponse struct {
	Events []LogEvent `json:"events"`
	Next   uint64     `json:"next"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// BusStatus summarizes event bus activity.
type BusStatus struct {
	Published   map[string]int64 `json:"published"`
	Subscribers map[string]int   `json:"subscribers"`
	InFlight    int64            `json:"inFlight"`
	Failures    int64            `json:"failures"`
	JournalNext uint64           `json:"journalNext"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running       bool               `json:"running"`
	PID           int                `json:"pid"`
	StartedAt     string             `json:"startedAt,omitempty"`
	UptimeSeconds int64              `json:"uptimeSeconds"`
	StoreDriver   string             `json:"storeDriver"`
	StoreLocation string             `json:"storeLocation"`
	LockFilePath  string             `json:"lockFilePath"`
	DefaultGroup  string             `json:"defaultGroup"`
	Counts        map[string]int     `json:"counts"`
	Active        int                `json:"active"`
	Recent        []Record           `json:"recent"`
	Bus           BusStatus          `json:"bus"`
	Dependencies  []DependencyStatus `json:"dependencies"`
}

// NotificationResponse reports the outcome of a test notification.
type NotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
