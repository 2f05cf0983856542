package events

import (
	"errors"
	"fmt"
	"strings"

	"minutes/internal/store"
)

// Topic names a bus channel.
type Topic string

const (
	TopicWorkAccepted           Topic = "work-accepted"
	TopicTranscriptionCompleted Topic = "transcription-completed"
	TopicTranscriptionFailed    Topic = "transcription-failed"
	TopicSummaryCompleted       Topic = "summary-completed"
	TopicActionItemsExtracted   Topic = "action-items-extracted"
)

// Topics lists every topic in pipeline order.
func Topics() []Topic {
	return []Topic{
		TopicWorkAccepted,
		TopicTranscriptionCompleted,
		TopicTranscriptionFailed,
		TopicSummaryCompleted,
		TopicActionItemsExtracted,
	}
}

// ParseTopic validates a topic name.
func ParseTopic(value string) (Topic, bool) {
	value = strings.TrimSpace(value)
	for _, topic := range Topics() {
		if string(topic) == value {
			return topic, true
		}
	}
	return "", false
}

// ErrInvalidEvent rejects malformed payloads at Publish.
var ErrInvalidEvent = errors.New("invalid event")

// Payload is implemented only by the payload types in this package.
type Payload interface {
	Topic() Topic
	Key() (groupID, id string)
	validate() error
}

// WorkAccepted carries a validated submission to the transcription stage.
type WorkAccepted struct {
	GroupID       string            `json:"groupId"`
	ID            string            `json:"id"`
	SourceName    string            `json:"sourceName"`
	Language      string            `json:"language"`
	ModelHint     string            `json:"modelHint"`
	EngineOptions map[string]string `json:"engineOptions,omitempty"`
	RequestID     string            `json:"requestId,omitempty"`
}

func (WorkAccepted) Topic() Topic { return TopicWorkAccepted }

func (p WorkAccepted) Key() (string, string) { return p.GroupID, p.ID }

func (p WorkAccepted) validate() error {
	if strings.TrimSpace(p.SourceName) == "" {
		return errors.New("sourceName is required")
	}
	return nil
}

// TranscriptionCompleted carries the engine output to the analysis stage.
type TranscriptionCompleted struct {
	GroupID          string   `json:"groupId"`
	ID               string   `json:"id"`
	TranscriptText   string   `json:"transcriptText"`
	Participants     []string `json:"participants"`
	DurationSeconds  float64  `json:"durationSeconds"`
	Language         string   `json:"language,omitempty"`
	ProcessingTimeMs int64    `json:"processingTimeMs"`
	SourceName       string   `json:"sourceName"`
	EngineModel      string   `json:"engineModel,omitempty"`
}

func (TranscriptionCompleted) Topic() Topic { return TopicTranscriptionCompleted }

func (p TranscriptionCompleted) Key() (string, string) { return p.GroupID, p.ID }

func (p TranscriptionCompleted) validate() error {
	if p.DurationSeconds < 0 {
		return errors.New("durationSeconds must not be negative")
	}
	return nil
}

// TranscriptionFailed reports a terminal transcription failure.
type TranscriptionFailed struct {
	GroupID     string `json:"groupId"`
	ID          string `json:"id"`
	SourceName  string `json:"sourceName"`
	Error       string `json:"error"`
	Kind        string `json:"kind,omitempty"`
	EngineModel string `json:"engineModel,omitempty"`
}

func (TranscriptionFailed) Topic() Topic { return TopicTranscriptionFailed }

func (p TranscriptionFailed) Key() (string, string) { return p.GroupID, p.ID }

func (p TranscriptionFailed) validate() error {
	if strings.TrimSpace(p.Error) == "" {
		return errors.New("error is required")
	}
	return nil
}

// SummaryCompleted announces the derived summary of a record.
type SummaryCompleted struct {
	GroupID     string          `json:"groupId"`
	ID          string          `json:"id"`
	SourceName  string          `json:"sourceName"`
	SummaryText string          `json:"summaryText"`
	ActionItems []string        `json:"actionItems"`
	KeyTopics   []string        `json:"keyTopics"`
	Decisions   []string        `json:"decisions,omitempty"`
	Sentiment   string          `json:"sentiment,omitempty"`
	Insights    *store.Insights `json:"insights,omitempty"`
}

func (SummaryCompleted) Topic() Topic { return TopicSummaryCompleted }

func (p SummaryCompleted) Key() (string, string) { return p.GroupID, p.ID }

func (p SummaryCompleted) validate() error {
	if strings.TrimSpace(p.SummaryText) == "" {
		return errors.New("summaryText is required")
	}
	return nil
}

// ActionItemsExtracted announces the action items of a record.
type ActionItemsExtracted struct {
	GroupID      string   `json:"groupId"`
	ID           string   `json:"id"`
	SourceName   string   `json:"sourceName"`
	ActionItems  []string `json:"actionItems"`
	Participants []string `json:"participants"`
}

func (ActionItemsExtracted) Topic() Topic { return TopicActionItemsExtracted }

func (p ActionItemsExtracted) Key() (string, string) { return p.GroupID, p.ID }

func (p ActionItemsExtracted) validate() error {
	if len(p.ActionItems) == 0 {
		return errors.New("actionItems must not be empty")
	}
	return nil
}

// Validate checks the payload shape common to every topic plus the
// topic-specific rules.
func Validate(p Payload) error {
	if p == nil {
		return fmt.Errorf("%w: nil payload", ErrInvalidEvent)
	}
	if _, ok := ParseTopic(string(p.Topic())); !ok {
		return fmt.Errorf("%w: unknown topic %q", ErrInvalidEvent, p.Topic())
	}
	group, id := p.Key()
	if strings.TrimSpace(group) == "" || strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: %s: groupId and id are required", ErrInvalidEvent, p.Topic())
	}
	if err := p.validate(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidEvent, p.Topic(), err)
	}
	return nil
}
