package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event is a published payload plus its journal envelope.
type Event struct {
	Seq       uint64
	Topic     Topic
	GroupID   string
	ID        string
	Timestamp time.Time
	Payload   Payload
}

type eventJSON struct {
	Seq       uint64          `json:"seq"`
	Topic     Topic           `json:"topic"`
	GroupID   string          `json:"groupId"`
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// MarshalJSON renders the envelope with the payload under "data".
func (e Event) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", e.Topic, err)
	}
	return json.Marshal(eventJSON{
		Seq:       e.Seq,
		Topic:     e.Topic,
		GroupID:   e.GroupID,
		ID:        e.ID,
		Timestamp: e.Timestamp,
		Data:      data,
	})
}

// UnmarshalJSON decodes an envelope and its typed payload.
func (e *Event) UnmarshalJSON(raw []byte) error {
	var env eventJSON
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}
	payload, err := decodePayload(env.Topic, env.Data)
	if err != nil {
		return err
	}
	*e = Event{
		Seq:       env.Seq,
		Topic:     env.Topic,
		GroupID:   env.GroupID,
		ID:        env.ID,
		Timestamp: env.Timestamp,
		Payload:   payload,
	}
	return nil
}

func decodePayload(topic Topic, data json.RawMessage) (Payload, error) {
	var target Payload
	switch topic {
	case TopicWorkAccepted:
		var p WorkAccepted
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		target = p
	case TopicTranscriptionCompleted:
		var p TranscriptionCompleted
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		target = p
	case TopicTranscriptionFailed:
		var p TranscriptionFailed
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		target = p
	case TopicSummaryCompleted:
		var p SummaryCompleted
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		target = p
	case TopicActionItemsExtracted:
		var p ActionItemsExtracted
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		target = p
	default:
		return nil, fmt.Errorf("%w: unknown topic %q", ErrInvalidEvent, topic)
	}
	return target, nil
}

// Matches reports whether the event concerns the given record. Empty filters
// match everything.
func (e Event) Matches(groupID, id string) bool {
	if groupID != "" && e.GroupID != groupID {
		return false
	}
	if id != "" && e.ID != id {
		return false
	}
	return true
}
