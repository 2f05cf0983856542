package api

import (
	"maps"
	"slices"
	"time"

	"minutes/internal/events"
	"minutes/internal/logging"
	"minutes/internal/store"
)

// FromRecord converts a store record to its API representation.
func FromRecord(rec *store.Record) Record {
	if rec == nil {
		return Record{}
	}
	dto := Record{
		ID:                  rec.ID,
		GroupID:             rec.GroupID,
		Status:              string(rec.Status),
		Progress:            rec.Progress,
		SourceName:          rec.SourceName,
		Language:            rec.Language,
		DurationSeconds:     rec.DurationSeconds,
		TranscriptText:      rec.TranscriptText,
		Participants:        rec.Participants,
		Error:               rec.Error,
		SummaryText:         rec.SummaryText,
		ActionItems:         rec.ActionItems,
		KeyTopics:           rec.KeyTopics,
		Decisions:           rec.Decisions,
		EngineStatus:        rec.EngineStatus,
		EngineModel:         rec.EngineModel,
		ProcessingTimeMs:    rec.ProcessingTimeMs,
		TranscriptionStatus: string(rec.TranscriptionStatus),
		AnalysisStatus:      string(rec.AnalysisStatus),
		Version:             rec.Version,
		CreatedAt:           formatTime(rec.CreatedAt),
		UpdatedAt:           formatTime(rec.UpdatedAt),
	}
	if rec.Sentiment != nil {
		s := Sentiment(*rec.Sentiment)
		dto.Sentiment = &s
	}
	if rec.Insights != nil {
		in := Insights(*rec.Insights)
		dto.Insights = &in
	}
	return dto
}

// FromRecords converts a slice of store records into API DTOs.
func FromRecords(recs []*store.Record) []Record {
	out := make([]Record, 0, len(recs))
	for _, rec := range recs {
		out = append(out, FromRecord(rec))
	}
	return out
}

// FromRevisions converts record history entries.
func FromRevisions(revs []store.Revision) []Revision {
	out := make([]Revision, 0, len(revs))
	for _, rev := range revs {
		changed := rev.Changed
		if changed == nil {
			changed = []string{}
		}
		out = append(out, Revision{
			Version:      rev.Version,
			Status:       string(rev.Status),
			Progress:     rev.Progress,
			EngineStatus: rev.EngineStatus,
			Error:        rev.Error,
			Changed:      changed,
			RecordedAt:   formatTime(rev.RecordedAt),
		})
	}
	return out
}

// FromLogEvents converts hub log events for transport.
func FromLogEvents(evts []logging.LogEvent) []LogEvent {
	out := make([]LogEvent, 0, len(evts))
	for _, evt := range evts {
		out = append(out, LogEvent{
			Sequence:      evt.Sequence,
			Timestamp:     formatTime(evt.Timestamp),
			Level:         evt.Level,
			Message:       evt.Message,
			Component:     evt.Component,
			Stage:         evt.Stage,
			GroupID:       evt.GroupID,
			RecordID:      evt.RecordID,
			CorrelationID: evt.CorrelationID,
			Fields:        evt.Fields,
		})
	}
	return out
}

// FromBusStats converts bus counters, keyed by topic name.
func FromBusStats(stats events.Stats, journalNext uint64) BusStatus {
	published := make(map[string]int64, len(stats.Published))
	for topic, count := range stats.Published {
		published[string(topic)] = count
	}
	subscribers := make(map[string]int, len(stats.Subscribers))
	for topic, count := range stats.Subscribers {
		subscribers[string(topic)] = count
	}
	return BusStatus{
		Published:   published,
		Subscribers: subscribers,
		InFlight:    stats.InFlight,
		Failures:    stats.Failures,
		JournalNext: journalNext,
	}
}

// FromStatusCounts renders per-status counts with every status present.
func FromStatusCounts(counts map[store.Status]int) map[string]int {
	out := make(map[string]int, len(store.AllStatuses()))
	for _, status := range store.AllStatuses() {
		out[string(status)] = counts[status]
	}
	return out
}

// SortedCountKeys returns count keys in lifecycle order, unknown keys last.
func SortedCountKeys(counts map[string]int) []string {
	var keys []string
	for _, status := range store.AllStatuses() {
		if _, ok := counts[string(status)]; ok {
			keys = append(keys, string(status))
		}
	}
	rest := slices.Sorted(maps.Keys(counts))
	for _, key := range rest {
		if !slices.Contains(keys, key) {
			keys = append(keys, key)
		}
	}
	return keys
}

// ParseTime parses API timestamps; invalid values yield the zero time.
func ParseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
