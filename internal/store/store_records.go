package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const recordColumns = `group_id, id, status, progress, source_name, language, duration_seconds,
	transcript_text, participants, error, summary_text, action_items, key_topics, decisions,
	sentiment, insights, engine_status, engine_model, processing_time_ms,
	transcription_status, analysis_status, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// Put merges fields into the record at (groupID, id), creating it when
// absent, and returns the full merged record.
func (s *Store) Put(ctx context.Context, groupID, id string, fields Fields) (*Record, error) {
	ctx = ensureContext(ctx)
	if err := validateKey(groupID, id); err != nil {
		return nil, err
	}
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(groupID, id)
	defer unlock()

	var merged *Record
	err := s.retryOnBusy(ctx, func() error {
		rec, err := s.mergeTx(ctx, groupID, id, fields)
		if err != nil {
			return err
		}
		merged = rec
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("put record %s/%s: %w", groupID, id, err)
	}
	return merged, nil
}

func (s *Store) mergeTx(ctx context.Context, groupID, id string, fields Fields) (*Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	query := s.dialect.rebind("SELECT "+recordColumns+" FROM records WHERE group_id = ? AND id = ?") + s.dialect.forUpdate
	current, err := scanRecord(tx.QueryRowContext(ctx, query, groupID, id))
	now := time.Now().UTC()
	switch {
	case errors.Is(err, sql.ErrNoRows):
		current = &Record{
			GroupID:             groupID,
			ID:                  id,
			Status:              StatusUploading,
			TranscriptionStatus: StagePending,
			AnalysisStatus:      StagePending,
			CreatedAt:           now,
		}
	case err != nil:
		return nil, err
	}

	fields.apply(current)
	current.Version++
	current.UpdatedAt = nextTimestamp(current.UpdatedAt, now)

	if err := s.upsert(ctx, tx, current); err != nil {
		return nil, err
	}
	if err := s.appendRevision(ctx, tx, current, fields.changed()); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return current, nil
}

// nextTimestamp returns now, or one nanosecond past prev when the clock has
// not advanced.
func nextTimestamp(prev, now time.Time) time.Time {
	if !prev.IsZero() && !now.After(prev) {
		return prev.Add(time.Nanosecond)
	}
	return now
}

func (s *Store) upsert(ctx context.Context, tx *sql.Tx, rec *Record) error {
	participants, err := encodeList(rec.Participants)
	if err != nil {
		return err
	}
	actions, err := encodeList(rec.ActionItems)
	if err != nil {
		return err
	}
	topics, err := encodeList(rec.KeyTopics)
	if err != nil {
		return err
	}
	decisions, err := encodeList(rec.Decisions)
	if err != nil {
		return err
	}
	sentiment, err := encodeOptional(rec.Sentiment)
	if err != nil {
		return err
	}
	insights, err := encodeOptional(rec.Insights)
	if err != nil {
		return err
	}

	query := `INSERT INTO records (` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (group_id, id) DO UPDATE SET
			status = excluded.status,
			progress = excluded.progress,
			source_name = excluded.source_name,
			language = excluded.language,
			duration_seconds = excluded.duration_seconds,
			transcript_text = excluded.transcript_text,
			participants = excluded.participants,
			error = excluded.error,
			summary_text = excluded.summary_text,
			action_items = excluded.action_items,
			key_topics = excluded.key_topics,
			decisions = excluded.decisions,
			sentiment = excluded.sentiment,
			insights = excluded.insights,
			engine_status = excluded.engine_status,
			engine_model = excluded.engine_model,
			processing_time_ms = excluded.processing_time_ms,
			transcription_status = excluded.transcription_status,
			analysis_status = excluded.analysis_status,
			version = excluded.version,
			updated_at = excluded.updated_at`
	_, err = tx.ExecContext(ctx, s.dialect.rebind(query),
		rec.GroupID, rec.ID, string(rec.Status), rec.Progress, rec.SourceName, rec.Language, rec.DurationSeconds,
		rec.TranscriptText, participants, rec.Error, rec.SummaryText, actions, topics, decisions,
		sentiment, insights, rec.EngineStatus, rec.EngineModel, rec.ProcessingTimeMs,
		string(rec.TranscriptionStatus), string(rec.AnalysisStatus), rec.Version,
		rec.CreatedAt.UnixNano(), rec.UpdatedAt.UnixNano(),
	)
	return err
}

// Get returns the record at (groupID, id) or ErrNotFound.
func (s *Store) Get(ctx context.Context, groupID, id string) (*Record, error) {
	ctx = ensureContext(ctx)
	if err := validateKey(groupID, id); err != nil {
		return nil, err
	}
	query := s.dialect.rebind("SELECT " + recordColumns + " FROM records WHERE group_id = ? AND id = ?")
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, groupID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, groupID, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s/%s: %w", groupID, id, err)
	}
	return rec, nil
}

// List returns up to limit records of a group, most recently updated first.
// A non-positive limit uses the configured default.
func (s *Store) List(ctx context.Context, groupID string, limit int) ([]*Record, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(groupID) == "" {
		return nil, fmt.Errorf("%w: group is required", ErrInvalidKey)
	}
	query := "SELECT " + recordColumns + " FROM records WHERE group_id = ? ORDER BY updated_at DESC, id ASC LIMIT ?"
	return s.queryRecords(ctx, query, groupID, s.clampLimit(limit))
}

// Recent returns the most recently updated records across all groups.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Record, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + recordColumns + " FROM records ORDER BY updated_at DESC, id ASC LIMIT ?"
	return s.queryRecords(ctx, query, s.clampLimit(limit))
}

func (s *Store) clampLimit(limit int) int {
	if limit <= 0 {
		return s.listLimit
	}
	if limit > s.maxListLimit {
		return s.maxListLimit
	}
	return limit
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec                                   Record
		status, transcription, analysis       string
		participants, actions, topics, decide string
		sentiment, insights                   sql.NullString
		createdAt, updatedAt                  int64
	)
	err := row.Scan(
		&rec.GroupID, &rec.ID, &status, &rec.Progress, &rec.SourceName, &rec.Language, &rec.DurationSeconds,
		&rec.TranscriptText, &participants, &rec.Error, &rec.SummaryText, &actions, &topics, &decide,
		&sentiment, &insights, &rec.EngineStatus, &rec.EngineModel, &rec.ProcessingTimeMs,
		&transcription, &analysis, &rec.Version, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Status = Status(status)
	rec.TranscriptionStatus = StageStatus(transcription)
	rec.AnalysisStatus = StageStatus(analysis)
	rec.CreatedAt = time.Unix(0, createdAt).UTC()
	rec.UpdatedAt = time.Unix(0, updatedAt).UTC()

	if rec.Participants, err = decodeList(participants); err != nil {
		return nil, fmt.Errorf("decode participants: %w", err)
	}
	if rec.ActionItems, err = decodeList(actions); err != nil {
		return nil, fmt.Errorf("decode action items: %w", err)
	}
	if rec.KeyTopics, err = decodeList(topics); err != nil {
		return nil, fmt.Errorf("decode key topics: %w", err)
	}
	if rec.Decisions, err = decodeList(decide); err != nil {
		return nil, fmt.Errorf("decode decisions: %w", err)
	}
	if sentiment.Valid && sentiment.String != "" {
		rec.Sentiment = &Sentiment{}
		if err := json.Unmarshal([]byte(sentiment.String), rec.Sentiment); err != nil {
			return nil, fmt.Errorf("decode sentiment: %w", err)
		}
	}
	if insights.Valid && insights.String != "" {
		rec.Insights = &Insights{}
		if err := json.Unmarshal([]byte(insights.String), rec.Insights); err != nil {
			return nil, fmt.Errorf("decode insights: %w", err)
		}
	}
	return &rec, nil
}

func validateKey(groupID, id string) error {
	if strings.TrimSpace(groupID) == "" || strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: group and id are required", ErrInvalidKey)
	}
	return nil
}

func encodeList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return string(data), nil
}

func decodeList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "[]" || raw == "null" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeOptional[T any](value *T) (sql.NullString, error) {
	if value == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode value: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
