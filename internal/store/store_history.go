package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

func (s *Store) appendRevision(ctx context.Context, tx *sql.Tx, rec *Record, changed []string) error {
	if changed == nil {
		changed = []string{}
	}
	encoded, err := json.Marshal(changed)
	if err != nil {
		return fmt.Errorf("encode changed fields: %w", err)
	}
	_, err = tx.ExecContext(ctx, s.dialect.rebind(`INSERT INTO record_history
		(group_id, record_id, version, status, progress, engine_status, error, changed, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		rec.GroupID, rec.ID, rec.Version, string(rec.Status), rec.Progress, rec.EngineStatus, rec.Error,
		string(encoded), rec.UpdatedAt.UnixNano(),
	)
	return err
}

// History returns every revision of a record in write order, or ErrNotFound
// when the record has never been written.
func (s *Store) History(ctx context.Context, groupID, id string) ([]Revision, error) {
	ctx = ensureContext(ctx)
	if err := validateKey(groupID, id); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(`SELECT version, status, progress, engine_status, error, changed, recorded_at
		FROM record_history WHERE group_id = ? AND record_id = ? ORDER BY version ASC`), groupID, id)
	if err != nil {
		return nil, fmt.Errorf("history %s/%s: %w", groupID, id, err)
	}
	defer rows.Close()

	var out []Revision
	for rows.Next() {
		var (
			rev        Revision
			status     string
			changed    string
			recordedAt int64
		)
		if err := rows.Scan(&rev.Version, &status, &rev.Progress, &rev.EngineStatus, &rev.Error, &changed, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		rev.Status = Status(status)
		rev.RecordedAt = time.Unix(0, recordedAt).UTC()
		if rev.Changed, err = decodeList(changed); err != nil {
			return nil, fmt.Errorf("decode changed fields: %w", err)
		}
		out = append(out, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, groupID, id)
	}
	return out, nil
}
