package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Change is one entry of the at-least-once change feed.
type Change struct {
	Seq     int64
	ID      string
	Rev     string
	Deleted bool
}

func recordChange(ctx context.Context, tx *sql.Tx, docID, rev string, deleted bool) error {
	flag := 0
	if deleted {
		flag = 1
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO changes (doc_id, rev, deleted, recorded_at) VALUES (?, ?, ?, ?)`,
		docID, rev, flag, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record change: %w", err)
	}
	return nil
}

// ChangesSince returns up to limit feed entries with a sequence greater
// than since, oldest first.
func (s *Store) ChangesSince(ctx context.Context, since int64, limit int) ([]Change, error) {
	if limit <= 0 {
		limit = 50
	}
	var changes []Change
	err := s.withRetry(ctx, func() error {
		rows, err := s.db.QueryContext(ctx,
			`SELECT seq, doc_id, rev, deleted FROM changes WHERE seq > ? ORDER BY seq LIMIT ?`,
			since, limit,
		)
		if err != nil {
			return fmt.Errorf("query changes: %w", err)
		}
		defer rows.Close()

		changes = changes[:0]
		for rows.Next() {
			var (
				change  Change
				deleted int
			)
			if err := rows.Scan(&change.Seq, &change.ID, &change.Rev, &deleted); err != nil {
				return fmt.Errorf("scan change: %w", err)
			}
			change.Deleted = deleted != 0
			changes = append(changes, change)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return changes, nil
}

// FeedCursor returns the persisted dispatcher position in the change feed.
func (s *Store) FeedCursor(ctx context.Context) (int64, error) {
	var seq int64
	err := s.withRetry(ctx, func() error {
		row := s.db.QueryRowContext(ctx, `SELECT seq FROM feed_cursor WHERE id = 1`)
		if err := row.Scan(&seq); err != nil {
			if err == sql.ErrNoRows {
				seq = 0
				return nil
			}
			return fmt.Errorf("read feed cursor: %w", err)
		}
		return nil
	})
	return seq, err
}

// SetFeedCursor persists the dispatcher position in the change feed.
func (s *Store) SetFeedCursor(ctx context.Context, seq int64) error {
	return s.withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO feed_cursor (id, seq) VALUES (1, ?)
             ON CONFLICT (id) DO UPDATE SET seq = excluded.seq`,
			seq,
		)
		if err != nil {
			return fmt.Errorf("persist feed cursor: %w", err)
		}
		return nil
	})
}
