package store

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS documents (
        id         TEXT PRIMARY KEY,
        rev        TEXT NOT NULL,
        generation INTEGER NOT NULL,
        type       TEXT NOT NULL,
        video_id   TEXT,
        body       TEXT NOT NULL,
        created_at TEXT NOT NULL,
        updated_at TEXT NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS idx_documents_video_id ON documents (video_id)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_type ON documents (type)`,
	`CREATE TABLE IF NOT EXISTS attachments (
        doc_id       TEXT NOT NULL,
        name         TEXT NOT NULL,
        content_type TEXT NOT NULL,
        length       INTEGER NOT NULL,
        content      BLOB NOT NULL,
        PRIMARY KEY (doc_id, name)
    )`,
	`CREATE TABLE IF NOT EXISTS changes (
        seq         INTEGER PRIMARY KEY AUTOINCREMENT,
        doc_id      TEXT NOT NULL,
        rev         TEXT NOT NULL,
        deleted     INTEGER NOT NULL DEFAULT 0,
        recorded_at TEXT NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS feed_cursor (
        id  INTEGER PRIMARY KEY CHECK (id = 1),
        seq INTEGER NOT NULL
    )`,
}

func applySchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
