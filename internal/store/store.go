package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"visionpipe/internal/config"
	"visionpipe/internal/media"
)

// Store manages media document persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the document database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "media.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if err := applySchema(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Get fetches a document by identifier.
func (s *Store) Get(ctx context.Context, id string) (*media.Document, error) {
	var doc *media.Document
	err := s.withRetry(ctx, func() error {
		row := s.db.QueryRowContext(ctx, `SELECT id, rev, body FROM documents WHERE id = ?`, id)
		loaded, err := scanDocument(row)
		if err != nil {
			return err
		}
		doc = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Insert persists a new document, assigning its id (when empty), initial
// revision, and creation time, and records a change feed entry.
func (s *Store) Insert(ctx context.Context, doc *media.Document) error {
	if doc == nil {
		return errors.New("document is nil")
	}
	if doc.Type == "" {
		return errors.New("document type is required")
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.State == "" {
		doc.State = media.InitialState(doc.Type)
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.Rev = newRev(1)

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	return s.withRetry(ctx, func() error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			timestamp := now.Format(time.RFC3339Nano)
			_, err := tx.ExecContext(ctx,
				`INSERT INTO documents (id, rev, generation, type, video_id, body, created_at, updated_at)
                 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				doc.ID, doc.Rev, 1, string(doc.Type), nullableString(doc.VideoID), string(body), timestamp, timestamp,
			)
			if err != nil {
				return fmt.Errorf("insert document: %w", err)
			}
			return recordChange(ctx, tx, doc.ID, doc.Rev, false)
		})
	})
}

// Update persists changes to an existing document. The document's revision
// must match the stored one; on success the document carries its new
// revision.
func (s *Store) Update(ctx context.Context, doc *media.Document) error {
	if doc == nil {
		return errors.New("document is nil")
	}
	if doc.ID == "" || doc.Rev == "" {
		return errors.New("document id and revision are required")
	}

	generation := revGeneration(doc.Rev) + 1
	nextRev := newRev(generation)

	previous := doc.Rev
	doc.Rev = nextRev
	body, err := json.Marshal(doc)
	if err != nil {
		doc.Rev = previous
		return fmt.Errorf("marshal document: %w", err)
	}

	err = s.withRetry(ctx, func() error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			res, err := tx.ExecContext(ctx,
				`UPDATE documents
                 SET rev = ?, generation = ?, video_id = ?, body = ?, updated_at = ?
                 WHERE id = ? AND rev = ?`,
				nextRev, generation, nullableString(doc.VideoID), string(body),
				time.Now().UTC().Format(time.RFC3339Nano), doc.ID, previous,
			)
			if err != nil {
				return fmt.Errorf("update document: %w", err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			if affected == 0 {
				return s.classifyMissedUpdate(ctx, tx, doc.ID)
			}
			return recordChange(ctx, tx, doc.ID, nextRev, false)
		})
	})
	if err != nil {
		doc.Rev = previous
		return err
	}
	return nil
}

// Delete removes a document, its attachments, and records a deletion event.
// The revision must match the stored one.
func (s *Store) Delete(ctx context.Context, doc *media.Document) error {
	if doc == nil || doc.ID == "" {
		return errors.New("document id is required")
	}
	return s.withRetry(ctx, func() error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			return deleteDocumentTx(ctx, tx, doc.ID, doc.Rev)
		})
	})
}

func deleteDocumentTx(ctx context.Context, tx *sql.Tx, id, rev string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ? AND rev = ?`, id, rev)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		var exists int
		row := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM documents WHERE id = ?`, id)
		if scanErr := row.Scan(&exists); scanErr == nil && exists > 0 {
			return ErrConflict
		}
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM attachments WHERE doc_id = ?`, id); err != nil {
		return fmt.Errorf("delete attachments: %w", err)
	}
	return recordChange(ctx, tx, id, rev, true)
}

func (s *Store) classifyMissedUpdate(ctx context.Context, tx *sql.Tx, id string) error {
	var exists int
	row := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM documents WHERE id = ?`, id)
	if err := row.Scan(&exists); err != nil {
		return fmt.Errorf("classify update miss: %w", err)
	}
	if exists > 0 {
		return ErrConflict
	}
	return ErrNotFound
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func scanDocument(scanner interface{ Scan(dest ...any) error }) (*media.Document, error) {
	var (
		id   string
		rev  string
		body string
	)
	if err := scanner.Scan(&id, &rev, &body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	var doc media.Document
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document %s: %w", id, err)
	}
	doc.ID = id
	doc.Rev = rev
	return &doc, nil
}

func newRev(generation int64) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%d-%s", generation, token)
}

func revGeneration(rev string) int64 {
	prefix, _, ok := strings.Cut(rev, "-")
	if !ok {
		return 0
	}
	generation, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0
	}
	return generation
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
