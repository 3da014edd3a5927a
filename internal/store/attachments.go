package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"visionpipe/internal/media"
)

// Attach stores content as the named attachment and updates the owning
// document's attachment map, bumping its revision. The document must carry
// its current revision.
//
// The content is buffered in memory for the blob insert: database/sql has
// no incremental blob writer, so an attachment briefly costs its full size
// in RAM. Sources here are short uploaded videos, sampled frames, and the
// capped audio export.
func (s *Store) Attach(ctx context.Context, doc *media.Document, name, contentType string, content io.Reader) error {
	if doc == nil || doc.ID == "" {
		return errors.New("document id is required")
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return fmt.Errorf("read attachment content: %w", err)
	}

	err = s.withRetry(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx,
			`INSERT INTO attachments (doc_id, name, content_type, length, content)
             VALUES (?, ?, ?, ?, ?)
             ON CONFLICT (doc_id, name) DO UPDATE
             SET content_type = excluded.content_type,
                 length = excluded.length,
                 content = excluded.content`,
			doc.ID, name, contentType, int64(len(data)), data,
		)
		if execErr != nil {
			return fmt.Errorf("store attachment: %w", execErr)
		}
		return nil
	})
	if err != nil {
		return err
	}

	doc.SetAttachment(name, contentType, int64(len(data)))
	return s.Update(ctx, doc)
}

// ReadAttachment returns the content of the named attachment along with its
// declared length.
func (s *Store) ReadAttachment(ctx context.Context, docID, name string) (io.ReadCloser, int64, error) {
	var (
		data   []byte
		length int64
	)
	err := s.withRetry(ctx, func() error {
		row := s.db.QueryRowContext(ctx,
			`SELECT content, length FROM attachments WHERE doc_id = ? AND name = ?`,
			docID, name,
		)
		if scanErr := row.Scan(&data, &length); scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				return ErrAttachmentNotFound
			}
			return fmt.Errorf("read attachment: %w", scanErr)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return io.NopCloser(bytes.NewReader(data)), length, nil
}

// DeleteAttachment removes the named attachment and clears it from the
// document's attachment map, bumping the revision.
func (s *Store) DeleteAttachment(ctx context.Context, doc *media.Document, name string) error {
	if doc == nil || doc.ID == "" {
		return errors.New("document id is required")
	}
	err := s.withRetry(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx,
			`DELETE FROM attachments WHERE doc_id = ? AND name = ?`, doc.ID, name,
		)
		if execErr != nil {
			return fmt.Errorf("delete attachment: %w", execErr)
		}
		return nil
	})
	if err != nil {
		return err
	}
	delete(doc.Attachments, name)
	return s.Update(ctx, doc)
}
