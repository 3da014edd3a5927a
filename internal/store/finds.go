package store

import (
	"context"
	"fmt"
	"sort"

	"visionpipe/internal/media"
)

// Videos returns all video documents, oldest first.
func (s *Store) Videos(ctx context.Context) ([]*media.Document, error) {
	return s.queryDocuments(ctx,
		`SELECT id, rev, body FROM documents WHERE type = ? ORDER BY created_at`,
		string(media.TypeVideo),
	)
}

// VideoFrames returns all frame images of a video sorted ascending by frame
// number.
func (s *Store) VideoFrames(ctx context.Context, videoID string) ([]*media.Document, error) {
	frames, err := s.queryDocuments(ctx,
		`SELECT id, rev, body FROM documents WHERE type = ? AND video_id = ?`,
		string(media.TypeImage), videoID,
	)
	if err != nil {
		return nil, err
	}
	sort.Slice(frames, func(i, j int) bool {
		return frames[i].FrameNumber < frames[j].FrameNumber
	})
	return frames, nil
}

// VideoAudio returns the audio document of a video, or nil when the video
// has no audio track.
func (s *Store) VideoAudio(ctx context.Context, videoID string) (*media.Document, error) {
	audios, err := s.queryDocuments(ctx,
		`SELECT id, rev, body FROM documents WHERE type = ? AND video_id = ? ORDER BY created_at LIMIT 1`,
		string(media.TypeAudio), videoID,
	)
	if err != nil {
		return nil, err
	}
	if len(audios) == 0 {
		return nil, nil
	}
	return audios[0], nil
}

// RelatedDocuments returns every document owned by a video (frames and
// audio), in store order.
func (s *Store) RelatedDocuments(ctx context.Context, videoID string) ([]*media.Document, error) {
	return s.queryDocuments(ctx,
		`SELECT id, rev, body FROM documents WHERE video_id = ? ORDER BY created_at`,
		videoID,
	)
}

// StandaloneImages returns images that are not derived from any video.
func (s *Store) StandaloneImages(ctx context.Context) ([]*media.Document, error) {
	return s.queryDocuments(ctx,
		`SELECT id, rev, body FROM documents WHERE type = ? AND video_id IS NULL ORDER BY created_at`,
		string(media.TypeImage),
	)
}

// TypeStatus summarizes processed/unprocessed counts for one document type.
type TypeStatus struct {
	Total       int `json:"total"`
	Processed   int `json:"processed"`
	Unprocessed int `json:"unprocessed"`
}

// Status aggregates processed/unprocessed counts per document type, the
// operator's view of pipeline health.
func (s *Store) Status(ctx context.Context) (map[media.Type]TypeStatus, error) {
	docs, err := s.queryDocuments(ctx, `SELECT id, rev, body FROM documents`)
	if err != nil {
		return nil, err
	}
	status := make(map[media.Type]TypeStatus, 3)
	for _, doc := range docs {
		entry := status[doc.Type]
		entry.Total++
		if documentProcessed(doc) {
			entry.Processed++
		} else {
			entry.Unprocessed++
		}
		status[doc.Type] = entry
	}
	return status, nil
}

func documentProcessed(doc *media.Document) bool {
	switch doc.Type {
	case media.TypeVideo:
		return doc.HasMetadata()
	case media.TypeImage, media.TypeAudio:
		return doc.HasAnalysis()
	default:
		return false
	}
}

func (s *Store) queryDocuments(ctx context.Context, query string, args ...any) ([]*media.Document, error) {
	var docs []*media.Document
	err := s.withRetry(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("query documents: %w", err)
		}
		defer rows.Close()

		docs = docs[:0]
		for rows.Next() {
			doc, err := scanDocument(rows)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}
