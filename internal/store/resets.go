package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"visionpipe/internal/media"
)

// Reset operations roll documents back to an earlier lifecycle state so the
// next qualifying change event reprocesses that portion of the pipeline.
// Each is an idempotent no-op when there is nothing to clear.

// ResetImage clears the analysis of one image so it gets re-analyzed.
func (s *Store) ResetImage(ctx context.Context, imageID string) error {
	image, err := s.Get(ctx, imageID)
	if err != nil {
		return err
	}
	if !image.HasAnalysis() && image.State != media.StateAnalyzed {
		return nil
	}
	image.Analysis = nil
	image.State = media.StateCreated
	return s.Update(ctx, image)
}

// ResetImages clears the analysis on all frames owned by a video.
func (s *Store) ResetImages(ctx context.Context, videoID string) error {
	frames, err := s.VideoFrames(ctx, videoID)
	if err != nil {
		return err
	}
	for _, frame := range frames {
		if !frame.HasAnalysis() && frame.State != media.StateAnalyzed {
			continue
		}
		frame.Analysis = nil
		frame.State = media.StateCreated
		if err := s.Update(ctx, frame); err != nil {
			return err
		}
	}
	return nil
}

// ResetAudio clears the transcript and analysis on the audio document owned
// by a video.
func (s *Store) ResetAudio(ctx context.Context, videoID string) error {
	audio, err := s.VideoAudio(ctx, videoID)
	if err != nil {
		return err
	}
	if audio == nil {
		return nil
	}
	if !audio.HasTranscript() && !audio.HasAnalysis() && audio.State == media.StateAudioExtracted {
		return nil
	}
	audio.Transcript = nil
	audio.Analysis = nil
	audio.State = media.StateAudioExtracted
	return s.Update(ctx, audio)
}

// ResetVideo deletes all documents owned by the video along with their
// attachments, removes the thumbnail, and clears metadata and frame count
// so the whole extraction reruns on the next change event.
func (s *Store) ResetVideo(ctx context.Context, videoID string) error {
	if err := s.deleteRelated(ctx, videoID); err != nil {
		return err
	}

	video, err := s.Get(ctx, videoID)
	if err != nil {
		return err
	}
	if video.HasAttachment(media.AttachmentThumbnail) {
		if err := s.DeleteAttachment(ctx, video, media.AttachmentThumbnail); err != nil {
			return err
		}
	}
	if !video.HasMetadata() && video.FrameCount == 0 && video.State == media.StateUploaded {
		return nil
	}
	video.Metadata = nil
	video.FrameCount = 0
	video.State = media.StateUploaded
	return s.Update(ctx, video)
}

// DeleteVideo removes a video together with every owned document and all
// attachments.
func (s *Store) DeleteVideo(ctx context.Context, videoID string) error {
	if err := s.deleteRelated(ctx, videoID); err != nil {
		return err
	}
	video, err := s.Get(ctx, videoID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.Delete(ctx, video)
}

// deleteRelated removes every video_id-linked document in one transaction,
// the store-level equivalent of a bulk delete.
func (s *Store) deleteRelated(ctx context.Context, videoID string) error {
	related, err := s.RelatedDocuments(ctx, videoID)
	if err != nil {
		return err
	}
	if len(related) == 0 {
		return nil
	}
	return s.withRetry(ctx, func() error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			for _, doc := range related {
				if err := deleteDocumentTx(ctx, tx, doc.ID, doc.Rev); err != nil {
					if errors.Is(err, ErrNotFound) {
						continue
					}
					return fmt.Errorf("delete related document %s: %w", doc.ID, err)
				}
			}
			return nil
		})
	})
}
