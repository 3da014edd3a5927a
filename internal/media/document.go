package media

import "time"

// Type discriminates media documents.
type Type string

const (
	TypeVideo Type = "video"
	TypeImage Type = "image"
	TypeAudio Type = "audio"
)

// Logical attachment names used throughout the pipeline.
const (
	AttachmentVideo     = "video.mp4"
	AttachmentImage     = "image.jpg"
	AttachmentAudio     = "audio.ogg"
	AttachmentThumbnail = "thumbnail.jpg"
)

// Attachment records the metadata of a binary attached to a document. The
// content itself lives in the store.
type Attachment struct {
	ContentType string `json:"content_type"`
	Length      int64  `json:"length"`
}

// Metadata holds probed container information for a video. Its presence
// marks extraction as started.
type Metadata struct {
	Format   string  `json:"format,omitempty"`
	Duration float64 `json:"duration"`
	Width    int     `json:"width,omitempty"`
	Height   int     `json:"height,omitempty"`
}

// Document is one media record in the store.
type Document struct {
	ID        string    `json:"_id"`
	Rev       string    `json:"_rev,omitempty"`
	Type      Type      `json:"type"`
	State     State     `json:"state,omitempty"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`

	// VideoID links frames and audio tracks to their owning video.
	VideoID string `json:"video_id,omitempty"`

	// Frame fields, set on images derived from a video.
	FrameNumber   int     `json:"frame_number,omitempty"`
	FrameTimecode float64 `json:"frame_timecode,omitempty"`

	// FrameCount is set once on the video after all frames are uploaded.
	FrameCount int `json:"frame_count,omitempty"`

	// LanguageModel optionally selects the speech recognition model. Set on
	// the video at upload, inherited by the derived audio document.
	LanguageModel string `json:"language_model,omitempty"`

	Metadata    *Metadata             `json:"metadata,omitempty"`
	Analysis    *Analysis             `json:"analysis,omitempty"`
	Transcript  *Transcript           `json:"transcript,omitempty"`
	Attachments map[string]Attachment `json:"attachments,omitempty"`
}

// HasAttachment reports whether the named attachment is present.
func (d *Document) HasAttachment(name string) bool {
	if d == nil {
		return false
	}
	_, ok := d.Attachments[name]
	return ok
}

// HasMetadata reports whether extraction has started for a video.
func (d *Document) HasMetadata() bool { return d != nil && d.Metadata != nil }

// HasAnalysis reports whether analysis completed for an image or audio track.
func (d *Document) HasAnalysis() bool { return d != nil && d.Analysis != nil }

// HasTranscript reports whether speech recognition results arrived for an
// audio track.
func (d *Document) HasTranscript() bool { return d != nil && d.Transcript != nil }

// SetAttachment records attachment metadata on the document.
func (d *Document) SetAttachment(name, contentType string, length int64) {
	if d.Attachments == nil {
		d.Attachments = make(map[string]Attachment, 1)
	}
	d.Attachments[name] = Attachment{ContentType: contentType, Length: length}
}
