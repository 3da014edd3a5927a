package summary

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"visionpipe/internal/config"
	"visionpipe/internal/logging"
	"visionpipe/internal/media"
	"visionpipe/internal/store"
)

// Relevance cutoffs applied to the transcript analysis.
const (
	minEntityRelevance  = 0.55
	minConceptRelevance = 0.55
	minKeywordRelevance = 0.60
)

// colorSuffix marks classifier tags that only name a color. They carry no
// meaning in an overview and are dropped.
const colorSuffix = " color"

// Summary is the condensed view of one video and everything derived from
// it.
type Summary struct {
	Video    *media.Document   `json:"video"`
	Images   []*media.Document `json:"images"`
	Faces    []Occurrence      `json:"face_detection"`
	Keywords []Occurrence      `json:"image_keywords"`
	Audio    *media.Document   `json:"audio,omitempty"`

	// Cacheable reports whether every element finished processing, meaning
	// the summary will not change anymore.
	Cacheable bool `json:"cacheable"`
}

// Builder assembles video summaries from the store.
type Builder struct {
	store    *store.Store
	baseURL  string
	faces    Thresholds
	keywords Thresholds
	logger   *slog.Logger
}

// NewBuilder builds a summary builder with the default thresholds.
func NewBuilder(cfg *config.Config, st *store.Store, logger *slog.Logger) *Builder {
	return &Builder{
		store:    st,
		baseURL:  strings.TrimRight(cfg.Paths.BaseURL, "/"),
		faces:    FaceThresholds,
		keywords: KeywordThresholds,
		logger:   logging.NewComponentLogger(logger, "summary"),
	}
}

// Build assembles the summary for one video: the most relevant faces and
// keywords across all frames, plus the filtered transcript analysis.
func (b *Builder) Build(ctx context.Context, videoID string) (*Summary, error) {
	video, err := b.store.Get(ctx, videoID)
	if err != nil {
		return nil, err
	}
	frames, err := b.store.VideoFrames(ctx, videoID)
	if err != nil {
		return nil, err
	}
	audio, err := b.store.VideoAudio(ctx, videoID)
	if err != nil {
		return nil, err
	}

	faceGroups := make(map[string][]Occurrence)
	keywordGroups := make(map[string][]Occurrence)
	for _, frame := range frames {
		if !frame.HasAnalysis() {
			continue
		}
		for _, face := range frame.Analysis.FaceDetection {
			if face.Identity == nil || face.Identity.Name == "" {
				continue
			}
			faceGroups[face.Identity.Name] = append(faceGroups[face.Identity.Name], Occurrence{
				Name:     face.Identity.Name,
				Score:    face.Identity.Score,
				ImageID:  frame.ID,
				ImageURL: b.imageURL(frame.ID),
				Timecode: frame.FrameTimecode,
			})
		}
		for _, keyword := range frame.Analysis.ImageKeywords {
			keywordGroups[keyword.Class] = append(keywordGroups[keyword.Class], Occurrence{
				Name:     keyword.Class,
				Score:    keyword.Score,
				ImageID:  frame.ID,
				ImageURL: b.imageURL(frame.ID),
				Timecode: frame.FrameTimecode,
			})
		}
	}

	faces := FilterOccurrences(faceGroups, b.faces)
	keywords := FilterOccurrences(keywordGroups, b.keywords)
	keywords = dropColorTags(keywords)

	if audio != nil && audio.HasAnalysis() {
		audio.Analysis = filterTranscriptAnalysis(audio.Analysis)
	}

	return &Summary{
		Video:     video,
		Images:    frames,
		Faces:     faces,
		Keywords:  keywords,
		Audio:     audio,
		Cacheable: media.Complete(video, frames, audio),
	}, nil
}

func (b *Builder) imageURL(imageID string) string {
	return fmt.Sprintf("%s/api/images/%s.jpg", b.baseURL, imageID)
}

func dropColorTags(keywords []Occurrence) []Occurrence {
	kept := keywords[:0]
	for _, keyword := range keywords {
		if strings.HasSuffix(keyword.Name, colorSuffix) {
			continue
		}
		kept = append(kept, keyword)
	}
	return kept
}

// filterTranscriptAnalysis keeps only the relevant entities, concepts, and
// keywords, each list sorted by descending relevance. The source document is
// not modified.
func filterTranscriptAnalysis(analysis *media.Analysis) *media.Analysis {
	filtered := *analysis
	filtered.Entities = filterTextItems(analysis.Entities, minEntityRelevance)
	filtered.Concepts = filterTextItems(analysis.Concepts, minConceptRelevance)
	filtered.Keywords = filterTextItems(analysis.Keywords, minKeywordRelevance)
	return &filtered
}

func filterTextItems(items []media.TextItem, minRelevance float64) []media.TextItem {
	if items == nil {
		return nil
	}
	kept := make([]media.TextItem, 0, len(items))
	for _, item := range items {
		if item.Relevance > minRelevance {
			kept = append(kept, item)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Relevance > kept[j].Relevance
	})
	return kept
}
