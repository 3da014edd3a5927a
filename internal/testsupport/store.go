package testsupport

import (
	"context"
	"testing"

	"visionpipe/internal/config"
	"visionpipe/internal/media"
	"visionpipe/internal/store"
)

// MustOpenStore opens a document store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewVideo inserts a fresh video document for tests.
func NewVideo(t testing.TB, st *store.Store, title string) *media.Document {
	t.Helper()

	doc := &media.Document{Type: media.TypeVideo, Title: title}
	if err := st.Insert(context.Background(), doc); err != nil {
		t.Fatalf("store.Insert video: %v", err)
	}
	return doc
}

// NewFrame inserts a frame image derived from the given video.
func NewFrame(t testing.TB, st *store.Store, videoID string, number int, timecode float64) *media.Document {
	t.Helper()

	doc := &media.Document{
		Type:          media.TypeImage,
		VideoID:       videoID,
		FrameNumber:   number,
		FrameTimecode: timecode,
	}
	if err := st.Insert(context.Background(), doc); err != nil {
		t.Fatalf("store.Insert frame: %v", err)
	}
	return doc
}

// NewAudio inserts an audio document derived from the given video.
func NewAudio(t testing.TB, st *store.Store, videoID string) *media.Document {
	t.Helper()

	doc := &media.Document{Type: media.TypeAudio, VideoID: videoID}
	if err := st.Insert(context.Background(), doc); err != nil {
		t.Fatalf("store.Insert audio: %v", err)
	}
	return doc
}

// MustGet fetches a document by id, failing the test on error.
func MustGet(t testing.TB, st *store.Store, id string) *media.Document {
	t.Helper()

	doc, err := st.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("store.Get %s: %v", id, err)
	}
	return doc
}
