package textanalysis_test

import (
	"context"
	"errors"
	"testing"

	"visionpipe/internal/logging"
	"visionpipe/internal/media"
	"visionpipe/internal/store"
	"visionpipe/internal/testsupport"
	"visionpipe/internal/textanalysis"
)

type fakeAnalyzer struct {
	entities    []media.TextItem
	concepts    []media.TextItem
	emotions    map[string]float64
	entitiesErr error
	conceptsErr error
	emotionErr  error

	texts []string
}

func (f *fakeAnalyzer) Entities(ctx context.Context, text string) ([]media.TextItem, error) {
	f.texts = append(f.texts, text)
	return f.entities, f.entitiesErr
}

func (f *fakeAnalyzer) Concepts(ctx context.Context, text string) ([]media.TextItem, error) {
	return f.concepts, f.conceptsErr
}

func (f *fakeAnalyzer) Emotion(ctx context.Context, text string) (map[string]float64, error) {
	return f.emotions, f.emotionErr
}

func transcribedAudio(t *testing.T, st *store.Store, text string) *media.Document {
	t.Helper()
	video := testsupport.NewVideo(t, st, "Sample")
	audio := testsupport.NewAudio(t, st, video.ID)
	audio.Transcript = &media.Transcript{}
	if text != "" {
		audio.Transcript.Results = []media.TranscriptResult{{
			Alternatives: []media.TranscriptAlternative{{Transcript: text}},
		}}
	}
	audio.State = media.StateTranscriptReceived
	if err := st.Update(context.Background(), audio); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	return audio
}

func TestProcessAnalyzesFullText(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	audio := transcribedAudio(t, st, "we talked about cloud computing")

	analyzer := &fakeAnalyzer{
		entities: []media.TextItem{{Text: "cloud computing", Relevance: 0.9}},
		concepts: []media.TextItem{{Text: "Distributed computing", Relevance: 0.8}},
		emotions: map[string]float64{"joy": 0.6},
	}
	worker := textanalysis.New(st, analyzer, logging.NewNop())
	if err := worker.Process(context.Background(), audio); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if len(analyzer.texts) != 1 || analyzer.texts[0] != "we talked about cloud computing. " {
		t.Fatalf("unexpected analyzed text: %q", analyzer.texts)
	}

	fetched := testsupport.MustGet(t, st, audio.ID)
	if !fetched.HasAnalysis() {
		t.Fatal("expected analysis persisted")
	}
	if len(fetched.Analysis.Entities) != 1 || fetched.Analysis.Entities[0].Text != "cloud computing" {
		t.Fatalf("unexpected entities: %+v", fetched.Analysis.Entities)
	}
	if fetched.Analysis.Emotions["joy"] != 0.6 {
		t.Fatalf("unexpected emotions: %+v", fetched.Analysis.Emotions)
	}
	if fetched.State != media.StateTextAnalyzed {
		t.Fatalf("expected text_analyzed state, got %q", fetched.State)
	}
}

func TestProcessToleratesPartialFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	audio := transcribedAudio(t, st, "hello")

	analyzer := &fakeAnalyzer{
		entitiesErr: errors.New("service down"),
		concepts:    []media.TextItem{{Text: "Greeting", Relevance: 0.7}},
		emotionErr:  errors.New("service down"),
	}
	worker := textanalysis.New(st, analyzer, logging.NewNop())
	if err := worker.Process(context.Background(), audio); err != nil {
		t.Fatalf("Process must tolerate partial failure: %v", err)
	}

	fetched := testsupport.MustGet(t, st, audio.ID)
	if !fetched.HasAnalysis() {
		t.Fatal("expected analysis persisted")
	}
	if fetched.Analysis.Entities != nil || fetched.Analysis.Emotions != nil {
		t.Fatalf("failed calls must omit their fields: %+v", fetched.Analysis)
	}
	if len(fetched.Analysis.Concepts) != 1 {
		t.Fatalf("unexpected concepts: %+v", fetched.Analysis.Concepts)
	}
}

func TestProcessSkipsWithoutTranscript(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	video := testsupport.NewVideo(t, st, "Sample")
	audio := testsupport.NewAudio(t, st, video.ID)
	rev := audio.Rev

	worker := textanalysis.New(st, &fakeAnalyzer{}, logging.NewNop())
	if err := worker.Process(context.Background(), audio); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if fetched := testsupport.MustGet(t, st, audio.ID); fetched.Rev != rev {
		t.Fatal("skip must not write")
	}
}

func TestProcessSkipsAnalyzedTranscript(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	audio := transcribedAudio(t, st, "hello")
	audio.Analysis = &media.Analysis{Concepts: []media.TextItem{{Text: "Greeting", Relevance: 0.9}}}
	audio.State = media.StateTextAnalyzed
	if err := st.Update(context.Background(), audio); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	rev := audio.Rev

	worker := textanalysis.New(st, &fakeAnalyzer{}, logging.NewNop())
	if err := worker.Process(context.Background(), audio); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if fetched := testsupport.MustGet(t, st, audio.ID); fetched.Rev != rev {
		t.Fatal("skip must not write")
	}
}

func TestProcessEmptyTranscriptStoresEmptyAnalysis(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	audio := transcribedAudio(t, st, "")

	analyzer := &fakeAnalyzer{}
	worker := textanalysis.New(st, analyzer, logging.NewNop())
	if err := worker.Process(context.Background(), audio); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(analyzer.texts) != 0 {
		t.Fatal("empty transcript must not hit the service")
	}
	fetched := testsupport.MustGet(t, st, audio.ID)
	if !fetched.HasAnalysis() {
		t.Fatal("expected empty analysis persisted")
	}
}
