package textanalysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"visionpipe/internal/logging"
	"visionpipe/internal/media"
	"visionpipe/internal/services"
	"visionpipe/internal/store"
)

// Analyzer is the subset of the language understanding client the worker
// needs.
type Analyzer interface {
	Entities(ctx context.Context, text string) ([]media.TextItem, error)
	Concepts(ctx context.Context, text string) ([]media.TextItem, error)
	Emotion(ctx context.Context, text string) (map[string]float64, error)
}

// Worker analyzes the transcript of one audio document.
type Worker struct {
	store    *store.Store
	analyzer Analyzer
	logger   *slog.Logger
}

// New builds the text analysis worker.
func New(st *store.Store, analyzer Analyzer, logger *slog.Logger) *Worker {
	return &Worker{
		store:    st,
		analyzer: analyzer,
		logger:   logging.NewComponentLogger(logger, "textanalysis"),
	}
}

// Name identifies the worker in logs and the action registry.
func (w *Worker) Name() string { return "textanalysis" }

// Process analyzes the transcript text and persists the merged result.
// Audio without a transcript, or already analyzed, is skipped.
func (w *Worker) Process(ctx context.Context, doc *media.Document) error {
	if doc.Type != media.TypeAudio {
		return services.Wrap(services.ErrValidation, "textanalysis", "process",
			fmt.Sprintf("document %s is %s, not audio", doc.ID, doc.Type), nil)
	}
	logger := logging.WithContext(ctx, w.logger)
	if !doc.HasTranscript() {
		logger.Info("audio has no transcript yet, skipping")
		return nil
	}
	if doc.HasAnalysis() {
		logger.Info("transcript already analyzed, skipping")
		return nil
	}

	text := doc.Transcript.FullText()
	if strings.TrimSpace(text) == "" {
		logger.Info("transcript is empty, storing empty analysis")
		doc.Analysis = &media.Analysis{}
		if err := doc.Advance(media.StateTextAnalyzed); err != nil {
			return services.Wrap(services.ErrValidation, "textanalysis", "persist", "", err)
		}
		return w.store.Update(ctx, doc)
	}

	var (
		mu       sync.Mutex
		analysis media.Analysis
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		entities, err := w.analyzer.Entities(groupCtx, text)
		if err != nil {
			logger.Warn("entity extraction failed", logging.Error(err))
			return nil
		}
		mu.Lock()
		analysis.Entities = entities
		mu.Unlock()
		return nil
	})
	group.Go(func() error {
		concepts, err := w.analyzer.Concepts(groupCtx, text)
		if err != nil {
			logger.Warn("concept extraction failed", logging.Error(err))
			return nil
		}
		mu.Lock()
		analysis.Concepts = concepts
		mu.Unlock()
		return nil
	})
	group.Go(func() error {
		emotions, err := w.analyzer.Emotion(groupCtx, text)
		if err != nil {
			logger.Warn("emotion extraction failed", logging.Error(err))
			return nil
		}
		mu.Lock()
		analysis.Emotions = emotions
		mu.Unlock()
		return nil
	})
	_ = group.Wait()

	doc.Analysis = &analysis
	if err := doc.Advance(media.StateTextAnalyzed); err != nil {
		return services.Wrap(services.ErrValidation, "textanalysis", "persist", "", err)
	}
	return w.store.Update(ctx, doc)
}
