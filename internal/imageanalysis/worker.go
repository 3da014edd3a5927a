package imageanalysis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"visionpipe/internal/config"
	"visionpipe/internal/fileutil"
	"visionpipe/internal/logging"
	"visionpipe/internal/media"
	"visionpipe/internal/probe"
	"visionpipe/internal/services"
	"visionpipe/internal/store"
)

// Recognizer is the subset of the visual recognition client the worker
// needs.
type Recognizer interface {
	DetectFaces(ctx context.Context, image io.Reader) ([]media.Face, error)
	Classify(ctx context.Context, image io.Reader) ([]media.Keyword, error)
}

// Worker analyzes one image document.
type Worker struct {
	cfg        *config.Config
	store      *store.Store
	recognizer Recognizer
	logger     *slog.Logger
}

// New builds the image analysis worker.
func New(cfg *config.Config, st *store.Store, recognizer Recognizer, logger *slog.Logger) *Worker {
	return &Worker{
		cfg:        cfg,
		store:      st,
		recognizer: recognizer,
		logger:     logging.NewComponentLogger(logger, "analysis"),
	}
}

// Name identifies the worker in logs and the action registry.
func (w *Worker) Name() string { return "analysis" }

// Process analyzes the image attachment and persists the merged result.
// Images that already carry an analysis are skipped.
func (w *Worker) Process(ctx context.Context, doc *media.Document) error {
	if doc.Type != media.TypeImage {
		return services.Wrap(services.ErrValidation, "analysis", "process",
			fmt.Sprintf("document %s is %s, not image", doc.ID, doc.Type), nil)
	}
	logger := logging.WithContext(ctx, w.logger)
	if doc.HasAnalysis() {
		logger.Info("image already analyzed, skipping")
		return nil
	}
	if !doc.HasAttachment(media.AttachmentImage) {
		logger.Info("image has no content yet, skipping")
		return nil
	}

	dir, err := fileutil.Scratch(w.cfg.Paths.ScratchDir, doc.ID)
	if err != nil {
		return services.Wrap(services.ErrStageIO, "analysis", "scratch", "", err)
	}
	defer fileutil.RemoveQuietly(dir)

	imagePath := filepath.Join(dir, media.AttachmentImage)
	reader, _, err := w.store.ReadAttachment(ctx, doc.ID, media.AttachmentImage)
	if err != nil {
		return services.Wrap(services.ErrStageIO, "analysis", "download", "", err)
	}
	written, err := fileutil.WriteStream(imagePath, reader)
	reader.Close()
	if err != nil {
		return services.Wrap(services.ErrStageIO, "analysis", "download", "", err)
	}

	// Oversized images get re-encoded before hitting the recognition
	// service, which rejects large payloads.
	if written > w.cfg.Extractor.MaxAnalysisImageBytes {
		logger.Info("re-encoding oversized image", logging.Int64("bytes", written))
		if imagePath, err = w.reEncode(ctx, imagePath); err != nil {
			return err
		}
	}
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return services.Wrap(services.ErrStageIO, "analysis", "download", "", err)
	}

	analysis := w.analyze(ctx, logger, imagePath, data)

	doc.Analysis = analysis
	if err := doc.Advance(media.StateAnalyzed); err != nil {
		return services.Wrap(services.ErrValidation, "analysis", "persist", "", err)
	}
	return w.store.Update(ctx, doc)
}

// analyze runs the size probe and the two service calls in parallel. Each
// failure is logged and leaves its field unset.
func (w *Worker) analyze(ctx context.Context, logger *slog.Logger, imagePath string, data []byte) *media.Analysis {
	var (
		mu       sync.Mutex
		analysis media.Analysis
	)
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		result, err := probe.Inspect(groupCtx, w.cfg.Extractor.FFprobeCommand, imagePath)
		if err != nil {
			logger.Warn("image size probe failed", logging.Error(err))
			return nil
		}
		width, height := result.Dimensions()
		if width == 0 && height == 0 {
			return nil
		}
		mu.Lock()
		analysis.Size = &media.ImageSize{Width: width, Height: height}
		mu.Unlock()
		return nil
	})
	group.Go(func() error {
		faces, err := w.recognizer.DetectFaces(groupCtx, bytes.NewReader(data))
		if err != nil {
			logger.Warn("face detection failed", logging.Error(err))
			return nil
		}
		if faces == nil {
			faces = []media.Face{}
		}
		mu.Lock()
		analysis.FaceDetection = faces
		mu.Unlock()
		return nil
	})
	group.Go(func() error {
		keywords, err := w.recognizer.Classify(groupCtx, bytes.NewReader(data))
		if err != nil {
			logger.Warn("image classification failed", logging.Error(err))
			return nil
		}
		mu.Lock()
		analysis.ImageKeywords = keywords
		mu.Unlock()
		return nil
	})
	_ = group.Wait()
	return &analysis
}

// reEncode rewrites the image at a lower jpeg quality and returns the new
// path.
func (w *Worker) reEncode(ctx context.Context, imagePath string) (string, error) {
	output := imagePath + ".reencoded.jpg"
	binary := strings.TrimSpace(w.cfg.Extractor.FFmpegCommand)
	if binary == "" {
		binary = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, binary, "-y", "-i", imagePath, "-q:v", "8", output)
	if out, err := cmd.CombinedOutput(); err != nil {
		detail := strings.TrimSpace(string(out))
		if len(detail) > 400 {
			detail = detail[len(detail)-400:]
		}
		return "", services.Wrap(services.ErrStageIO, "analysis", "re-encode", detail, err)
	}
	return output, nil
}
