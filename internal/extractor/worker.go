package extractor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"visionpipe/internal/config"
	"visionpipe/internal/fileutil"
	"visionpipe/internal/logging"
	"visionpipe/internal/media"
	"visionpipe/internal/pipeline"
	"visionpipe/internal/probe"
	"visionpipe/internal/services"
	"visionpipe/internal/store"
)

// Worker extracts metadata, audio, frames, and a thumbnail from an uploaded
// video.
type Worker struct {
	cfg    *config.Config
	store  *store.Store
	logger *slog.Logger
}

// New builds the extraction worker.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger) *Worker {
	return &Worker{
		cfg:    cfg,
		store:  st,
		logger: logging.NewComponentLogger(logger, "extractor"),
	}
}

// Name identifies the worker in logs and the action registry.
func (w *Worker) Name() string { return "extractor" }

// session carries per-invocation scratch state across pipeline steps.
type session struct {
	dir        string
	inputPath  string
	framesDir  string
	probed     probe.Result
	cadence    media.Cadence
	frameFiles []string
}

// Process runs the full extraction for one video document. Videos that
// already carry metadata are skipped.
func (w *Worker) Process(ctx context.Context, doc *media.Document) error {
	if doc.Type != media.TypeVideo {
		return services.Wrap(services.ErrValidation, "extractor", "process",
			fmt.Sprintf("document %s is %s, not video", doc.ID, doc.Type), nil)
	}
	logger := logging.WithContext(ctx, w.logger)
	if doc.HasMetadata() {
		logger.Info("video already processed, skipping")
		return nil
	}
	if !doc.HasAttachment(media.AttachmentVideo) {
		logger.Info("video has no content yet, skipping")
		return nil
	}

	dir, err := fileutil.Scratch(w.cfg.Paths.ScratchDir, doc.ID)
	if err != nil {
		return services.Wrap(services.ErrStageIO, "extractor", "scratch", "", err)
	}
	defer fileutil.RemoveQuietly(dir)

	sess := &session{
		dir:       dir,
		inputPath: filepath.Join(dir, media.AttachmentVideo),
		framesDir: filepath.Join(dir, "frames"),
	}

	steps := []pipeline.Step{
		{Name: "download", Run: func(ctx context.Context, doc *media.Document) error {
			return w.download(ctx, logger, doc, sess)
		}},
		{Name: "probe", Run: func(ctx context.Context, doc *media.Document) error {
			return w.probeMetadata(ctx, doc, sess)
		}},
		{Name: "export-audio", Run: func(ctx context.Context, doc *media.Document) error {
			return w.exportAudio(ctx, logger, doc, sess)
		}},
		{Name: "split-frames", Run: func(ctx context.Context, doc *media.Document) error {
			return w.splitFrames(ctx, doc, sess)
		}},
		{Name: "upload-frames", Run: func(ctx context.Context, doc *media.Document) error {
			return w.uploadFrames(ctx, logger, doc, sess)
		}},
		{Name: "thumbnail", Run: func(ctx context.Context, doc *media.Document) error {
			return w.attachThumbnail(ctx, doc, sess)
		}},
	}
	return pipeline.Run(ctx, logger, doc, steps)
}

// download streams the video attachment into the scratch directory, logging
// progress every five percent.
func (w *Worker) download(ctx context.Context, logger *slog.Logger, doc *media.Document, sess *session) error {
	reader, total, err := w.store.ReadAttachment(ctx, doc.ID, media.AttachmentVideo)
	if err != nil {
		return services.Wrap(services.ErrStageIO, "extractor", "download", "", err)
	}
	defer reader.Close()

	progress := &progressReader{reader: reader, total: total, logger: logger}
	if _, err := fileutil.WriteStream(sess.inputPath, progress); err != nil {
		return services.Wrap(services.ErrStageIO, "extractor", "download", "", err)
	}
	return nil
}

// probeMetadata inspects the container and persists the metadata, marking
// the video as claimed by this extraction run.
func (w *Worker) probeMetadata(ctx context.Context, doc *media.Document, sess *session) error {
	result, err := probe.Inspect(ctx, w.cfg.Extractor.FFprobeCommand, sess.inputPath)
	if err != nil {
		return services.Wrap(services.ErrStageIO, "extractor", "probe", "", err)
	}
	sess.probed = result
	sess.cadence = media.CadenceFor(result.DurationSeconds(), w.cfg.Extractor.TargetFrameCount)

	doc.Metadata = result.Metadata()
	if err := doc.Advance(media.StateMetadataExtracted); err != nil {
		return services.Wrap(services.ErrValidation, "extractor", "probe", "", err)
	}
	return w.store.Update(ctx, doc)
}

// exportAudio writes the leading audio as vorbis, creates the audio
// document, and attaches the export. Videos without an audio stream skip
// this step.
func (w *Worker) exportAudio(ctx context.Context, logger *slog.Logger, doc *media.Document, sess *session) error {
	if !sess.probed.HasAudio() {
		logger.Info("video has no audio stream")
		return nil
	}
	audioPath := filepath.Join(sess.dir, media.AttachmentAudio)
	args := audioExportArgs(sess.inputPath, audioPath, w.cfg.Extractor.SpeechDurationSeconds)
	if err := runFFmpeg(ctx, w.cfg.Extractor.FFmpegCommand, args); err != nil {
		return err
	}

	audio := &media.Document{
		Type:          media.TypeAudio,
		VideoID:       doc.ID,
		LanguageModel: doc.LanguageModel,
	}
	if err := w.store.Insert(ctx, audio); err != nil {
		return services.Wrap(services.ErrStageIO, "extractor", "export-audio", "create audio document", err)
	}
	f, err := os.Open(audioPath)
	if err != nil {
		return services.Wrap(services.ErrStageIO, "extractor", "export-audio", "", err)
	}
	defer f.Close()
	if err := w.store.Attach(ctx, audio, media.AttachmentAudio, "audio/ogg", f); err != nil {
		return services.Wrap(services.ErrStageIO, "extractor", "export-audio", "attach audio", err)
	}
	return nil
}

// splitFrames samples the video into numbered jpg files at the cadence.
func (w *Worker) splitFrames(ctx context.Context, doc *media.Document, sess *session) error {
	if err := os.MkdirAll(sess.framesDir, 0o755); err != nil {
		return services.Wrap(services.ErrStageIO, "extractor", "split-frames", "", err)
	}
	if err := doc.Advance(media.StateFramesExtracting); err != nil {
		return services.Wrap(services.ErrValidation, "extractor", "split-frames", "", err)
	}
	if err := w.store.Update(ctx, doc); err != nil {
		return err
	}

	args := frameSplitArgs(sess.inputPath, filepath.Join(sess.framesDir, "%0d.jpg"), sess.cadence)
	if err := runFFmpeg(ctx, w.cfg.Extractor.FFmpegCommand, args); err != nil {
		return err
	}

	entries, err := os.ReadDir(sess.framesDir)
	if err != nil {
		return services.Wrap(services.ErrStageIO, "extractor", "split-frames", "", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		sess.frameFiles = append(sess.frameFiles, filepath.Join(sess.framesDir, entry.Name()))
	}
	if len(sess.frameFiles) == 0 {
		return services.Wrap(services.ErrStageIO, "extractor", "split-frames",
			"no frames produced", nil)
	}
	return nil
}

// uploadFrames creates one image document per sampled frame, uploading at
// bounded concurrency, then persists the frame count on the video.
func (w *Worker) uploadFrames(ctx context.Context, logger *slog.Logger, doc *media.Document, sess *session) error {
	concurrency := w.cfg.Extractor.FrameUploadConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)

	for _, file := range sess.frameFiles {
		file := file
		group.Go(func() error {
			return w.uploadFrame(groupCtx, doc, sess, file)
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}
	logger.Info("frames uploaded", logging.Int("count", len(sess.frameFiles)))

	doc.FrameCount = len(sess.frameFiles)
	if err := doc.Advance(media.StateFramesExtracted); err != nil {
		return services.Wrap(services.ErrValidation, "extractor", "upload-frames", "", err)
	}
	return w.store.Update(ctx, doc)
}

func (w *Worker) uploadFrame(ctx context.Context, video *media.Document, sess *session, file string) error {
	number, err := parseFrameNumber(file)
	if err != nil {
		return services.Wrap(services.ErrStageIO, "extractor", "upload-frames", "", err)
	}
	frame := &media.Document{
		Type:          media.TypeImage,
		VideoID:       video.ID,
		FrameNumber:   number,
		FrameTimecode: sess.cadence.TimecodeFor(number),
	}
	if err := w.store.Insert(ctx, frame); err != nil {
		return services.Wrap(services.ErrStageIO, "extractor", "upload-frames",
			fmt.Sprintf("create frame %d", number), err)
	}
	f, err := os.Open(file)
	if err != nil {
		return services.Wrap(services.ErrStageIO, "extractor", "upload-frames", "", err)
	}
	defer f.Close()
	if err := w.store.Attach(ctx, frame, media.AttachmentImage, "image/jpeg", f); err != nil {
		return services.Wrap(services.ErrStageIO, "extractor", "upload-frames",
			fmt.Sprintf("attach frame %d", number), err)
	}
	return nil
}

// attachThumbnail scales the middle frame down and attaches it to the video.
func (w *Worker) attachThumbnail(ctx context.Context, doc *media.Document, sess *session) error {
	candidate := middleFrame(sess.frameFiles)
	if candidate == "" {
		return nil
	}
	thumbPath := filepath.Join(sess.dir, media.AttachmentThumbnail)
	args := thumbnailArgs(candidate, thumbPath, w.cfg.Extractor.ThumbnailWidth)
	if err := runFFmpeg(ctx, w.cfg.Extractor.FFmpegCommand, args); err != nil {
		return err
	}
	f, err := os.Open(thumbPath)
	if err != nil {
		return services.Wrap(services.ErrStageIO, "extractor", "thumbnail", "", err)
	}
	defer f.Close()
	return w.store.Attach(ctx, doc, media.AttachmentThumbnail, "image/jpeg", f)
}

// progressReader logs download progress at five percent increments.
type progressReader struct {
	reader  io.Reader
	total   int64
	current int64
	last    int
	logger  *slog.Logger
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.reader.Read(buf)
	p.current += int64(n)
	if p.total > 0 {
		percent := int(p.current * 100 / p.total)
		if percent != p.last && percent%5 == 0 {
			p.last = percent
			p.logger.Debug("downloading video",
				logging.Int("percent", percent),
				logging.Int64("bytes", p.current),
				logging.Int64("total", p.total),
			)
		}
	}
	return n, err
}
