package speech

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"visionpipe/internal/config"
	"visionpipe/internal/logging"
	"visionpipe/internal/media"
	"visionpipe/internal/services"
	"visionpipe/internal/services/speechtotext"
	"visionpipe/internal/store"
)

// Submitter is the subset of the transcription client the worker needs.
type Submitter interface {
	Submit(ctx context.Context, audio io.Reader, sub speechtotext.Submission) error
}

// Worker submits audio documents for transcription.
type Worker struct {
	cfg       *config.Config
	store     *store.Store
	submitter Submitter
	logger    *slog.Logger
}

// New builds the transcription submission worker.
func New(cfg *config.Config, st *store.Store, submitter Submitter, logger *slog.Logger) *Worker {
	return &Worker{
		cfg:       cfg,
		store:     st,
		submitter: submitter,
		logger:    logging.NewComponentLogger(logger, "speechtotext"),
	}
}

// Name identifies the worker in logs and the action registry.
func (w *Worker) Name() string { return "speechtotext" }

// Process submits the audio attachment as an asynchronous recognition job
// and marks the document as submitted. Audio that was already submitted or
// already transcribed is skipped.
func (w *Worker) Process(ctx context.Context, doc *media.Document) error {
	if doc.Type != media.TypeAudio {
		return services.Wrap(services.ErrValidation, "speechtotext", "process",
			fmt.Sprintf("document %s is %s, not audio", doc.ID, doc.Type), nil)
	}
	logger := logging.WithContext(ctx, w.logger)
	if doc.HasTranscript() {
		logger.Info("audio already transcribed, skipping")
		return nil
	}
	if doc.State == media.StateTranscriptionSubmitted {
		logger.Info("transcription already submitted, skipping")
		return nil
	}
	if !doc.HasAttachment(media.AttachmentAudio) {
		logger.Info("audio has no content yet, skipping")
		return nil
	}

	reader, _, err := w.store.ReadAttachment(ctx, doc.ID, media.AttachmentAudio)
	if err != nil {
		return services.Wrap(services.ErrStageIO, "speechtotext", "download", "", err)
	}
	defer reader.Close()

	logger.Info("submitting recognition job",
		logging.String("model", doc.LanguageModel),
	)
	err = w.submitter.Submit(ctx, reader, speechtotext.Submission{
		CallbackURL:       w.cfg.CallbackURL(),
		UserToken:         doc.ID,
		LanguageModel:     doc.LanguageModel,
		ResultsTTLMinutes: w.cfg.SpeechToText.ResultsTTLMinutes,
	})
	if err != nil {
		return services.Wrap(services.ErrExternalService, "speechtotext", "submit", "", err)
	}

	if err := doc.Advance(media.StateTranscriptionSubmitted); err != nil {
		return services.Wrap(services.ErrValidation, "speechtotext", "submit", "", err)
	}
	return w.store.Update(ctx, doc)
}
