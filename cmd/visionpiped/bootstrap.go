package main

import (
	"log/slog"

	"visionpipe/internal/api"
	"visionpipe/internal/config"
	"visionpipe/internal/daemon"
	"visionpipe/internal/dispatch"
	"visionpipe/internal/extractor"
	"visionpipe/internal/imageanalysis"
	"visionpipe/internal/invoke"
	"visionpipe/internal/services/nlu"
	"visionpipe/internal/services/speechtotext"
	"visionpipe/internal/services/visualrecognition"
	"visionpipe/internal/speech"
	"visionpipe/internal/store"
	"visionpipe/internal/textanalysis"
)

// buildDaemon wires every worker to its action name and assembles the
// daemon around them.
func buildDaemon(cfg *config.Config, st *store.Store, logger *slog.Logger) (*daemon.Daemon, error) {
	recognizer := visualrecognition.NewClient(
		cfg.VisualRecognition.URL,
		cfg.VisualRecognition.APIKey,
		cfg.VisualRecognition.Version,
	)
	transcriber := speechtotext.NewClient(
		cfg.SpeechToText.URL,
		cfg.SpeechToText.Username,
		cfg.SpeechToText.Password,
	)
	analyzer := nlu.NewClient(cfg.TextAnalysis.URL, cfg.TextAnalysis.APIKey)

	registry := invoke.NewRegistry(st, logger)
	registry.Register(dispatch.ActionExtractor, extractor.New(cfg, st, logger))
	registry.Register(dispatch.ActionAnalysis, imageanalysis.New(cfg, st, recognizer, logger))
	registry.Register(dispatch.ActionSpeechToText, speech.New(cfg, st, transcriber, logger))
	registry.Register(dispatch.ActionTextAnalysis, textanalysis.New(st, analyzer, logger))

	poller := dispatch.NewPoller(cfg, st, dispatch.New(st, logger), registry, logger)
	server := api.New(cfg, st, logger)
	return daemon.New(cfg, st, logger, poller, registry, server)
}
