package dispatch

import (
	"context"
	"errors"
	"log/slog"

	"visionpipe/internal/logging"
	"visionpipe/internal/media"
	"visionpipe/internal/store"
)

// Action names routed to the worker registry.
const (
	ActionExtractor    = "extractor"
	ActionAnalysis     = "analysis"
	ActionSpeechToText = "speechtotext"
	ActionTextAnalysis = "textanalysis"
)

// Outcome reports what the dispatcher did with one change entry. Action is
// empty when the entry was ignored, in which case Reason says why.
type Outcome struct {
	Action string
	Reason string
}

// Ignore reasons. They exist for logging and for tests asserting dispatcher
// decisions.
const (
	ReasonDeleted    = "deleted"
	ReasonGone       = "gone"
	ReasonHasChanged = "has_changed"
	ReasonNotReady   = "not_ready"
	ReasonError      = "error"
)

// Dispatcher routes change feed entries to pipeline actions.
type Dispatcher struct {
	store  *store.Store
	logger *slog.Logger
}

// New builds a dispatcher over the given store.
func New(st *store.Store, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store:  st,
		logger: logging.NewComponentLogger(logger, "dispatch"),
	}
}

// HandleChange decides the action for one feed entry. Deletions, vanished
// documents, and entries superseded by a newer revision are ignored; so are
// documents that are not ready for any pipeline step.
func (d *Dispatcher) HandleChange(ctx context.Context, change store.Change) Outcome {
	logger := d.logger.With(
		logging.String(logging.FieldDocumentID, change.ID),
		logging.Int64("seq", change.Seq),
	)

	if change.Deleted {
		logger.Debug("ignoring deletion event")
		return Outcome{Reason: ReasonDeleted}
	}

	doc, err := d.store.Get(ctx, change.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logger.Debug("document gone, ignoring")
			return Outcome{Reason: ReasonGone}
		}
		logger.Error("load changed document", logging.Error(err))
		return Outcome{Reason: ReasonError}
	}

	// A later revision already exists; its own feed entry will be (or was)
	// dispatched, so this one carries no work.
	if doc.Rev != change.Rev {
		logger.Debug("document has changed since this event",
			logging.String("event_rev", change.Rev),
			logging.String("current_rev", doc.Rev),
		)
		return Outcome{Reason: ReasonHasChanged}
	}

	action := actionFor(doc)
	if action == "" {
		logger.Debug("document not ready for any action",
			logging.String("type", string(doc.Type)),
			logging.String("state", string(doc.State)),
		)
		return Outcome{Reason: ReasonNotReady}
	}

	logger.Info("dispatching change",
		logging.String("action", action),
		logging.String("type", string(doc.Type)),
		logging.String(logging.FieldEventType, "change_dispatched"),
	)
	return Outcome{Action: action}
}

// actionFor encodes the readiness rules of the pipeline.
func actionFor(doc *media.Document) string {
	switch doc.Type {
	case media.TypeVideo:
		if doc.HasAttachment(media.AttachmentVideo) && !doc.HasMetadata() {
			return ActionExtractor
		}
	case media.TypeImage:
		if doc.HasAttachment(media.AttachmentImage) && !doc.HasAnalysis() {
			return ActionAnalysis
		}
	case media.TypeAudio:
		if doc.HasTranscript() {
			if !doc.HasAnalysis() {
				return ActionTextAnalysis
			}
			return ""
		}
		if doc.HasAttachment(media.AttachmentAudio) && doc.State != media.StateTranscriptionSubmitted {
			return ActionSpeechToText
		}
	}
	return ""
}
