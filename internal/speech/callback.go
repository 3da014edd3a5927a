package speech

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"log/slog"

	"visionpipe/internal/logging"
	"visionpipe/internal/media"
	"visionpipe/internal/services"
	"visionpipe/internal/store"
)

// Signature computes the base64 HMAC-SHA1 of message with the callback
// secret. The transcription service signs both the registration challenge
// and every results delivery this way.
func Signature(secret string, message []byte) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(message)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether the presented signature matches the
// message.
func VerifySignature(secret string, message []byte, signature string) bool {
	expected := Signature(secret, message)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// CallbackPayload is the body posted by the transcription service when a
// recognition job finishes.
type CallbackPayload struct {
	UserToken string             `json:"user_token"`
	Results   []media.Transcript `json:"results"`
}

// Receiver persists delivered transcripts.
type Receiver struct {
	store  *store.Store
	logger *slog.Logger
}

// NewReceiver builds the callback receiver.
func NewReceiver(st *store.Store, logger *slog.Logger) *Receiver {
	return &Receiver{
		store:  st,
		logger: logging.NewComponentLogger(logger, "speechtotext"),
	}
}

// Accept writes the delivered transcript onto the audio document named by
// the user token. The write is an idempotent overwrite: a duplicate
// delivery replaces the transcript with the same content.
func (r *Receiver) Accept(ctx context.Context, payload CallbackPayload) error {
	if payload.UserToken == "" {
		return services.Wrap(services.ErrValidation, "speechtotext", "callback",
			"user token required", nil)
	}
	if len(payload.Results) == 0 {
		return services.Wrap(services.ErrValidation, "speechtotext", "callback",
			"results required", nil)
	}

	audio, err := r.store.Get(ctx, payload.UserToken)
	if err != nil {
		return services.Wrap(services.ErrNotFound, "speechtotext", "callback",
			"audio document for user token", err)
	}

	audio.Transcript = &payload.Results[0]
	// The callback can race the submit state update, so the state is set
	// directly rather than validated as a transition.
	audio.State = media.StateTranscriptReceived
	if err := r.store.Update(ctx, audio); err != nil {
		return err
	}
	r.logger.Info("transcript stored",
		logging.String(logging.FieldDocumentID, audio.ID),
		logging.Int("utterances", len(audio.Transcript.Results)),
	)
	return nil
}
