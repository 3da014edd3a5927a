package speech_test

import (
	"context"
	"testing"

	"visionpipe/internal/logging"
	"visionpipe/internal/media"
	"visionpipe/internal/speech"
	"visionpipe/internal/testsupport"
)

func TestSignatureRoundTrip(t *testing.T) {
	secret := "a-secret"
	challenge := []byte("challenge-string-123")

	sig := speech.Signature(secret, challenge)
	if sig == "" {
		t.Fatal("expected non-empty signature")
	}
	if !speech.VerifySignature(secret, challenge, sig) {
		t.Fatal("signature must verify against its own message")
	}
	if speech.VerifySignature(secret, []byte("other message"), sig) {
		t.Fatal("signature must not verify a different message")
	}
	if speech.VerifySignature("wrong-secret", challenge, sig) {
		t.Fatal("signature must not verify with a different secret")
	}
}

func TestSignatureKnownVector(t *testing.T) {
	// HMAC-SHA1("secret", "challenge") base64 encoded.
	if got := speech.Signature("secret", []byte("challenge")); got != "mst3phuz6r7rGqMGwE1tuxa6SYA=" {
		t.Fatalf("unexpected signature %q", got)
	}
}

func transcriptPayload(token string, text string) speech.CallbackPayload {
	return speech.CallbackPayload{
		UserToken: token,
		Results: []media.Transcript{{
			Results: []media.TranscriptResult{{
				Final:        true,
				Alternatives: []media.TranscriptAlternative{{Transcript: text, Confidence: 0.9}},
			}},
		}},
	}
}

func TestAcceptStoresTranscript(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	video := testsupport.NewVideo(t, st, "Sample")
	audio := testsupport.NewAudio(t, st, video.ID)

	receiver := speech.NewReceiver(st, logging.NewNop())
	if err := receiver.Accept(ctx, transcriptPayload(audio.ID, "hello world")); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	fetched := testsupport.MustGet(t, st, audio.ID)
	if !fetched.HasTranscript() {
		t.Fatal("expected transcript stored")
	}
	if got := fetched.Transcript.FullText(); got != "hello world. " {
		t.Fatalf("unexpected full text %q", got)
	}
	if fetched.State != media.StateTranscriptReceived {
		t.Fatalf("expected transcript_received state, got %q", fetched.State)
	}
}

func TestAcceptIsIdempotentOverwrite(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	video := testsupport.NewVideo(t, st, "Sample")
	audio := testsupport.NewAudio(t, st, video.ID)

	receiver := speech.NewReceiver(st, logging.NewNop())
	if err := receiver.Accept(ctx, transcriptPayload(audio.ID, "hello world")); err != nil {
		t.Fatalf("first Accept failed: %v", err)
	}
	if err := receiver.Accept(ctx, transcriptPayload(audio.ID, "hello world")); err != nil {
		t.Fatalf("duplicate Accept failed: %v", err)
	}

	fetched := testsupport.MustGet(t, st, audio.ID)
	if got := fetched.Transcript.FullText(); got != "hello world. " {
		t.Fatalf("duplicate delivery must converge, got %q", got)
	}
}

func TestAcceptRejectsBadPayload(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	receiver := speech.NewReceiver(st, logging.NewNop())

	if err := receiver.Accept(context.Background(), speech.CallbackPayload{}); err == nil {
		t.Fatal("expected error for empty payload")
	}
	if err := receiver.Accept(context.Background(), speech.CallbackPayload{UserToken: "missing", Results: []media.Transcript{{}}}); err == nil {
		t.Fatal("expected error for unknown user token")
	}
}
