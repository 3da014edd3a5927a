package dispatch_test

import (
	"context"
	"strings"
	"testing"

	"visionpipe/internal/dispatch"
	"visionpipe/internal/logging"
	"visionpipe/internal/media"
	"visionpipe/internal/testsupport"
)

func TestDrainDispatchesAndAdvancesCursor(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	video := testsupport.NewVideo(t, st, "Sample")
	if err := st.Attach(ctx, video, media.AttachmentVideo, "video/mp4", strings.NewReader("mp4")); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	invoker := &fakeInvoker{}
	poller := dispatch.NewPoller(cfg, st, dispatch.New(st, logging.NewNop()), invoker, logging.NewNop())

	drained, err := poller.Drain(ctx)
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	// Insert plus attach produce two feed entries for the same document.
	if drained != 2 {
		t.Fatalf("expected 2 entries drained, got %d", drained)
	}
	calls := invoker.invoked()
	if len(calls) != 1 || calls[0] != dispatch.ActionExtractor+":"+video.ID {
		t.Fatalf("expected one extractor invocation, got %v", calls)
	}

	// The first entry carries a stale revision and is ignored; only the
	// attach entry dispatches.
	drained, err = poller.Drain(ctx)
	if err != nil {
		t.Fatalf("second Drain failed: %v", err)
	}
	if drained != 0 {
		t.Fatalf("expected cursor past all entries, drained %d", drained)
	}
	if got := invoker.invoked(); len(got) != 1 {
		t.Fatalf("redrain must not re-invoke, got %v", got)
	}
}

func TestDrainResumesFromPersistedCursor(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first := testsupport.NewVideo(t, st, "First")
	if err := st.Attach(ctx, first, media.AttachmentVideo, "video/mp4", strings.NewReader("mp4")); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	invoker := &fakeInvoker{}
	poller := dispatch.NewPoller(cfg, st, dispatch.New(st, logging.NewNop()), invoker, logging.NewNop())
	if _, err := poller.Drain(ctx); err != nil {
		t.Fatalf("Drain failed: %v", err)
	}

	// A second poller over the same store picks up only new entries.
	second := testsupport.NewVideo(t, st, "Second")
	if err := st.Attach(ctx, second, media.AttachmentVideo, "video/mp4", strings.NewReader("mp4")); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	restarted := dispatch.NewPoller(cfg, st, dispatch.New(st, logging.NewNop()), invoker, logging.NewNop())
	if _, err := restarted.Drain(ctx); err != nil {
		t.Fatalf("Drain after restart failed: %v", err)
	}

	calls := invoker.invoked()
	if len(calls) != 2 {
		t.Fatalf("expected one invocation per video, got %v", calls)
	}
	if calls[1] != dispatch.ActionExtractor+":"+second.ID {
		t.Fatalf("expected second video dispatched after restart, got %v", calls)
	}
}

func TestDroppedInvocationRecoversOnNextChange(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	video := testsupport.NewVideo(t, st, "Sample")
	if err := st.Attach(ctx, video, media.AttachmentVideo, "video/mp4", strings.NewReader("mp4")); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	invoker := &fakeInvoker{}
	poller := dispatch.NewPoller(cfg, st, dispatch.New(st, logging.NewNop()), invoker, logging.NewNop())
	if _, err := poller.Drain(ctx); err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	// The invocation is delivered but the worker never runs (process crash,
	// dropped goroutine). The document stays unprocessed.
	if len(invoker.invoked()) != 1 {
		t.Fatalf("expected initial invocation, got %v", invoker.invoked())
	}

	// Any later revision bump re-enters the readiness guard and dispatches
	// again.
	video.Title = "Sample (retitled)"
	if err := st.Update(ctx, video); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if _, err := poller.Drain(ctx); err != nil {
		t.Fatalf("Drain after touch failed: %v", err)
	}
	calls := invoker.invoked()
	if len(calls) != 2 || calls[1] != dispatch.ActionExtractor+":"+video.ID {
		t.Fatalf("expected re-dispatch after touch, got %v", calls)
	}

	// Once the worker completes, further events find the guard closed.
	video.Metadata = &media.Metadata{Duration: 60}
	if err := video.Advance(media.StateMetadataExtracted); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if err := st.Update(ctx, video); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if _, err := poller.Drain(ctx); err != nil {
		t.Fatalf("final Drain failed: %v", err)
	}
	if got := invoker.invoked(); len(got) != 2 {
		t.Fatalf("processed document must not re-dispatch, got %v", got)
	}
}

func TestPollerStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Dispatcher.PollIntervalSeconds = 1
	st := testsupport.MustOpenStore(t, cfg)

	invoker := &fakeInvoker{}
	poller := dispatch.NewPoller(cfg, st, dispatch.New(st, logging.NewNop()), invoker, logging.NewNop())
	if err := poller.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := poller.Start(context.Background()); err == nil {
		t.Fatal("expected second Start to fail")
	}
	poller.Stop()
	// Stop again is a no-op.
	poller.Stop()
}
