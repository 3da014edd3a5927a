package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"visionpipe/internal/config"
	"visionpipe/internal/invoke"
	"visionpipe/internal/logging"
	"visionpipe/internal/store"
)

// Poller drains the change feed on an interval, dispatches each entry, and
// persists its position so a restart resumes where it left off.
type Poller struct {
	store      *store.Store
	dispatcher *Dispatcher
	invoker    invoke.Invoker
	logger     *slog.Logger

	pollInterval  time.Duration
	errorInterval time.Duration
	batchSize     int

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewPoller wires the feed loop from configuration.
func NewPoller(cfg *config.Config, st *store.Store, dispatcher *Dispatcher, invoker invoke.Invoker, logger *slog.Logger) *Poller {
	return &Poller{
		store:         st,
		dispatcher:    dispatcher,
		invoker:       invoker,
		logger:        logging.NewComponentLogger(logger, "poller"),
		pollInterval:  time.Duration(cfg.Dispatcher.PollIntervalSeconds) * time.Second,
		errorInterval: time.Duration(cfg.Dispatcher.ErrorRetryIntervalSeconds) * time.Second,
		batchSize:     cfg.Dispatcher.FeedBatchSize,
	}
}

// Start begins background polling.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return errors.New("poller already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	go p.run(runCtx)
	return nil
}

// Stop terminates polling and waits for the loop to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.running = false
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	<-done
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)
	for {
		drained, err := p.Drain(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			p.logger.Error("feed poll failed", logging.Error(err))
			if !p.sleep(ctx, p.errorInterval) {
				return
			}
			continue
		}
		if drained > 0 {
			// More entries may be waiting; poll again immediately.
			continue
		}
		if !p.sleep(ctx, p.pollInterval) {
			return
		}
	}
}

// Drain reads one batch of feed entries past the persisted cursor,
// dispatches them, and advances the cursor. It returns the number of entries
// consumed. Exposed for tests and for the CLI's one-shot drain.
func (p *Poller) Drain(ctx context.Context) (int, error) {
	cursor, err := p.store.FeedCursor(ctx)
	if err != nil {
		return 0, err
	}
	changes, err := p.store.ChangesSince(ctx, cursor, p.batchSize)
	if err != nil {
		return 0, err
	}
	for _, change := range changes {
		outcome := p.dispatcher.HandleChange(ctx, change)
		if outcome.Action != "" {
			p.invoker.Invoke(ctx, outcome.Action, change.ID)
		}
		// The cursor advances per entry: a crash re-delivers at most the
		// entry being dispatched, and workers tolerate redelivery.
		if err := p.store.SetFeedCursor(ctx, change.Seq); err != nil {
			return 0, err
		}
	}
	return len(changes), nil
}

func (p *Poller) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		d = time.Second
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
