package invoke

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"visionpipe/internal/logging"
	"visionpipe/internal/media"
	"visionpipe/internal/services"
	"visionpipe/internal/store"
)

// Worker processes one media document end to end. Process re-fetches
// nothing: it receives the freshest revision the registry could load and is
// expected to bail out quietly when the document no longer qualifies.
type Worker interface {
	Name() string
	Process(ctx context.Context, doc *media.Document) error
}

// Invoker hands a change event to a named worker without blocking.
type Invoker interface {
	Invoke(ctx context.Context, action, docID string)
}

// Registry maps action names to workers and runs every invocation on its own
// goroutine.
type Registry struct {
	store  *store.Store
	logger *slog.Logger

	mu      sync.RWMutex
	workers map[string]Worker
	wg      sync.WaitGroup
}

// NewRegistry builds an empty registry backed by the given store.
func NewRegistry(st *store.Store, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Registry{
		store:   st,
		logger:  logging.NewComponentLogger(logger, "invoke"),
		workers: make(map[string]Worker),
	}
}

// Register binds a worker to an action name, replacing any previous binding.
func (r *Registry) Register(action string, worker Worker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workers[action] = worker
}

// Invoke dispatches the document to the named worker on a fresh goroutine.
// Unknown actions are logged and dropped.
func (r *Registry) Invoke(ctx context.Context, action, docID string) {
	r.mu.RLock()
	worker, ok := r.workers[action]
	r.mu.RUnlock()
	if !ok {
		r.logger.Warn("no worker registered for action",
			logging.String("action", action),
			logging.String(logging.FieldDocumentID, docID),
		)
		return
	}

	// Workers outlive the dispatch context: shutdown drains them through
	// Wait instead of canceling them mid-write.
	runCtx := context.WithoutCancel(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(runCtx, action, worker, docID)
	}()
}

// Wait blocks until all in-flight invocations finish. Used on shutdown and
// in tests.
func (r *Registry) Wait() {
	r.wg.Wait()
}

func (r *Registry) run(ctx context.Context, action string, worker Worker, docID string) {
	ctx = services.WithDocumentID(ctx, docID)
	ctx = services.WithStage(ctx, worker.Name())
	logger := logging.WithContext(ctx, r.logger).With(logging.String("action", action))

	doc, err := r.store.Get(ctx, docID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logger.Debug("document gone before invocation, skipping")
			return
		}
		logger.Error("load document for invocation", logging.Error(err))
		return
	}

	started := time.Now()
	logger.Info("worker invoked", logging.String(logging.FieldEventType, "worker_start"))
	if err := worker.Process(ctx, doc); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("worker canceled", logging.Duration("elapsed", time.Since(started)))
			return
		}
		logger.Error("worker failed",
			logging.Error(err),
			logging.Duration("elapsed", time.Since(started)),
			logging.String(logging.FieldEventType, "worker_failed"),
			logging.Bool("degraded", services.IsDegraded(err)),
		)
		return
	}
	logger.Info("worker finished",
		logging.Duration("elapsed", time.Since(started)),
		logging.String(logging.FieldEventType, "worker_complete"),
	)
}
