package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"visionpipe/internal/api"
	"visionpipe/internal/config"
	"visionpipe/internal/dispatch"
	"visionpipe/internal/invoke"
	"visionpipe/internal/logging"
	"visionpipe/internal/store"
)

// shutdownTimeout bounds the HTTP server drain on stop.
const shutdownTimeout = 10 * time.Second

// Daemon owns the long-running pipeline services.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	poller   *dispatch.Poller
	registry *invoke.Registry
	server   *api.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger, poller *dispatch.Poller, registry *invoke.Registry, server *api.Server) (*Daemon, error) {
	if cfg == nil || st == nil || poller == nil || registry == nil || server == nil {
		return nil, errors.New("daemon requires config, store, poller, registry, and server")
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "visionpiped.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    st,
		poller:   poller,
		registry: registry,
		server:   server,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and launches the server and the poller.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another visionpiped instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.server.Start(); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start http server: %w", err)
	}
	if err := d.poller.Start(runCtx); err != nil {
		cancel()
		_ = d.server.Stop(context.Background())
		_ = d.lock.Unlock()
		return fmt.Errorf("start poller: %w", err)
	}

	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String("lock", d.lockPath),
		logging.String("bind", d.server.Addr()),
	)
	return nil
}

// Stop drains in-flight work and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.poller.Stop()
	d.registry.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := d.server.Stop(shutdownCtx); err != nil {
		d.logger.Warn("http server shutdown", logging.Error(err))
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Running reports whether the daemon is started.
func (d *Daemon) Running() bool { return d.running.Load() }

// Close stops the daemon and closes the store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}
