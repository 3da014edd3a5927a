package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"visionpipe/internal/config"
	"visionpipe/internal/logging"
	"visionpipe/internal/speech"
	"visionpipe/internal/store"
	"visionpipe/internal/summary"
)

// Server is the pipeline's HTTP server.
type Server struct {
	httpServer *http.Server
	bind       string
	logger     *slog.Logger

	listener net.Listener
}

// New builds the server with all routes registered.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger) *Server {
	logger = logging.NewComponentLogger(logger, "api")
	h := &handlers{
		store:    st,
		builder:  summary.NewBuilder(cfg, st, logger),
		receiver: speech.NewReceiver(st, logger),
		secret:   cfg.SpeechToText.CallbackSecret,
		logger:   logger,
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(requestLogger(logger))
	h.register(router)

	return &Server{
		httpServer: &http.Server{
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		bind:   cfg.Paths.APIBind,
		logger: logger,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start begins serving in the background.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return err
	}
	s.listener = listener
	go func() {
		s.logger.Info("http server listening", logging.String("addr", listener.Addr().String()))
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server failed", logging.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

// Stop drains in-flight requests and shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(wrapped, r)
			logger.Debug("request",
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.Int("status", wrapped.Status()),
				logging.Duration("elapsed", time.Since(started)),
			)
		})
	}
}
