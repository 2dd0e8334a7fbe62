package devtools

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options configures the inspector server.
type Options struct {
	// Address is the host:port to listen on.
	Address string

	// ReadBufferSize and WriteBufferSize size the websocket buffers.
	ReadBufferSize  int
	WriteBufferSize int

	// QueueSize bounds the number of pending events. Default: 256.
	QueueSize int

	// Gatherer is exposed on /metrics. Default: prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// Snapshot renders the current state for /snapshot. The caller is
	// responsible for synchronizing with the goroutine that owns the graph.
	// Nil disables the route.
	Snapshot func() ([]byte, error)

	// Logger receives server diagnostics. Default: slog.Default().
	Logger *slog.Logger
}

// Server is the inspector HTTP server.
type Server struct {
	opts   Options
	hub    *Hub
	router chi.Router
	logger *slog.Logger
}

// New creates a server. Its hub starts immediately.
func New(opts Options) *Server {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.ReadBufferSize <= 0 {
		opts.ReadBufferSize = 1024
	}
	if opts.WriteBufferSize <= 0 {
		opts.WriteBufferSize = 1024
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		opts:   opts,
		hub:    NewHub(opts.ReadBufferSize, opts.WriteBufferSize, opts.QueueSize, logger),
		logger: logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/events", s.hub.HandleWebSocket)
	if s.opts.Snapshot != nil {
		r.With(middleware.NoCache).Get("/snapshot", s.handleSnapshot)
	}
	return r
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	data, err := s.opts.Snapshot()
	if err != nil {
		s.logger.Error("devtools snapshot failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// Hub returns the event hub. Install it with observer.SetHooks.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("devtools listening", "address", s.opts.Address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.hub.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
