package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/taxotree/pkg/cache"
	"github.com/matzehuels/taxotree/pkg/explorer"
	"github.com/matzehuels/taxotree/pkg/metrics"
	"github.com/matzehuels/taxotree/pkg/taxonomy"
)

const (
	defaultSessionTTL = 2 * time.Hour
	pruneInterval     = 5 * time.Minute
)

// Config configures a Server.
type Config struct {
	Source taxonomy.Source
	// Explorer is the template for new sessions. Its Logger is replaced by
	// Logger.
	Explorer explorer.Options
	// DefaultRoot, when set, is selected for every new session.
	DefaultRoot string
	// Artifacts caches rendered SVG. Nil disables caching.
	Artifacts *cache.Artifacts
	// Metrics is exposed on /metrics and records served requests. Optional.
	Metrics *metrics.Registry
	// SessionTTL is how long an idle session is kept.
	SessionTTL time.Duration
	Logger     *log.Logger
}

// Server is the browser explorer.
type Server struct {
	cfg      Config
	logger   *log.Logger
	sessions *sessions
	router   chi.Router
}

// New builds the server and its routes.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Artifacts == nil {
		cfg.Artifacts = cache.NewArtifacts(nil, nil)
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}

	s := &Server{cfg: cfg, logger: cfg.Logger}
	s.sessions = newSessions(func() *explorer.Session {
		opts := cfg.Explorer
		opts.Logger = cfg.Logger
		return explorer.New(cfg.Source, opts)
	})
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.cfg.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(s.withSession)

		r.Get("/", s.handleIndex)
		r.Get("/graph.svg", s.handleSVG)
		r.Get("/graph.dot", s.handleDOT)
		r.Get("/export.svg", s.handleGraphviz)

		r.Route("/api", func(r chi.Router) {
			r.Get("/graph", s.handleGraph)
			r.Post("/select/*", s.handleSelect)
			r.Post("/toggle/*", s.handleToggle)
			r.Post("/reveal", s.handleReveal)
			r.Post("/direction/{dir}", s.handleDirection)
			r.Post("/deprecated/{on}", s.handleDeprecated)
			r.Get("/node/*", s.handleNode)
			r.Get("/search", s.handleSearch)
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go s.pruneLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n := s.sessions.prune(s.cfg.SessionTTL)
			if s.cfg.Metrics != nil {
				s.cfg.Metrics.ActiveSessions.Set(float64(n))
			}
		}
	}
}
