package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phonefield/phonefield/internal/config"
	"github.com/phonefield/phonefield/internal/countries"
	"github.com/phonefield/phonefield/internal/httputil"
)

// Server is the HTTP JSON API over the phone input engine.
type Server struct {
	cfg           *config.Config
	router        *chi.Mux
	http          *http.Server
	logger        *slog.Logger
	dir           *countries.Directory
	defaultRegion string
	startTime     time.Time
}

// New creates a new Server with middleware and routes configured.
// Requests that name no region use cfg's start region.
func New(cfg *config.Config, logger *slog.Logger, dir *countries.Directory) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(cfg.Server.CORSAllowedOrigins))

	s := &Server{
		cfg:           cfg,
		router:        r,
		logger:        logger,
		dir:           dir,
		defaultRegion: cfg.StartRegion(""),
		startTime:     time.Now(),
	}

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/countries", s.handleListCountries)
		r.Get("/countries/{region}", s.handleGetCountry)
		r.Get("/regions/{region}/example", s.handleExample)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			r.Post("/reconcile", s.handleReconcile)
			r.Post("/numbers", s.handleSetNumber)
		})
	})

	return s
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:              s.cfg.Address(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("server starting", "address", s.cfg.Address(), "default_region", s.defaultRegion)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// StartWithReady begins listening. It closes the ready channel once the
// listener is bound, then blocks serving requests.
func (s *Server) StartWithReady(ready chan<- struct{}) error {
	s.http = &http.Server{
		Addr:              s.cfg.Address(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.logger.Info("server starting", "address", s.cfg.Address(), "default_region", s.defaultRegion)
	close(ready)

	if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	timeout := time.Duration(s.cfg.Server.ShutdownTimeout) * time.Second
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.logger.Info("shutting down server", "timeout", timeout)
	return s.http.Shutdown(shutdownCtx)
}

type healthResponse struct {
	Status        string `json:"status"`
	DefaultRegion string `json:"default_region"`
	Countries     int    `json:"countries"`
	Language      string `json:"language"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		DefaultRegion: s.defaultRegion,
		Countries:     len(s.dir.Regions()),
		Language:      s.dir.Language().String(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	})
}
