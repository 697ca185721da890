// Package ui is the portal web server.
//
// It renders the public pages with a server mode api client talking directly to the backend,
// proxies /api/* to the backend for browser mode clients (so the session and CSRF cookies stay
// same-origin) and routes every page under a locale prefix.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	portal "github.com/pondok-digital/portal"
	"github.com/pondok-digital/portal/internal/apiclient"
	"github.com/pondok-digital/portal/internal/config"
	"github.com/pondok-digital/portal/internal/logger"
	"github.com/pondok-digital/portal/internal/middleware"
	"github.com/pondok-digital/portal/internal/services"
)

type Server struct {
	router   *chi.Mux
	config   *config.UIConfig
	logger   *slog.Logger
	services *services.Services
	proxy    http.Handler
	pages    *pages
}

// NewServer creates the ui server. The backend does not need to be reachable.
func NewServer(cfg *config.UIConfig, logger *slog.Logger) (*Server, error) {
	client, err := apiclient.New(apiclient.Options{
		Mode:       apiclient.ModeServer,
		BackendURL: cfg.BackendAPIURL,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create the api client: %w", err)
	}

	proxy, err := newAPIProxy(cfg.BackendAPIURL, logger)
	if err != nil {
		return nil, err
	}

	pages, err := newPages()
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		services: services.New(client),
		proxy:    proxy,
		pages:    pages,
	}

	s.setupMiddleware()
	s.registerRoutes()
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(logger.RequestLogging(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.SecurityHeaders(s.config.Environment))
	s.router.Use(middleware.RateLimit(float64(s.config.RateLimitRPS), s.config.RateLimitBurst))
	s.router.Use(LocaleRouting)
}

func (s *Server) registerRoutes() {
	s.router.Get("/health/live", s.handleLiveness)
	s.router.Get("/version", s.handleVersion)
	s.router.Handle("/static/*", staticFiles())

	s.router.Route(portal.DefaultProxyPath, func(r chi.Router) {
		r.Use(middleware.RequestSizeLimit(portal.MaxAPIRequestSize))
		r.Handle("/*", s.proxy)
	})

	s.router.Route("/{locale}", func(r chi.Router) {
		r.Get("/", s.handleHome)
		r.Get("/articles", s.handleArticles)
		r.Get("/articles/{slug}", s.handleArticle)
		r.Get("/login", s.handleLogin)

		// the locale middleware has already checked the session for these
		for _, path := range portal.ProtectedPaths {
			r.Get(path, s.handleDashboard)
		}
	})

	s.router.NotFound(s.handleNotFound)
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info("UI server listening",
			slog.String("address", addr),
			slog.String("backend", s.config.BackendAPIURL),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutting down UI server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), portal.ServerShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Server forced to shutdown", slog.String("error", err.Error()))
			return err
		}
	}
	return nil
}
