// Package mockapi is an in-memory implementation of the portal backend API.
//
// It serves the same routes, envelope, cookies and CSRF contract as the real backend so the
// ui server, portalctl and the integration tests can run without it.
package mockapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jub0bs/cors"

	portal "github.com/pondok-digital/portal"
	"github.com/pondok-digital/portal/internal/auth"
	"github.com/pondok-digital/portal/internal/config"
	"github.com/pondok-digital/portal/internal/handlers"
	"github.com/pondok-digital/portal/internal/logger"
	"github.com/pondok-digital/portal/internal/middleware"
	"github.com/pondok-digital/portal/internal/store"
)

type Server struct {
	router      *chi.Mux
	config      *config.MockAPIConfig
	logger      *slog.Logger
	store       *store.Store
	authService *auth.AuthService
	cors        *cors.Middleware
}

// NewServer creates the backend with its seed data
func NewServer(cfg *config.MockAPIConfig, logger *slog.Logger) (*Server, error) {
	corsMiddleware, err := middleware.NewCORS(cfg.AllowedOrigins)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:      chi.NewRouter(),
		config:      cfg,
		logger:      logger,
		store:       store.New(),
		authService: auth.NewAuthService(cfg.SecretKey),
		cors:        corsMiddleware,
	}

	if err := s.seed(); err != nil {
		return nil, fmt.Errorf("could not seed the mock api: %w", err)
	}

	s.setupMiddleware()
	s.registerRoutes()
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Store() *store.Store {
	return s.store
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(logger.RequestLogging(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.SecurityHeaders(s.config.Environment))
	s.router.Use(middleware.RateLimit(float64(s.config.RateLimitRPS), s.config.RateLimitBurst))
}

func (s *Server) registerRoutes() {
	admin := handlers.NewAdminHandler(s.store)
	authHandler := handlers.NewAuthHandler(s.store, s.authService)
	articles := handlers.NewArticleHandler(s.store)
	categories := handlers.NewCategoryCollection(s.store)
	tags := handlers.NewTagCollection(s.store)
	videos := handlers.NewVideoCollection(s.store)
	achievements := handlers.NewAchievementCollection(s.store)
	galleries := handlers.NewGalleryCollection(s.store)

	s.router.Get("/health", admin.LivenessHandler)
	s.router.Get("/version", admin.VersionHandler)

	s.router.Route(portal.DefaultProxyPath, func(r chi.Router) {
		r.Use(middleware.CORS(s.cors))
		r.Use(middleware.RequestSizeLimit(s.config.MaxAPIRequestSize))
		r.Use(s.authService.RequireCSRF)

		r.Get("/health", admin.LivenessHandler)
		r.Get(portal.CSRFPath, authHandler.CSRFHandler)

		// public routes
		r.With(middleware.ClientRateLimit(float64(s.config.LoginRateLimitRPS), s.config.LoginRateLimitBurst)).
			Post(portal.LoginPath, authHandler.LoginHandler)
		r.Post("/logout", authHandler.LogoutHandler)
		r.Post("/refresh", authHandler.RefreshHandler)
		r.Post("/psb/register", admin.RegisterHandler)
		r.Post("/contact", admin.SubmitMessageHandler)

		r.Group(func(r chi.Router) {
			r.Use(s.authService.OptionalAuth)

			r.Get("/articles", articles.GetArticlesHandler)
			r.Get("/articles/{id}", articles.GetArticleHandler)
			r.Get("/articles/slug/{slug}", articles.GetArticleBySlugHandler)
		})

		r.Get("/categories", categories.ListHandler)
		r.Get("/categories/{id}", categories.GetHandler)
		r.Get("/tags", tags.ListHandler)
		r.Get("/tags/{id}", tags.GetHandler)
		r.Get("/galleries", galleries.ListHandler)
		r.Get("/galleries/{id}", galleries.GetHandler)
		r.Get("/videos", videos.ListHandler)
		r.Get("/achievements", achievements.ListHandler)
		r.Get("/achievements/{id}", achievements.GetHandler)

		// protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authService.RequireAuth)

			r.Get("/psb/registrants", admin.GetRegistrantsHandler)
			r.Put("/psb/registrants/{id}/status", admin.UpdateRegistrantStatusHandler)

			r.Get("/dashboard/stats", admin.GetDashboardStatsHandler)

			r.Get("/messages", admin.GetMessagesHandler)
			r.Put("/messages/{id}/read", admin.MarkMessageReadHandler)
			r.Delete("/messages/{id}", admin.DeleteMessageHandler)

			r.Post("/articles", articles.CreateArticleHandler)
			r.Put("/articles/{id}", articles.UpdateArticleHandler)
			r.Delete("/articles/{id}", articles.DeleteArticleHandler)

			r.Get("/videos/{id}", videos.GetHandler)

			for _, c := range []struct {
				path string
				h    collectionHandler
			}{
				{"/categories", categories},
				{"/tags", tags},
				{"/videos", videos},
				{"/achievements", achievements},
				{"/galleries", galleries},
			} {
				r.Post(c.path, c.h.CreateHandler)
				r.Put(c.path+"/{id}", c.h.UpdateHandler)
				r.Delete(c.path+"/{id}", c.h.DeleteHandler)
			}

			// super admin routes
			r.Group(func(r chi.Router) {
				r.Use(s.authService.RequireRole("super_admin"))

				r.Get("/admins", authHandler.ListAdminsHandler)
				r.Post("/admins", authHandler.CreateAdminHandler)
				r.Delete("/admins/{id}", authHandler.DeleteAdminHandler)
				r.Get("/activity-logs", admin.GetActivityLogsHandler)
			})
		})
	})
}

// collectionHandler is the mutating surface shared by the handlers.Collection instantiations
type collectionHandler interface {
	CreateHandler(http.ResponseWriter, *http.Request)
	UpdateHandler(http.ResponseWriter, *http.Request)
	DeleteHandler(http.ResponseWriter, *http.Request)
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	server := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info("mock api listening", slog.String("address", addr), slog.String("environment", s.config.Environment))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutting down mock api")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), portal.ServerShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("server forced to shutdown", slog.String("error", err.Error()))
			return err
		}
	}
	return nil
}
