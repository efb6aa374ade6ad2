package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/showcasehq/showcase/internal/cache"
	"github.com/showcasehq/showcase/internal/config"
	"github.com/showcasehq/showcase/internal/gate"
	"github.com/showcasehq/showcase/internal/handler"
	"github.com/showcasehq/showcase/internal/openapi"
	"github.com/showcasehq/showcase/internal/prefs"
	"github.com/showcasehq/showcase/internal/reviews"
	"github.com/showcasehq/showcase/internal/server/middleware"
	"github.com/showcasehq/showcase/internal/service"
	"github.com/showcasehq/showcase/internal/session"
	"github.com/showcasehq/showcase/internal/ui"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	SiteName           string
	BaseURL            string // advertised in the OpenAPI document
	PageTTL            time.Duration
	SecureCookies      bool
	HashCost           int // bcrypt cost for accounts created through the API
	LoginRatePerMinute int
	APIRatePerMinute   int // per-IP limit on the JSON API, 0 disables
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:               "0.0.0.0",
		Port:               8080,
		ShutdownTimeout:    30 * time.Second,
		CORSOrigins:        []string{"*"},
		SiteName:           "Showcase",
		PageTTL:            5 * time.Minute,
		HashCost:           service.DefaultHashCost,
		LoginRatePerMinute: 10,
		APIRatePerMinute:   300,
	}
}

// Deps are the long-lived collaborators the server routes requests to. The
// server takes ownership of Store and Cache and closes them on shutdown.
type Deps struct {
	Store     *config.Store
	Auth      *service.AuthService
	Transport *session.Transport
	Cache     cache.Cache
	Reviews   *reviews.Client
	Prefs     *prefs.Resolver
	Logger    *slog.Logger
}

// Server is the top-level HTTP server for the site. It owns the Chi router,
// the content store, and the page cache.
type Server struct {
	cfg        Config
	deps       Deps
	rules      gate.Rules
	router     chi.Router
	handler    http.Handler
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Store == nil || deps.Auth == nil || deps.Transport == nil || deps.Cache == nil {
		return nil, errors.New("server: store, auth, transport and cache are required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Reviews == nil {
		deps.Reviews = reviews.NewClient(reviews.Config{}, deps.Cache)
	}
	if deps.Prefs == nil {
		resolver, err := prefs.NewResolver(nil)
		if err != nil {
			return nil, err
		}
		deps.Prefs = resolver
	}

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		rules:  gate.DefaultRules(),
		logger: deps.Logger,
	}
	if err := s.setupRouter(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) setupRouter() error {
	g, err := gate.New(s.rules)
	if err != nil {
		return fmt.Errorf("route gate: %w", err)
	}
	renderer, err := ui.NewRenderer()
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}

	d := s.deps
	authH := handler.NewAuthHandler(d.Auth, d.Transport, d.Cache, s.rules, s.logger)
	contentH := handler.NewContentHandler(d.Store, d.Cache, d.Reviews, s.logger)
	pageH := handler.NewPageHandler(handler.PageConfig{
		SiteName:      s.cfg.SiteName,
		PageTTL:       s.cfg.PageTTL,
		Rules:         s.rules,
		SecureCookies: s.cfg.SecureCookies,
	}, d.Store, d.Cache, d.Reviews, renderer, d.Prefs, s.logger)
	sysH := handler.NewSystemHandler(d.Store, s.cfg.HashCost, s.logger)
	specH := handler.NewOpenAPIHandler(openapi.Info{
		Title:      s.cfg.SiteName,
		BaseURL:    s.cfg.BaseURL,
		CookieName: d.Transport.CookieName(),
	})

	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger, "/healthz", "/readyz"))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Cache"},
		AllowCredentials: !containsWildcard(s.cfg.CORSOrigins),
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))

	// The gate runs before any page logic so protected handlers never see
	// an anonymous request.
	r.Use(middleware.Gate(g, d.Auth, d.Transport, s.logger))

	// --- Health checks and API description ---
	r.Get("/healthz", sysH.Healthz)
	r.Get("/readyz", sysH.Readyz)
	r.Get("/openapi.json", specH.ServeSpec)

	// --- Static assets ---
	static := http.StripPrefix("/static/", http.FileServer(http.FS(ui.Static())))
	r.Get("/static/*", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=86400")
		static.ServeHTTP(w, r)
	})

	// --- Public pages ---
	r.Get("/", pageH.Home)
	r.Get("/pricing", pageH.Pricing)
	r.Get("/projects", pageH.Projects)

	// --- Public JSON ---
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(s.cfg.APIRatePerMinute))
		r.Post("/preferences", pageH.SetPreferences)

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.LoginRateLimit(s.cfg.LoginRatePerMinute)).Post("/login", authH.Login)
			r.Post("/logout", authH.Logout)
			r.Get("/session", authH.Session)
		})

		r.Get("/pricing", contentH.ListPricing)
		r.Get("/projects", contentH.ListProjects)
		r.Get("/contact", contentH.GetContact)
		r.Get("/reviews", contentH.ListReviews)
	})

	// --- Admin area (gated) ---
	r.Get("/admin/login", pageH.Login)
	r.Get("/admin", pageH.Admin)
	r.Route("/admin/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(s.cfg.APIRatePerMinute))
		r.Get("/pricing", contentH.ListPricing)
		r.Post("/pricing", contentH.CreatePricingTier)
		r.Get("/pricing/{id}", contentH.GetPricingTier)
		r.Put("/pricing/{id}", contentH.UpdatePricingTier)
		r.Delete("/pricing/{id}", contentH.DeletePricingTier)

		r.Get("/projects", contentH.ListProjects)
		r.Post("/projects", contentH.CreateProject)
		r.Get("/projects/{id}", contentH.GetProject)
		r.Put("/projects/{id}", contentH.UpdateProject)
		r.Delete("/projects/{id}", contentH.DeleteProject)

		r.Get("/contact", contentH.GetContact)
		r.Put("/contact", contentH.UpdateContact)

		r.Get("/admins", sysH.ListAdmins)
		r.Post("/admins", sysH.CreateAdmin)
	})

	s.router = r
	s.handler = otelhttp.NewHandler(r, "showcase",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/healthz" && r.URL.Path != "/readyz"
		}),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
	return nil
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests before closing the cache and the store.
func (s *Server) ListenAndServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start server in background goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		s.closeResources()
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.closeResources()
	if err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) closeResources() {
	if err := s.deps.Cache.Close(); err != nil {
		s.logger.Error("close page cache", "error", err)
	}
	if err := s.deps.Store.Close(); err != nil {
		s.logger.Error("close store", "error", err)
	}
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the instrumented router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			return true
		}
	}
	return false
}
