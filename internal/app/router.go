package app

import (
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/rentiva/rentiva/internal/auth"
	"github.com/rentiva/rentiva/internal/authz"
	"github.com/rentiva/rentiva/internal/observability"
	"github.com/rentiva/rentiva/internal/onboarding"
	"github.com/rentiva/rentiva/internal/pages"
	"github.com/rentiva/rentiva/internal/shared"
	"github.com/rentiva/rentiva/internal/users"
	"github.com/rentiva/rentiva/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	SessionManager    *shared.SessionManager
	CSRFManager       *shared.CSRFManager
	Authorization     authz.Middleware
	AuthHandler       *auth.Handler
	OnboardingHandler *onboarding.Handler
	PagesHandler      *pages.Handler
	UsersHandler      *users.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with Rentiva defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	// Everything below goes through the authorization pipeline.
	r.Group(func(r chi.Router) {
		r.Use(params.Authorization.Handler)

		params.PagesHandler.MountPublic(r)
		params.PagesHandler.MountDashboards(r)
		params.OnboardingHandler.MountRoutes(r)

		// Credential endpoints carry a tighter rate limit than the
		// global one.
		r.Group(func(r chi.Router) {
			r.Use(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
			params.AuthHandler.MountRoutes(r)
		})

		if params.UsersHandler != nil {
			r.Route("/admin/users", params.UsersHandler.MountRoutes)
		}
	})

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
