package pages

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rentiva/rentiva/internal/shared"
	"github.com/rentiva/rentiva/internal/view"
)

// Handler renders the public pages and the per-role dashboard shells. The
// actual dashboard content (bookings, listings, fleet tools) is served by
// the product frontend; these endpoints exist so the authorization pipeline
// has concrete targets to redirect to.
type Handler struct {
	logger    *slog.Logger
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, templates: templates, csrf: csrf}
}

// MountPublic registers the routes that need no session.
func (h *Handler) MountPublic(r chi.Router) {
	r.Get("/", h.page("pages/home.html", "Rentiva"))
	r.Get("/vehicles", h.page("pages/home.html", "Vehicles"))
	r.Get("/vehicles/{id}", h.page("pages/home.html", "Vehicle"))
	r.Get("/about", h.page("pages/home.html", "About"))
	r.Get("/contact", h.page("pages/home.html", "Contact"))
	r.Get("/unauthorized", h.unauthorized)
}

// MountDashboards registers each role's dashboard shell.
func (h *Handler) MountDashboards(r chi.Router) {
	r.Get("/dashboard", h.dashboard("Your rentals"))
	r.Get("/owner/dashboard", h.dashboard("Your fleet"))
	r.Get("/admin/dashboard", h.dashboard("Platform administration"))
}

func (h *Handler) page(template, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.render(w, r, template, title, nil)
	}
}

func (h *Handler) dashboard(heading string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := ""
		if sess := shared.SessionFromContext(r.Context()); sess != nil {
			email = sess.Get("email")
		}
		h.render(w, r, "pages/dashboard.html", heading, map[string]any{
			"Heading": heading,
			"Email":   email,
		})
	}
}

func (h *Handler) unauthorized(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/unauthorized.html", "Access denied", map[string]any{
		"Reason": r.URL.Query().Get("reason"),
		"Path":   r.URL.Query().Get("path"),
	})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template, title string, data any) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render page", slog.String("template", template), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
