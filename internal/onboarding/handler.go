package onboarding

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/rentiva/rentiva/internal/authz"
	"github.com/rentiva/rentiva/internal/shared"
	"github.com/rentiva/rentiva/internal/view"
)

// Handler wires the onboarding HTTP surface.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	policy    authz.RoutePolicy
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, policy authz.RoutePolicy) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
		policy:    policy,
		validator: validator.New(),
	}
}

// MountRoutes registers onboarding routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/onboarding", h.showForm)
	r.Post("/onboarding", h.handleComplete)
}

type onboardingForm struct {
	AccountType string `validate:"required,oneof=renter owner"`
	Phone       string `validate:"required,min=6"`
}

type pageData struct {
	Form   onboardingForm
	Errors map[string]string
}

func (h *Handler) showForm(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	h.render(w, r, sess, csrfToken, pageData{Form: onboardingForm{AccountType: "renter"}}, http.StatusOK)
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		http.Redirect(w, r, authz.PathLogin, http.StatusSeeOther)
		return
	}
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)

	form := onboardingForm{
		AccountType: r.PostFormValue("account_type"),
		Phone:       r.PostFormValue("phone"),
	}
	formErrors := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) {
			for _, fieldErr := range fieldErrors {
				formErrors[fieldErr.Field()] = fieldErr.Error()
			}
		}
	}

	if len(formErrors) == 0 {
		completion, err := h.service.Complete(r.Context(), sess.User(), form.AccountType, form.Phone)
		switch {
		case errors.Is(err, ErrInvalidAccountType):
			formErrors["AccountType"] = "Pick renting or listing"
		case errors.Is(err, shared.ErrNotFound):
			// Already onboarded, or the account vanished; the
			// authorization pipeline sorts out which on the next hop.
			http.Redirect(w, r, authz.PathLanding, http.StatusSeeOther)
			return
		case err != nil:
			h.logger.Error("complete onboarding", slog.Any("error", err))
			formErrors["general"] = "Could not finish onboarding, please try again"
		default:
			sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "You're all set"})
			http.Redirect(w, r, h.policy.DashboardFor(authz.Role(completion.Role)), http.StatusSeeOther)
			return
		}
	}

	h.render(w, r, sess, csrfToken, pageData{Form: form, Errors: formErrors}, http.StatusBadRequest)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, sess *shared.Session, csrfToken string, data pageData, status int) {
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	viewData := view.TemplateData{
		Title:       "Onboarding",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := h.templates.Render(w, "pages/onboarding.html", viewData); err != nil {
		h.logger.Error("render onboarding", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
