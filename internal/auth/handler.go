package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/rentiva/rentiva/internal/authz"
	"github.com/rentiva/rentiva/internal/shared"
	"github.com/rentiva/rentiva/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	templates      *view.Engine
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	roleCache      *authz.RoleCache
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager, roles *authz.RoleCache) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		templates:      templates,
		sessionManager: sessions,
		csrfManager:    csrf,
		roleCache:      roles,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Get("/signup", h.showSignup)
	r.Post("/signup", h.handleSignup)
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

type signupForm struct {
	Email    string `validate:"required,email"`
	Name     string `validate:"required,min=2"`
	Password string `validate:"required,min=8"`
}

type loginPageData struct {
	Form     loginForm
	Errors   map[string]string
	Redirect string
	Message  string
}

type signupPageData struct {
	Form   signupForm
	Errors map[string]string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	data := loginPageData{
		Redirect: sanitizeRedirect(r.URL.Query().Get("redirect")),
		Message:  r.URL.Query().Get("message"),
	}
	h.renderLogin(w, r, sess, csrfToken, data, http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)

	form := loginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	redirect := sanitizeRedirect(r.PostFormValue("redirect"))
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
		user, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
		if err != nil {
			formErrors["general"] = "Invalid email or password"
		} else {
			if sess == nil {
				h.logger.Error("session missing during login")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			sess.SetUser(user.ID)
			sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Welcome back"})
			if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, time.Now().Add(h.sessionManager.TTL()), r.RemoteAddr, r.UserAgent()); err != nil {
				h.logger.Warn("register session", slog.Any("error", err))
			}
			// Warm the role cache so the first authorized request
			// avoids a store round trip.
			if h.roleCache != nil {
				h.roleCache.Set(r.Context(), user.ID, authz.Role(user.Role))
			}
			target := redirect
			if target == "" {
				target = authz.PathLanding
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
	}

	data := loginPageData{Form: form, Errors: formErrors, Redirect: redirect}
	h.renderLogin(w, r, sess, csrfToken, data, http.StatusBadRequest)
}

func (h *Handler) showSignup(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	h.renderSignup(w, r, sess, csrfToken, signupPageData{}, http.StatusOK)
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)

	form := signupForm{
		Email:    r.PostFormValue("email"),
		Name:     r.PostFormValue("name"),
		Password: r.PostFormValue("password"),
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
		user, err := h.service.Register(r.Context(), form.Email, form.Name, form.Password)
		switch {
		case errors.Is(err, shared.ErrDuplicateEmail):
			formErrors["Email"] = "An account with this email already exists"
		case err != nil:
			h.logger.Error("register account", slog.Any("error", err))
			formErrors["general"] = "Could not create your account, please try again"
		default:
			if sess != nil {
				sess.SetUser(user.ID)
			}
			http.Redirect(w, r, authz.PathOnboarding, http.StatusSeeOther)
			return
		}
	}

	h.renderSignup(w, r, sess, csrfToken, signupPageData{Form: form, Errors: formErrors}, http.StatusBadRequest)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		if h.roleCache != nil && sess.User() != "" {
			h.roleCache.Invalidate(r.Context(), sess.User())
		}
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, authz.PathLanding, http.StatusSeeOther)
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, sess *shared.Session, csrfToken string, data loginPageData, status int) {
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	viewData := view.TemplateData{
		Title:       "Sign in",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := h.templates.Render(w, "pages/login.html", viewData); err != nil {
		h.logger.Error("render login", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) renderSignup(w http.ResponseWriter, r *http.Request, sess *shared.Session, csrfToken string, data signupPageData, status int) {
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	viewData := view.TemplateData{
		Title:       "Create account",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := h.templates.Render(w, "pages/signup.html", viewData); err != nil {
		h.logger.Error("render signup", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// sanitizeRedirect keeps post-login redirects on-site. Anything that is not
// a plain absolute path is discarded.
func sanitizeRedirect(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
		return ""
	}
	return raw
}

// ShowLoginForTest exposes the GET handler for tests.
func (h *Handler) ShowLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.showLogin(w, r)
}

// HandleLoginForTest exposes the POST handler for tests.
func (h *Handler) HandleLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r)
}

// HandleSignupForTest exposes the signup POST handler for tests.
func (h *Handler) HandleSignupForTest(w http.ResponseWriter, r *http.Request) {
	h.handleSignup(w, r)
}
