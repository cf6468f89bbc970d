package users

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rentiva/rentiva/internal/authz"
	"github.com/rentiva/rentiva/internal/platform/httpx"
	"github.com/rentiva/rentiva/internal/shared"
)

// Handler exposes the admin user-management JSON API. Reachability is
// enforced by the authorization pipeline: these routes live under /admin.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listUsers)
	r.Post("/{id}/role", h.changeRole)
	r.Post("/{id}/deactivate", h.deactivate)
	r.Post("/{id}/reactivate", h.reactivate)
}

type userResponse struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	Name            string `json:"name"`
	Role            string `json:"role"`
	NeedsOnboarding bool   `json:"needs_onboarding"`
	IsActive        bool   `json:"is_active"`
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("list users failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]userResponse, 0, len(list))
	for _, u := range list {
		out = append(out, userResponse{
			ID:              u.ID,
			Email:           u.Email,
			Name:            u.Name,
			Role:            u.Role,
			NeedsOnboarding: u.NeedsOnboarding,
			IsActive:        u.IsActive,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": out})
}

func (h *Handler) changeRole(w http.ResponseWriter, r *http.Request) {
	var req changeRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	err := h.service.ChangeRole(r.Context(), chi.URLParam(r, "id"), authz.Role(req.Role))
	switch {
	case errors.Is(err, ErrInvalidRole):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "user not found")
	case err != nil:
		h.logger.Error("change role failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	default:
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	err := h.service.Deactivate(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "user not found")
	case err != nil:
		h.logger.Error("deactivate failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	default:
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (h *Handler) reactivate(w http.ResponseWriter, r *http.Request) {
	err := h.service.Reactivate(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "user not found")
	case err != nil:
		h.logger.Error("reactivate failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	default:
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
