// AngelaMos | 2026
// handler.go

package entitlement

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/angelamos/entitled/internal/core"
	"github.com/angelamos/entitled/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	requireAdmin func(http.Handler) http.Handler,
) {
	r.Route("/organizations/{orgID}", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/entitlements", h.ResolveMe)
		r.Get("/entitlements/check/{slug}", h.CheckMe)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)

			r.Get("/entitlements/users/{userID}", h.ResolveUser)
			r.Post("/entitlements/users/{userID}/preview", h.WhatIf)
			r.Delete("/entitlements/users/{userID}/cache", h.InvalidateUser)
			r.Delete("/entitlements/cache", h.InvalidateOrganization)
		})
	})
}

// ResolveMe returns the caller's own permission map in the organization.
func (h *Handler) ResolveMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	orgID := chi.URLParam(r, "orgID")

	h.resolve(w, r, userID, orgID)
}

// ResolveUser returns another member's permission map. Admin only.
func (h *Handler) ResolveUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	orgID := chi.URLParam(r, "orgID")

	h.resolve(w, r, userID, orgID)
}

func (h *Handler) resolve(
	w http.ResponseWriter,
	r *http.Request,
	userID, orgID string,
) {
	pm, err := h.service.Resolve(r.Context(), userID, orgID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "membership")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToResolveResponse(pm))
}

// CheckMe answers allow/deny for one feature slug without exposing the full
// map shape to callers that only gate a single action.
func (h *Handler) CheckMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	orgID := chi.URLParam(r, "orgID")
	slug := chi.URLParam(r, "slug")

	result, err := h.service.CheckFeature(r.Context(), userID, orgID, slug)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "membership")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, result)
}

// WhatIf resolves against a hypothetical plan. The result is never cached.
func (h *Handler) WhatIf(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	orgID := chi.URLParam(r, "orgID")

	var req WhatIfRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	pm, err := h.service.ResolveWithPlan(r.Context(), userID, orgID, req.PlanID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "plan or membership")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToResolveResponse(pm))
}

func (h *Handler) InvalidateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	orgID := chi.URLParam(r, "orgID")

	if err := h.service.Invalidate(r.Context(), userID, orgID); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) InvalidateOrganization(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")

	if err := h.service.InvalidateOrganization(r.Context(), orgID); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}
