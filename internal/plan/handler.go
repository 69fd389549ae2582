// AngelaMos | 2026
// handler.go

package plan

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/angelamos/entitled/internal/core"
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
	r.Route("/organizations/{orgID}/plans", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Get("/{planID}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)

			r.Post("/", h.Create)
			r.Put("/{planID}", h.Update)
			r.Delete("/{planID}", h.Delete)
			r.Put("/{planID}/features", h.SetFeature)
			r.Delete("/{planID}/features/{slug}", h.RemoveFeature)
			r.Put("/{planID}/limits", h.SetLimit)
			r.Delete("/{planID}/limits/{slug}", h.RemoveLimit)
		})
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")

	var req CreatePlanRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.service.Create(r.Context(), orgID, req)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			core.Conflict(w, "plan already exists")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, p)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	planID := chi.URLParam(r, "planID")

	detail, err := h.service.Get(r.Context(), orgID, planID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, detail)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	planID := chi.URLParam(r, "planID")

	var req UpdatePlanRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.service.Update(r.Context(), orgID, planID, req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, p)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	planID := chi.URLParam(r, "planID")

	if err := h.service.Delete(r.Context(), orgID, planID); err != nil {
		h.writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")

	plans, err := h.service.List(r.Context(), orgID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, plans)
}

func (h *Handler) SetFeature(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	planID := chi.URLParam(r, "planID")

	var req SetFeatureRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.SetFeature(r.Context(), orgID, planID, req); err != nil {
		h.writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) RemoveFeature(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	planID := chi.URLParam(r, "planID")
	slug := chi.URLParam(r, "slug")

	if err := h.service.RemoveFeature(r.Context(), orgID, planID, slug); err != nil {
		h.writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) SetLimit(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	planID := chi.URLParam(r, "planID")

	var req SetLimitRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.SetLimit(r.Context(), orgID, planID, req); err != nil {
		h.writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) RemoveLimit(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	planID := chi.URLParam(r, "planID")
	slug := chi.URLParam(r, "slug")

	if err := h.service.RemoveLimit(r.Context(), orgID, planID, slug); err != nil {
		h.writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}

	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "plan")
	case errors.Is(err, core.ErrDuplicateKey):
		core.Conflict(w, "plan already exists")
	default:
		core.InternalServerError(w, err)
	}
}
