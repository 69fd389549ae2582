// AngelaMos | 2026
// handler.go

package feature

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
	r.Route("/organizations/{orgID}/features", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Get("/{slug}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)

			r.Post("/", h.Create)
			r.Put("/{slug}", h.Update)
			r.Delete("/{slug}", h.Delete)
		})
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")

	var req CreateFeatureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	f, err := h.service.Create(r.Context(), orgID, req)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			core.Conflict(w, "feature slug already exists")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, f)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	slug := chi.URLParam(r, "slug")

	f, err := h.service.GetBySlug(r.Context(), orgID, slug)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "feature")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, f)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	slug := chi.URLParam(r, "slug")

	var req UpdateFeatureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	f, err := h.service.Update(r.Context(), orgID, slug, req)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "feature")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, f)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	slug := chi.URLParam(r, "slug")

	if err := h.service.Delete(r.Context(), orgID, slug); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "feature")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")

	features, err := h.service.List(r.Context(), orgID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, features)
}
