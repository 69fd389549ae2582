// AngelaMos | 2026
// handler.go

package override

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
	r.Route("/organizations/{orgID}/overrides", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(requireAdmin)

		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{overrideID}", h.Get)
		r.Delete("/{overrideID}", h.Delete)
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	createdBy := middleware.GetUserID(r.Context())

	var req CreateOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	o, err := h.service.Create(r.Context(), orgID, createdBy, req)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidInput):
			core.BadRequest(w, err.Error())
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "feature")
		case errors.Is(err, core.ErrDuplicateKey):
			core.Conflict(w, "an active override of this kind already exists")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.Created(w, ToOverrideResponse(o))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	id := chi.URLParam(r, "overrideID")

	o, err := h.service.Get(r.Context(), orgID, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "override")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToOverrideResponse(o))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	id := chi.URLParam(r, "overrideID")

	if err := h.service.Delete(r.Context(), orgID, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "override")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")

	overrides, err := h.service.List(r.Context(), orgID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToOverrideResponses(overrides))
}
