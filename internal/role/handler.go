// AngelaMos | 2026
// handler.go

package role

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
	r.Route("/organizations/{orgID}/roles", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Get("/{roleID}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)

			r.Post("/", h.Create)
			r.Put("/{roleID}", h.Update)
			r.Delete("/{roleID}", h.Delete)
			r.Post("/{roleID}/features", h.GrantFeature)
			r.Delete("/{roleID}/features/{slug}", h.RevokeFeature)
			r.Post("/{roleID}/assignments", h.Assign)
			r.Delete("/{roleID}/assignments/{userID}", h.Unassign)
		})
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")

	var req CreateRoleRequest
	if !h.decode(w, r, &req) {
		return
	}

	detail, err := h.service.Create(r.Context(), orgID, req)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			core.Conflict(w, "role already exists")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, detail)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	roleID := chi.URLParam(r, "roleID")

	detail, err := h.service.Get(r.Context(), orgID, roleID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, detail)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	roleID := chi.URLParam(r, "roleID")

	var req UpdateRoleRequest
	if !h.decode(w, r, &req) {
		return
	}

	ro, err := h.service.Update(r.Context(), orgID, roleID, req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, ro)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	roleID := chi.URLParam(r, "roleID")

	if err := h.service.Delete(r.Context(), orgID, roleID); err != nil {
		h.writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")

	roles, err := h.service.List(r.Context(), orgID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, roles)
}

func (h *Handler) GrantFeature(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	roleID := chi.URLParam(r, "roleID")

	var req GrantFeatureRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.GrantFeature(r.Context(), orgID, roleID, req); err != nil {
		h.writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) RevokeFeature(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	roleID := chi.URLParam(r, "roleID")
	slug := chi.URLParam(r, "slug")

	if err := h.service.RevokeFeature(r.Context(), orgID, roleID, slug); err != nil {
		h.writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	roleID := chi.URLParam(r, "roleID")

	var req AssignRoleRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.Assign(r.Context(), orgID, roleID, req); err != nil {
		h.writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) Unassign(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	roleID := chi.URLParam(r, "roleID")
	userID := chi.URLParam(r, "userID")

	if err := h.service.Unassign(r.Context(), orgID, roleID, userID); err != nil {
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
		core.NotFound(w, "role")
	case errors.Is(err, core.ErrDuplicateKey):
		core.Conflict(w, "role already exists")
	default:
		core.InternalServerError(w, err)
	}
}
