// AngelaMos | 2026
// handler.go

package organization

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
	r.Route("/organizations", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/", h.Create)
		r.Get("/{orgID}", h.Get)
		r.Get("/{orgID}/members", h.ListMembers)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)

			r.Put("/{orgID}", h.Update)
			r.Delete("/{orgID}", h.Delete)
			r.Put("/{orgID}/plan", h.AssignPlan)
			r.Post("/{orgID}/members", h.AddMember)
			r.Delete("/{orgID}/members/{userID}", h.RemoveMember)
		})
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	creatorID := middleware.GetUserID(r.Context())

	var req CreateOrganizationRequest
	if !h.decode(w, r, &req) {
		return
	}

	o, err := h.service.Create(r.Context(), creatorID, req)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			core.Conflict(w, "organization already exists")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, o)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")

	o, err := h.service.Get(r.Context(), orgID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, o)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")

	var req UpdateOrganizationRequest
	if !h.decode(w, r, &req) {
		return
	}

	o, err := h.service.Update(r.Context(), orgID, req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, o)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")

	if err := h.service.Delete(r.Context(), orgID); err != nil {
		h.writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) AssignPlan(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")

	var req AssignPlanRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.AssignPlan(r.Context(), orgID, req); err != nil {
		h.writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")

	var req AddMemberRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.AddMember(r.Context(), orgID, req); err != nil {
		h.writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	userID := chi.URLParam(r, "userID")

	if err := h.service.RemoveMember(r.Context(), orgID, userID); err != nil {
		h.writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")

	members, err := h.service.ListMembers(r.Context(), orgID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, members)
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
		core.NotFound(w, "organization")
	case errors.Is(err, core.ErrDuplicateKey):
		core.Conflict(w, "organization already exists")
	default:
		core.InternalServerError(w, err)
	}
}
