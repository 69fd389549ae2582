// AngelaMos | 2026
// handler.go

package usage

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
	r.Route("/organizations/{orgID}/usage", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.ListMine)
		r.Post("/consume", h.Consume)
		r.Post("/record", h.Record)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)

			r.Get("/users/{userID}", h.ListForUser)
			r.Delete("/users/{userID}/{slug}", h.Reset)
		})
	})
}

// Consume is the guarded path: it refuses increments that would cross the
// caller's effective limit.
func (h *Handler) Consume(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	orgID := chi.URLParam(r, "orgID")

	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	counter, err := h.service.Consume(
		r.Context(),
		userID,
		orgID,
		req.FeatureSlug,
		req.Amount,
	)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, counter)
}

// Record is the metered path: the increment always lands.
func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	orgID := chi.URLParam(r, "orgID")

	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	counter, err := h.service.Record(
		r.Context(),
		userID,
		orgID,
		req.FeatureSlug,
		req.Amount,
	)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, counter)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	orgID := chi.URLParam(r, "orgID")

	counters, err := h.service.ListForUser(r.Context(), userID, orgID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, counters)
}

func (h *Handler) ListForUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	orgID := chi.URLParam(r, "orgID")

	counters, err := h.service.ListForUser(r.Context(), userID, orgID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, counters)
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	orgID := chi.URLParam(r, "orgID")
	slug := chi.URLParam(r, "slug")

	if err := h.service.Reset(r.Context(), userID, orgID, slug); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) decode(
	w http.ResponseWriter,
	r *http.Request,
) (RecordUsageRequest, bool) {
	var req RecordUsageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return req, false
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return req, false
	}

	return req, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrLimitExceeded):
		core.LimitExceeded(w, "usage limit exceeded")
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, "feature not enabled")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, "invalid usage amount")
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "feature or membership")
	default:
		core.InternalServerError(w, err)
	}
}
