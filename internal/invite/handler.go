// AngelaMos | 2026
// handler.go

package invite

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/curator-backend/internal/core"
	"github.com/carterperez-dev/curator-backend/internal/middleware"
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

// RegisterPublicRoutes mounts code lookup. Callers wrap it in a strict
// per-IP limiter.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/invites/{code}", h.Validate)
}

// RegisterRoutes expects to be mounted inside an authenticated group.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/invites", h.List)
	r.Post("/invites", h.Issue)
}

func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/admin/invites/expire", h.Expire)
}

func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.Validate(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ValidationResponse{
		Valid:     v.Valid,
		Reason:    v.Reason,
		ExpiresAt: v.ExpiresAt,
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	invites, err := h.service.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToInviteResponseList(invites))
}

func (h *Handler) Issue(w http.ResponseWriter, r *http.Request) {
	var req IssueRequest
	// The body is optional; an empty one issues an unbound code.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	issuer := Issuer{
		ID:    middleware.GetUserID(r.Context()),
		Admin: middleware.IsAdmin(r.Context()),
	}

	inv, err := h.service.Issue(r.Context(), issuer, IssueInput{Email: req.Email})
	if err != nil {
		WriteError(w, err)
		return
	}

	core.Created(w, ToInviteResponse(inv))
}

func (h *Handler) Expire(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.ExpireStale(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ExpireResponse{Expired: n})
}

// WriteError maps invite errors to responses. Registration reuses it.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrCodeAlreadyUsed):
		core.JSONError(w, core.ConflictError("invite code has already been used", "INVITE_ALREADY_USED"))
	case errors.Is(err, ErrCodeExpired):
		core.JSONError(w, core.NewAppError(err, "invite code has expired", http.StatusGone, "INVITE_EXPIRED"))
	case errors.Is(err, ErrEmailMismatch):
		core.JSONError(w, core.NewAppError(err, "invite code is bound to another email", http.StatusForbidden, "INVITE_EMAIL_MISMATCH"))
	case errors.Is(err, ErrQuotaExceeded):
		core.JSONError(w, core.ConflictError("invite quota reached", "INVITE_QUOTA_EXCEEDED"))
	case errors.Is(err, ErrNotEligible):
		core.Forbidden(w, "only approved curators can issue invites")
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "invite code")
	default:
		core.InternalServerError(w, err)
	}
}
