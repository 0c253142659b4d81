// AngelaMos | 2026
// handler.go

package curation

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/curator-backend/internal/core"
	"github.com/carterperez-dev/curator-backend/internal/middleware"
	"github.com/carterperez-dev/curator-backend/internal/pick"
	"github.com/carterperez-dev/curator-backend/internal/profile"
	"github.com/carterperez-dev/curator-backend/internal/review"
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

// RegisterOwnerRoutes expects to be mounted inside an authenticated group.
func (h *Handler) RegisterOwnerRoutes(r chi.Router) {
	r.Get("/profile/me/readiness", h.Readiness)
	r.Post("/profile/me/submit", h.Submit)
	r.Post("/profile/me/cancel", h.Cancel)
	r.Post("/profile/me/unpublish", h.Unpublish)
}

func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/curators/{userID}", h.GetCurator)
}

// RegisterAdminRoutes expects authentication and the admin role.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/admin/reviews", h.ListReviews)
	r.Get("/admin/reviews/{reviewID}", h.GetReview)
	r.Post("/admin/profiles/{userID}/approve", h.Approve)
	r.Post("/admin/profiles/{userID}/reject", h.Reject)
}

func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Readiness(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, d)
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Submit(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, SubmitResponse{
		Profile: profile.ToProfileResponse(res.Profile),
		Review:  ToReviewResponse(res.Review),
	})
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.CancelSubmission(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, CancelResponse{
		Canceled: res.Canceled,
		Profile:  profile.ToProfileResponse(res.Profile),
	})
}

func (h *Handler) Unpublish(w http.ResponseWriter, r *http.Request) {
	var req UnpublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if !req.Confirm {
		core.BadRequest(w, "unpublishing must be confirmed")
		return
	}

	p, err := h.service.Unpublish(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, profile.ToProfileResponse(p))
}

func (h *Handler) GetCurator(w http.ResponseWriter, r *http.Request) {
	p, items, err := h.service.PublicCurator(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "curator")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, PublicCuratorResponse{
		Profile: profile.ToPublicProfileResponse(p),
		Picks:   pick.ToPickResponseList(items),
	})
}

func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	params := review.ListParams{
		Status:   review.Status(r.URL.Query().Get("status")),
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
	}
	if params.Status == "" {
		params.Status = review.StatusPending
	}
	if params.Status == "all" {
		params.Status = ""
	} else if !params.Status.Valid() {
		core.BadRequest(w, "status must be one of pending, approved, rejected, canceled, all")
		return
	}
	params.Normalize()

	reviews, total, err := h.service.ListReviews(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToReviewResponseList(reviews), params.Page, params.PageSize, total)
}

func (h *Handler) GetReview(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetReview(r.Context(), chi.URLParam(r, "reviewID"))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "review")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ReviewDetailResponse{
		Review:   ToReviewResponse(detail.Review),
		Profile:  profile.ToProfileResponse(detail.Profile),
		Picks:    pick.ToPickResponseList(detail.Picks),
		Decision: detail.Decision,
		History:  ToReviewResponseList(detail.History),
	})
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Approve(
		r.Context(),
		chi.URLParam(r, "userID"),
		middleware.GetUserID(r.Context()),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, toReviewResultResponse(res))
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	var req RejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	res, err := h.service.Reject(
		r.Context(),
		chi.URLParam(r, "userID"),
		middleware.GetUserID(r.Context()),
		RejectInput{Note: req.Note, PickIDs: req.PickIDs},
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, toReviewResultResponse(res))
}

func writeError(w http.ResponseWriter, err error) {
	var gateErr *GateError

	switch {
	case errors.As(err, &gateErr):
		code := "GATE_REJECTED"
		message := "profile is not ready to submit"
		if errors.Is(err, ErrInsufficientPicks) {
			code = "INSUFFICIENT_PICKS"
			message = "picks no longer fill every category"
		}
		core.JSONError(w, core.NewAppError(err, message, http.StatusUnprocessableEntity, code).
			WithDetails(gateErr.Decision))
	case errors.Is(err, core.ErrStaleState):
		core.JSONError(w, core.StaleStateError())
	case errors.Is(err, ErrInvalidTransition):
		core.JSONError(w, core.ConflictError(err.Error(), "INVALID_TRANSITION"))
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, "reviewers cannot decide on their own profile")
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "profile")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, err.Error())
	default:
		core.InternalServerError(w, err)
	}
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
