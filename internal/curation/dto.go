// AngelaMos | 2026
// dto.go

package curation

import (
	"time"

	"github.com/carterperez-dev/curator-backend/internal/gate"
	"github.com/carterperez-dev/curator-backend/internal/pick"
	"github.com/carterperez-dev/curator-backend/internal/profile"
	"github.com/carterperez-dev/curator-backend/internal/review"
)

type UnpublishRequest struct {
	Confirm bool `json:"confirm"`
}

type RejectRequest struct {
	Note    string   `json:"note"               validate:"required,min=1,max=2000"`
	PickIDs []string `json:"pick_ids,omitempty" validate:"omitempty,max=50,dive,required"`
}

type ReviewResponse struct {
	ID          string        `json:"id"`
	ProfileID   string        `json:"profile_id"`
	Status      review.Status `json:"status"`
	Note        *string       `json:"note,omitempty"`
	ReviewerID  *string       `json:"reviewer_id,omitempty"`
	SubmittedAt time.Time     `json:"submitted_at"`
	ReviewedAt  *time.Time    `json:"reviewed_at,omitempty"`
}

func ToReviewResponse(rv *review.Review) ReviewResponse {
	return ReviewResponse{
		ID:          rv.ID,
		ProfileID:   rv.ProfileID,
		Status:      rv.Status,
		Note:        rv.Note,
		ReviewerID:  rv.ReviewerID,
		SubmittedAt: rv.SubmittedAt,
		ReviewedAt:  rv.ReviewedAt,
	}
}

func ToReviewResponseList(reviews []review.Review) []ReviewResponse {
	out := make([]ReviewResponse, 0, len(reviews))
	for i := range reviews {
		out = append(out, ToReviewResponse(&reviews[i]))
	}
	return out
}

type SubmitResponse struct {
	Profile profile.ProfileResponse `json:"profile"`
	Review  ReviewResponse          `json:"review"`
}

type CancelResponse struct {
	Canceled bool                    `json:"canceled"`
	Profile  profile.ProfileResponse `json:"profile"`
}

type ReviewResultResponse struct {
	Profile profile.ProfileResponse `json:"profile"`
	Review  ReviewResponse          `json:"review"`
}

func toReviewResultResponse(res *ReviewResult) ReviewResultResponse {
	return ReviewResultResponse{
		Profile: profile.ToProfileResponse(res.Profile),
		Review:  ToReviewResponse(res.Review),
	}
}

type ReviewDetailResponse struct {
	Review   ReviewResponse          `json:"review"`
	Profile  profile.ProfileResponse `json:"profile"`
	Picks    []pick.PickResponse     `json:"picks"`
	Decision gate.Decision           `json:"approval_check"`
	History  []ReviewResponse        `json:"history"`
}

type PublicCuratorResponse struct {
	Profile profile.PublicProfileResponse `json:"profile"`
	Picks   []pick.PickResponse           `json:"picks"`
}

type StatsResponse struct {
	Profiles map[profile.Status]int `json:"profiles"`
	Picks    map[pick.Status]int    `json:"picks"`
	Reviews  map[review.Status]int  `json:"reviews"`
}

func ToStatsResponse(s *Stats) StatsResponse {
	return StatsResponse{Profiles: s.Profiles, Picks: s.Picks, Reviews: s.Reviews}
}
