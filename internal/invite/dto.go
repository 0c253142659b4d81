// AngelaMos | 2026
// dto.go

package invite

import (
	"time"
)

type IssueRequest struct {
	Email string `json:"email,omitempty" validate:"omitempty,email,max=255"`
}

type InviteResponse struct {
	Code       string     `json:"code"`
	Status     Status     `json:"status"`
	BoundEmail *string    `json:"bound_email,omitempty"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

func ToInviteResponse(inv *Invite) InviteResponse {
	return InviteResponse{
		Code:       inv.Code,
		Status:     inv.Status,
		BoundEmail: inv.BoundEmail,
		RedeemedAt: inv.RedeemedAt,
		ExpiresAt:  inv.ExpiresAt,
		CreatedAt:  inv.CreatedAt,
	}
}

func ToInviteResponseList(invites []Invite) []InviteResponse {
	out := make([]InviteResponse, 0, len(invites))
	for i := range invites {
		out = append(out, ToInviteResponse(&invites[i]))
	}
	return out
}

type ValidationResponse struct {
	Valid     bool       `json:"valid"`
	Reason    Reason     `json:"reason,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type ExpireResponse struct {
	Expired int64 `json:"expired"`
}
