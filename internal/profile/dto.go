// AngelaMos | 2026
// dto.go

package profile

import (
	"time"
)

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,max=80"`
	Title       *string `json:"title,omitempty"        validate:"omitempty,max=120"`
	Bio         *string `json:"bio,omitempty"          validate:"omitempty,max=2000"`
	AvatarURL   *string `json:"avatar_url,omitempty"   validate:"omitempty,url,max=2048"`
	CoverURL    *string `json:"cover_url,omitempty"    validate:"omitempty,url,max=2048"`
}

type ProfileResponse struct {
	UserID          string     `json:"user_id"`
	DisplayName     string     `json:"display_name"`
	Title           string     `json:"title"`
	Bio             string     `json:"bio"`
	AvatarURL       string     `json:"avatar_url"`
	CoverURL        string     `json:"cover_url"`
	Status          Status     `json:"status"`
	RejectionNote   *string    `json:"rejection_note,omitempty"`
	LastSubmittedAt *time.Time `json:"last_submitted_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func ToProfileResponse(p *Profile) ProfileResponse {
	return ProfileResponse{
		UserID:          p.UserID,
		DisplayName:     p.DisplayName,
		Title:           p.Title,
		Bio:             p.Bio,
		AvatarURL:       p.AvatarURL,
		CoverURL:        p.CoverURL,
		Status:          p.Status,
		RejectionNote:   p.RejectionNote,
		LastSubmittedAt: p.LastSubmittedAt,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// PublicProfileResponse omits workflow fields that only the owner and
// reviewers see.
type PublicProfileResponse struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Title       string `json:"title"`
	Bio         string `json:"bio"`
	AvatarURL   string `json:"avatar_url"`
	CoverURL    string `json:"cover_url"`
}

func ToPublicProfileResponse(p *Profile) PublicProfileResponse {
	return PublicProfileResponse{
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		Title:       p.Title,
		Bio:         p.Bio,
		AvatarURL:   p.AvatarURL,
		CoverURL:    p.CoverURL,
	}
}
