// AngelaMos | 2026
// dto.go

package user

import (
	"time"

	"github.com/carterperez-dev/curator-backend/internal/profile"
)

type UpdateUserRequest struct {
	Name *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
}

type UpdateUserRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=curator admin"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CurationSummary is the slice of a curator profile an administrator
// needs next to the account. Status is "none" before the first edit.
type CurationSummary struct {
	Status          string     `json:"status"`
	LastSubmittedAt *time.Time `json:"last_submitted_at,omitempty"`
	Retired         bool       `json:"retired,omitempty"`
}

type AdminUserResponse struct {
	UserResponse
	TokenVersion int             `json:"token_version"`
	Curation     CurationSummary `json:"curation"`
}

// ListUsersParams filters the admin account listing. Search matches a
// substring of email or name, case-insensitively.
type ListUsersParams struct {
	Page     int
	PageSize int
	Search   string
	Role     string
}

func (p *ListUsersParams) Normalize() {
	p.Page = max(p.Page, 1)
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	p.PageSize = min(p.PageSize, 100)
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToUserResponse(&users[i]))
	}
	return responses
}

func toAdminUserResponse(u *User, p *profile.Profile) AdminUserResponse {
	summary := CurationSummary{Status: "none"}
	if p != nil {
		summary = CurationSummary{
			Status:          string(p.Status),
			LastSubmittedAt: p.LastSubmittedAt,
			Retired:         p.IsAnonymized(),
		}
	}

	return AdminUserResponse{
		UserResponse: ToUserResponse(u),
		TokenVersion: u.TokenVersion,
		Curation:     summary,
	}
}
