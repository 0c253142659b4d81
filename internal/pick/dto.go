// AngelaMos | 2026
// dto.go

package pick

import (
	"time"
)

type CreatePickRequest struct {
	Category    string `json:"category"              validate:"required,oneof=books products places"`
	Rank        *int   `json:"rank,omitempty"`
	Title       string `json:"title"                 validate:"required,min=1,max=200"`
	Description string `json:"description,omitempty" validate:"max=2000"`
	LinkURL     string `json:"link_url,omitempty"    validate:"omitempty,url,max=2048"`
	ImageURL    string `json:"image_url,omitempty"   validate:"omitempty,url,max=2048"`
}

// UpdatePickRequest leaves nil fields unchanged. A rank outside 1..3
// takes the pick out of the featured slots.
type UpdatePickRequest struct {
	Category    *string `json:"category,omitempty"    validate:"omitempty,oneof=books products places"`
	Rank        *int    `json:"rank,omitempty"`
	Title       *string `json:"title,omitempty"       validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	LinkURL     *string `json:"link_url,omitempty"    validate:"omitempty,url,max=2048"`
	ImageURL    *string `json:"image_url,omitempty"   validate:"omitempty,url,max=2048"`
}

type PickResponse struct {
	ID          string    `json:"id"`
	Category    Category  `json:"category"`
	Rank        *int      `json:"rank"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	LinkURL     string    `json:"link_url"`
	ImageURL    string    `json:"image_url"`
	Status      Status    `json:"status"`
	ReviewNote  *string   `json:"review_note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func ToPickResponse(p *Pick) PickResponse {
	return PickResponse{
		ID:          p.ID,
		Category:    p.Category,
		Rank:        p.Rank,
		Title:       p.Title,
		Description: p.Description,
		LinkURL:     p.LinkURL,
		ImageURL:    p.ImageURL,
		Status:      p.Status,
		ReviewNote:  p.ReviewNote,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func ToPickResponseList(picks []Pick) []PickResponse {
	responses := make([]PickResponse, 0, len(picks))
	for i := range picks {
		responses = append(responses, ToPickResponse(&picks[i]))
	}
	return responses
}
