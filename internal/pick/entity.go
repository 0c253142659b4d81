// AngelaMos | 2026
// entity.go

package pick

import (
	"time"
)

type Category string

const (
	CategoryBooks    Category = "books"
	CategoryProducts Category = "products"
	CategoryPlaces   Category = "places"
)

// Categories is the closed set every curator fills, in display order.
var Categories = []Category{CategoryBooks, CategoryProducts, CategoryPlaces}

func (c Category) Valid() bool {
	switch c {
	case CategoryBooks, CategoryProducts, CategoryPlaces:
		return true
	}
	return false
}

type Status string

const (
	StatusDraft         Status = "draft"
	StatusPendingReview Status = "pending_review"
	StatusPublished     Status = "published"
	StatusRejected      Status = "rejected"
)

// FeaturedSlots is the number of ranked slots per category.
const FeaturedSlots = 3

type Pick struct {
	ID          string
	ProfileID   string
	Category    Category
	Rank        *int
	Title       string
	Description string
	LinkURL     string
	ImageURL    string
	Status      Status
	ReviewNote  *string
	CreatedAt   time.Time
	// UpdatedAt moves only on owner edits. Status transitions leave it
	// alone so it can be compared against a profile's last submission.
	UpdatedAt time.Time
}

func (p *Pick) Featured() bool {
	return p.Rank != nil && *p.Rank >= 1 && *p.Rank <= FeaturedSlots
}

func (p *Pick) IsPublished() bool {
	return p.Status == StatusPublished
}

// NormalizeRank maps anything outside the featured slots to nil.
func NormalizeRank(rank *int) *int {
	if rank == nil || *rank < 1 || *rank > FeaturedSlots {
		return nil
	}
	r := *rank
	return &r
}
