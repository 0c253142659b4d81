// AngelaMos | 2026
// entity.go

package profile

import (
	"time"
)

type Status string

const (
	StatusDraft       Status = "draft"
	StatusPending     Status = "pending"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusUnpublished Status = "unpublished"
)

// Profile is the public face of a curator account. It is never hard
// deleted; retiring an account anonymizes it in place.
type Profile struct {
	UserID           string
	DisplayName      string
	Title            string
	Bio              string
	AvatarURL        string
	CoverURL         string
	Status           Status
	RejectionNote    *string
	LastSubmittedAt  *time.Time
	DetailsUpdatedAt time.Time
	AnonymizedAt     *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (p *Profile) IsApproved() bool {
	return p.Status == StatusApproved
}

func (p *Profile) IsAnonymized() bool {
	return p.AnonymizedAt != nil
}

func (p *Profile) HasImage() bool {
	return p.AvatarURL != "" || p.CoverURL != ""
}
