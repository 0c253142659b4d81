// AngelaMos | 2026
// entity.go

package review

import (
	"errors"
	"time"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusCanceled Status = "canceled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCanceled:
		return true
	}
	return false
}

// ErrAlreadyPending is returned when a profile already has a live review.
var ErrAlreadyPending = errors.New("profile already has a pending review")

// Review is one administrator review cycle. Once it leaves pending it is
// never written again.
type Review struct {
	ID          string
	ProfileID   string
	Status      Status
	Note        *string
	ReviewerID  *string
	SubmittedAt time.Time
	ReviewedAt  *time.Time
}

type ListParams struct {
	Status   Status
	Page     int
	PageSize int
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}
