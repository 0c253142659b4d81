// AngelaMos | 2026
// entity.go

package invite

import (
	"errors"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
)

type Reason string

const (
	ReasonNotFound    Reason = "not_found"
	ReasonAlreadyUsed Reason = "already_used"
	ReasonExpired     Reason = "expired"
)

var (
	ErrCodeAlreadyUsed = errors.New("invite code already used")
	ErrCodeExpired     = errors.New("invite code expired")
	ErrQuotaExceeded   = errors.New("invite quota exceeded")
	ErrEmailMismatch   = errors.New("invite code is bound to a different email")
	ErrNotEligible     = errors.New("only approved curators can issue invites")
)

type Invite struct {
	Code          string
	IssuerID      string
	Status        Status
	BoundEmail    *string
	RedeemerID    *string
	RedeemerEmail *string
	RedeemedAt    *time.Time
	ExpiresAt     time.Time
	CreatedAt     time.Time
}

// LiveStatus is the status as of now. The stored status is only a cache
// for pending codes; expires_at decides.
func (i *Invite) LiveStatus(now time.Time) Status {
	if i.Status == StatusCompleted {
		return StatusCompleted
	}
	if i.Status == StatusExpired || !now.Before(i.ExpiresAt) {
		return StatusExpired
	}
	return StatusPending
}

type Validation struct {
	Valid     bool
	Reason    Reason
	ExpiresAt *time.Time
}

type Issuer struct {
	ID    string
	Admin bool
}

type IssueInput struct {
	// Email optionally binds the code to one address.
	Email string
}

type RedeemInput struct {
	RedeemerID string
	Email      string
}
