// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

type RefreshToken struct {
	ID           string
	UserID       string
	TokenHash    string
	FamilyID     string
	ExpiresAt    time.Time
	CreatedAt    time.Time
	IsUsed       bool
	UsedAt       *time.Time
	RevokedAt    *time.Time
	ReplacedByID *string
	UserAgent    string
	IPAddress    string
}

func (t *RefreshToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

func (t *RefreshToken) IsValid(now time.Time) bool {
	return !t.IsExpired(now) && !t.IsRevoked() && !t.IsUsed
}
