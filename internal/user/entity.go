// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         string
	TokenVersion int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

const (
	RoleCurator = "curator"
	RoleAdmin   = "admin"
)

func ValidRole(role string) bool {
	return role == RoleCurator || role == RoleAdmin
}
