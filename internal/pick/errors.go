// AngelaMos | 2026
// errors.go

package pick

import (
	"errors"
)

var (
	// ErrRankTaken means another pick already holds the category slot.
	ErrRankTaken = errors.New("rank slot already taken")

	// ErrLocked is returned for edits to a published pick while its
	// profile is live. The owner unpublishes first.
	ErrLocked = errors.New("pick is published")
)
