// AngelaMos | 2026
// transitions.go

package curation

import (
	"fmt"

	"github.com/carterperez-dev/curator-backend/internal/profile"
)

type action string

const (
	actionSubmit    action = "submit"
	actionCancel    action = "cancel"
	actionUnpublish action = "unpublish"
	actionApprove   action = "approve"
	actionReject    action = "reject"
)

type transition struct {
	from []profile.Status
	to   profile.Status
}

// profileTransitions is the only place profile statuses are allowed to
// change. Repositories enforce the from side again with a conditional
// update.
var profileTransitions = map[action]transition{
	actionSubmit: {
		from: []profile.Status{profile.StatusDraft, profile.StatusRejected, profile.StatusUnpublished},
		to:   profile.StatusPending,
	},
	actionCancel:    {from: []profile.Status{profile.StatusPending}, to: profile.StatusDraft},
	actionUnpublish: {from: []profile.Status{profile.StatusApproved}, to: profile.StatusUnpublished},
	actionApprove:   {from: []profile.Status{profile.StatusPending}, to: profile.StatusApproved},
	actionReject:    {from: []profile.Status{profile.StatusPending}, to: profile.StatusRejected},
}

func checkTransition(a action, from profile.Status) (profile.Status, error) {
	t := profileTransitions[a]
	for _, s := range t.from {
		if s == from {
			return t.to, nil
		}
	}
	return "", fmt.Errorf("%s from %s: %w", a, from, ErrInvalidTransition)
}
