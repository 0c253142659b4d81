// AngelaMos | 2026
// gate.go

// Package gate decides whether a profile may move to pending or approved.
// Every function is pure; callers load the profile and all of its picks
// inside the transaction that will act on the decision.
package gate

import (
	"strings"

	"github.com/carterperez-dev/curator-backend/internal/pick"
	"github.com/carterperez-dev/curator-backend/internal/profile"
)

type Reason string

const (
	ReasonIncompleteContent       Reason = "incomplete_content"
	ReasonIncompleteProfile       Reason = "incomplete_profile"
	ReasonInsufficientPicks       Reason = "insufficient_picks"
	ReasonUnchangedSinceRejection Reason = "unchanged_since_rejection"
)

// Shortfall describes one category that does not fill all featured slots.
type Shortfall struct {
	Category     pick.Category `json:"category"`
	Have         int           `json:"have"`
	Need         int           `json:"need"`
	MissingRanks []int         `json:"missing_ranks"`
}

type Decision struct {
	OK            bool        `json:"ok"`
	Reason        Reason      `json:"reason,omitempty"`
	Shortfalls    []Shortfall `json:"shortfalls,omitempty"`
	MissingFields []string    `json:"missing_fields,omitempty"`
}

func allow() Decision {
	return Decision{OK: true}
}

// Deny builds a failed decision with no further detail.
func Deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// CanSubmit requires every category to have ranks 1..3 held by picks that
// are not rejected, and the profile to carry a display name, a title and
// at least one image. Content shortfalls take precedence as the reason;
// missing fields are reported either way.
func CanSubmit(p *profile.Profile, items []pick.Pick) Decision {
	shortfalls := contentShortfalls(items, func(s pick.Status) bool {
		return s != pick.StatusRejected
	})
	missing := missingFields(p)

	switch {
	case len(shortfalls) > 0:
		return Decision{
			Reason:        ReasonIncompleteContent,
			Shortfalls:    shortfalls,
			MissingFields: missing,
		}
	case len(missing) > 0:
		return Decision{Reason: ReasonIncompleteProfile, MissingFields: missing}
	}

	return allow()
}

// CanApprove re-runs the content check against what a reviewer would
// actually publish: picks that are pending review or already published.
func CanApprove(_ *profile.Profile, items []pick.Pick) Decision {
	shortfalls := contentShortfalls(items, func(s pick.Status) bool {
		return s == pick.StatusPendingReview || s == pick.StatusPublished
	})
	if len(shortfalls) > 0 {
		return Decision{Reason: ReasonInsufficientPicks, Shortfalls: shortfalls}
	}
	return allow()
}

// CanResubmitAfterRejection reports whether the curator changed anything
// visible after their last submission.
func CanResubmitAfterRejection(p *profile.Profile, items []pick.Pick) bool {
	if p.LastSubmittedAt == nil {
		return true
	}

	since := *p.LastSubmittedAt
	if p.DetailsUpdatedAt.After(since) {
		return true
	}

	for i := range items {
		if items[i].UpdatedAt.After(since) {
			return true
		}
	}

	return false
}

func contentShortfalls(items []pick.Pick, eligible func(pick.Status) bool) []Shortfall {
	occupied := make(map[pick.Category][pick.FeaturedSlots + 1]bool, len(pick.Categories))

	for i := range items {
		it := &items[i]
		if !it.Featured() || !eligible(it.Status) {
			continue
		}
		slots := occupied[it.Category]
		slots[*it.Rank] = true
		occupied[it.Category] = slots
	}

	var out []Shortfall
	for _, c := range pick.Categories {
		slots := occupied[c]
		var missing []int
		for rank := 1; rank <= pick.FeaturedSlots; rank++ {
			if !slots[rank] {
				missing = append(missing, rank)
			}
		}
		if len(missing) > 0 {
			out = append(out, Shortfall{
				Category:     c,
				Have:         pick.FeaturedSlots - len(missing),
				Need:         pick.FeaturedSlots,
				MissingRanks: missing,
			})
		}
	}

	return out
}

func missingFields(p *profile.Profile) []string {
	var missing []string
	if strings.TrimSpace(p.DisplayName) == "" {
		missing = append(missing, "display_name")
	}
	if strings.TrimSpace(p.Title) == "" {
		missing = append(missing, "title")
	}
	if !p.HasImage() {
		missing = append(missing, "image")
	}
	return missing
}
