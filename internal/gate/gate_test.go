// AngelaMos | 2026
// gate_test.go

package gate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/curator-backend/internal/pick"
	"github.com/carterperez-dev/curator-backend/internal/profile"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func completeProfile() *profile.Profile {
	return &profile.Profile{
		UserID:           "u1",
		DisplayName:      "Ada",
		Title:            "Reader",
		AvatarURL:        "https://img.example/a.png",
		Status:           profile.StatusDraft,
		DetailsUpdatedAt: t0,
	}
}

func rank(r int) *int { return &r }

func fullSet(status pick.Status) []pick.Pick {
	var items []pick.Pick
	for _, c := range pick.Categories {
		for r := 1; r <= pick.FeaturedSlots; r++ {
			items = append(items, pick.Pick{
				ID:        string(c) + "-" + string(rune('0'+r)),
				Category:  c,
				Rank:      rank(r),
				Status:    status,
				UpdatedAt: t0,
			})
		}
	}
	return items
}

func TestCanSubmit_FullSetPasses(t *testing.T) {
	d := CanSubmit(completeProfile(), fullSet(pick.StatusDraft))
	assert.True(t, d.OK)
	assert.Empty(t, d.Reason)
}

func TestCanSubmit_RemovingAnyQualifyingItemFails(t *testing.T) {
	items := fullSet(pick.StatusDraft)

	for i := range items {
		reduced := append(append([]pick.Pick{}, items[:i]...), items[i+1:]...)

		d := CanSubmit(completeProfile(), reduced)
		require.False(t, d.OK, "removed %s", items[i].ID)
		assert.Equal(t, ReasonIncompleteContent, d.Reason)
		require.Len(t, d.Shortfalls, 1)
		assert.Equal(t, items[i].Category, d.Shortfalls[0].Category)
		assert.Equal(t, []int{*items[i].Rank}, d.Shortfalls[0].MissingRanks)
		assert.Equal(t, 2, d.Shortfalls[0].Have)
	}
}

func TestCanSubmit_RejectedItemsDoNotCount(t *testing.T) {
	items := fullSet(pick.StatusDraft)
	items[4].Status = pick.StatusRejected

	d := CanSubmit(completeProfile(), items)
	assert.False(t, d.OK)
	assert.Equal(t, ReasonIncompleteContent, d.Reason)
}

func TestCanSubmit_UnrankedItemsDoNotFillSlots(t *testing.T) {
	items := fullSet(pick.StatusDraft)[3:]
	for i := 0; i < 5; i++ {
		items = append(items, pick.Pick{Category: pick.CategoryBooks, Status: pick.StatusDraft})
	}

	d := CanSubmit(completeProfile(), items)
	require.False(t, d.OK)
	require.Len(t, d.Shortfalls, 1)
	assert.Equal(t, pick.CategoryBooks, d.Shortfalls[0].Category)
	assert.Equal(t, []int{1, 2, 3}, d.Shortfalls[0].MissingRanks)
}

func TestCanSubmit_DuplicateRankCountsOnce(t *testing.T) {
	items := fullSet(pick.StatusDraft)
	items[2].Rank = rank(1)

	d := CanSubmit(completeProfile(), items)
	require.False(t, d.OK)
	assert.Equal(t, []int{3}, d.Shortfalls[0].MissingRanks)
}

func TestCanSubmit_ProfileFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *profile.Profile)
		missing []string
	}{
		{"no display name", func(p *profile.Profile) { p.DisplayName = "  " }, []string{"display_name"}},
		{"no title", func(p *profile.Profile) { p.Title = "" }, []string{"title"}},
		{"no image", func(p *profile.Profile) { p.AvatarURL = "" }, []string{"image"}},
		{"cover only is enough", func(p *profile.Profile) {
			p.AvatarURL = ""
			p.CoverURL = "https://img.example/c.png"
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := completeProfile()
			tt.mutate(p)

			d := CanSubmit(p, fullSet(pick.StatusDraft))
			if tt.missing == nil {
				assert.True(t, d.OK)
				return
			}
			assert.False(t, d.OK)
			assert.Equal(t, ReasonIncompleteProfile, d.Reason)
			assert.Equal(t, tt.missing, d.MissingFields)
		})
	}
}

func TestCanSubmit_ContentReasonWinsOverProfile(t *testing.T) {
	p := completeProfile()
	p.Title = ""

	d := CanSubmit(p, fullSet(pick.StatusDraft)[1:])
	assert.Equal(t, ReasonIncompleteContent, d.Reason)
	assert.Equal(t, []string{"title"}, d.MissingFields)
}

func TestCanApprove(t *testing.T) {
	t.Run("pending review set passes", func(t *testing.T) {
		assert.True(t, CanApprove(completeProfile(), fullSet(pick.StatusPendingReview)).OK)
	})

	t.Run("mixed published and pending passes", func(t *testing.T) {
		items := fullSet(pick.StatusPendingReview)
		items[0].Status = pick.StatusPublished
		assert.True(t, CanApprove(completeProfile(), items).OK)
	})

	t.Run("draft items are not eligible", func(t *testing.T) {
		items := fullSet(pick.StatusPendingReview)
		items[7].Status = pick.StatusDraft

		d := CanApprove(completeProfile(), items)
		assert.False(t, d.OK)
		assert.Equal(t, ReasonInsufficientPicks, d.Reason)
		assert.Equal(t, pick.CategoryPlaces, d.Shortfalls[0].Category)
	})
}

func TestCanResubmitAfterRejection(t *testing.T) {
	submitted := t0.Add(time.Hour)

	p := completeProfile()
	p.Status = profile.StatusRejected
	p.LastSubmittedAt = &submitted

	items := fullSet(pick.StatusPendingReview)
	assert.False(t, CanResubmitAfterRejection(p, items))

	items[3].UpdatedAt = submitted
	assert.False(t, CanResubmitAfterRejection(p, items), "equal timestamp is not a change")

	items[3].UpdatedAt = submitted.Add(time.Millisecond)
	assert.True(t, CanResubmitAfterRejection(p, items))

	items[3].UpdatedAt = t0
	p.DetailsUpdatedAt = submitted.Add(time.Second)
	assert.True(t, CanResubmitAfterRejection(p, items))
}

func TestCanResubmitAfterRejection_NeverSubmitted(t *testing.T) {
	assert.True(t, CanResubmitAfterRejection(completeProfile(), nil))
}
