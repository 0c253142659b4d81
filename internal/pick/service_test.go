// AngelaMos | 2026
// service_test.go

package pick_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/curator-backend/internal/core"
	"github.com/carterperez-dev/curator-backend/internal/pick"
	"github.com/carterperez-dev/curator-backend/internal/testutil"
)

func newService(t *testing.T) (*pick.Service, *sqlx.DB, *testutil.Clock) {
	t.Helper()

	db := testutil.NewSQLiteDB(t)
	clock := testutil.NewClock()
	return pick.NewService(db, clock, core.NewID, slog.New(slog.DiscardHandler)), db, clock
}

func TestCreate_EnsuresDraftProfile(t *testing.T) {
	svc, db, _ := newService(t)
	owner := testutil.SeedUser(t, db, "ada@example.com", "curator")

	p, err := svc.Create(context.Background(), owner, pick.CreatePickRequest{
		Category: "books",
		Rank:     testutil.Ptr(2),
		Title:    "  The Dispossessed ",
		LinkURL:  " https://example.com/book ",
	})
	require.NoError(t, err)

	assert.Equal(t, "The Dispossessed", p.Title)
	assert.Equal(t, "https://example.com/book", p.LinkURL)
	assert.Equal(t, pick.StatusDraft, p.Status)
	require.NotNil(t, p.Rank)
	assert.Equal(t, 2, *p.Rank)

	assert.Equal(t, 1, testutil.Count(t, db,
		`SELECT COUNT(*) FROM curator_profiles WHERE user_id = ? AND status = 'draft'`, owner))
}

func TestCreate_Validation(t *testing.T) {
	svc, db, _ := newService(t)
	owner := testutil.SeedUser(t, db, "ada@example.com", "curator")

	tests := []struct {
		name string
		req  pick.CreatePickRequest
	}{
		{name: "unknown category", req: pick.CreatePickRequest{Category: "films", Title: "Alien"}},
		{name: "blank title", req: pick.CreatePickRequest{Category: "books", Title: " \t "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), owner, tt.req)
			assert.ErrorIs(t, err, core.ErrInvalidInput)
		})
	}
}

func TestCreate_OutOfRangeRankIsUnranked(t *testing.T) {
	svc, db, _ := newService(t)
	owner := testutil.SeedUser(t, db, "ada@example.com", "curator")

	p, err := svc.Create(context.Background(), owner, pick.CreatePickRequest{
		Category: "places",
		Rank:     testutil.Ptr(7),
		Title:    "Lisbon",
	})
	require.NoError(t, err)
	assert.Nil(t, p.Rank)
	assert.False(t, p.Featured())
}

func TestCreate_RankTaken(t *testing.T) {
	svc, db, _ := newService(t)
	ctx := context.Background()
	owner := testutil.SeedUser(t, db, "ada@example.com", "curator")

	req := pick.CreatePickRequest{Category: "books", Rank: testutil.Ptr(1), Title: "First"}
	_, err := svc.Create(ctx, owner, req)
	require.NoError(t, err)

	req.Title = "Second"
	_, err = svc.Create(ctx, owner, req)
	assert.ErrorIs(t, err, pick.ErrRankTaken)
}

func TestUpdate_RejectedPickReturnsToDraft(t *testing.T) {
	svc, db, clock := newService(t)
	owner := testutil.SeedUser(t, db, "ada@example.com", "curator")
	testutil.SeedProfile(t, db, owner, testutil.ProfileSeed{Status: "rejected"})
	id := testutil.SeedPick(t, db, owner, testutil.PickSeed{
		Category: "books",
		Rank:     testutil.Ptr(1),
		Status:   "rejected",
	})

	clock.Advance(time.Minute)

	p, err := svc.Update(context.Background(), owner, id, pick.UpdatePickRequest{
		Title: testutil.Ptr("Better title"),
	})
	require.NoError(t, err)

	assert.Equal(t, pick.StatusDraft, p.Status)
	assert.Nil(t, p.ReviewNote)
	assert.True(t, p.UpdatedAt.Equal(clock.Now()))
}

func TestUpdate_SameValuesLeaveRejectedPickAlone(t *testing.T) {
	svc, db, clock := newService(t)
	owner := testutil.SeedUser(t, db, "ada@example.com", "curator")
	testutil.SeedProfile(t, db, owner, testutil.ProfileSeed{Status: "rejected"})
	id := testutil.SeedPick(t, db, owner, testutil.PickSeed{
		Category: "books",
		Rank:     testutil.Ptr(1),
		Title:    "Dune",
		Status:   "rejected",
	})

	clock.Advance(time.Minute)

	tests := []struct {
		name string
		req  pick.UpdatePickRequest
	}{
		{name: "empty", req: pick.UpdatePickRequest{}},
		{name: "same values", req: pick.UpdatePickRequest{
			Category: testutil.Ptr("books"),
			Rank:     testutil.Ptr(1),
			Title:    testutil.Ptr("  Dune "),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := svc.Update(context.Background(), owner, id, tt.req)
			require.NoError(t, err)

			assert.Equal(t, pick.StatusRejected, p.Status)
			assert.True(t, p.UpdatedAt.Equal(testutil.Epoch))
		})
	}

	assert.Equal(t, 1, testutil.Count(t, db,
		`SELECT COUNT(*) FROM picks WHERE id = ? AND status = 'rejected' AND updated_at = ?`,
		id, testutil.Epoch.UnixMilli()))
}

func TestUpdate_PendingReviewKeepsStatus(t *testing.T) {
	svc, db, _ := newService(t)
	owner := testutil.SeedUser(t, db, "ada@example.com", "curator")
	testutil.SeedProfile(t, db, owner, testutil.ProfileSeed{Status: "pending"})
	id := testutil.SeedPick(t, db, owner, testutil.PickSeed{Category: "books", Status: "pending_review"})

	p, err := svc.Update(context.Background(), owner, id, pick.UpdatePickRequest{
		Description: testutil.Ptr("Now with a description"),
	})
	require.NoError(t, err)
	assert.Equal(t, pick.StatusPendingReview, p.Status)
}

func TestUpdate_PublishedPickOfLiveProfileIsLocked(t *testing.T) {
	svc, db, _ := newService(t)
	ctx := context.Background()
	owner := testutil.SeedUser(t, db, "ada@example.com", "curator")
	testutil.SeedProfile(t, db, owner, testutil.ProfileSeed{Status: "approved"})
	id := testutil.SeedPick(t, db, owner, testutil.PickSeed{Category: "books", Status: "published"})

	_, err := svc.Update(ctx, owner, id, pick.UpdatePickRequest{Title: testutil.Ptr("Changed")})
	assert.ErrorIs(t, err, pick.ErrLocked)

	err = svc.Delete(ctx, owner, id)
	assert.ErrorIs(t, err, pick.ErrLocked)
}

func TestUpdate_PublishedPickOfUnpublishedProfileIsEditable(t *testing.T) {
	svc, db, _ := newService(t)
	owner := testutil.SeedUser(t, db, "ada@example.com", "curator")
	testutil.SeedProfile(t, db, owner, testutil.ProfileSeed{Status: "unpublished"})
	id := testutil.SeedPick(t, db, owner, testutil.PickSeed{Category: "books", Status: "published"})

	p, err := svc.Update(context.Background(), owner, id, pick.UpdatePickRequest{Title: testutil.Ptr("Changed")})
	require.NoError(t, err)
	assert.Equal(t, pick.StatusDraft, p.Status)
}

func TestUpdate_OtherOwnersPickIsNotFound(t *testing.T) {
	svc, db, _ := newService(t)
	owner := testutil.SeedUser(t, db, "ada@example.com", "curator")
	other := testutil.SeedUser(t, db, "bob@example.com", "curator")
	testutil.SeedProfile(t, db, owner, testutil.ProfileSeed{})
	id := testutil.SeedPick(t, db, owner, testutil.PickSeed{Category: "books"})

	_, err := svc.Update(context.Background(), other, id, pick.UpdatePickRequest{Title: testutil.Ptr("Mine now")})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDelete(t *testing.T) {
	svc, db, _ := newService(t)
	owner := testutil.SeedUser(t, db, "ada@example.com", "curator")
	testutil.SeedProfile(t, db, owner, testutil.ProfileSeed{})
	id := testutil.SeedPick(t, db, owner, testutil.PickSeed{Category: "places"})

	require.NoError(t, svc.Delete(context.Background(), owner, id))

	picks, err := svc.List(context.Background(), owner)
	require.NoError(t, err)
	assert.Empty(t, picks)
}
