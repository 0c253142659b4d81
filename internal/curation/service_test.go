// AngelaMos | 2026
// service_test.go

package curation_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/curator-backend/internal/core"
	"github.com/carterperez-dev/curator-backend/internal/curation"
	"github.com/carterperez-dev/curator-backend/internal/gate"
	"github.com/carterperez-dev/curator-backend/internal/pick"
	"github.com/carterperez-dev/curator-backend/internal/profile"
	"github.com/carterperez-dev/curator-backend/internal/testutil"
)

type fixture struct {
	db      *sqlx.DB
	clock   *testutil.Clock
	svc      *curation.Service
	picks    *pick.Service
	profiles *profile.Service
	curator  string
	admin    string
}

func newFixture(t *testing.T, db *sqlx.DB) *fixture {
	t.Helper()

	clock := testutil.NewClock()
	logger := slog.New(slog.DiscardHandler)

	f := &fixture{
		db:       db,
		clock:    clock,
		svc:      curation.NewService(db, clock, core.NewID, logger),
		picks:    pick.NewService(db, clock, core.NewID, logger),
		profiles: profile.NewService(db, clock, logger),
		curator:  testutil.SeedUser(t, db, "curator@example.com", "curator"),
		admin:    testutil.SeedUser(t, db, "admin@example.com", "admin"),
	}

	return f
}

// readyCurator seeds a complete profile with a full draft set.
func (f *fixture) readyCurator(t *testing.T) []string {
	t.Helper()
	testutil.SeedProfile(t, f.db, f.curator, testutil.ProfileSeed{})
	return testutil.SeedFullSet(t, f.db, f.curator, "draft")
}

func (f *fixture) profileStatus(t *testing.T) string {
	t.Helper()

	var status string
	err := f.db.Get(&status, f.db.Rebind(`SELECT status FROM curator_profiles WHERE user_id = ?`), f.curator)
	require.NoError(t, err)
	return status
}

func (f *fixture) picksIn(t *testing.T, status string) int {
	t.Helper()
	return testutil.Count(t, f.db,
		`SELECT COUNT(*) FROM picks WHERE profile_id = ? AND status = ?`, f.curator, status)
}

func (f *fixture) reviewsIn(t *testing.T, status string) int {
	t.Helper()
	return testutil.Count(t, f.db,
		`SELECT COUNT(*) FROM submission_reviews WHERE profile_id = ? AND status = ?`, f.curator, status)
}

type pickState struct {
	ID        string `db:"id"`
	Status    string `db:"status"`
	UpdatedAt int64  `db:"updated_at"`
}

type curatorState struct {
	Profile struct {
		Status    string `db:"status"`
		UpdatedAt int64  `db:"updated_at"`
	}
	Picks   []pickState
	Reviews []reviewState
}

type reviewState struct {
	ID     string `db:"id"`
	Status string `db:"status"`
}

// snapshot captures every row a lifecycle operation may touch.
func (f *fixture) snapshot(t *testing.T) curatorState {
	t.Helper()

	var st curatorState
	require.NoError(t, f.db.Get(&st.Profile, f.db.Rebind(
		`SELECT status, updated_at FROM curator_profiles WHERE user_id = ?`), f.curator))
	require.NoError(t, f.db.Select(&st.Picks, f.db.Rebind(
		`SELECT id, status, updated_at FROM picks WHERE profile_id = ? ORDER BY id`), f.curator))
	require.NoError(t, f.db.Select(&st.Reviews, f.db.Rebind(
		`SELECT id, status FROM submission_reviews WHERE profile_id = ? ORDER BY id`), f.curator))
	return st
}

func TestSubmit_FullSetGoesToReview(t *testing.T) {
	f := newFixture(t, testutil.NewSQLiteDB(t))
	f.readyCurator(t)

	res, err := f.svc.Submit(context.Background(), f.curator)
	require.NoError(t, err)

	assert.Equal(t, profile.StatusPending, res.Profile.Status)
	require.NotNil(t, res.Profile.LastSubmittedAt)
	assert.True(t, res.Profile.LastSubmittedAt.Equal(testutil.Epoch))
	assert.Equal(t, 9, f.picksIn(t, "pending_review"))
	assert.Equal(t, 1, f.reviewsIn(t, "pending"))
}

func TestSubmit_IncompleteContentChangesNothing(t *testing.T) {
	f := newFixture(t, testutil.NewSQLiteDB(t))
	testutil.SeedProfile(t, f.db, f.curator, testutil.ProfileSeed{})
	for _, c := range testutil.Categories {
		for rank := 1; rank <= 3; rank++ {
			if c == "places" && rank == 2 {
				continue
			}
			testutil.SeedPick(t, f.db, f.curator, testutil.PickSeed{Category: c, Rank: testutil.Ptr(rank)})
		}
	}

	_, err := f.svc.Submit(context.Background(), f.curator)
	require.Error(t, err)
	assert.ErrorIs(t, err, curation.ErrGateRejected)

	var gateErr *curation.GateError
	require.ErrorAs(t, err, &gateErr)
	assert.Equal(t, gate.ReasonIncompleteContent, gateErr.Decision.Reason)
	require.Len(t, gateErr.Decision.Shortfalls, 1)
	assert.Equal(t, pick.CategoryPlaces, gateErr.Decision.Shortfalls[0].Category)
	assert.Equal(t, []int{2}, gateErr.Decision.Shortfalls[0].MissingRanks)

	assert.Equal(t, "draft", f.profileStatus(t))
	assert.Equal(t, 8, f.picksIn(t, "draft"))
	assert.Equal(t, 0, testutil.Count(t, f.db, `SELECT COUNT(*) FROM submission_reviews`))
}

func TestSubmit_BlankDisplayNameIsIncompleteProfile(t *testing.T) {
	f := newFixture(t, testutil.NewSQLiteDB(t))
	testutil.SeedProfile(t, f.db, f.curator, testutil.ProfileSeed{DisplayName: "   "})
	testutil.SeedFullSet(t, f.db, f.curator, "draft")

	_, err := f.svc.Submit(context.Background(), f.curator)

	var gateErr *curation.GateError
	require.ErrorAs(t, err, &gateErr)
	assert.Equal(t, gate.ReasonIncompleteProfile, gateErr.Decision.Reason)
	assert.Contains(t, gateErr.Decision.MissingFields, "display_name")
	assert.Equal(t, "draft", f.profileStatus(t))
}

func TestSubmit_WhilePendingIsInvalidTransition(t *testing.T) {
	f := newFixture(t, testutil.NewSQLiteDB(t))
	f.readyCurator(t)

	_, err := f.svc.Submit(context.Background(), f.curator)
	require.NoError(t, err)

	_, err = f.svc.Submit(context.Background(), f.curator)
	assert.ErrorIs(t, err, curation.ErrInvalidTransition)
	assert.Equal(t, 1, f.reviewsIn(t, "pending"))
}

func TestApprove_PublishesEverything(t *testing.T) {
	f := newFixture(t, testutil.NewSQLiteDB(t))
	f.readyCurator(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, f.curator)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)

	res, err := f.svc.Approve(ctx, f.curator, f.admin)
	require.NoError(t, err)

	assert.Equal(t, profile.StatusApproved, res.Profile.Status)
	require.NotNil(t, res.Review.ReviewerID)
	assert.Equal(t, f.admin, *res.Review.ReviewerID)
	assert.Equal(t, 9, f.picksIn(t, "published"))
	assert.Equal(t, 1, f.reviewsIn(t, "approved"))
	assert.Equal(t, 0, f.reviewsIn(t, "pending"))

	p, items, err := f.svc.PublicCurator(ctx, f.curator)
	require.NoError(t, err)
	assert.Equal(t, f.curator, p.UserID)
	assert.Len(t, items, 9)
}

func TestApprove_RechecksStoredPicks(t *testing.T) {
	f := newFixture(t, testutil.NewSQLiteDB(t))
	ids := f.readyCurator(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, f.curator)
	require.NoError(t, err)

	require.NoError(t, f.picks.Delete(ctx, f.curator, ids[0]))

	before := f.snapshot(t)
	require.Len(t, before.Picks, 8)

	f.clock.Advance(time.Hour)

	_, err = f.svc.Approve(ctx, f.curator, f.admin)
	require.Error(t, err)
	assert.ErrorIs(t, err, curation.ErrInsufficientPicks)

	assert.Equal(t, before, f.snapshot(t))
	assert.Equal(t, "pending", before.Profile.Status)
	assert.Equal(t, 1, f.reviewsIn(t, "pending"))
}

func TestApprove_OwnProfileForbidden(t *testing.T) {
	f := newFixture(t, testutil.NewSQLiteDB(t))
	f.readyCurator(t)

	_, err := f.svc.Submit(context.Background(), f.curator)
	require.NoError(t, err)

	_, err = f.svc.Approve(context.Background(), f.curator, f.curator)
	assert.ErrorIs(t, err, core.ErrForbidden)
	assert.Equal(t, "pending", f.profileStatus(t))
}

func TestApprove_DraftProfileIsStale(t *testing.T) {
	f := newFixture(t, testutil.NewSQLiteDB(t))
	f.readyCurator(t)

	_, err := f.svc.Approve(context.Background(), f.curator, f.admin)
	assert.ErrorIs(t, err, core.ErrStaleState)
	assert.Equal(t, "draft", f.profileStatus(t))
}

func TestReject_RequiresNote(t *testing.T) {
	f := newFixture(t, testutil.NewSQLiteDB(t))
	f.readyCurator(t)

	_, err := f.svc.Submit(context.Background(), f.curator)
	require.NoError(t, err)

	_, err = f.svc.Reject(context.Background(), f.curator, f.admin, curation.RejectInput{Note: "  "})
	assert.ErrorIs(t, err, curation.ErrNoteRequired)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Equal(t, "pending", f.profileStatus(t))
}

func TestReject_FlagsListedPicks(t *testing.T) {
	f := newFixture(t, testutil.NewSQLiteDB(t))
	ids := f.readyCurator(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, f.curator)
	require.NoError(t, err)

	res, err := f.svc.Reject(ctx, f.curator, f.admin, curation.RejectInput{
		Note:    "The second book link is broken.",
		PickIDs: []string{ids[1], ids[1]},
	})
	require.NoError(t, err)

	assert.Equal(t, profile.StatusRejected, res.Profile.Status)
	require.NotNil(t, res.Profile.RejectionNote)
	assert.Equal(t, "The second book link is broken.", *res.Profile.RejectionNote)
	assert.Equal(t, 1, f.picksIn(t, "rejected"))
	assert.Equal(t, 8, f.picksIn(t, "pending_review"))
	assert.Equal(t, 1, f.reviewsIn(t, "rejected"))
}

func TestReject_UnknownPickRollsBack(t *testing.T) {
	f := newFixture(t, testutil.NewSQLiteDB(t))
	f.readyCurator(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, f.curator)
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, f.curator, f.admin, curation.RejectInput{
		Note:    "fix it",
		PickIDs: []string{"no-such-pick"},
	})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Equal(t, "pending", f.profileStatus(t))
	assert.Equal(t, 1, f.reviewsIn(t, "pending"))
}

func TestResubmit_RequiresChangeSinceRejection(t *testing.T) {
	f := newFixture(t, testutil.NewSQLiteDB(t))
	ids := f.readyCurator(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, f.curator)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	_, err = f.svc.Reject(ctx, f.curator, f.admin, curation.RejectInput{Note: "too generic"})
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, f.curator)
	var gateErr *curation.GateError
	require.ErrorAs(t, err, &gateErr)
	assert.Equal(t, gate.ReasonUnchangedSinceRejection, gateErr.Decision.Reason)
	assert.Equal(t, "rejected", f.profileStatus(t))

	f.clock.Advance(time.Minute)
	_, err = f.picks.Update(ctx, f.curator, ids[4], pick.UpdatePickRequest{
		Title: testutil.Ptr("A sharper title"),
	})
	require.NoError(t, err)

	res, err := f.svc.Submit(ctx, f.curator)
	require.NoError(t, err)
	assert.Equal(t, profile.StatusPending, res.Profile.Status)
	assert.Nil(t, res.Profile.RejectionNote)
	assert.Equal(t, 9, f.picksIn(t, "pending_review"))
	assert.Equal(t, 1, f.reviewsIn(t, "pending"))
	assert.Equal(t, 1, f.reviewsIn(t, "rejected"))
}

func TestResubmit_EditsThatChangeNothingDoNotCount(t *testing.T) {
	f := newFixture(t, testutil.NewSQLiteDB(t))
	ids := f.readyCurator(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, f.curator)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	_, err = f.svc.Reject(ctx, f.curator, f.admin, curation.RejectInput{Note: "too generic"})
	require.NoError(t, err)

	f.clock.Advance(time.Minute)

	_, err = f.profiles.Update(ctx, f.curator, profile.UpdateProfileRequest{})
	require.NoError(t, err)
	_, err = f.profiles.Update(ctx, f.curator, profile.UpdateProfileRequest{
		DisplayName: testutil.Ptr("Ada Reader"),
	})
	require.NoError(t, err)
	_, err = f.picks.Update(ctx, f.curator, ids[0], pick.UpdatePickRequest{})
	require.NoError(t, err)
	_, err = f.picks.Update(ctx, f.curator, ids[0], pick.UpdatePickRequest{
		Title: testutil.Ptr("books pick"),
	})
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, f.curator)
	var gateErr *curation.GateError
	require.ErrorAs(t, err, &gateErr)
	assert.Equal(t, gate.ReasonUnchangedSinceRejection, gateErr.Decision.Reason)
	assert.Equal(t, "rejected", f.profileStatus(t))

	_, err = f.profiles.Update(ctx, f.curator, profile.UpdateProfileRequest{
		Bio: testutil.Ptr("Reads everything three times."),
	})
	require.NoError(t, err)

	res, err := f.svc.Submit(ctx, f.curator)
	require.NoError(t, err)
	assert.Equal(t, profile.StatusPending, res.Profile.Status)
}

func TestEndToEnd_CuratorScenario(t *testing.T) {
	f := newFixture(t, testutil.NewSQLiteDB(t))
	ctx := context.Background()

	_, err := f.profiles.Update(ctx, f.curator, profile.UpdateProfileRequest{
		DisplayName: testutil.Ptr("Ada Reader"),
		Title:       testutil.Ptr("Librarian"),
		AvatarURL:   testutil.Ptr("https://img.example.com/ada.png"),
	})
	require.NoError(t, err)

	counts := map[string]int{"books": 2, "products": 3, "places": 3}
	var ids []string
	for _, category := range testutil.Categories {
		for rank := 1; rank <= counts[category]; rank++ {
			p, err := f.picks.Create(ctx, f.curator, pick.CreatePickRequest{
				Category: category,
				Rank:     testutil.Ptr(rank),
				Title:    category + " pick",
				ImageURL: "https://img.example.com/" + category + ".jpg",
			})
			require.NoError(t, err)
			ids = append(ids, p.ID)
		}
	}

	_, err = f.svc.Submit(ctx, f.curator)
	var gateErr *curation.GateError
	require.ErrorAs(t, err, &gateErr)
	assert.Equal(t, gate.ReasonIncompleteContent, gateErr.Decision.Reason)
	require.Len(t, gateErr.Decision.Shortfalls, 1)
	assert.Equal(t, pick.CategoryBooks, gateErr.Decision.Shortfalls[0].Category)
	assert.Equal(t, []int{3}, gateErr.Decision.Shortfalls[0].MissingRanks)
	assert.Equal(t, "draft", f.profileStatus(t))

	_, err = f.picks.Create(ctx, f.curator, pick.CreatePickRequest{
		Category: "books",
		Rank:     testutil.Ptr(3),
		Title:    "The third book",
		ImageURL: "https://img.example.com/books.jpg",
	})
	require.NoError(t, err)

	first, err := f.svc.Submit(ctx, f.curator)
	require.NoError(t, err)
	require.NotNil(t, first.Profile.LastSubmittedAt)
	firstSubmitted := *first.Profile.LastSubmittedAt
	assert.Equal(t, 9, f.picksIn(t, "pending_review"))

	f.clock.Advance(time.Hour)
	rejected, err := f.svc.Reject(ctx, f.curator, f.admin, curation.RejectInput{Note: "blurry photos"})
	require.NoError(t, err)
	assert.Equal(t, profile.StatusRejected, rejected.Profile.Status)
	require.NotNil(t, rejected.Profile.RejectionNote)
	assert.Equal(t, "blurry photos", *rejected.Profile.RejectionNote)

	f.clock.Advance(time.Hour)
	_, err = f.picks.Update(ctx, f.curator, ids[0], pick.UpdatePickRequest{
		ImageURL: testutil.Ptr("https://img.example.com/books-sharp.jpg"),
	})
	require.NoError(t, err)

	second, err := f.svc.Submit(ctx, f.curator)
	require.NoError(t, err)
	require.NotNil(t, second.Profile.LastSubmittedAt)
	assert.True(t, second.Profile.LastSubmittedAt.After(firstSubmitted))
	assert.Nil(t, second.Profile.RejectionNote)

	f.clock.Advance(time.Hour)
	approved, err := f.svc.Approve(ctx, f.curator, f.admin)
	require.NoError(t, err)
	assert.Equal(t, profile.StatusApproved, approved.Profile.Status)
	assert.Equal(t, 9, f.picksIn(t, "published"))
	assert.Equal(t, 1, f.reviewsIn(t, "rejected"))
	assert.Equal(t, 1, f.reviewsIn(t, "approved"))

	_, items, err := f.svc.PublicCurator(ctx, f.curator)
	require.NoError(t, err)
	assert.Len(t, items, 9)
}

func TestCancelSubmission(t *testing.T) {
	f := newFixture(t, testutil.NewSQLiteDB(t))
	f.readyCurator(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, f.curator)
	require.NoError(t, err)

	res, err := f.svc.CancelSubmission(ctx, f.curator)
	require.NoError(t, err)
	assert.True(t, res.Canceled)
	assert.Equal(t, profile.StatusDraft, res.Profile.Status)
	assert.Equal(t, 9, f.picksIn(t, "draft"))
	assert.Equal(t, 1, f.reviewsIn(t, "canceled"))

	again, err := f.svc.CancelSubmission(ctx, f.curator)
	require.NoError(t, err)
	assert.False(t, again.Canceled)
	assert.Equal(t, 1, f.reviewsIn(t, "canceled"))
}

func TestUnpublish(t *testing.T) {
	f := newFixture(t, testutil.NewSQLiteDB(t))
	f.readyCurator(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, f.curator)
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.curator, f.admin)
	require.NoError(t, err)

	p, err := f.svc.Unpublish(ctx, f.curator)
	require.NoError(t, err)
	assert.Equal(t, profile.StatusUnpublished, p.Status)
	assert.Equal(t, 9, f.picksIn(t, "draft"))

	_, _, err = f.svc.PublicCurator(ctx, f.curator)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.svc.Unpublish(ctx, f.curator)
	assert.ErrorIs(t, err, curation.ErrInvalidTransition)
}

func TestRetire_ApprovedProfile(t *testing.T) {
	f := newFixture(t, testutil.NewSQLiteDB(t))
	f.readyCurator(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, f.curator)
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.curator, f.admin)
	require.NoError(t, err)

	require.NoError(t, f.svc.Retire(ctx, f.curator))
	require.NoError(t, f.svc.Retire(ctx, f.curator))

	assert.Equal(t, "unpublished", f.profileStatus(t))
	assert.Equal(t, 0, f.picksIn(t, "published"))
	assert.Equal(t, 1, testutil.Count(t, f.db,
		`SELECT COUNT(*) FROM curator_profiles WHERE user_id = ? AND anonymized_at IS NOT NULL AND display_name = ''`,
		f.curator))
}

func TestRetire_PendingWithoutLiveReviewRestoresDrafts(t *testing.T) {
	f := newFixture(t, testutil.NewSQLiteDB(t))
	testutil.SeedProfile(t, f.db, f.curator, testutil.ProfileSeed{Status: "pending"})
	testutil.SeedFullSet(t, f.db, f.curator, "pending_review")

	require.NoError(t, f.svc.Retire(context.Background(), f.curator))

	assert.Equal(t, "draft", f.profileStatus(t))
	assert.Equal(t, 0, f.picksIn(t, "pending_review"))
	assert.Equal(t, 9, f.picksIn(t, "draft"))
	assert.Equal(t, 0, testutil.Count(t, f.db, `SELECT COUNT(*) FROM submission_reviews`))
}

func TestRetire_WithoutProfileIsNoop(t *testing.T) {
	f := newFixture(t, testutil.NewSQLiteDB(t))
	assert.NoError(t, f.svc.Retire(context.Background(), f.curator))
}

func TestReadiness(t *testing.T) {
	f := newFixture(t, testutil.NewSQLiteDB(t))

	d, err := f.svc.Readiness(context.Background(), f.curator)
	require.NoError(t, err)
	assert.False(t, d.OK)
	assert.Equal(t, gate.ReasonIncompleteContent, d.Reason)
	assert.Len(t, d.Shortfalls, 3)
}

func TestConcurrentDecisions_ExactlyOneWins(t *testing.T) {
	testutil.EachDriver(t, func(t *testing.T, db *sqlx.DB) {
		f := newFixture(t, db)
		f.readyCurator(t)
		ctx := context.Background()

		_, err := f.svc.Submit(ctx, f.curator)
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make([]error, 2)

		wg.Add(2)
		go func() {
			defer wg.Done()
			_, errs[0] = f.svc.Approve(ctx, f.curator, f.admin)
		}()
		go func() {
			defer wg.Done()
			_, errs[1] = f.svc.Reject(ctx, f.curator, f.admin, curation.RejectInput{Note: "no"})
		}()
		wg.Wait()

		var won, stale int
		for _, err := range errs {
			switch {
			case err == nil:
				won++
			case errors.Is(err, core.ErrStaleState):
				stale++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}

		assert.Equal(t, 1, won)
		assert.Equal(t, 1, stale)
		assert.Equal(t, 0, f.reviewsIn(t, "pending"))
		assert.Equal(t, 1, testutil.Count(t, f.db,
			`SELECT COUNT(*) FROM submission_reviews WHERE profile_id = ?`, f.curator))
	})
}

func TestConcurrentSubmits_OneReview(t *testing.T) {
	testutil.EachDriver(t, func(t *testing.T, db *sqlx.DB) {
		f := newFixture(t, db)
		f.readyCurator(t)
		ctx := context.Background()

		const callers = 4
		var wg sync.WaitGroup
		errs := make([]error, callers)

		for i := range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = f.svc.Submit(ctx, f.curator)
			}()
		}
		wg.Wait()

		var ok int
		for _, err := range errs {
			if err == nil {
				ok++
				continue
			}
			assert.True(t,
				errors.Is(err, curation.ErrInvalidTransition) || errors.Is(err, core.ErrStaleState),
				"unexpected error: %v", err)
		}

		assert.Equal(t, 1, ok)
		assert.Equal(t, 1, f.reviewsIn(t, "pending"))
	})
}
