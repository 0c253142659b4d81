// AngelaMos | 2026
// workflow.go

package curation

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/curator-backend/internal/core"
	"github.com/carterperez-dev/curator-backend/internal/gate"
	"github.com/carterperez-dev/curator-backend/internal/pick"
	"github.com/carterperez-dev/curator-backend/internal/profile"
	"github.com/carterperez-dev/curator-backend/internal/review"
)

type RejectInput struct {
	Note string
	// PickIDs optionally flags individual picks under review as rejected.
	PickIDs []string
}

type ReviewResult struct {
	Profile *profile.Profile
	Review  *review.Review
}

// ReviewDetail is what a reviewer looks at before deciding.
type ReviewDetail struct {
	Review   *review.Review
	Profile  *profile.Profile
	Picks    []pick.Pick
	Decision gate.Decision
	History  []review.Review
}

type Stats struct {
	Profiles map[profile.Status]int
	Picks    map[pick.Status]int
	Reviews  map[review.Status]int
}

// pendingUnderReview loads a profile that an administrator is about to
// decide on. Anything but pending with a live review means another actor
// got there first.
func (st stores) pendingUnderReview(
	ctx context.Context,
	a action,
	profileID string,
) (*profile.Profile, *review.Review, error) {
	p, err := st.lockProfile(ctx, profileID)
	if err != nil {
		return nil, nil, err
	}

	if _, err := checkTransition(a, p.Status); err != nil {
		return nil, nil, fmt.Errorf("%s: profile is %s: %w", a, p.Status, core.ErrStaleState)
	}

	rv, err := st.reviews.GetPending(ctx, profileID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil, fmt.Errorf("%s: no live review: %w", a, core.ErrStaleState)
	}
	if err != nil {
		return nil, nil, err
	}

	return p, rv, nil
}

// Approve publishes a pending profile. The gate is evaluated against the
// picks as stored now, not as they were at submission; if it fails the
// transaction rolls back and nothing changes.
func (s *Service) Approve(
	ctx context.Context,
	profileID, reviewerID string,
) (res *ReviewResult, err error) {
	ctx, span := core.StartSpan(ctx, "curation.Approve",
		attribute.String("profile_id", profileID),
		attribute.String("reviewer_id", reviewerID),
	)
	defer func() { core.EndSpan(span, err) }()

	if profileID == reviewerID {
		return nil, fmt.Errorf("approve own profile: %w", core.ErrForbidden)
	}

	err = s.inTx(ctx, func(st stores) error {
		p, rv, err := st.pendingUnderReview(ctx, actionApprove, profileID)
		if err != nil {
			return err
		}

		now := s.clock.Now()

		if err := st.profiles.SetStatus(ctx, profileID, p.Status, profile.StatusApproved, now); err != nil {
			return err
		}

		items, err := st.picks.ListByProfile(ctx, profileID)
		if err != nil {
			return err
		}
		if d := gate.CanApprove(p, items); !d.OK {
			return insufficientPicks(d)
		}

		if _, err := st.picks.Transition(ctx, profileID,
			[]pick.Status{pick.StatusPendingReview}, pick.StatusPublished); err != nil {
			return err
		}

		if err := st.reviews.Close(ctx, review.Closure{
			ID:         rv.ID,
			Status:     review.StatusApproved,
			ReviewerID: &reviewerID,
			At:         now,
		}); err != nil {
			return err
		}

		res, err = st.reviewResult(ctx, profileID, rv.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientPicks) {
			s.logger.Warn("approval refused, picks changed since submission",
				"profile_id", profileID,
				"reviewer_id", reviewerID,
			)
		}
		return nil, err
	}

	s.logger.Info("submission approved",
		"profile_id", profileID,
		"review_id", res.Review.ID,
		"reviewer_id", reviewerID,
	)

	return res, nil
}

// Reject sends a pending profile back with a note. Picks stay in
// pending_review unless listed in PickIDs.
func (s *Service) Reject(
	ctx context.Context,
	profileID, reviewerID string,
	in RejectInput,
) (res *ReviewResult, err error) {
	ctx, span := core.StartSpan(ctx, "curation.Reject",
		attribute.String("profile_id", profileID),
		attribute.String("reviewer_id", reviewerID),
		attribute.Int("flagged_picks", len(in.PickIDs)),
	)
	defer func() { core.EndSpan(span, err) }()

	note := core.NormalizeText(in.Note)
	if note == "" {
		return nil, ErrNoteRequired
	}
	if profileID == reviewerID {
		return nil, fmt.Errorf("reject own profile: %w", core.ErrForbidden)
	}

	err = s.inTx(ctx, func(st stores) error {
		_, rv, err := st.pendingUnderReview(ctx, actionReject, profileID)
		if err != nil {
			return err
		}

		now := s.clock.Now()

		if err := st.profiles.MarkRejected(ctx, profileID, note, now); err != nil {
			return err
		}

		if err := st.reviews.Close(ctx, review.Closure{
			ID:         rv.ID,
			Status:     review.StatusRejected,
			Note:       &note,
			ReviewerID: &reviewerID,
			At:         now,
		}); err != nil {
			return err
		}

		ids := dedupe(in.PickIDs)
		flagged, err := st.picks.Flag(ctx, profileID, ids, note)
		if err != nil {
			return err
		}
		if flagged != int64(len(ids)) {
			return fmt.Errorf(
				"reject: %d of %d picks are not under review: %w",
				int64(len(ids))-flagged, len(ids), core.ErrInvalidInput,
			)
		}

		res, err = st.reviewResult(ctx, profileID, rv.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("submission rejected",
		"profile_id", profileID,
		"review_id", res.Review.ID,
		"reviewer_id", reviewerID,
		"flagged_picks", len(in.PickIDs),
	)

	return res, nil
}

func (st stores) reviewResult(ctx context.Context, profileID, reviewID string) (*ReviewResult, error) {
	p, err := st.profiles.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}

	rv, err := st.reviews.Get(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	return &ReviewResult{Profile: p, Review: rv}, nil
}

func (s *Service) ListReviews(ctx context.Context, params review.ListParams) ([]review.Review, int, error) {
	return review.NewRepository(s.db).List(ctx, params)
}

func (s *Service) GetReview(ctx context.Context, reviewID string) (*ReviewDetail, error) {
	var detail *ReviewDetail

	err := s.inTx(ctx, func(st stores) error {
		rv, err := st.reviews.Get(ctx, reviewID)
		if err != nil {
			return err
		}

		p, err := st.profiles.Get(ctx, rv.ProfileID)
		if err != nil {
			return err
		}

		items, err := st.picks.ListByProfile(ctx, rv.ProfileID)
		if err != nil {
			return err
		}

		history, err := st.reviews.ListByProfile(ctx, rv.ProfileID)
		if err != nil {
			return err
		}

		detail = &ReviewDetail{
			Review:   rv,
			Profile:  p,
			Picks:    items,
			Decision: gate.CanApprove(p, items),
			History:  history,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return detail, nil
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	profiles, err := profile.NewRepository(s.db).CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	picks, err := pick.NewRepository(s.db).CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	reviews, err := review.NewRepository(s.db).CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	return &Stats{Profiles: profiles, Picks: picks, Reviews: reviews}, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
