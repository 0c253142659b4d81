// AngelaMos | 2026
// lifecycle.go

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

type SubmitResult struct {
	Profile *profile.Profile
	Review  *review.Review
}

// CancelResult reports whether a live review was actually withdrawn.
type CancelResult struct {
	Canceled bool
	Profile  *profile.Profile
}

// submitDecision is the full owner-side gate: content and profile fields,
// plus the changed-since-rejection rule for rejected profiles.
func submitDecision(p *profile.Profile, items []pick.Pick) gate.Decision {
	d := gate.CanSubmit(p, items)
	if !d.OK {
		return d
	}

	if p.Status == profile.StatusRejected && !gate.CanResubmitAfterRejection(p, items) {
		return gate.Deny(gate.ReasonUnchangedSinceRejection)
	}

	return d
}

// Readiness reports whether Submit would pass the gate right now.
func (s *Service) Readiness(ctx context.Context, userID string) (gate.Decision, error) {
	var d gate.Decision

	err := s.inTx(ctx, func(st stores) error {
		if err := st.profiles.Ensure(ctx, userID, s.clock.Now()); err != nil {
			return err
		}

		p, err := st.profiles.Get(ctx, userID)
		if err != nil {
			return err
		}

		items, err := st.picks.ListByProfile(ctx, userID)
		if err != nil {
			return err
		}

		d = submitDecision(p, items)
		return nil
	})

	return d, err
}

func (s *Service) Submit(ctx context.Context, userID string) (res *SubmitResult, err error) {
	ctx, span := core.StartSpan(ctx, "curation.Submit", attribute.String("user_id", userID))
	defer func() { core.EndSpan(span, err) }()

	err = s.inTx(ctx, func(st stores) error {
		now := s.clock.Now()

		if err := st.profiles.Ensure(ctx, userID, now); err != nil {
			return err
		}

		p, err := st.lockProfile(ctx, userID)
		if err != nil {
			return err
		}
		if p.IsAnonymized() {
			return fmt.Errorf("submit: %w", core.ErrNotFound)
		}

		if _, err := checkTransition(actionSubmit, p.Status); err != nil {
			return err
		}

		items, err := st.picks.ListByProfile(ctx, userID)
		if err != nil {
			return err
		}

		if d := submitDecision(p, items); !d.OK {
			return gateRejected(d)
		}

		if err := st.profiles.MarkSubmitted(ctx, userID, p.Status, now); err != nil {
			return err
		}

		if _, err := st.picks.Transition(ctx, userID,
			[]pick.Status{pick.StatusDraft}, pick.StatusPendingReview); err != nil {
			return err
		}

		rv := &review.Review{
			ID:          s.newID(),
			ProfileID:   userID,
			Status:      review.StatusPending,
			SubmittedAt: now,
		}
		if err := st.reviews.Create(ctx, rv); err != nil {
			if errors.Is(err, review.ErrAlreadyPending) {
				return fmt.Errorf("submit: %w: %w", core.ErrStaleState, err)
			}
			return err
		}

		p, err = st.profiles.Get(ctx, userID)
		if err != nil {
			return err
		}

		res = &SubmitResult{Profile: p, Review: rv}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("profile submitted",
		"user_id", userID,
		"review_id", res.Review.ID,
	)

	return res, nil
}

// CancelSubmission withdraws the live review. Without one it reports
// Canceled=false and changes nothing.
func (s *Service) CancelSubmission(ctx context.Context, userID string) (res *CancelResult, err error) {
	ctx, span := core.StartSpan(ctx, "curation.CancelSubmission", attribute.String("user_id", userID))
	defer func() { core.EndSpan(span, err) }()

	err = s.inTx(ctx, func(st stores) error {
		p, err := st.lockProfile(ctx, userID)
		if err != nil {
			return err
		}

		rv, err := st.reviews.GetPending(ctx, userID)
		if errors.Is(err, core.ErrNotFound) {
			res = &CancelResult{Canceled: false, Profile: p}
			return nil
		}
		if err != nil {
			return err
		}

		to, err := checkTransition(actionCancel, p.Status)
		if err != nil {
			return err
		}

		if err := s.cancel(ctx, st, p, rv, to); err != nil {
			return err
		}

		p, err = st.profiles.Get(ctx, userID)
		if err != nil {
			return err
		}

		res = &CancelResult{Canceled: true, Profile: p}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Canceled {
		s.logger.Info("submission canceled", "user_id", userID)
	} else {
		s.logger.Debug("cancel requested without a live review", "user_id", userID)
	}

	return res, nil
}

// cancel moves a pending profile to `to` and its picks back to draft,
// closing rv when there is a live review.
func (s *Service) cancel(
	ctx context.Context,
	st stores,
	p *profile.Profile,
	rv *review.Review,
	to profile.Status,
) error {
	now := s.clock.Now()

	if rv != nil {
		if err := st.reviews.Close(ctx, review.Closure{
			ID:     rv.ID,
			Status: review.StatusCanceled,
			At:     now,
		}); err != nil {
			return err
		}
	}

	if err := st.profiles.SetStatus(ctx, p.UserID, p.Status, to, now); err != nil {
		return err
	}

	_, err := st.picks.Transition(ctx, p.UserID,
		[]pick.Status{pick.StatusPendingReview}, pick.StatusDraft)
	return err
}

// Unpublish takes an approved profile offline. It is never a side effect
// of another operation except account retirement.
func (s *Service) Unpublish(ctx context.Context, userID string) (p *profile.Profile, err error) {
	ctx, span := core.StartSpan(ctx, "curation.Unpublish", attribute.String("user_id", userID))
	defer func() { core.EndSpan(span, err) }()

	err = s.inTx(ctx, func(st stores) error {
		current, err := st.lockProfile(ctx, userID)
		if err != nil {
			return err
		}

		to, err := checkTransition(actionUnpublish, current.Status)
		if err != nil {
			return err
		}

		if err := s.unpublish(ctx, st, current, to); err != nil {
			return err
		}

		p, err = st.profiles.Get(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("profile unpublished", "user_id", userID)

	return p, nil
}

func (s *Service) unpublish(
	ctx context.Context,
	st stores,
	p *profile.Profile,
	to profile.Status,
) error {
	if err := st.profiles.SetStatus(ctx, p.UserID, p.Status, to, s.clock.Now()); err != nil {
		return err
	}

	_, err := st.picks.Transition(ctx, p.UserID,
		[]pick.Status{pick.StatusPublished}, pick.StatusDraft)
	return err
}

// Retire takes a profile out of circulation before its account is
// deleted: a live review is canceled, a live profile is unpublished, and
// personal fields are cleared. Calling it again is a no-op.
func (s *Service) Retire(ctx context.Context, userID string) (err error) {
	ctx, span := core.StartSpan(ctx, "curation.Retire", attribute.String("user_id", userID))
	defer func() { core.EndSpan(span, err) }()

	err = s.inTx(ctx, func(st stores) error {
		p, err := st.lockProfile(ctx, userID)
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		switch p.Status {
		case profile.StatusPending:
			rv, err := st.reviews.GetPending(ctx, userID)
			if errors.Is(err, core.ErrNotFound) {
				rv, err = nil, nil
			}
			if err != nil {
				return err
			}
			if err := s.cancel(ctx, st, p, rv, profile.StatusDraft); err != nil {
				return err
			}
		case profile.StatusApproved:
			if err := s.unpublish(ctx, st, p, profile.StatusUnpublished); err != nil {
				return err
			}
		}

		return st.profiles.Anonymize(ctx, userID, s.clock.Now())
	})
	if err != nil {
		return err
	}

	s.logger.Info("profile retired", "user_id", userID)

	return nil
}

// PublicCurator returns an approved profile with its published picks.
// Anything else reads as not found.
func (s *Service) PublicCurator(ctx context.Context, userID string) (*profile.Profile, []pick.Pick, error) {
	var (
		p     *profile.Profile
		items []pick.Pick
	)

	err := s.inTx(ctx, func(st stores) error {
		var err error
		p, err = st.profiles.Get(ctx, userID)
		if err != nil {
			return err
		}

		if !p.IsApproved() || p.IsAnonymized() {
			return fmt.Errorf("public curator: %w", core.ErrNotFound)
		}

		items, err = st.picks.ListByProfileAndStatus(ctx, userID, pick.StatusPublished)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	return p, items, nil
}
