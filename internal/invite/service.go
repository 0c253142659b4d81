// AngelaMos | 2026
// service.go

package invite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/curator-backend/internal/config"
	"github.com/carterperez-dev/curator-backend/internal/core"
	"github.com/carterperez-dev/curator-backend/internal/profile"
)

const maxCodeAttempts = 5

type Service struct {
	db     *sqlx.DB
	cfg    config.InviteConfig
	clock  core.Clock
	logger *slog.Logger
}

func NewService(
	db *sqlx.DB,
	cfg config.InviteConfig,
	clock core.Clock,
	logger *slog.Logger,
) *Service {
	return &Service{db: db, cfg: cfg, clock: clock, logger: logger}
}

// Issue creates a code for an approved curator under their live-code
// quota. The issuer's profile row is locked for the count-then-insert so
// two concurrent issues cannot both take the last slot. Admins skip both
// checks.
func (s *Service) Issue(ctx context.Context, issuer Issuer, in IssueInput) (inv *Invite, err error) {
	ctx, span := core.StartSpan(ctx, "invite.Issue",
		attribute.String("issuer_id", issuer.ID),
		attribute.Bool("admin", issuer.Admin),
	)
	defer func() { core.EndSpan(span, err) }()

	var bound *string
	if in.Email != "" {
		email := core.FoldEmail(in.Email)
		bound = &email
	}

	err = core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repo := NewRepository(tx)
		now := s.clock.Now()

		if !issuer.Admin {
			if err := s.checkQuota(ctx, tx, repo, issuer.ID); err != nil {
				return err
			}
		}

		for attempt := 0; attempt < maxCodeAttempts; attempt++ {
			code, err := core.GenerateCode(s.cfg.CodeLength)
			if err != nil {
				return err
			}

			candidate := &Invite{
				Code:       code,
				IssuerID:   issuer.ID,
				Status:     StatusPending,
				BoundEmail: bound,
				ExpiresAt:  now.Add(s.cfg.TTL),
				CreatedAt:  now,
			}

			created, err := repo.Create(ctx, candidate)
			if err != nil {
				return err
			}
			if created {
				inv = candidate
				return nil
			}
		}

		return fmt.Errorf("issue invite: no unique code after %d attempts", maxCodeAttempts)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invite issued",
		"issuer_id", issuer.ID,
		"expires_at", inv.ExpiresAt,
		"bound", bound != nil,
	)

	return inv, nil
}

func (s *Service) checkQuota(
	ctx context.Context,
	tx *sqlx.Tx,
	repo Repository,
	issuerID string,
) error {
	profiles := profile.NewRepository(tx)

	if err := profiles.Lock(ctx, issuerID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("issue invite: %w", ErrNotEligible)
		}
		return err
	}

	p, err := profiles.Get(ctx, issuerID)
	if err != nil {
		return err
	}
	if !p.IsApproved() {
		return fmt.Errorf("issue invite: profile is %s: %w", p.Status, ErrNotEligible)
	}

	live, err := repo.CountLive(ctx, issuerID, s.clock.Now())
	if err != nil {
		return err
	}
	if live >= s.cfg.Quota {
		return fmt.Errorf("issue invite: %d of %d live: %w", live, s.cfg.Quota, ErrQuotaExceeded)
	}

	return nil
}

// Validate never trusts the stored status for expiry.
func (s *Service) Validate(ctx context.Context, code string) (Validation, error) {
	inv, err := NewRepository(s.db).Get(ctx, core.NormalizeCode(code))
	if errors.Is(err, core.ErrNotFound) {
		return Validation{Reason: ReasonNotFound}, nil
	}
	if err != nil {
		return Validation{}, err
	}

	return validation(inv, s.clock.Now()), nil
}

func validation(inv *Invite, now time.Time) Validation {
	expiresAt := inv.ExpiresAt

	switch inv.LiveStatus(now) {
	case StatusCompleted:
		return Validation{Reason: ReasonAlreadyUsed}
	case StatusExpired:
		return Validation{Reason: ReasonExpired, ExpiresAt: &expiresAt}
	}

	return Validation{Valid: true, ExpiresAt: &expiresAt}
}

// Redeem marks the code completed for one account. Of two concurrent
// redemptions exactly one wins; the other gets ErrCodeAlreadyUsed.
func (s *Service) Redeem(ctx context.Context, code string, in RedeemInput) (inv *Invite, err error) {
	ctx, span := core.StartSpan(ctx, "invite.Redeem", attribute.String("redeemer_id", in.RedeemerID))
	defer func() { core.EndSpan(span, err) }()

	code = core.NormalizeCode(code)
	email := core.FoldEmail(in.Email)

	err = core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repo := NewRepository(tx)
		now := s.clock.Now()

		current, err := repo.Get(ctx, code)
		if err != nil {
			return err
		}

		if err := redeemable(current, email, now); err != nil {
			return err
		}

		if err := repo.Complete(ctx, code, in.RedeemerID, email, now); err != nil {
			if !errors.Is(err, core.ErrStaleState) {
				return err
			}
			// Lost the race: report why the code is no longer usable.
			latest, getErr := repo.Get(ctx, code)
			if getErr != nil {
				return getErr
			}
			if latest.Status == StatusCompleted {
				return fmt.Errorf("redeem invite: %w", ErrCodeAlreadyUsed)
			}
			return fmt.Errorf("redeem invite: %w", ErrCodeExpired)
		}

		inv, err = repo.Get(ctx, code)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invite redeemed",
		"issuer_id", inv.IssuerID,
		"redeemer_id", in.RedeemerID,
	)

	return inv, nil
}

func redeemable(inv *Invite, email string, now time.Time) error {
	switch inv.LiveStatus(now) {
	case StatusCompleted:
		return fmt.Errorf("redeem invite: %w", ErrCodeAlreadyUsed)
	case StatusExpired:
		return fmt.Errorf("redeem invite: %w", ErrCodeExpired)
	}

	if inv.BoundEmail != nil && *inv.BoundEmail != email {
		return fmt.Errorf("redeem invite: %w", ErrEmailMismatch)
	}

	return nil
}

// Check runs every redemption precondition without writing, so account
// creation can fail fast before any row exists.
func (s *Service) Check(ctx context.Context, code, email string) error {
	inv, err := NewRepository(s.db).Get(ctx, core.NormalizeCode(code))
	if err != nil {
		return err
	}
	return redeemable(inv, core.FoldEmail(email), s.clock.Now())
}

func (s *Service) List(ctx context.Context, issuerID string) ([]Invite, error) {
	invites, err := NewRepository(s.db).ListByIssuer(ctx, issuerID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	for i := range invites {
		invites[i].Status = invites[i].LiveStatus(now)
	}

	return invites, nil
}

func (s *Service) ExpireStale(ctx context.Context) (int64, error) {
	n, err := NewRepository(s.db).ExpireStale(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}

	if n > 0 {
		s.logger.Info("expired stale invites", "count", n)
	}

	return n, nil
}
