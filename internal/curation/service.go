// AngelaMos | 2026
// service.go

// Package curation is the only writer of profile, pick and review
// statuses. Every operation runs in one transaction that starts by
// locking the profile row, recomputes the gate from stored picks, and
// commits all status changes together or none of them.
package curation

import (
	"context"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/curator-backend/internal/core"
	"github.com/carterperez-dev/curator-backend/internal/pick"
	"github.com/carterperez-dev/curator-backend/internal/profile"
	"github.com/carterperez-dev/curator-backend/internal/review"
)

type Service struct {
	db     *sqlx.DB
	clock  core.Clock
	newID  core.IDGenerator
	logger *slog.Logger
}

func NewService(
	db *sqlx.DB,
	clock core.Clock,
	newID core.IDGenerator,
	logger *slog.Logger,
) *Service {
	return &Service{db: db, clock: clock, newID: newID, logger: logger}
}

// stores groups the repositories bound to one transaction.
type stores struct {
	profiles profile.Repository
	picks    pick.Repository
	reviews  review.Repository
}

func (s *Service) inTx(ctx context.Context, fn func(st stores) error) error {
	return core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return fn(stores{
			profiles: profile.NewRepository(tx),
			picks:    pick.NewRepository(tx),
			reviews:  review.NewRepository(tx),
		})
	})
}

// lockProfile serializes the caller behind any other writer of the
// profile and returns its current state.
func (st stores) lockProfile(ctx context.Context, userID string) (*profile.Profile, error) {
	if err := st.profiles.Lock(ctx, userID); err != nil {
		return nil, err
	}
	return st.profiles.Get(ctx, userID)
}
