// AngelaMos | 2026
// service.go

package pick

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/curator-backend/internal/core"
	"github.com/carterperez-dev/curator-backend/internal/profile"
)

// Service owns owner edits to picks. Each mutation locks the owning
// profile first so it cannot interleave with a submit or a review.
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

func (s *Service) List(ctx context.Context, userID string) ([]Pick, error) {
	return NewRepository(s.db).ListByProfile(ctx, userID)
}

func (s *Service) Create(
	ctx context.Context,
	userID string,
	req CreatePickRequest,
) (*Pick, error) {
	category := Category(req.Category)
	if !category.Valid() {
		return nil, fmt.Errorf("create pick: category %q: %w", req.Category, core.ErrInvalidInput)
	}
	if core.NormalizeText(req.Title) == "" {
		return nil, fmt.Errorf("create pick: title is required: %w", core.ErrInvalidInput)
	}

	var created *Pick

	err := s.withLockedProfile(ctx, userID, func(tx *sqlx.Tx, _ *profile.Profile) error {
		now := s.clock.Now()
		p := &Pick{
			ID:          s.newID(),
			ProfileID:   userID,
			Category:    category,
			Rank:        NormalizeRank(req.Rank),
			Title:       core.NormalizeText(req.Title),
			Description: core.NormalizeText(req.Description),
			LinkURL:     strings.TrimSpace(req.LinkURL),
			ImageURL:    strings.TrimSpace(req.ImageURL),
			Status:      StatusDraft,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := NewRepository(tx).Create(ctx, p); err != nil {
			return err
		}

		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("pick created",
		"user_id", userID,
		"pick_id", created.ID,
		"category", created.Category,
	)

	return created, nil
}

// Update applies an owner edit. Rejected picks return to draft once
// edited; picks under review keep their status so the reviewer sees the
// current content.
func (s *Service) Update(
	ctx context.Context,
	userID, pickID string,
	req UpdatePickRequest,
) (*Pick, error) {
	var updated *Pick

	err := s.withLockedProfile(ctx, userID, func(tx *sqlx.Tx, owner *profile.Profile) error {
		repo := NewRepository(tx)

		p, err := repo.Get(ctx, userID, pickID)
		if err != nil {
			return err
		}

		if p.IsPublished() && owner.IsApproved() {
			return fmt.Errorf("update pick: %w", ErrLocked)
		}

		changed, err := applyUpdate(p, req)
		if err != nil {
			return err
		}
		if !changed {
			updated = p
			return nil
		}

		if p.Status == StatusRejected || p.Status == StatusPublished {
			p.Status = StatusDraft
			p.ReviewNote = nil
		}
		p.UpdatedAt = s.clock.Now()

		if err := repo.Update(ctx, p); err != nil {
			return err
		}

		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *Service) Delete(ctx context.Context, userID, pickID string) error {
	return s.withLockedProfile(ctx, userID, func(tx *sqlx.Tx, owner *profile.Profile) error {
		repo := NewRepository(tx)

		p, err := repo.Get(ctx, userID, pickID)
		if err != nil {
			return err
		}

		if p.IsPublished() && owner.IsApproved() {
			return fmt.Errorf("delete pick: %w", ErrLocked)
		}

		return repo.Delete(ctx, userID, pickID)
	})
}

func (s *Service) withLockedProfile(
	ctx context.Context,
	userID string,
	fn func(tx *sqlx.Tx, owner *profile.Profile) error,
) error {
	return core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		profiles := profile.NewRepository(tx)

		if err := profiles.Ensure(ctx, userID, s.clock.Now()); err != nil {
			return err
		}
		if err := profiles.Lock(ctx, userID); err != nil {
			return err
		}

		owner, err := profiles.Get(ctx, userID)
		if err != nil {
			return err
		}
		if owner.IsAnonymized() {
			return fmt.Errorf("profile retired: %w", core.ErrNotFound)
		}

		return fn(tx, owner)
	})
}

// applyUpdate reports whether the edit differs from what is stored. An
// edit that changes nothing leaves status and updated_at alone, so it
// cannot count as a correction after a rejection.
func applyUpdate(p *Pick, req UpdatePickRequest) (bool, error) {
	changed := false

	if req.Category != nil {
		c := Category(*req.Category)
		if !c.Valid() {
			return false, fmt.Errorf("update pick: category %q: %w", *req.Category, core.ErrInvalidInput)
		}
		if c != p.Category {
			p.Category = c
			changed = true
		}
	}
	if req.Rank != nil {
		if rank := NormalizeRank(req.Rank); !sameRank(rank, p.Rank) {
			p.Rank = rank
			changed = true
		}
	}
	if req.Title != nil {
		title := core.NormalizeText(*req.Title)
		if title == "" {
			return false, fmt.Errorf("update pick: title is required: %w", core.ErrInvalidInput)
		}
		if title != p.Title {
			p.Title = title
			changed = true
		}
	}

	set := func(field *string, v *string, normalize func(string) string) {
		if v == nil {
			return
		}
		if next := normalize(*v); next != *field {
			*field = next
			changed = true
		}
	}
	set(&p.Description, req.Description, core.NormalizeText)
	set(&p.LinkURL, req.LinkURL, strings.TrimSpace)
	set(&p.ImageURL, req.ImageURL, strings.TrimSpace)

	return changed, nil
}

func sameRank(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
