// AngelaMos | 2026
// service.go

package profile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/curator-backend/internal/core"
)

// Service covers the owner-editable profile details. Status changes go
// through the curation lifecycle instead.
type Service struct {
	db     *sqlx.DB
	clock  core.Clock
	logger *slog.Logger
}

func NewService(db *sqlx.DB, clock core.Clock, logger *slog.Logger) *Service {
	return &Service{db: db, clock: clock, logger: logger}
}

// GetOrCreate returns the caller's profile, creating a draft on first use.
func (s *Service) GetOrCreate(ctx context.Context, userID string) (*Profile, error) {
	var p *Profile

	err := core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repo := NewRepository(tx)
		if err := repo.Ensure(ctx, userID, s.clock.Now()); err != nil {
			return err
		}

		var err error
		p, err = repo.Get(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return p, nil
}

// Get reads a profile without creating it.
func (s *Service) Get(ctx context.Context, userID string) (*Profile, error) {
	return NewRepository(s.db).Get(ctx, userID)
}

func (s *Service) Update(
	ctx context.Context,
	userID string,
	req UpdateProfileRequest,
) (*Profile, error) {
	var (
		p       *Profile
		changed bool
	)

	err := core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repo := NewRepository(tx)
		now := s.clock.Now()

		if err := repo.Ensure(ctx, userID, now); err != nil {
			return err
		}
		if err := repo.Lock(ctx, userID); err != nil {
			return err
		}

		var err error
		p, err = repo.Get(ctx, userID)
		if err != nil {
			return err
		}
		if p.IsAnonymized() {
			return fmt.Errorf("update profile: %w", core.ErrNotFound)
		}

		if changed = applyUpdate(p, req); !changed {
			return nil
		}

		// A profile under review or live must keep what the gate required.
		if p.Status == StatusPending || p.Status == StatusApproved {
			if missing := requiredMissing(p); len(missing) > 0 {
				return fmt.Errorf(
					"update profile: %s cannot be cleared while %s: %w",
					strings.Join(missing, ", "), p.Status, core.ErrInvalidInput,
				)
			}
		}

		p.DetailsUpdatedAt = now
		p.UpdatedAt = now

		return repo.UpdateDetails(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.Debug("profile details updated", "user_id", userID)
	}

	return p, nil
}

// applyUpdate reports whether any field actually changed. Only real
// changes move details_updated_at, which gates resubmission after a
// rejection.
func applyUpdate(p *Profile, req UpdateProfileRequest) bool {
	changed := false
	set := func(field *string, v *string, normalize func(string) string) {
		if v == nil {
			return
		}
		if next := normalize(*v); next != *field {
			*field = next
			changed = true
		}
	}

	set(&p.DisplayName, req.DisplayName, core.NormalizeText)
	set(&p.Title, req.Title, core.NormalizeText)
	set(&p.Bio, req.Bio, core.NormalizeText)
	set(&p.AvatarURL, req.AvatarURL, strings.TrimSpace)
	set(&p.CoverURL, req.CoverURL, strings.TrimSpace)

	return changed
}

func requiredMissing(p *Profile) []string {
	var missing []string
	if p.DisplayName == "" {
		missing = append(missing, "display_name")
	}
	if p.Title == "" {
		missing = append(missing, "title")
	}
	if !p.HasImage() {
		missing = append(missing, "image")
	}
	return missing
}
