// AngelaMos | 2026
// repository.go

package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/curator-backend/internal/core"
)

// Repository persists curator profiles. Every status change is a
// compare-and-swap on the current status; losing the swap yields
// core.ErrStaleState.
type Repository interface {
	Ensure(ctx context.Context, userID string, at time.Time) error
	Get(ctx context.Context, userID string) (*Profile, error)
	Lock(ctx context.Context, userID string) error
	UpdateDetails(ctx context.Context, p *Profile) error
	MarkSubmitted(ctx context.Context, userID string, from Status, at time.Time) error
	MarkRejected(ctx context.Context, userID, note string, at time.Time) error
	SetStatus(ctx context.Context, userID string, from, to Status, at time.Time) error
	Anonymize(ctx context.Context, userID string, at time.Time) error
	CountByStatus(ctx context.Context) (map[Status]int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

type profileRow struct {
	UserID           string  `db:"user_id"`
	DisplayName      string  `db:"display_name"`
	Title            string  `db:"title"`
	Bio              string  `db:"bio"`
	AvatarURL        string  `db:"avatar_url"`
	CoverURL         string  `db:"cover_url"`
	Status           string  `db:"status"`
	RejectionNote    *string `db:"rejection_note"`
	LastSubmittedAt  *int64  `db:"last_submitted_at"`
	DetailsUpdatedAt int64   `db:"details_updated_at"`
	AnonymizedAt     *int64  `db:"anonymized_at"`
	CreatedAt        int64   `db:"created_at"`
	UpdatedAt        int64   `db:"updated_at"`
}

func (r profileRow) toEntity() *Profile {
	return &Profile{
		UserID:           r.UserID,
		DisplayName:      r.DisplayName,
		Title:            r.Title,
		Bio:              r.Bio,
		AvatarURL:        r.AvatarURL,
		CoverURL:         r.CoverURL,
		Status:           Status(r.Status),
		RejectionNote:    r.RejectionNote,
		LastSubmittedAt:  core.FromMillisPtr(r.LastSubmittedAt),
		DetailsUpdatedAt: core.FromMillis(r.DetailsUpdatedAt),
		AnonymizedAt:     core.FromMillisPtr(r.AnonymizedAt),
		CreatedAt:        core.FromMillis(r.CreatedAt),
		UpdatedAt:        core.FromMillis(r.UpdatedAt),
	}
}

const profileColumns = `user_id, display_name, title, bio, avatar_url, cover_url,
	status, rejection_note, last_submitted_at, details_updated_at,
	anonymized_at, created_at, updated_at`

func (r *repository) Ensure(ctx context.Context, userID string, at time.Time) error {
	query := r.db.Rebind(`
		INSERT INTO curator_profiles
			(user_id, status, details_updated_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING`)

	ms := core.ToMillis(at)
	if _, err := r.db.ExecContext(ctx, query, userID, string(StatusDraft), ms, ms, ms); err != nil {
		return fmt.Errorf("ensure profile: %w", err)
	}

	return nil
}

func (r *repository) Get(ctx context.Context, userID string) (*Profile, error) {
	query := r.db.Rebind(`SELECT ` + profileColumns + `
		FROM curator_profiles
		WHERE user_id = ?`)

	var row profileRow
	err := r.db.GetContext(ctx, &row, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get profile: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	return row.toEntity(), nil
}

// Lock writes the profile row without changing it. On PostgreSQL that
// holds the row lock until the transaction ends; on SQLite it takes the
// database write lock. Either way, concurrent writers to the same
// profile's picks, reviews and status queue behind it.
func (r *repository) Lock(ctx context.Context, userID string) error {
	query := r.db.Rebind(`
		UPDATE curator_profiles
		SET updated_at = updated_at
		WHERE user_id = ?`)

	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("lock profile: %w", err)
	}

	return core.RowsAffected(result, "lock profile")
}

func (r *repository) UpdateDetails(ctx context.Context, p *Profile) error {
	query := r.db.Rebind(`
		UPDATE curator_profiles
		SET display_name = ?, title = ?, bio = ?, avatar_url = ?, cover_url = ?,
		    details_updated_at = ?, updated_at = ?
		WHERE user_id = ? AND anonymized_at IS NULL`)

	result, err := r.db.ExecContext(ctx, query,
		p.DisplayName,
		p.Title,
		p.Bio,
		p.AvatarURL,
		p.CoverURL,
		core.ToMillis(p.DetailsUpdatedAt),
		core.ToMillis(p.UpdatedAt),
		p.UserID,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	return core.RowsAffected(result, "update profile")
}

func (r *repository) MarkSubmitted(
	ctx context.Context,
	userID string,
	from Status,
	at time.Time,
) error {
	query := r.db.Rebind(`
		UPDATE curator_profiles
		SET status = ?, rejection_note = NULL, last_submitted_at = ?, updated_at = ?
		WHERE user_id = ? AND status = ?`)

	ms := core.ToMillis(at)
	result, err := r.db.ExecContext(ctx, query, string(StatusPending), ms, ms, userID, string(from))
	if err != nil {
		return fmt.Errorf("submit profile: %w", err)
	}

	return core.SwapApplied(result, "submit profile")
}

func (r *repository) MarkRejected(
	ctx context.Context,
	userID, note string,
	at time.Time,
) error {
	query := r.db.Rebind(`
		UPDATE curator_profiles
		SET status = ?, rejection_note = ?, updated_at = ?
		WHERE user_id = ? AND status = ?`)

	result, err := r.db.ExecContext(ctx, query,
		string(StatusRejected), note, core.ToMillis(at), userID, string(StatusPending))
	if err != nil {
		return fmt.Errorf("reject profile: %w", err)
	}

	return core.SwapApplied(result, "reject profile")
}

func (r *repository) SetStatus(
	ctx context.Context,
	userID string,
	from, to Status,
	at time.Time,
) error {
	query := r.db.Rebind(`
		UPDATE curator_profiles
		SET status = ?, updated_at = ?
		WHERE user_id = ? AND status = ?`)

	result, err := r.db.ExecContext(ctx, query, string(to), core.ToMillis(at), userID, string(from))
	if err != nil {
		return fmt.Errorf("set profile status: %w", err)
	}

	return core.SwapApplied(result, "set profile status")
}

// Anonymize clears personal fields but keeps the row so existing picks
// and reviews still resolve.
func (r *repository) Anonymize(ctx context.Context, userID string, at time.Time) error {
	query := r.db.Rebind(`
		UPDATE curator_profiles
		SET display_name = '', title = '', bio = '', avatar_url = '', cover_url = '',
		    anonymized_at = ?, updated_at = ?
		WHERE user_id = ? AND anonymized_at IS NULL`)

	ms := core.ToMillis(at)
	if _, err := r.db.ExecContext(ctx, query, ms, ms, userID); err != nil {
		return fmt.Errorf("anonymize profile: %w", err)
	}

	return nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	query := `SELECT status, COUNT(*) AS n FROM curator_profiles GROUP BY status`

	var rows []struct {
		Status string `db:"status"`
		N      int    `db:"n"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count profiles: %w", err)
	}

	counts := make(map[Status]int, len(rows))
	for _, row := range rows {
		counts[Status(row.Status)] = row.N
	}

	return counts, nil
}
