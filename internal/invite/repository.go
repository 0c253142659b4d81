// AngelaMos | 2026
// repository.go

package invite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/curator-backend/internal/core"
)

type Repository interface {
	// Create returns false when the code already exists.
	Create(ctx context.Context, inv *Invite) (bool, error)
	Get(ctx context.Context, code string) (*Invite, error)
	CountLive(ctx context.Context, issuerID string, now time.Time) (int, error)
	Complete(ctx context.Context, code, redeemerID, email string, now time.Time) error
	ListByIssuer(ctx context.Context, issuerID string) ([]Invite, error)
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

type inviteRow struct {
	Code          string  `db:"code"`
	IssuerID      string  `db:"issuer_id"`
	Status        string  `db:"status"`
	BoundEmail    *string `db:"bound_email"`
	RedeemerID    *string `db:"redeemer_id"`
	RedeemerEmail *string `db:"redeemer_email"`
	RedeemedAt    *int64  `db:"redeemed_at"`
	ExpiresAt     int64   `db:"expires_at"`
	CreatedAt     int64   `db:"created_at"`
}

func (r inviteRow) toEntity() Invite {
	return Invite{
		Code:          r.Code,
		IssuerID:      r.IssuerID,
		Status:        Status(r.Status),
		BoundEmail:    r.BoundEmail,
		RedeemerID:    r.RedeemerID,
		RedeemerEmail: r.RedeemerEmail,
		RedeemedAt:    core.FromMillisPtr(r.RedeemedAt),
		ExpiresAt:     core.FromMillis(r.ExpiresAt),
		CreatedAt:     core.FromMillis(r.CreatedAt),
	}
}

const inviteColumns = `code, issuer_id, status, bound_email, redeemer_id,
	redeemer_email, redeemed_at, expires_at, created_at`

// Create uses ON CONFLICT DO NOTHING so a code collision does not abort
// the surrounding PostgreSQL transaction.
func (r *repository) Create(ctx context.Context, inv *Invite) (bool, error) {
	query := r.db.Rebind(`
		INSERT INTO invite_codes (` + inviteColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (code) DO NOTHING`)

	result, err := r.db.ExecContext(ctx, query,
		inv.Code,
		inv.IssuerID,
		string(inv.Status),
		inv.BoundEmail,
		inv.RedeemerID,
		inv.RedeemerEmail,
		core.ToMillisPtr(inv.RedeemedAt),
		core.ToMillis(inv.ExpiresAt),
		core.ToMillis(inv.CreatedAt),
	)
	if err != nil {
		return false, fmt.Errorf("create invite: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create invite: %w", err)
	}

	return rows == 1, nil
}

func (r *repository) Get(ctx context.Context, code string) (*Invite, error) {
	query := r.db.Rebind(`SELECT ` + inviteColumns + `
		FROM invite_codes
		WHERE code = ?`)

	var row inviteRow
	err := r.db.GetContext(ctx, &row, query, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get invite: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get invite: %w", err)
	}

	inv := row.toEntity()
	return &inv, nil
}

func (r *repository) CountLive(ctx context.Context, issuerID string, now time.Time) (int, error) {
	query := r.db.Rebind(`
		SELECT COUNT(*) FROM invite_codes
		WHERE issuer_id = ? AND status = ? AND expires_at > ?`)

	var n int
	if err := r.db.GetContext(ctx, &n, query,
		issuerID, string(StatusPending), core.ToMillis(now)); err != nil {
		return 0, fmt.Errorf("count live invites: %w", err)
	}

	return n, nil
}

// Complete is the single authoritative redemption write. It only matches
// a code that is still pending and unexpired at now.
func (r *repository) Complete(
	ctx context.Context,
	code, redeemerID, email string,
	now time.Time,
) error {
	query := r.db.Rebind(`
		UPDATE invite_codes
		SET status = ?, redeemer_id = ?, redeemer_email = ?, redeemed_at = ?
		WHERE code = ? AND status = ? AND expires_at > ?`)

	ms := core.ToMillis(now)
	result, err := r.db.ExecContext(ctx, query,
		string(StatusCompleted), redeemerID, email, ms,
		code, string(StatusPending), ms,
	)
	if err != nil {
		return fmt.Errorf("redeem invite: %w", err)
	}

	return core.SwapApplied(result, "redeem invite")
}

func (r *repository) ListByIssuer(ctx context.Context, issuerID string) ([]Invite, error) {
	query := r.db.Rebind(`SELECT ` + inviteColumns + `
		FROM invite_codes
		WHERE issuer_id = ?
		ORDER BY created_at DESC`)

	var rows []inviteRow
	if err := r.db.SelectContext(ctx, &rows, query, issuerID); err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}

	out := make([]Invite, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}

	return out, nil
}

// ExpireStale refreshes the status cache for past-due pending codes.
func (r *repository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	query := r.db.Rebind(`
		UPDATE invite_codes
		SET status = ?
		WHERE status = ? AND expires_at <= ?`)

	result, err := r.db.ExecContext(ctx, query,
		string(StatusExpired), string(StatusPending), core.ToMillis(now))
	if err != nil {
		return 0, fmt.Errorf("expire invites: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire invites: %w", err)
	}

	return n, nil
}
