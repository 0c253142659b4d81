// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/curator-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, token *RefreshToken) error
	FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	FindByID(ctx context.Context, id string) (*RefreshToken, error)
	MarkAsUsed(ctx context.Context, id, replacedByID string, at time.Time) error
	RevokeByID(ctx context.Context, id string, at time.Time) error
	RevokeByFamilyID(ctx context.Context, familyID string, at time.Time) error
	RevokeAllForUser(ctx context.Context, userID string, at time.Time) error
	GetActiveSessionsForUser(
		ctx context.Context,
		userID string,
		now time.Time,
	) ([]RefreshToken, error)
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

type tokenRow struct {
	ID           string  `db:"id"`
	UserID       string  `db:"user_id"`
	TokenHash    string  `db:"token_hash"`
	FamilyID     string  `db:"family_id"`
	ExpiresAt    int64   `db:"expires_at"`
	CreatedAt    int64   `db:"created_at"`
	IsUsed       bool    `db:"is_used"`
	UsedAt       *int64  `db:"used_at"`
	RevokedAt    *int64  `db:"revoked_at"`
	ReplacedByID *string `db:"replaced_by_id"`
	UserAgent    string  `db:"user_agent"`
	IPAddress    string  `db:"ip_address"`
}

func (r tokenRow) toEntity() RefreshToken {
	return RefreshToken{
		ID:           r.ID,
		UserID:       r.UserID,
		TokenHash:    r.TokenHash,
		FamilyID:     r.FamilyID,
		ExpiresAt:    core.FromMillis(r.ExpiresAt),
		CreatedAt:    core.FromMillis(r.CreatedAt),
		IsUsed:       r.IsUsed,
		UsedAt:       core.FromMillisPtr(r.UsedAt),
		RevokedAt:    core.FromMillisPtr(r.RevokedAt),
		ReplacedByID: r.ReplacedByID,
		UserAgent:    r.UserAgent,
		IPAddress:    r.IPAddress,
	}
}

const tokenColumns = `id, user_id, token_hash, family_id, expires_at, created_at,
	is_used, used_at, revoked_at, replaced_by_id, user_agent, ip_address`

func (r *repository) Create(ctx context.Context, token *RefreshToken) error {
	query := r.db.Rebind(`
		INSERT INTO refresh_tokens (
			id, user_id, token_hash, family_id, expires_at, created_at,
			user_agent, ip_address
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.FamilyID,
		core.ToMillis(token.ExpiresAt),
		core.ToMillis(token.CreatedAt),
		token.UserAgent,
		token.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}

	return nil
}

func (r *repository) FindByHash(
	ctx context.Context,
	tokenHash string,
) (*RefreshToken, error) {
	query := r.db.Rebind(`SELECT ` + tokenColumns + `
		FROM refresh_tokens
		WHERE token_hash = ?`)

	return r.findOne(ctx, query, tokenHash)
}

func (r *repository) FindByID(
	ctx context.Context,
	id string,
) (*RefreshToken, error) {
	query := r.db.Rebind(`SELECT ` + tokenColumns + `
		FROM refresh_tokens
		WHERE id = ?`)

	return r.findOne(ctx, query, id)
}

func (r *repository) findOne(ctx context.Context, query string, arg string) (*RefreshToken, error) {
	var row tokenRow
	err := r.db.GetContext(ctx, &row, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}

	token := row.toEntity()
	return &token, nil
}

func (r *repository) MarkAsUsed(
	ctx context.Context,
	id, replacedByID string,
	at time.Time,
) error {
	query := r.db.Rebind(`
		UPDATE refresh_tokens
		SET is_used = TRUE, used_at = ?, replaced_by_id = ?
		WHERE id = ? AND is_used = FALSE`)

	result, err := r.db.ExecContext(ctx, query, core.ToMillis(at), replacedByID, id)
	if err != nil {
		return fmt.Errorf("mark refresh token as used: %w", err)
	}

	return core.RowsAffected(result, "mark refresh token as used")
}

func (r *repository) RevokeByID(ctx context.Context, id string, at time.Time) error {
	query := r.db.Rebind(`
		UPDATE refresh_tokens
		SET revoked_at = ?
		WHERE id = ? AND revoked_at IS NULL`)

	result, err := r.db.ExecContext(ctx, query, core.ToMillis(at), id)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	return core.RowsAffected(result, "revoke refresh token")
}

func (r *repository) RevokeByFamilyID(
	ctx context.Context,
	familyID string,
	at time.Time,
) error {
	query := r.db.Rebind(`
		UPDATE refresh_tokens
		SET revoked_at = ?
		WHERE family_id = ? AND revoked_at IS NULL`)

	if _, err := r.db.ExecContext(ctx, query, core.ToMillis(at), familyID); err != nil {
		return fmt.Errorf("revoke token family: %w", err)
	}

	return nil
}

func (r *repository) RevokeAllForUser(
	ctx context.Context,
	userID string,
	at time.Time,
) error {
	query := r.db.Rebind(`
		UPDATE refresh_tokens
		SET revoked_at = ?
		WHERE user_id = ? AND revoked_at IS NULL`)

	if _, err := r.db.ExecContext(ctx, query, core.ToMillis(at), userID); err != nil {
		return fmt.Errorf("revoke all user tokens: %w", err)
	}

	return nil
}

func (r *repository) GetActiveSessionsForUser(
	ctx context.Context,
	userID string,
	now time.Time,
) ([]RefreshToken, error) {
	query := r.db.Rebind(`SELECT ` + tokenColumns + `
		FROM refresh_tokens
		WHERE user_id = ?
			AND revoked_at IS NULL
			AND is_used = FALSE
			AND expires_at > ?
		ORDER BY created_at DESC`)

	var rows []tokenRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, core.ToMillis(now)); err != nil {
		return nil, fmt.Errorf("get active sessions: %w", err)
	}

	tokens := make([]RefreshToken, 0, len(rows))
	for _, row := range rows {
		tokens = append(tokens, row.toEntity())
	}

	return tokens, nil
}

func (r *repository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	query := r.db.Rebind(`DELETE FROM refresh_tokens WHERE expires_at < ?`)

	result, err := r.db.ExecContext(ctx, query, core.ToMillis(cutoff))
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}

	return rows, nil
}
